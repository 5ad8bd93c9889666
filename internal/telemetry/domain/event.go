// Package domain defines the session events emitted by the auth service.
package domain

import "time"

// EventType names a session lifecycle event.
type EventType string

const (
	EventSignin      EventType = "signin"
	EventSignup      EventType = "signup"
	EventRefresh     EventType = "refresh"
	EventLogout      EventType = "logout"
	EventAuthFailure EventType = "auth_failure"
	// EventRPC records a completed RPC with its status code in Reason.
	EventRPC EventType = "rpc"
)

// SessionEvent is a single session lifecycle event. It never carries tokens or credentials.
type SessionEvent struct {
	Type       EventType `json:"type"`
	UserID     string    `json:"user_id,omitempty"`
	Username   string    `json:"username,omitempty"`
	DeviceID   string    `json:"device_id,omitempty"`
	Method     string    `json:"method,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	ClientIP   string    `json:"client_ip,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
