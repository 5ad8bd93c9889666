package service

import "errors"

// Error kinds; the gRPC handler maps them to status codes.
var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Client-facing failures. Each unwraps to one of the kinds above.
var (
	ErrWrongUsername = &authError{msg: "Wrong username", kind: ErrNotFound}
	ErrWrongPassword = &authError{msg: "Wrong password", kind: ErrUnauthorized}
	ErrUserExists    = &authError{msg: "User already exist", kind: ErrConflict}
	ErrMissingToken  = &authError{msg: "Missing authorization token", kind: ErrUnauthorized}
	ErrInvalidToken  = &authError{msg: "Invalid token", kind: ErrUnauthorized}
)

// authError carries the message shown to clients and the kind it classifies as.
type authError struct {
	msg  string
	kind error
}

func (e *authError) Error() string { return e.msg }

func (e *authError) Unwrap() error { return e.kind }

func invalidArgument(msg string) error {
	return &authError{msg: msg, kind: ErrInvalidArgument}
}
