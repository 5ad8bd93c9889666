// Package service implements the device-session lifecycle: token pair issuance,
// access-token verification, refresh, and per-device revocation.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"devicesession/backend/internal/revocation"
	"devicesession/backend/internal/security"
	"devicesession/backend/internal/session/domain"
)

// ErrUnauthorized is the single failure returned for any token that is malformed,
// badly signed, expired, of the wrong class, or revoked.
var ErrUnauthorized = errors.New("unauthorized")

// Codec encodes and decodes signed session tokens.
type Codec interface {
	Encode(claims security.Claims) (string, error)
	Decode(token string) (security.Claims, error)
}

// Manager issues, verifies, refreshes and revokes device sessions.
//
// Access tokens are verified by signature and expiry only; the revocation store is
// consulted for refresh tokens. A logout therefore takes effect for access tokens
// once they expire, which bounds revocation latency by the access-token lifetime.
type Manager struct {
	codec      Codec
	store      revocation.Store
	accessTTL  time.Duration
	refreshTTL time.Duration
	metrics    *metrics

	nowF        func() time.Time
	newDeviceID func() string
}

// NewManager returns a Manager. accessTTL must be shorter than refreshTTL.
func NewManager(codec Codec, store revocation.Store, accessTTL, refreshTTL time.Duration) (*Manager, error) {
	if accessTTL <= 0 || refreshTTL <= 0 || accessTTL >= refreshTTL {
		return nil, fmt.Errorf("session: access lifetime %s must be positive and shorter than refresh lifetime %s", accessTTL, refreshTTL)
	}
	return &Manager{
		codec:       codec,
		store:       store,
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
		metrics:     newMetrics(),
		nowF:        time.Now,
		newDeviceID: func() string { return uuid.New().String() },
	}, nil
}

// AccessTTL returns the access-token lifetime.
func (m *Manager) AccessTTL() time.Duration { return m.accessTTL }

// IssueTokens starts a new device session for id and returns its access and refresh tokens.
// No revocation state is written.
func (m *Manager) IssueTokens(ctx context.Context, id domain.Identity) (*domain.TokenPair, error) {
	now := m.now()
	deviceID := m.newDeviceID()
	access := claimsFor(id, deviceID, security.TokenClassAccess, now, now.Add(m.accessTTL))
	refresh := claimsFor(id, deviceID, security.TokenClassRefresh, now, now.Add(m.refreshTTL))

	accessToken, err := m.codec.Encode(access)
	if err != nil {
		return nil, fmt.Errorf("encode access token: %w", err)
	}
	refreshToken, err := m.codec.Encode(refresh)
	if err != nil {
		return nil, fmt.Errorf("encode refresh token: %w", err)
	}
	m.metrics.issued(ctx, "session")
	return &domain.TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		DeviceID:         deviceID,
		AccessExpiresAt:  access.ExpiresAt,
		RefreshExpiresAt: refresh.ExpiresAt,
	}, nil
}

// VerifyAccess decodes an access token. Every failure is reported as ErrUnauthorized.
func (m *Manager) VerifyAccess(ctx context.Context, token string) (*domain.Principal, error) {
	claims, err := m.codec.Decode(token)
	if err != nil {
		m.metrics.rejected(ctx, "access", reason(err))
		return nil, ErrUnauthorized
	}
	if claims.Class != security.TokenClassAccess {
		m.metrics.rejected(ctx, "access", "wrong_class")
		return nil, ErrUnauthorized
	}
	return principalOf(claims), nil
}

// Refresh mints a new access token for the device session named by refreshToken.
// The refresh token itself is not rotated and remains valid until it expires or is revoked.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (*domain.AccessGrant, error) {
	claims, err := m.codec.Decode(refreshToken)
	if err != nil {
		m.metrics.rejected(ctx, "refresh", reason(err))
		return nil, ErrUnauthorized
	}
	if claims.Class != security.TokenClassRefresh {
		m.metrics.rejected(ctx, "refresh", "wrong_class")
		return nil, ErrUnauthorized
	}
	if m.store.IsRevoked(ctx, claims.DeviceID, claims.IssuedAt) {
		m.metrics.rejected(ctx, "refresh", "revoked")
		return nil, ErrUnauthorized
	}

	p := principalOf(claims)
	now := m.now()
	access := claimsFor(p.Identity, p.DeviceID, security.TokenClassAccess, now, now.Add(m.accessTTL))
	token, err := m.codec.Encode(access)
	if err != nil {
		return nil, fmt.Errorf("encode access token: %w", err)
	}
	m.metrics.issued(ctx, "refresh")
	return &domain.AccessGrant{AccessToken: token, ExpiresAt: access.ExpiresAt, Principal: *p}, nil
}

// Revoke rejects every refresh token for deviceID issued at or before atLeast.
func (m *Manager) Revoke(ctx context.Context, deviceID string, atLeast time.Time) {
	m.store.Invalidate(ctx, deviceID, atLeast)
	m.metrics.revoked(ctx)
}

// LogoutHorizon is the watermark used on logout: far enough ahead that a refresh token
// issued while an access token for the device may still be live is also rejected.
func (m *Manager) LogoutHorizon() time.Time {
	return m.now().Add(m.accessTTL)
}

func (m *Manager) now() time.Time {
	// Tokens carry millisecond timestamps; keep in-memory values on the same grid.
	return m.nowF().Truncate(time.Millisecond)
}

func claimsFor(id domain.Identity, deviceID string, class security.TokenClass, iat, exp time.Time) security.Claims {
	return security.Claims{
		UserID:    id.UserID,
		Username:  id.Username,
		Email:     id.Email,
		DeviceID:  deviceID,
		Class:     class,
		IssuedAt:  iat,
		ExpiresAt: exp,
	}
}

func principalOf(c security.Claims) *domain.Principal {
	return &domain.Principal{
		Identity: domain.Identity{UserID: c.UserID, Username: c.Username, Email: c.Email},
		DeviceID: c.DeviceID,
	}
}

func reason(err error) string {
	switch {
	case errors.Is(err, security.ErrTokenExpired):
		return "expired"
	case errors.Is(err, security.ErrTokenInvalidSignature):
		return "invalid_signature"
	default:
		return "malformed"
	}
}
