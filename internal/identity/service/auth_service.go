// Package service implements signin, signup, request authentication, refresh and logout
// on top of the credential repository and the device-session manager.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	identitydomain "devicesession/backend/internal/identity/domain"
	"devicesession/backend/internal/identity/repository"
	sessiondomain "devicesession/backend/internal/session/domain"
	sessionservice "devicesession/backend/internal/session/service"
	"devicesession/backend/internal/telemetry"
	telemetrydomain "devicesession/backend/internal/telemetry/domain"
)

// AuthScheme is the fixed prefix of the authorization header value.
const AuthScheme = "JWT "

// Hasher derives and verifies password digests.
type Hasher interface {
	Hash(password string) (salt, digest string, err error)
	Verify(password, salt, digest string) bool
}

// SessionManager is the subset of the session manager used by the auth service.
type SessionManager interface {
	IssueTokens(ctx context.Context, id sessiondomain.Identity) (*sessiondomain.TokenPair, error)
	VerifyAccess(ctx context.Context, token string) (*sessiondomain.Principal, error)
	Refresh(ctx context.Context, refreshToken string) (*sessiondomain.AccessGrant, error)
	Revoke(ctx context.Context, deviceID string, atLeast time.Time)
	LogoutHorizon() time.Time
}

// AuthService authenticates users with username and password and manages their device sessions.
type AuthService struct {
	repo     repository.Repository
	hasher   Hasher
	sessions SessionManager
	events   telemetry.EventEmitter
	// kdf bounds concurrent password derivations; each holds a CPU for a noticeable time.
	kdf *semaphore.Weighted

	nowF  func() time.Time
	newID func() string
}

// NewAuthService returns an AuthService. events may be nil. maxConcurrentHashes values below 1 are treated as 1.
func NewAuthService(repo repository.Repository, hasher Hasher, sessions SessionManager, events telemetry.EventEmitter, maxConcurrentHashes int64) *AuthService {
	if maxConcurrentHashes < 1 {
		maxConcurrentHashes = 1
	}
	return &AuthService{
		repo:     repo,
		hasher:   hasher,
		sessions: sessions,
		events:   events,
		kdf:      semaphore.NewWeighted(maxConcurrentHashes),
		nowF:     time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

// Signin verifies username and password and starts a new device session.
// Unknown usernames fail with ErrWrongUsername, bad passwords with ErrWrongPassword.
// The username is trimmed the same way Signup trims it before storing.
func (s *AuthService) Signin(ctx context.Context, username, password string) (*sessiondomain.TokenPair, error) {
	username = strings.TrimSpace(username)
	cred, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("signin: lookup credential: %w", err)
	}
	if cred == nil {
		s.emitFailure(username, "wrong_username")
		return nil, ErrWrongUsername
	}
	var ok bool
	if err := s.withKDF(ctx, func() { ok = s.hasher.Verify(password, cred.Salt, cred.Hash) }); err != nil {
		return nil, err
	}
	if !ok {
		s.emitFailure(username, "wrong_password")
		return nil, ErrWrongPassword
	}
	pair, err := s.sessions.IssueTokens(ctx, identityOf(cred))
	if err != nil {
		return nil, fmt.Errorf("signin: %w", err)
	}
	s.emit(telemetrydomain.EventSignin, cred.ID, cred.Username, pair.DeviceID)
	return pair, nil
}

// Signup registers a credential and starts a device session for it.
// A taken username or email fails with ErrUserExists.
func (s *AuthService) Signup(ctx context.Context, username, email, password string) (*sessiondomain.TokenPair, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	switch {
	case username == "":
		return nil, invalidArgument("username is required")
	case email == "":
		return nil, invalidArgument("email is required")
	case password == "":
		return nil, invalidArgument("password is required")
	}

	var salt, digest string
	var hashErr error
	if err := s.withKDF(ctx, func() { salt, digest, hashErr = s.hasher.Hash(password) }); err != nil {
		return nil, err
	}
	if hashErr != nil {
		return nil, fmt.Errorf("signup: hash password: %w", hashErr)
	}
	cred := &identitydomain.Credential{
		ID:        s.newID(),
		Username:  username,
		Email:     email,
		Hash:      digest,
		Salt:      salt,
		CreatedAt: s.nowF().UTC(),
	}
	if err := s.repo.Create(ctx, cred); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("signup: create credential: %w", err)
	}
	pair, err := s.sessions.IssueTokens(ctx, identityOf(cred))
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}
	s.emit(telemetrydomain.EventSignup, cred.ID, cred.Username, pair.DeviceID)
	return pair, nil
}

// Authenticate verifies the authorization header value of a protected request and returns
// the caller. The value must be AuthScheme followed by an access token.
func (s *AuthService) Authenticate(ctx context.Context, authorization string) (*sessiondomain.Principal, error) {
	token, ok := strings.CutPrefix(authorization, AuthScheme)
	if !ok || strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}
	p, err := s.sessions.VerifyAccess(ctx, strings.TrimSpace(token))
	if err != nil {
		s.emitFailure("", "invalid_access_token")
		return nil, ErrInvalidToken
	}
	return p, nil
}

// RefreshAccessToken mints a new access token from a refresh token. The refresh token is not rotated.
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (*sessiondomain.AccessGrant, error) {
	if refreshToken == "" {
		return nil, ErrInvalidToken
	}
	grant, err := s.sessions.Refresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, sessionservice.ErrUnauthorized) {
			s.emitFailure("", "invalid_refresh_token")
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}
	s.emit(telemetrydomain.EventRefresh, grant.Principal.UserID, grant.Principal.Username, grant.Principal.DeviceID)
	return grant, nil
}

// Logout revokes every refresh token of the device issued before the logout horizon.
// Access tokens already handed out stay valid until they expire.
func (s *AuthService) Logout(ctx context.Context, deviceID string) error {
	if deviceID == "" {
		return invalidArgument("device id is required")
	}
	s.sessions.Revoke(ctx, deviceID, s.sessions.LogoutHorizon())
	s.emit(telemetrydomain.EventLogout, "", "", deviceID)
	return nil
}

// withKDF runs fn while holding a derivation slot. It fails only if ctx ends while waiting.
func (s *AuthService) withKDF(ctx context.Context, fn func()) error {
	if err := s.kdf.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("wait for password hashing: %w", err)
	}
	defer s.kdf.Release(1)
	fn()
	return nil
}

func (s *AuthService) emit(t telemetrydomain.EventType, userID, username, deviceID string) {
	telemetry.EmitAsync(s.events, &telemetrydomain.SessionEvent{
		Type:       t,
		UserID:     userID,
		Username:   username,
		DeviceID:   deviceID,
		OccurredAt: s.nowF().UTC(),
	})
}

func (s *AuthService) emitFailure(username, reason string) {
	telemetry.EmitAsync(s.events, &telemetrydomain.SessionEvent{
		Type:       telemetrydomain.EventAuthFailure,
		Username:   username,
		Reason:     reason,
		OccurredAt: s.nowF().UTC(),
	})
}

func identityOf(c *identitydomain.Credential) sessiondomain.Identity {
	return sessiondomain.Identity{UserID: c.ID, Username: c.Username, Email: c.Email}
}
