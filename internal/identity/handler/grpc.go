// Package handler exposes the auth service over gRPC with a JSON codec.
package handler

import (
	"context"
	"errors"
	"log"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"devicesession/backend/internal/identity/service"
	"devicesession/backend/internal/server/interceptors"
	sessiondomain "devicesession/backend/internal/session/domain"
)

// AuthService is the identity service used by the handler.
type AuthService interface {
	Signin(ctx context.Context, username, password string) (*sessiondomain.TokenPair, error)
	Signup(ctx context.Context, username, email, password string) (*sessiondomain.TokenPair, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (*sessiondomain.AccessGrant, error)
	Logout(ctx context.Context, deviceID string) error
}

// AuthServer implements AuthServiceServer. Logout and Info need the principal set by interceptors.AuthUnary.
type AuthServer struct {
	auth AuthService
}

// NewAuthServer returns a new Auth gRPC server. If auth is nil, every RPC returns Unimplemented.
func NewAuthServer(auth AuthService) *AuthServer {
	return &AuthServer{auth: auth}
}

// Signin verifies username and password and returns a new device session.
func (s *AuthServer) Signin(ctx context.Context, req *SigninRequest) (*TokenPairResponse, error) {
	if s.auth == nil {
		return nil, status.Error(codes.Unimplemented, "method Signin not implemented")
	}
	pair, err := s.auth.Signin(ctx, req.Username, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}
	return tokenPairResponse(pair), nil
}

// Signup registers a credential and returns a new device session.
func (s *AuthServer) Signup(ctx context.Context, req *SignupRequest) (*TokenPairResponse, error) {
	if s.auth == nil {
		return nil, status.Error(codes.Unimplemented, "method Signup not implemented")
	}
	pair, err := s.auth.Signup(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}
	return tokenPairResponse(pair), nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *AuthServer) Refresh(ctx context.Context, req *RefreshRequest) (*RefreshResponse, error) {
	if s.auth == nil {
		return nil, status.Error(codes.Unimplemented, "method Refresh not implemented")
	}
	grant, err := s.auth.RefreshAccessToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, toStatus(err)
	}
	return &RefreshResponse{AccessToken: grant.AccessToken, ExpiresAtMs: grant.ExpiresAt.UnixMilli()}, nil
}

// Logout revokes the caller's device session.
func (s *AuthServer) Logout(ctx context.Context, _ *LogoutRequest) (*LogoutResponse, error) {
	if s.auth == nil {
		return nil, status.Error(codes.Unimplemented, "method Logout not implemented")
	}
	deviceID, ok := interceptors.GetDeviceID(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, service.ErrMissingToken.Error())
	}
	if err := s.auth.Logout(ctx, deviceID); err != nil {
		return nil, toStatus(err)
	}
	return &LogoutResponse{}, nil
}

// Info returns the caller's user id.
func (s *AuthServer) Info(ctx context.Context, _ *InfoRequest) (*InfoResponse, error) {
	p, ok := interceptors.PrincipalFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, service.ErrMissingToken.Error())
	}
	return &InfoResponse{ID: p.UserID, Username: p.Username, DeviceID: p.DeviceID}, nil
}

func tokenPairResponse(p *sessiondomain.TokenPair) *TokenPairResponse {
	return &TokenPairResponse{
		AccessToken:        p.AccessToken,
		RefreshToken:       p.RefreshToken,
		DeviceID:           p.DeviceID,
		AccessExpiresAtMs:  p.AccessExpiresAt.UnixMilli(),
		RefreshExpiresAtMs: p.RefreshExpiresAt.UnixMilli(),
	}
}

// toStatus maps service errors to gRPC status. Internal errors are logged and not echoed to the client.
func toStatus(err error) error {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, service.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		log.Printf("auth: internal error: %v", err)
		return status.Error(codes.Internal, "internal error")
	}
}
