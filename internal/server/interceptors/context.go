package interceptors

import (
	"context"

	"devicesession/backend/internal/session/domain"
)

type contextKey struct{ name string }

var principalKey = contextKey{"principal"}

// WithPrincipal returns a context carrying the authenticated caller.
func WithPrincipal(ctx context.Context, p *domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the caller set by AuthUnary, if any.
func PrincipalFromContext(ctx context.Context) (*domain.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*domain.Principal)
	return p, ok && p != nil
}

// GetUserID returns the caller's user id and true if the request is authenticated.
func GetUserID(ctx context.Context) (string, bool) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return "", false
	}
	return p.UserID, true
}

// GetDeviceID returns the caller's device id and true if the request is authenticated.
func GetDeviceID(ctx context.Context) (string, bool) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return "", false
	}
	return p.DeviceID, true
}
