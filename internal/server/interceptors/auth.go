package interceptors

import (
	"context"
	"log"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"devicesession/backend/internal/session/domain"
)

// authorizationHeader is the metadata key carrying "JWT <access token>".
const authorizationHeader = "authorization"

// Authenticator verifies the raw authorization header value of a request.
type Authenticator interface {
	Authenticate(ctx context.Context, authorization string) (*domain.Principal, error)
}

// PublicPolicy decides which full method names may be called without an access token.
type PublicPolicy interface {
	IsPublic(ctx context.Context, fullMethod string) (bool, error)
}

// AuthUnary returns a unary server interceptor that authenticates the caller from the
// authorization metadata and stores the principal in context. Methods the policy marks
// public run without a token; a valid token on a public method still sets the principal.
// A policy evaluation error treats the method as protected.
func AuthUnary(auth Authenticator, policy PublicPolicy) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		public, err := policy.IsPublic(ctx, info.FullMethod)
		if err != nil {
			log.Printf("auth: access policy for %s: %v", info.FullMethod, err)
			public = false
		}

		header := extractAuthorization(ctx)
		if header == "" && public {
			return handler(ctx, req)
		}
		p, err := auth.Authenticate(ctx, header)
		if err != nil {
			if public {
				return handler(ctx, req)
			}
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}
		return handler(WithPrincipal(ctx, p), req)
	}
}

// extractAuthorization returns the first authorization metadata value, or "".
func extractAuthorization(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get(authorizationHeader)
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}
