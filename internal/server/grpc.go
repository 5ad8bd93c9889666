package server

import (
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	healthhandler "devicesession/backend/internal/health/handler"
	identityhandler "devicesession/backend/internal/identity/handler"
	"devicesession/backend/internal/server/interceptors"
	"devicesession/backend/internal/telemetry"
)

// AuthService is served by the auth handler and authenticates requests for the interceptor chain.
type AuthService interface {
	identityhandler.AuthService
	interceptors.Authenticator
}

// Deps holds optional service dependencies for gRPC handlers.
type Deps struct {
	// Auth is the auth service. If nil, auth RPCs return Unimplemented and no caller is authenticated.
	Auth AuthService
	// Policy decides which RPCs are public. Required when Auth is set.
	Policy interceptors.PublicPolicy
	// Events receives one rpc event per call. If nil, RPCs are not reported.
	Events telemetry.EventEmitter
	// HealthPinger is used by the health service for readiness (e.g. *sql.DB). If nil, Check skips the DB ping.
	HealthPinger healthhandler.Pinger
	// HealthPolicyChecker is used by the health service for readiness (e.g. OPA evaluator). If nil, Check skips the policy check.
	HealthPolicyChecker healthhandler.PolicyChecker
}

// healthMethods are not reported as rpc events; probes would drown the stream.
var healthMethods = map[string]bool{
	"/grpc.health.v1.Health/Check": true,
	"/grpc.health.v1.Health/Watch": true,
	"/grpc.health.v1.Health/List":  true,
}

// UnaryInterceptors returns the unary chain for deps in call order: authentication, then
// rpc telemetry so events carry the authenticated caller.
func UnaryInterceptors(deps Deps) []grpc.UnaryServerInterceptor {
	var chain []grpc.UnaryServerInterceptor
	if deps.Auth != nil && deps.Policy != nil {
		chain = append(chain, interceptors.AuthUnary(deps.Auth, deps.Policy))
	}
	if deps.Events != nil {
		chain = append(chain, interceptors.TelemetryUnary(deps.Events, healthMethods))
	}
	return chain
}

// RegisterServices registers the gRPC services with the given server.
//
// Service → handler mapping:
//   - devicesession.auth.v1.AuthService → internal/identity/handler
//   - grpc.health.v1.Health             → internal/health/handler
func RegisterServices(s grpc.ServiceRegistrar, deps Deps) {
	var auth identityhandler.AuthService
	if deps.Auth != nil {
		auth = deps.Auth
	}
	identityhandler.RegisterAuthServiceServer(s, identityhandler.NewAuthServer(auth))
	healthpb.RegisterHealthServer(s, healthhandler.NewServer(deps.HealthPinger, deps.HealthPolicyChecker, identityhandler.ServiceName))
}

// NewGRPCServer returns a server with the interceptor chain for deps and every service registered.
// opts are applied before the chain.
func NewGRPCServer(deps Deps, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(UnaryInterceptors(deps)...))
	s := grpc.NewServer(opts...)
	RegisterServices(s, deps)
	return s
}
