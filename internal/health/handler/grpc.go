package handler

import (
	"context"
	"log"

	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// Pinger reports whether the credential store is reachable (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker reports whether the access policy evaluates (e.g. *engine.OPAEvaluator).
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server implements grpc.health.v1.Health for readiness probes.
// Check answers for the whole server ("") and for each name in services.
type Server struct {
	healthpb.UnimplementedHealthServer

	pinger   Pinger
	policy   PolicyChecker
	services map[string]bool
}

// NewServer returns a health server. A nil pinger or policy skips that check.
func NewServer(pinger Pinger, policy PolicyChecker, services ...string) *Server {
	known := map[string]bool{"": true}
	for _, s := range services {
		known[s] = true
	}
	return &Server{pinger: pinger, policy: policy, services: known}
}

// Check returns SERVING when every configured dependency responds, NOT_SERVING otherwise.
// Dependency failures are reported in the status, never as an RPC error.
func (s *Server) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if !s.services[req.GetService()] {
		return nil, status.Errorf(codes.NotFound, "unknown service %q", req.GetService())
	}
	if s.pinger != nil {
		if err := s.pinger.PingContext(ctx); err != nil {
			log.Printf("health: database ping failed: %v", err)
			return notServing(), nil
		}
	}
	if s.policy != nil {
		if err := s.policy.HealthCheck(ctx); err != nil {
			log.Printf("health: access policy check failed: %v", err)
			return notServing(), nil
		}
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}

func notServing() *healthpb.HealthCheckResponse {
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}
}
