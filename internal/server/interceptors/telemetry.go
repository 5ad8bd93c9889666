package interceptors

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"devicesession/backend/internal/telemetry"
	"devicesession/backend/internal/telemetry/domain"
)

// TelemetryUnary returns a unary server interceptor that emits an rpc session event after each RPC,
// carrying the status code and the caller when authenticated. Best-effort: emit failures never fail
// the RPC. skipMethods is the set of full method names to not emit (e.g. health checks).
// Chain it after AuthUnary so the principal is in context; rejected calls are reported by the auth service.
func TelemetryUnary(emitter telemetry.EventEmitter, skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		if emitter == nil || skipMethods[info.FullMethod] {
			return resp, err
		}
		event := &domain.SessionEvent{
			Type:       domain.EventRPC,
			Method:     info.FullMethod,
			Reason:     status.Code(err).String(),
			ClientIP:   ClientIP(ctx),
			OccurredAt: time.Now().UTC(),
		}
		if p, ok := PrincipalFromContext(ctx); ok {
			event.UserID = p.UserID
			event.Username = p.Username
			event.DeviceID = p.DeviceID
		}
		telemetry.EmitAsync(emitter, event)
		return resp, err
	}
}
