package interceptors

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	sessiondomain "devicesession/backend/internal/session/domain"
	"devicesession/backend/internal/telemetry/domain"
)

type chanEmitter chan *domain.SessionEvent

func (c chanEmitter) Emit(_ context.Context, ev *domain.SessionEvent) error {
	c <- ev
	return nil
}

func TestTelemetryUnary_EmitsRPCEvent(t *testing.T) {
	events := make(chanEmitter, 1)
	ic := TelemetryUnary(events, nil)
	ctx := WithPrincipal(context.Background(), &sessiondomain.Principal{
		Identity: sessiondomain.Identity{UserID: "u1", Username: "alice"},
		DeviceID: "d1",
	})
	_, err := ic(ctx, "req", &grpc.UnaryServerInfo{FullMethod: protectedMethod}, func(context.Context, interface{}) (interface{}, error) {
		return nil, status.Error(codes.NotFound, "nope")
	})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("handler error not passed through: %v", err)
	}
	select {
	case ev := <-events:
		if ev.Type != domain.EventRPC || ev.Method != protectedMethod || ev.Reason != "NotFound" {
			t.Errorf("event = %+v", ev)
		}
		if ev.UserID != "u1" || ev.DeviceID != "d1" || ev.ClientIP != "unknown" {
			t.Errorf("event caller = %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event emitted")
	}
}

func TestTelemetryUnary_SkipAndNil(t *testing.T) {
	events := make(chanEmitter, 1)
	handler := func(context.Context, interface{}) (interface{}, error) { return "ok", nil }

	ic := TelemetryUnary(events, map[string]bool{publicMethod: true})
	if resp, err := ic(context.Background(), "req", &grpc.UnaryServerInfo{FullMethod: publicMethod}, handler); err != nil || resp != "ok" {
		t.Fatalf("resp = %v, err = %v", resp, err)
	}
	if resp, err := TelemetryUnary(nil, nil)(context.Background(), "req", &grpc.UnaryServerInfo{FullMethod: protectedMethod}, handler); err != nil || resp != "ok" {
		t.Fatalf("nil emitter: resp = %v, err = %v", resp, err)
	}
	select {
	case ev := <-events:
		t.Errorf("skipped method emitted %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}
