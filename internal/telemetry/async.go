package telemetry

import (
	"context"
	"log"
	"sync"
	"time"

	"devicesession/backend/internal/telemetry/domain"
)

// emitTimeout bounds a single background emit.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is the longest Drain needs: every pending emit gives up after emitTimeout.
const ShutdownDrainDuration = emitTimeout

// inflight tracks emits started by EmitAsync that have not returned yet.
var inflight sync.WaitGroup

// EmitAsync sends event from a background goroutine so session operations never wait on
// a sink. Failures are logged. A nil emitter or event is a no-op.
// The emit runs on its own context; request cancellation does not abort it.
func EmitAsync(emitter EventEmitter, event *domain.SessionEvent) {
	if emitter == nil || event == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	inflight.Add(1)
	go func() {
		defer inflight.Done()
		emitCtx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := emitter.Emit(emitCtx, event); err != nil {
			log.Printf("telemetry: emit %s for device %q: %v", event.Type, event.DeviceID, err)
		}
	}()
}

// Drain waits until every pending EmitAsync call has returned or ctx is done.
// Call it after the gRPC server stops and before the sinks are closed.
func Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
