package telemetry

import (
	"context"
	"errors"

	"devicesession/backend/internal/telemetry/domain"
)

// EventEmitter emits session events (e.g. to OTel Logs or Kafka). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *domain.SessionEvent) error
}

// Fanout emits each event to every non-nil emitter and joins their errors.
type Fanout []EventEmitter

// NewFanout returns a Fanout over the non-nil emitters.
func NewFanout(emitters ...EventEmitter) Fanout {
	out := make(Fanout, 0, len(emitters))
	for _, e := range emitters {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Emit sends event to all emitters, continuing past failures.
func (f Fanout) Emit(ctx context.Context, event *domain.SessionEvent) error {
	var errs []error
	for _, e := range f {
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
