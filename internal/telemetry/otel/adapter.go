package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"devicesession/backend/internal/telemetry"
	"devicesession/backend/internal/telemetry/domain"
)

// loggerName is the instrumentation scope of session event records.
const loggerName = "devicesession.session"

// recordLogger is the part of otellog.Logger the emitter uses.
type recordLogger interface {
	Emit(ctx context.Context, record otellog.Record)
}

// NewEventEmitter returns an EventEmitter that sends session events as OTel log records via provider.
// If provider is nil, returns a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return NewEventEmitterWithLogger(provider.Logger(loggerName))
}

// NewEventEmitterWithLogger returns an EventEmitter writing to logger.
func NewEventEmitterWithLogger(logger recordLogger) telemetry.EventEmitter {
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *domain.SessionEvent) error { return nil }

type otelEmitter struct {
	logger recordLogger
}

// Emit converts the session event to an OTel log record. Auth failures are logged at WARN.
func (e *otelEmitter) Emit(ctx context.Context, event *domain.SessionEvent) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	ts := event.OccurredAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.SetTimestamp(ts)
	rec.SetObservedTimestamp(time.Now().UTC())
	rec.SetEventName("session." + string(event.Type))
	rec.SetBody(otellog.StringValue(string(event.Type)))
	if event.Type == domain.EventAuthFailure {
		rec.SetSeverity(otellog.SeverityWarn)
		rec.SetSeverityText("WARN")
	} else {
		rec.SetSeverity(otellog.SeverityInfo)
		rec.SetSeverityText("INFO")
	}
	rec.AddAttributes(otellog.String("event_type", string(event.Type)))
	if event.UserID != "" {
		rec.AddAttributes(otellog.String("user_id", event.UserID))
	}
	if event.Username != "" {
		rec.AddAttributes(otellog.String("username", event.Username))
	}
	if event.DeviceID != "" {
		rec.AddAttributes(otellog.String("device_id", event.DeviceID))
	}
	if event.Method != "" {
		rec.AddAttributes(otellog.String("rpc.method", event.Method))
	}
	if event.Reason != "" {
		rec.AddAttributes(otellog.String("reason", event.Reason))
	}
	e.logger.Emit(ctx, rec)
	return nil
}
