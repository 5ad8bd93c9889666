package service

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "devicesession/session"

type metrics struct {
	tokensIssued   metric.Int64Counter
	tokensRejected metric.Int64Counter
	devicesRevoked metric.Int64Counter
}

// newMetrics registers session counters on the global MeterProvider. Instruments that
// fail to register fall back to no-ops so metrics never affect token handling.
func newMetrics() *metrics {
	meter := otel.Meter(meterName)
	m := &metrics{}
	var err error
	if m.tokensIssued, err = meter.Int64Counter("session.tokens.issued",
		metric.WithDescription("Access tokens issued, by trigger (new session or refresh)")); err != nil {
		log.Printf("session: metric tokens.issued: %v", err)
	}
	if m.tokensRejected, err = meter.Int64Counter("session.tokens.rejected",
		metric.WithDescription("Tokens rejected, by token class and reason")); err != nil {
		log.Printf("session: metric tokens.rejected: %v", err)
	}
	if m.devicesRevoked, err = meter.Int64Counter("session.devices.revoked",
		metric.WithDescription("Device sessions revoked by logout")); err != nil {
		log.Printf("session: metric devices.revoked: %v", err)
	}
	return m
}

func (m *metrics) issued(ctx context.Context, trigger string) {
	if m.tokensIssued != nil {
		m.tokensIssued.Add(ctx, 1, metric.WithAttributes(attribute.String("trigger", trigger)))
	}
}

func (m *metrics) rejected(ctx context.Context, class, reason string) {
	if m.tokensRejected != nil {
		m.tokensRejected.Add(ctx, 1, metric.WithAttributes(
			attribute.String("class", class),
			attribute.String("reason", reason),
		))
	}
}

func (m *metrics) revoked(ctx context.Context) {
	if m.devicesRevoked != nil {
		m.devicesRevoked.Add(ctx, 1)
	}
}
