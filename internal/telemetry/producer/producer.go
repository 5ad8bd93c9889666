// Package producer publishes session events to Kafka for the Loki worker.
package producer

import (
	"devicesession/backend/internal/telemetry"
)

// Producer is an EventEmitter backed by an external broker. Callers use it best-effort.
type Producer interface {
	telemetry.EventEmitter
	// Close flushes and releases the underlying writer. Safe to call if already closed.
	Close() error
}
