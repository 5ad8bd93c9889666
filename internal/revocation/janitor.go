package revocation

import (
	"context"
	"log"
	"time"
)

// Janitor periodically sweeps a Store so memory stays bounded by live sessions.
type Janitor struct {
	store    Store
	interval time.Duration
	nowF     func() time.Time
}

// NewJanitor returns a Janitor that sweeps store every interval. A non-positive interval defaults to one minute.
func NewJanitor(store Store, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Janitor{store: store, interval: interval, nowF: time.Now}
}

// Run sweeps until ctx is done. Intended to be started in its own goroutine.
func (j *Janitor) Run(ctx context.Context) {
	t := time.NewTicker(j.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := j.store.Sweep(ctx, j.nowF()); n > 0 {
				log.Printf("revocation: swept %d expired watermarks", n)
			}
		}
	}
}
