package revocation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

const refreshLifetime = 30 * 24 * time.Hour

var base = time.UnixMilli(1_700_000_000_000)

func TestMemoryStore_IsRevoked_NoEntry(t *testing.T) {
	s := NewMemoryStore(refreshLifetime)
	if s.IsRevoked(context.Background(), "device-1", base) {
		t.Error("IsRevoked should be false when no watermark exists")
	}
}

func TestMemoryStore_Invalidate_Boundary(t *testing.T) {
	s := NewMemoryStore(refreshLifetime)
	ctx := context.Background()
	s.Invalidate(ctx, "device-1", base)

	tests := []struct {
		name     string
		issuedAt time.Time
		want     bool
	}{
		{"issued before watermark", base.Add(-time.Second), true},
		{"issued exactly at watermark", base, true},
		{"issued after watermark", base.Add(time.Millisecond), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.IsRevoked(ctx, "device-1", tt.issuedAt); got != tt.want {
				t.Errorf("IsRevoked(%v) = %v, want %v", tt.issuedAt, got, tt.want)
			}
		})
	}
	if s.IsRevoked(ctx, "device-2", base.Add(-time.Hour)) {
		t.Error("watermark for device-1 should not affect device-2")
	}
}

func TestMemoryStore_Invalidate_Monotonic(t *testing.T) {
	s := NewMemoryStore(refreshLifetime)
	ctx := context.Background()
	s.Invalidate(ctx, "device-1", base.Add(time.Hour))
	s.Invalidate(ctx, "device-1", base)

	if !s.IsRevoked(ctx, "device-1", base.Add(30*time.Minute)) {
		t.Error("a lower second Invalidate must not loosen the watermark")
	}

	s.Invalidate(ctx, "device-1", base.Add(2*time.Hour))
	if !s.IsRevoked(ctx, "device-1", base.Add(90*time.Minute)) {
		t.Error("a higher Invalidate should tighten the watermark")
	}
}

func TestMemoryStore_Invalidate_Idempotent(t *testing.T) {
	s := NewMemoryStore(refreshLifetime)
	ctx := context.Background()
	s.Invalidate(ctx, "device-1", base)
	s.Invalidate(ctx, "device-1", base)
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
	if !s.IsRevoked(ctx, "device-1", base) {
		t.Error("IsRevoked should be true at the watermark")
	}
}

func TestMemoryStore_Sweep(t *testing.T) {
	s := NewMemoryStore(refreshLifetime)
	ctx := context.Background()
	s.Invalidate(ctx, "old", base)
	s.Invalidate(ctx, "recent", base.Add(refreshLifetime))

	if n := s.Sweep(ctx, base.Add(refreshLifetime-time.Millisecond)); n != 0 {
		t.Errorf("Sweep before horizon removed %d, want 0", n)
	}
	if n := s.Sweep(ctx, base.Add(refreshLifetime)); n != 1 {
		t.Errorf("Sweep at horizon removed %d, want 1", n)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
	if !s.IsRevoked(ctx, "recent", base) {
		t.Error("Sweep removed a watermark that can still affect live tokens")
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	s := NewMemoryStore(refreshLifetime)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(3)
		id := fmt.Sprintf("device-%d", i%5)
		go func(i int) {
			defer wg.Done()
			s.Invalidate(ctx, id, base.Add(time.Duration(i)*time.Second))
		}(i)
		go func() {
			defer wg.Done()
			s.IsRevoked(ctx, id, base)
		}()
		go func() {
			defer wg.Done()
			s.Sweep(ctx, base)
		}()
	}
	wg.Wait()

	// device-0 received watermarks at 0s, 5s, 10s, 15s; the max must win regardless of order.
	if !s.IsRevoked(ctx, "device-0", base.Add(15*time.Second)) {
		t.Error("concurrent Invalidate lost the highest watermark")
	}
	if s.IsRevoked(ctx, "device-0", base.Add(16*time.Second)) {
		t.Error("watermark higher than any Invalidate call")
	}
}

func TestMemoryStore_WriteVisibleToLaterReads(t *testing.T) {
	s := NewMemoryStore(refreshLifetime)
	ctx := context.Background()
	done := make(chan struct{})
	go func() {
		s.Invalidate(ctx, "device-1", base)
		close(done)
	}()
	<-done
	if !s.IsRevoked(ctx, "device-1", base) {
		t.Error("IsRevoked started after Invalidate returned must observe it")
	}
}

func TestJanitor_Run(t *testing.T) {
	s := NewMemoryStore(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	s.Invalidate(ctx, "device-1", base)

	j := NewJanitor(s, 5*time.Millisecond)
	j.nowF = func() time.Time { return base.Add(time.Hour) }
	done := make(chan struct{})
	go func() {
		j.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for s.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("janitor did not sweep within deadline")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestNewJanitor_DefaultInterval(t *testing.T) {
	j := NewJanitor(NewMemoryStore(time.Hour), 0)
	if j.interval != time.Minute {
		t.Errorf("interval = %v, want %v", j.interval, time.Minute)
	}
}
