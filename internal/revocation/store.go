// Package revocation tracks per-device refresh-token revocation watermarks in memory.
package revocation

import (
	"context"
	"sync"
	"time"
)

// Store records, per device identifier, the instant at or before which every
// refresh token for that device is rejected.
type Store interface {
	// Invalidate raises the watermark for deviceID to before. It never lowers an existing watermark.
	Invalidate(ctx context.Context, deviceID string, before time.Time)
	// IsRevoked reports whether a token for deviceID issued at issuedAt is at or below the watermark.
	IsRevoked(ctx context.Context, deviceID string, issuedAt time.Time) bool
	// Sweep drops watermarks that can no longer affect an unexpired refresh token. Returns the number removed.
	Sweep(ctx context.Context, now time.Time) int
}

// MemoryStore is a process-local Store guarded by a single RWMutex, so a
// completed Invalidate is visible to every later IsRevoked.
type MemoryStore struct {
	mu         sync.RWMutex
	watermarks map[string]time.Time
	// maxRefreshLifetime bounds how long after a watermark a token issued before it can still be live.
	maxRefreshLifetime time.Duration
}

// NewMemoryStore returns an empty store. maxRefreshLifetime is the refresh-token
// lifetime used by Sweep to decide when an entry is moot.
func NewMemoryStore(maxRefreshLifetime time.Duration) *MemoryStore {
	return &MemoryStore{
		watermarks:         make(map[string]time.Time),
		maxRefreshLifetime: maxRefreshLifetime,
	}
}

// Invalidate sets the watermark for deviceID to max(existing, before).
func (s *MemoryStore) Invalidate(ctx context.Context, deviceID string, before time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.watermarks[deviceID]; ok && !before.After(cur) {
		return
	}
	s.watermarks[deviceID] = before
}

// IsRevoked returns true iff a watermark exists for deviceID and issuedAt <= watermark.
func (s *MemoryStore) IsRevoked(ctx context.Context, deviceID string, issuedAt time.Time) bool {
	s.mu.RLock()
	w, ok := s.watermarks[deviceID]
	s.mu.RUnlock()
	return ok && !issuedAt.After(w)
}

// Sweep removes every entry whose watermark plus the refresh lifetime is not after now.
func (s *MemoryStore) Sweep(ctx context.Context, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, w := range s.watermarks {
		if !w.Add(s.maxRefreshLifetime).After(now) {
			delete(s.watermarks, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked devices.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.watermarks)
}
