package repository

import (
	"context"
	"strings"
	"sync"

	"devicesession/backend/internal/identity/domain"
)

// MemoryRepository keeps credentials in process memory. Used when no DATABASE_URL is configured.
type MemoryRepository struct {
	mu         sync.RWMutex
	byUsername map[string]*domain.Credential
	emails     map[string]struct{}
}

// NewMemoryRepository returns an empty in-memory credential repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byUsername: make(map[string]*domain.Credential),
		emails:     make(map[string]struct{}),
	}
}

// GetByUsername returns a copy of the credential for username, or nil if not found.
func (r *MemoryRepository) GetByUsername(ctx context.Context, username string) (*domain.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byUsername[username]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

// Create stores a copy of c. Emails are compared case-insensitively, like the unique index.
func (r *MemoryRepository) Create(ctx context.Context, c *domain.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	email := strings.ToLower(c.Email)
	if _, ok := r.byUsername[c.Username]; ok {
		return ErrDuplicate
	}
	if _, ok := r.emails[email]; ok {
		return ErrDuplicate
	}
	cp := *c
	r.byUsername[c.Username] = &cp
	r.emails[email] = struct{}{}
	return nil
}
