package repository

import (
	"context"
	"errors"

	"devicesession/backend/internal/identity/domain"
)

// ErrDuplicate is returned by Create when the username or email is already registered.
var ErrDuplicate = errors.New("duplicate credential")

// Repository defines persistence for credentials.
type Repository interface {
	// GetByUsername returns the credential for username, or nil if not found.
	GetByUsername(ctx context.Context, username string) (*domain.Credential, error)
	// Create inserts c. Returns ErrDuplicate on a username or email conflict.
	Create(ctx context.Context, c *domain.Credential) error
}
