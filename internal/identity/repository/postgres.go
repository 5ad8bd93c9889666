package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"devicesession/backend/internal/identity/domain"
)

// uniqueViolation is the Postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

const (
	selectByUsername = `SELECT id, username, email, hash, salt, created_at FROM credentials WHERE username = $1`
	insertCredential = `INSERT INTO credentials (id, username, email, hash, salt, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
)

// PostgresRepository stores credentials in the credentials table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a credential repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByUsername returns the credential for username, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*domain.Credential, error) {
	var c domain.Credential
	err := r.db.QueryRowContext(ctx, selectByUsername, username).
		Scan(&c.ID, &c.Username, &c.Email, &c.Hash, &c.Salt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return &c, nil
}

// Create persists the credential. The credential must have ID set; it is not assigned by this method.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.Credential) error {
	_, err := r.db.ExecContext(ctx, insertCredential, c.ID, c.Username, c.Email, c.Hash, c.Salt, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create credential: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
