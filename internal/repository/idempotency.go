package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benx421/ledger-bank/internal/db"
	"github.com/benx421/ledger-bank/internal/models"
)

// IdempotencyRepository tracks money-movement requests by caller key. A key
// is claimed before the request runs, so only one request per key ever moves
// money; later requests replay the recorded outcome.
type IdempotencyRepository interface {
	Claim(ctx context.Context, claim *models.IdempotencyKey) (bool, error)
	Get(ctx context.Context, key, requestPath string) (*models.IdempotencyKey, error)
	Complete(ctx context.Context, record *models.IdempotencyKey) error
	Release(ctx context.Context, key, requestPath string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type idempotencyRepository struct {
	db db.DBTX
}

// NewIdempotencyRepository creates a new IdempotencyRepository
func NewIdempotencyRepository(conn db.DBTX) IdempotencyRepository {
	return &idempotencyRepository{db: conn}
}

// Claim inserts an in-flight row for the key and reports whether this call
// created it. The primary key makes concurrent claims race in the database.
func (r *idempotencyRepository) Claim(ctx context.Context, claim *models.IdempotencyKey) (bool, error) {
	query := `
		INSERT INTO idempotency_keys (key, request_path, request_hash, response_status, response_body)
		VALUES ($1, $2, $3, 0, '')
		ON CONFLICT (key, request_path) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query, claim.Key, claim.RequestPath, claim.RequestHash)
	if err != nil {
		return false, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n == 1, nil
}

// Get returns the row for key and path, or nil when none exists
func (r *idempotencyRepository) Get(ctx context.Context, key, requestPath string) (*models.IdempotencyKey, error) {
	query := `
		SELECT key, request_path, request_hash, response_status, response_body, created_at
		FROM idempotency_keys
		WHERE key = $1 AND request_path = $2
	`

	var record models.IdempotencyKey
	err := r.db.QueryRowContext(ctx, query, key, requestPath).Scan(
		&record.Key,
		&record.RequestPath,
		&record.RequestHash,
		&record.ResponseStatus,
		&record.ResponseBody,
		&record.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get idempotency key: %w", err)
	}
	return &record, nil
}

// Complete records the outcome on a claim still in flight
func (r *idempotencyRepository) Complete(ctx context.Context, record *models.IdempotencyKey) error {
	query := `
		UPDATE idempotency_keys
		SET response_status = $3, response_body = $4
		WHERE key = $1 AND request_path = $2 AND response_status = 0
	`

	result, err := r.db.ExecContext(ctx, query,
		record.Key,
		record.RequestPath,
		record.ResponseStatus,
		record.ResponseBody,
	)
	if err != nil {
		return fmt.Errorf("failed to complete idempotency key: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return models.ErrClaimNotHeld
	}
	return nil
}

// Release drops an in-flight claim so the key can be retried. Completed
// rows are left alone.
func (r *idempotencyRepository) Release(ctx context.Context, key, requestPath string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM idempotency_keys WHERE key = $1 AND request_path = $2 AND response_status = 0`,
		key, requestPath,
	)
	if err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}

// DeleteOlderThan purges keys created before cutoff and returns how many were removed
func (r *idempotencyRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge idempotency keys: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
