package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/benx421/ledger-bank/internal/db"
	"github.com/benx421/ledger-bank/internal/models"
	"github.com/google/uuid"
)

// TransactionRepository defines the interface for ledger entry access.
// Entries are append-only: there is no update or delete.
type TransactionRepository interface {
	Create(ctx context.Context, txn *models.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	FindByReferenceID(ctx context.Context, referenceID string) (*models.Transaction, error)
	ExistsByReferenceID(ctx context.Context, referenceID string) (bool, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]models.Transaction, error)
	CountByAccount(ctx context.Context, accountID uuid.UUID) (int, error)
}

type transactionRepository struct {
	db db.DBTX
}

// NewTransactionRepository creates a new TransactionRepository over the pool or a transaction
func NewTransactionRepository(conn db.DBTX) TransactionRepository {
	return &transactionRepository{db: conn}
}

const transactionColumns = `id, account_id, amount, balance_after, transaction_type, description, reference_id, created_at`

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var (
		txn         models.Transaction
		description sql.NullString
	)
	err := row.Scan(
		&txn.ID,
		&txn.AccountID,
		&txn.Amount,
		&txn.BalanceAfter,
		&txn.Type,
		&description,
		&txn.ReferenceID,
		&txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if description.Valid {
		txn.Description = &description.String
	}
	return &txn, nil
}

// Create appends a ledger entry. A reused reference id yields ErrDuplicateReference.
func (r *transactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}

	query := `
		INSERT INTO transactions (id, account_id, amount, balance_after, transaction_type, description, reference_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	var description sql.NullString
	if txn.Description != nil {
		description = sql.NullString{String: *txn.Description, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		txn.ID,
		txn.AccountID,
		txn.Amount,
		txn.BalanceAfter,
		txn.Type,
		description,
		txn.ReferenceID,
	).Scan(&txn.CreatedAt)
	if isUniqueViolation(err) {
		return models.ErrDuplicateReference
	}
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// FindByID retrieves a transaction by its UUID
func (r *transactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	txn, err := scanTransaction(r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return txn, nil
}

// FindByReferenceID returns the entry with the given reference, or nil when none exists
func (r *transactionRepository) FindByReferenceID(ctx context.Context, referenceID string) (*models.Transaction, error) {
	txn, err := scanTransaction(r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE reference_id = $1`, referenceID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction by reference: %w", err)
	}
	return txn, nil
}

// ExistsByReferenceID reports whether a reference id is already used
func (r *transactionRepository) ExistsByReferenceID(ctx context.Context, referenceID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM transactions WHERE reference_id = $1)`, referenceID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check reference: %w", err)
	}
	return exists, nil
}

// ListByAccount returns one page of an account's entries, newest first
func (r *transactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	txns := []models.Transaction{}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txns, nil
}

// CountByAccount returns the number of entries recorded for an account
func (r *transactionRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE account_id = $1`, accountID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}
