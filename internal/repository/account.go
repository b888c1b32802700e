// Package repository provides data access layer implementations for the ledger.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/benx421/ledger-bank/internal/db"
	"github.com/benx421/ledger-bank/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	FindByAccountNumber(ctx context.Context, accountNumber string) (*models.Account, error)
	FindByAccountNumberForUpdate(ctx context.Context, accountNumber string) (*models.Account, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]models.Account, error)
	ExistsByAccountNumber(ctx context.Context, accountNumber string) (bool, error)
	Create(ctx context.Context, account *models.Account) error
	IncrementBalance(ctx context.Context, accountNumber string, amount decimal.Decimal) error
	DecrementBalance(ctx context.Context, accountNumber string, amount decimal.Decimal) error
	GetBalance(ctx context.Context, accountNumber string) (decimal.Decimal, error)
	UpdateStatusByUserID(ctx context.Context, userID uuid.UUID, status models.AccountStatus) error
	FindBalanceDrift(ctx context.Context) ([]models.BalanceDrift, error)
}

type accountRepository struct {
	db db.DBTX
}

// NewAccountRepository creates a new AccountRepository over the pool or a transaction
func NewAccountRepository(conn db.DBTX) AccountRepository {
	return &accountRepository{db: conn}
}

const accountColumns = `id, user_id, account_number, balance, status, created_at, updated_at`

func scanAccount(row rowScanner) (*models.Account, error) {
	var account models.Account
	err := row.Scan(
		&account.ID,
		&account.UserID,
		&account.AccountNumber,
		&account.Balance,
		&account.Status,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) findOne(ctx context.Context, query string, arg any) (*models.Account, error) {
	account, err := scanAccount(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// FindByID retrieves an account by its UUID
func (r *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	account, err := r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to find account by id: %w", err)
	}
	return account, err
}

// FindByAccountNumber retrieves an account by its account number
func (r *accountRepository) FindByAccountNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	account, err := r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_number = $1`, accountNumber)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to find account by account number: %w", err)
	}
	return account, err
}

// FindByAccountNumberForUpdate retrieves an account and takes a row lock held
// until the surrounding transaction ends. Only meaningful inside a transaction.
func (r *accountRepository) FindByAccountNumberForUpdate(ctx context.Context, accountNumber string) (*models.Account, error) {
	account, err := r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_number = $1 FOR UPDATE`, accountNumber)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	return account, err
}

// FindByUserID lists a user's accounts, oldest first
func (r *accountRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]models.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	accounts := []models.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}
	return accounts, nil
}

// ExistsByAccountNumber reports whether an account number is already taken
func (r *accountRepository) ExistsByAccountNumber(ctx context.Context, accountNumber string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE account_number = $1)`, accountNumber,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check account number: %w", err)
	}
	return exists, nil
}

// Create inserts a new account. A taken account number yields ErrDuplicateAccountNumber.
func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}

	query := `
		INSERT INTO accounts (id, user_id, account_number, balance, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		account.ID,
		account.UserID,
		account.AccountNumber,
		account.Balance,
		account.Status,
	).Scan(&account.CreatedAt, &account.UpdatedAt)
	if isUniqueViolation(err) {
		return models.ErrDuplicateAccountNumber
	}
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// IncrementBalance atomically adds amount to the stored balance
func (r *accountRepository) IncrementBalance(ctx context.Context, accountNumber string, amount decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET balance = balance + $2,
		    updated_at = NOW()
		WHERE account_number = $1
	`

	result, err := r.db.ExecContext(ctx, query, accountNumber, amount)
	if err != nil {
		return fmt.Errorf("failed to increment balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrNotFound
	}

	return nil
}

// DecrementBalance atomically subtracts amount only when the balance covers it.
// When no row matches the account is either missing or short of funds.
func (r *accountRepository) DecrementBalance(ctx context.Context, accountNumber string, amount decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET balance = balance - $2,
		    updated_at = NOW()
		WHERE account_number = $1 AND balance >= $2
	`

	result, err := r.db.ExecContext(ctx, query, accountNumber, amount)
	if err != nil {
		return fmt.Errorf("failed to decrement balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrInsufficientFunds
	}

	return nil
}

// GetBalance returns the stored balance, or zero when the account does not exist
func (r *accountRepository) GetBalance(ctx context.Context, accountNumber string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.db.QueryRowContext(ctx,
		`SELECT balance FROM accounts WHERE account_number = $1`, accountNumber,
	).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// UpdateStatusByUserID moves every account owned by userID to status
func (r *accountRepository) UpdateStatusByUserID(ctx context.Context, userID uuid.UUID, status models.AccountStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET status = $2, updated_at = NOW() WHERE user_id = $1`, userID, status)
	if err != nil {
		return fmt.Errorf("failed to update account status: %w", err)
	}
	return nil
}

// FindBalanceDrift returns accounts whose balance differs from the signed sum
// of their transactions
func (r *accountRepository) FindBalanceDrift(ctx context.Context) ([]models.BalanceDrift, error) {
	query := `
		SELECT a.id, a.account_number, a.balance,
		       COALESCE(SUM(CASE WHEN t.transaction_type = 'credit' THEN t.amount ELSE -t.amount END), 0) AS ledger_total
		FROM accounts a
		LEFT JOIN transactions t ON t.account_id = a.id
		GROUP BY a.id, a.account_number, a.balance
		HAVING a.balance <> COALESCE(SUM(CASE WHEN t.transaction_type = 'credit' THEN t.amount ELSE -t.amount END), 0)
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile balances: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var drifts []models.BalanceDrift
	for rows.Next() {
		var d models.BalanceDrift
		if err := rows.Scan(&d.AccountID, &d.AccountNumber, &d.Balance, &d.LedgerTotal); err != nil {
			return nil, fmt.Errorf("failed to scan drift: %w", err)
		}
		drifts = append(drifts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate drift rows: %w", err)
	}
	return drifts, nil
}
