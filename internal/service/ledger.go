package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/benx421/ledger-bank/internal/models"
	"github.com/benx421/ledger-bank/internal/repository"
)

// AccountLedger reads and mutates the balance of a single account. It runs on
// whatever repository it is given, so inside a unit of work every call shares
// the same transaction and row lock.
type AccountLedger struct {
	accounts      repository.AccountRepository
	accountNumber string
}

// NewAccountLedger binds a ledger to accountNumber
func NewAccountLedger(accountNumber string, accounts repository.AccountRepository) *AccountLedger {
	return &AccountLedger{accountNumber: accountNumber, accounts: accounts}
}

// AccountNumber returns the bound account number
func (l *AccountLedger) AccountNumber() string {
	return l.accountNumber
}

// Balance returns the stored balance, zero when the account does not exist
func (l *AccountLedger) Balance(ctx context.Context) (decimal.Decimal, error) {
	balance, err := l.accounts.GetBalance(ctx, l.accountNumber)
	if err != nil {
		return decimal.Zero, internalError(fmt.Errorf("read balance of %s: %w", l.accountNumber, err))
	}
	return balance, nil
}

// UpdateBalance applies amount in the direction of kind using store-level
// arithmetic. A debit the balance cannot cover returns models.ErrInsufficientFunds.
func (l *AccountLedger) UpdateBalance(ctx context.Context, amount decimal.Decimal, kind models.TransactionType) error {
	var err error
	switch kind {
	case models.TransactionTypeCredit:
		err = l.accounts.IncrementBalance(ctx, l.accountNumber, amount)
	case models.TransactionTypeDebit:
		err = l.accounts.DecrementBalance(ctx, l.accountNumber, amount)
	default:
		return internalError(fmt.Errorf("unknown transaction type %q", kind))
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrInsufficientFunds), errors.Is(err, models.ErrNotFound):
		return err
	default:
		return internalError(fmt.Errorf("update balance of %s: %w", l.accountNumber, err))
	}
}

// Details returns the account row, or models.ErrNotFound
func (l *AccountLedger) Details(ctx context.Context) (*models.Account, error) {
	return l.find(ctx, l.accounts.FindByAccountNumber)
}

// Lock returns the account row and holds its lock until the unit of work ends
func (l *AccountLedger) Lock(ctx context.Context) (*models.Account, error) {
	return l.find(ctx, l.accounts.FindByAccountNumberForUpdate)
}

func (l *AccountLedger) find(ctx context.Context, fn func(context.Context, string) (*models.Account, error)) (*models.Account, error) {
	account, err := fn(ctx, l.accountNumber)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, internalError(fmt.Errorf("load account %s: %w", l.accountNumber, err))
	}
	return account, nil
}
