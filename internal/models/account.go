package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountStatus is the lifecycle state of an account. Only active accounts
// may take part in money movements.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusDormant   AccountStatus = "dormant"
	AccountStatusSuspended AccountStatus = "suspended"
	AccountStatusClosed    AccountStatus = "closed"
)

// Account represents a customer account and its running balance
type Account struct {
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
	AccountNumber string          `db:"account_number" json:"account_number"`
	Status        AccountStatus   `db:"status" json:"status"`
	Balance       decimal.Decimal `db:"balance" json:"balance"`
	ID            uuid.UUID       `db:"id" json:"id"`
	UserID        uuid.UUID       `db:"user_id" json:"user_id"`
}

func (a Account) MarshalJSON() ([]byte, error) {
	type plain Account
	return json.Marshal(struct {
		plain
		Balance money `json:"balance"`
	}{plain(a), money(a.Balance)})
}

// IsActive reports whether the account may transact.
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// BalanceDrift is an account whose stored balance disagrees with the sum of
// its transaction history.
type BalanceDrift struct {
	AccountNumber string
	Balance       decimal.Decimal
	LedgerTotal   decimal.Decimal
	AccountID     uuid.UUID
}

// Difference is the stored balance minus the ledger total.
func (d BalanceDrift) Difference() decimal.Decimal {
	return d.Balance.Sub(d.LedgerTotal)
}
