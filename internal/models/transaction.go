package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a ledger entry
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeCredit || t == TransactionTypeDebit
}

// Letter is the single-character code embedded in reference ids.
func (t TransactionType) Letter() byte {
	if t == TransactionTypeDebit {
		return 'D'
	}
	return 'C'
}

// Signed returns amount with the sign this type applies to a balance.
func (t TransactionType) Signed(amount decimal.Decimal) decimal.Decimal {
	if t == TransactionTypeDebit {
		return amount.Neg()
	}
	return amount
}

// Transaction is an immutable ledger entry recording one balance change
type Transaction struct {
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	Description  *string         `db:"description" json:"description"`
	ReferenceID  string          `db:"reference_id" json:"reference_id"`
	Type         TransactionType `db:"transaction_type" json:"transaction_type"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	BalanceAfter decimal.Decimal `db:"balance_after" json:"balance_after"`
	ID           uuid.UUID       `db:"id" json:"id"`
	AccountID    uuid.UUID       `db:"account_id" json:"account_id"`
}

// MarshalJSON writes amounts at fixed money scale
func (t Transaction) MarshalJSON() ([]byte, error) {
	type plain Transaction
	return json.Marshal(struct {
		plain
		Amount       money `json:"amount"`
		BalanceAfter money `json:"balance_after"`
	}{plain(t), money(t.Amount), money(t.BalanceAfter)})
}

// IdempotencyKey is one caller's claim on a money-movement request. A zero
// ResponseStatus means the first request holding the key has not finished.
type IdempotencyKey struct {
	CreatedAt      time.Time `db:"created_at"`
	Key            string    `db:"key"`
	RequestPath    string    `db:"request_path"`
	RequestHash    string    `db:"request_hash"`
	ResponseBody   string    `db:"response_body"`
	ResponseStatus int       `db:"response_status"`
}

// InFlight reports whether the claiming request is still running
func (k *IdempotencyKey) InFlight() bool {
	return k.ResponseStatus == 0
}

// SameRequest reports whether hash fingerprints the request that claimed the
// key. Rows written before fingerprints were recorded match anything.
func (k *IdempotencyKey) SameRequest(hash string) bool {
	return k.RequestHash == "" || k.RequestHash == hash
}
