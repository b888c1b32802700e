package models

import "errors"

// Domain errors that can be returned by repositories
var (
	// ErrNotFound indicates the requested entity was not found
	ErrNotFound = errors.New("not found")

	// ErrDuplicateReference indicates a transaction with the same reference_id already exists
	ErrDuplicateReference = errors.New("duplicate transaction reference")

	// ErrDuplicateAccountNumber indicates the account number is already taken
	ErrDuplicateAccountNumber = errors.New("duplicate account number")

	// ErrDuplicateUser indicates the email or phone number is already registered
	ErrDuplicateUser = errors.New("duplicate user")

	// ErrClaimNotHeld indicates an idempotency claim was completed, released
	// or purged by someone else
	ErrClaimNotHeld = errors.New("idempotency claim not held")

	// ErrInsufficientFunds indicates a conditional debit matched no row
	ErrInsufficientFunds = errors.New("insufficient funds")
)
