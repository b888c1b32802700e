package service

import (
	"errors"
	"fmt"
)

// ServiceError represents a business logic error with a code
type ServiceError struct {
	Err     error
	Message string
	Code    string
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Kind classifies an error for the transport layer
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindBusinessRule
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindBusinessRule:
		return "business_rule"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Kind returns the class of the error code. Unknown codes are internal.
func (e *ServiceError) Kind() Kind {
	switch e.Code {
	case ErrCodeInvalidAmount, ErrCodeInvalidAccountNumber, ErrCodeInvalidRequest, ErrCodeInvalidCode:
		return KindValidation
	case ErrCodeInsufficientFunds, ErrCodeAccountNotFound, ErrCodeReceiverNotFound, ErrCodeAccountInactive,
		ErrCodeSameAccount, ErrCodeIdentityRejected, ErrCodeUserNotFound, ErrCodeDuplicateUser:
		return KindBusinessRule
	case ErrCodeInvalidCredentials:
		return KindUnauthorized
	default:
		return KindInternal
	}
}

// KindOf returns the Kind of err, treating anything that is not a
// ServiceError as internal.
func KindOf(err error) Kind {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Kind()
	}
	return KindInternal
}

// Common error codes
const (
	ErrCodeInvalidAmount        = "invalid_amount"
	ErrCodeInvalidAccountNumber = "invalid_account_number"
	ErrCodeInvalidRequest       = "invalid_request"
	ErrCodeInvalidCode          = "invalid_code"
	ErrCodeInsufficientFunds    = "insufficient_funds"
	ErrCodeAccountNotFound      = "account_not_found"
	ErrCodeReceiverNotFound     = "receiver_not_found"
	ErrCodeAccountInactive      = "account_inactive"
	ErrCodeSameAccount          = "same_account"
	ErrCodeIdentityRejected     = "identity_rejected"
	ErrCodeUserNotFound         = "user_not_found"
	ErrCodeDuplicateUser        = "duplicate_user"
	ErrCodeInvalidCredentials   = "invalid_credentials"
	ErrCodeGenerationExhausted  = "generation_exhausted"
	ErrCodeInternalError        = "internal_error"
)

// Messages shown to clients. Internal details never reach them.
const (
	MsgInternal          = "An unexpected error occurred. Please try again later."
	MsgInsufficientFunds = "Insufficient funds."
	MsgInvalidAmount     = "Amount must be greater than zero."
)

func internalError(err error) *ServiceError {
	return &ServiceError{Code: ErrCodeInternalError, Message: MsgInternal, Err: err}
}
