package service

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// MaxAmount is the largest value a NUMERIC(15,2) column holds.
var MaxAmount = decimal.RequireFromString("9999999999999.99")

var accountNumberPattern = regexp.MustCompile(`^\d{10}$`)

// ValidateAmount checks that amount is positive, has at most two decimal
// places and fits the balance column.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("invalid amount: must be greater than 0")
	}

	if !amount.Equal(amount.Truncate(2)) {
		return fmt.Errorf("invalid amount: at most 2 decimal places allowed")
	}

	if amount.GreaterThan(MaxAmount) {
		return fmt.Errorf("invalid amount: must not exceed %s", MaxAmount.StringFixed(2))
	}

	return nil
}

// ValidateAccountNumber checks the 10-digit account number format.
func ValidateAccountNumber(accountNumber string) error {
	if !accountNumberPattern.MatchString(accountNumber) {
		return fmt.Errorf("invalid account number: must be exactly 10 digits")
	}
	return nil
}

func validateMovementInput(accountNumber string, amount decimal.Decimal) error {
	if err := ValidateAccountNumber(accountNumber); err != nil {
		return &ServiceError{Code: ErrCodeInvalidAccountNumber, Message: "Account number must be 10 digits.", Err: err}
	}
	if err := ValidateAmount(amount); err != nil {
		return &ServiceError{Code: ErrCodeInvalidAmount, Message: MsgInvalidAmount, Err: err}
	}
	return nil
}
