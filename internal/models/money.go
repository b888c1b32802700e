package models

import "github.com/shopspring/decimal"

// MoneyScale is the number of fraction digits money is stored and shown with
const MoneyScale = 2

// money renders as a quoted amount with exactly MoneyScale fraction digits,
// so 750 goes out as "750.00"
type money decimal.Decimal

func (m money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + decimal.Decimal(m).StringFixed(MoneyScale) + `"`), nil
}
