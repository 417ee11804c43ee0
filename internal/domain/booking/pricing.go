package booking

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Quote struct {
	Total   decimal.Decimal `json:"totalAmount"`
	Deposit decimal.Decimal `json:"depositAmount"`
	Balance decimal.Decimal `json:"balanceDue"`
}

// PriceSession sums the package and add-on prices and splits off the deposit.
func PriceSession(base decimal.Decimal, addons []Addon, depositRate decimal.Decimal) Quote {
	total := base
	for _, a := range addons {
		total = total.Add(a.Price)
	}
	total = total.Round(2)
	deposit := total.Mul(depositRate).Round(2)
	return Quote{
		Total:   total,
		Deposit: deposit,
		Balance: total.Sub(deposit),
	}
}

// SessionNumber formats the yearly sequence, e.g. EM20260042.
func SessionNumber(year int, existingThisYear int64) string {
	return fmt.Sprintf("EM%d%04d", year, existingThisYear+1)
}
