package billing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

type PlanType string

const (
	PlanFull     PlanType = "full"
	PlanTwoPay   PlanType = "two_pay"
	PlanThreePay PlanType = "three_pay"
	PlanFourPay  PlanType = "four_pay"
)

var ErrUnknownPlan = errors.New("unknown payment plan")

// PlanTerms describes one installment tier offered at checkout.
type PlanTerms struct {
	Type         PlanType        `json:"id"`
	Name         string          `json:"name"`
	Installments int             `json:"installments"`
	Discount     decimal.Decimal `json:"discount"`
}

var planTerms = []PlanTerms{
	{Type: PlanFull, Name: "Pay in full", Installments: 1, Discount: decimal.RequireFromString("0.10")},
	{Type: PlanTwoPay, Name: "Two payments", Installments: 2, Discount: decimal.RequireFromString("0.05")},
	{Type: PlanThreePay, Name: "Three payments", Installments: 3, Discount: decimal.Zero},
	{Type: PlanFourPay, Name: "Four payments", Installments: 4, Discount: decimal.Zero},
}

func Plans() []PlanTerms {
	out := make([]PlanTerms, len(planTerms))
	copy(out, planTerms)
	return out
}

func TermsFor(plan PlanType) (PlanTerms, error) {
	for _, t := range planTerms {
		if t.Type == plan {
			return t, nil
		}
	}
	return PlanTerms{}, fmt.Errorf("%w: %q", ErrUnknownPlan, plan)
}

func (p PlanType) Valid() bool {
	_, err := TermsFor(p)
	return err == nil
}

// Amounts is the price breakdown for a total under a plan.
type Amounts struct {
	Plan              PlanType        `json:"plan"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	Savings           decimal.Decimal `json:"savings"`
	DiscountedTotal   decimal.Decimal `json:"discountedTotal"`
	Installments      int             `json:"installments"`
	InstallmentAmount decimal.Decimal `json:"installmentAmount"`
}

// Calculate applies the plan discount and splits the rest into equal
// installments rounded to the cent, half away from zero.
func Calculate(total decimal.Decimal, plan PlanType) (Amounts, error) {
	terms, err := TermsFor(plan)
	if err != nil {
		return Amounts{}, err
	}
	savings := total.Mul(terms.Discount)
	discounted := total.Sub(savings)
	installment := discounted.Div(decimal.NewFromInt(int64(terms.Installments))).Round(2)

	return Amounts{
		Plan:              plan,
		TotalAmount:       total,
		Savings:           savings,
		DiscountedTotal:   discounted,
		Installments:      terms.Installments,
		InstallmentAmount: installment,
	}, nil
}
