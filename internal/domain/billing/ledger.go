package billing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// InstallmentInterval is the gap between two scheduled installments.
const InstallmentInterval = 30 * 24 * time.Hour

var ErrPlanClosed = errors.New("payment plan is no longer active")

// NewPlan opens an active plan whose first installment is due now.
func NewPlan(sessionID string, a Amounts, now time.Time) PaymentPlan {
	next := now
	return PaymentPlan{
		SessionID:         sessionID,
		PlanType:          a.Plan,
		TotalAmount:       a.DiscountedTotal,
		AmountPerPayment:  a.InstallmentAmount,
		PaymentsTotal:     a.Installments,
		PaymentsRemaining: a.Installments,
		Status:            PlanStatusActive,
		NextPaymentDate:   &next,
	}
}

// Progress is what a settled installment means for the owning session.
type Progress struct {
	PlanCompleted bool
	BalanceDue    decimal.Decimal
}

// ApplySuccess books one successful installment.
func (p *PaymentPlan) ApplySuccess(now time.Time) (Progress, error) {
	if p.Status != PlanStatusActive {
		return Progress{}, ErrPlanClosed
	}

	p.PaymentsCompleted++
	p.PaymentsRemaining = max(0, p.PaymentsTotal-p.PaymentsCompleted)

	if p.PaymentsCompleted >= p.PaymentsTotal {
		p.Status = PlanStatusCompleted
		p.NextPaymentDate = nil
		return Progress{PlanCompleted: true, BalanceDue: decimal.Zero}, nil
	}

	base := now
	if p.NextPaymentDate != nil {
		base = *p.NextPaymentDate
	}
	next := base.Add(InstallmentInterval)
	p.NextPaymentDate = &next

	return Progress{
		BalanceDue: p.AmountPerPayment.Mul(decimal.NewFromInt(int64(p.PaymentsRemaining))),
	}, nil
}

// ApplyFailure only counts the failed attempt; the provider owns retries.
func (p *PaymentPlan) ApplyFailure() {
	p.FailureCount++
}

func (p *PaymentPlan) Cancel() error {
	if p.Status != PlanStatusActive {
		return ErrPlanClosed
	}
	p.Status = PlanStatusCancelled
	p.NextPaymentDate = nil
	return nil
}

func (p PaymentPlan) IsOpen() bool {
	return p.Status == PlanStatusActive
}
