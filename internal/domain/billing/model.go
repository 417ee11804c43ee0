package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PlanStatusActive    = "active"
	PlanStatusCompleted = "completed"
	PlanStatusCancelled = "cancelled"

	PaymentPending   = "pending"
	PaymentSucceeded = "succeeded"
	PaymentFailed    = "failed"

	PaymentTypePlan = "plan_payment"
)

// PaymentPlan is the installment schedule of one session.
type PaymentPlan struct {
	ID                   string          `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID            string          `gorm:"type:uuid;not null;index" json:"sessionId"`
	PlanType             PlanType        `gorm:"type:varchar(20);not null" json:"planType"`
	TotalAmount          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"totalAmount"`
	AmountPerPayment     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amountPerPayment"`
	PaymentsTotal        int             `gorm:"not null" json:"paymentsTotal"`
	PaymentsCompleted    int             `gorm:"not null;default:0" json:"paymentsCompleted"`
	PaymentsRemaining    int             `gorm:"not null" json:"paymentsRemaining"`
	FailureCount         int             `gorm:"not null;default:0" json:"failureCount"`
	Status               string          `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	NextPaymentDate      *time.Time      `json:"nextPaymentDate,omitempty"`
	StripeSubscriptionID *string         `gorm:"uniqueIndex" json:"stripeSubscriptionId,omitempty"`
	Payments             []Payment       `json:"payments,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Payment struct {
	ID                    string          `gorm:"type:uuid;primaryKey" json:"id"`
	PaymentPlanID         string          `gorm:"type:uuid;not null;index" json:"paymentPlanId"`
	Amount                decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	PaymentType           string          `gorm:"type:varchar(30);not null" json:"paymentType"`
	Status                string          `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	InstallmentNumber     int             `gorm:"not null;default:1" json:"installmentNumber"`
	StripePaymentIntentID *string         `gorm:"uniqueIndex" json:"stripePaymentIntentId,omitempty"`
	StripeChargeID        *string         `json:"stripeChargeId,omitempty"`
	StripeInvoiceID       *string         `gorm:"uniqueIndex" json:"stripeInvoiceId,omitempty"`
	FailureReason         *string         `json:"failureReason,omitempty"`
	FailureCode           *string         `json:"failureCode,omitempty"`
	ProcessedAt           *time.Time      `json:"processedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProcessedWebhookEvent records provider event ids that already had their effects applied.
type ProcessedWebhookEvent struct {
	EventID     string    `gorm:"primaryKey"`
	EventType   string    `gorm:"not null"`
	ProcessedAt time.Time `gorm:"not null"`
}

func (p *PaymentPlan) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// IsTerminal reports whether the payment reached a final status.
func (p Payment) IsTerminal() bool {
	return p.Status == PaymentSucceeded || p.Status == PaymentFailed
}
