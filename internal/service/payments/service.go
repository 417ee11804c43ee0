package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"studio-app/internal/domain/billing"
	"studio-app/internal/domain/booking"
	"studio-app/internal/domain/users"
	"studio-app/internal/infra/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrPlanNotFound    = errors.New("payment plan not found")
	ErrAmountMismatch  = errors.New("amount does not match the session total")
	ErrPlanExists      = errors.New("session already has a payment plan")
	ErrSessionClosed   = errors.New("session can no longer be paid")
	ErrNoProvider      = errors.New("online payments are not configured")
)

// Store is the persistence the payment service needs. Lookups return the
// matching *NotFound error when the row is missing.
type Store interface {
	Transaction(ctx context.Context, fn func(tx Store) error) error

	FindSession(ctx context.Context, id string) (*booking.Session, error)
	HasOpenPlan(ctx context.Context, sessionID string) (bool, error)
	ListPlansForSession(ctx context.Context, sessionID string) ([]billing.PaymentPlan, error)
	CreatePlan(ctx context.Context, plan *billing.PaymentPlan) error
	CreatePayment(ctx context.Context, p *billing.Payment) error

	// MarkEventProcessed reports false when the event id was already recorded.
	MarkEventProcessed(ctx context.Context, eventID, eventType string, at time.Time) (bool, error)
	FindPaymentByIntent(ctx context.Context, intentID string) (*billing.Payment, error)
	FindPaymentByInvoice(ctx context.Context, invoiceID string) (*billing.Payment, error)
	SavePayment(ctx context.Context, p *billing.Payment) error
	FindPlan(ctx context.Context, id string) (*billing.PaymentPlan, error)
	FindPlanBySubscription(ctx context.Context, subscriptionID string) (*billing.PaymentPlan, error)
	SavePlan(ctx context.Context, plan *billing.PaymentPlan) error
	UpdateSessionBalance(ctx context.Context, sessionID string, balance decimal.Decimal, confirm bool) error
}

// Provider creates charges with the hosted payment processor.
type Provider interface {
	CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error)
}

type IntentRequest struct {
	Amount      decimal.Decimal
	Description string
	Metadata    map[string]string
}

// Intent is a provider payment intent. Status is already mapped to the
// billing.Payment* values.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

type Service struct {
	store    Store
	provider Provider
	log      *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(store Store, provider Provider, log *zap.Logger, opts ...Option) *Service {
	s := &Service{store: store, provider: provider, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Plans() []billing.PlanTerms {
	return billing.Plans()
}

func (s *Service) Quote(total decimal.Decimal, plan billing.PlanType) (billing.Amounts, error) {
	return billing.Calculate(total, plan)
}

type IntentInput struct {
	SessionID string
	Plan      billing.PlanType
	Amount    decimal.Decimal
}

type IntentResult struct {
	ClientSecret  string          `json:"clientSecret"`
	PaymentPlanID string          `json:"paymentPlanId"`
	Amount        decimal.Decimal `json:"amount"`
	Savings       decimal.Decimal `json:"savings"`
}

// CreateIntent opens a payment plan for a session and asks the provider for
// the first installment.
func (s *Service) CreateIntent(ctx context.Context, actor users.Actor, in IntentInput) (*IntentResult, error) {
	if s.provider == nil {
		return nil, ErrNoProvider
	}
	session, err := s.ownedSession(ctx, actor, in.SessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == booking.StatusCancelled || session.Status == booking.StatusCompleted {
		return nil, ErrSessionClosed
	}
	if !in.Amount.Equal(session.TotalAmount) {
		return nil, ErrAmountMismatch
	}
	amounts, err := billing.Calculate(session.TotalAmount, in.Plan)
	if err != nil {
		return nil, err
	}
	open, err := s.store.HasOpenPlan(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, ErrPlanExists
	}

	plan := billing.NewPlan(session.ID, amounts, s.now())
	plan.ID = uuid.NewString()

	intent, err := s.provider.CreatePaymentIntent(ctx, IntentRequest{
		Amount:      amounts.InstallmentAmount,
		Description: fmt.Sprintf("Photo session %s (%s)", session.SessionNumber, in.Plan),
		Metadata: map[string]string{
			"sessionId":         session.ID,
			"sessionNumber":     session.SessionNumber,
			"paymentPlan":       string(in.Plan),
			"paymentPlanId":     plan.ID,
			"totalAmount":       amounts.TotalAmount.StringFixed(2),
			"discountedTotal":   amounts.DiscountedTotal.StringFixed(2),
			"installmentNumber": "1",
			"userId":            strconv.FormatUint(uint64(actor.ID), 10),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	intentID := intent.ID
	payment := billing.Payment{
		PaymentPlanID:         plan.ID,
		Amount:                amounts.InstallmentAmount,
		PaymentType:           billing.PaymentTypePlan,
		Status:                intent.Status,
		InstallmentNumber:     1,
		StripePaymentIntentID: &intentID,
	}
	if payment.Status == "" {
		payment.Status = billing.PaymentPending
	}

	err = s.store.Transaction(ctx, func(tx Store) error {
		if err := tx.CreatePlan(ctx, &plan); err != nil {
			return err
		}
		return tx.CreatePayment(ctx, &payment)
	})
	if err != nil {
		s.log.Error("payment intent created but plan not stored",
			zap.String("intent_id", intent.ID),
			zap.String("session_id", session.ID),
			zap.Error(err),
		)
		return nil, err
	}

	s.log.Info("payment plan opened",
		zap.String("plan_id", plan.ID),
		zap.String("session_id", session.ID),
		zap.String("plan", string(in.Plan)),
	)
	return &IntentResult{
		ClientSecret:  intent.ClientSecret,
		PaymentPlanID: plan.ID,
		Amount:        amounts.InstallmentAmount,
		Savings:       amounts.Savings,
	}, nil
}

// History lists the payment plans of a session, payments included.
func (s *Service) History(ctx context.Context, actor users.Actor, sessionID string) ([]billing.PaymentPlan, error) {
	if _, err := s.ownedSession(ctx, actor, sessionID); err != nil {
		return nil, err
	}
	return s.store.ListPlansForSession(ctx, sessionID)
}

func (s *Service) ownedSession(ctx context.Context, actor users.Actor, id string) (*booking.Session, error) {
	session, err := s.store.FindSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && session.UserID != actor.ID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}
