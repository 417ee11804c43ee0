package store

import (
	"context"
	"time"

	"studio-app/internal/domain/billing"
	"studio-app/internal/domain/booking"
	"studio-app/internal/service/payments"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentStore struct {
	db *gorm.DB
}

func NewPaymentStore(db *gorm.DB) *PaymentStore {
	return &PaymentStore{db: db}
}

func (s *PaymentStore) Transaction(ctx context.Context, fn func(tx payments.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PaymentStore{db: tx})
	})
}

func (s *PaymentStore) FindSession(ctx context.Context, id string) (*booking.Session, error) {
	if !validID(id) {
		return nil, payments.ErrSessionNotFound
	}
	var out booking.Session
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, notFound(err, payments.ErrSessionNotFound)
	}
	return &out, nil
}

func (s *PaymentStore) HasOpenPlan(ctx context.Context, sessionID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&billing.PaymentPlan{}).
		Where("session_id = ? AND status IN ?", sessionID, []string{billing.PlanStatusActive, billing.PlanStatusCompleted}).
		Count(&n).Error
	return n > 0, err
}

func (s *PaymentStore) ListPlansForSession(ctx context.Context, sessionID string) ([]billing.PaymentPlan, error) {
	var out []billing.PaymentPlan
	err := s.db.WithContext(ctx).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("installment_number ASC, created_at ASC") }).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (s *PaymentStore) CreatePlan(ctx context.Context, plan *billing.PaymentPlan) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(plan).Error
}

func (s *PaymentStore) CreatePayment(ctx context.Context, p *billing.Payment) error {
	return s.db.WithContext(ctx).Create(p).Error
}

// MarkEventProcessed inserts the event id and reports whether this call was
// the one that recorded it.
func (s *PaymentStore) MarkEventProcessed(ctx context.Context, eventID, eventType string, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&billing.ProcessedWebhookEvent{EventID: eventID, EventType: eventType, ProcessedAt: at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *PaymentStore) FindPaymentByIntent(ctx context.Context, intentID string) (*billing.Payment, error) {
	var p billing.Payment
	err := s.db.WithContext(ctx).
		Clauses(forUpdate).
		Where("stripe_payment_intent_id = ?", intentID).
		First(&p).Error
	if err != nil {
		return nil, notFound(err, payments.ErrPaymentNotFound)
	}
	return &p, nil
}

func (s *PaymentStore) FindPaymentByInvoice(ctx context.Context, invoiceID string) (*billing.Payment, error) {
	var p billing.Payment
	err := s.db.WithContext(ctx).
		Where("stripe_invoice_id = ?", invoiceID).
		First(&p).Error
	if err != nil {
		return nil, notFound(err, payments.ErrPaymentNotFound)
	}
	return &p, nil
}

func (s *PaymentStore) SavePayment(ctx context.Context, p *billing.Payment) error {
	return s.db.WithContext(ctx).Save(p).Error
}

func (s *PaymentStore) FindPlan(ctx context.Context, id string) (*billing.PaymentPlan, error) {
	if !validID(id) {
		return nil, payments.ErrPlanNotFound
	}
	var plan billing.PaymentPlan
	if err := s.db.WithContext(ctx).Clauses(forUpdate).Where("id = ?", id).First(&plan).Error; err != nil {
		return nil, notFound(err, payments.ErrPlanNotFound)
	}
	return &plan, nil
}

func (s *PaymentStore) FindPlanBySubscription(ctx context.Context, subscriptionID string) (*billing.PaymentPlan, error) {
	if subscriptionID == "" {
		return nil, payments.ErrPlanNotFound
	}
	var plan billing.PaymentPlan
	err := s.db.WithContext(ctx).
		Clauses(forUpdate).
		Where("stripe_subscription_id = ?", subscriptionID).
		First(&plan).Error
	if err != nil {
		return nil, notFound(err, payments.ErrPlanNotFound)
	}
	return &plan, nil
}

func (s *PaymentStore) SavePlan(ctx context.Context, plan *billing.PaymentPlan) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Save(plan).Error
}

// UpdateSessionBalance writes the balance due. confirm moves a booked
// session to confirmed; later states are left alone.
func (s *PaymentStore) UpdateSessionBalance(ctx context.Context, sessionID string, balance decimal.Decimal, confirm bool) error {
	db := s.db.WithContext(ctx)
	res := db.Model(&booking.Session{}).Where("id = ?", sessionID).Update("balance_due", balance)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return payments.ErrSessionNotFound
	}
	if !confirm {
		return nil
	}
	return db.Model(&booking.Session{}).
		Where("id = ? AND status = ?", sessionID, booking.StatusBooked).
		Update("status", booking.StatusConfirmed).Error
}
