package store

import (
	"context"
	"time"

	"studio-app/internal/domain/billing"
	"studio-app/internal/domain/booking"
	"studio-app/internal/domain/shop"
	"studio-app/internal/domain/users"
	"studio-app/internal/service/reports"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReportStore struct {
	db *gorm.DB
}

func NewReportStore(db *gorm.DB) *ReportStore {
	return &ReportStore{db: db}
}

func (s *ReportStore) CountCustomers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&users.User{}).Where("role = ?", users.RoleCustomer).Count(&n).Error
	return n, err
}

func (s *ReportStore) Revenue(ctx context.Context, since *time.Time) (decimal.Decimal, error) {
	q := s.db.WithContext(ctx).Model(&billing.Payment{}).Where("status = ?", billing.PaymentSucceeded)
	if since != nil {
		q = q.Where("processed_at >= ?", *since)
	}
	var total decimal.Decimal
	err := q.Select("COALESCE(SUM(amount), 0)").Scan(&total).Error
	return total, err
}

func (s *ReportStore) CountSessionsByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := s.db.WithContext(ctx).Model(&booking.Session{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}

func (s *ReportStore) CountPlans(ctx context.Context, status string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&billing.PaymentPlan{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

func (s *ReportStore) CountOrders(ctx context.Context, status string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&shop.Order{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

func (s *ReportStore) ListUsers(ctx context.Context) ([]users.User, error) {
	var out []users.User
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error
	return out, err
}

func (s *ReportStore) ListPayments(ctx context.Context, limit int) ([]reports.PaymentRow, error) {
	var out []reports.PaymentRow
	err := s.db.WithContext(ctx).
		Table("payments").
		Select(`payments.id, payment_plans.session_id, sessions.session_number, users.email AS customer_email,
			payment_plans.plan_type, payments.installment_number, payments.amount, payments.status, payments.created_at`).
		Joins("JOIN payment_plans ON payment_plans.id = payments.payment_plan_id").
		Joins("JOIN sessions ON sessions.id = payment_plans.session_id").
		Joins("JOIN users ON users.id = sessions.user_id").
		Order("payments.created_at DESC").
		Limit(limit).
		Scan(&out).Error
	return out, err
}

func (s *ReportStore) FindCustomer(ctx context.Context, id uint) (*users.User, error) {
	var u users.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err, reports.ErrCustomerNotFound)
	}
	return &u, nil
}

func (s *ReportStore) SessionsForUser(ctx context.Context, id uint) ([]booking.Session, error) {
	var out []booking.Session
	err := s.db.WithContext(ctx).
		Preload("Package").
		Preload("PaymentPlans").
		Where("user_id = ?", id).
		Order("session_date DESC").
		Find(&out).Error
	return out, err
}
