// Package reports builds the studio owner's dashboard figures.
package reports

import (
	"context"
	"errors"
	"time"

	"studio-app/internal/domain/billing"
	"studio-app/internal/domain/booking"
	"studio-app/internal/domain/shop"
	"studio-app/internal/domain/users"

	"github.com/shopspring/decimal"
)

var ErrCustomerNotFound = errors.New("customer not found")

// RecentWindow is how far back RecentRevenue looks.
const RecentWindow = 30 * 24 * time.Hour

type Stats struct {
	TotalCustomers   int64            `json:"totalCustomers"`
	TotalRevenue     decimal.Decimal  `json:"totalRevenue"`
	RecentRevenue    decimal.Decimal  `json:"recentRevenue"`
	SessionsByStatus map[string]int64 `json:"sessionsByStatus"`
	ActivePlans      int64            `json:"activePlans"`
	PendingOrders    int64            `json:"pendingOrders"`
}

// PaymentRow is one payment with the session and customer it belongs to.
type PaymentRow struct {
	ID                string          `json:"id"`
	SessionID         string          `json:"sessionId"`
	SessionNumber     string          `json:"sessionNumber"`
	CustomerEmail     string          `json:"customerEmail"`
	PlanType          string          `json:"planType"`
	InstallmentNumber int             `json:"installmentNumber"`
	Amount            decimal.Decimal `json:"amount"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"createdAt"`
}

type Customer struct {
	User     users.User        `json:"user"`
	Sessions []booking.Session `json:"sessions"`
}

type Store interface {
	CountCustomers(ctx context.Context) (int64, error)
	// Revenue sums succeeded payments, all time when since is nil.
	Revenue(ctx context.Context, since *time.Time) (decimal.Decimal, error)
	CountSessionsByStatus(ctx context.Context) (map[string]int64, error)
	CountPlans(ctx context.Context, status string) (int64, error)
	CountOrders(ctx context.Context, status string) (int64, error)
	ListUsers(ctx context.Context) ([]users.User, error)
	ListPayments(ctx context.Context, limit int) ([]PaymentRow, error)
	FindCustomer(ctx context.Context, id uint) (*users.User, error)
	SessionsForUser(ctx context.Context, id uint) ([]booking.Session, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	var (
		stats Stats
		err   error
	)
	if stats.TotalCustomers, err = s.store.CountCustomers(ctx); err != nil {
		return nil, err
	}
	if stats.TotalRevenue, err = s.store.Revenue(ctx, nil); err != nil {
		return nil, err
	}
	since := s.now().Add(-RecentWindow)
	if stats.RecentRevenue, err = s.store.Revenue(ctx, &since); err != nil {
		return nil, err
	}
	if stats.SessionsByStatus, err = s.store.CountSessionsByStatus(ctx); err != nil {
		return nil, err
	}
	if stats.ActivePlans, err = s.store.CountPlans(ctx, billing.PlanStatusActive); err != nil {
		return nil, err
	}
	if stats.PendingOrders, err = s.store.CountOrders(ctx, shop.OrderPending); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *Service) Users(ctx context.Context) ([]users.User, error) {
	out, err := s.store.ListUsers(ctx)
	if out == nil && err == nil {
		out = []users.User{}
	}
	return out, err
}

// Payments returns the most recent payments, newest first.
func (s *Service) Payments(ctx context.Context, limit int) ([]PaymentRow, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	out, err := s.store.ListPayments(ctx, limit)
	if out == nil && err == nil {
		out = []PaymentRow{}
	}
	return out, err
}

func (s *Service) Customer(ctx context.Context, id uint) (*Customer, error) {
	user, err := s.store.FindCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	sessions, err := s.store.SessionsForUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []booking.Session{}
	}
	return &Customer{User: *user, Sessions: sessions}, nil
}
