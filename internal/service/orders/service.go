package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"studio-app/internal/domain/shop"
	"studio-app/internal/domain/users"
	"studio-app/internal/infra/metrics"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

var ErrOrderNotFound = errors.New("order not found")

type Store interface {
	Transaction(ctx context.Context, fn func(tx Store) error) error
	VariantsByID(ctx context.Context, ids []string) (map[string]shop.ProductVariant, error)
	CreateOrder(ctx context.Context, o *shop.Order) error
	// ListOrders returns every order when userID is nil.
	ListOrders(ctx context.Context, userID *uint) ([]shop.Order, error)
	FindOrder(ctx context.Context, id string) (*shop.Order, error)
	UserEmail(ctx context.Context, id uint) (string, error)
}

type Notifier interface {
	OrderPlaced(ctx context.Context, to string, o shop.Order) error
}

type Pricing struct {
	TaxRate  decimal.Decimal
	Shipping decimal.Decimal
}

type Service struct {
	store    Store
	pricing  Pricing
	notifier Notifier
	log      *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(store Store, pricing Pricing, log *zap.Logger, opts ...Option) *Service {
	s := &Service{store: store, pricing: pricing, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type Line struct {
	VariantID     string
	Quantity      int
	PhotoID       *string
	Customization json.RawMessage
}

type PlaceInput struct {
	Lines           []Line
	ShippingAddress json.RawMessage
	BillingAddress  json.RawMessage
	Notes           *string
}

// Place prices the order from the catalog and stores it with its items.
func (s *Service) Place(ctx context.Context, actor users.Actor, in PlaceInput) (*shop.Order, error) {
	requests := make([]shop.LineRequest, len(in.Lines))
	ids := make([]string, 0, len(in.Lines))
	for i, l := range in.Lines {
		requests[i] = shop.LineRequest{VariantID: l.VariantID, Quantity: l.Quantity}
		ids = append(ids, l.VariantID)
	}

	number, err := shop.NewOrderNumber(s.now())
	if err != nil {
		return nil, fmt.Errorf("generate order number: %w", err)
	}

	var order shop.Order
	err = s.store.Transaction(ctx, func(tx Store) error {
		variants, err := tx.VariantsByID(ctx, ids)
		if err != nil {
			return err
		}
		items, err := shop.PriceLines(requests, variants)
		if err != nil {
			return err
		}
		for i := range items {
			items[i].PhotoID = in.Lines[i].PhotoID
			if len(in.Lines[i].Customization) > 0 {
				items[i].CustomizationData = datatypes.JSON(in.Lines[i].Customization)
			}
		}
		totals := shop.ComputeTotals(items, s.pricing.TaxRate, s.pricing.Shipping)

		order = shop.Order{
			OrderNumber:     number,
			UserID:          actor.ID,
			Status:          shop.OrderPending,
			ShippingAddress: datatypes.JSON(in.ShippingAddress),
			Subtotal:        totals.Subtotal,
			Tax:             totals.Tax,
			Shipping:        totals.Shipping,
			Total:           totals.Total,
			Notes:           in.Notes,
			Items:           items,
		}
		if len(in.BillingAddress) > 0 {
			order.BillingAddress = datatypes.JSON(in.BillingAddress)
		}
		if err := tx.CreateOrder(ctx, &order); err != nil {
			return err
		}
		for i := range order.Items {
			v := variants[order.Items[i].ProductVariantID]
			order.Items[i].Variant = &v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.OrderCreated()
	s.log.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Uint("user_id", actor.ID),
		zap.String("total", order.Total.StringFixed(2)),
	)
	s.notify(ctx, actor.ID, order)
	return &order, nil
}

func (s *Service) notify(ctx context.Context, userID uint, order shop.Order) {
	if s.notifier == nil {
		return
	}
	email, err := s.store.UserEmail(ctx, userID)
	if err != nil {
		s.log.Warn("order email skipped", zap.Uint("user_id", userID), zap.Error(err))
		return
	}
	if err := s.notifier.OrderPlaced(ctx, email, order); err != nil {
		s.log.Warn("order email failed", zap.String("order_id", order.ID), zap.Error(err))
	}
}

// List returns the actor's orders, or every order for admins.
func (s *Service) List(ctx context.Context, actor users.Actor) ([]shop.Order, error) {
	if actor.IsAdmin() {
		return s.store.ListOrders(ctx, nil)
	}
	id := actor.ID
	return s.store.ListOrders(ctx, &id)
}

func (s *Service) Get(ctx context.Context, actor users.Actor, id string) (*shop.Order, error) {
	order, err := s.store.FindOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && order.UserID != actor.ID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}
