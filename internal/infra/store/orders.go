package store

import (
	"context"

	"studio-app/internal/domain/shop"
	"studio-app/internal/domain/users"
	"studio-app/internal/service/orders"

	"gorm.io/gorm"
)

type OrderStore struct {
	db *gorm.DB
}

func NewOrderStore(db *gorm.DB) *OrderStore {
	return &OrderStore{db: db}
}

func (s *OrderStore) Transaction(ctx context.Context, fn func(tx orders.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&OrderStore{db: tx})
	})
}

func (s *OrderStore) VariantsByID(ctx context.Context, ids []string) (map[string]shop.ProductVariant, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			valid = append(valid, id)
		}
	}
	out := make(map[string]shop.ProductVariant, len(valid))
	if len(valid) == 0 {
		return out, nil
	}

	var variants []shop.ProductVariant
	err := s.db.WithContext(ctx).
		Joins("JOIN products ON products.id = product_variants.product_id AND products.active = ?", true).
		Where("product_variants.id IN ?", valid).
		Find(&variants).Error
	if err != nil {
		return nil, err
	}
	for _, v := range variants {
		out[v.ID] = v
	}
	return out, nil
}

func (s *OrderStore) CreateOrder(ctx context.Context, o *shop.Order) error {
	return s.db.WithContext(ctx).Omit("Items.Variant").Create(o).Error
}

func (s *OrderStore) ListOrders(ctx context.Context, userID *uint) ([]shop.Order, error) {
	q := s.db.WithContext(ctx).Preload("Items.Variant")
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	var out []shop.Order
	err := q.Order("created_at DESC").Find(&out).Error
	return out, err
}

func (s *OrderStore) FindOrder(ctx context.Context, id string) (*shop.Order, error) {
	if !validID(id) {
		return nil, orders.ErrOrderNotFound
	}
	var o shop.Order
	if err := s.db.WithContext(ctx).Preload("Items.Variant").Where("id = ?", id).First(&o).Error; err != nil {
		return nil, notFound(err, orders.ErrOrderNotFound)
	}
	return &o, nil
}

func (s *OrderStore) UserEmail(ctx context.Context, id uint) (string, error) {
	var u users.User
	if err := s.db.WithContext(ctx).Select("id", "email").First(&u, id).Error; err != nil {
		return "", err
	}
	return u.Email, nil
}
