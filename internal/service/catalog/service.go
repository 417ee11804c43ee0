package catalog

import (
	"context"
	"errors"

	"studio-app/internal/domain/booking"
	"studio-app/internal/domain/shop"

	"go.uber.org/zap"
)

var ErrProductNotFound = errors.New("product not found")

type Store interface {
	// ActivePackages returns active packages with only their active add-ons.
	ActivePackages(ctx context.Context) ([]booking.Package, error)
	ActiveProducts(ctx context.Context, filter ProductFilter) ([]shop.Product, error)
	FindProductBySlug(ctx context.Context, slug string) (*shop.Product, error)
}

// Cache is a best-effort JSON cache. Get reports a miss on any failure.
type Cache interface {
	Get(ctx context.Context, key string, dst any) bool
	Set(ctx context.Context, key string, value any)
}

type ProductFilter struct {
	Category     string
	FeaturedOnly bool
}

func (f ProductFilter) key() string {
	k := "products:" + f.Category
	if f.FeaturedOnly {
		k += ":featured"
	}
	return k
}

type Service struct {
	store Store
	cache Cache
	log   *zap.Logger
}

func NewService(store Store, cache Cache, log *zap.Logger) *Service {
	if cache == nil {
		cache = noCache{}
	}
	return &Service{store: store, cache: cache, log: log}
}

func (s *Service) Packages(ctx context.Context) ([]booking.Package, error) {
	var out []booking.Package
	if s.cache.Get(ctx, "packages", &out) {
		return out, nil
	}
	out, err := s.store.ActivePackages(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []booking.Package{}
	}
	s.cache.Set(ctx, "packages", out)
	return out, nil
}

func (s *Service) Products(ctx context.Context, filter ProductFilter) ([]shop.Product, error) {
	var out []shop.Product
	if s.cache.Get(ctx, filter.key(), &out) {
		return out, nil
	}
	out, err := s.store.ActiveProducts(ctx, filter)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []shop.Product{}
	}
	s.cache.Set(ctx, filter.key(), out)
	return out, nil
}

func (s *Service) Product(ctx context.Context, slug string) (*shop.Product, error) {
	var out shop.Product
	key := "product:" + slug
	if s.cache.Get(ctx, key, &out) {
		return &out, nil
	}
	p, err := s.store.FindProductBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, p)
	return p, nil
}

type noCache struct{}

func (noCache) Get(context.Context, string, any) bool { return false }
func (noCache) Set(context.Context, string, any)      {}
