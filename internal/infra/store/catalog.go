package store

import (
	"context"

	"studio-app/internal/domain/booking"
	"studio-app/internal/domain/shop"
	"studio-app/internal/service/catalog"

	"gorm.io/gorm"
)

type CatalogStore struct {
	db *gorm.DB
}

func NewCatalogStore(db *gorm.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

func activeSorted(db *gorm.DB) *gorm.DB {
	return db.Where("active = ?", true).Order("sort_order ASC")
}

func (s *CatalogStore) ActivePackages(ctx context.Context) ([]booking.Package, error) {
	var out []booking.Package
	err := s.db.WithContext(ctx).
		Preload("Addons", activeSorted).
		Scopes(activeSorted).
		Find(&out).Error
	return out, err
}

func (s *CatalogStore) ActiveProducts(ctx context.Context, filter catalog.ProductFilter) ([]shop.Product, error) {
	q := s.db.WithContext(ctx).
		Preload("Variants", activeSorted).
		Scopes(activeSorted)
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.FeaturedOnly {
		q = q.Where("featured = ?", true)
	}
	var out []shop.Product
	err := q.Find(&out).Error
	return out, err
}

func (s *CatalogStore) FindProductBySlug(ctx context.Context, slug string) (*shop.Product, error) {
	var p shop.Product
	err := s.db.WithContext(ctx).
		Preload("Variants", activeSorted).
		Where("slug = ? AND active = ?", slug, true).
		First(&p).Error
	if err != nil {
		return nil, notFound(err, catalog.ErrProductNotFound)
	}
	return &p, nil
}
