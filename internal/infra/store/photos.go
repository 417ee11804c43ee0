package store

import (
	"context"

	"studio-app/internal/domain/booking"
	"studio-app/internal/domain/gallery"
	"studio-app/internal/service/photos"

	"gorm.io/gorm"
)

type PhotoStore struct {
	db *gorm.DB
}

func NewPhotoStore(db *gorm.DB) *PhotoStore {
	return &PhotoStore{db: db}
}

func (s *PhotoStore) SessionOwner(ctx context.Context, sessionID string) (uint, error) {
	if !validID(sessionID) {
		return 0, photos.ErrSessionNotFound
	}
	var session booking.Session
	err := s.db.WithContext(ctx).Select("id", "user_id").Where("id = ?", sessionID).First(&session).Error
	if err != nil {
		return 0, notFound(err, photos.ErrSessionNotFound)
	}
	return session.UserID, nil
}

func (s *PhotoStore) CreatePhoto(ctx context.Context, p *gallery.Photo) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *PhotoStore) FindPhoto(ctx context.Context, id string) (*gallery.Photo, error) {
	if !validID(id) {
		return nil, photos.ErrPhotoNotFound
	}
	var p gallery.Photo
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err, photos.ErrPhotoNotFound)
	}
	return &p, nil
}

func (s *PhotoStore) SavePhoto(ctx context.Context, p *gallery.Photo) error {
	return s.db.WithContext(ctx).Save(p).Error
}
