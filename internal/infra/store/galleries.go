package store

import (
	"context"
	"errors"

	"studio-app/internal/domain/booking"
	"studio-app/internal/domain/gallery"
	"studio-app/internal/service/galleries"

	"gorm.io/gorm"
)

type GalleryStore struct {
	db *gorm.DB
}

func NewGalleryStore(db *gorm.DB) *GalleryStore {
	return &GalleryStore{db: db}
}

func (s *GalleryStore) FindGalleryBySlug(ctx context.Context, slug string) (*gallery.Gallery, error) {
	var g gallery.Gallery
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&g).Error; err != nil {
		return nil, notFound(err, galleries.ErrGalleryNotFound)
	}
	return &g, nil
}

func (s *GalleryStore) FindGallery(ctx context.Context, id string) (*gallery.Gallery, error) {
	if !validID(id) {
		return nil, galleries.ErrGalleryNotFound
	}
	var g gallery.Gallery
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&g).Error; err != nil {
		return nil, notFound(err, galleries.ErrGalleryNotFound)
	}
	return &g, nil
}

func (s *GalleryStore) SlugTaken(ctx context.Context, slug string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&gallery.Gallery{}).Where("slug = ?", slug).Count(&n).Error
	return n > 0, err
}

func (s *GalleryStore) SessionHasGallery(ctx context.Context, sessionID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&gallery.Gallery{}).Where("session_id = ?", sessionID).Count(&n).Error
	return n > 0, err
}

// CreateGallery writes every column so disabled flags are not replaced by
// the column defaults.
func (s *GalleryStore) CreateGallery(ctx context.Context, g *gallery.Gallery) error {
	err := s.db.WithContext(ctx).Select("*").Create(g).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return galleries.ErrGalleryExists
	}
	return err
}

func (s *GalleryStore) ListGalleries(ctx context.Context) ([]gallery.Gallery, error) {
	var out []gallery.Gallery
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error
	return out, err
}

func (s *GalleryStore) IncrementViews(ctx context.Context, id string) error {
	return s.increment(ctx, id, "view_count")
}

func (s *GalleryStore) IncrementDownloads(ctx context.Context, id string) error {
	return s.increment(ctx, id, "download_count")
}

func (s *GalleryStore) increment(ctx context.Context, id, column string) error {
	return s.db.WithContext(ctx).
		Model(&gallery.Gallery{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + 1")).Error
}

func (s *GalleryStore) UploadedPhotos(ctx context.Context, sessionID string) ([]gallery.Photo, error) {
	var out []gallery.Photo
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND status = ?", sessionID, gallery.PhotoUploaded).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (s *GalleryStore) CountUploadedPhotos(ctx context.Context, sessionID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&gallery.Photo{}).
		Where("session_id = ? AND status = ?", sessionID, gallery.PhotoUploaded).
		Count(&n).Error
	return n, err
}

func (s *GalleryStore) FindPhoto(ctx context.Context, id string) (*gallery.Photo, error) {
	if !validID(id) {
		return nil, galleries.ErrPhotoNotFound
	}
	var p gallery.Photo
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err, galleries.ErrPhotoNotFound)
	}
	return &p, nil
}

func (s *GalleryStore) FindSessionSummary(ctx context.Context, sessionID string) (*galleries.SessionSummary, error) {
	if !validID(sessionID) {
		return nil, galleries.ErrSessionNotFound
	}
	var session booking.Session
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Package").
		Where("id = ?", sessionID).
		First(&session).Error
	if err != nil {
		return nil, notFound(err, galleries.ErrSessionNotFound)
	}

	out := &galleries.SessionSummary{
		ID:            session.ID,
		SessionNumber: session.SessionNumber,
		Status:        session.Status,
		Date:          session.Date(),
	}
	if session.Package != nil {
		out.PackageName = session.Package.Name
	}
	if session.User != nil {
		out.CustomerName = session.User.FullName()
		out.CustomerEmail = session.User.Email
	}
	return out, nil
}
