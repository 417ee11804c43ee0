package store

import (
	"context"
	"errors"
	"time"

	"studio-app/internal/domain/booking"
	"studio-app/internal/domain/shop"
	"studio-app/internal/domain/users"

	"gorm.io/gorm"
)

type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) CreateUser(ctx context.Context, u *users.User) error {
	err := s.db.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return users.ErrEmailTaken
	}
	return err
}

func (s *UserStore) FindUserByEmail(ctx context.Context, email string) (*users.User, error) {
	return s.first(ctx, "email = ?", email)
}

func (s *UserStore) FindUserByGoogleSub(ctx context.Context, sub string) (*users.User, error) {
	return s.first(ctx, "google_sub = ?", sub)
}

func (s *UserStore) FindUserByID(ctx context.Context, id uint) (*users.User, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *UserStore) first(ctx context.Context, query string, arg any) (*users.User, error) {
	var u users.User
	if err := s.db.WithContext(ctx).Where(query, arg).First(&u).Error; err != nil {
		return nil, notFound(err, users.ErrNotFound)
	}
	return &u, nil
}

func (s *UserStore) SaveUser(ctx context.Context, u *users.User) error {
	return s.db.WithContext(ctx).Save(u).Error
}

// Activity counts sessions, upcoming active sessions and orders for a user.
func (s *UserStore) Activity(ctx context.Context, id uint, today time.Time) (users.Activity, error) {
	var a users.Activity
	db := s.db.WithContext(ctx)
	if err := db.Model(&booking.Session{}).Where("user_id = ?", id).Count(&a.Sessions).Error; err != nil {
		return a, err
	}
	err := db.Model(&booking.Session{}).
		Where("user_id = ? AND session_date >= ? AND status IN ?", id, today.Format(booking.DateLayout), booking.ActiveStatuses).
		Count(&a.UpcomingSessions).Error
	if err != nil {
		return a, err
	}
	if err := db.Model(&shop.Order{}).Where("user_id = ?", id).Count(&a.Orders).Error; err != nil {
		return a, err
	}
	return a, nil
}
