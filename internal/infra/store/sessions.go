package store

import (
	"context"
	"fmt"
	"time"

	"studio-app/internal/domain/booking"
	"studio-app/internal/domain/users"
	"studio-app/internal/service/sessions"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionStore struct {
	db *gorm.DB
}

func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Transaction(ctx context.Context, fn func(tx sessions.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&SessionStore{db: tx})
	})
}

func (s *SessionStore) Lock(ctx context.Context, key string) error {
	return lock(ctx, s.db, key)
}

func (s *SessionStore) FindPackage(ctx context.Context, id string) (*booking.Package, error) {
	if !validID(id) {
		return nil, sessions.ErrPackageNotFound
	}
	var pkg booking.Package
	err := s.db.WithContext(ctx).
		Preload("Addons", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Where("id = ? AND active = ?", id, true).
		First(&pkg).Error
	if err != nil {
		return nil, notFound(err, sessions.ErrPackageNotFound)
	}
	return &pkg, nil
}

func (s *SessionStore) ActiveSessionsOn(ctx context.Context, day time.Time) ([]booking.Session, error) {
	var out []booking.Session
	err := s.db.WithContext(ctx).
		Preload("Package").
		Where("session_date = ? AND status IN ?", day.Format(booking.DateLayout), booking.ActiveStatuses).
		Order("session_time ASC").
		Find(&out).Error
	return out, err
}

func (s *SessionStore) CountSessionsCreatedIn(ctx context.Context, year int) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&booking.Session{}).
		Where("session_number LIKE ?", fmt.Sprintf("EM%d%%", year)).
		Count(&n).Error
	return n, err
}

// UpsertChild inserts the child or refreshes the details of the existing row
// with the same parent and name, then loads its id.
func (s *SessionStore) UpsertChild(ctx context.Context, child *booking.Child) error {
	db := s.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "parent_id"}, {Name: "first_name"}, {Name: "last_name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"birth_date", "preferred_style", "music_preferences", "style_notes", "special_requirements", "updated_at",
		}),
	}).Create(child).Error
	if err != nil {
		return err
	}

	var stored booking.Child
	if err := db.Select("id").
		Where("parent_id = ? AND first_name = ? AND last_name = ?", child.ParentID, child.FirstName, child.LastName).
		First(&stored).Error; err != nil {
		return err
	}
	child.ID = stored.ID
	return nil
}

func (s *SessionStore) CreateSession(ctx context.Context, session *booking.Session) error {
	return s.db.WithContext(ctx).Create(session).Error
}

func (s *SessionStore) FindSession(ctx context.Context, id string) (*booking.Session, error) {
	if !validID(id) {
		return nil, sessions.ErrSessionNotFound
	}
	var out booking.Session
	err := s.db.WithContext(ctx).
		Preload("Package").
		Preload("Children.Child").
		Preload("Addons.Addon").
		Preload("PaymentPlans", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Preload("PaymentPlans.Payments", func(db *gorm.DB) *gorm.DB { return db.Order("installment_number") }).
		Where("id = ?", id).
		First(&out).Error
	if err != nil {
		return nil, notFound(err, sessions.ErrSessionNotFound)
	}
	return &out, nil
}

func (s *SessionStore) ListSessionsForUser(ctx context.Context, userID uint) ([]booking.Session, error) {
	var out []booking.Session
	err := s.db.WithContext(ctx).
		Preload("Package").
		Preload("Children.Child").
		Where("user_id = ?", userID).
		Order("session_date DESC, session_time DESC").
		Find(&out).Error
	return out, err
}

func (s *SessionStore) ListSessions(ctx context.Context, day *time.Time) ([]booking.Session, error) {
	q := s.db.WithContext(ctx).
		Preload("Package").
		Preload("User").
		Preload("Children.Child")
	if day != nil {
		q = q.Where("session_date = ?", day.Format(booking.DateLayout))
	}
	var out []booking.Session
	err := q.Order("session_date ASC, session_time ASC").Find(&out).Error
	return out, err
}

func (s *SessionStore) UpdateSessionStatus(ctx context.Context, id, status string) error {
	if !validID(id) {
		return sessions.ErrSessionNotFound
	}
	res := s.db.WithContext(ctx).
		Model(&booking.Session{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return sessions.ErrSessionNotFound
	}
	return nil
}

func (s *SessionStore) FindUser(ctx context.Context, id uint) (*users.User, error) {
	var u users.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}
