package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studio-app/internal/domain/booking"
	"studio-app/internal/domain/users"
	"studio-app/internal/infra/metrics"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

var (
	ErrPackageNotFound    = errors.New("package not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrTooManyChildren    = errors.New("too many children for this package")
	ErrUnknownAddon       = errors.New("add-on is not available for this package")
	ErrSlotUnavailable    = errors.New("selected time slot is not available")
	ErrOutsideStudioHours = errors.New("session must fit within studio hours")
	ErrDateInPast         = errors.New("session date is in the past")
	ErrInvalidTransition  = errors.New("session status change not allowed")
)

// Store is the persistence the session service needs. Lookups return
// ErrPackageNotFound or ErrSessionNotFound when the row is missing.
type Store interface {
	Transaction(ctx context.Context, fn func(tx Store) error) error
	// Lock takes a transaction scoped lock on key. Only valid inside Transaction.
	Lock(ctx context.Context, key string) error

	FindPackage(ctx context.Context, id string) (*booking.Package, error)
	ActiveSessionsOn(ctx context.Context, day time.Time) ([]booking.Session, error)
	CountSessionsCreatedIn(ctx context.Context, year int) (int64, error)
	UpsertChild(ctx context.Context, child *booking.Child) error
	CreateSession(ctx context.Context, s *booking.Session) error

	FindSession(ctx context.Context, id string) (*booking.Session, error)
	ListSessionsForUser(ctx context.Context, userID uint) ([]booking.Session, error)
	ListSessions(ctx context.Context, day *time.Time) ([]booking.Session, error)
	UpdateSessionStatus(ctx context.Context, id, status string) error
	FindUser(ctx context.Context, id uint) (*users.User, error)
}

// Notifier is told about new bookings. Failures never undo a booking.
type Notifier interface {
	SessionBooked(ctx context.Context, user users.User, s booking.Session) error
}

type Service struct {
	store       Store
	notifier    Notifier
	depositRate decimal.Decimal
	log         *zap.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
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

func NewService(store Store, depositRate decimal.Decimal, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:       store,
		depositRate: depositRate,
		log:         log,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Availability returns the open start times for a day.
func (s *Service) Availability(ctx context.Context, day time.Time, duration int) ([]string, error) {
	existing, err := s.store.ActiveSessionsOn(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	booked, err := windows(existing)
	if err != nil {
		return nil, err
	}
	return booking.AvailableSlots(duration, booked), nil
}

type ChildInput struct {
	FirstName           string
	LastName            string
	BirthDate           *time.Time
	PreferredStyle      *string
	MusicPreferences    *string
	StyleNotes          *string
	SpecialRequirements *string
}

type CreateInput struct {
	PackageID       string
	Date            time.Time
	Time            string
	Children        []ChildInput
	AddonIDs        []string
	SpecialRequests *string
}

type Created struct {
	Session booking.Session
	Quote   booking.Quote
}

// Create books a session. Children, links, add-ons and pricing are written in
// one transaction; the day is locked so two bookings cannot race for a slot.
func (s *Service) Create(ctx context.Context, userID uint, in CreateInput) (*Created, error) {
	start, err := booking.ParseClock(in.Time)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	day := time.Date(in.Date.Year(), in.Date.Month(), in.Date.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(today) {
		return nil, ErrDateInPast
	}

	var created Created
	err = s.store.Transaction(ctx, func(tx Store) error {
		pkg, err := tx.FindPackage(ctx, in.PackageID)
		if err != nil {
			return err
		}
		if len(in.Children) > pkg.MaxChildren {
			return fmt.Errorf("%w: maximum %d", ErrTooManyChildren, pkg.MaxChildren)
		}
		addons, err := pickAddons(pkg, in.AddonIDs)
		if err != nil {
			return err
		}

		window := booking.NewWindow(start, pkg.DurationMinutes)
		if !window.WithinStudioHours() {
			return ErrOutsideStudioHours
		}

		if err := tx.Lock(ctx, "session-day:"+day.Format(booking.DateLayout)); err != nil {
			return err
		}
		existing, err := tx.ActiveSessionsOn(ctx, day)
		if err != nil {
			return err
		}
		booked, err := windows(existing)
		if err != nil {
			return err
		}
		for _, b := range booked {
			if window.Overlaps(b) {
				return ErrSlotUnavailable
			}
		}

		if err := tx.Lock(ctx, "session-number"); err != nil {
			return err
		}
		count, err := tx.CountSessionsCreatedIn(ctx, now.Year())
		if err != nil {
			return err
		}

		quote := booking.PriceSession(pkg.BasePrice, addons, s.depositRate)
		session := booking.Session{
			SessionNumber:     booking.SessionNumber(now.Year(), count),
			UserID:            userID,
			PackageID:         pkg.ID,
			SessionDate:       datatypes.Date(day),
			SessionTime:       booking.FormatClock(start),
			EstimatedDuration: pkg.DurationMinutes,
			Status:            booking.StatusBooked,
			TotalAmount:       quote.Total,
			DepositAmount:     quote.Deposit,
			BalanceDue:        quote.Balance,
			SpecialRequests:   in.SpecialRequests,
		}

		for i, ci := range in.Children {
			child := toChild(userID, ci)
			if err := tx.UpsertChild(ctx, &child); err != nil {
				return err
			}
			session.Children = append(session.Children, booking.SessionChild{
				ChildID:      child.ID,
				PrimaryChild: i == 0,
			})
		}
		for _, a := range addons {
			session.Addons = append(session.Addons, booking.SessionAddon{
				AddonID:    a.ID,
				Quantity:   1,
				UnitPrice:  a.Price,
				TotalPrice: a.Price,
			})
		}

		if err := tx.CreateSession(ctx, &session); err != nil {
			return err
		}
		session.Package = pkg
		created = Created{Session: session, Quote: quote}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.BookingCreated()
	s.log.Info("session booked",
		zap.String("session_id", created.Session.ID),
		zap.String("session_number", created.Session.SessionNumber),
		zap.Uint("user_id", userID),
	)
	s.notify(ctx, userID, created.Session)
	return &created, nil
}

func (s *Service) notify(ctx context.Context, userID uint, session booking.Session) {
	if s.notifier == nil {
		return
	}
	user, err := s.store.FindUser(ctx, userID)
	if err != nil {
		s.log.Warn("booking email skipped", zap.Uint("user_id", userID), zap.Error(err))
		return
	}
	if err := s.notifier.SessionBooked(ctx, *user, session); err != nil {
		s.log.Warn("booking email failed", zap.String("session_id", session.ID), zap.Error(err))
	}
}

func (s *Service) List(ctx context.Context, userID uint) ([]booking.Session, error) {
	return s.store.ListSessionsForUser(ctx, userID)
}

func (s *Service) ListAll(ctx context.Context, day *time.Time) ([]booking.Session, error) {
	return s.store.ListSessions(ctx, day)
}

// Get returns a session the actor may see. Other customers' sessions are
// reported as missing.
func (s *Service) Get(ctx context.Context, actor users.Actor, id string) (*booking.Session, error) {
	session, err := s.store.FindSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && session.UserID != actor.ID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*booking.Session, error) {
	session, err := s.store.FindSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.CanTransition(session.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, session.Status, status)
	}
	if err := s.store.UpdateSessionStatus(ctx, id, status); err != nil {
		return nil, err
	}
	s.log.Info("session status changed",
		zap.String("session_id", id),
		zap.String("from", session.Status),
		zap.String("to", status),
	)
	session.Status = status
	return session, nil
}

func windows(sessions []booking.Session) ([]booking.Window, error) {
	out := make([]booking.Window, 0, len(sessions))
	for _, existing := range sessions {
		w, err := existing.Window()
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", existing.ID, err)
		}
		out = append(out, w)
	}
	return out, nil
}

func pickAddons(pkg *booking.Package, ids []string) ([]booking.Addon, error) {
	byID := make(map[string]booking.Addon, len(pkg.Addons))
	for _, a := range pkg.Addons {
		if a.Active {
			byID[a.ID] = a
		}
	}
	seen := make(map[string]bool, len(ids))
	var picked []booking.Addon
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		a, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAddon, id)
		}
		picked = append(picked, a)
	}
	return picked, nil
}

func toChild(parentID uint, in ChildInput) booking.Child {
	c := booking.Child{
		ParentID:            parentID,
		FirstName:           in.FirstName,
		LastName:            in.LastName,
		PreferredStyle:      in.PreferredStyle,
		MusicPreferences:    in.MusicPreferences,
		StyleNotes:          in.StyleNotes,
		SpecialRequirements: in.SpecialRequirements,
	}
	if in.BirthDate != nil {
		d := datatypes.Date(*in.BirthDate)
		c.BirthDate = &d
	}
	return c
}
