package galleries

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"studio-app/internal/domain/booking"
	"studio-app/internal/domain/gallery"
	"studio-app/internal/infra/metrics"

	"go.uber.org/zap"
)

var (
	ErrGalleryNotFound     = errors.New("gallery not found")
	ErrSessionNotFound     = errors.New("session not found")
	ErrPhotoNotFound       = errors.New("photo not found")
	ErrSessionNotCompleted = errors.New("session must be completed before a gallery can be created")
	ErrGalleryExists       = errors.New("gallery already exists for this session")
	ErrPasswordMissing     = errors.New("password is required for a protected gallery")
	ErrDownloadDisabled    = errors.New("downloads are disabled for this gallery")
)

const (
	DefaultExpiryDays = 90
	DownloadURLTTL    = 15 * time.Minute
)

// SessionSummary is the slice of a session a gallery shows.
type SessionSummary struct {
	ID            string
	SessionNumber string
	Status        string
	Date          time.Time
	PackageName   string
	CustomerName  string
	CustomerEmail string
}

// Store is the gallery persistence. Lookups return ErrGalleryNotFound,
// ErrSessionNotFound or ErrPhotoNotFound for missing rows, and CreateGallery
// returns ErrGalleryExists when the session already has one.
type Store interface {
	FindGalleryBySlug(ctx context.Context, slug string) (*gallery.Gallery, error)
	FindGallery(ctx context.Context, id string) (*gallery.Gallery, error)
	SlugTaken(ctx context.Context, slug string) (bool, error)
	SessionHasGallery(ctx context.Context, sessionID string) (bool, error)
	CreateGallery(ctx context.Context, g *gallery.Gallery) error
	ListGalleries(ctx context.Context) ([]gallery.Gallery, error)
	IncrementViews(ctx context.Context, id string) error
	IncrementDownloads(ctx context.Context, id string) error

	UploadedPhotos(ctx context.Context, sessionID string) ([]gallery.Photo, error)
	CountUploadedPhotos(ctx context.Context, sessionID string) (int64, error)
	FindPhoto(ctx context.Context, id string) (*gallery.Photo, error)
	FindSessionSummary(ctx context.Context, sessionID string) (*SessionSummary, error)
}

// URLSigner resolves storage paths into URLs a browser can load.
type URLSigner interface {
	PublicURL(path string) string
	SignedDownloadURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}

type Card struct {
	GalleryName   string
	SessionNumber string
	CustomerName  string
	AccessCode    string
	AccessURL     string
	ExpiresAt     time.Time
}

type CardRenderer interface {
	GalleryCard(card Card) ([]byte, error)
}

type Notifier interface {
	GalleryReady(ctx context.Context, to, customerName, galleryName, accessURL, accessCode string) error
}

type Service struct {
	store    Store
	urls     URLSigner
	cards    CardRenderer
	notifier Notifier
	appURL   string
	log      *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithCards(r CardRenderer) Option {
	return func(s *Service) { s.cards = r }
}

func NewService(store Store, urls URLSigner, appURL string, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		urls:   urls,
		appURL: strings.TrimRight(appURL, "/"),
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type SessionInfo struct {
	SessionNumber string    `json:"sessionNumber"`
	SessionDate   time.Time `json:"sessionDate"`
	PackageName   string    `json:"packageName,omitempty"`
}

// Summary is what anyone holding the slug may see.
type Summary struct {
	ID                 string      `json:"id"`
	Name               string      `json:"name"`
	Slug               string      `json:"slug"`
	RequiresPassword   bool        `json:"requiresPassword"`
	DownloadEnabled    bool        `json:"downloadEnabled"`
	SocialShareEnabled bool        `json:"socialShareEnabled"`
	WatermarkEnabled   bool        `json:"watermarkEnabled"`
	PublicShareEnabled bool        `json:"publicShareEnabled"`
	ExpiresAt          time.Time   `json:"expiresAt"`
	ViewCount          int64       `json:"viewCount"`
	PhotoCount         int64       `json:"photoCount"`
	Session            SessionInfo `json:"session"`
}

type PhotoView struct {
	ID           string    `json:"id"`
	FileName     string    `json:"fileName"`
	OriginalURL  string    `json:"originalUrl"`
	LargeURL     string    `json:"largeUrl"`
	MediumURL    string    `json:"mediumUrl"`
	SmallURL     string    `json:"smallUrl"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Unlocked struct {
	Gallery Summary     `json:"gallery"`
	Photos  []PhotoView `json:"photos"`
}

// Describe returns gallery metadata without photos.
func (s *Service) Describe(ctx context.Context, slug string) (*Summary, error) {
	g, err := s.store.FindGalleryBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if g.IsExpired(s.now()) {
		return nil, gallery.ErrExpired
	}
	return s.summarize(ctx, g)
}

// Access unlocks a gallery. Each successful call counts as one view.
func (s *Service) Access(ctx context.Context, slug, accessCode, password string) (*Unlocked, error) {
	g, err := s.authorize(ctx, slug, accessCode, password)
	if err != nil {
		return nil, err
	}
	if err := s.store.IncrementViews(ctx, g.ID); err != nil {
		return nil, err
	}
	g.ViewCount++

	photos, err := s.store.UploadedPhotos(ctx, g.SessionID)
	if err != nil {
		return nil, err
	}
	summary, err := s.summarize(ctx, g)
	if err != nil {
		return nil, err
	}

	views := make([]PhotoView, 0, len(photos))
	for _, p := range photos {
		paths := p.Paths()
		views = append(views, PhotoView{
			ID:           p.ID,
			FileName:     p.FileName,
			OriginalURL:  s.urls.PublicURL(paths.Original),
			LargeURL:     s.urls.PublicURL(paths.Large),
			MediumURL:    s.urls.PublicURL(paths.Medium),
			SmallURL:     s.urls.PublicURL(paths.Small),
			ThumbnailURL: s.urls.PublicURL(paths.Thumbnail),
			CreatedAt:    p.CreatedAt,
		})
	}
	return &Unlocked{Gallery: *summary, Photos: views}, nil
}

type DownloadLink struct {
	URL       string    `json:"url"`
	FileName  string    `json:"fileName"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Download signs a short-lived link to a photo original.
func (s *Service) Download(ctx context.Context, slug, accessCode, password, photoID string) (*DownloadLink, error) {
	g, err := s.authorize(ctx, slug, accessCode, password)
	if err != nil {
		return nil, err
	}
	if !g.DownloadEnabled {
		return nil, ErrDownloadDisabled
	}
	photo, err := s.store.FindPhoto(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if photo.SessionID != g.SessionID || photo.Status != gallery.PhotoUploaded {
		return nil, ErrPhotoNotFound
	}

	url, err := s.urls.SignedDownloadURL(ctx, photo.OriginalPath, DownloadURLTTL)
	if err != nil {
		return nil, fmt.Errorf("sign download url: %w", err)
	}
	if err := s.store.IncrementDownloads(ctx, g.ID); err != nil {
		return nil, err
	}
	return &DownloadLink{URL: url, FileName: photo.FileName, ExpiresAt: s.now().Add(DownloadURLTTL)}, nil
}

func (s *Service) authorize(ctx context.Context, slug, accessCode, password string) (*gallery.Gallery, error) {
	g, err := s.store.FindGalleryBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, ErrGalleryNotFound) {
			s.metrics.GalleryAccessResult("not_found")
		}
		return nil, err
	}
	if err := g.Authorize(s.now(), accessCode, password); err != nil {
		s.metrics.GalleryAccessResult(accessResult(err))
		s.log.Info("gallery access denied", zap.String("slug", slug), zap.Error(err))
		return nil, err
	}
	s.metrics.GalleryAccessResult("granted")
	return g, nil
}

func accessResult(err error) string {
	switch {
	case errors.Is(err, gallery.ErrExpired):
		return "expired"
	case errors.Is(err, gallery.ErrInvalidCode):
		return "invalid_code"
	case errors.Is(err, gallery.ErrPasswordRequired):
		return "password_required"
	case errors.Is(err, gallery.ErrInvalidPassword):
		return "invalid_password"
	}
	return "error"
}

func (s *Service) summarize(ctx context.Context, g *gallery.Gallery) (*Summary, error) {
	count, err := s.store.CountUploadedPhotos(ctx, g.SessionID)
	if err != nil {
		return nil, err
	}
	session, err := s.store.FindSessionSummary(ctx, g.SessionID)
	if err != nil {
		return nil, err
	}
	return &Summary{
		ID:                 g.ID,
		Name:               g.Name,
		Slug:               g.Slug,
		RequiresPassword:   g.RequiresPassword(),
		DownloadEnabled:    g.DownloadEnabled,
		SocialShareEnabled: g.SocialShareEnabled,
		WatermarkEnabled:   g.WatermarkEnabled,
		PublicShareEnabled: g.PublicShareEnabled,
		ExpiresAt:          g.ExpiresAt,
		ViewCount:          g.ViewCount,
		PhotoCount:         count,
		Session: SessionInfo{
			SessionNumber: session.SessionNumber,
			SessionDate:   session.Date,
			PackageName:   session.PackageName,
		},
	}, nil
}

type CreateInput struct {
	SessionID          string
	Name               string
	PasswordProtected  bool
	Password           string
	PublicShareEnabled bool
	DownloadEnabled    bool
	SocialShareEnabled bool
	WatermarkEnabled   bool
	ExpiryDays         int
}

type Created struct {
	Gallery   gallery.Gallery `json:"gallery"`
	AccessURL string          `json:"accessUrl"`
	AdminURL  string          `json:"adminUrl"`
}

// Create opens the gallery of a completed session.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Created, error) {
	session, err := s.store.FindSessionSummary(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != booking.StatusCompleted {
		return nil, ErrSessionNotCompleted
	}
	exists, err := s.store.SessionHasGallery(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrGalleryExists
	}
	if in.PasswordProtected && in.Password == "" {
		return nil, ErrPasswordMissing
	}

	slug, err := gallery.UniqueSlug(in.Name, func(candidate string) (bool, error) {
		return s.store.SlugTaken(ctx, candidate)
	})
	if err != nil {
		return nil, err
	}
	code, err := gallery.NewAccessCode()
	if err != nil {
		return nil, fmt.Errorf("generate access code: %w", err)
	}
	days := in.ExpiryDays
	if days <= 0 {
		days = DefaultExpiryDays
	}

	g := gallery.Gallery{
		SessionID:          in.SessionID,
		Name:               strings.TrimSpace(in.Name),
		Slug:               slug,
		AccessCode:         code,
		PasswordProtected:  in.PasswordProtected,
		ExpiresAt:          s.now().AddDate(0, 0, days),
		PublicShareEnabled: in.PublicShareEnabled,
		DownloadEnabled:    in.DownloadEnabled,
		SocialShareEnabled: in.SocialShareEnabled,
		WatermarkEnabled:   in.WatermarkEnabled,
	}
	if in.PasswordProtected {
		hash, err := gallery.HashPassword(in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash gallery password: %w", err)
		}
		g.PasswordHash = &hash
	}

	if err := s.store.CreateGallery(ctx, &g); err != nil {
		return nil, err
	}
	s.log.Info("gallery created", zap.String("gallery_id", g.ID), zap.String("session_id", g.SessionID), zap.String("slug", g.Slug))

	created := &Created{Gallery: g, AccessURL: s.AccessURL(g), AdminURL: s.appURL + "/admin/galleries/" + g.ID}
	s.notifyReady(ctx, *session, g, created.AccessURL)
	return created, nil
}

func (s *Service) notifyReady(ctx context.Context, session SessionSummary, g gallery.Gallery, url string) {
	if s.notifier == nil || session.CustomerEmail == "" {
		return
	}
	if err := s.notifier.GalleryReady(ctx, session.CustomerEmail, session.CustomerName, g.Name, url, g.AccessCode); err != nil {
		s.log.Warn("gallery email failed", zap.String("gallery_id", g.ID), zap.Error(err))
	}
}

func (s *Service) AccessURL(g gallery.Gallery) string {
	return s.appURL + "/gallery/" + g.Slug
}

func (s *Service) List(ctx context.Context) ([]gallery.Gallery, error) {
	return s.store.ListGalleries(ctx)
}

// Card renders the printable access card handed to the customer.
func (s *Service) Card(ctx context.Context, id string) ([]byte, error) {
	if s.cards == nil {
		return nil, errors.New("card rendering not configured")
	}
	g, err := s.store.FindGallery(ctx, id)
	if err != nil {
		return nil, err
	}
	session, err := s.store.FindSessionSummary(ctx, g.SessionID)
	if err != nil {
		return nil, err
	}
	return s.cards.GalleryCard(Card{
		GalleryName:   g.Name,
		SessionNumber: session.SessionNumber,
		CustomerName:  session.CustomerName,
		AccessCode:    g.AccessCode,
		AccessURL:     s.AccessURL(*g),
		ExpiresAt:     g.ExpiresAt,
	})
}
