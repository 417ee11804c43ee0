package photos

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"studio-app/internal/domain/gallery"
	"studio-app/internal/domain/users"
	"studio-app/internal/infra/metrics"

	"go.uber.org/zap"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrPhotoNotFound   = errors.New("photo not found")
	ErrForbidden       = errors.New("not allowed to upload photos for this session")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrFileTooLarge    = errors.New("file exceeds the 50MB limit")
	ErrPathMismatch    = errors.New("path does not match the issued upload")
	ErrForeignPath     = errors.New("derived path is outside the session folder")
	ErrObjectMissing   = errors.New("uploaded file not found in storage")
)

const (
	MaxFileSize  int64 = 50 << 20
	UploadURLTTL       = time.Hour
)

// extensions maps accepted upload content types to the stored file extension.
var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9.\-]`)

type Store interface {
	// SessionOwner returns the customer who booked the session.
	SessionOwner(ctx context.Context, sessionID string) (uint, error)
	CreatePhoto(ctx context.Context, p *gallery.Photo) error
	FindPhoto(ctx context.Context, id string) (*gallery.Photo, error)
	SavePhoto(ctx context.Context, p *gallery.Photo) error
}

// Storage is the object store holding photo files.
type Storage interface {
	SignedUploadURL(ctx context.Context, path, contentType string, ttl time.Duration) (string, error)
	Exists(ctx context.Context, path string) (bool, error)
	PublicURL(path string) string
}

type Service struct {
	store   Store
	storage Storage
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(store Store, storage Storage, log *zap.Logger, opts ...Option) *Service {
	s := &Service{store: store, storage: storage, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type UploadInput struct {
	SessionID   string
	FileName    string
	ContentType string
	FileSize    int64
}

type UploadTicket struct {
	PhotoID   string    `json:"photoId"`
	UploadURL string    `json:"uploadUrl"`
	Path      string    `json:"path"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IssueUploadURL reserves a photo row and signs a PUT URL the client uploads
// the original to.
func (s *Service) IssueUploadURL(ctx context.Context, actor users.Actor, in UploadInput) (*UploadTicket, error) {
	ext, ok := extensions[strings.ToLower(in.ContentType)]
	if !ok {
		return nil, ErrUnsupportedType
	}
	if in.FileSize > MaxFileSize {
		return nil, ErrFileTooLarge
	}
	if err := s.authorize(ctx, actor, in.SessionID); err != nil {
		return nil, err
	}

	now := s.now()
	suffix, err := randomHex(8)
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("sessions/%s/original/%d-%s.%s", in.SessionID, now.UnixMilli(), suffix, ext)

	url, err := s.storage.SignedUploadURL(ctx, path, in.ContentType, UploadURLTTL)
	if err != nil {
		return nil, fmt.Errorf("sign upload url: %w", err)
	}

	photo := gallery.Photo{
		SessionID:    in.SessionID,
		FileName:     CleanFileName(in.FileName),
		ContentType:  in.ContentType,
		FileSize:     in.FileSize,
		OriginalPath: path,
		Status:       gallery.PhotoUploading,
		UploadedBy:   actor.ID,
	}
	if err := s.store.CreatePhoto(ctx, &photo); err != nil {
		return nil, err
	}

	s.log.Info("upload url issued",
		zap.String("photo_id", photo.ID),
		zap.String("session_id", in.SessionID),
		zap.Uint("user_id", actor.ID),
	)
	return &UploadTicket{
		PhotoID:   photo.ID,
		UploadURL: url,
		Path:      path,
		ExpiresAt: now.Add(UploadURLTTL),
	}, nil
}

// DerivedPaths are the resized renditions produced after upload. Empty
// entries fall back to the original.
type DerivedPaths struct {
	Large     string
	Medium    string
	Small     string
	Thumbnail string
}

type CompleteInput struct {
	PhotoID      string
	OriginalPath string
	Derived      DerivedPaths
}

// Complete marks a photo as uploaded once its object exists in storage.
// Completing an uploaded photo again returns it unchanged.
func (s *Service) Complete(ctx context.Context, actor users.Actor, in CompleteInput) (*gallery.Photo, error) {
	photo, err := s.store.FindPhoto(ctx, in.PhotoID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, photo.SessionID); err != nil {
		return nil, err
	}
	if in.OriginalPath != photo.OriginalPath {
		return nil, ErrPathMismatch
	}
	if err := checkDerived(photo.SessionID, in.Derived); err != nil {
		return nil, err
	}
	if photo.Status == gallery.PhotoUploaded {
		return photo, nil
	}

	exists, err := s.storage.Exists(ctx, photo.OriginalPath)
	if err != nil {
		return nil, fmt.Errorf("check uploaded object: %w", err)
	}
	if !exists {
		return nil, ErrObjectMissing
	}

	now := s.now()
	photo.Status = gallery.PhotoUploaded
	photo.ProcessedAt = &now
	photo.LargePath = orOriginal(in.Derived.Large, photo.OriginalPath)
	photo.MediumPath = orOriginal(in.Derived.Medium, photo.OriginalPath)
	photo.SmallPath = orOriginal(in.Derived.Small, photo.OriginalPath)
	photo.ThumbnailPath = orOriginal(in.Derived.Thumbnail, photo.OriginalPath)
	if err := s.store.SavePhoto(ctx, photo); err != nil {
		return nil, err
	}

	s.metrics.PhotoUploaded()
	s.log.Info("photo uploaded", zap.String("photo_id", photo.ID), zap.String("session_id", photo.SessionID))
	return photo, nil
}

// checkDerived rejects rendition paths that leave sessions/<id>/.
func checkDerived(sessionID string, d DerivedPaths) error {
	prefix := "sessions/" + sessionID + "/"
	for _, p := range []string{d.Large, d.Medium, d.Small, d.Thumbnail} {
		if p == "" {
			continue
		}
		if path.Clean(p) != p || !strings.HasPrefix(p, prefix) || len(p) == len(prefix) {
			return ErrForeignPath
		}
	}
	return nil
}

func (s *Service) PublicURL(path string) string {
	return s.storage.PublicURL(path)
}

func (s *Service) authorize(ctx context.Context, actor users.Actor, sessionID string) error {
	owner, err := s.store.SessionOwner(ctx, sessionID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && owner != actor.ID {
		return ErrForbidden
	}
	return nil
}

// CleanFileName replaces everything but letters, digits, dots and dashes.
func CleanFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "photo"
	}
	return unsafeFileChars.ReplaceAllString(name, "_")
}

func orOriginal(path, original string) *string {
	if path == "" {
		path = original
	}
	return &path
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
