package photos

import (
	"context"
	"errors"
	"net/http"

	"studio-app/internal/api/request"
	"studio-app/internal/domain/gallery"
	"studio-app/internal/domain/users"
	photosvc "studio-app/internal/service/photos"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Service interface {
	IssueUploadURL(ctx context.Context, actor users.Actor, in photosvc.UploadInput) (*photosvc.UploadTicket, error)
	Complete(ctx context.Context, actor users.Actor, in photosvc.CompleteInput) (*gallery.Photo, error)
	PublicURL(path string) string
}

type Handler struct {
	svc Service
	log *zap.Logger
}

func NewHandler(svc Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type uploadURLRequest struct {
	SessionID   string `json:"sessionId" binding:"required,uuid"`
	FileName    string `json:"fileName" binding:"required,max=255"`
	ContentType string `json:"contentType" binding:"required"`
	FileSize    int64  `json:"fileSize" binding:"required,gt=0"`
}

// POST /photos/upload-url
func (h *Handler) UploadURL(c *gin.Context) {
	var body uploadURLRequest
	if !request.JSON(c, &body) {
		return
	}
	ticket, err := h.svc.IssueUploadURL(c.Request.Context(), request.Actor(c), photosvc.UploadInput{
		SessionID:   body.SessionID,
		FileName:    body.FileName,
		ContentType: body.ContentType,
		FileSize:    body.FileSize,
	})
	if err != nil {
		h.fail(c, "issue upload url", err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

type derivedPaths struct {
	Large     string `json:"large" binding:"max=512"`
	Medium    string `json:"medium" binding:"max=512"`
	Small     string `json:"small" binding:"max=512"`
	Thumbnail string `json:"thumbnail" binding:"max=512"`
}

type uploadCompleteRequest struct {
	PhotoID      string       `json:"photoId" binding:"required,uuid"`
	OriginalPath string       `json:"originalPath" binding:"required,max=512"`
	Derived      derivedPaths `json:"derivedPaths"`
}

type photoURLs struct {
	Original  string `json:"original"`
	Large     string `json:"large"`
	Medium    string `json:"medium"`
	Small     string `json:"small"`
	Thumbnail string `json:"thumbnail"`
}

// POST /photos/upload-complete
func (h *Handler) UploadComplete(c *gin.Context) {
	var body uploadCompleteRequest
	if !request.JSON(c, &body) {
		return
	}
	photo, err := h.svc.Complete(c.Request.Context(), request.Actor(c), photosvc.CompleteInput{
		PhotoID:      body.PhotoID,
		OriginalPath: body.OriginalPath,
		Derived: photosvc.DerivedPaths{
			Large:     body.Derived.Large,
			Medium:    body.Derived.Medium,
			Small:     body.Derived.Small,
			Thumbnail: body.Derived.Thumbnail,
		},
	})
	if err != nil {
		h.fail(c, "complete upload", err)
		return
	}
	paths := photo.Paths()
	c.JSON(http.StatusOK, gin.H{
		"photo": photo,
		"urls": photoURLs{
			Original:  h.svc.PublicURL(paths.Original),
			Large:     h.svc.PublicURL(paths.Large),
			Medium:    h.svc.PublicURL(paths.Medium),
			Small:     h.svc.PublicURL(paths.Small),
			Thumbnail: h.svc.PublicURL(paths.Thumbnail),
		},
	})
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, photosvc.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case errors.Is(err, photosvc.ErrPhotoNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Photo not found"})
	case errors.Is(err, photosvc.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	case errors.Is(err, photosvc.ErrUnsupportedType):
		request.FieldInvalid(c, "contentType", "must be one of: image/jpeg, image/jpg, image/png, image/webp")
	case errors.Is(err, photosvc.ErrFileTooLarge):
		request.FieldInvalid(c, "fileSize", "must be at most 50 MB")
	case errors.Is(err, photosvc.ErrPathMismatch), errors.Is(err, photosvc.ErrObjectMissing),
		errors.Is(err, photosvc.ErrForeignPath):
		h.log.Warn(op, zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error(op, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
