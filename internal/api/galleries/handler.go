package galleries

import (
	"context"
	"errors"
	"net/http"

	"studio-app/internal/api/request"
	"studio-app/internal/domain/gallery"
	gallerysvc "studio-app/internal/service/galleries"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Service interface {
	Describe(ctx context.Context, slug string) (*gallerysvc.Summary, error)
	Access(ctx context.Context, slug, accessCode, password string) (*gallerysvc.Unlocked, error)
	Download(ctx context.Context, slug, accessCode, password, photoID string) (*gallerysvc.DownloadLink, error)
}

type Handler struct {
	svc Service
	log *zap.Logger
}

func NewHandler(svc Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// GET /galleries/:slug
func (h *Handler) Describe(c *gin.Context) {
	summary, err := h.svc.Describe(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.fail(c, "describe gallery", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

type accessRequest struct {
	AccessCode string `json:"accessCode" binding:"max=64"`
	Password   string `json:"password" binding:"max=128"`
}

// POST /galleries/:slug
func (h *Handler) Access(c *gin.Context) {
	var body accessRequest
	if !request.JSON(c, &body) {
		return
	}
	unlocked, err := h.svc.Access(c.Request.Context(), c.Param("slug"), body.AccessCode, body.Password)
	if err != nil {
		h.fail(c, "access gallery", err)
		return
	}
	c.JSON(http.StatusOK, unlocked)
}

type downloadRequest struct {
	AccessCode string `json:"accessCode" binding:"max=64"`
	Password   string `json:"password" binding:"max=128"`
	PhotoID    string `json:"photoId" binding:"required,uuid"`
}

// POST /galleries/:slug/download
func (h *Handler) Download(c *gin.Context) {
	var body downloadRequest
	if !request.JSON(c, &body) {
		return
	}
	link, err := h.svc.Download(c.Request.Context(), c.Param("slug"), body.AccessCode, body.Password, body.PhotoID)
	if err != nil {
		h.fail(c, "download photo", err)
		return
	}
	c.JSON(http.StatusOK, link)
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, gallerysvc.ErrGalleryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Gallery not found"})
	case errors.Is(err, gallerysvc.ErrPhotoNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Photo not found"})
	case errors.Is(err, gallery.ErrExpired):
		c.JSON(http.StatusGone, gin.H{"error": "This gallery has expired"})
	case errors.Is(err, gallery.ErrPasswordRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Password required", "requiresPassword": true})
	case errors.Is(err, gallery.ErrInvalidPassword):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password", "requiresPassword": true})
	case errors.Is(err, gallery.ErrInvalidCode):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid access code"})
	case errors.Is(err, gallerysvc.ErrDownloadDisabled):
		c.JSON(http.StatusForbidden, gin.H{"error": "Downloads are disabled for this gallery"})
	default:
		h.log.Error(op, zap.String("slug", c.Param("slug")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
