package admin

import (
	"errors"
	"net/http"

	"studio-app/internal/api/request"
	"studio-app/internal/domain/gallery"
	gallerysvc "studio-app/internal/service/galleries"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type createGalleryRequest struct {
	SessionID          string `json:"sessionId" binding:"required,uuid"`
	Name               string `json:"name" binding:"required,max=200"`
	PasswordProtected  bool   `json:"passwordProtected"`
	Password           string `json:"password" binding:"omitempty,max=100"`
	PublicShareEnabled *bool  `json:"publicShareEnabled"`
	DownloadEnabled    *bool  `json:"downloadEnabled"`
	SocialShareEnabled *bool  `json:"socialShareEnabled"`
	WatermarkEnabled   *bool  `json:"watermarkEnabled"`
	ExpiryDays         int    `json:"expiryDays" binding:"omitempty,min=1,max=365"`
}

func flag(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// POST /admin/galleries
func (h *Handler) CreateGallery(c *gin.Context) {
	var body createGalleryRequest
	if !request.JSON(c, &body) {
		return
	}

	created, err := h.galleries.Create(c.Request.Context(), gallerysvc.CreateInput{
		SessionID:          body.SessionID,
		Name:               body.Name,
		PasswordProtected:  body.PasswordProtected,
		Password:           body.Password,
		PublicShareEnabled: flag(body.PublicShareEnabled, false),
		DownloadEnabled:    flag(body.DownloadEnabled, true),
		SocialShareEnabled: flag(body.SocialShareEnabled, true),
		WatermarkEnabled:   flag(body.WatermarkEnabled, true),
		ExpiryDays:         body.ExpiryDays,
	})
	switch {
	case errors.Is(err, gallerysvc.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case errors.Is(err, gallerysvc.ErrSessionNotCompleted),
		errors.Is(err, gallerysvc.ErrGalleryExists),
		errors.Is(err, gallerysvc.ErrPasswordMissing):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		h.log.Error("create gallery", zap.String("session_id", body.SessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create gallery"})
	default:
		c.JSON(http.StatusCreated, created)
	}
}

// GET /admin/galleries
func (h *Handler) ListGalleries(c *gin.Context) {
	list, err := h.galleries.List(c.Request.Context())
	if err != nil {
		h.log.Error("admin galleries", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load galleries"})
		return
	}
	if list == nil {
		list = []gallery.Gallery{}
	}
	c.JSON(http.StatusOK, list)
}

// GET /admin/galleries/:id/card.pdf
func (h *Handler) GalleryCard(c *gin.Context) {
	id := c.Param("id")
	pdf, err := h.galleries.Card(c.Request.Context(), id)
	if errors.Is(err, gallerysvc.ErrGalleryNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Gallery not found"})
		return
	}
	if err != nil {
		h.log.Error("gallery card", zap.String("gallery_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render card"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="gallery-card.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
