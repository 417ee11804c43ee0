package admin

import (
	"errors"
	"net/http"
	"time"

	"studio-app/internal/api/request"
	"studio-app/internal/domain/booking"
	sessionsvc "studio-app/internal/service/sessions"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type sessionsQuery struct {
	Date string `form:"date" binding:"omitempty,date"`
}

// GET /admin/sessions?date=YYYY-MM-DD
func (h *Handler) ListSessions(c *gin.Context) {
	var q sessionsQuery
	if !request.Query(c, &q) {
		return
	}
	var day *time.Time
	if q.Date != "" {
		d, _ := booking.ParseDate(q.Date)
		day = &d
	}

	list, err := h.sessions.ListAll(c.Request.Context(), day)
	if err != nil {
		h.log.Error("admin sessions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load sessions"})
		return
	}
	if list == nil {
		list = []booking.Session{}
	}
	c.JSON(http.StatusOK, list)
}

type statusRequest struct {
	Status string `json:"status" binding:"required,oneof=booked confirmed in_progress completed cancelled"`
}

// PATCH /admin/sessions/:id/status
func (h *Handler) UpdateSessionStatus(c *gin.Context) {
	var body statusRequest
	if !request.JSON(c, &body) {
		return
	}
	id := c.Param("id")

	session, err := h.sessions.UpdateStatus(c.Request.Context(), id, body.Status)
	switch {
	case errors.Is(err, sessionsvc.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case errors.Is(err, sessionsvc.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		h.log.Error("update session status", zap.String("session_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update session"})
	default:
		c.JSON(http.StatusOK, session)
	}
}
