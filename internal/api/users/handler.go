package users

import (
	"context"
	"errors"
	"net/http"
	"time"

	"studio-app/internal/api/request"
	"studio-app/internal/domain/users"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Store interface {
	FindUserByID(ctx context.Context, id uint) (*users.User, error)
	Activity(ctx context.Context, id uint, today time.Time) (users.Activity, error)
}

type Handler struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

func NewHandler(store Store, log *zap.Logger) *Handler {
	return &Handler{store: store, log: log, now: time.Now}
}

// GET /me
func (h *Handler) Me(c *gin.Context) {
	actor := request.Actor(c)
	if actor.ID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.store.FindUserByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.log.Error("load current user", zap.Uint("user_id", actor.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}
	activity, err := h.store.Activity(ctx, user.ID, h.now())
	if err != nil {
		h.log.Error("load user activity", zap.Uint("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}

	c.JSON(http.StatusOK, MeResponse{User: buildUserDTO(*user), Activity: activity})
}
