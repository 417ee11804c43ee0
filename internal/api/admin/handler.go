package admin

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"studio-app/internal/domain/booking"
	"studio-app/internal/domain/gallery"
	"studio-app/internal/domain/users"
	gallerysvc "studio-app/internal/service/galleries"
	"studio-app/internal/service/reports"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Reports interface {
	Stats(ctx context.Context) (*reports.Stats, error)
	Users(ctx context.Context) ([]users.User, error)
	Payments(ctx context.Context, limit int) ([]reports.PaymentRow, error)
	Customer(ctx context.Context, id uint) (*reports.Customer, error)
}

type Sessions interface {
	ListAll(ctx context.Context, day *time.Time) ([]booking.Session, error)
	UpdateStatus(ctx context.Context, id, status string) (*booking.Session, error)
}

type Galleries interface {
	Create(ctx context.Context, in gallerysvc.CreateInput) (*gallerysvc.Created, error)
	List(ctx context.Context) ([]gallery.Gallery, error)
	Card(ctx context.Context, id string) ([]byte, error)
}

type Handler struct {
	reports   Reports
	sessions  Sessions
	galleries Galleries
	log       *zap.Logger
}

func NewHandler(r Reports, s Sessions, g Galleries, log *zap.Logger) *Handler {
	return &Handler{reports: r, sessions: s, galleries: g, log: log}
}

type adminUser struct {
	ID               uint   `json:"id"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Phone            string `json:"phone"`
	Email            string `json:"email"`
	Role             string `json:"role"`
	AuthProvider     string `json:"authProvider"`
	MarketingConsent bool   `json:"marketingConsent"`
	CreatedAt        string `json:"createdAt"`
}

func toAdminUser(u users.User) adminUser {
	return adminUser{
		ID:               u.ID,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Phone:            u.Phone,
		Email:            u.Email,
		Role:             u.Role,
		AuthProvider:     u.AuthProvider,
		MarketingConsent: u.MarketingConsent,
		CreatedAt:        u.CreatedAt.Format("2006-01-02 15:04"),
	}
}

// GET /admin/dashboard
func (h *Handler) Dashboard(c *gin.Context) {
	stats, err := h.reports.Stats(c.Request.Context())
	if err != nil {
		h.log.Error("admin stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GET /admin/users
func (h *Handler) ListUsers(c *gin.Context) {
	list, err := h.reports.Users(c.Request.Context())
	if err != nil {
		h.log.Error("admin users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load users"})
		return
	}
	out := make([]adminUser, 0, len(list))
	for _, u := range list {
		out = append(out, toAdminUser(u))
	}
	c.JSON(http.StatusOK, out)
}

// GET /admin/payments?limit=100
func (h *Handler) ListPayments(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	rows, err := h.reports.Payments(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("admin payments", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payments"})
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GET /admin/users/:id
func (h *Handler) UserDetails(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}
	customer, err := h.reports.Customer(c.Request.Context(), uint(id))
	if errors.Is(err, reports.ErrCustomerNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		h.log.Error("admin user details", zap.Uint64("user_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":     toAdminUser(customer.User),
		"sessions": customer.Sessions,
	})
}
