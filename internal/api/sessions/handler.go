package sessions

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"studio-app/internal/api/request"
	"studio-app/internal/domain/booking"
	"studio-app/internal/domain/users"
	sessionsvc "studio-app/internal/service/sessions"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service interface {
	Availability(ctx context.Context, day time.Time, duration int) ([]string, error)
	Create(ctx context.Context, userID uint, in sessionsvc.CreateInput) (*sessionsvc.Created, error)
	List(ctx context.Context, userID uint) ([]booking.Session, error)
	Get(ctx context.Context, actor users.Actor, id string) (*booking.Session, error)
}

type Handler struct {
	svc Service
	log *zap.Logger
}

func NewHandler(svc Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type availabilityQuery struct {
	Date     string `form:"date" binding:"required,date"`
	Duration int    `form:"duration" binding:"omitempty,min=15,max=480"`
}

type availabilityResponse struct {
	Date           string              `json:"date"`
	AvailableSlots []string            `json:"availableSlots"`
	StudioHours    booking.StudioHours `json:"studioHours"`
}

// GET /availability?date=YYYY-MM-DD&duration=60
func (h *Handler) Availability(c *gin.Context) {
	var q availabilityQuery
	if !request.Query(c, &q) {
		return
	}
	day, _ := booking.ParseDate(q.Date)

	slots, err := h.svc.Availability(c.Request.Context(), day, q.Duration)
	if err != nil {
		h.log.Error("availability", zap.String("date", q.Date), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load availability"})
		return
	}
	if slots == nil {
		slots = []string{}
	}
	c.JSON(http.StatusOK, availabilityResponse{
		Date:           q.Date,
		AvailableSlots: slots,
		StudioHours:    booking.Hours(),
	})
}

type childRequest struct {
	FirstName           string  `json:"firstName" binding:"required,max=100"`
	LastName            string  `json:"lastName" binding:"required,max=100"`
	BirthDate           *string `json:"birthDate" binding:"omitempty,date"`
	PreferredStyle      *string `json:"preferredStyle" binding:"omitempty,max=200"`
	MusicPreferences    *string `json:"musicPreferences" binding:"omitempty,max=1000"`
	StyleNotes          *string `json:"styleNotes" binding:"omitempty,max=1000"`
	SpecialRequirements *string `json:"specialRequirements" binding:"omitempty,max=1000"`
}

type createRequest struct {
	PackageID       string         `json:"packageId" binding:"required,uuid"`
	SessionDate     string         `json:"sessionDate" binding:"required,date"`
	SessionTime     string         `json:"sessionTime" binding:"required,clock"`
	Children        []childRequest `json:"children" binding:"required,min=1,dive"`
	AddonIDs        []string       `json:"addons" binding:"omitempty,dive,uuid"`
	SpecialRequests *string        `json:"specialRequests" binding:"omitempty,max=2000"`
}

func (r createRequest) input() sessionsvc.CreateInput {
	day, _ := booking.ParseDate(r.SessionDate)
	in := sessionsvc.CreateInput{
		PackageID:       r.PackageID,
		Date:            day,
		Time:            r.SessionTime,
		AddonIDs:        r.AddonIDs,
		SpecialRequests: r.SpecialRequests,
	}
	for _, ch := range r.Children {
		ci := sessionsvc.ChildInput{
			FirstName:           strings.TrimSpace(ch.FirstName),
			LastName:            strings.TrimSpace(ch.LastName),
			PreferredStyle:      ch.PreferredStyle,
			MusicPreferences:    ch.MusicPreferences,
			StyleNotes:          ch.StyleNotes,
			SpecialRequirements: ch.SpecialRequirements,
		}
		if ch.BirthDate != nil {
			if d, err := booking.ParseDate(*ch.BirthDate); err == nil {
				ci.BirthDate = &d
			}
		}
		in.Children = append(in.Children, ci)
	}
	return in
}

type createdResponse struct {
	ID            string          `json:"id"`
	SessionNumber string          `json:"sessionNumber"`
	SessionDate   string          `json:"sessionDate"`
	SessionTime   string          `json:"sessionTime"`
	Status        string          `json:"status"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	DepositAmount decimal.Decimal `json:"depositAmount"`
	BalanceDue    decimal.Decimal `json:"balanceDue"`
}

// POST /sessions
func (h *Handler) Create(c *gin.Context) {
	var body createRequest
	if !request.JSON(c, &body) {
		return
	}
	actor := request.Actor(c)

	created, err := h.svc.Create(c.Request.Context(), actor.ID, body.input())
	if err != nil {
		h.fail(c, "create session", err)
		return
	}
	s := created.Session
	c.JSON(http.StatusCreated, createdResponse{
		ID:            s.ID,
		SessionNumber: s.SessionNumber,
		SessionDate:   s.Date().Format(booking.DateLayout),
		SessionTime:   s.SessionTime,
		Status:        s.Status,
		TotalAmount:   created.Quote.Total,
		DepositAmount: created.Quote.Deposit,
		BalanceDue:    created.Quote.Balance,
	})
}

// GET /sessions
func (h *Handler) List(c *gin.Context) {
	actor := request.Actor(c)
	out, err := h.svc.List(c.Request.Context(), actor.ID)
	if err != nil {
		h.fail(c, "list sessions", err)
		return
	}
	if out == nil {
		out = []booking.Session{}
	}
	c.JSON(http.StatusOK, out)
}

// GET /sessions/:id
func (h *Handler) Get(c *gin.Context) {
	session, err := h.svc.Get(c.Request.Context(), request.Actor(c), c.Param("id"))
	if err != nil {
		h.fail(c, "get session", err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, sessionsvc.ErrPackageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Package not found"})
	case errors.Is(err, sessionsvc.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case errors.Is(err, sessionsvc.ErrSlotUnavailable),
		errors.Is(err, sessionsvc.ErrOutsideStudioHours),
		errors.Is(err, sessionsvc.ErrTooManyChildren),
		errors.Is(err, sessionsvc.ErrUnknownAddon),
		errors.Is(err, sessionsvc.ErrDateInPast),
		errors.Is(err, booking.ErrInvalidClock):
		h.log.Warn(op, zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error(op, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
