package payments

import (
	"context"
	"errors"
	"net/http"

	"studio-app/internal/api/request"
	"studio-app/internal/domain/billing"
	"studio-app/internal/domain/users"
	paymentsvc "studio-app/internal/service/payments"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service interface {
	Plans() []billing.PlanTerms
	Quote(total decimal.Decimal, plan billing.PlanType) (billing.Amounts, error)
	CreateIntent(ctx context.Context, actor users.Actor, in paymentsvc.IntentInput) (*paymentsvc.IntentResult, error)
	History(ctx context.Context, actor users.Actor, sessionID string) ([]billing.PaymentPlan, error)
}

type Handler struct {
	svc Service
	log *zap.Logger
}

func NewHandler(svc Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// GET /payment/plans
func (h *Handler) Plans(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Plans())
}

type quoteRequest struct {
	Total       decimal.Decimal `json:"total"`
	PaymentPlan string          `json:"paymentPlan" binding:"required,plan"`
}

// POST /payment/quote
func (h *Handler) Quote(c *gin.Context) {
	var body quoteRequest
	if !request.JSON(c, &body) {
		return
	}
	if !body.Total.IsPositive() {
		request.FieldInvalid(c, "total", "must be greater than 0")
		return
	}
	amounts, err := h.svc.Quote(body.Total, billing.PlanType(body.PaymentPlan))
	if err != nil {
		h.fail(c, "quote", err)
		return
	}
	c.JSON(http.StatusOK, amounts)
}

type createIntentRequest struct {
	SessionID   string          `json:"sessionId" binding:"required,uuid"`
	PaymentPlan string          `json:"paymentPlan" binding:"required,plan"`
	Amount      decimal.Decimal `json:"amount"`
}

// POST /payment/create-intent
func (h *Handler) CreateIntent(c *gin.Context) {
	var body createIntentRequest
	if !request.JSON(c, &body) {
		return
	}
	if !body.Amount.IsPositive() {
		request.FieldInvalid(c, "amount", "must be greater than 0")
		return
	}

	result, err := h.svc.CreateIntent(c.Request.Context(), request.Actor(c), paymentsvc.IntentInput{
		SessionID: body.SessionID,
		Plan:      billing.PlanType(body.PaymentPlan),
		Amount:    body.Amount,
	})
	if err != nil {
		h.fail(c, "create payment intent", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GET /sessions/:id/payments
func (h *Handler) History(c *gin.Context) {
	plans, err := h.svc.History(c.Request.Context(), request.Actor(c), c.Param("id"))
	if err != nil {
		h.fail(c, "payment history", err)
		return
	}
	if plans == nil {
		plans = []billing.PaymentPlan{}
	}
	c.JSON(http.StatusOK, gin.H{"paymentPlans": plans})
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, paymentsvc.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case errors.Is(err, paymentsvc.ErrNoProvider):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, paymentsvc.ErrAmountMismatch),
		errors.Is(err, paymentsvc.ErrPlanExists),
		errors.Is(err, paymentsvc.ErrSessionClosed),
		errors.Is(err, billing.ErrUnknownPlan):
		h.log.Warn(op, zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error(op, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process payment"})
	}
}
