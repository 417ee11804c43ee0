package stripewebhooks

import (
	"context"
	"io"
	"net/http"

	"studio-app/internal/service/payments"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxPayloadBytes = 65536

// Parser verifies the Stripe-Signature header and decodes the event.
type Parser interface {
	Parse(payload []byte, signature string) (payments.Event, error)
}

type EventHandler interface {
	HandleEvent(ctx context.Context, ev payments.Event) (payments.Outcome, error)
}

type Handler struct {
	parser Parser
	events EventHandler
	log    *zap.Logger
}

func NewHandler(parser Parser, events EventHandler, log *zap.Logger) *Handler {
	return &Handler{parser: parser, events: events, log: log}
}

// POST /webhooks/stripe
//
// Signature failures get a 400 and change nothing. A 500 tells Stripe to
// retry; everything that was applied, ignored or unmatched is acknowledged.
func (h *Handler) Receive(c *gin.Context) {
	payload, err := readStripeBody(c, maxPayloadBytes)
	if err != nil {
		h.log.Warn("stripe webhook body", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
		return
	}

	event, err := h.parser.Parse(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.log.Warn("stripe webhook rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
		return
	}

	outcome, err := h.events.HandleEvent(c.Request.Context(), event)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook processing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "outcome": outcome})
}

func readStripeBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
