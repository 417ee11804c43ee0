package orders

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"studio-app/internal/api/request"
	"studio-app/internal/domain/shop"
	"studio-app/internal/domain/users"
	ordersvc "studio-app/internal/service/orders"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Service interface {
	Place(ctx context.Context, actor users.Actor, in ordersvc.PlaceInput) (*shop.Order, error)
	List(ctx context.Context, actor users.Actor) ([]shop.Order, error)
	Get(ctx context.Context, actor users.Actor, id string) (*shop.Order, error)
}

type Handler struct {
	svc Service
	log *zap.Logger
}

func NewHandler(svc Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type itemRequest struct {
	ProductVariantID  string          `json:"productVariantId" binding:"required,uuid"`
	Quantity          int             `json:"quantity" binding:"required,min=1,max=100"`
	PhotoID           *string         `json:"photoId" binding:"omitempty,uuid"`
	CustomizationData json.RawMessage `json:"customizationData"`
}

type placeRequest struct {
	Items           []itemRequest   `json:"items" binding:"required,min=1,max=50,dive"`
	ShippingAddress json.RawMessage `json:"shippingAddress" binding:"required"`
	BillingAddress  json.RawMessage `json:"billingAddress"`
	Notes           *string         `json:"notes" binding:"omitempty,max=1000"`
}

// POST /orders
func (h *Handler) Place(c *gin.Context) {
	var body placeRequest
	if !request.JSON(c, &body) {
		return
	}
	lines := make([]ordersvc.Line, len(body.Items))
	for i, it := range body.Items {
		lines[i] = ordersvc.Line{
			VariantID:     it.ProductVariantID,
			Quantity:      it.Quantity,
			PhotoID:       it.PhotoID,
			Customization: it.CustomizationData,
		}
	}

	order, err := h.svc.Place(c.Request.Context(), request.Actor(c), ordersvc.PlaceInput{
		Lines:           lines,
		ShippingAddress: body.ShippingAddress,
		BillingAddress:  body.BillingAddress,
		Notes:           body.Notes,
	})
	if err != nil {
		h.fail(c, "place order", err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GET /orders
func (h *Handler) List(c *gin.Context) {
	out, err := h.svc.List(c.Request.Context(), request.Actor(c))
	if err != nil {
		h.fail(c, "list orders", err)
		return
	}
	if out == nil {
		out = []shop.Order{}
	}
	c.JSON(http.StatusOK, out)
}

// GET /orders/:id
func (h *Handler) Get(c *gin.Context) {
	order, err := h.svc.Get(c.Request.Context(), request.Actor(c), c.Param("id"))
	if err != nil {
		h.fail(c, "get order", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, ordersvc.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.Is(err, shop.ErrEmptyOrder),
		errors.Is(err, shop.ErrBadQuantity),
		errors.Is(err, shop.ErrUnknownVariant):
		h.log.Warn(op, zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error(op, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
