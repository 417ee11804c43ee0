package catalog

import (
	"context"
	"errors"
	"net/http"

	"studio-app/internal/api/request"
	"studio-app/internal/domain/booking"
	"studio-app/internal/domain/shop"
	catalogsvc "studio-app/internal/service/catalog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Service interface {
	Packages(ctx context.Context) ([]booking.Package, error)
	Products(ctx context.Context, filter catalogsvc.ProductFilter) ([]shop.Product, error)
	Product(ctx context.Context, slug string) (*shop.Product, error)
}

type Handler struct {
	svc Service
	log *zap.Logger
}

func NewHandler(svc Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// GET /packages
func (h *Handler) Packages(c *gin.Context) {
	out, err := h.svc.Packages(c.Request.Context())
	if err != nil {
		h.log.Error("list packages", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load packages"})
		return
	}
	c.JSON(http.StatusOK, out)
}

type productsQuery struct {
	Category string `form:"category" binding:"max=50"`
	Featured bool   `form:"featured"`
}

// GET /products?category=prints&featured=true
func (h *Handler) Products(c *gin.Context) {
	var q productsQuery
	if !request.Query(c, &q) {
		return
	}
	out, err := h.svc.Products(c.Request.Context(), catalogsvc.ProductFilter{Category: q.Category, FeaturedOnly: q.Featured})
	if err != nil {
		h.log.Error("list products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load products"})
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /products/:slug
func (h *Handler) Product(c *gin.Context) {
	p, err := h.svc.Product(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, catalogsvc.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		h.log.Error("get product", zap.String("slug", c.Param("slug")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load product"})
		return
	}
	c.JSON(http.StatusOK, p)
}
