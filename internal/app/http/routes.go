package routes

import (
	"net/http"

	adminapi "studio-app/internal/api/admin"
	authapi "studio-app/internal/api/auth"
	catalogapi "studio-app/internal/api/catalog"
	galleriesapi "studio-app/internal/api/galleries"
	ordersapi "studio-app/internal/api/orders"
	paymentsapi "studio-app/internal/api/payments"
	photosapi "studio-app/internal/api/photos"
	sessionsapi "studio-app/internal/api/sessions"
	stripewebhooks "studio-app/internal/api/stripewebhook"
	usersapi "studio-app/internal/api/users"
	"studio-app/internal/app/http/middleware"
	"studio-app/internal/domain/users"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps carries the handlers and settings the router needs. Photos, Galleries
// and Webhook are nil when their backing service is not configured, and their
// routes are left out.
type Deps struct {
	Auth      *authapi.Handler
	Users     *usersapi.Handler
	Sessions  *sessionsapi.Handler
	Payments  *paymentsapi.Handler
	Webhook   *stripewebhooks.Handler
	Galleries *galleriesapi.Handler
	Photos    *photosapi.Handler
	Catalog   *catalogapi.Handler
	Orders    *ordersapi.Handler
	Admin     *adminapi.Handler

	JWTSecret         string
	GalleryRatePerMin int
	GalleryRateBurst  int
	MetricsGatherer   prometheus.Gatherer
	Log               *zap.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	if d.Webhook != nil {
		r.POST("/webhooks/stripe", d.Webhook.Receive)
	}
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.MetricsGatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.MetricsGatherer, promhttp.HandlerOpts{})))
	}

	public := r.Group("/")
	public.Use(middleware.SanitizeInput())

	public.POST("/auth/register", d.Auth.Register)
	public.POST("/auth/login", d.Auth.Login)
	public.GET("/auth/google", d.Auth.GoogleStart)
	public.GET("/auth/google/callback", d.Auth.GoogleCallback)

	public.GET("/availability", d.Sessions.Availability)
	public.GET("/packages", d.Catalog.Packages)
	public.GET("/products", d.Catalog.Products)
	public.GET("/products/:slug", d.Catalog.Product)
	public.GET("/payment/plans", d.Payments.Plans)
	public.POST("/payment/quote", d.Payments.Quote)

	if d.Galleries != nil {
		limit := middleware.RateLimit(d.GalleryRatePerMin, d.GalleryRateBurst, d.Log)
		public.GET("/galleries/:slug", d.Galleries.Describe)
		public.POST("/galleries/:slug", limit, d.Galleries.Access)
		public.POST("/galleries/:slug/download", limit, d.Galleries.Download)
	}

	// Authenticated
	auth := public.Group("/")
	auth.Use(middleware.Auth(d.JWTSecret))
	auth.GET("/me", d.Users.Me)
	auth.POST("/auth/change-password", d.Auth.ChangePassword)

	auth.POST("/sessions", d.Sessions.Create)
	auth.GET("/sessions", d.Sessions.List)
	auth.GET("/sessions/:id", d.Sessions.Get)
	auth.GET("/sessions/:id/payments", d.Payments.History)
	auth.POST("/payment/create-intent", d.Payments.CreateIntent)

	auth.POST("/orders", d.Orders.Place)
	auth.GET("/orders", d.Orders.List)
	auth.GET("/orders/:id", d.Orders.Get)

	if d.Photos != nil {
		auth.POST("/photos/upload-url", d.Photos.UploadURL)
		auth.POST("/photos/upload-complete", d.Photos.UploadComplete)
	}

	// Admin routes
	admin := auth.Group("/admin")
	admin.Use(middleware.RequireRole(users.RoleAdmin))
	admin.GET("/dashboard", d.Admin.Dashboard)
	admin.GET("/users", d.Admin.ListUsers)
	admin.GET("/users/:id", d.Admin.UserDetails)
	admin.GET("/payments", d.Admin.ListPayments)
	admin.GET("/sessions", d.Admin.ListSessions)
	admin.PATCH("/sessions/:id/status", d.Admin.UpdateSessionStatus)

	if d.Galleries != nil {
		admin.POST("/galleries", d.Admin.CreateGallery)
		admin.GET("/galleries", d.Admin.ListGalleries)
		admin.GET("/galleries/:id/card.pdf", d.Admin.GalleryCard)
	}
}
