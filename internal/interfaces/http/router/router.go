// Package router wires the HTTP endpoints to their handlers.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/menohub/backend/internal/interfaces/http/handler"
	"github.com/menohub/backend/internal/interfaces/http/middleware"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
		registrars: make([]RouteRegistrar, 0),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// CommerceRoutes registers the checkout, webhook, and fulfillment endpoints.
type CommerceRoutes struct {
	Checkout    *handler.CheckoutHandler
	Webhook     *handler.WebhookHandler
	Download    *handler.DownloadHandler
	RateLimiter *middleware.RateLimiter
}

// RegisterRoutes implements RouteRegistrar
func (r *CommerceRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	checkout := rg.Group("/checkout")
	if r.RateLimiter != nil {
		checkout.Use(middleware.RateLimit(r.RateLimiter))
	}
	checkout.POST("/cart", r.Checkout.CheckoutCart)

	resources := rg.Group("/resources")
	if r.RateLimiter != nil {
		resources.Use(middleware.RateLimit(r.RateLimiter))
	}
	resources.POST("/:slug/purchase", r.Checkout.PurchaseResource)

	// Provider callbacks are never rate limited; dropping a delivery only
	// delays reconciliation until the provider retries.
	rg.POST("/webhooks/payment", r.Webhook.HandlePaymentWebhook)

	rg.GET("/downloads/:token", r.Download.ServeDownload)
	rg.GET("/orders/:id/status", r.Download.GetOrderStatus)
}
