package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/infra/config"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/infra/obs"
)

type OrderHTTP interface {
	CheckAvailability(c *gin.Context)
	Checkout(c *gin.Context)
	FeeBreakdown(c *gin.Context)
	MyOrders(c *gin.Context)
	OwnerOrders(c *gin.Context)
	Cancel(c *gin.Context)
	UpdateStatus(c *gin.Context)
}

type AdminHTTP interface {
	ListOrders(c *gin.Context)
	UpdateStatus(c *gin.Context)
	BatchUpdate(c *gin.Context)
}

type CartHTTP interface {
	Get(c *gin.Context)
	Add(c *gin.Context)
	Clear(c *gin.Context)
	UpdateItem(c *gin.Context)
	RemoveItem(c *gin.Context)
}

type NotificationHTTP interface {
	List(c *gin.Context)
	UnreadCount(c *gin.Context)
	MarkRead(c *gin.Context)
	MarkAllRead(c *gin.Context)
	Delete(c *gin.Context)
}

type ListingHTTP interface {
	Search(c *gin.Context)
	Get(c *gin.Context)
}

type Handlers struct {
	Orders         OrderHTTP
	Admin          AdminHTTP
	Cart           CartHTTP
	Notifications  NotificationHTTP
	Listings       ListingHTTP
	AuthMiddleware gin.HandlerFunc
}

// NewRouter builds the gin engine with every route group that has a handler.
func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.AccessLog())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Orders != nil {
		orders := api.Group("/orders")
		orders.POST("/check-availability", h.Orders.CheckAvailability)
		orders.POST("/payment", h.Orders.Checkout)
		orders.POST("/fee-breakdown", h.Orders.FeeBreakdown)
		orders.GET("/my-orders", h.Orders.MyOrders)
		orders.GET("/owner-orders", h.Orders.OwnerOrders)
		orders.PUT("/:id/cancel", h.Orders.Cancel)
		orders.PUT("/:id/status", h.Orders.UpdateStatus)
	}
	if h.Admin != nil {
		admin := api.Group("/admin/orders")
		admin.GET("", h.Admin.ListOrders)
		admin.PUT("/batch", h.Admin.BatchUpdate)
		admin.POST("/batch-update", h.Admin.BatchUpdate)
		admin.PUT("/:id/status", h.Admin.UpdateStatus)
	}
	if h.Cart != nil {
		api.GET("/cart", h.Cart.Get)
		api.POST("/cart", h.Cart.Add)
		api.DELETE("/cart", h.Cart.Clear)
		api.PUT("/cart/:itemId", h.Cart.UpdateItem)
		api.DELETE("/cart/:itemId", h.Cart.RemoveItem)
	}
	if h.Notifications != nil {
		n := api.Group("/notifications")
		n.GET("", h.Notifications.List)
		n.GET("/unread-count", h.Notifications.UnreadCount)
		n.PUT("/mark-all-read", h.Notifications.MarkAllRead)
		n.PUT("/:id/read", h.Notifications.MarkRead)
		n.DELETE("/:id", h.Notifications.Delete)
	}
	if h.Listings != nil {
		api.GET("/listings", h.Listings.Search)
		api.GET("/listings/:id", h.Listings.Get)
	}
	return router
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{"Content-Length", "Content-Type", obs.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
