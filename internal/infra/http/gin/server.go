package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"staycal/internal/infra/config"
	"staycal/internal/infra/obs"
)

type AvailabilityHTTP interface {
	Calendar(c *gin.Context)
	Quote(c *gin.Context)
}

type BookingHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	List(c *gin.Context)
	ChangeStatus(c *gin.Context)
	ConfirmPayment(c *gin.Context)
	Delete(c *gin.Context)
}

type BlockHTTP interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Delete(c *gin.Context)
}

type CalendarHTTP interface {
	Sync(c *gin.Context)
	SyncScheduled(c *gin.Context)
	Records(c *gin.Context)
}

type MaintenanceHTTP interface {
	Cleanup(c *gin.Context)
}

type Handlers struct {
	Availability AvailabilityHTTP
	Booking      BookingHTTP
	Blocks       BlockHTTP
	Calendar     CalendarHTTP
	Maintenance  MaintenanceHTTP
	Metrics      http.Handler
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.App.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           NewRouter(cfg.HTTP.AllowedOrigins, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter wires middleware and routes without touching the global gin mode.
func NewRouter(origins []string, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(corsConfig(origins)))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)
	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics))
	}

	api := router.Group("/api/v1")
	if h.Availability != nil {
		api.GET("/availability", h.Availability.Calendar)
		api.GET("/quote", h.Availability.Quote)
	}
	if h.Booking != nil {
		group := api.Group("/bookings")
		group.POST("", h.Booking.Create)
		group.GET("", h.Booking.List)
		group.GET("/:id", h.Booking.Get)
		group.PATCH("/:id/status", h.Booking.ChangeStatus)
		group.POST("/:id/payment", h.Booking.ConfirmPayment)
		group.DELETE("/:id", h.Booking.Delete)
	}
	if h.Blocks != nil {
		group := api.Group("/blocks")
		group.GET("", h.Blocks.List)
		group.POST("", h.Blocks.Create)
		group.DELETE("/:id", h.Blocks.Delete)
	}
	if h.Calendar != nil {
		group := api.Group("/calendar/sync")
		group.POST("", h.Calendar.Sync)
		group.POST("/scheduled", h.Calendar.SyncScheduled)
		group.GET("", h.Calendar.Records)
	}
	if h.Maintenance != nil {
		api.POST("/maintenance/cleanup", h.Maintenance.Cleanup)
	}
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
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
