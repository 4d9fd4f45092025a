package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/BrooksCoder/RegistrationApp/internal/middleware"
	"github.com/BrooksCoder/RegistrationApp/internal/service"
	appErrors "github.com/BrooksCoder/RegistrationApp/pkg/errors"
	"github.com/BrooksCoder/RegistrationApp/pkg/logger"
	corsmiddleware "github.com/BrooksCoder/RegistrationApp/pkg/middleware/cors"
	reqidmiddleware "github.com/BrooksCoder/RegistrationApp/pkg/middleware/requestid"
	"github.com/BrooksCoder/RegistrationApp/pkg/response"
)

// RouterConfig collects everything the HTTP surface is built from. Nil
// handlers leave their routes unregistered.
type RouterConfig struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool

	Logger      *zap.Logger
	Metrics     *service.MetricsService
	Tokens      *middleware.TokenValidator
	RequireAuth bool
	RateLimiter middleware.RateLimiter

	Items         *ItemHandler
	Approvals     *ApprovalHandler
	Analytics     *AnalyticsHandler
	Audit         *AuditHandler
	Notifications *NotificationHandler
	Images        *ImageHandler
	Probes        *MetricsHandler
}

// NewRouter wires middleware and routes onto a fresh engine.
func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(cfg.Metrics))

	if cfg.Probes != nil {
		r.GET("/health", cfg.Probes.Health)
		r.GET("/ready", cfg.Probes.Ready)
		r.GET("/metrics", cfg.Probes.Prometheus)
		r.GET("/metrics/summary", cfg.Probes.Summary)
	}
	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.OptionalJWT(cfg.Tokens))
	api.Use(middleware.RequestMeta())

	mutating := []gin.HandlerFunc{}
	if cfg.RequireAuth {
		mutating = append(mutating, middleware.JWT(cfg.Tokens))
	}
	if cfg.RateLimiter != nil {
		mutating = append(mutating, middleware.RateLimit(cfg.RateLimiter, log))
	}
	write := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, mutating...), h)
	}

	if h := cfg.Items; h != nil {
		items := api.Group("/items")
		items.GET("", h.List)
		items.GET("/status/pending", h.Pending)
		items.GET("/:id", h.Get)
		items.POST("", write(h.Create)...)
		items.PUT("/:id", write(h.Update)...)
		items.DELETE("/:id", write(h.Delete)...)
	}

	if h := cfg.Approvals; h != nil {
		approvals := api.Group("/approvals")
		approvals.GET("/pending", h.Pending)
		approvals.GET("/stats", h.Stats)
		approvals.POST("/:id/approve", write(h.Approve)...)
		approvals.POST("/:id/reject", write(h.Reject)...)
	}

	if h := cfg.Analytics; h != nil {
		analytics := api.Group("/analytics")
		analytics.GET("", h.Report)
		analytics.GET("/overview", h.Overview)
		analytics.GET("/export", h.Export)
	}

	if h := cfg.Audit; h != nil {
		audit := api.Group("/audit")
		audit.GET("", h.Search)
		audit.GET("/:itemId", h.ByItem)
		audit.POST("", write(h.Record)...)
	}

	if h := cfg.Notifications; h != nil {
		notifications := api.Group("/notifications")
		notifications.GET("", h.Recent)
		notifications.GET("/stats", h.Stats)
		notifications.POST("/send", write(h.Send)...)
	}

	if h := cfg.Images; h != nil {
		api.GET("/images/*key", h.Redirect)
		api.GET("/files/:token", h.Download)
	}

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "route not found"))
	})
	return r
}
