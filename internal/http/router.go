package http

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"users-api/internal/ratelimit"
)

const metricsPath = "/metrics"

// RouterConfig collects the collaborators of the HTTP pipeline.
type RouterConfig struct {
	Handler        *Handler
	Limiter        *ratelimit.Limiter
	Stats          *ratelimit.AsyncStats
	Metrics        *Metrics
	Logger         *logrus.Logger
	AllowedOrigins []string
	Development    bool
}

// NewRouter builds the engine: request id, request log, error rendering, panic
// recovery, CORS and rate limiting run in that order ahead of every route.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.New(ratelimit.Config{})
	}

	router := gin.New()
	// client identity is the socket peer; forwarded headers are ignored
	_ = router.SetTrustedProxies(nil)

	router.Use(
		requestIDMiddleware(),
		requestLogMiddleware(cfg.Logger, cfg.Metrics),
		errorMiddleware(cfg.Logger, cfg.Development),
		recoveryMiddleware(),
		corsMiddleware(cfg.AllowedOrigins),
		rateLimitMiddleware(cfg.Limiter, cfg.Stats, cfg.Metrics, map[string]bool{metricsPath: true}),
	)

	if cfg.Metrics != nil {
		router.GET(metricsPath, gin.WrapH(cfg.Metrics.Handler()))
	}
	if cfg.Handler != nil {
		cfg.Handler.RegisterRoutes(router)
	}
	router.NoRoute(notFoundHandler)
	router.NoMethod(notFoundHandler)
	return router
}
