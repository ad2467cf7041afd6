package http

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"users-api/internal/apperror"
	"users-api/internal/ratelimit"
)

const (
	headerRequestID      = "X-Request-Id"
	headerRateLimitLimit = "X-RateLimit-Limit"
	headerRetryAfter     = "Retry-After"

	ctxKeyRequestID = "request_id"

	anonymousUser      = "anonymous"
	rateLimitedMessage = "too many requests, please try again later"
)

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(ctxKeyRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

func requestLogMiddleware(logger *logrus.Logger, metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.recordRequest(c.Request.Method, route, status, latency)

		entry := logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency_ms": latency.Milliseconds(),
			"ip":         c.ClientIP(),
			"request_id": c.GetString(ctxKeyRequestID),
		})
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request completed")
		case status >= http.StatusBadRequest:
			entry.Warn("request completed")
		default:
			entry.Info("request completed")
		}
	}
}

type errorResponse struct {
	Message string                `json:"message"`
	Status  int                   `json:"status"`
	Error   string                `json:"error,omitempty"`
	Errors  []apperror.FieldError `json:"errors,omitempty"`
	Stack   string                `json:"stack,omitempty"`
	Details any                   `json:"details,omitempty"`
}

// errorMiddleware renders the last error attached to the context. Handlers never
// write error bodies themselves.
func errorMiddleware(logger *logrus.Logger, development bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 {
			return
		}

		appErr := apperror.From(c.Errors.Last().Err)
		status := appErr.Status()

		entry := logger.WithFields(logrus.Fields{
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
			"ip":         c.ClientIP(),
			"user":       anonymousUser,
			"status":     status,
			"request_id": c.GetString(ctxKeyRequestID),
		})
		if cause := appErr.CauseText(); cause != "" {
			entry = entry.WithField("error", cause)
		}
		if status >= http.StatusInternalServerError {
			entry.WithField("stack", appErr.Stack()).Error(appErr.Message)
		} else {
			entry.Warn(appErr.Message)
		}

		if c.Writer.Written() {
			return
		}
		resp := errorResponse{
			Message: appErr.Message,
			Status:  status,
			Errors:  appErr.Fields,
		}
		// internal failures keep their cause out of production responses
		if appErr.Kind == apperror.KindPersistence || development {
			resp.Error = appErr.CauseText()
		}
		if development {
			resp.Stack = appErr.Stack()
			if appErr.Details != nil {
				resp.Details = appErr.Details
			} else {
				resp.Details = map[string]any{}
			}
		}
		c.AbortWithStatusJSON(status, resp)
	}
}

// recoveryMiddleware turns a panic into an internal error for errorMiddleware.
func recoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		_ = c.Error(apperror.Internal(fmt.Errorf("panic: %v", recovered)))
		c.Abort()
	})
}

func notFoundHandler(c *gin.Context) {
	_ = c.Error(apperror.RouteNotFound(c.Request.URL.RequestURI()))
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	policy := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With"},
		ExposedHeaders:   []string{"Content-Length", headerRateLimitLimit},
		AllowCredentials: true,
		MaxAge:           86400,
	})
	return func(c *gin.Context) {
		policy.HandlerFunc(c.Writer, c.Request)
		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			// preflight answered by the policy
			c.Abort()
			return
		}
		c.Next()
	}
}

func rateLimitMiddleware(limiter *ratelimit.Limiter, stats *ratelimit.AsyncStats, metrics *Metrics, skip map[string]bool) gin.HandlerFunc {
	window := int(math.Ceil(limiter.Window().Seconds()))
	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		key := c.ClientIP()
		decision := limiter.Allow(key)
		c.Header(headerRateLimitLimit, strconv.Itoa(limiter.Max()))

		stats.Submit(ratelimit.Event{
			Key:     key,
			Allowed: decision.Allowed,
			Method:  c.Request.Method,
			Path:    c.Request.URL.Path,
			At:      time.Now(),
		})

		if decision.Allowed {
			c.Next()
			return
		}

		metrics.recordRateLimitHit()
		retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
		retryAfter = min(max(retryAfter, 1), window)
		c.Header(headerRetryAfter, strconv.Itoa(retryAfter))
		_ = c.Error(apperror.RateLimited(rateLimitedMessage))
		c.Abort()
	}
}
