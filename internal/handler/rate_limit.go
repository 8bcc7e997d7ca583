package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/user-auth-service/internal/apperror"
	"github.com/prperemyshlev/user-auth-service/internal/service"
	"go.uber.org/zap"
)

const rateLimitMessage = "So many tries, try again later"

// RateLimitMiddleware limits requests per key. When Redis fails the request passes.
func RateLimitMiddleware(
	rateLimiter *service.RateLimiter,
	limit int,
	window time.Duration,
	keyFunc func(*gin.Context) string,
	errs *ErrorResponder,
	logger *zap.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)

		allowed, err := rateLimiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		if remaining, err := rateLimiter.Remaining(c.Request.Context(), key, limit, window); err == nil {
			c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		}

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			errs.Respond(c, apperror.New(rateLimitMessage, http.StatusTooManyRequests, apperror.ClassRateLimit))
			return
		}

		c.Next()
	}
}

// IPBasedKey uses the client IP as the rate limit key
func IPBasedKey(c *gin.Context) string {
	return c.ClientIP()
}
