package observability

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Auth attempt outcomes
const (
	AuthSuccess         = "success"
	AuthInvalidPassword = "invalid_password"
	AuthInvalidInput    = "invalid_input"
)

// Metrics holds the service counters. A nil *Metrics records nothing.
type Metrics struct {
	httpErrors   metric.Int64Counter
	authAttempts metric.Int64Counter
}

// NewMetrics registers the service instruments on the provider
func NewMetrics(provider metric.MeterProvider, serviceName string) (*Metrics, error) {
	meter := provider.Meter(serviceName)

	httpErrors, err := meter.Int64Counter("http_errors_total",
		metric.WithDescription("Classified error responses by status code and class"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_errors_total: %w", err)
	}

	authAttempts, err := meter.Int64Counter("auth_attempts_total",
		metric.WithDescription("Password authentication attempts by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth_attempts_total: %w", err)
	}

	return &Metrics{httpErrors: httpErrors, authAttempts: authAttempts}, nil
}

func (m *Metrics) RecordHTTPError(ctx context.Context, code int, classError string) {
	if m == nil {
		return
	}
	m.httpErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("code", strconv.Itoa(code)),
		attribute.String("class_error", classError),
	))
}

func (m *Metrics) RecordAuthAttempt(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.authAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// PrometheusHandler returns a Gin handler for Prometheus metrics
func PrometheusHandler(handler http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if handler == nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "metrics handler not initialized",
			})
			return
		}
		handler.ServeHTTP(c.Writer, c.Request)
	}
}
