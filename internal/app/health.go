package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is a dependency the health check reaches
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthChecker struct {
	deps map[string]Pinger
}

func NewHealthChecker(deps map[string]Pinger) *HealthChecker {
	return &HealthChecker{deps: deps}
}

// check pings every dependency concurrently
func (h *HealthChecker) check(ctx context.Context) map[string]error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	type result struct {
		name string
		err  error
	}
	results := make(chan result, len(h.deps))
	for name, dep := range h.deps {
		go func() {
			results <- result{name: name, err: dep.Ping(ctx)}
		}()
	}

	out := make(map[string]error, len(h.deps))
	for range h.deps {
		r := <-results
		out[r.name] = r.err
	}
	return out
}

func (h *HealthChecker) Handler(c *gin.Context) {
	results := h.check(c.Request.Context())

	checks := make(gin.H, len(results))
	var failed []error
	for name, err := range results {
		if err != nil {
			checks[name] = err.Error()
			failed = append(failed, err)
			continue
		}
		checks[name] = "pass"
	}

	if err := errors.Join(failed...); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "fail",
			"checks": checks,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "pass",
		"checks": checks,
	})
}
