package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authkit/component"
)

// HealthChecker returns health status for registered components.
type HealthChecker func(ctx context.Context) []component.Health

type probeResponse struct {
	Status     string             `json:"status"`
	Service    string             `json:"service"`
	Timestamp  string             `json:"timestamp"`
	Components []component.Health `json:"components,omitempty"`
	Failing    []string           `json:"failing,omitempty"`
}

func newProbe(serviceName, status string) probeResponse {
	return probeResponse{
		Status:    status,
		Service:   serviceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// failing names the unhealthy components. Disabled ones never fail a probe.
func failing(components []component.Health) []string {
	var names []string
	for _, h := range components {
		if h.Status == component.StatusUnhealthy {
			names = append(names, h.Name)
		}
	}
	return names
}

func check(ctx context.Context, checker HealthChecker) []component.Health {
	if checker == nil {
		return nil
	}
	return checker(ctx)
}

// Health reports every component with its status; 503 when any is unhealthy.
func Health(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		components := check(c.Request.Context(), checker)
		body := newProbe(serviceName, "healthy")
		body.Components = components
		code := http.StatusOK
		if len(failing(components)) > 0 {
			body.Status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, body)
	}
}

// Liveness only confirms the process still serves HTTP.
func Liveness(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, newProbe(serviceName, "alive"))
	}
}

// Readiness reports whether the stores requests depend on are reachable.
// Failing components are named in the response.
func Readiness(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := newProbe(serviceName, "ready")
		code := http.StatusOK
		if body.Failing = failing(check(c.Request.Context(), checker)); len(body.Failing) > 0 {
			body.Status = "not_ready"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, body)
	}
}
