package bootstrap

import (
	"context"
	"time"

	"github.com/kbukum/authkit/component"
	"github.com/kbukum/authkit/logger"
)

// logSummary logs one line per component and a closing startup line.
func logSummary(ctx context.Context, log *logger.Logger, name, version string, reg *component.Registry, took time.Duration) {
	healthy := 0
	results := reg.HealthAll(ctx)
	for _, h := range results {
		fields := map[string]interface{}{
			logger.FieldComponent: h.Name,
			logger.FieldStatus:    string(h.Status),
		}
		if h.Message != "" {
			fields["message"] = h.Message
		}
		log.Debug("Component health", fields)
		if h.Status != component.StatusUnhealthy {
			healthy++
		}
	}

	log.Info("Application started", map[string]interface{}{
		"name":              name,
		"version":           version,
		"components":        len(results),
		"healthy":           healthy,
		logger.FieldDuration: took.Milliseconds(),
	})
}
