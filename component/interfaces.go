package component

import "context"

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDisabled  HealthStatus = "disabled"
)

// Health holds health information for a component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a lifecycle-managed piece of infrastructure.
type Component interface {
	// Name returns the unique name of the component for registration.
	Name() string

	// Start initializes the component. Background work must stop when Stop is called.
	Start(ctx context.Context) error

	// Stop releases resources. It must be safe to call on a component whose
	// Start failed.
	Stop(ctx context.Context) error

	// Health reports the current health status.
	Health(ctx context.Context) Health
}
