package observability

import (
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
)

// ServiceInfo identifies the process in exported telemetry.
type ServiceInfo struct {
	Name        string
	Version     string
	Environment string
}

// NewResource merges the SDK defaults with service metadata. The semconv
// version must match the schema of resource.Default, or Merge fails.
func NewResource(info ServiceInfo) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(info.Name),
			semconv.ServiceVersion(info.Version),
			semconv.DeploymentEnvironmentName(info.Environment),
		),
	)
}
