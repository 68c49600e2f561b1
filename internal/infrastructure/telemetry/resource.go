// Package telemetry provides OpenTelemetry integration for traces, metrics,
// logs, and continuous profiling.
package telemetry

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// serviceVersion is stamped on every telemetry resource.
const serviceVersion = "1.0.0"

// providerShutdownTimeout bounds how long each provider may spend flushing
// pending data on shutdown.
const providerShutdownTimeout = 10 * time.Second

// serviceResource builds the resource shared by the trace, metric, and log
// providers. All three signals must carry the same service identity so the
// collector can correlate them.
func serviceResource(serviceName string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}
