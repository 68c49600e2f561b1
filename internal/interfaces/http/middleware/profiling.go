// Package middleware provides HTTP middleware for the shop floor API.
package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shopfloor/backend/internal/infrastructure/telemetry"
)

// ProfilingConfig holds configuration for the profiling middleware.
type ProfilingConfig struct {
	// Enabled controls whether profiling labels are added to requests.
	Enabled bool
	// SkipPaths are exact paths that get no labels (health checks, probes).
	SkipPaths []string
	// SkipPathPrefixes are path prefixes that get no labels.
	SkipPathPrefixes []string
}

// DefaultProfilingConfig returns default profiling middleware configuration.
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled: true,
		SkipPaths: []string{
			"/health",
			"/healthz",
			"/ready",
			"/metrics",
		},
		SkipPathPrefixes: []string{
			"/swagger",
			"/api-docs",
		},
	}
}

// skip reports whether a request path is excluded from labeling.
func (cfg ProfilingConfig) skip(path string) bool {
	for _, p := range cfg.SkipPaths {
		if path == p {
			return true
		}
	}
	for _, prefix := range cfg.SkipPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Profiling returns profiling middleware with default configuration. It
// attaches Pyroscope labels to the request context so CPU and allocation
// profiles can be sliced by route, method, and controller.
func Profiling() gin.HandlerFunc {
	return ProfilingWithConfig(DefaultProfilingConfig())
}

// ProfilingWithConfig returns profiling middleware with custom configuration.
func ProfilingWithConfig(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		if cfg.skip(c.Request.URL.Path) {
			c.Next()
			return
		}

		telemetry.WithProfilingLabels(c.Request.Context(), requestLabels(c), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// requestLabels derives the label set for one request. Only the matched
// route pattern is used, never the raw path, so cardinality stays bounded.
func requestLabels(c *gin.Context) map[string]string {
	labels := make(map[string]string, 3)

	if method := c.Request.Method; method != "" {
		labels[telemetry.ProfilingLabelMethod] = method
	}

	// FullPath is empty for unmatched routes; those stay unlabeled
	route := c.FullPath()
	if route != "" {
		labels[telemetry.ProfilingLabelRoute] = route
	}
	if controller := controllerFromRoute(route); controller != "" {
		labels[telemetry.ProfilingLabelController] = controller
	}

	return labels
}

// controllerFromRoute names the resource a route serves: the first path
// segment past the API version prefix.
//
//	/api/v1/partners/:id               -> partners
//	/api/v1/outwork/moves/:id/receipts -> outwork
//	/api/v1/dashboard/scoreboard       -> dashboard
func controllerFromRoute(route string) string {
	for _, segment := range strings.Split(route, "/") {
		if segment == "" || segment == "api" || isVersionSegment(segment) {
			continue
		}
		if strings.HasPrefix(segment, ":") || strings.HasPrefix(segment, "*") {
			continue
		}
		return segment
	}
	return ""
}

// isVersionSegment reports whether a path segment is an API version ("v1").
func isVersionSegment(segment string) bool {
	if len(segment) < 2 || (segment[0] != 'v' && segment[0] != 'V') {
		return false
	}
	for i := 1; i < len(segment); i++ {
		if segment[i] < '0' || segment[i] > '9' {
			return false
		}
	}
	return true
}
