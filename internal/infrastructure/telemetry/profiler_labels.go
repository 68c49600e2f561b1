// Package telemetry provides Pyroscope continuous profiling integration.
package telemetry

import (
	"context"
	"maps"
	"runtime/pprof"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Label keys understood by the profiling dashboards. Keys are snake_case and
// values must stay low-cardinality; sanitizedPairs enforces both.
const (
	// ProfilingLabelController is the label key for the handler/controller name.
	ProfilingLabelController = "controller"
	// ProfilingLabelRoute is the label key for the route pattern.
	ProfilingLabelRoute = "route"
	// ProfilingLabelMethod is the label key for the HTTP method.
	ProfilingLabelMethod = "method"
	// ProfilingLabelProcessType is the label key for the outwork process type.
	ProfilingLabelProcessType = "process_type"
	// ProfilingLabelOperation is the label key for the operation name.
	ProfilingLabelOperation = "operation"
	// ProfilingLabelRegion is the label key for code regions (e.g., "db_query", "object_storage").
	ProfilingLabelRegion = "region"
)

// Operation label values for the outwork hot paths.
const (
	OperationCreateMove    = "create_move"
	OperationRecordReceipt = "record_receipt"
	OperationScoreboard    = "scoreboard"
)

// MaxLabelValueLength caps label values. Longer values are truncated before
// they reach the profiler.
const MaxLabelValueLength = 128

// HighCardinalityLabels lists label keys that sanitizedPairs drops outright.
// Per-entity identifiers grow without bound and would explode the series
// count in Pyroscope. partner_id is deliberately absent: a factory works
// with a bounded set of processing partners.
//
// WARNING: Do not modify this map at runtime.
var HighCardinalityLabels = map[string]bool{
	"user_id":    true,
	"request_id": true,
	"move_id":    true,
	"receipt_id": true,
	"trace_id":   true,
	"span_id":    true,
	"session_id": true,
}

// WithProfilingLabels runs fn under the given Pyroscope labels. Labels are
// sanitized first; if none survive, fn runs unlabeled. The input map is
// copied before use, so callers may reuse or mutate it afterwards.
//
// Example:
//
//	telemetry.WithProfilingLabels(ctx, telemetry.OutworkOperationLabels(
//	    telemetry.OperationRecordReceipt, "plating",
//	), func(c context.Context) {
//	    applyReceipt(c)
//	})
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizedPairs(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// WithPprofLabels is the same wrapper built on Go's native pprof label API.
// pyroscope.TagWrapper and pprof.Do produce identical label behavior; use
// this variant when profiles are consumed by standard Go tooling rather
// than the Pyroscope SDK.
func WithPprofLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizedPairs(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pprof.Do(ctx, pprof.Labels(pairs...), fn)
}

// OutworkOperationLabels builds the label set for an outwork service
// operation. processType may be empty for operations that span process types.
func OutworkOperationLabels(operation, processType string) map[string]string {
	labels := map[string]string{ProfilingLabelOperation: operation}
	if processType != "" {
		labels[ProfilingLabelProcessType] = processType
	}
	return labels
}

// RegionLabels tags a code region such as "db_query" or "object_storage"
// inside an already labeled operation.
func RegionLabels(region string, extra map[string]string) map[string]string {
	labels := make(map[string]string, len(extra)+1)
	labels[ProfilingLabelRegion] = region
	maps.Copy(labels, extra)
	return labels
}

// ProfilingScope accumulates labels across call layers before running a
// function under them.
type ProfilingScope struct {
	labels map[string]string
}

// NewProfilingScope seeds a scope with an initial label set; nil is fine.
func NewProfilingScope(labels map[string]string) *ProfilingScope {
	s := &ProfilingScope{labels: make(map[string]string, len(labels))}
	maps.Copy(s.labels, labels)
	return s
}

// WithLabel adds one label and returns the scope for chaining.
func (s *ProfilingScope) WithLabel(key, value string) *ProfilingScope {
	s.labels[key] = value
	return s
}

// WithController adds the controller label.
func (s *ProfilingScope) WithController(controller string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelController, controller)
}

// WithRoute adds the route label.
func (s *ProfilingScope) WithRoute(route string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelRoute, route)
}

// WithMethod adds the method label.
func (s *ProfilingScope) WithMethod(method string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelMethod, method)
}

// WithProcessType adds the process_type label.
func (s *ProfilingScope) WithProcessType(processType string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelProcessType, processType)
}

// WithOperation adds the operation label.
func (s *ProfilingScope) WithOperation(operation string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelOperation, operation)
}

// WithRegion adds the region label.
func (s *ProfilingScope) WithRegion(region string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelRegion, region)
}

// Labels returns a copy of the accumulated labels.
func (s *ProfilingScope) Labels() map[string]string {
	out := make(map[string]string, len(s.labels))
	maps.Copy(out, s.labels)
	return out
}

// Run executes fn under the accumulated labels.
func (s *ProfilingScope) Run(ctx context.Context, fn func(context.Context)) {
	WithProfilingLabels(ctx, s.labels, fn)
}

// sanitizedPairs copies, validates, and flattens a label map into the
// alternating key/value slice the profiler APIs take. Output order is
// deterministic (sorted by key).
func sanitizedPairs(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}

	// Snapshot before iterating so a caller mutating the map concurrently
	// cannot corrupt the walk
	snapshot := make(map[string]string, len(labels))
	maps.Copy(snapshot, labels)

	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(snapshot)*2)
	for _, key := range keys {
		k, v, ok := cleanLabel(key, snapshot[key])
		if !ok {
			continue
		}
		pairs = append(pairs, k, v)
	}
	return pairs
}

// cleanLabel normalizes one label pair. Empty pairs and high-cardinality
// keys are rejected silently; logging here would spam hot paths.
func cleanLabel(key, value string) (string, string, bool) {
	if key == "" || value == "" || HighCardinalityLabels[key] {
		return "", "", false
	}
	if len(value) > MaxLabelValueLength {
		value = value[:MaxLabelValueLength]
	}
	key = normalizeLabelKey(key)
	if key == "" {
		return "", "", false
	}
	return key, value, true
}

// normalizeLabelKey forces keys into snake_case: lowercased, space and
// hyphen mapped to underscore, every other character outside [a-z0-9_]
// removed.
func normalizeLabelKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ', r == '-':
			return '_'
		default:
			return -1
		}
	}, key)
}
