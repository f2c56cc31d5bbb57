package telemetry

import (
	"context"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys.
const (
	ProfilingLabelRoute     = "route"
	ProfilingLabelMethod    = "method"
	ProfilingLabelEndpoint  = "endpoint"
	ProfilingLabelOperation = "operation"
	ProfilingLabelPrinter   = "printer"
	ProfilingLabelPaper     = "paper"
)

// MaxLabelValueLength bounds label values to keep profile cardinality low
const MaxLabelValueLength = 128

// HighCardinalityLabels are dropped by WithProfilingLabels.
var HighCardinalityLabels = map[string]bool{
	"request_id":  true,
	"job_id":      true,
	"sale_id":     true,
	"terminal_id": true,
	"trace_id":    true,
	"span_id":     true,
}

// WithProfilingLabels runs fn with pprof labels Pyroscope can slice by.
// Empty and high cardinality labels are dropped.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// HTTPRequestLabels are the labels attached to each HTTP request
func HTTPRequestLabels(route, method string) map[string]string {
	return map[string]string{
		ProfilingLabelRoute:  route,
		ProfilingLabelMethod: method,
	}
}

// RenderLabels are the labels attached to a PDF rendering
func RenderLabels(operation, printer, paper string) map[string]string {
	return map[string]string{
		ProfilingLabelOperation: operation,
		ProfilingLabelPrinter:   printer,
		ProfilingLabelPaper:     paper,
	}
}

// sanitizeLabels returns sorted key/value pairs without empty or high
// cardinality entries, with keys in snake_case and values truncated.
func sanitizeLabels(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(labels)*2)
	for _, key := range keys {
		value := labels[key]
		if key == "" || value == "" {
			continue
		}
		sanitizedKey := sanitizeLabelKey(key)
		if sanitizedKey == "" || HighCardinalityLabels[sanitizedKey] {
			continue
		}
		if len(value) > MaxLabelValueLength {
			value = value[:MaxLabelValueLength]
		}
		pairs = append(pairs, sanitizedKey, value)
	}
	return pairs
}

func sanitizeLabelKey(key string) string {
	key = strings.ToLower(key)
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)

	result := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' {
			result = append(result, c)
		}
	}
	return string(result)
}
