// Package metrics defines the metric names and tags emitted by the route guard.
package metrics

import (
	"time"

	"github.com/target/mmk-routeguard/internal/domain/navigation"
	obserrors "github.com/target/mmk-routeguard/internal/observability/errors"
	"github.com/target/mmk-routeguard/internal/observability/statsd"
)

// Metric names.
const (
	MetricDecision      = "navigation.decision"
	MetricDecisionTime  = "navigation.duration"
	MetricError         = "navigation.error"
	MetricAuthenticated = "auth.authenticated"
)

// NavigationMetrics reports guard decisions to a statsd sink.
// A nil receiver or nil sink turns every method into a no-op.
type NavigationMetrics struct {
	sink statsd.Sink
}

// NewNavigationMetrics wraps sink.
func NewNavigationMetrics(sink statsd.Sink) *NavigationMetrics {
	return &NavigationMetrics{sink: sink}
}

// RecordDecision counts one outcome for the route named to.
func (m *NavigationMetrics) RecordDecision(to string, out navigation.Outcome, took time.Duration) {
	if m == nil || m.sink == nil {
		return
	}
	tags := map[string]string{
		"route":   to,
		"outcome": out.Kind.String(),
	}
	if out.Target != "" {
		tags["target"] = out.Target
	}
	m.sink.Count(MetricDecision, 1, tags)
	if took > 0 {
		m.sink.Timing(MetricDecisionTime, took, CloneTags(tags))
	}
}

// RecordError counts a navigation aborted by a state read failure.
func (m *NavigationMetrics) RecordError(to string, err error) {
	if m == nil || m.sink == nil {
		return
	}
	tags := map[string]string{"route": to}
	if class := obserrors.Classify(err); class != "" {
		tags["error_class"] = class
	}
	m.sink.Count(MetricError, 1, tags)
}

// RecordSession publishes whether a session is currently active.
func (m *NavigationMetrics) RecordSession(authenticated bool) {
	if m == nil || m.sink == nil {
		return
	}
	v := 0.0
	if authenticated {
		v = 1
	}
	m.sink.Gauge(MetricAuthenticated, v, nil)
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
