package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// authOutcomesTotal counts authentication outcomes by mode and result.
	// Labels:
	// - mode:   partner | api_key | token
	// - result: success | failure
	authOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courier",
			Subsystem: "auth",
			Name:      "outcomes_total",
			Help:      "Authentication outcomes by mode and result.",
		},
		[]string{"mode", "result"},
	)
)

// IncAuthOutcome increments the auth outcome counter.
func IncAuthOutcome(mode, result string) {
	if mode == "" {
		mode = "unknown"
	}
	if result == "" {
		result = "unknown"
	}
	authOutcomesTotal.WithLabelValues(mode, result).Inc()
}
