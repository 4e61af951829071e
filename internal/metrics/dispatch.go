package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// dispatchAttemptsTotal counts per-provider send attempts.
	// Labels:
	// - channel:  email | sms
	// - provider: resend | sendgrid | smtp | twilio
	// - result:   success | failure
	dispatchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courier",
			Subsystem: "dispatch",
			Name:      "attempts_total",
			Help:      "Per-provider message send attempts.",
		},
		[]string{"channel", "provider", "result"},
	)

	// dispatchExhaustedTotal counts email sends where every configured
	// provider failed or none was configured.
	dispatchExhaustedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "courier",
			Subsystem: "dispatch",
			Name:      "exhausted_total",
			Help:      "Email sends that exhausted all configured providers.",
		},
	)
)

// IncDispatchAttempt increments the attempt counter for one provider try.
func IncDispatchAttempt(channel, provider, result string) {
	if provider == "" {
		provider = "unknown"
	}
	if result == "" {
		result = "unknown"
	}
	dispatchAttemptsTotal.WithLabelValues(channel, provider, result).Inc()
}

// IncDispatchExhausted increments the terminal-failure counter.
func IncDispatchExhausted() {
	dispatchExhaustedTotal.Inc()
}
