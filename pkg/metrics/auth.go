package metrics

import "github.com/prometheus/client_golang/prometheus"

// Outcomes recorded for account events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// AuthMetrics counts account lifecycle events (register, verify, login, reset).
type AuthMetrics struct {
	events *prometheus.CounterVec
}

// NewAuthMetrics registers the account event counter on the provided registerer.
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	if reg == nil {
		return &AuthMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_events_total",
		Help: "Account events by type and outcome.",
	}, []string{"event", "outcome"})
	reg.MustRegister(events)
	return &AuthMetrics{events: events}
}

// Record increments the counter for event with the outcome derived from err.
func (a *AuthMetrics) Record(event string, err error) {
	if a == nil || a.events == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	a.events.WithLabelValues(normalizeLabel(event), outcome).Inc()
}
