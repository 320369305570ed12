package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. Consumers
// nil-check their *Metrics so unit tests can pass nil without touching the
// default registry.
type Metrics struct {
	PoliciesCreated prometheus.Counter
	FlightUpdates   prometheus.Counter
	Evaluations     *prometheus.CounterVec
	PayoutsIssued   prometheus.Counter
	PayoutFailures  prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		PoliciesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "insurance_policies_created_total",
			Help: "Total number of policies created",
		}),
		FlightUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "insurance_flight_updates_total",
			Help: "Total number of oracle flight-info updates accepted",
		}),
		Evaluations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "insurance_evaluations_total",
			Help: "Total number of claim evaluations by resulting branch",
		}, []string{"result"}),
		PayoutsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "insurance_payouts_issued_total",
			Help: "Total number of claim payouts issued",
		}),
		PayoutFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "insurance_payout_failures_total",
			Help: "Total number of payout attempts that failed and rolled back",
		}),
	}
}

// IncPoliciesCreated increments the policies created counter by 1.
func (m *Metrics) IncPoliciesCreated() {
	if m == nil {
		return
	}
	m.PoliciesCreated.Inc()
}

// IncFlightUpdates increments the flight updates counter by 1.
func (m *Metrics) IncFlightUpdates() {
	if m == nil {
		return
	}
	m.FlightUpdates.Inc()
}

// IncEvaluations increments the evaluation counter for a decision branch.
func (m *Metrics) IncEvaluations(result string) {
	if m == nil {
		return
	}
	m.Evaluations.WithLabelValues(result).Inc()
}

// IncPayoutsIssued increments the payouts issued counter by 1.
func (m *Metrics) IncPayoutsIssued() {
	if m == nil {
		return
	}
	m.PayoutsIssued.Inc()
}

// IncPayoutFailures increments the payout failures counter by 1.
func (m *Metrics) IncPayoutFailures() {
	if m == nil {
		return
	}
	m.PayoutFailures.Inc()
}
