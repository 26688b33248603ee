package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification module.
type Metrics struct {
	// Decisions by kind and outcome (applied, closed, not_found, invalid, error)
	Decisions *prometheus.CounterVec

	DecisionLatency prometheus.Histogram

	// Requests accepted at intake and evidence appended afterwards
	IntakeAccepted   prometheus.Counter
	EvidenceAppended *prometheus.CounterVec

	// Audit events that could not be handed to the sink
	AuditFailures prometheus.Counter

	// Stats cache lookups by result (hit, miss, error)
	StatsCacheLookups *prometheus.CounterVec
}

// New creates the verification metrics on reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "verifdesk_decisions_total",
			Help: "Reviewer decisions by kind and outcome",
		}, []string{"kind", "outcome"}),

		DecisionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "verifdesk_decision_duration_seconds",
			Help:    "Duration of applying a decision including the store transaction",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		IntakeAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "verifdesk_intake_requests_total",
			Help: "Verification requests accepted at intake",
		}),

		EvidenceAppended: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "verifdesk_evidence_appended_total",
			Help: "Documents, checks and notes appended to existing requests",
		}, []string{"kind"}),

		AuditFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "verifdesk_audit_failures_total",
			Help: "Audit events that failed to publish",
		}),

		StatsCacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "verifdesk_stats_cache_lookups_total",
			Help: "Controller stats cache lookups by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncrementDecision(kind, outcome string) {
	if m != nil {
		m.Decisions.WithLabelValues(kind, outcome).Inc()
	}
}

func (m *Metrics) ObserveDecisionLatency(d time.Duration) {
	if m != nil {
		m.DecisionLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementIntake() {
	if m != nil {
		m.IntakeAccepted.Inc()
	}
}

func (m *Metrics) IncrementEvidence(kind string) {
	if m != nil {
		m.EvidenceAppended.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) IncrementAuditFailure() {
	if m != nil {
		m.AuditFailures.Inc()
	}
}

func (m *Metrics) IncrementStatsCache(result string) {
	if m != nil {
		m.StatsCacheLookups.WithLabelValues(result).Inc()
	}
}
