package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for duplicate detection.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// ChecksTotal counts duplicate checks by outcome ("matched", "clean", "invalid", "error").
	ChecksTotal *prometheus.CounterVec

	CheckDuration prometheus.Histogram

	// PoolSize observes the number of records each check scored against.
	PoolSize prometheus.Histogram

	MatchesFound prometheus.Counter

	// CanonicalMatches counts matches forced in by an identical canonical hash.
	CanonicalMatches prometheus.Counter

	MatchScore prometheus.Histogram

	// SideEffectFailures counts review-queue and event failures that did not fail the check.
	SideEffectFailures *prometheus.CounterVec

	MemorialsCreated prometheus.Counter
}

// NewMetrics creates and registers the collectors with reg under namespace
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ChecksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_checks_total",
			Help:      "Total number of duplicate checks by outcome",
		}, []string{"outcome"}),
		CheckDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "duplicate_check_duration_seconds",
			Help:      "Duration of duplicate checks in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		PoolSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "duplicate_check_pool_size",
			Help:      "Number of candidate records scored per check",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		MatchesFound: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_matches_total",
			Help:      "Total number of potential duplicates returned",
		}),
		CanonicalMatches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_canonical_matches_total",
			Help:      "Total number of matches found through an identical canonical hash",
		}),
		MatchScore: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "duplicate_match_score",
			Help:      "Distribution of returned match scores",
			Buckets:   prometheus.LinearBuckets(0.5, 0.05, 11),
		}),
		SideEffectFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_side_effect_failures_total",
			Help:      "Failures recording review candidates or publishing events",
		}, []string{"kind"}),
		MemorialsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memorials_created_total",
			Help:      "Total number of memorials created",
		}),
	}
}

// Check outcomes
const (
	OutcomeMatched = "matched"
	OutcomeClean   = "clean"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// RecordCheck records one finished duplicate check
func (m *Metrics) RecordCheck(outcome string, seconds float64, poolSize int, scores []float64, canonical int) {
	if m == nil {
		return
	}
	m.ChecksTotal.WithLabelValues(outcome).Inc()
	m.CheckDuration.Observe(seconds)
	if outcome == OutcomeInvalid || outcome == OutcomeError {
		return
	}
	m.PoolSize.Observe(float64(poolSize))
	m.MatchesFound.Add(float64(len(scores)))
	m.CanonicalMatches.Add(float64(canonical))
	for _, s := range scores {
		m.MatchScore.Observe(s)
	}
}

// RecordSideEffectFailure counts a tolerated failure of kind ("review_queue" or "event")
func (m *Metrics) RecordSideEffectFailure(kind string) {
	if m == nil {
		return
	}
	m.SideEffectFailures.WithLabelValues(kind).Inc()
}

// RecordMemorialCreated counts a created memorial
func (m *Metrics) RecordMemorialCreated() {
	if m == nil {
		return
	}
	m.MemorialsCreated.Inc()
}
