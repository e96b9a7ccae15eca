package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCheck(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("willow", reg)

	m.RecordCheck(OutcomeMatched, 0.002, 40, []float64{1.0, 0.8}, 1)
	m.RecordCheck(OutcomeClean, 0.001, 12, nil, 0)
	m.RecordCheck(OutcomeInvalid, 0.0001, 0, nil, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChecksTotal.WithLabelValues(OutcomeMatched)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChecksTotal.WithLabelValues(OutcomeInvalid)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MatchesFound))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CanonicalMatches))

	count, err := testutil.GatherAndCount(reg, "willow_duplicate_check_pool_size")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSideEffectsAndMemorials(t *testing.T) {
	m := NewMetrics("willow", prometheus.NewRegistry())

	m.RecordSideEffectFailure("event")
	m.RecordSideEffectFailure("event")
	m.RecordMemorialCreated()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SideEffectFailures.WithLabelValues("event")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MemorialsCreated))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordCheck(OutcomeClean, 0, 0, nil, 0)
		m.RecordSideEffectFailure("event")
		m.RecordMemorialCreated()
	})
}
