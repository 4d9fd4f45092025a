package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gaugeValue(t *testing.T, m *MetricsService, name string) float64 {
	t.Helper()
	families, err := m.Gatherer().Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == name {
			require.NotEmpty(t, family.GetMetric())
			return family.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not registered", name)
	return 0
}

func TestTrackAuditBacklog(t *testing.T) {
	m := NewMetricsService()
	pending := 3
	require.NoError(t, m.TrackAuditBacklog(func() int { return pending }))
	assert.Equal(t, float64(3), gaugeValue(t, m, "audit_queue_pending"))

	pending = 0
	assert.Zero(t, gaugeValue(t, m, "audit_queue_pending"))

	assert.Error(t, m.TrackAuditBacklog(func() int { return 0 }), "gauge registers once")
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	assert.NoError(t, m.TrackAuditBacklog(func() int { return 1 }))
	assert.NotPanics(t, func() {
		m.TrackEvent(EventItemCreated)
		m.RecordAuditDrop()
	})
}
