package metrics

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/zonerun/internal/domain/zone"
)

func TestMetrics_ObserveBar(t *testing.T) {
	m := New()

	snap := &zone.Snapshot{
		Timestamp:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Supports:    []zone.View{{Center: 100}, {Center: 95}},
		Resistances: []zone.View{{Center: 110}},
		Events: []zone.Event{
			{Type: zone.EventCreated},
			{Type: zone.EventTouched},
			{Type: zone.EventTouched},
		},
	}
	m.ObserveBar(snap, 2*time.Millisecond)
	m.ObserveBar(snap, time.Millisecond)

	families, err := m.Gather().Gather()
	require.NoError(t, err)

	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}

	bars := byName["zonerun_bars_processed_total"]
	require.NotNil(t, bars)
	assert.InDelta(t, 2, bars.GetMetric()[0].GetCounter().GetValue(), 1e-9)

	events := byName["zonerun_zone_events_total"]
	require.NotNil(t, events)
	total := 0.0
	for _, metric := range events.GetMetric() {
		total += metric.GetCounter().GetValue()
	}
	assert.InDelta(t, 6, total, 1e-9, "three events per bar over two bars")

	gauges := byName["zonerun_active_zones"]
	require.NotNil(t, gauges)
	values := map[string]float64{}
	for _, metric := range gauges.GetMetric() {
		for _, label := range metric.GetLabel() {
			if label.GetName() == "side" {
				values[label.GetValue()] = metric.GetGauge().GetValue()
			}
		}
	}
	assert.InDelta(t, 2, values["support"], 1e-9)
	assert.InDelta(t, 1, values["resistance"], 1e-9)

	hist := byName["zonerun_bar_processing_seconds"]
	require.NotNil(t, hist)
	assert.Equal(t, uint64(2), hist.GetMetric()[0].GetHistogram().GetSampleCount())
}
