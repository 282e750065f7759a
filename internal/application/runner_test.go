package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/zonerun/internal/domain/zone"
)

type recordingSink struct {
	events    []zone.Event
	snapshots int
}

func (r *recordingSink) PublishEvents(_ context.Context, _ string, events []zone.Event) error {
	r.events = append(r.events, events...)
	return nil
}

func (r *recordingSink) PublishSnapshot(_ context.Context, _ string, _ *zone.Snapshot) error {
	r.snapshots++
	return nil
}

// syntheticBars produces a rising stream with one high-volume wick at dipAt:
// the low dips while the close stays on trend, which is exactly the shape
// that qualifies as a support pivot (close above the 50-bar baseline).
func syntheticBars(n, dipAt int) []zone.Bar {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]zone.Bar, 0, n)
	for i := 0; i < n; i++ {
		c := 100.0 + 0.2*float64(i)
		low, volume := c-0.5, 500.0
		if i == dipAt {
			low, volume = c-3.0, 900.0
		}
		bars = append(bars, zone.Bar{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Open:      c - 0.2,
			High:      c + 0.5,
			Low:       low,
			Close:     c,
			Volume:    volume,
		})
	}
	return bars
}

func testEngine(t *testing.T) *zone.Engine {
	t.Helper()
	cfg := zone.DefaultConfig()
	cfg.PivotLength = 2
	cfg.Seed = 42
	engine, err := zone.NewEngine(cfg)
	require.NoError(t, err)
	return engine
}

func TestRunner_ProcessesStreamAndPublishes(t *testing.T) {
	sink := &recordingSink{}
	runner := NewRunner("BTCUSDT", testEngine(t),
		WithEventSink(sink),
		WithSnapshotSink(sink),
	)

	// The dip sits past the 50-bar baseline warm-up so the pivot qualifies.
	bars := syntheticBars(60, 55)
	require.NoError(t, runner.Run(context.Background(), bars))

	assert.Equal(t, len(bars), sink.snapshots)

	var created int
	for _, ev := range sink.events {
		if ev.Type == zone.EventCreated {
			created++
		}
	}
	assert.Equal(t, 1, created, "exactly one qualifying pivot in the stream")

	latest := runner.LatestSnapshot()
	require.NotNil(t, latest)
	snap, ok := latest.(*zone.Snapshot)
	require.True(t, ok)
	require.Len(t, snap.Supports, 1)
	assert.InDelta(t, 108.0, snap.Supports[0].Center, 1e-9, "zone centers on the dip low")
}

func TestRunner_LatestSnapshotNilBeforeFirstBar(t *testing.T) {
	runner := NewRunner("BTCUSDT", testEngine(t))
	assert.Nil(t, runner.LatestSnapshot())
}

func TestRunner_FatalEngineErrorAbortsRun(t *testing.T) {
	runner := NewRunner("BTCUSDT", testEngine(t))

	bars := syntheticBars(3, -1)
	bars[2].Timestamp = bars[1].Timestamp // not strictly increasing

	err := runner.Run(context.Background(), bars)
	require.ErrorIs(t, err, zone.ErrNonMonotonicTimestamp)
}

func TestRunner_HonorsContextCancellation(t *testing.T) {
	runner := NewRunner("BTCUSDT", testEngine(t), WithPacing(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runner.Run(ctx, syntheticBars(10, -1))
	assert.ErrorIs(t, err, context.Canceled)
}
