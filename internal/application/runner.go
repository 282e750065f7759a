// Package application wires the bar stream through the zone engine and fans
// results out to the configured sinks. One runner serves one instrument;
// processing is strictly one bar end to end at a time.
package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/sawpanic/zonerun/internal/domain/zone"
	"github.com/sawpanic/zonerun/internal/indicators"
	"github.com/sawpanic/zonerun/internal/metrics"
)

// EventSink receives the lifecycle events of one processed bar.
type EventSink interface {
	PublishEvents(ctx context.Context, symbol string, events []zone.Event) error
}

// SnapshotSink receives the full snapshot of one processed bar.
type SnapshotSink interface {
	PublishSnapshot(ctx context.Context, symbol string, snap *zone.Snapshot) error
}

// Runner drives the engine over a bar stream.
type Runner struct {
	symbol  string
	engine  *zone.Engine
	feed    *indicators.BaselineFeed
	mets    *metrics.Metrics
	events  []EventSink
	snaps   []SnapshotSink
	limiter *rate.Limiter

	mu     sync.RWMutex
	latest *zone.Snapshot
}

// Option configures a Runner.
type Option func(*Runner)

// WithEventSink adds an event sink. Sink failures are logged, not fatal.
func WithEventSink(s EventSink) Option {
	return func(r *Runner) { r.events = append(r.events, s) }
}

// WithSnapshotSink adds a snapshot sink.
func WithSnapshotSink(s SnapshotSink) Option {
	return func(r *Runner) { r.snaps = append(r.snaps, s) }
}

// WithMetrics attaches a metrics registry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.mets = m }
}

// WithPacing throttles replay to barsPerSecond. Zero leaves replay unpaced.
func WithPacing(barsPerSecond float64) Option {
	return func(r *Runner) {
		if barsPerSecond > 0 {
			r.limiter = rate.NewLimiter(rate.Limit(barsPerSecond), 1)
		}
	}
}

// NewRunner creates a runner with the default baseline feed.
func NewRunner(symbol string, engine *zone.Engine, opts ...Option) *Runner {
	r := &Runner{
		symbol: symbol,
		engine: engine,
		feed:   indicators.NewBaselineFeed(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LatestSnapshot returns the most recent snapshot, or nil before the first
// bar. The return type is interface{} to satisfy the HTTP layer without a
// package cycle.
func (r *Runner) LatestSnapshot() interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.latest == nil {
		return nil
	}
	return r.latest
}

// Run processes bars until the slice is exhausted or the context ends.
// The engine's fatal errors (non-monotonic timestamps, poisoned stream)
// abort the run; sink failures only log.
func (r *Runner) Run(ctx context.Context, bars []zone.Bar) error {
	for i, bar := range bars {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return err
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		if err := r.Process(ctx, bar); err != nil {
			return fmt.Errorf("bar %d: %w", i, err)
		}
	}
	log.Info().Str("symbol", r.symbol).Uint64("bars", r.engine.BarsProcessed()).Msg("bar stream exhausted")
	return nil
}

// Process runs a single bar end to end and publishes the results.
func (r *Runner) Process(ctx context.Context, bar zone.Bar) error {
	start := time.Now()
	base := r.feed.Update(bar)
	snap, err := r.engine.ProcessBar(bar, base)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.latest = snap
	r.mu.Unlock()

	if r.mets != nil {
		r.mets.ObserveBar(snap, time.Since(start))
	}
	for _, ev := range snap.Events {
		log.Debug().
			Str("symbol", r.symbol).
			Str("event", string(ev.Type)).
			Str("side", ev.Side).
			Float64("center", ev.Center).
			Msg("zone event")
	}

	for _, sink := range r.events {
		if err := sink.PublishEvents(ctx, r.symbol, snap.Events); err != nil {
			log.Warn().Err(err).Str("symbol", r.symbol).Msg("event sink failed")
		}
	}
	for _, sink := range r.snaps {
		if err := sink.PublishSnapshot(ctx, r.symbol, snap); err != nil {
			log.Warn().Err(err).Str("symbol", r.symbol).Msg("snapshot sink failed")
		}
	}
	return nil
}
