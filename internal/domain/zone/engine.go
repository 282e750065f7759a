package zone

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// ErrNonMonotonicTimestamp is returned when a bar does not advance the
// stream clock. The condition is fatal for the stream instance; the engine
// latches it and rejects all further bars.
var ErrNonMonotonicTimestamp = errors.New("bar timestamp not strictly increasing")

// Config holds the recognized engine options. Out-of-range values are
// rejected at construction, never clamped.
type Config struct {
	PivotLength     int     `yaml:"pivot_length" json:"pivot_length"`
	WidthMult       float64 `yaml:"width_mult" json:"width_mult"`
	MaxZonesPerSide int     `yaml:"max_zones_per_side" json:"max_zones_per_side"`
	DecayRate       float64 `yaml:"decay_rate" json:"decay_rate"`
	Weights         Weights `yaml:"weights" json:"weights"`
	Resamples       int     `yaml:"resamples" json:"resamples"`
	ConfidenceFloor float64 `yaml:"confidence_floor" json:"confidence_floor"`
	MinTouchesForCI int     `yaml:"min_touches_for_ci" json:"min_touches_for_ci"`

	// Seed fixes the bootstrap random source. Zero seeds from wall time.
	Seed int64 `yaml:"seed" json:"seed"`
}

// DefaultConfig returns the stock engine configuration.
func DefaultConfig() Config {
	return Config{
		PivotLength:     5,
		WidthMult:       0.5,
		MaxZonesPerSide: 5,
		DecayRate:       0.997,
		Weights:         DefaultWeights(),
		Resamples:       100,
		ConfidenceFloor: 0.5,
		MinTouchesForCI: 3,
	}
}

// Validate checks every recognized option against its documented range.
func (c Config) Validate() error {
	if c.PivotLength < 1 {
		return fmt.Errorf("pivot_length must be >= 1, got %d", c.PivotLength)
	}
	if c.WidthMult < 0.1 || c.WidthMult > 2.0 {
		return fmt.Errorf("width_mult must be in [0.1, 2.0], got %g", c.WidthMult)
	}
	if c.MaxZonesPerSide < 1 || c.MaxZonesPerSide > 10 {
		return fmt.Errorf("max_zones_per_side must be in [1, 10], got %d", c.MaxZonesPerSide)
	}
	if c.DecayRate < 0.9 || c.DecayRate > 0.999 {
		return fmt.Errorf("decay_rate must be in [0.9, 0.999], got %g", c.DecayRate)
	}
	if c.Resamples < 1 {
		return fmt.Errorf("resamples must be >= 1, got %d", c.Resamples)
	}
	if c.ConfidenceFloor < 0 || c.ConfidenceFloor > 1 {
		return fmt.Errorf("confidence_floor must be in [0, 1], got %g", c.ConfidenceFloor)
	}
	if c.MinTouchesForCI < 1 {
		return fmt.Errorf("min_touches_for_ci must be >= 1, got %d", c.MinTouchesForCI)
	}
	return nil
}

// Engine processes one bar end to end: aging, touch/break evaluation,
// proposal ingest, merging, rescoring, then ranking and eviction. A single
// engine serves a single instrument and is not safe for concurrent use;
// multi-instrument deployments run one engine per instrument with no shared
// state.
type Engine struct {
	cfg      Config
	detector *PivotDetector
	manager  *Manager
	scorer   *Scorer
	ranker   *Ranker

	lastTS   time.Time
	barCount uint64
	failed   error
}

// NewEngine validates the configuration and assembles the pipeline.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid zone engine config: %w", err)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Engine{
		cfg:      cfg,
		detector: NewPivotDetector(cfg.PivotLength, cfg.WidthMult),
		manager:  NewManager(cfg.WidthMult),
		scorer: NewScorer(ScorerConfig{
			DecayRate:       cfg.DecayRate,
			Weights:         cfg.Weights,
			Resamples:       cfg.Resamples,
			ConfidenceFloor: cfg.ConfidenceFloor,
			MinTouchesForCI: cfg.MinTouchesForCI,
		}, rand.New(rand.NewSource(seed))),
		ranker: NewRanker(cfg.MaxZonesPerSide),
	}, nil
}

// ProcessBar runs one bar through the pipeline and returns the resulting
// snapshot. Bars must arrive in strictly increasing timestamp order; a
// violation poisons the engine permanently.
func (e *Engine) ProcessBar(bar Bar, base Baselines) (*Snapshot, error) {
	if e.failed != nil {
		return nil, e.failed
	}
	if e.barCount > 0 && !bar.Timestamp.After(e.lastTS) {
		e.failed = fmt.Errorf("%w: %s does not advance %s",
			ErrNonMonotonicTimestamp, bar.Timestamp.Format(time.RFC3339), e.lastTS.Format(time.RFC3339))
		return nil, e.failed
	}
	e.lastTS = bar.Timestamp
	e.barCount++

	var events []Event

	e.manager.Age()

	touched, evs := e.manager.Evaluate(bar)
	events = append(events, evs...)

	proposals := e.detector.Observe(bar, base)
	created, evs := e.manager.Ingest(proposals, bar.Timestamp)
	events = append(events, evs...)

	var mergedSurvivors []*Zone
	if base.Warm {
		mergedSurvivors, evs = e.manager.Merge(base.ATR14, bar.Timestamp)
		events = append(events, evs...)
	}

	if base.Warm {
		alive := make(map[*Zone]struct{}, len(e.manager.Zones()))
		for _, z := range e.manager.Zones() {
			alive[z] = struct{}{}
		}
		for _, z := range rescoreSet(touched, created, mergedSurvivors) {
			// Touched or created zones can have been merged away this bar.
			if _, ok := alive[z]; !ok {
				continue
			}
			e.scorer.Score(z, base.VolumeMA20)
		}
	}

	result := e.ranker.Rank(e.manager.Zones())
	e.manager.Drop(result.Evicted)
	for _, z := range result.Evicted {
		events = append(events, Event{
			Type:      EventEvicted,
			Timestamp: bar.Timestamp,
			ZoneID:    z.ID,
			Side:      z.Side(),
			Center:    z.Center,
			Strength:  z.Strength,
		})
	}

	snap := &Snapshot{
		Timestamp:   bar.Timestamp,
		Supports:    views(result.Supports),
		Resistances: views(result.Resistances),
		Events:      events,
	}
	return snap, nil
}

// BarsProcessed reports how many bars the engine has accepted.
func (e *Engine) BarsProcessed() uint64 {
	return e.barCount
}

// rescoreSet deduplicates the zones due for rescoring this bar: touched,
// newly created, and merge survivors. Merged-away zones are already gone
// from the authoritative set and are skipped implicitly.
func rescoreSet(groups ...[]*Zone) []*Zone {
	seen := make(map[*Zone]struct{})
	var out []*Zone
	for _, group := range groups {
		for _, z := range group {
			if _, ok := seen[z]; ok {
				continue
			}
			seen[z] = struct{}{}
			out = append(out, z)
		}
	}
	return out
}

func views(zones []*Zone) []View {
	out := make([]View, 0, len(zones))
	for _, z := range zones {
		out = append(out, z.view())
	}
	return out
}
