// Package zone implements the streaming support/resistance zone engine.
// Bars flow in one at a time; the engine maintains a small authoritative set
// of price bands that have repeatedly acted as turning points, each carrying
// a composite strength score with a bootstrap confidence discount.
package zone

import (
	"time"

	"github.com/google/uuid"
)

// Bar is a single OHLCV candle. Bars are immutable once observed and must
// arrive with strictly increasing timestamps.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Baselines carries the per-bar volatility and trend/volume references the
// engine consumes alongside each bar. They are computed outside the engine
// (see internal/indicators for the default feed). Warm is false until every
// underlying window has filled; while cold, no zones are proposed and no
// width-dependent computation runs.
type Baselines struct {
	ATR14      float64 `json:"atr14"`
	PriceMA50  float64 `json:"price_ma50"`
	VolumeMA20 float64 `json:"volume_ma20"`
	Warm       bool    `json:"warm"`
}

// Zone is a price band treated as a support or resistance level, with
// accumulated evidence (touches, volume) and a derived strength. Zones are
// owned exclusively by the Manager; other components read them but never
// mutate fields.
type Zone struct {
	ID               uuid.UUID `json:"id"`
	Center           float64   `json:"center"`
	High             float64   `json:"high"`
	Low              float64   `json:"low"`
	Touches          int       `json:"touches"`
	CumulativeVolume float64   `json:"cumulative_volume"`
	Age              int       `json:"age"`
	IsSupport        bool      `json:"is_support"`
	IsBroken         bool      `json:"is_broken"`
	IsFlipped        bool      `json:"is_flipped"`
	VolumeRatio      float64   `json:"volume_ratio"`
	Strength         float64   `json:"strength"`
	CILowerBound     float64   `json:"ci_lower_bound"`

	// seq is the ingest order, used to break ties when two zones share an
	// age and the merge step must decide which one is the earlier.
	seq uint64
}

// Side returns the human-readable side label for the zone's current facing.
func (z *Zone) Side() string {
	return sideLabel(z.IsSupport)
}

func sideLabel(isSupport bool) string {
	if isSupport {
		return "support"
	}
	return "resistance"
}

// View is the externally visible projection of a zone. The two ranked View
// slices in a Snapshot are the system's sole per-bar output besides events.
type View struct {
	ID           uuid.UUID `json:"id"`
	Side         string    `json:"side"`
	Center       float64   `json:"center"`
	High         float64   `json:"high"`
	Low          float64   `json:"low"`
	Touches      int       `json:"touches"`
	Age          int       `json:"age"`
	Strength     float64   `json:"strength"`
	CILowerBound float64   `json:"ci_lower_bound"`
	IsFlipped    bool      `json:"is_flipped"`
}

func (z *Zone) view() View {
	return View{
		ID:           z.ID,
		Side:         z.Side(),
		Center:       z.Center,
		High:         z.High,
		Low:          z.Low,
		Touches:      z.Touches,
		Age:          z.Age,
		Strength:     z.Strength,
		CILowerBound: z.CILowerBound,
		IsFlipped:    z.IsFlipped,
	}
}

// EventType enumerates zone lifecycle transitions.
type EventType string

const (
	EventCreated EventType = "zone_created"
	EventTouched EventType = "zone_touched"
	EventFlipped EventType = "zone_flipped"
	EventMerged  EventType = "zone_merged"
	EventEvicted EventType = "zone_evicted"
)

// Event is a single lifecycle notification for the external alerting and
// visualization layers. ZoneID is the stable synthetic identity assigned at
// creation; center price can drift via merges, the ID never does.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	ZoneID    uuid.UUID `json:"zone_id"`
	Side      string    `json:"side"`
	Center    float64   `json:"center"`
	Strength  float64   `json:"strength,omitempty"`

	// MergedFrom is set on EventMerged and names the zone that was folded
	// into ZoneID and destroyed, so display side-tables can release it.
	MergedFrom uuid.UUID `json:"merged_from,omitempty"`
}

// Snapshot is the per-bar output: the ranked top-N view per side plus every
// lifecycle event the bar produced, in occurrence order.
type Snapshot struct {
	Timestamp   time.Time `json:"timestamp"`
	Supports    []View    `json:"supports"`
	Resistances []View    `json:"resistances"`
	Events      []Event   `json:"events"`
}
