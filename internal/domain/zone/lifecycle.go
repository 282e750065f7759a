package zone

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// mergeThresholdMult scales the current ATR into the maximum center distance
// at which two same-side zones are considered duplicates and merged.
const mergeThresholdMult = 0.5

// breakoutPenalty is applied to a zone's strength the bar it flips, before
// any rescoring.
const breakoutPenalty = 0.25

// Manager owns the authoritative zone set and applies every per-bar state
// transition in a fixed order: aging, touch/break evaluation, proposal
// ingest, then merging. No other component mutates zones.
type Manager struct {
	widthMult float64
	zones     []*Zone
	seq       uint64
}

// NewManager creates an empty lifecycle manager. widthMult sizes merged
// zone bounds the same way the detector sizes proposals.
func NewManager(widthMult float64) *Manager {
	return &Manager{widthMult: widthMult}
}

// Zones returns the authoritative set. Callers must treat the zones as
// read-only.
func (m *Manager) Zones() []*Zone {
	return m.zones
}

// Age increments every zone's age by one bar.
func (m *Manager) Age() {
	for _, z := range m.zones {
		z.Age++
	}
}

// Evaluate applies touch/break transitions for one bar. Each zone sees at
// most one of the two: a touch when the bar's probing extreme stays inside
// the band, otherwise a breakout when the close crosses the active edge.
// It returns the zones touched this bar (candidates for rescoring) and the
// lifecycle events produced.
func (m *Manager) Evaluate(bar Bar) ([]*Zone, []Event) {
	var touched []*Zone
	var events []Event
	for _, z := range m.zones {
		probe := bar.Low
		if !z.IsSupport {
			probe = bar.High
		}
		switch {
		case probe >= z.Low && probe <= z.High:
			z.Touches++
			z.CumulativeVolume += bar.Volume
			touched = append(touched, z)
			events = append(events, Event{
				Type:      EventTouched,
				Timestamp: bar.Timestamp,
				ZoneID:    z.ID,
				Side:      z.Side(),
				Center:    z.Center,
			})
		case z.IsSupport && bar.Close < z.Low, !z.IsSupport && bar.Close > z.High:
			z.IsBroken = true
			z.IsFlipped = true
			z.IsSupport = !z.IsSupport
			z.Strength *= breakoutPenalty
			events = append(events, Event{
				Type:      EventFlipped,
				Timestamp: bar.Timestamp,
				ZoneID:    z.ID,
				Side:      z.Side(),
				Center:    z.Center,
			})
		}
	}
	return touched, events
}

// Ingest appends the bar's confirmed proposals to the authoritative set.
// New zones start with one touch (the formation bar) and age zero.
func (m *Manager) Ingest(proposals []Proposal, ts time.Time) ([]*Zone, []Event) {
	var created []*Zone
	var events []Event
	for _, p := range proposals {
		m.seq++
		z := &Zone{
			ID:               uuid.New(),
			Center:           p.Center,
			High:             p.Center + p.Width/2,
			Low:              p.Center - p.Width/2,
			Touches:          1,
			CumulativeVolume: p.Volume,
			IsSupport:        p.IsSupport,
			VolumeRatio:      p.VolumeRatio,
			seq:              m.seq,
		}
		m.zones = append(m.zones, z)
		created = append(created, z)
		events = append(events, Event{
			Type:      EventCreated,
			Timestamp: ts,
			ZoneID:    z.ID,
			Side:      z.Side(),
			Center:    z.Center,
		})
	}
	return created, events
}

// Merge collapses same-side zones whose centers sit within half an ATR of
// each other, repeating the pairwise scan until no such pair remains. The
// later zone is folded into the earlier one; the survivor takes the
// touch-weighted center, summed touches and volume, the younger age and the
// stronger score, and its bounds are re-derived from the current ATR.
// Survivors of at least one merge are returned for rescoring.
func (m *Manager) Merge(atr float64, ts time.Time) ([]*Zone, []Event) {
	if atr <= 0 {
		return nil, nil
	}
	threshold := mergeThresholdMult * atr
	survivors := make(map[uuid.UUID]*Zone)
	var events []Event

	for merged := true; merged; {
		merged = false
	scan:
		for i := 0; i < len(m.zones); i++ {
			for j := i + 1; j < len(m.zones); j++ {
				a, b := m.zones[i], m.zones[j]
				if a.IsSupport != b.IsSupport {
					continue
				}
				if math.Abs(a.Center-b.Center) > threshold {
					continue
				}
				keep, gone := a, b
				if earlier(b, a) {
					keep, gone = b, a
				}
				m.mergeInto(keep, gone, atr)
				m.remove(gone)
				delete(survivors, gone.ID)
				survivors[keep.ID] = keep
				events = append(events, Event{
					Type:       EventMerged,
					Timestamp:  ts,
					ZoneID:     keep.ID,
					Side:       keep.Side(),
					Center:     keep.Center,
					MergedFrom: gone.ID,
				})
				merged = true
				break scan
			}
		}
	}

	out := make([]*Zone, 0, len(survivors))
	for _, z := range m.zones {
		if _, ok := survivors[z.ID]; ok {
			out = append(out, z)
		}
	}
	return out, events
}

// earlier reports whether a predates b. A larger age means an earlier
// creation bar; equal ages fall back to ingest order.
func earlier(a, b *Zone) bool {
	if a.Age != b.Age {
		return a.Age > b.Age
	}
	return a.seq < b.seq
}

func (m *Manager) mergeInto(keep, gone *Zone, atr float64) {
	total := keep.Touches + gone.Touches
	keep.Center = (keep.Center*float64(keep.Touches) + gone.Center*float64(gone.Touches)) / float64(total)
	keep.Touches = total
	keep.CumulativeVolume += gone.CumulativeVolume
	if gone.Age < keep.Age {
		keep.Age = gone.Age
	}
	keep.Strength = math.Max(keep.Strength, gone.Strength)
	keep.VolumeRatio = math.Max(keep.VolumeRatio, gone.VolumeRatio)
	keep.IsBroken = keep.IsBroken || gone.IsBroken
	keep.IsFlipped = keep.IsFlipped || gone.IsFlipped

	width := m.widthMult * atr
	keep.High = keep.Center + width/2
	keep.Low = keep.Center - width/2
}

func (m *Manager) remove(target *Zone) {
	for i, z := range m.zones {
		if z == target {
			m.zones = append(m.zones[:i], m.zones[i+1:]...)
			return
		}
	}
}

// Drop destroys the given zones, releasing them from the authoritative set.
// Used by the engine after the ranker reports evictions.
func (m *Manager) Drop(evicted []*Zone) {
	for _, z := range evicted {
		m.remove(z)
	}
}
