package zone

import "sort"

// Ranker orders each side of the zone set and caps it at the configured
// per-side maximum. It holds zone references only for ordering and never
// mutates zone fields; destruction of evicted zones is the Manager's job.
type Ranker struct {
	maxPerSide int
}

// NewRanker creates a ranker with the given per-side cap.
func NewRanker(maxPerSide int) *Ranker {
	return &Ranker{maxPerSide: maxPerSide}
}

// RankResult partitions the set into the visible top-N per side plus the
// zones that fell outside a cap and must be destroyed.
type RankResult struct {
	Supports    []*Zone
	Resistances []*Zone
	Evicted     []*Zone
}

// Rank partitions zones by side, sorts each partition by strength descending
// (ties: more touches first, then lower age), and truncates to the per-side
// cap. Everything beyond a cap lands in Evicted.
func (r *Ranker) Rank(zones []*Zone) RankResult {
	var supports, resistances []*Zone
	for _, z := range zones {
		if z.IsSupport {
			supports = append(supports, z)
		} else {
			resistances = append(resistances, z)
		}
	}

	var result RankResult
	result.Supports, result.Evicted = r.truncate(supports, result.Evicted)
	result.Resistances, result.Evicted = r.truncate(resistances, result.Evicted)
	return result
}

func (r *Ranker) truncate(side []*Zone, evicted []*Zone) ([]*Zone, []*Zone) {
	sort.SliceStable(side, func(i, j int) bool {
		a, b := side[i], side[j]
		if a.Strength != b.Strength {
			return a.Strength > b.Strength
		}
		if a.Touches != b.Touches {
			return a.Touches > b.Touches
		}
		return a.Age < b.Age
	})
	if len(side) <= r.maxPerSide {
		return side, evicted
	}
	return side[:r.maxPerSide], append(evicted, side[r.maxPerSide:]...)
}
