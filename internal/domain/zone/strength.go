package zone

import (
	"math"
	"math/rand"
)

// Weights blends the strength components. Defaults preserve the empirical
// constants the system was tuned with; they are configuration, not derived.
type Weights struct {
	Touches         float64 `yaml:"touches" json:"touches"`
	FormationVolume float64 `yaml:"formation_volume" json:"formation_volume"`
	TouchVolume     float64 `yaml:"touch_volume" json:"touch_volume"`
	Freshness       float64 `yaml:"freshness" json:"freshness"`
}

// DefaultWeights returns the stock component blend.
func DefaultWeights() Weights {
	return Weights{
		Touches:         0.35,
		FormationVolume: 0.30,
		TouchVolume:     0.20,
		Freshness:       0.15,
	}
}

// ScorerConfig holds the strength and bootstrap constants.
type ScorerConfig struct {
	DecayRate       float64
	Weights         Weights
	Resamples       int     // bootstrap resample count
	ConfidenceFloor float64 // halve strength below this bound when touches >= 3
	MinTouchesForCI int     // bootstrap only runs at or above this touch count
}

// Scorer computes the composite 0-100 strength for a zone, including the
// bootstrap confidence discount. The random source is injected so callers
// can fix the seed for reproducible runs.
type Scorer struct {
	cfg ScorerConfig
	rng *rand.Rand
}

// NewScorer creates a scorer with the given constants and random source.
func NewScorer(cfg ScorerConfig, rng *rand.Rand) *Scorer {
	return &Scorer{cfg: cfg, rng: rng}
}

// Score recomputes a zone's strength in place. volumeBaseline is the current
// 20-bar volume baseline; when it is unavailable the previous score is kept
// (warm-up policy). Touch count saturates at 10, freshness decays with age,
// and the final value is clamped to [0, 100] before the confidence discount.
func (s *Scorer) Score(z *Zone, volumeBaseline float64) {
	if volumeBaseline <= 0 || z.Touches < 1 {
		return
	}

	freshness := math.Pow(s.cfg.DecayRate, float64(z.Age))
	volComponent := z.CumulativeVolume / (volumeBaseline * float64(z.Touches))
	touchComponent := math.Min(float64(z.Touches), 10) / 10

	w := s.cfg.Weights
	strength := 100 * (w.Touches*touchComponent +
		w.FormationVolume*z.VolumeRatio +
		w.TouchVolume*volComponent +
		w.Freshness*freshness)
	strength = math.Min(math.Max(strength, 0), 100)

	if z.Touches >= s.cfg.MinTouchesForCI {
		z.CILowerBound = s.ConfidenceLowerBound(z.Touches)
		if z.CILowerBound < s.cfg.ConfidenceFloor {
			strength *= 0.5
		}
	}
	z.Strength = strength
}

// ConfidenceLowerBound estimates how often a zone with this many touches
// would look significant under a pure-chance null model: each resample draws
// touches Bernoulli(0.5) trials and the bound is the fraction of resamples
// whose success count exceeds touches/2. It is a proxy confidence bound, not
// an exact interval.
func (s *Scorer) ConfidenceLowerBound(touches int) float64 {
	if touches <= 0 || s.cfg.Resamples <= 0 {
		return 0
	}
	half := float64(touches) * 0.5
	exceeded := 0
	for i := 0; i < s.cfg.Resamples; i++ {
		successes := 0
		for t := 0; t < touches; t++ {
			if s.rng.Float64() < 0.5 {
				successes++
			}
		}
		if float64(successes) > half {
			exceeded++
		}
	}
	return float64(exceeded) / float64(s.cfg.Resamples)
}
