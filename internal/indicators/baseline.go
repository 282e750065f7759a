// Package indicators provides the default baseline feed for the zone
// engine: a streaming 14-period average true range, a 50-period close
// average and a 20-period volume average. The engine itself only consumes
// baseline values; embedders with their own indicator stack can bypass this
// package entirely.
package indicators

import (
	"math"

	"github.com/sawpanic/zonerun/internal/domain/zone"
)

const (
	atrPeriod    = 14
	pricePeriod  = 50
	volumePeriod = 20
)

// sma is a fixed-window streaming simple moving average.
type sma struct {
	window []float64
	size   int
	sum    float64
}

func newSMA(size int) *sma {
	return &sma{size: size, window: make([]float64, 0, size)}
}

func (s *sma) update(v float64) {
	s.window = append(s.window, v)
	s.sum += v
	if len(s.window) > s.size {
		s.sum -= s.window[0]
		s.window = s.window[1:]
	}
}

func (s *sma) ready() bool {
	return len(s.window) == s.size
}

func (s *sma) value() float64 {
	if len(s.window) == 0 {
		return 0
	}
	return s.sum / float64(len(s.window))
}

// BaselineFeed accumulates bars and produces the per-bar baseline values.
type BaselineFeed struct {
	atr       *sma
	price     *sma
	volume    *sma
	prevClose float64
	barCount  int
}

// NewBaselineFeed creates a feed with the standard 14/50/20 windows.
func NewBaselineFeed() *BaselineFeed {
	return &BaselineFeed{
		atr:    newSMA(atrPeriod),
		price:  newSMA(pricePeriod),
		volume: newSMA(volumePeriod),
	}
}

// Update folds one bar into every window and returns the current baselines.
// Warm turns true once all three windows are full; before that the zone
// engine treats the values as undefined. True range needs a previous close,
// so the ATR window starts filling at the second bar.
func (f *BaselineFeed) Update(bar zone.Bar) zone.Baselines {
	if f.barCount > 0 {
		tr := math.Max(bar.High-bar.Low,
			math.Max(math.Abs(bar.High-f.prevClose), math.Abs(bar.Low-f.prevClose)))
		f.atr.update(tr)
	}
	f.price.update(bar.Close)
	f.volume.update(bar.Volume)
	f.prevClose = bar.Close
	f.barCount++

	warm := f.atr.ready() && f.price.ready() && f.volume.ready()
	if !warm {
		return zone.Baselines{}
	}
	return zone.Baselines{
		ATR14:      f.atr.value(),
		PriceMA50:  f.price.value(),
		VolumeMA20: f.volume.value(),
		Warm:       true,
	}
}
