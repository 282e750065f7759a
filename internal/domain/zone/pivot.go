package zone

// Proposal is a candidate zone produced by the PivotDetector for the
// Manager to ingest.
type Proposal struct {
	IsSupport   bool
	Center      float64
	Width       float64
	Volume      float64 // volume at the formation bar
	VolumeRatio float64 // formation volume relative to the volume baseline
}

// volumeFilterMult is the minimum formation-bar volume relative to the
// 20-bar volume baseline for a pivot to qualify.
const volumeFilterMult = 1.2

// PivotDetector finds confirmed local extrema using a symmetric window of
// length bars on each side. A candidate at position i is only confirmed once
// length further bars have been observed, so detection lags by length bars.
type PivotDetector struct {
	length    int
	widthMult float64
	window    []pivotBar
}

type pivotBar struct {
	bar  Bar
	base Baselines
}

// NewPivotDetector creates a detector for the given symmetric pivot length
// and zone width multiplier.
func NewPivotDetector(length int, widthMult float64) *PivotDetector {
	return &PivotDetector{
		length:    length,
		widthMult: widthMult,
		window:    make([]pivotBar, 0, 2*length+1),
	}
}

// Observe appends a bar and returns the proposals it confirms, if any.
// A pivot high proposes a resistance zone only in a down-trend context
// (close below the 50-bar price baseline) with formation volume at least
// 1.2x the 20-bar volume baseline; a pivot low proposes a support zone
// under the symmetric conditions. Pivots whose baselines are still warming
// up never propose.
func (d *PivotDetector) Observe(bar Bar, base Baselines) []Proposal {
	d.window = append(d.window, pivotBar{bar: bar, base: base})
	if len(d.window) > 2*d.length+1 {
		d.window = d.window[1:]
	}
	if len(d.window) < 2*d.length+1 {
		return nil
	}

	candidate := d.window[d.length]
	if !candidate.base.Warm || candidate.base.ATR14 <= 0 || candidate.base.VolumeMA20 <= 0 {
		return nil
	}

	var proposals []Proposal
	if d.isPivotHigh() && d.qualifies(candidate, false) {
		proposals = append(proposals, d.propose(candidate, false, candidate.bar.High))
	}
	if d.isPivotLow() && d.qualifies(candidate, true) {
		proposals = append(proposals, d.propose(candidate, true, candidate.bar.Low))
	}
	return proposals
}

// isPivotHigh reports whether the candidate's high strictly exceeds every
// other high in the window. Ties disqualify.
func (d *PivotDetector) isPivotHigh() bool {
	candidate := d.window[d.length]
	for i, pb := range d.window {
		if i == d.length {
			continue
		}
		if pb.bar.High >= candidate.bar.High {
			return false
		}
	}
	return true
}

func (d *PivotDetector) isPivotLow() bool {
	candidate := d.window[d.length]
	for i, pb := range d.window {
		if i == d.length {
			continue
		}
		if pb.bar.Low <= candidate.bar.Low {
			return false
		}
	}
	return true
}

// qualifies applies the trend and volume filters at the pivot bar. A pivot
// high only matters when price is already below its 50-bar baseline, a pivot
// low when above; both require elevated formation volume.
func (d *PivotDetector) qualifies(candidate pivotBar, isSupport bool) bool {
	if candidate.bar.Volume < volumeFilterMult*candidate.base.VolumeMA20 {
		return false
	}
	if isSupport {
		return candidate.bar.Close > candidate.base.PriceMA50
	}
	return candidate.bar.Close < candidate.base.PriceMA50
}

func (d *PivotDetector) propose(candidate pivotBar, isSupport bool, center float64) Proposal {
	return Proposal{
		IsSupport:   isSupport,
		Center:      center,
		Width:       d.widthMult * candidate.base.ATR14,
		Volume:      candidate.bar.Volume,
		VolumeRatio: candidate.bar.Volume / candidate.base.VolumeMA20,
	}
}
