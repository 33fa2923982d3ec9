package dsp

import "hapticsync/internal/config"

// SpectralAnalyzer converts frequency-domain frames into band energies,
// spectral centroid and spectral flux. It keeps a single-slot copy of the
// previous frame's magnitudes for flux computation, overwritten each tick.
type SpectralAnalyzer struct {
	cfg      config.AnalysisConfig
	kickLow  float64
	kickHigh float64

	prev      []float64 // Previous tick's magnitudes
	prevValid bool
}

// NewSpectralAnalyzer creates an analyzer with the given band boundaries.
// The kick band range comes from the beat configuration since it exists only
// to feed the beat tracker.
func NewSpectralAnalyzer(cfg config.AnalysisConfig, kickLowHz, kickHighHz float64) *SpectralAnalyzer {
	return &SpectralAnalyzer{
		cfg:      cfg,
		kickLow:  kickLowHz,
		kickHigh: kickHighHz,
	}
}

// Analyze computes the feature set for one frame and stores the frame as the
// flux reference for the next tick. Degenerate input (nil, empty or zero-rate
// frames) yields zero-valued BandEnergies; Analyze never fails.
func (a *SpectralAnalyzer) Analyze(frame *FrequencyFrame) BandEnergies {
	if frame.Empty() {
		return BandEnergies{}
	}

	mags := frame.Magnitudes
	binHz := frame.SampleRate / (2 * float64(frame.BinCount))
	if binHz <= 0 {
		return BandEnergies{}
	}

	var out BandEnergies
	var bassN, midN, trebN, kickN int
	var total float64
	var centroidNum, centroidDen float64
	var peakMag float64

	fluxValid := a.prevValid && len(a.prev) == len(mags)

	for i, mag := range mags {
		freq := float64(i) * binHz
		total += mag

		switch {
		case freq >= a.cfg.BassLowHz && freq < a.cfg.BassHighHz:
			out.Bass += mag
			bassN++
		case freq >= a.cfg.BassHighHz && freq < a.cfg.MidHighHz:
			out.Mid += mag
			midN++
		case freq >= a.cfg.MidHighHz && freq < a.cfg.TrebleHighHz:
			out.Treble += mag
			trebN++
		}
		if freq >= a.kickLow && freq < a.kickHigh {
			out.Kick += mag
			kickN++
		}

		// Centroid and flux only consider the analysis-relevant range;
		// flux counts positive change only so decay does not register.
		if freq >= a.cfg.FluxLowHz && freq < a.cfg.FluxHighHz {
			centroidNum += freq * mag
			centroidDen += mag
			if fluxValid {
				if d := mag - a.prev[i]; d > 0 {
					out.Flux += d
				}
			}
		}

		if mag > peakMag {
			peakMag = mag
			out.PeakHz = freq
		}
	}

	if bassN > 0 {
		out.Bass /= float64(bassN)
	}
	if midN > 0 {
		out.Mid /= float64(midN)
	}
	if trebN > 0 {
		out.Treble /= float64(trebN)
	}
	if kickN > 0 {
		out.Kick /= float64(kickN)
	}
	out.Total = total / float64(len(mags))
	if centroidDen > 1e-9 {
		out.Centroid = centroidNum / centroidDen
	}
	out.Flux /= float64(len(mags))

	a.remember(mags)
	return out
}

// Reset drops the stored previous frame so the next tick reports zero flux.
func (a *SpectralAnalyzer) Reset() {
	a.prevValid = false
}

func (a *SpectralAnalyzer) remember(mags []float64) {
	if len(a.prev) != len(mags) {
		a.prev = make([]float64, len(mags))
	}
	copy(a.prev, mags)
	a.prevValid = true
}
