/*
Package dsp implements the per-tick analysis pipeline: spectral feature
extraction, rolling energy statistics, beat detection and tempo estimation.

All types in this package are driven by a single analysis loop. No method
blocks or allocates on the per-tick path, so the whole pipeline is safe to
run synchronously at display-refresh cadence.
*/
package dsp

// FrequencyFrame holds one tick's frequency-domain magnitudes. Magnitudes are
// normalized to 0..1. A frame is owned by the tick that produced it and is
// superseded, not mutated, by the next tick.
type FrequencyFrame struct {
	Magnitudes []float64 // One normalized magnitude per bin
	SampleRate float64   // Source sample rate in Hz
	BinCount   int       // Number of bins (transform size / 2)
}

// BinFrequency returns the center frequency in Hz for a bin index.
func (f *FrequencyFrame) BinFrequency(i int) float64 {
	if f.BinCount <= 0 || i < 0 || i >= len(f.Magnitudes) {
		return 0
	}
	return float64(i) * f.SampleRate / (2 * float64(f.BinCount))
}

// Empty reports whether the frame carries no usable data.
func (f *FrequencyFrame) Empty() bool {
	return f == nil || len(f.Magnitudes) == 0 || f.BinCount <= 0 || f.SampleRate <= 0
}

// BandEnergies is the per-tick spectral feature set. All values are derived
// once per tick and immutable afterwards.
type BandEnergies struct {
	Bass   float64 `json:"bass"`   // Mean magnitude in the bass band (0..1)
	Mid    float64 `json:"mid"`    // Mean magnitude in the mid band (0..1)
	Treble float64 `json:"treble"` // Mean magnitude in the treble band (0..1)
	Kick   float64 `json:"kick"`   // Mean magnitude in the narrow kick band (0..1)

	Total    float64 `json:"total"`    // Mean magnitude across all bins (0..1)
	Centroid float64 `json:"centroid"` // Magnitude-weighted mean frequency (Hz)
	Flux     float64 `json:"flux"`     // Positive frame-to-frame spectral change (>= 0)
	PeakHz   float64 `json:"peakHz"`   // Frequency of the strongest bin (Hz)
}
