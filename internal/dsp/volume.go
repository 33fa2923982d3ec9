package dsp

import "math"

// VolumeInfo summarizes the loudness of one time-domain frame.
type VolumeInfo struct {
	Average float64 `json:"average"` // Mean absolute amplitude (0..1)
	Max     float64 `json:"max"`     // Peak absolute amplitude (0..1)
	RMS     float64 `json:"rms"`     // Root mean square amplitude (0..1)
	Level   float64 `json:"level"`   // Perceptual level estimate (0..1)
}

// Volume computes loudness statistics for a normalized (-1..1) frame.
// An empty frame yields a zero-valued VolumeInfo.
func Volume(frame []float64) VolumeInfo {
	if len(frame) == 0 {
		return VolumeInfo{}
	}

	var sumAbs, sumSquare, peak float64
	for _, s := range frame {
		abs := math.Abs(s)
		sumAbs += abs
		sumSquare += s * s
		if abs > peak {
			peak = abs
		}
	}

	n := float64(len(frame))
	rms := math.Sqrt(sumSquare / n)

	// RMS of a full-scale sine is ~0.707; doubling gives a level that
	// reaches 1.0 on loud material without clipping quiet passages to 0.
	level := rms * 2
	if level > 1 {
		level = 1
	}

	return VolumeInfo{
		Average: sumAbs / n,
		Max:     peak,
		RMS:     rms,
		Level:   level,
	}
}
