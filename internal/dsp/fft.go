// SPDX-License-Identifier: MIT
package dsp

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"hapticsync/internal/config"
	"hapticsync/pkg/bitint"
)

// fftWorkspace holds pre-allocated buffers so the per-tick path is
// allocation free.
type fftWorkspace struct {
	input     []float64    // Windowed, normalized input samples
	output    []complex128 // FFT complex output
	magnitude []float64    // Raw magnitudes
	smoothed  []float64    // dB-normalized, temporally smoothed magnitudes
	window    []float64    // Pre-computed Hann coefficients
	timeNorm  []float64    // Normalized time-domain copy for volume stats
}

// FFTFrontend turns raw int32 capture buffers into normalized
// FrequencyFrames. Magnitudes are converted to decibels, mapped into 0..1
// between the configured floor and ceiling, and temporally smoothed with an
// exponential moving average, so downstream thresholds see stable values.
type FFTFrontend struct {
	fftSize    int
	sampleRate float64
	smoothing  float64
	dbFloor    float64
	dbCeiling  float64
	fftObj     *fourier.FFT
	workspace  fftWorkspace
	frame      FrequencyFrame
	warm       bool
}

// NewFFTFrontend creates a frontend for the given analysis configuration.
// The transform size must be a power of 2 and the sample rate positive.
func NewFFTFrontend(cfg config.AnalysisConfig, sampleRate float64) (*FFTFrontend, error) {
	if !bitint.IsPowerOfTwo(cfg.TransformSize) {
		return nil, fmt.Errorf("transform size must be a power of 2, got %d", cfg.TransformSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}

	size := cfg.TransformSize
	coeffs := make([]float64, size)
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	window.Hann(coeffs)

	// Real-input FFT yields N/2 + 1 complex values; the engine works with
	// the N/2 magnitude bins below Nyquist.
	outputSize := size/2 + 1

	return &FFTFrontend{
		fftSize:    size,
		sampleRate: sampleRate,
		smoothing:  cfg.SmoothingFactor,
		dbFloor:    cfg.DecibelFloor,
		dbCeiling:  cfg.DecibelCeiling,
		fftObj:     fourier.NewFFT(size),
		workspace: fftWorkspace{
			input:     make([]float64, size),
			output:    make([]complex128, outputSize),
			magnitude: make([]float64, outputSize),
			smoothed:  make([]float64, size/2),
			window:    coeffs,
			timeNorm:  make([]float64, size),
		},
	}, nil
}

// Process runs one transform over the input buffer and returns the
// normalized frame. The buffer is zero-padded if shorter than the transform
// size. The returned frame references internal buffers and is valid until
// the next Process call; callers needing the data longer must copy it.
func (f *FFTFrontend) Process(buffer []int32) *FrequencyFrame {
	const norm = 1.0 / float64(math.MaxInt32)

	for i := range f.fftSize {
		if i < len(buffer) {
			s := float64(buffer[i]) * norm
			f.workspace.timeNorm[i] = s
			f.workspace.input[i] = s * f.workspace.window[i]
		} else {
			f.workspace.timeNorm[i] = 0
			f.workspace.input[i] = 0
		}
	}

	f.fftObj.Coefficients(f.workspace.output, f.workspace.input)

	// Scale to per-bin amplitude, convert to dBFS, map the configured dB
	// range onto 0..1 and smooth against the previous tick.
	ampScale := 2.0 / float64(f.fftSize)
	dbRange := f.dbCeiling - f.dbFloor
	for i := range f.workspace.smoothed {
		mag := cmplx.Abs(f.workspace.output[i])
		f.workspace.magnitude[i] = mag

		amp := mag * ampScale
		db := 20 * math.Log10(amp+1e-12)
		v := (db - f.dbFloor) / dbRange
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}

		if f.warm {
			prev := f.workspace.smoothed[i]
			f.workspace.smoothed[i] = f.smoothing*prev + (1-f.smoothing)*v
		} else {
			f.workspace.smoothed[i] = v
		}
	}
	f.warm = true

	f.frame = FrequencyFrame{
		Magnitudes: f.workspace.smoothed,
		SampleRate: f.sampleRate,
		BinCount:   f.fftSize / 2,
	}
	return &f.frame
}

// TimeDomain returns the normalized (-1..1) copy of the last processed
// buffer, for volume statistics. Valid until the next Process call.
func (f *FFTFrontend) TimeDomain() []float64 {
	return f.workspace.timeNorm
}

// Reset clears smoothing state so a new source starts from fresh magnitudes.
func (f *FFTFrontend) Reset() {
	f.warm = false
	for i := range f.workspace.smoothed {
		f.workspace.smoothed[i] = 0
	}
}

// FFTSize returns the configured transform size.
func (f *FFTFrontend) FFTSize() int { return f.fftSize }

// SampleRate returns the configured sample rate in Hz.
func (f *FFTFrontend) SampleRate() float64 { return f.sampleRate }
