package dsp

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"hapticsync/internal/config"
)

// TempoEstimator derives BPM from accepted beat timestamps. It keeps a
// bounded list of inter-beat intervals and blends their median and mean so a
// single outlier barely moves the estimate while genuine tempo drift still
// tracks smoothly.
type TempoEstimator struct {
	cfg           config.TempoConfig
	minIntervalMs float64 // From beat config: shorter intervals are double-triggers

	intervals []float64 // Accepted intervals in ms, oldest first
	scratch   []float64 // Sorted copy for the median
	lastBeat  time.Time
	hasLast   bool
}

// NewTempoEstimator creates an estimator. minIntervalMs mirrors the beat
// tracker's refractory period; intervals below it (or above MaxIntervalMs)
// are rejected as spurious double-triggers or octave errors.
func NewTempoEstimator(cfg config.TempoConfig, minIntervalMs int) *TempoEstimator {
	return &TempoEstimator{
		cfg:           cfg,
		minIntervalMs: float64(minIntervalMs),
		intervals:     make([]float64, 0, cfg.HistorySize),
		scratch:       make([]float64, 0, cfg.HistorySize),
	}
}

// AddBeat records an accepted beat timestamp. The first beat only seeds the
// interval chain.
func (te *TempoEstimator) AddBeat(ts time.Time) {
	if te.hasLast {
		interval := float64(ts.Sub(te.lastBeat)) / float64(time.Millisecond)
		if interval >= te.minIntervalMs && interval <= float64(te.cfg.MaxIntervalMs) {
			if len(te.intervals) == te.cfg.HistorySize {
				te.intervals = append(te.intervals[:0], te.intervals[1:]...)
			}
			te.intervals = append(te.intervals, interval)
		}
	}
	te.lastBeat = ts
	te.hasLast = true
}

// BPM returns the current tempo estimate clamped to the configured range, or
// 0 while fewer than the minimum number of intervals have been accepted.
func (te *TempoEstimator) BPM() float64 {
	if len(te.intervals) < te.cfg.MinIntervals {
		return 0
	}

	te.scratch = append(te.scratch[:0], te.intervals...)
	sort.Float64s(te.scratch)

	median := stat.Quantile(0.5, stat.Empirical, te.scratch, nil)
	mean := stat.Mean(te.scratch, nil)

	blended := te.cfg.MedianWeight*median + (1-te.cfg.MedianWeight)*mean
	if blended <= 0 {
		return 0
	}

	bpm := 60000 / blended
	if bpm < te.cfg.BPMMin {
		bpm = te.cfg.BPMMin
	}
	if bpm > te.cfg.BPMMax {
		bpm = te.cfg.BPMMax
	}
	return bpm
}

// IntervalCount returns the number of accepted inter-beat intervals.
func (te *TempoEstimator) IntervalCount() int {
	return len(te.intervals)
}

// Reset discards all interval state, e.g. on a track change.
func (te *TempoEstimator) Reset() {
	te.intervals = te.intervals[:0]
	te.hasLast = false
}
