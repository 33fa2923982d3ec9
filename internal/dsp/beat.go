package dsp

import (
	"time"

	"hapticsync/internal/config"
)

// BeatType classifies what fired a detection.
type BeatType string

const (
	// BeatKick marks a detection driven by the narrow low-frequency band.
	BeatKick BeatType = "kick"
	// BeatEnergy marks a detection driven by broadband energy.
	BeatEnergy BeatType = "energy"
)

// BeatEvent is the per-tick beat decision. Events are created once per tick,
// immutable, and consumed synchronously; they are never persisted.
type BeatEvent struct {
	Detected   bool      `json:"detected"`
	Strength   float64   `json:"strength"`   // 0..1 relative excess of whichever path fired
	Confidence float64   `json:"confidence"` // 0..1 derived from energy variance
	BPM        float64   `json:"bpm"`        // 0 while unknown, else clamped tempo estimate
	Type       BeatType  `json:"type,omitempty"`
	Timestamp  time.Time `json:"-"`
}

// BeatTracker makes a beat/no-beat decision every tick. Detection combines a
// broadband energy threshold against the rolling mean with a narrow kick-band
// threshold: the broadband path catches sustained rhythmic builds, the kick
// path catches sharp percussive hits that broadband averaging dilutes.
//
// The tracker waits until the energy history holds enough samples for the
// mean and variance to be meaningful, then evaluates every tick, entering a
// refractory period of MinIntervalMs after each accepted detection. Two
// detected events are never closer than MinIntervalMs.
type BeatTracker struct {
	cfg     config.BeatConfig
	history *EnergyHistory
	// kickHistory tracks the kick band independently when configured.
	// By default the broadband mean stands in as a proxy for the kick
	// band's own statistics; the multiplier is lower because kick energy
	// is a narrower, naturally smaller signal.
	kickHistory *EnergyHistory
	tempo       *TempoEstimator

	lastBeat time.Time
	hasBeat  bool
}

// NewBeatTracker creates a tracker feeding accepted beats into tempo.
// tempo may be nil when tempo estimation is not wanted.
func NewBeatTracker(cfg config.BeatConfig, tempo *TempoEstimator) *BeatTracker {
	t := &BeatTracker{
		cfg:     cfg,
		history: NewEnergyHistory(cfg.HistorySize),
		tempo:   tempo,
	}
	if cfg.SeparateKickHistory {
		t.kickHistory = NewEnergyHistory(cfg.HistorySize)
	}
	return t
}

// History exposes the energy history for inspection and tests.
func (t *BeatTracker) History() *EnergyHistory { return t.history }

// Step evaluates one tick. total and kick are the frame's broadband and
// kick-band energies; now is the tick timestamp. Step always returns an
// event; Detected is false while warming up or cooling down.
func (t *BeatTracker) Step(total, kick float64, now time.Time) BeatEvent {
	t.history.Push(total)
	if t.kickHistory != nil {
		t.kickHistory.Push(kick)
	}

	event := BeatEvent{Timestamp: now}
	if t.tempo != nil {
		event.BPM = t.tempo.BPM()
	}

	// Still warming up: statistics are not meaningful yet.
	if t.history.Size() < t.cfg.MinSamples {
		return event
	}

	mean := t.history.Mean()
	variance := t.history.Variance()

	kickMean := mean
	if t.kickHistory != nil {
		kickMean = t.kickHistory.Mean()
	}

	// The variance floor suppresses detections during near-silent passages
	// where any blip clears the mean threshold.
	energyBeat := total > mean*t.cfg.Threshold && variance > t.cfg.VarianceFloor
	kickBeat := kickMean > 0 && kick > kickMean*t.cfg.KickMultiplier

	if !energyBeat && !kickBeat {
		return event
	}

	// Refractory period after the previous accepted detection.
	if t.hasBeat && now.Sub(t.lastBeat) < time.Duration(t.cfg.MinIntervalMs)*time.Millisecond {
		return event
	}

	var excess float64
	if energyBeat && mean > 0 {
		excess = total/(mean*t.cfg.Threshold) - 1
	}
	if kickBeat && kickMean > 0 {
		if e := kick/(kickMean*t.cfg.KickMultiplier) - 1; e > excess {
			excess = e
		}
	}

	event.Detected = true
	event.Strength = clamp01(excess)
	event.Confidence = clamp01(variance * 10)
	if kickBeat {
		event.Type = BeatKick
	} else {
		event.Type = BeatEnergy
	}

	t.lastBeat = now
	t.hasBeat = true

	if t.tempo != nil {
		t.tempo.AddBeat(now)
		event.BPM = t.tempo.BPM()
	}
	return event
}

// Reset clears all detection state, e.g. when playback stops.
func (t *BeatTracker) Reset() {
	t.history.Reset()
	if t.kickHistory != nil {
		t.kickHistory.Reset()
	}
	t.hasBeat = false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
