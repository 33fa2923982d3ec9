package haptic

import (
	"sync"
	"time"

	"hapticsync/internal/config"
	"hapticsync/internal/dsp"
	applog "hapticsync/internal/log"
)

// Scheduler rate-limits actuation, compensates for measured actuator latency
// and optionally pre-triggers ahead of a predicted audio event time.
//
// The actuation call itself is fire-and-forget: Dispatch hands the pattern to
// a goroutine and returns without waiting, but the round-trip time until the
// actuator acknowledges is recorded for latency learning. The mutex exists
// for that acknowledgment path and for timer callbacks; the analysis loop
// itself is single-threaded.
type Scheduler struct {
	cfg        config.SyncConfig
	minPulseMs int
	actuator   Actuator
	clock      Clock
	supported  bool

	mu             sync.Mutex
	lastActuation  time.Time
	hasActuation   bool
	vibrating      bool
	vibrateTimer   Timer
	vibrateSeq     uint64
	latency        *dsp.EnergyHistory // Round-trip samples in ms
	averageLatency float64
	compensationMs float64
	pending        Timer
}

// NewScheduler creates a scheduler for the given actuator. The actuator's
// capability is probed once here; an unsupported actuator degrades the
// scheduler to a no-op that computes but never dispatches. minPulseMs floors
// the first on-duration after compensation is subtracted.
func NewScheduler(cfg config.SyncConfig, minPulseMs int, actuator Actuator, clock Clock) *Scheduler {
	if actuator == nil {
		actuator = NopActuator{}
	}
	if clock == nil {
		clock = SystemClock()
	}
	supported := actuator.IsSupported()
	if !supported {
		applog.Warnf("haptic: actuator unsupported, commands will be computed but not dispatched")
	}
	return &Scheduler{
		cfg:        cfg,
		minPulseMs: minPulseMs,
		actuator:   actuator,
		clock:      clock,
		supported:  supported,
		latency:    dsp.NewEnergyHistory(cfg.LatencyHistorySize),
	}
}

// Dispatch sends a command now, subject to rate limiting. Returns whether
// the command was handed to the actuator.
func (s *Scheduler) Dispatch(cmd *Command) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatchLocked(cmd)
}

// DispatchAt schedules a command for a target audio timestamp. Targets in
// the past dispatch immediately; future targets arm a timer that fires
// predicted-latency early so the vibration lands on the audible event.
// A newly scheduled command replaces any still-pending one.
func (s *Scheduler) DispatchAt(cmd *Command, target time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cmd == nil || !s.supported {
		return false
	}

	now := s.clock.Now()
	if !target.After(now) {
		return s.dispatchLocked(cmd)
	}

	predicted := time.Duration(s.predictedLatencyLocked()) * time.Millisecond
	delay := target.Sub(now) - predicted
	if delay < 0 {
		delay = 0
	}

	if s.pending != nil {
		s.pending.Cancel()
	}
	s.pending = s.clock.AfterFunc(delay, func() {
		s.mu.Lock()
		s.pending = nil
		s.dispatchLocked(cmd)
		s.mu.Unlock()
	})
	return true
}

// Stop cancels any pending scheduled dispatch and halts ongoing vibration.
// It is idempotent and does not block future dispatches.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		s.pending.Cancel()
		s.pending = nil
	}
	if s.supported {
		s.actuator.Stop()
	}
	s.clearVibrateLocked()
	// A stop marks a deliberate break in the stream, so the next dispatch
	// is not held back by the rate limiter.
	s.hasActuation = false
}

// Reset clears session state for a new playback source. Learned latency and
// compensation survive unless the configuration says to drop them.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		s.pending.Cancel()
		s.pending = nil
	}
	s.clearVibrateLocked()
	s.hasActuation = false
	if s.cfg.ResetLatencyOnStop {
		s.latency.Reset()
		s.averageLatency = 0
		s.compensationMs = 0
	}
}

// IsVibrating reports whether a dispatched pattern is assumed active.
func (s *Scheduler) IsVibrating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vibrating
}

// Compensation returns the current latency compensation in milliseconds.
func (s *Scheduler) Compensation() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compensationMs
}

// AverageLatency returns the rolling average actuator round trip in ms.
func (s *Scheduler) AverageLatency() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.averageLatency
}

// LatencySamples returns the number of recorded round-trip samples.
func (s *Scheduler) LatencySamples() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latency.Size()
}

// Supported reports whether a usable actuator was found at construction.
func (s *Scheduler) Supported() bool { return s.supported }

func (s *Scheduler) dispatchLocked(cmd *Command) bool {
	if cmd == nil || len(cmd.Pattern) == 0 || !s.supported {
		return false
	}

	now := s.clock.Now()
	interval := time.Duration(s.cfg.MinActuationIntervalMs) * time.Millisecond
	if s.hasActuation && now.Sub(s.lastActuation) < interval {
		return false
	}

	pattern := s.compensate(cmd.Pattern)

	s.lastActuation = now
	s.hasActuation = true
	s.vibrating = true
	s.armVibrateClearLocked(pattern)

	go func() {
		ok := s.actuator.Trigger(pattern)
		ack := s.clock.Now()
		s.recordLatency(ack.Sub(now), ok)
	}()
	return true
}

func (s *Scheduler) clearVibrateLocked() {
	if s.vibrateTimer != nil {
		s.vibrateTimer.Cancel()
		s.vibrateTimer = nil
	}
	s.vibrateSeq++
	s.vibrating = false
}

// armVibrateClearLocked schedules vibrating to flip back once the dispatched
// pattern's total on+off time has elapsed. The sequence number keeps a timer
// armed for an earlier pattern from clearing the state of a newer one.
func (s *Scheduler) armVibrateClearLocked(pattern []PulsePair) {
	if s.vibrateTimer != nil {
		s.vibrateTimer.Cancel()
	}
	total := 0
	for _, p := range pattern {
		total += p.OnMs + p.OffMs
	}
	s.vibrateSeq++
	seq := s.vibrateSeq
	s.vibrateTimer = s.clock.AfterFunc(time.Duration(total)*time.Millisecond, func() {
		s.mu.Lock()
		if s.vibrateSeq == seq {
			s.vibrating = false
			s.vibrateTimer = nil
		}
		s.mu.Unlock()
	})
}

// compensate copies the pattern with the measured latency subtracted from
// the first on-duration, floored at the minimum pulse width.
func (s *Scheduler) compensate(pattern []PulsePair) []PulsePair {
	out := make([]PulsePair, len(pattern))
	copy(out, pattern)
	if s.compensationMs > 0 {
		first := out[0].OnMs - int(s.compensationMs)
		if first < s.minPulseMs {
			first = s.minPulseMs
		}
		out[0].OnMs = first
	}
	return out
}

func (s *Scheduler) recordLatency(rtt time.Duration, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !ok {
		applog.Debugf("haptic: actuator rejected pattern")
		return
	}

	ms := float64(rtt) / float64(time.Millisecond)
	s.latency.Push(ms)
	s.averageLatency = s.latency.Mean()

	if s.cfg.Adaptive && s.latency.Size() >= s.cfg.LatencyMinSamples {
		comp := s.averageLatency
		if comp < 0 {
			comp = 0
		}
		if comp > float64(s.cfg.MaxCompensationMs) {
			comp = float64(s.cfg.MaxCompensationMs)
		}
		s.compensationMs = comp
	}
}

// predictedLatencyLocked returns the rolling average when history exists,
// else the configured fallback.
func (s *Scheduler) predictedLatencyLocked() float64 {
	if s.latency.Size() > 0 {
		return s.averageLatency
	}
	return float64(s.cfg.PredictedLatencyMs)
}
