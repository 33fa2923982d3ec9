// SPDX-License-Identifier: MIT
/*
Package engine wires the analysis pipeline to vibration output. One Engine
instance owns all mutable analysis state and is driven by a single tick
loop: raw buffer -> FFT -> spectral features -> beat/tempo -> pattern
mapping -> scheduler. Data flows one direction per tick; nothing in the
analysis path blocks.
*/
package engine

import (
	"fmt"
	"math"

	"hapticsync/internal/config"
	"hapticsync/internal/dsp"
	"hapticsync/internal/haptic"
	applog "hapticsync/internal/log"
)

// FrequencyResult extends the band energies with a derived brightness value
// (centroid normalized to Nyquist).
type FrequencyResult struct {
	dsp.BandEnergies
	Brightness float64 `json:"brightness"`
}

// AnalysisResult is the full per-tick analysis output. It is returned to the
// caller and offered on the results channel; it is never mutated afterwards.
type AnalysisResult struct {
	Volume      dsp.VolumeInfo  `json:"volume"`
	Frequency   FrequencyResult `json:"frequency"`
	Beat        dsp.BeatEvent   `json:"beat"`
	TimestampMs int64           `json:"timestampMs"`
}

// Engine is the analysis-and-synchronization core. All state is confined to
// the one goroutine calling Tick/Analyze/ProcessAudioData; the scheduler
// handles its own cross-goroutine boundaries.
type Engine struct {
	cfg *config.Config

	fft       *dsp.FFTFrontend
	analyzer  *dsp.SpectralAnalyzer
	tempo     *dsp.TempoEstimator
	tracker   *dsp.BeatTracker
	mapper    *haptic.Mapper
	scheduler *haptic.Scheduler
	clock     haptic.Clock

	vibrationEnabled bool
	gateThreshold    int32

	results chan AnalysisResult
}

// New constructs an engine from configuration. The actuator capability is
// probed once here; an unsupported actuator leaves the analysis side fully
// functional while commands are computed but never dispatched. clock may be
// nil for the system clock.
func New(cfg *config.Config, actuator haptic.Actuator, clock haptic.Clock) (*Engine, error) {
	cfg.Clamp()
	if clock == nil {
		clock = haptic.SystemClock()
	}

	fft, err := dsp.NewFFTFrontend(cfg.Analysis, cfg.Audio.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("analysis context unavailable: %w", err)
	}

	tempo := dsp.NewTempoEstimator(cfg.Tempo, cfg.Beat.MinIntervalMs)

	e := &Engine{
		cfg:              cfg,
		fft:              fft,
		analyzer:         dsp.NewSpectralAnalyzer(cfg.Analysis, cfg.Beat.KickLowHz, cfg.Beat.KickHighHz),
		tempo:            tempo,
		tracker:          dsp.NewBeatTracker(cfg.Beat, tempo),
		mapper:           haptic.NewMapper(cfg.Pattern),
		scheduler:        haptic.NewScheduler(cfg.Sync, cfg.Pattern.MinPulseMs, actuator, clock),
		clock:            clock,
		vibrationEnabled: true,
		gateThreshold:    int32(cfg.Audio.GateThreshold * float64(math.MaxInt32)),
		results:          make(chan AnalysisResult, 8),
	}

	applog.Infof("engine: initialized (transform: %d, sample rate: %.0f Hz, actuator supported: %v)",
		cfg.Analysis.TransformSize, cfg.Audio.SampleRate, e.scheduler.Supported())
	return e, nil
}

// Tick runs one full analysis pass over a raw capture buffer and feeds the
// result to the vibration side. Buffers quieter than the gate threshold skip
// spectral analysis entirely, leaving all detection state untouched.
func (e *Engine) Tick(buffer []int32) AnalysisResult {
	if len(buffer) == 0 || e.peak(buffer) < e.gateThreshold {
		res := AnalysisResult{TimestampMs: e.clock.Now().UnixMilli()}
		e.offer(res)
		return res
	}

	frame := e.fft.Process(buffer)
	res := e.Analyze(e.fft.TimeDomain(), frame)
	e.ProcessAudioData(res)
	e.offer(res)
	return res
}

// Analyze computes the per-tick analysis result from a normalized
// time-domain frame and a frequency-domain frame. It never fails: malformed
// input yields a zero-valued result and previous state stays untouched.
func (e *Engine) Analyze(timeFrame []float64, freqFrame *dsp.FrequencyFrame) AnalysisResult {
	now := e.clock.Now()
	res := AnalysisResult{TimestampMs: now.UnixMilli()}

	if freqFrame.Empty() {
		return res
	}

	res.Volume = dsp.Volume(timeFrame)

	bands := e.analyzer.Analyze(freqFrame)
	res.Frequency = FrequencyResult{BandEnergies: bands}
	if nyquist := freqFrame.SampleRate / 2; nyquist > 0 {
		res.Frequency.Brightness = bands.Centroid / nyquist
	}

	res.Beat = e.tracker.Step(bands.Total, bands.Kick, now)
	return res
}

// ProcessAudioData maps an analysis result to a vibration command and hands
// it to the scheduler. It silently no-ops when vibration is disabled; an
// unsupported actuator is the scheduler's degradation to handle.
func (e *Engine) ProcessAudioData(res AnalysisResult) {
	if !e.vibrationEnabled {
		return
	}
	cmd := e.mapper.Map(res.Beat, res.Frequency.BandEnergies, res.Volume.Level, e.scheduler.IsVibrating())
	if cmd == nil {
		return
	}
	if e.scheduler.Dispatch(cmd) {
		applog.Debugf("engine: dispatched %s pattern (%d pairs)", cmd.Trigger, len(cmd.Pattern))
	}
}

// Results returns a bounded channel of analysis results for observers such
// as the TUI or transports. Results are dropped, never blocked on, when the
// consumer lags.
func (e *Engine) Results() <-chan AnalysisResult {
	return e.results
}

// Scheduler exposes the vibration scheduler for status readouts.
func (e *Engine) Scheduler() *haptic.Scheduler { return e.scheduler }

// SetVibrationEnabled toggles the vibration side of the pipeline. Disabling
// stops any ongoing vibration.
func (e *Engine) SetVibrationEnabled(enabled bool) {
	e.vibrationEnabled = enabled
	if !enabled {
		e.scheduler.Stop()
	}
}

// Reset flushes all per-session analysis state for a pause, stop or track
// change: energy history, tempo intervals, flux reference, pattern reference
// levels and any pending scheduled dispatch. Latency learning survives per
// configuration.
func (e *Engine) Reset() {
	e.fft.Reset()
	e.analyzer.Reset()
	e.tracker.Reset()
	e.tempo.Reset()
	e.mapper.Reset()
	e.scheduler.Reset()
	applog.Debugf("engine: state reset")
}

// Close stops vibration and releases the engine. The results channel stays
// open; readers observe silence rather than a close race.
func (e *Engine) Close() {
	e.scheduler.Stop()
}

// peak returns the maximum absolute sample amplitude.
func (e *Engine) peak(buffer []int32) int32 {
	var peak int32
	for _, s := range buffer {
		if s < 0 {
			// Negate via subtraction so MinInt32 saturates instead of
			// overflowing.
			if s == math.MinInt32 {
				return math.MaxInt32
			}
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return peak
}

// offer pushes a result to observers without ever blocking the tick loop.
func (e *Engine) offer(res AnalysisResult) {
	select {
	case e.results <- res:
	default:
	}
}
