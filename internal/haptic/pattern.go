package haptic

import (
	"hapticsync/internal/config"
	"hapticsync/internal/dsp"
)

// Trigger identifies which detection produced a command.
type Trigger string

const (
	TriggerBeat      Trigger = "beat"
	TriggerTransient Trigger = "transient"
	TriggerSwell     Trigger = "swell"
)

// Command is one vibration instruction: an ordered sequence of on/off
// pulses, at least one pair long, every duration clamped into the configured
// range. Commands are immutable once built and consumed exactly once by the
// scheduler.
type Command struct {
	Pattern []PulsePair `json:"pattern"`
	Trigger Trigger     `json:"trigger"`
}

// Mapper turns per-tick analysis results into vibration commands using a
// strict priority order: a beat always pre-empts a frequency transient,
// which pre-empts a volume swell. The mapper keeps the previous tick's band
// and volume levels to detect transients and swells.
type Mapper struct {
	cfg config.PatternConfig

	prevBass   float64
	prevTreble float64
	prevVolume float64
	warm       bool
}

// NewMapper creates a mapper with the given presets and thresholds.
func NewMapper(cfg config.PatternConfig) *Mapper {
	return &Mapper{cfg: cfg}
}

// Map evaluates one tick and returns a command, or nil when nothing warrants
// actuation. vibrating reports whether the actuator is currently mid-pattern;
// swells are suppressed while it is.
func (m *Mapper) Map(beat dsp.BeatEvent, bands dsp.BandEnergies, volume float64, vibrating bool) *Command {
	bassJump := bands.Bass - m.prevBass
	trebleJump := bands.Treble - m.prevTreble
	volumeJump := volume - m.prevVolume
	warm := m.warm

	m.prevBass = bands.Bass
	m.prevTreble = bands.Treble
	m.prevVolume = volume
	m.warm = true

	if beat.Detected {
		return m.beatCommand(beat)
	}
	if !warm {
		return nil
	}

	bassTransient := bassJump > m.cfg.BassDelta && bands.Bass > m.cfg.BassFloor
	trebleTransient := trebleJump > m.cfg.TrebleDelta && bands.Treble > m.cfg.TrebleFloor
	if bassTransient || trebleTransient {
		return m.transientCommand(bands.Bass)
	}

	if volumeJump > m.cfg.VolumeDelta && volume > m.cfg.VolumeFloor && !vibrating {
		return m.swellCommand(volume)
	}

	return nil
}

// Reset clears the previous-tick reference levels, e.g. on a track change.
func (m *Mapper) Reset() {
	m.prevBass = 0
	m.prevTreble = 0
	m.prevVolume = 0
	m.warm = false
}

// beatCommand selects a pattern from the beat's type, strength and tempo.
func (m *Mapper) beatCommand(beat dsp.BeatEvent) *Command {
	var pattern []PulsePair

	if beat.Type == dsp.BeatKick {
		// Kick hits get a single sharp pulse whose duration scales with
		// strength, with a heavier tier for strong hits.
		base := m.cfg.KickBaseMs
		if beat.Strength >= m.cfg.StrongThreshold {
			base = m.cfg.KickStrongMs
		}
		duration := int(beat.Strength * float64(base))
		pattern = []PulsePair{{OnMs: duration}}
	} else {
		switch {
		case beat.Strength >= m.cfg.StrongThreshold:
			pattern = pairsFromPreset(m.cfg.StrongBeat)
		case beat.Strength >= m.cfg.MediumThreshold:
			pattern = pairsFromPreset(m.cfg.Beat)
		default:
			pattern = pairsFromPreset(m.cfg.LightBeat)
		}
	}

	// At fast tempos long pulses would overlap the next beat, so shorten
	// the on-durations.
	if beat.BPM > 0 && 60000/beat.BPM < float64(m.cfg.FastTempoMs) {
		for i := range pattern {
			if pattern[i].OnMs > m.cfg.FastTempoCapMs {
				pattern[i].OnMs = m.cfg.FastTempoCapMs
			}
		}
	}

	return m.finish(pattern, TriggerBeat)
}

// transientCommand maps a frequency transient to a pulse proportional to
// bass energy. Sub-threshold durations are dropped rather than emitted as
// imperceptible blips.
func (m *Mapper) transientCommand(bass float64) *Command {
	intensity := bass * m.cfg.BassMultiplier
	if intensity > 1 {
		intensity = 1
	}
	duration := int(intensity * float64(m.cfg.MaxDurationMs))
	if duration < m.cfg.MinTransientMs {
		return nil
	}
	return m.finish([]PulsePair{{OnMs: duration}}, TriggerTransient)
}

// swellCommand maps a volume swell to a short pulse proportional to volume.
func (m *Mapper) swellCommand(volume float64) *Command {
	duration := int(volume * float64(m.cfg.SwellMaxMs))
	return m.finish([]PulsePair{{OnMs: duration}}, TriggerSwell)
}

// finish clamps every duration into the configured range and wraps the
// pattern. Returns nil for empty patterns so callers can pass it through.
func (m *Mapper) finish(pattern []PulsePair, trigger Trigger) *Command {
	if len(pattern) == 0 {
		return nil
	}
	for i := range pattern {
		pattern[i].OnMs = clampMs(pattern[i].OnMs, m.cfg.MinPulseMs, m.cfg.MaxDurationMs)
		pattern[i].OffMs = clampMs(pattern[i].OffMs, 0, m.cfg.MaxDurationMs)
	}
	return &Command{Pattern: pattern, Trigger: trigger}
}

// pairsFromPreset converts an alternating on/off duration list into pulse
// pairs. A trailing on-duration without an off simply ends the pattern.
func pairsFromPreset(preset []int) []PulsePair {
	pairs := make([]PulsePair, 0, (len(preset)+1)/2)
	for i := 0; i < len(preset); i += 2 {
		p := PulsePair{OnMs: preset[i]}
		if i+1 < len(preset) {
			p.OffMs = preset[i+1]
		}
		pairs = append(pairs, p)
	}
	return pairs
}

func clampMs(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
