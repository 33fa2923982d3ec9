package haptic

import (
	"testing"

	"hapticsync/internal/config"
	"hapticsync/internal/dsp"
)

// warmMapper returns a mapper that has seen one quiet tick, so jump
// detection has a reference level.
func warmMapper() *Mapper {
	m := NewMapper(config.New().Pattern)
	m.Map(dsp.BeatEvent{}, dsp.BandEnergies{Bass: 0.2, Treble: 0.1}, 0.2, false)
	return m
}

func TestMapFirstTickNeverFires(t *testing.T) {
	m := NewMapper(config.New().Pattern)

	// Loud first tick: without a previous level there is no jump to
	// measure, so only a beat may fire.
	cmd := m.Map(dsp.BeatEvent{}, dsp.BandEnergies{Bass: 0.9, Treble: 0.9}, 0.9, false)
	if cmd != nil {
		t.Errorf("command on first tick without a beat: %+v", cmd)
	}
}

func TestMapPriorityOrder(t *testing.T) {
	// Beat plus transient plus swell conditions all at once: the beat wins.
	m := warmMapper()
	cmd := m.Map(
		dsp.BeatEvent{Detected: true, Strength: 0.6},
		dsp.BandEnergies{Bass: 0.9, Treble: 0.9},
		0.9, false,
	)
	if cmd == nil || cmd.Trigger != TriggerBeat {
		t.Fatalf("command = %+v, want beat trigger", cmd)
	}

	// Transient plus swell conditions: the transient wins.
	m = warmMapper()
	cmd = m.Map(dsp.BeatEvent{}, dsp.BandEnergies{Bass: 0.9, Treble: 0.9}, 0.9, false)
	if cmd == nil || cmd.Trigger != TriggerTransient {
		t.Fatalf("command = %+v, want transient trigger", cmd)
	}
}

func TestMapBeatStrengthTiers(t *testing.T) {
	cfg := config.New().Pattern

	tests := []struct {
		name     string
		strength float64
		want     []PulsePair
	}{
		{"strong", 0.9, []PulsePair{{OnMs: 150, OffMs: 50}, {OnMs: 100}}},
		{"medium", 0.6, []PulsePair{{OnMs: 100}}},
		{"light", 0.2, []PulsePair{{OnMs: 50}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMapper(cfg)
			cmd := m.Map(dsp.BeatEvent{Detected: true, Strength: tt.strength, Type: dsp.BeatEnergy}, dsp.BandEnergies{}, 0, false)
			if cmd == nil {
				t.Fatal("no command for detected beat")
			}
			if len(cmd.Pattern) != len(tt.want) {
				t.Fatalf("pattern = %+v, want %+v", cmd.Pattern, tt.want)
			}
			for i := range tt.want {
				if cmd.Pattern[i] != tt.want[i] {
					t.Errorf("pair %d = %+v, want %+v", i, cmd.Pattern[i], tt.want[i])
				}
			}
		})
	}
}

func TestMapKickDurationScalesWithStrength(t *testing.T) {
	cfg := config.New().Pattern

	tests := []struct {
		name     string
		strength float64
		wantOnMs int
	}{
		// Below the strong tier the base duration applies.
		{"moderate kick", 0.5, int(0.5 * float64(cfg.KickBaseMs))},
		// At or above the strong tier the heavier base applies.
		{"strong kick", 0.9, int(0.9 * float64(cfg.KickStrongMs))},
		// Tiny products clamp up to the minimum perceivable pulse.
		{"weak kick clamps up", 0.05, cfg.MinPulseMs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMapper(cfg)
			cmd := m.Map(dsp.BeatEvent{Detected: true, Strength: tt.strength, Type: dsp.BeatKick}, dsp.BandEnergies{}, 0, false)
			if cmd == nil {
				t.Fatal("no command for detected kick")
			}
			if len(cmd.Pattern) != 1 || cmd.Pattern[0].OnMs != tt.wantOnMs {
				t.Errorf("pattern = %+v, want single pulse of %dms", cmd.Pattern, tt.wantOnMs)
			}
		})
	}
}

func TestMapFastTempoCapsPulses(t *testing.T) {
	cfg := config.New().Pattern
	m := NewMapper(cfg)

	// 180 BPM is a 333ms beat period, under the fast-tempo threshold, so
	// every on-duration is capped.
	cmd := m.Map(dsp.BeatEvent{Detected: true, Strength: 0.9, Type: dsp.BeatEnergy, BPM: 180}, dsp.BandEnergies{}, 0, false)
	if cmd == nil {
		t.Fatal("no command for detected beat")
	}
	for i, p := range cmd.Pattern {
		if p.OnMs > cfg.FastTempoCapMs {
			t.Errorf("pair %d OnMs = %d at fast tempo, want <= %d", i, p.OnMs, cfg.FastTempoCapMs)
		}
	}
}

func TestMapTransientDuration(t *testing.T) {
	cfg := config.New().Pattern

	// Bass 0.6 after 0.2: a 0.4 jump over the floor. Intensity is bass
	// times the multiplier, duration proportional to the maximum.
	m := warmMapper()
	cmd := m.Map(dsp.BeatEvent{}, dsp.BandEnergies{Bass: 0.6}, 0.2, false)
	if cmd == nil || cmd.Trigger != TriggerTransient {
		t.Fatalf("command = %+v, want transient", cmd)
	}
	want := int(0.6 * cfg.BassMultiplier * float64(cfg.MaxDurationMs))
	if cmd.Pattern[0].OnMs != want {
		t.Errorf("OnMs = %d, want %d", cmd.Pattern[0].OnMs, want)
	}

	// Full-scale bass saturates intensity at 1 and the duration clamps to
	// the maximum.
	m = warmMapper()
	cmd = m.Map(dsp.BeatEvent{}, dsp.BandEnergies{Bass: 0.95}, 0.2, false)
	if cmd == nil || cmd.Pattern[0].OnMs != cfg.MaxDurationMs {
		t.Fatalf("command = %+v, want OnMs %d", cmd, cfg.MaxDurationMs)
	}
}

func TestMapTransientBelowMinDropped(t *testing.T) {
	// A treble transient with almost no bass energy maps to a pulse too
	// short to feel; it is dropped, not emitted.
	m := warmMapper()
	cmd := m.Map(dsp.BeatEvent{}, dsp.BandEnergies{Bass: 0.05, Treble: 0.8}, 0.2, false)
	if cmd != nil {
		t.Errorf("command = %+v, want nil for imperceptible transient", cmd)
	}
}

func TestMapSwell(t *testing.T) {
	cfg := config.New().Pattern

	m := warmMapper()
	cmd := m.Map(dsp.BeatEvent{}, dsp.BandEnergies{Bass: 0.3, Treble: 0.2}, 0.8, false)
	if cmd == nil || cmd.Trigger != TriggerSwell {
		t.Fatalf("command = %+v, want swell", cmd)
	}
	if want := int(0.8 * float64(cfg.SwellMaxMs)); cmd.Pattern[0].OnMs != want {
		t.Errorf("OnMs = %d, want %d", cmd.Pattern[0].OnMs, want)
	}

	// Swells are suppressed while the actuator is busy.
	m = warmMapper()
	cmd = m.Map(dsp.BeatEvent{}, dsp.BandEnergies{Bass: 0.3, Treble: 0.2}, 0.8, true)
	if cmd != nil {
		t.Errorf("command = %+v, want nil while vibrating", cmd)
	}
}

func TestMapSustainedLevelsDoNotRetrigger(t *testing.T) {
	m := warmMapper()
	if cmd := m.Map(dsp.BeatEvent{}, dsp.BandEnergies{Bass: 0.9}, 0.9, false); cmd == nil {
		t.Fatal("expected transient on the jump tick")
	}

	// Same high level on the next tick: no jump, no command.
	if cmd := m.Map(dsp.BeatEvent{}, dsp.BandEnergies{Bass: 0.9}, 0.9, false); cmd != nil {
		t.Errorf("command = %+v on sustained level, want nil", cmd)
	}
}

func TestMapReset(t *testing.T) {
	m := warmMapper()
	m.Reset()

	// After a reset the mapper has no reference level again.
	if cmd := m.Map(dsp.BeatEvent{}, dsp.BandEnergies{Bass: 0.9}, 0.9, false); cmd != nil {
		t.Errorf("command = %+v right after Reset, want nil", cmd)
	}
}
