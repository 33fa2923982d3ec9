package dsp

import (
	"testing"
	"time"

	"hapticsync/internal/config"
)

// seedTracker fills the energy history with an alternating low-level signal
// whose variance clears the floor, stepping the clock one tick at a time.
// Returns the tracker and the timestamp following the last seed tick.
func seedTracker(t *testing.T, cfg config.BeatConfig, ticks int) (*BeatTracker, time.Time) {
	t.Helper()
	tracker := NewBeatTracker(cfg, nil)

	now := time.Unix(1000, 0)
	for i := 0; i < ticks; i++ {
		level := 0.07
		if i%2 == 0 {
			level = 0.13
		}
		if ev := tracker.Step(level, 0, now); ev.Detected {
			t.Fatalf("unexpected detection during seeding at tick %d", i)
		}
		now = now.Add(23 * time.Millisecond)
	}
	return tracker, now
}

func TestBeatTrackerSpikeDetection(t *testing.T) {
	cfg := config.New().Beat
	tracker, now := seedTracker(t, cfg, cfg.HistorySize)

	// Spike at 5x the rolling mean (~0.1).
	ev := tracker.Step(0.5, 0, now)
	if !ev.Detected {
		t.Fatal("spike at 5x mean not detected")
	}
	if ev.Type != BeatEnergy {
		t.Errorf("Type = %q, want %q", ev.Type, BeatEnergy)
	}
	if ev.Strength <= 0 || ev.Strength > 1 {
		t.Errorf("Strength = %f, want in (0, 1]", ev.Strength)
	}
	if ev.Confidence < 0 || ev.Confidence > 1 {
		t.Errorf("Confidence = %f, want in [0, 1]", ev.Confidence)
	}

	// A second spike 100ms later sits inside the refractory period.
	ev = tracker.Step(0.5, 0, now.Add(100*time.Millisecond))
	if ev.Detected {
		t.Error("second spike 100ms later must be suppressed (min interval 300ms)")
	}

	// Past the refractory period the tracker detects again.
	ev = tracker.Step(0.5, 0, now.Add(400*time.Millisecond))
	if !ev.Detected {
		t.Error("spike past the refractory period not detected")
	}
}

func TestBeatTrackerMinInterval(t *testing.T) {
	cfg := config.New().Beat
	tracker, now := seedTracker(t, cfg, cfg.HistorySize)

	minGap := time.Duration(cfg.MinIntervalMs) * time.Millisecond
	var lastDetect time.Time
	var haveDetect bool

	// Hammer spikes every 50ms; accepted detections must never be closer
	// than the configured interval.
	for i := 0; i < 40; i++ {
		ev := tracker.Step(0.6, 0, now)
		if ev.Detected {
			if haveDetect && now.Sub(lastDetect) < minGap {
				t.Fatalf("detections %v apart, want >= %v", now.Sub(lastDetect), minGap)
			}
			lastDetect = now
			haveDetect = true
		}
		now = now.Add(50 * time.Millisecond)
	}
	if !haveDetect {
		t.Fatal("no detections at all during spike train")
	}
}

func TestBeatTrackerKickClassification(t *testing.T) {
	cfg := config.New().Beat
	tracker, now := seedTracker(t, cfg, cfg.HistorySize)

	// Ordinary broadband level but a hot kick band.
	ev := tracker.Step(0.1, 0.5, now)
	if !ev.Detected {
		t.Fatal("kick-band spike not detected")
	}
	if ev.Type != BeatKick {
		t.Errorf("Type = %q, want %q", ev.Type, BeatKick)
	}
}

func TestBeatTrackerWarmup(t *testing.T) {
	cfg := config.New().Beat
	tracker := NewBeatTracker(cfg, nil)

	now := time.Unix(1000, 0)
	for i := 0; i < cfg.MinSamples-1; i++ {
		if ev := tracker.Step(0.9, 0.9, now); ev.Detected {
			t.Fatalf("detection at tick %d, before %d warmup samples", i, cfg.MinSamples)
		}
		now = now.Add(23 * time.Millisecond)
	}
}

func TestBeatTrackerNearSilence(t *testing.T) {
	cfg := config.New().Beat
	tracker := NewBeatTracker(cfg, nil)

	// Dead-flat quiet signal: variance stays at zero, so even a relative
	// blip above the mean threshold must not fire.
	now := time.Unix(1000, 0)
	for i := 0; i < cfg.HistorySize; i++ {
		tracker.Step(0.0001, 0, now)
		now = now.Add(23 * time.Millisecond)
	}
	if ev := tracker.Step(0.0002, 0, now); ev.Detected && ev.Type == BeatEnergy {
		t.Error("energy detection during near-silence, variance floor not applied")
	}
}

func TestBeatTrackerReset(t *testing.T) {
	cfg := config.New().Beat
	tracker, now := seedTracker(t, cfg, cfg.HistorySize)
	tracker.Reset()

	if tracker.History().Size() != 0 {
		t.Error("energy history not cleared by Reset")
	}
	if ev := tracker.Step(0.5, 0, now); ev.Detected {
		t.Error("detection right after Reset, tracker must re-warm")
	}
}

func TestBeatTrackerFeedsTempo(t *testing.T) {
	cfg := config.New()
	tempo := NewTempoEstimator(cfg.Tempo, cfg.Beat.MinIntervalMs)
	tracker := NewBeatTracker(cfg.Beat, tempo)

	now := time.Unix(1000, 0)
	for i := 0; i < cfg.Beat.HistorySize; i++ {
		level := 0.07
		if i%2 == 0 {
			level = 0.13
		}
		tracker.Step(level, 0, now)
		now = now.Add(23 * time.Millisecond)
	}

	// Six spikes at 500ms spacing: five accepted intervals.
	var ev BeatEvent
	for i := 0; i < 6; i++ {
		ev = tracker.Step(0.6, 0, now)
		if !ev.Detected {
			t.Fatalf("spike %d not detected", i)
		}
		now = now.Add(500 * time.Millisecond)
		// Keep the rolling mean at its seeded level between beats.
		for j := 0; j < 4; j++ {
			level := 0.07
			if j%2 == 0 {
				level = 0.13
			}
			tracker.Step(level, 0, now.Add(time.Duration(-100+j*23)*time.Millisecond))
		}
	}

	if ev.BPM < 115 || ev.BPM > 125 {
		t.Errorf("BPM = %f after 500ms beats, want ~120", ev.BPM)
	}
}
