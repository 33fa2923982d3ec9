package dsp

import (
	"testing"
	"time"

	"hapticsync/internal/config"
)

func newTestTempo() *TempoEstimator {
	cfg := config.New()
	return NewTempoEstimator(cfg.Tempo, cfg.Beat.MinIntervalMs)
}

// addBeats feeds n timestamps spaced gap apart, returning the time after the
// last beat.
func addBeats(te *TempoEstimator, start time.Time, n int, gap time.Duration) time.Time {
	ts := start
	for i := 0; i < n; i++ {
		te.AddBeat(ts)
		ts = ts.Add(gap)
	}
	return ts
}

func TestTempoSteadyBeats(t *testing.T) {
	te := newTestTempo()

	// Five timestamps at 500ms spacing yield four intervals, the minimum
	// for an estimate. Median and mean agree, so the blend is exact.
	addBeats(te, time.Unix(2000, 0), 5, 500*time.Millisecond)

	if got := te.IntervalCount(); got != 4 {
		t.Fatalf("IntervalCount() = %d, want 4", got)
	}
	if bpm := te.BPM(); bpm < 119.9 || bpm > 120.1 {
		t.Errorf("BPM() = %f, want 120", bpm)
	}
}

func TestTempoBelowMinIntervals(t *testing.T) {
	te := newTestTempo()

	// Four timestamps are only three intervals: no estimate yet.
	addBeats(te, time.Unix(2000, 0), 4, 500*time.Millisecond)

	if got := te.IntervalCount(); got != 3 {
		t.Fatalf("IntervalCount() = %d, want 3", got)
	}
	if bpm := te.BPM(); bpm != 0 {
		t.Errorf("BPM() = %f before enough intervals, want 0", bpm)
	}
}

func TestTempoIntervalRejection(t *testing.T) {
	tests := []struct {
		name string
		gap  time.Duration
		want int
	}{
		{"below refractory", 100 * time.Millisecond, 0},
		{"at refractory", 300 * time.Millisecond, 4},
		{"above max", 3 * time.Second, 0},
		{"at max", 2 * time.Second, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := newTestTempo()
			addBeats(te, time.Unix(2000, 0), 5, tt.gap)
			if got := te.IntervalCount(); got != tt.want {
				t.Errorf("IntervalCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTempoClamp(t *testing.T) {
	cfg := config.New()

	tests := []struct {
		name string
		gap  time.Duration
		want float64
	}{
		// 1800ms intervals are 33 BPM raw, clamped up to the floor.
		{"slow clamps to min", 1800 * time.Millisecond, cfg.Tempo.BPMMin},
		// 310ms intervals are ~194 BPM, inside the range.
		{"fast within range", 310 * time.Millisecond, 60000.0 / 310},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := newTestTempo()
			addBeats(te, time.Unix(2000, 0), 6, tt.gap)
			bpm := te.BPM()
			if bpm < tt.want-0.5 || bpm > tt.want+0.5 {
				t.Errorf("BPM() = %f, want %f", bpm, tt.want)
			}
		})
	}
}

func TestTempoOutlierResistance(t *testing.T) {
	te := newTestTempo()

	// Ten steady 500ms intervals, then one 1900ms dropout. The median
	// anchors the blend near 120 despite the outlier dragging the mean.
	ts := addBeats(te, time.Unix(2000, 0), 11, 500*time.Millisecond)
	te.AddBeat(ts.Add(1400 * time.Millisecond))

	bpm := te.BPM()
	if bpm < 100 || bpm > 120 {
		t.Errorf("BPM() = %f after one dropout, want near 120", bpm)
	}
}

func TestTempoHistoryBounded(t *testing.T) {
	cfg := config.New()
	te := newTestTempo()

	addBeats(te, time.Unix(2000, 0), cfg.Tempo.HistorySize*2, 500*time.Millisecond)
	if got := te.IntervalCount(); got != cfg.Tempo.HistorySize {
		t.Errorf("IntervalCount() = %d, want capped at %d", got, cfg.Tempo.HistorySize)
	}
}

func TestTempoDriftTracking(t *testing.T) {
	te := newTestTempo()

	// The window slides: once enough new-tempo intervals displace the old,
	// the estimate converges on the new tempo.
	ts := addBeats(te, time.Unix(2000, 0), 21, 600*time.Millisecond)
	addBeats(te, ts, 25, 400*time.Millisecond)

	if bpm := te.BPM(); bpm < 145 || bpm > 155 {
		t.Errorf("BPM() = %f after tempo change to 150, want ~150", bpm)
	}
}

func TestTempoReset(t *testing.T) {
	te := newTestTempo()
	addBeats(te, time.Unix(2000, 0), 6, 500*time.Millisecond)
	te.Reset()

	if got := te.IntervalCount(); got != 0 {
		t.Errorf("IntervalCount() = %d after Reset, want 0", got)
	}
	if bpm := te.BPM(); bpm != 0 {
		t.Errorf("BPM() = %f after Reset, want 0", bpm)
	}

	// The first beat after Reset only seeds; no stale interval from the
	// pre-reset timestamp may appear.
	te.AddBeat(time.Unix(2010, 0))
	if got := te.IntervalCount(); got != 0 {
		t.Errorf("IntervalCount() = %d after first post-reset beat, want 0", got)
	}
}
