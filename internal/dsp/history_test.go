package dsp

import (
	"math"
	"testing"
)

func TestEnergyHistoryBounds(t *testing.T) {
	h := NewEnergyHistory(43)

	for i := 0; i < 100; i++ {
		h.Push(float64(i%10) * 0.1)
	}

	if h.Size() != 43 {
		t.Errorf("Size = %d, want capacity 43", h.Size())
	}
	if h.Size() > h.Capacity() {
		t.Errorf("Size %d exceeds capacity %d", h.Size(), h.Capacity())
	}
	if v := h.Variance(); v < 0 {
		t.Errorf("Variance = %f, must be >= 0", v)
	}
	mean := h.Mean()
	if mean < 0 || mean > 0.9 {
		t.Errorf("Mean = %f, outside the range of pushed samples", mean)
	}
}

func TestEnergyHistoryEviction(t *testing.T) {
	h := NewEnergyHistory(3)
	h.Push(1)
	h.Push(2)
	h.Push(3)
	h.Push(10) // Evicts the 1

	want := (2.0 + 3.0 + 10.0) / 3.0
	if got := h.Mean(); math.Abs(got-want) > 1e-9 {
		t.Errorf("Mean = %f, want %f after eviction", got, want)
	}
}

func TestEnergyHistoryConstantInput(t *testing.T) {
	h := NewEnergyHistory(10)
	for i := 0; i < 10; i++ {
		h.Push(0.5)
	}
	if got := h.Mean(); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("Mean = %f, want 0.5", got)
	}
	if got := h.Variance(); got > 1e-12 {
		t.Errorf("Variance = %f, want 0 for constant input", got)
	}
}

func TestEnergyHistoryEmpty(t *testing.T) {
	h := NewEnergyHistory(5)
	if h.Mean() != 0 || h.Variance() != 0 {
		t.Error("empty history must report zero mean and variance")
	}
	h.Push(1)
	if h.Variance() != 0 {
		t.Error("single sample must report zero variance")
	}
}

func TestEnergyHistoryReset(t *testing.T) {
	h := NewEnergyHistory(5)
	h.Push(1)
	h.Push(2)
	h.Reset()
	if h.Size() != 0 {
		t.Errorf("Size = %d after Reset, want 0", h.Size())
	}
	h.Push(4)
	if got := h.Mean(); got != 4 {
		t.Errorf("Mean = %f after Reset and Push, want 4", got)
	}
}

func TestEnergyHistoryZeroAllocs(t *testing.T) {
	h := NewEnergyHistory(43)
	for i := 0; i < 43; i++ {
		h.Push(float64(i))
	}

	allocs := testing.AllocsPerRun(100, func() {
		h.Push(0.3)
		_ = h.Mean()
		_ = h.Variance()
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in history hot path, got %.1f", allocs)
	}
}
