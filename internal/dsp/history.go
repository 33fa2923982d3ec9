package dsp

// EnergyHistory is a fixed-capacity ring of scalar energy samples with
// running mean and variance. The oldest sample is evicted on overflow, so
// Size never exceeds the configured capacity.
type EnergyHistory struct {
	samples []float64
	head    int // Next write position
	size    int
}

// NewEnergyHistory creates a ring with the given capacity (minimum 1).
func NewEnergyHistory(capacity int) *EnergyHistory {
	if capacity < 1 {
		capacity = 1
	}
	return &EnergyHistory{samples: make([]float64, capacity)}
}

// Push appends a sample, evicting the oldest when full.
func (h *EnergyHistory) Push(v float64) {
	h.samples[h.head] = v
	h.head = (h.head + 1) % len(h.samples)
	if h.size < len(h.samples) {
		h.size++
	}
}

// Size returns the number of stored samples.
func (h *EnergyHistory) Size() int { return h.size }

// Capacity returns the ring capacity.
func (h *EnergyHistory) Capacity() int { return len(h.samples) }

// Mean returns the arithmetic mean of the stored samples, 0 when empty.
func (h *EnergyHistory) Mean() float64 {
	if h.size == 0 {
		return 0
	}
	var sum float64
	for i := range h.size {
		sum += h.at(i)
	}
	return sum / float64(h.size)
}

// Variance returns the population variance of the stored samples, 0 when
// fewer than two samples are stored. The result is never negative.
func (h *EnergyHistory) Variance() float64 {
	if h.size < 2 {
		return 0
	}
	mean := h.Mean()
	var sum float64
	for i := range h.size {
		d := h.at(i) - mean
		sum += d * d
	}
	v := sum / float64(h.size)
	if v < 0 {
		return 0
	}
	return v
}

// Reset discards all stored samples.
func (h *EnergyHistory) Reset() {
	h.head = 0
	h.size = 0
}

// at returns the i-th oldest sample. Caller guarantees i < size.
func (h *EnergyHistory) at(i int) float64 {
	if h.size < len(h.samples) {
		return h.samples[i]
	}
	return h.samples[(h.head+i)%len(h.samples)]
}
