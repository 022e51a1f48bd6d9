package resonant

import "math"

// DelayLine is a fixed-capacity circular sample buffer with an integer read tap.
type DelayLine struct {
	buffer     []float32
	writeIndex int
	delayTaps  int
}

// NewDelayLine allocates a zeroed delay line. Capacities below 2 are raised
// to 2 so that a one-sample tap always exists.
func NewDelayLine(capacity int) *DelayLine {
	if capacity < 2 {
		capacity = 2
	}
	return &DelayLine{
		buffer:    make([]float32, capacity),
		delayTaps: capacity / 2,
	}
}

// Capacity returns the buffer length fixed at construction.
func (d *DelayLine) Capacity() int {
	return len(d.buffer)
}

// Delay returns the current read tap in samples.
func (d *DelayLine) Delay() int {
	return d.delayTaps
}

// Write stores sample at the write head and advances it.
func (d *DelayLine) Write(sample float32) {
	d.buffer[d.writeIndex] = sample
	d.writeIndex++
	if d.writeIndex >= len(d.buffer) {
		d.writeIndex = 0
	}
}

// Read returns the sample written delayTaps writes ago. It does not mutate state.
func (d *DelayLine) Read() float32 {
	size := len(d.buffer)
	return d.buffer[(d.writeIndex+size-d.delayTaps)%size]
}

// SetDelay truncates samples and clamps it into [1, capacity-1].
func (d *DelayLine) SetDelay(samples float64) {
	hi := len(d.buffer) - 1
	switch {
	case math.IsNaN(samples) || samples < 1:
		d.delayTaps = 1
	case samples > float64(hi):
		d.delayTaps = hi
	default:
		d.delayTaps = int(samples)
	}
	if debugAssertions {
		assertf(d.delayTaps >= 1 && d.delayTaps <= hi, "delay taps %d outside [1,%d]", d.delayTaps, hi)
	}
}

// Reset zeroes the buffer and rewinds the write head. The tap is kept.
func (d *DelayLine) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.writeIndex = 0
}
