package resonant

import "math"

// LFO is a sine low-frequency oscillator with a phase kept in (-pi, pi].
type LFO struct {
	phase      float64
	increment  float64
	depth      float64
	sampleRate float64
}

// NewLFO creates an oscillator at freq Hz with peak amplitude depth.
func NewLFO(freq, depth float64, sampleRate int) *LFO {
	l := &LFO{depth: depth, sampleRate: float64(sampleRate)}
	l.SetFrequency(freq)
	return l
}

// SetFrequency changes the rate without resetting the phase.
func (l *LFO) SetFrequency(freq float64) {
	if !isFinite64(freq) || freq < 0 {
		freq = 0
	}
	freq = math.Min(freq, l.sampleRate/2)
	l.increment = 2 * math.Pi * freq / l.sampleRate
}

// Step returns the current value and advances by one sample.
func (l *LFO) Step() float64 {
	return l.Advance(1)
}

// Advance returns the current value and advances by n samples.
func (l *LFO) Advance(n int) float64 {
	v := math.Sin(l.phase) * l.depth
	l.phase = math.Remainder(l.phase+l.increment*float64(n), 2*math.Pi)
	if l.phase <= -math.Pi {
		l.phase += 2 * math.Pi
	}
	return v
}

// Reset rewinds the phase to 0.
func (l *LFO) Reset() {
	l.phase = 0
}
