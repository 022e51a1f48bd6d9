package resonant

import "math"

// SpatialProcessor is a fixed equal-power stereo panner. Resonator i of N is
// placed at angle 2*pi*i/N; the resulting pan position is clamped into [0, 1]
// so that the upper half of the bank sits hard right.
type SpatialProcessor struct {
	left  []float32
	right []float32
}

// NewSpatialProcessor precomputes gains for count resonators.
func NewSpatialProcessor(count int) *SpatialProcessor {
	if count < 1 {
		count = 1
	}
	s := &SpatialProcessor{
		left:  make([]float32, count),
		right: make([]float32, count),
	}
	for i := 0; i < count; i++ {
		angle := float64(i) / float64(count) * 2 * math.Pi
		pan := clamp01((angle/math.Pi + 1) * 0.5)
		s.left[i] = float32(math.Sqrt(1 - pan))
		s.right[i] = float32(math.Sqrt(pan))
	}
	return s
}

// Gains returns the left and right gain of resonator i.
func (s *SpatialProcessor) Gains(i int) (float32, float32) {
	if i < 0 || i >= len(s.left) {
		return 0, 0
	}
	return s.left[i], s.right[i]
}

// Pan mixes outputs into a stereo pair.
func (s *SpatialProcessor) Pan(outputs []float32) (left float32, right float32) {
	if debugAssertions {
		assertf(len(outputs) == len(s.left), "pan input %d, want %d", len(outputs), len(s.left))
	}
	for i, v := range outputs {
		left += v * s.left[i]
		right += v * s.right[i]
	}
	return left, right
}
