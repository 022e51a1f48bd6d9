package resonant

import "math"

// fixedSource always returns the same value.
type fixedSource float64

func (s fixedSource) Float64() float64 { return float64(s) }

// sequenceSource cycles through values.
type sequenceSource struct {
	values []float64
	next   int
}

func (s *sequenceSource) Float64() float64 {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

func sumAbs(values []float32) float64 {
	var sum float64
	for _, v := range values {
		sum += math.Abs(float64(v))
	}
	return sum
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func delayLinesSilent(e *Engine) bool {
	for _, r := range e.resonators {
		for _, v := range r.forward.buffer {
			if v != 0 {
				return false
			}
		}
		for _, v := range r.backward.buffer {
			if v != 0 {
				return false
			}
		}
	}
	return true
}

func newTestEngine(sampleRate int, mutate func(p *Params)) *Engine {
	p := NewDefaultParams()
	if mutate != nil {
		mutate(p)
	}
	return NewEngine(sampleRate, p)
}
