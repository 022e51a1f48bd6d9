package resonant

// MaxOnePoleCoefficient is the largest accepted smoothing coefficient.
// A coefficient of 1 would never decay.
const MaxOnePoleCoefficient = 0.99999

// OnePoleFilter is a single-pole IIR smoother: y = x(1-c) + y'c.
type OnePoleFilter struct {
	coefficient float32
	state       float32
}

// NewOnePoleFilter creates a filter with the clamped coefficient.
func NewOnePoleFilter(coefficient float32) OnePoleFilter {
	var f OnePoleFilter
	f.SetCutoff(coefficient)
	return f
}

// Process filters one sample.
func (f *OnePoleFilter) Process(x float32) float32 {
	y := x*(1-f.coefficient) + f.state*f.coefficient
	f.state = flush(y)
	return f.state
}

// SetCutoff sets the smoothing coefficient, clamped into [0, MaxOnePoleCoefficient].
func (f *OnePoleFilter) SetCutoff(coefficient float32) {
	if !isFinite(coefficient) {
		coefficient = 0
	}
	f.coefficient = clampFloat32(coefficient, 0, MaxOnePoleCoefficient)
}

// Coefficient returns the current smoothing coefficient.
func (f *OnePoleFilter) Coefficient() float32 {
	return f.coefficient
}

// State returns the last output.
func (f *OnePoleFilter) State() float32 {
	return f.state
}

// Reset clears the filter memory.
func (f *OnePoleFilter) Reset() {
	f.state = 0
}
