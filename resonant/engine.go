package resonant

import (
	"math"
	"math/rand"
)

const (
	// MinSampleRate is the lowest accepted engine sample rate.
	MinSampleRate = 8000

	outputHeadroom = float32(0.5)
	tensionScale   = float32(0.01)
)

// Engine is the coupled resonator bank. It is not safe for concurrent use;
// use a Processor to drive it from a render goroutine.
type Engine struct {
	sampleRate int
	params     *Params

	resonators []*Resonator
	network    *CouplingNetwork
	spatial    *SpatialProcessor

	previous  []float32
	current   []float32
	injection []float32
	output    []float32

	materialPosition [3]float64
	tension          float32
	rnd              RandomSource
}

// NewEngine creates a resonator bank. A nil params uses NewDefaultParams.
func NewEngine(sampleRate int, params *Params) *Engine {
	if sampleRate < MinSampleRate {
		sampleRate = MinSampleRate
	}
	p := params.sanitized()
	n := p.Resonators

	e := &Engine{
		sampleRate:       sampleRate,
		params:           p,
		resonators:       make([]*Resonator, n),
		network:          NewCouplingNetwork(n, p.Topology, p.EdgeCutoff),
		spatial:          NewSpatialProcessor(n),
		previous:         make([]float32, n),
		current:          make([]float32, n),
		injection:        make([]float32, n),
		materialPosition: p.MaterialPosition,
		tension:          p.Tension,
		rnd:              rand.New(rand.NewSource(p.Seed)),
	}
	for i := range e.resonators {
		e.resonators[i] = NewResonator(i, sampleRate, p)
	}
	e.network.SetStrength(p.CouplingStrength)
	if p.ApplyMaterialPosition {
		pos := p.MaterialPosition
		e.UpdateMaterialPosition(pos[0], pos[1], pos[2])
	}
	return e
}

// SetRandomSource replaces the source used by breath excitations.
func (e *Engine) SetRandomSource(rnd RandomSource) {
	if rnd != nil {
		e.rnd = rnd
	}
}

// Render fills out with len(out)/2 interleaved stereo frames.
func (e *Engine) Render(out []float32) {
	frames := len(out) / 2
	dampingMod := 1 + e.tension*tensionScale
	for f := 0; f < frames; f++ {
		e.network.ComputeInjection(e.injection, e.previous)
		for i, r := range e.resonators {
			e.current[i] = r.Step(e.injection[i], dampingMod)
		}
		copy(e.previous, e.current)

		left, right := e.spatial.Pan(e.current)
		out[2*f] = clampFloat32(left*outputHeadroom, -1, 1)
		out[2*f+1] = clampFloat32(right*outputHeadroom, -1, 1)
	}
}

// RenderBlock renders frames interleaved stereo frames into an internal
// buffer. The returned slice is reused by the next call.
func (e *Engine) RenderBlock(frames int) []float32 {
	if frames < 0 {
		frames = 0
	}
	out := e.ensureOutputBuffer(frames * 2)
	e.Render(out)
	return out
}

func (e *Engine) ensureOutputBuffer(n int) []float32 {
	if cap(e.output) < n {
		e.output = make([]float32, n)
	}
	e.output = e.output[:n]
	return e.output
}

// ExciteResonator schedules an excitation on resonator index. Out-of-range
// indices, unknown kinds and non-finite results are ignored.
func (e *Engine) ExciteResonator(index int, x Excitation) {
	if index < 0 || index >= len(e.resonators) {
		return
	}
	switch x.Kind {
	case ExcitationStrike, ExcitationBow, ExcitationBreath:
	default:
		return
	}
	e.resonators[index].Excite(x, e.rnd)
}

// UpdateMaterialPosition moves the bank through material space: x and y
// select stiffness and damping, x also sets density and tension of every
// waveguide, and z becomes the global coupling strength. Coordinates are
// clamped into [0, 1]; any NaN ignores the whole update.
func (e *Engine) UpdateMaterialPosition(x, y, z float64) {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsNaN(z) {
		return
	}
	x, y, z = clamp01(x), clamp01(y), clamp01(z)
	e.materialPosition = [3]float64{x, y, z}

	m := MaterialFromPosition(x, y)
	tension := 50 + (1-x)*150
	for i, r := range e.resonators {
		r.SetMaterial(m)
		r.SetDelayFromPhysics(x, tension, 0.5+float64(i)*0.1)
	}
	e.network.SetStrength(float32(z))
}

// ApplyMaterial sets the same material on every resonator.
func (e *Engine) ApplyMaterial(m Material) {
	if !isFinite(m.Stiffness) || !isFinite(m.Damping) {
		return
	}
	m.Stiffness = clampFloat32(m.Stiffness, 0, 1)
	if m.Damping < 0 {
		m.Damping = 0
	}
	for _, r := range e.resonators {
		r.SetMaterial(m)
	}
}

// SetTopology rebuilds the coupling network and returns the coupling
// strength, which the rebuild leaves unchanged. Unknown names are ignored.
func (e *Engine) SetTopology(t Topology) float32 {
	if !t.Valid() {
		return e.network.Strength()
	}
	return e.network.SetTopology(t)
}

// SetCouplingStrength sets the global coupling multiplier.
func (e *Engine) SetCouplingStrength(v float32) {
	e.network.SetStrength(v)
}

// SetGlobalDamping sets the base damping of every resonator. Negative values clamp to 0.
func (e *Engine) SetGlobalDamping(v float32) {
	if !isFinite(v) {
		return
	}
	if v < 0 {
		v = 0
	}
	for _, r := range e.resonators {
		r.SetDamping(v)
	}
}

// SetGlobalStiffness sets the stiffness of every resonator, clamped into [0, 1].
func (e *Engine) SetGlobalStiffness(v float32) {
	if !isFinite(v) {
		return
	}
	v = clampFloat32(v, 0, 1)
	for _, r := range e.resonators {
		r.SetStiffness(v)
	}
}

// SetTensionField sets the scalar that modulates damping (1 + tension*0.01).
func (e *Engine) SetTensionField(v float32) {
	if !isFinite(v) {
		return
	}
	e.tension = v
}

// Reset clears all transient state. Topology, material, tuning and
// coupling strength are kept.
func (e *Engine) Reset() {
	for _, r := range e.resonators {
		r.Reset()
	}
	e.network.Reset()
	for i := range e.previous {
		e.previous[i] = 0
		e.current[i] = 0
		e.injection[i] = 0
	}
}

// Close is equivalent to Reset; the engine holds no external resources.
func (e *Engine) Close() {
	e.Reset()
}

// SampleRate returns the rate fixed at construction.
func (e *Engine) SampleRate() int { return e.sampleRate }

// Size returns the resonator count.
func (e *Engine) Size() int { return len(e.resonators) }

// Params returns a copy of the sanitized construction parameters.
func (e *Engine) Params() Params { return *e.params }

// Topology returns the active coupling layout.
func (e *Engine) Topology() Topology { return e.network.Topology() }

// CouplingStrength returns the global coupling multiplier.
func (e *Engine) CouplingStrength() float32 { return e.network.Strength() }

// TensionField returns the current tension scalar.
func (e *Engine) TensionField() float32 { return e.tension }

// MaterialPosition returns the last applied material position.
func (e *Engine) MaterialPosition() [3]float64 { return e.materialPosition }

// Edges returns a copy of the coupling edges.
func (e *Engine) Edges() []Connection {
	return append([]Connection(nil), e.network.Edges()...)
}

// EdgeFilterState reports the coupling filter state for (from, to) and
// whether the edge exists in the current layout.
func (e *Engine) EdgeFilterState(from, to int) (float32, bool) {
	return e.network.FilterState(from, to)
}

// Energy returns the smoothed energy of resonator i, or 0 when out of range.
func (e *Engine) Energy(i int) float32 {
	if i < 0 || i >= len(e.resonators) {
		return 0
	}
	return e.resonators[i].Energy()
}

// Energies writes every resonator energy into dst, growing it when needed.
func (e *Engine) Energies(dst []float32) []float32 {
	if cap(dst) < len(e.resonators) {
		dst = make([]float32, len(e.resonators))
	}
	dst = dst[:len(e.resonators)]
	for i, r := range e.resonators {
		dst[i] = r.Energy()
	}
	return dst
}

// Output returns the last rendered output of resonator i.
func (e *Engine) Output(i int) float32 {
	if i < 0 || i >= len(e.previous) {
		return 0
	}
	return e.previous[i]
}

// Frequency returns the nominal pitch of resonator i in Hz.
func (e *Engine) Frequency(i int) float64 {
	if i < 0 || i >= len(e.resonators) {
		return 0
	}
	return e.resonators[i].Frequency()
}

// DelaySamples returns the waveguide length of resonator i.
func (e *Engine) DelaySamples(i int) int {
	if i < 0 || i >= len(e.resonators) {
		return 0
	}
	return e.resonators[i].DelaySamples()
}

// Material returns the material of resonator i.
func (e *Engine) Material(i int) Material {
	if i < 0 || i >= len(e.resonators) {
		return Material{}
	}
	return e.resonators[i].Material()
}
