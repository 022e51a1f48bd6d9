package resonant

import "math"

// Resonator is a bidirectional digital waveguide modeling one vibrating body.
type Resonator struct {
	id         int
	sampleRate float64

	forward  *DelayLine
	backward *DelayLine

	excitationFilter OnePoleFilter
	pending          float32

	stiffness       float32
	baseDamping     float32
	energySmoothing float32
	energy          float32
}

// NewResonator creates a resonator tuned to MIDI note 48+2*id with the
// material and smoothing configured in params.
func NewResonator(id int, sampleRate int, params *Params) *Resonator {
	if params == nil {
		params = NewDefaultParams()
	}
	capacity := int(math.Ceil(params.MaxDelayMs * float64(sampleRate) / 1000))
	r := &Resonator{
		id:               id,
		sampleRate:       float64(sampleRate),
		forward:          NewDelayLine(capacity),
		backward:         NewDelayLine(capacity),
		excitationFilter: NewOnePoleFilter(params.ExcitationCutoff),
		stiffness:        params.Material.Stiffness,
		baseDamping:      params.Material.Damping,
		energySmoothing:  clampFloat32(params.EnergySmoothing, 1e-6, 1),
	}
	r.SetDelayFromNote(48 + 2*float64(id))
	return r
}

// Step advances the waveguide by one sample and returns the pre-clip output.
func (r *Resonator) Step(couplingInput float32, dampingModulation float32) float32 {
	forward := r.forward.Read()
	backward := r.backward.Read()

	dampingFactor := 1 - minf(r.baseDamping*dampingModulation, 0.5)

	excitation := r.excitationFilter.Process(r.pending)
	r.pending = 0

	junction := backward + excitation + couplingInput
	forwardWave := junction * dampingFactor
	backwardWave := -forward * dampingFactor * r.stiffness

	r.forward.Write(flush(float32(math.Tanh(float64(forwardWave)))))
	r.backward.Write(flush(float32(math.Tanh(float64(backwardWave)))))

	out := forwardWave + backwardWave
	r.energy = flush(r.energy*(1-r.energySmoothing) + absf(out)*r.energySmoothing)
	return out
}

// Excite schedules a one-sample excitation for the next Step. A later call
// before the next Step replaces the pending value. Non-finite values are dropped.
func (r *Resonator) Excite(e Excitation, rnd RandomSource) {
	v := EvaluateExcitation(e, rnd)
	if !isFinite(v) {
		return
	}
	r.pending = v
}

// SetMaterial overwrites stiffness and damping.
func (r *Resonator) SetMaterial(m Material) {
	r.stiffness = m.Stiffness
	r.baseDamping = m.Damping
}

// Material returns the current stiffness and damping.
func (r *Resonator) Material() Material {
	return Material{Stiffness: r.stiffness, Damping: r.baseDamping}
}

// SetStiffness overwrites the reflection gain.
func (r *Resonator) SetStiffness(v float32) {
	r.stiffness = v
}

// SetDamping overwrites the base damping.
func (r *Resonator) SetDamping(v float32) {
	r.baseDamping = v
}

// SetDelayFromPhysics retunes both waveguide directions from a
// stretched-string model.
func (r *Resonator) SetDelayFromPhysics(density, tension, length float64) {
	samples := CalculateDelaySamples(density, tension, length, r.sampleRate, r.forward.Capacity(), DefaultDelayMultiplier)
	r.setDelay(samples)
}

// SetDelayFromNote retunes both waveguide directions to a MIDI note.
func (r *Resonator) SetDelayFromNote(note float64) {
	samples := DelayFromFrequency(FrequencyFromNote(note), r.sampleRate, r.forward.Capacity())
	r.setDelay(samples)
}

func (r *Resonator) setDelay(samples int) {
	r.forward.SetDelay(float64(samples))
	r.backward.SetDelay(float64(samples))
}

// Reset clears energy, pending excitation, the excitation filter and both
// delay lines. Material and tuning are kept.
func (r *Resonator) Reset() {
	r.energy = 0
	r.pending = 0
	r.excitationFilter.Reset()
	r.forward.Reset()
	r.backward.Reset()
}

// ID returns the resonator index.
func (r *Resonator) ID() int { return r.id }

// Energy returns the smoothed absolute output.
func (r *Resonator) Energy() float32 { return r.energy }

// DelaySamples returns the waveguide length in samples.
func (r *Resonator) DelaySamples() int { return r.forward.Delay() }

// Frequency returns sampleRate / delay, the nominal pitch of the waveguide.
func (r *Resonator) Frequency() float64 {
	return r.sampleRate / float64(r.forward.Delay())
}
