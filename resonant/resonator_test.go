package resonant

import (
	"math"
	"testing"
)

func TestResonatorInitialTuning(t *testing.T) {
	const sampleRate = 48000
	for id := 0; id < 8; id++ {
		r := NewResonator(id, sampleRate, nil)
		want := DelayFromFrequency(FrequencyFromNote(48+2*float64(id)), sampleRate, 4800)
		if r.DelaySamples() != want {
			t.Fatalf("resonator %d: got delay=%d want=%d", id, r.DelaySamples(), want)
		}
		if r.forward.Delay() != r.backward.Delay() {
			t.Fatalf("resonator %d: forward/backward delays differ", id)
		}
	}
	if got := NewResonator(0, sampleRate, nil).DelaySamples(); got != 366 {
		t.Fatalf("expected note 48 at 366 samples: got=%d", got)
	}
}

func TestResonatorFirstStepAfterStrike(t *testing.T) {
	r := NewResonator(0, 48000, nil)
	r.Excite(DefaultExcitation(ExcitationStrike), nil)

	out := r.Step(0, 1)
	// 0.28 smoothed by the 0.7 one-pole, then scaled by 1 - 0.01.
	want := 0.28 * 0.3 * 0.99
	if !almostEqual(float64(out), want, 1e-6) {
		t.Fatalf("unexpected first output: got=%f want=%f", out, want)
	}
	if !almostEqual(float64(r.Energy()), want*0.001, 1e-8) {
		t.Fatalf("unexpected energy: got=%g want=%g", r.Energy(), want*0.001)
	}
	if r.pending != 0 {
		t.Fatalf("expected pending excitation consumed: got=%f", r.pending)
	}
}

func TestResonatorEnergyDecaysToZero(t *testing.T) {
	for _, damping := range []float32{0.005, 0.05, 0.3} {
		r := NewResonator(0, 8000, nil)
		r.SetMaterial(Material{Stiffness: 0.98, Damping: damping})
		r.Excite(Strike(0.3, 1), nil)

		peak := float32(0)
		for i := 0; i < 400000; i++ {
			r.Step(0, 1)
			e := r.Energy()
			if e < 0 {
				t.Fatalf("damping %f: negative energy %g at sample %d", damping, e, i)
			}
			if e > peak {
				peak = e
			}
		}
		if peak == 0 {
			t.Fatalf("damping %f: excitation never produced energy", damping)
		}
		if r.Energy() > 1e-6 {
			t.Fatalf("damping %f: energy did not decay: got=%g", damping, r.Energy())
		}
	}
}

func TestResonatorHigherStiffnessSustainsLonger(t *testing.T) {
	energyAfter := func(stiffness float32) float32 {
		r := NewResonator(0, 8000, nil)
		r.SetMaterial(Material{Stiffness: stiffness, Damping: 0.01})
		r.Excite(Strike(0.5, 0.8), nil)
		for i := 0; i < 4000; i++ {
			r.Step(0, 1)
		}
		return r.Energy()
	}
	soft := energyAfter(0.9)
	stiff := energyAfter(0.999)
	if stiff <= soft {
		t.Fatalf("expected stiffer material to retain more energy: stiff=%g soft=%g", stiff, soft)
	}
}

func TestResonatorSoftClipBoundsLines(t *testing.T) {
	r := NewResonator(0, 8000, nil)
	r.SetMaterial(Material{Stiffness: 1, Damping: 0})
	for i := 0; i < 2000; i++ {
		r.Step(5, 1)
	}
	for _, line := range []*DelayLine{r.forward, r.backward} {
		for _, v := range line.buffer {
			if v <= -1 || v >= 1 || !isFinite(v) {
				t.Fatalf("stored sample escaped the soft clip: %f", v)
			}
		}
	}
}

func TestResonatorResetKeepsConfiguration(t *testing.T) {
	r := NewResonator(3, 48000, nil)
	r.SetMaterial(Material{Stiffness: 0.95, Damping: 0.04})
	r.SetDelayFromPhysics(0.4, 110, 0.8)
	delay := r.DelaySamples()
	r.Excite(DefaultExcitation(ExcitationBow), nil)
	for i := 0; i < 1000; i++ {
		r.Step(0.01, 1)
	}
	r.Excite(DefaultExcitation(ExcitationStrike), nil)

	r.Reset()
	if r.Energy() != 0 || r.pending != 0 || r.excitationFilter.State() != 0 {
		t.Fatalf("expected transient state cleared: energy=%g pending=%g filter=%g",
			r.Energy(), r.pending, r.excitationFilter.State())
	}
	if r.DelaySamples() != delay {
		t.Fatalf("expected delay preserved: got=%d want=%d", r.DelaySamples(), delay)
	}
	if m := r.Material(); m != (Material{Stiffness: 0.95, Damping: 0.04}) {
		t.Fatalf("expected material preserved: got=%+v", m)
	}
	if out := r.Step(0, 1); out != 0 {
		t.Fatalf("expected silence after reset: got=%f", out)
	}
}

func TestResonatorDelayFromPhysicsSetsBothLines(t *testing.T) {
	r := NewResonator(0, 48000, nil)
	r.SetDelayFromPhysics(0.5, 125, 0.5)
	if r.forward.Delay() != 268 || r.backward.Delay() != 268 {
		t.Fatalf("expected both lines at 268: got=%d/%d", r.forward.Delay(), r.backward.Delay())
	}
	if !almostEqual(r.Frequency(), 48000.0/268, 1e-9) {
		t.Fatalf("unexpected frequency: %f", r.Frequency())
	}
}

func TestResonatorExciteDropsNonFinite(t *testing.T) {
	r := NewResonator(0, 48000, nil)
	r.Excite(Strike(math.NaN(), 1), nil)
	if r.pending != 0 {
		t.Fatalf("expected non-finite excitation dropped: got=%f", r.pending)
	}
	r.Excite(DefaultExcitation(ExcitationStrike), nil)
	want := r.pending
	r.Excite(Strike(math.Inf(1), 1), nil)
	if r.pending != want {
		t.Fatalf("non-finite excitation replaced pending value: got=%f want=%f", r.pending, want)
	}
}

func TestEngineExciteUsesResonatorExcite(t *testing.T) {
	e := NewEngine(48000, nil)
	e.ExciteResonator(3, DefaultExcitation(ExcitationStrike))
	r := NewResonator(0, 48000, nil)
	r.Excite(DefaultExcitation(ExcitationStrike), nil)
	if e.resonators[3].pending != r.pending {
		t.Fatalf("pending mismatch: got=%f want=%f", e.resonators[3].pending, r.pending)
	}
}
