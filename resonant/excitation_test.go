package resonant

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestEvaluateExcitationDefaults(t *testing.T) {
	tests := []struct {
		name string
		exc  Excitation
		want float64
	}{
		{name: "strike", exc: DefaultExcitation(ExcitationStrike), want: 0.28},
		{name: "bow", exc: DefaultExcitation(ExcitationBow), want: math.Sin(20) * 0.7 * 0.85},
		{name: "breath_noiseless", exc: DefaultExcitation(ExcitationBreath), want: 0.25},
		{name: "unknown", exc: Excitation{Kind: "pluck", Position: 0.5}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateExcitation(tt.exc, nil)
			if !almostEqual(float64(got), tt.want, 1e-6) {
				t.Fatalf("expected excitation value: got=%f want=%f", got, tt.want)
			}
		})
	}
}

func TestStrikePositionShapesAmplitude(t *testing.T) {
	center := EvaluateExcitation(Strike(0, 1), nil)
	edge := EvaluateExcitation(Strike(1, 1), nil)
	if !almostEqual(float64(center), 0.4, 1e-6) || !almostEqual(float64(edge), 0.2, 1e-6) {
		t.Fatalf("expected strike values 0.4/0.2: got=%f/%f", center, edge)
	}
}

func TestBreathUsesInjectedSource(t *testing.T) {
	got := EvaluateExcitation(Breath(0.5, 0.5), fixedSource(0.75))
	if !almostEqual(float64(got), 0.5, 1e-6) {
		t.Fatalf("expected breath with fixed noise: got=%f want=0.5", got)
	}

	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		v := EvaluateExcitation(Breath(0.5, 0.5), rnd)
		if v < -0.25 || v > 0.75 {
			t.Fatalf("breath sample out of range: got=%f", v)
		}
	}
}

func TestBreathIsDeterministicForSeed(t *testing.T) {
	a := rand.New(rand.NewSource(42))
	b := rand.New(rand.NewSource(42))
	for i := 0; i < 64; i++ {
		va := EvaluateExcitation(Breath(0.4, 0.3), a)
		vb := EvaluateExcitation(Breath(0.4, 0.3), b)
		if va != vb {
			t.Fatalf("expected identical sequences at %d: got=%f,%f", i, va, vb)
		}
	}
}

func TestParseExcitationKind(t *testing.T) {
	k, err := ParseExcitationKind(" Bow ")
	if err != nil || k != ExcitationBow {
		t.Fatalf("expected bow: got=%q err=%v", k, err)
	}
	if _, err := ParseExcitationKind("pluck"); !errors.Is(err, ErrUnknownExcitation) {
		t.Fatalf("expected ErrUnknownExcitation, got %v", err)
	}
}
