package resonant

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ExcitationKind selects an excitation model.
type ExcitationKind string

const (
	ExcitationStrike ExcitationKind = "strike"
	ExcitationBow    ExcitationKind = "bow"
	ExcitationBreath ExcitationKind = "breath"
)

// ErrUnknownExcitation is returned by ParseExcitationKind for unsupported names.
var ErrUnknownExcitation = errors.New("unknown excitation kind")

// ParseExcitationKind resolves a case-insensitive excitation name.
func ParseExcitationKind(name string) (ExcitationKind, error) {
	switch k := ExcitationKind(strings.ToLower(strings.TrimSpace(name))); k {
	case ExcitationStrike, ExcitationBow, ExcitationBreath:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownExcitation, name)
}

// Excitation holds the parameters of one excitation event. Fields that a
// kind does not use are ignored.
type Excitation struct {
	Kind       ExcitationKind
	Position   float64
	Hardness   float64
	Pressure   float64
	Velocity   float64
	Turbulence float64
}

// DefaultExcitation returns the default parameter set for kind.
func DefaultExcitation(kind ExcitationKind) Excitation {
	switch kind {
	case ExcitationStrike:
		return Excitation{Kind: kind, Position: 0.5, Hardness: 0.8}
	case ExcitationBow:
		return Excitation{Kind: kind, Position: 0.3, Pressure: 0.7, Velocity: 2}
	case ExcitationBreath:
		return Excitation{Kind: kind, Pressure: 0.5, Turbulence: 0.5}
	}
	return Excitation{Kind: kind}
}

// Strike returns a strike excitation.
func Strike(position, hardness float64) Excitation {
	return Excitation{Kind: ExcitationStrike, Position: position, Hardness: hardness}
}

// Bow returns a bow excitation.
func Bow(position, pressure, velocity float64) Excitation {
	return Excitation{Kind: ExcitationBow, Position: position, Pressure: pressure, Velocity: velocity}
}

// Breath returns a breath excitation.
func Breath(pressure, turbulence float64) Excitation {
	return Excitation{Kind: ExcitationBreath, Pressure: pressure, Turbulence: turbulence}
}

// RandomSource supplies uniform values in [0, 1). *math/rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

// EvaluateExcitation returns the instantaneous sample injected by e. The
// result is not bounded to [-1, 1]; the resonator's soft clip bounds it.
// Breath draws from rnd; a nil rnd yields the noiseless breath value.
// Unknown kinds evaluate to 0.
func EvaluateExcitation(e Excitation, rnd RandomSource) float32 {
	switch e.Kind {
	case ExcitationStrike:
		fundamental := 1 - e.Position
		harmonics := e.Position * e.Hardness
		return float32((fundamental + harmonics*0.5) * 0.4)
	case ExcitationBow:
		// Deterministic stick-slip approximation, not a friction model.
		stickSlip := math.Sin(e.Velocity*10) * e.Pressure
		return float32(stickSlip * (1 - e.Position*0.5))
	case ExcitationBreath:
		noise := 0.0
		if rnd != nil {
			noise = (rnd.Float64()*2 - 1) * e.Turbulence
		}
		return float32(e.Pressure*0.5 + noise)
	}
	return 0
}
