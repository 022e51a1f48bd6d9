package resonant

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

const physicsEpsilon = 1e-6

// DefaultDelayMultiplier scales the stretched-string fundamental in CalculateDelaySamples.
const DefaultDelayMultiplier = 8.0

// FrequencyFromNote converts a MIDI note to Hz (A4 = 440 Hz at note 69).
func FrequencyFromNote(note float64) float64 {
	return 440 * math.Pow(2, (note-69)/12)
}

// DelayFromFrequency returns the waveguide length in samples for frequency,
// clamped into [2, maxDelay-1].
func DelayFromFrequency(frequency float64, sampleRate float64, maxDelay int) int {
	if !isFinite64(frequency) || frequency < physicsEpsilon {
		frequency = physicsEpsilon
	}
	return clampDelay(math.Floor(sampleRate/frequency), maxDelay)
}

// CalculateDelaySamples derives a delay length from a stretched-string model:
// wave speed v = sqrt(tension / (density*length)) and f = v*multiplier / (2*length).
func CalculateDelaySamples(density, tension, length, sampleRate float64, maxDelay int, multiplier float64) int {
	linearDensity := math.Max(density*length, physicsEpsilon)
	waveSpeed := math.Sqrt(math.Max(tension, 0) / linearDensity)
	frequency := waveSpeed / (2 * math.Max(length, physicsEpsilon)) * multiplier
	return DelayFromFrequency(frequency, sampleRate, maxDelay)
}

func clampDelay(samples float64, maxDelay int) int {
	hi := maxDelay - 1
	if hi < 2 {
		hi = 2
	}
	if math.IsNaN(samples) || samples < 2 {
		return 2
	}
	if samples > float64(hi) {
		return hi
	}
	return int(samples)
}

// Material is the stiffness/damping pair applied to a resonator.
type Material struct {
	Stiffness float32 `json:"stiffness"`
	Damping   float32 `json:"damping"`
}

// ErrUnknownMaterial is returned by MaterialPreset for unsupported names.
var ErrUnknownMaterial = errors.New("unknown material")

var materialPresets = map[string]Material{
	"wood":     {Stiffness: 0.98, Damping: 0.01},
	"metal":    {Stiffness: 0.995, Damping: 0.005},
	"glass":    {Stiffness: 0.999, Damping: 0.002},
	"membrane": {Stiffness: 0.97, Damping: 0.02},
}

// DefaultMaterial is the material every resonator starts with.
func DefaultMaterial() Material {
	return materialPresets["wood"]
}

// MaterialPreset looks up a named material (wood, metal, glass, membrane).
func MaterialPreset(name string) (Material, error) {
	m, ok := materialPresets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Material{}, fmt.Errorf("%w: %q", ErrUnknownMaterial, name)
	}
	return m, nil
}

// MaterialNames lists the preset names in sorted order.
func MaterialNames() []string {
	names := make([]string, 0, len(materialPresets))
	for name := range materialPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MaterialFromPosition maps a point of the unit square onto the continuous
// material manifold. Coordinates are clamped into [0, 1].
func MaterialFromPosition(x, y float64) Material {
	x = clamp01(x)
	y = clamp01(y)
	return Material{
		Stiffness: float32(0.9 + x*0.099),
		Damping:   float32(y * 0.1),
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
