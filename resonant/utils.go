package resonant

import (
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

func isFinite(x float32) bool {
	return !math.IsNaN(float64(x)) && !math.IsInf(float64(x), 0)
}

func isFinite64(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func clampFloat32(v float32, lo float32, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v int, lo int, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func minf(a float32, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func flush(x float32) float32 {
	return float32(dspcore.FlushDenormals(float64(x)))
}

// Lerp interpolates linearly between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// MapRange maps value from [inMin, inMax] onto [outMin, outMax] without clamping.
// A degenerate input range maps everything to outMin.
func MapRange(value, inMin, inMax, outMin, outMax float64) float64 {
	if inMax-inMin == 0 {
		return outMin
	}
	return Lerp(outMin, outMax, (value-inMin)/(inMax-inMin))
}
