// Package room renders the resonator bank into a synthetic stereo room.
package room

import (
	"fmt"
	"math"
	"math/rand"
)

// Config controls stereo room impulse response synthesis.
type Config struct {
	SampleRate  int
	DurationS   float64
	Seed        int64
	Reflections int     // early reflections in the first 50 ms
	TailLevel   float64 // diffuse tail gain, 0 disables the tail
	StereoWidth float64
	Brightness  float64
	LowDecayS   float64
	HighDecayS  float64
	FadeOutS    float64

	NormalizePeak float64
}

// DefaultConfig returns a small, slightly bright room at sampleRate.
func DefaultConfig(sampleRate int) Config {
	return Config{
		SampleRate:    sampleRate,
		DurationS:     1.0,
		Seed:          1,
		Reflections:   24,
		TailLevel:     0.06,
		StereoWidth:   0.6,
		Brightness:    0.8,
		LowDecayS:     1.2,
		HighDecayS:    0.2,
		FadeOutS:      0.01,
		NormalizePeak: 0.9,
	}
}

// Validate reports the first out-of-range field.
func (c *Config) Validate() error {
	switch {
	case c.SampleRate < 8000:
		return fmt.Errorf("sample rate too low: %d", c.SampleRate)
	case c.DurationS <= 0:
		return fmt.Errorf("duration must be > 0")
	case c.Reflections < 0:
		return fmt.Errorf("reflections must be >= 0")
	case c.TailLevel < 0:
		return fmt.Errorf("tail level must be >= 0")
	case c.StereoWidth < 0:
		return fmt.Errorf("stereo width must be >= 0")
	case c.Brightness <= 0:
		return fmt.Errorf("brightness must be > 0")
	case c.LowDecayS <= 0 || c.HighDecayS <= 0:
		return fmt.Errorf("decay seconds must be > 0")
	case c.NormalizePeak <= 0:
		return fmt.Errorf("normalize peak must be > 0")
	}
	return nil
}

// Generate synthesizes a stereo room IR: sparse early reflections followed by
// a two-band noise tail whose high band decays faster than the low band.
func Generate(cfg Config) ([]float32, []float32, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	sr := float64(cfg.SampleRate)
	n := max(int(math.Round(cfg.DurationS*sr)), 1)
	left := make([]float64, n)
	right := make([]float64, n)
	rng := rand.New(rand.NewSource(cfg.Seed))

	for i := 0; i < cfg.Reflections; i++ {
		at := 0.001 + 0.049*rng.Float64()
		idx := int(at * sr)
		if idx <= 0 || idx >= n {
			continue
		}
		amp := (0.10 + 0.35*rng.Float64()) * math.Exp(-at*20.0)
		amp *= math.Pow(0.5+0.5*rng.Float64(), 1.0/cfg.Brightness)
		pan := (rng.Float64()*2.0 - 1.0) * cfg.StereoWidth
		left[idx] += amp * (1.0 - 0.5*pan)
		right[idx] += amp * (1.0 + 0.5*pan)
	}

	if cfg.TailLevel > 0 {
		air := max(0.3*(cfg.Brightness-0.3), 0)
		var low, high [2]float64
		for i := 0; i < n; i++ {
			at := float64(i) / sr
			lowEnv := math.Exp(-at / (0.75 * cfg.LowDecayS))
			highEnv := math.Exp(-at / (0.75 * cfg.HighDecayS))
			for ch, dst := range [2][]float64{left, right} {
				noise := rng.NormFloat64()
				low[ch] = 0.985*low[ch] + 0.015*noise
				high[ch] = 0.15*noise - 0.15*high[ch]
				dst[i] += cfg.TailLevel * (lowEnv*low[ch] + air*highEnv*high[ch])
			}
		}
	}

	for _, ch := range [2][]float64{left, right} {
		blockDC(ch, 0.995)
		fadeOut(ch, cfg.FadeOutS, cfg.SampleRate)
	}

	peak := max(peakAbs(left), peakAbs(right), 1e-12)
	g := cfg.NormalizePeak / peak
	outL := make([]float32, n)
	outR := make([]float32, n)
	for i := range outL {
		outL[i] = float32(left[i] * g)
		outR[i] = float32(right[i] * g)
	}
	return outL, outR, nil
}

func blockDC(x []float64, r float64) {
	var prevIn, prevOut float64
	for i, v := range x {
		y := v - prevIn + r*prevOut
		prevIn = v
		prevOut = y
		x[i] = y
	}
}

func peakAbs(x []float64) float64 {
	m := 0.0
	for _, v := range x {
		m = max(m, math.Abs(v))
	}
	return m
}

// fadeOut applies a raised-cosine fade to the last fadeS seconds of buf.
func fadeOut(buf []float64, fadeS float64, sampleRate int) {
	if fadeS <= 0 || len(buf) == 0 {
		return
	}
	fade := min(int(math.Round(fadeS*float64(sampleRate))), len(buf))
	start := len(buf) - fade
	for i := 0; i < fade; i++ {
		x := float64(i) / float64(fade)
		buf[start+i] *= 0.5 * (1.0 + math.Cos(x*math.Pi))
	}
}
