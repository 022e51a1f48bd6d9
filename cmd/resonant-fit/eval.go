package main

import (
	"math"

	"github.com/cwbudde/algo-resonant/analysis"
	"github.com/cwbudde/algo-resonant/internal/wavio"
	"github.com/cwbudde/algo-resonant/preset"
	"github.com/cwbudde/algo-resonant/resonant"
)

const blockSize = 128

type evalSettings struct {
	reference       []float64
	sampleRate      int
	decayDBFS       float64
	decayHoldBlocks int
	minDuration     float64
	maxDuration     float64
}

// renderCandidate strikes one resonator and renders until the output decays
// below the threshold or the maximum duration is reached.
func renderCandidate(p *preset.Preset, exc fitExcitation, s evalSettings) []float32 {
	e := resonant.NewEngine(s.sampleRate, p.Params)
	e.ExciteResonator(exc.resonator, exc.strike)

	minFrames := int(float64(s.sampleRate) * s.minDuration)
	maxFrames := max(int(float64(s.sampleRate)*s.maxDuration), minFrames, blockSize)
	threshold := math.Pow(10, s.decayDBFS/20)
	hold := max(s.decayHoldBlocks, 1)

	out := make([]float32, 0, maxFrames*2)
	block := make([]float32, blockSize*2)
	below := 0
	for rendered := 0; rendered < maxFrames; {
		n := min(blockSize, maxFrames-rendered)
		buf := block[:n*2]
		e.Render(buf)
		for i := range buf {
			buf[i] *= p.MasterGain
		}
		out = append(out, buf...)
		rendered += n
		if rendered < minFrames {
			continue
		}
		if wavio.StereoRMS(buf) < threshold {
			below++
			if below >= hold {
				break
			}
		} else {
			below = 0
		}
	}
	return out
}

func evaluate(base *preset.Preset, resonator int, defs []knobDef, c candidate, s evalSettings) analysis.Metrics {
	p, exc := applyCandidate(base, resonator, defs, c)
	st := renderCandidate(p, exc, s)
	return analysis.Compare(s.reference, wavio.StereoToMono(st), s.sampleRate)
}
