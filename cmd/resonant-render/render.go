package main

import (
	"context"
	"fmt"
	"math"

	"github.com/cwbudde/algo-resonant/internal/score"
	"github.com/cwbudde/algo-resonant/internal/wavio"
	"github.com/cwbudde/algo-resonant/preset"
	"github.com/cwbudde/algo-resonant/resonant"
	"github.com/cwbudde/algo-resonant/room"
)

const blockSize = 128

type renderConfig struct {
	sampleRate int
	preset     *preset.Preset

	scorePath  string
	scoreSrc   string
	excitation resonant.Excitation
	resonator  int

	duration        float64
	decayDBFS       float64
	decayHoldBlocks int
	minDuration     float64
	maxDuration     float64

	room bool

	onEvent func(ev *resonant.Event)
}

// decayGate stops a render once the block level stays below a threshold.
type decayGate struct {
	threshold float64
	hold      int
	minFrames int
	below     int
}

func newDecayGate(dbfs float64, hold int, minFrames int) *decayGate {
	return &decayGate{
		threshold: math.Pow(10.0, dbfs/20.0),
		hold:      max(hold, 1),
		minFrames: minFrames,
	}
}

// done reports whether rendering may stop after block, at rendered frames.
func (g *decayGate) done(block []float32, rendered int) bool {
	if rendered < g.minFrames {
		return false
	}
	if wavio.StereoRMS(block) < g.threshold {
		g.below++
		return g.below >= g.hold
	}
	g.below = 0
	return false
}

func newOutputStage(cfg *renderConfig) (*room.Reverb, error) {
	stage := room.NewReverb(cfg.sampleRate)
	stage.SetGain(cfg.preset.MasterGain)
	switch {
	case cfg.preset.RoomIRPath != "":
		if err := stage.SetIRFromWAV(cfg.preset.RoomIRPath); err != nil {
			return nil, fmt.Errorf("room IR: %w", err)
		}
	case cfg.room:
		if err := stage.SetGenerated(room.DefaultConfig(cfg.sampleRate)); err != nil {
			return nil, fmt.Errorf("room IR: %w", err)
		}
	}
	if stage.HasIR() {
		mix := cfg.preset.RoomMix
		if mix == 0 {
			mix = 0.25
		}
		stage.SetMix(mix)
	}
	return stage, nil
}

// render produces interleaved stereo output for cfg.
func render(ctx context.Context, cfg *renderConfig) ([]float32, error) {
	if cfg.preset == nil {
		cfg.preset = preset.NewDefaultPreset()
	}
	engine := resonant.NewEngine(cfg.sampleRate, cfg.preset.Params)
	proc := resonant.NewProcessor(engine)
	stage, err := newOutputStage(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.scorePath != "" || cfg.scoreSrc != "" {
		var out []float32
		runner := score.NewRunner(proc, cfg.preset.Params.Seed, score.Options{
			BlockSize:  blockSize,
			MaxSeconds: cfg.maxDuration,
			OnEvent:    cfg.onEvent,
			OnBlock: func(block []float32) error {
				stage.Process(block)
				out = append(out, block...)
				return nil
			},
		})
		if cfg.scorePath != "" {
			err = runner.RunFile(ctx, cfg.scorePath)
		} else {
			err = runner.Run(ctx, cfg.scoreSrc)
		}
		return out, err
	}

	if cfg.resonator < 0 || cfg.resonator >= engine.Size() {
		return nil, fmt.Errorf("resonator %d out of range [0,%d)", cfg.resonator, engine.Size())
	}
	proc.Send(resonant.ExciteCommand(cfg.resonator, cfg.excitation))

	autoStop := !math.IsInf(cfg.decayDBFS, 1)
	totalFrames := max(int(float64(cfg.sampleRate)*cfg.duration), 1)
	var gate *decayGate
	if autoStop {
		minFrames := int(float64(cfg.sampleRate) * cfg.minDuration)
		totalFrames = max(int(float64(cfg.sampleRate)*cfg.maxDuration), minFrames, blockSize)
		gate = newDecayGate(cfg.decayDBFS, cfg.decayHoldBlocks, minFrames)
	}

	out := make([]float32, 0, totalFrames*2)
	block := make([]float32, blockSize*2)
	var ev resonant.Event
	rendered := 0
	for rendered < totalFrames {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		n := min(blockSize, totalFrames-rendered)
		buf := block[:n*2]
		proc.Process(buf)
		for proc.PollEvent(&ev) {
			if cfg.onEvent != nil {
				cfg.onEvent(&ev)
			}
		}
		stage.Process(buf)
		out = append(out, buf...)
		rendered += n
		if gate != nil && gate.done(buf, rendered) {
			break
		}
	}
	return out, nil
}
