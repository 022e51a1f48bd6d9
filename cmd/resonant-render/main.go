package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"

	"github.com/cwbudde/algo-resonant/analysis"
	"github.com/cwbudde/algo-resonant/internal/wavio"
	"github.com/cwbudde/algo-resonant/preset"
	"github.com/cwbudde/algo-resonant/resonant"
)

func main() {
	sampleRate := flag.Int("sample-rate", 48000, "Render sample rate in Hz")
	presetPath := flag.String("preset", "", "Preset JSON file path (optional)")
	scorePath := flag.String("score", "", "Lua score file; replaces the single excitation")
	kind := flag.String("excite", "strike", "Excitation kind without a score: strike, bow or breath")
	resonator := flag.Int("resonator", 0, "Resonator index to excite without a score")
	position := flag.Float64("position", 0.5, "Strike/bow position (0-1)")
	hardness := flag.Float64("hardness", 0.8, "Strike hardness (0-1)")
	topology := flag.String("topology", "", "Coupling topology override: ring, grid, tree or mesh")
	material := flag.String("material", "", "Material preset override: wood, metal, glass or membrane")
	duration := flag.Float64("duration", 2.0, "Duration in seconds")
	decayDBFS := flag.Float64("decay-dbfs", math.Inf(1), "Auto-stop when stereo block RMS falls below this dBFS (e.g. -90). Disabled by default")
	decayHoldBlocks := flag.Int("decay-hold-blocks", 6, "Consecutive below-threshold blocks required to stop in auto-decay mode")
	minDuration := flag.Float64("min-duration", 0.5, "Minimum render duration in seconds when using -decay-dbfs")
	maxDuration := flag.Float64("max-duration", 20.0, "Maximum render duration in seconds (auto-decay mode and scores)")
	roomEnabled := flag.Bool("room", false, "Convolve with a synthetic room IR")
	roomIR := flag.String("room-ir", "", "Room IR WAV path override (optional)")
	roomMix := flag.Float64("room-mix", -1, "Room wet mix override (0-1)")
	gain := flag.Float64("gain", -1, "Master gain override")
	events := flag.Bool("events", false, "Print telemetry events")
	output := flag.String("output", "output.wav", "Output WAV file path")
	flag.Parse()

	p := preset.NewDefaultPreset()
	if *presetPath != "" {
		loaded, err := preset.LoadJSON(*presetPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading preset %q: %v\n", *presetPath, err)
			os.Exit(1)
		}
		p = loaded
	}
	if err := applyOverrides(p, *topology, *material, *roomIR, *roomMix, *gain); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	exc, err := buildExcitation(*kind, *position, *hardness)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg := &renderConfig{
		sampleRate:      *sampleRate,
		preset:          p,
		scorePath:       *scorePath,
		excitation:      exc,
		resonator:       *resonator,
		duration:        *duration,
		decayDBFS:       *decayDBFS,
		decayHoldBlocks: *decayHoldBlocks,
		minDuration:     *minDuration,
		maxDuration:     *maxDuration,
		room:            *roomEnabled,
	}
	if *events {
		cfg.onEvent = printEvent(*sampleRate)
	}

	source := fmt.Sprintf("%s on resonator %d", exc.Kind, *resonator)
	if *scorePath != "" {
		source = "score " + *scorePath
	}
	fmt.Printf("Rendering %s at %d Hz (%d resonators, %s topology)...\n",
		source, *sampleRate, p.Params.Resonators, p.Params.Topology)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	samples, err := render(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering: %v\n", err)
		os.Exit(1)
	}

	if err := wavio.WriteStereo(*output, samples, *sampleRate); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing WAV file: %v\n", err)
		os.Exit(1)
	}
	st := analysis.Describe(wavio.StereoToMono(samples))
	fmt.Printf("Successfully wrote %s (%d frames, %.3fs, peak %.1f dBFS, rms %.1f dBFS)\n",
		*output, len(samples)/2, float64(len(samples)/2)/float64(*sampleRate), st.PeakDB, st.RMSDB)
}

func buildExcitation(kind string, position, hardness float64) (resonant.Excitation, error) {
	k, err := resonant.ParseExcitationKind(kind)
	if err != nil {
		return resonant.Excitation{}, err
	}
	e := resonant.DefaultExcitation(k)
	switch k {
	case resonant.ExcitationStrike:
		e.Position = position
		e.Hardness = hardness
	case resonant.ExcitationBow:
		e.Position = position
	}
	return e, nil
}

func applyOverrides(p *preset.Preset, topology, material, roomIR string, roomMix, gain float64) error {
	f := &preset.File{Topology: topology, Material: material, RoomIRPath: roomIR}
	if roomMix >= 0 {
		mix := float32(roomMix)
		f.RoomMix = &mix
	}
	if gain >= 0 {
		g := float32(gain)
		f.MasterGain = &g
	}
	return preset.ApplyFile(p, f)
}

func printEvent(sampleRate int) func(ev *resonant.Event) {
	return func(ev *resonant.Event) {
		at := float64(ev.Frame) / float64(sampleRate)
		switch ev.Kind {
		case resonant.EventCouplingUpdate:
			fmt.Printf("[%7.3fs] coupling-update strength=%.3f\n", at, ev.CouplingStrength)
		case resonant.EventAnalysis:
			fmt.Printf("[%7.3fs] analysis peak=%.4f\n", at, ev.Analysis.PeakAmplitude)
		case resonant.EventEnergy:
			loudest := 0
			for i, v := range ev.Energy.Energies {
				if v > ev.Energy.Energies[loudest] {
					loudest = i
				}
			}
			fmt.Printf("[%7.3fs] energy loudest=%d (%.1f dB)\n", at, loudest, ev.Energy.EnergyDB(loudest))
		}
	}
}
