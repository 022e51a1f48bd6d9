// Command resonant-fit searches material position, topology and strike
// parameters so that a single struck resonator matches a reference WAV.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cwbudde/algo-resonant/analysis"
	"github.com/cwbudde/algo-resonant/internal/wavio"
	"github.com/cwbudde/algo-resonant/preset"
)

func main() {
	referencePath := flag.String("reference", "reference/strike.wav", "Reference WAV path")
	presetPath := flag.String("preset", "", "Base preset JSON path (default: built-in defaults)")
	outputPreset := flag.String("output-preset", "presets/fitted.json", "Path to write best fitted preset JSON")
	reportPath := flag.String("report", "", "Optional report JSON path (default: <output-preset>.report.json)")
	resonator := flag.Int("resonator", 0, "Resonator index to strike")
	sampleRate := flag.Int("sample-rate", 48000, "Render/analysis sample rate")
	seed := flag.Int64("seed", 1, "Random seed")
	timeBudget := flag.Float64("time-budget", 120.0, "Optimization time budget in seconds")
	maxEvals := flag.Int("max-evals", 5000, "Maximum objective evaluations")
	reportEvery := flag.Int("report-every", 20, "Print progress every N evaluations")
	decayDBFS := flag.Float64("decay-dbfs", -90.0, "Auto-stop threshold in dBFS")
	decayHoldBlocks := flag.Int("decay-hold-blocks", 6, "Consecutive below-threshold blocks for stop")
	minDuration := flag.Float64("min-duration", 0.5, "Minimum render duration in seconds")
	maxDuration := flag.Float64("max-duration", 8.0, "Maximum render duration in seconds")
	writeBestCandidate := flag.String("write-best-candidate", "", "Optional WAV path to write best candidate render")
	resume := flag.Bool("resume", true, "Resume from previous best_knobs report when available")
	workersRaw := flag.String("workers", "auto", "Parallel workers: integer >= 1 or 'auto'")

	mayflyVariant := flag.String("mayfly-variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	mayflyPop := flag.Int("mayfly-pop", 10, "Male and female population size per Mayfly run")
	mayflyRoundEvals := flag.Int("mayfly-round-evals", 240, "Target eval budget per Mayfly round")
	flag.Parse()

	if *maxEvals < 1 {
		die("max-evals must be >= 1")
	}
	if *timeBudget <= 0 {
		die("time-budget must be > 0")
	}
	if *sampleRate <= 0 {
		die("sample-rate must be > 0")
	}
	*reportEvery = max(*reportEvery, 1)
	*mayflyPop = max(*mayflyPop, 2)
	*mayflyRoundEvals = max(*mayflyRoundEvals, *mayflyPop*2)
	workers, err := parseWorkers(*workersRaw)
	if err != nil {
		die("invalid workers: %v", err)
	}

	base := preset.NewDefaultPreset()
	if *presetPath != "" {
		if base, err = preset.LoadJSON(*presetPath); err != nil {
			die("failed to load preset: %v", err)
		}
	}
	if *resonator < 0 || *resonator >= base.Params.Resonators {
		die("resonator must be in [0,%d)", base.Params.Resonators)
	}

	ref, refSR, err := wavio.ReadMono(*referencePath)
	if err != nil {
		die("failed to read reference: %v", err)
	}
	if ref, err = wavio.Resample(ref, refSR, *sampleRate); err != nil {
		die("failed to resample reference: %v", err)
	}

	defs := knobDefs()
	initCand := initCandidate(base, defs)
	if *resume {
		resumePath := *reportPath
		if resumePath == "" {
			resumePath = *outputPreset + ".report.json"
		}
		if resumed, ok, err := loadCandidateFromReport(resumePath, defs, initCand); err != nil {
			fmt.Fprintf(os.Stderr, "resume skipped (%s): %v\n", resumePath, err)
		} else if ok {
			initCand = resumed
			fmt.Printf("Resumed candidate from %s\n", resumePath)
		}
	}

	settings := evalSettings{
		reference:       ref,
		sampleRate:      *sampleRate,
		decayDBFS:       *decayDBFS,
		decayHoldBlocks: *decayHoldBlocks,
		minDuration:     *minDuration,
		maxDuration:     *maxDuration,
	}
	cfg := &optimizationConfig{
		base:             base,
		resonator:        *resonator,
		defs:             defs,
		initCandidate:    initCand,
		settings:         settings,
		seed:             *seed,
		timeBudget:       *timeBudget,
		maxEvals:         *maxEvals,
		reportEvery:      *reportEvery,
		mayflyVariant:    *mayflyVariant,
		mayflyPop:        *mayflyPop,
		mayflyRoundEvals: *mayflyRoundEvals,
		workers:          workers,
	}
	if *writeBestCandidate != "" {
		cfg.onImprove = func(best candidate, _ analysis.Metrics) {
			if err := writeCandidateWAV(*writeBestCandidate, base, *resonator, defs, best, settings); err != nil {
				fmt.Fprintf(os.Stderr, "best candidate write failed: %v\n", err)
			}
		}
	}

	res, err := runOptimization(cfg)
	if err != nil {
		die("optimization failed: %v", err)
	}

	oc := outputConfig{
		outputPreset:  *outputPreset,
		reportPath:    *reportPath,
		referencePath: *referencePath,
		presetPath:    *presetPath,
		sampleRate:    *sampleRate,
		resonator:     *resonator,
		variant:       strings.ToLower(*mayflyVariant),
	}
	if err := writeOutputs(oc, base, defs, res); err != nil {
		die("failed to write outputs: %v", err)
	}

	fmt.Printf("Done evals=%d elapsed=%.1fs\n", res.evals, res.elapsed)
	fmt.Printf("Best score=%.4f similarity=%.2f%% (start %.4f)\n", res.bestMetrics.Score, res.bestMetrics.Similarity*100.0, res.initial.Score)
	for i, d := range defs {
		fmt.Printf("  %-16s %.4f\n", d.Name, res.best.Vals[i])
	}
	fmt.Printf("Wrote %s\n", *outputPreset)
}
