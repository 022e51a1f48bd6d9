package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-resonant/analysis"
	"github.com/cwbudde/algo-resonant/internal/wavio"
	"github.com/cwbudde/algo-resonant/preset"
)

type runReport struct {
	ReferencePath  string             `json:"reference_path"`
	PresetPath     string             `json:"preset_path"`
	OutputPreset   string             `json:"output_preset"`
	SampleRate     int                `json:"sample_rate"`
	Resonator      int                `json:"resonator"`
	DurationSec    float64            `json:"elapsed_seconds"`
	Evaluations    int                `json:"evaluations"`
	MayflyVariant  string             `json:"mayfly_variant"`
	InitialScore   float64            `json:"initial_score"`
	BestScore      float64            `json:"best_score"`
	BestSimilarity float64            `json:"best_similarity"`
	BestMetrics    analysis.Metrics   `json:"best_metrics"`
	BestKnobs      map[string]float64 `json:"best_knobs"`
}

type outputConfig struct {
	outputPreset  string
	reportPath    string
	referencePath string
	presetPath    string
	sampleRate    int
	resonator     int
	variant       string
}

func writeOutputs(oc outputConfig, base *preset.Preset, defs []knobDef, res *optimizationResult) error {
	p, _ := applyCandidate(base, oc.resonator, defs, res.best)
	if err := preset.SaveJSON(oc.outputPreset, p); err != nil {
		return err
	}
	rep := runReport{
		ReferencePath:  oc.referencePath,
		PresetPath:     oc.presetPath,
		OutputPreset:   oc.outputPreset,
		SampleRate:     oc.sampleRate,
		Resonator:      oc.resonator,
		DurationSec:    res.elapsed,
		Evaluations:    res.evals,
		MayflyVariant:  oc.variant,
		InitialScore:   res.initial.Score,
		BestScore:      res.bestMetrics.Score,
		BestSimilarity: res.bestMetrics.Similarity,
		BestMetrics:    res.bestMetrics,
		BestKnobs:      knobMap(defs, res.best),
	}
	reportPath := oc.reportPath
	if reportPath == "" {
		reportPath = oc.outputPreset + ".report.json"
	}
	return writeJSON(reportPath, rep)
}

// loadCandidateFromReport restores best_knobs from a previous report.
// A missing report is not an error.
func loadCandidateFromReport(path string, defs []knobDef, fallback candidate) (candidate, bool, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fallback, false, nil
	}
	if err != nil {
		return fallback, false, err
	}
	var rep runReport
	if err := json.Unmarshal(b, &rep); err != nil {
		return fallback, false, fmt.Errorf("parse report: %w", err)
	}
	if len(rep.BestKnobs) == 0 {
		return fallback, false, nil
	}
	out := cloneCandidate(fallback)
	found := false
	for i, d := range defs {
		if v, ok := rep.BestKnobs[d.Name]; ok {
			out.Vals[i] = clamp(v, d.Min, d.Max)
			found = true
		}
	}
	return out, found, nil
}

func writeCandidateWAV(path string, base *preset.Preset, resonator int, defs []knobDef, c candidate, s evalSettings) error {
	p, exc := applyCandidate(base, resonator, defs, c)
	return wavio.WriteStereo(path, renderCandidate(p, exc, s), s.sampleRate)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}
