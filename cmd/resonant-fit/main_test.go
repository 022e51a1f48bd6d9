package main

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-resonant/internal/wavio"
	"github.com/cwbudde/algo-resonant/preset"
	"github.com/cwbudde/algo-resonant/resonant"
)

func testSettings(ref []float64) evalSettings {
	return evalSettings{
		reference:       ref,
		sampleRate:      8000,
		decayDBFS:       -90,
		decayHoldBlocks: 4,
		minDuration:     0.1,
		maxDuration:     0.3,
	}
}

func TestFromNormalizedMapsAndRounds(t *testing.T) {
	defs := knobDefs()
	pos := make([]float64, len(defs))
	for i := range pos {
		pos[i] = 1
	}
	c := fromNormalized(pos, defs)
	for i, d := range defs {
		if math.Abs(c.Vals[i]-d.Max) > 1e-12 {
			t.Fatalf("%s: got=%f want=%f", d.Name, c.Vals[i], d.Max)
		}
	}

	pos[3] = 0.4
	c = fromNormalized(pos, defs)
	if c.Vals[3] != math.Round(c.Vals[3]) {
		t.Fatalf("integer knob not rounded: %f", c.Vals[3])
	}

	back := toNormalized(fromNormalized([]float64{0.25, 0.5, 0.75, 0, 0.5, 0.5}, defs), defs)
	if math.Abs(back[0]-0.25) > 1e-12 || math.Abs(back[2]-0.75) > 1e-12 {
		t.Fatalf("normalized round trip mismatch: %v", back)
	}
}

func TestFromNormalizedClampsOutOfRange(t *testing.T) {
	defs := knobDefs()
	c := fromNormalized([]float64{-1, 2}, defs)
	if c.Vals[0] != defs[0].Min || c.Vals[1] != defs[1].Max {
		t.Fatalf("expected clamped values, got %v", c.Vals)
	}
	if c.Vals[5] != defs[5].Min {
		t.Fatalf("missing dimension should map to min: got=%f want=%f", c.Vals[5], defs[5].Min)
	}
}

func TestNewMayflyConfigVariants(t *testing.T) {
	for _, v := range []string{"ma", "desma", "olce", "eobbma", "gsasma", "mpma", "aoblmoa"} {
		cfg, err := newMayflyConfig(v, 10, 6, 3)
		if err != nil {
			t.Fatalf("%s: %v", v, err)
		}
		if cfg.ProblemSize != 6 || cfg.NPop != 10 || cfg.NPopF != 10 || cfg.MaxIterations != 3 {
			t.Fatalf("%s: config mismatch: %+v", v, cfg)
		}
		if cfg.NC != 20 || cfg.NM != 1 {
			t.Fatalf("%s: offspring counts: nc=%d nm=%d", v, cfg.NC, cfg.NM)
		}
		if cfg.LowerBound != 0 || cfg.UpperBound != 1 {
			t.Fatalf("%s: bounds: [%f,%f]", v, cfg.LowerBound, cfg.UpperBound)
		}
	}
	if _, err := newMayflyConfig("swarm", 10, 6, 3); err == nil {
		t.Fatalf("expected error for unknown variant")
	}
}

func TestParseWorkers(t *testing.T) {
	if n, err := parseWorkers("auto"); err != nil || n != 0 {
		t.Fatalf("auto: n=%d err=%v", n, err)
	}
	if n, err := parseWorkers(" 4 "); err != nil || n != 4 {
		t.Fatalf("4: n=%d err=%v", n, err)
	}
	for _, bad := range []string{"", "0", "-2", "many"} {
		if _, err := parseWorkers(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestReserveEvalStopsAtLimit(t *testing.T) {
	var evals int64
	for want := int64(1); want <= 3; want++ {
		got, ok := reserveEval(&evals, 3)
		if !ok || got != want {
			t.Fatalf("reserve %d: got=%d ok=%v", want, got, ok)
		}
	}
	if _, ok := reserveEval(&evals, 3); ok {
		t.Fatalf("expected reservation to fail at limit")
	}
}

func TestApplyCandidateSetsParams(t *testing.T) {
	base := preset.NewDefaultPreset()
	defs := knobDefs()
	c := candidate{Vals: []float64{0.2, 0.6, 0.3, 3, 0.25, 0.5}}
	p, exc := applyCandidate(base, 2, defs, c)

	if p.Params == base.Params {
		t.Fatalf("expected params copy")
	}
	if base.Params.ApplyMaterialPosition {
		t.Fatalf("base preset was modified")
	}
	if p.Params.MaterialPosition != [3]float64{0.2, 0.6, 0.3} || !p.Params.ApplyMaterialPosition {
		t.Fatalf("material position mismatch: %+v", p.Params.MaterialPosition)
	}
	if p.Params.Material != resonant.MaterialFromPosition(0.2, 0.6) {
		t.Fatalf("material mismatch: %+v", p.Params.Material)
	}
	if p.Params.CouplingStrength != float32(0.3) {
		t.Fatalf("coupling mismatch: got=%f want=%f", p.Params.CouplingStrength, 0.3)
	}
	if p.Params.Topology != resonant.Topologies()[3] {
		t.Fatalf("topology mismatch: got=%q", p.Params.Topology)
	}
	if exc.resonator != 2 || exc.strike.Kind != resonant.ExcitationStrike {
		t.Fatalf("excitation mismatch: %+v", exc)
	}
	if exc.strike.Position != 0.25 || exc.strike.Hardness != 0.5 {
		t.Fatalf("strike mismatch: %+v", exc.strike)
	}
}

func TestInitCandidateFollowsPreset(t *testing.T) {
	base := preset.NewDefaultPreset()
	base.Params.MaterialPosition = [3]float64{0.1, 0.2, 0.3}
	base.Params.Topology = resonant.TopologyMesh
	defs := knobDefs()
	c := initCandidate(base, defs)
	if c.Vals[0] != 0.1 || c.Vals[1] != 0.2 || c.Vals[2] != 0.3 {
		t.Fatalf("position mismatch: %v", c.Vals)
	}
	p, _ := applyCandidate(base, 0, defs, c)
	if p.Params.Topology != resonant.TopologyMesh {
		t.Fatalf("topology mismatch: got=%q want=%q", p.Params.Topology, resonant.TopologyMesh)
	}
}

func TestRenderCandidateStopsAfterDecay(t *testing.T) {
	base := preset.NewDefaultPreset()
	defs := knobDefs()
	s := testSettings(nil)
	p, exc := applyCandidate(base, 0, defs, initCandidate(base, defs))
	out := renderCandidate(p, exc, s)
	maxFrames := int(float64(s.sampleRate) * s.maxDuration)
	if len(out) == 0 || len(out)%2 != 0 || len(out)/2 > maxFrames {
		t.Fatalf("unexpected render length: %d", len(out))
	}
	if len(out)/2 < int(float64(s.sampleRate)*s.minDuration) {
		t.Fatalf("render shorter than min duration: %d", len(out)/2)
	}
	if wavio.StereoRMS(out) == 0 {
		t.Fatalf("expected audible strike")
	}
}

func TestEvaluateMatchesOwnRender(t *testing.T) {
	base := preset.NewDefaultPreset()
	defs := knobDefs()
	c := initCandidate(base, defs)
	s := testSettings(nil)
	p, exc := applyCandidate(base, 0, defs, c)
	s.reference = wavio.StereoToMono(renderCandidate(p, exc, s))

	self := evaluate(base, 0, defs, c, s)
	if self.Score > 0.05 {
		t.Fatalf("expected near-zero score against own render, got %f", self.Score)
	}
}

func TestLoadCandidateFromReport(t *testing.T) {
	defs := knobDefs()
	fallback := initCandidate(preset.NewDefaultPreset(), defs)
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.json")
	if _, ok, err := loadCandidateFromReport(missing, defs, fallback); ok || err != nil {
		t.Fatalf("missing report: ok=%v err=%v", ok, err)
	}

	path := filepath.Join(dir, "fit.report.json")
	rep := runReport{BestKnobs: map[string]float64{"material_x": 0.9, "strike_hardness": 5}}
	if err := writeJSON(path, rep); err != nil {
		t.Fatalf("writeJSON: %v", err)
	}
	got, ok, err := loadCandidateFromReport(path, defs, fallback)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.Vals[0] != 0.9 || got.Vals[5] != defs[5].Max {
		t.Fatalf("restored values mismatch: %v", got.Vals)
	}
	if got.Vals[1] != fallback.Vals[1] {
		t.Fatalf("unrestored knob changed: got=%f want=%f", got.Vals[1], fallback.Vals[1])
	}
}

func TestRunOptimizationWritesOutputs(t *testing.T) {
	base := preset.NewDefaultPreset()
	defs := knobDefs()
	target := candidate{Vals: []float64{0.3, 0.4, 0.2, 0, 0.5, 0.8}}
	s := testSettings(nil)
	p, exc := applyCandidate(base, 0, defs, target)
	s.reference = wavio.StereoToMono(renderCandidate(p, exc, s))

	cfg := &optimizationConfig{
		base:             base,
		defs:             defs,
		initCandidate:    initCandidate(base, defs),
		settings:         s,
		seed:             3,
		timeBudget:       30,
		maxEvals:         12,
		mayflyVariant:    "desma",
		mayflyPop:        2,
		mayflyRoundEvals: 4,
		workers:          2,
	}
	res, err := runOptimization(cfg)
	if err != nil {
		t.Fatalf("runOptimization: %v", err)
	}
	if res.evals < 1 || res.evals > cfg.maxEvals {
		t.Fatalf("eval count out of range: %d", res.evals)
	}
	if res.bestMetrics.Score > res.initial.Score {
		t.Fatalf("best score worse than start: best=%f start=%f", res.bestMetrics.Score, res.initial.Score)
	}

	dir := t.TempDir()
	oc := outputConfig{outputPreset: filepath.Join(dir, "fit.json"), sampleRate: s.sampleRate, variant: "desma"}
	if err := writeOutputs(oc, base, defs, res); err != nil {
		t.Fatalf("writeOutputs: %v", err)
	}
	loaded, err := preset.LoadJSON(oc.outputPreset)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if !loaded.Params.ApplyMaterialPosition || loaded.Params.MaterialPosition[0] != res.best.Vals[0] {
		t.Fatalf("fitted preset mismatch: %+v", loaded.Params.MaterialPosition)
	}
	if _, ok, err := loadCandidateFromReport(oc.outputPreset+".report.json", defs, res.best); !ok || err != nil {
		t.Fatalf("report not resumable: ok=%v err=%v", ok, err)
	}
}

func TestRunOptimizationRejectsUnknownVariant(t *testing.T) {
	cfg := &optimizationConfig{mayflyVariant: "nope", mayflyPop: 2, defs: knobDefs()}
	if _, err := runOptimization(cfg); err == nil {
		t.Fatalf("expected error for unknown variant")
	}
}
