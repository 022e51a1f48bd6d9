package main

import (
	"math"

	"github.com/cwbudde/algo-resonant/preset"
	"github.com/cwbudde/algo-resonant/resonant"
)

type knobDef struct {
	Name  string
	Min   float64
	Max   float64
	IsInt bool
}

type candidate struct {
	Vals []float64
}

// fitExcitation is the excitation a candidate is rendered with.
type fitExcitation struct {
	resonator int
	strike    resonant.Excitation
}

// knobDefs lists the fitted parameters. Material x/y select stiffness and
// damping on the material manifold and retune the bank; z sets coupling.
func knobDefs() []knobDef {
	return []knobDef{
		{Name: "material_x", Min: 0, Max: 1},
		{Name: "material_y", Min: 0, Max: 1},
		{Name: "material_z", Min: 0, Max: 1},
		{Name: "topology", Min: 0, Max: float64(len(resonant.Topologies()) - 1), IsInt: true},
		{Name: "strike_position", Min: 0.05, Max: 0.95},
		{Name: "strike_hardness", Min: 0.2, Max: 1},
	}
}

// initCandidate derives the starting point from base.
func initCandidate(base *preset.Preset, defs []knobDef) candidate {
	p := base.Params
	topo := 0.0
	for i, t := range resonant.Topologies() {
		if t == p.Topology {
			topo = float64(i)
		}
	}
	start := map[string]float64{
		"material_x":      p.MaterialPosition[0],
		"material_y":      p.MaterialPosition[1],
		"material_z":      p.MaterialPosition[2],
		"topology":        topo,
		"strike_position": 0.5,
		"strike_hardness": 0.8,
	}
	vals := make([]float64, len(defs))
	for i, d := range defs {
		vals[i] = clamp(start[d.Name], d.Min, d.Max)
	}
	return candidate{Vals: vals}
}

func fromNormalized(pos []float64, defs []knobDef) candidate {
	vals := make([]float64, len(defs))
	for i, d := range defs {
		x := 0.0
		if i < len(pos) {
			x = clamp(pos[i], 0, 1)
		}
		v := resonant.Lerp(d.Min, d.Max, x)
		if d.IsInt {
			v = math.Round(v)
		}
		vals[i] = v
	}
	return candidate{Vals: vals}
}

func toNormalized(c candidate, defs []knobDef) []float64 {
	pos := make([]float64, len(defs))
	for i, d := range defs {
		pos[i] = clamp(resonant.MapRange(c.Vals[i], d.Min, d.Max, 0, 1), 0, 1)
	}
	return pos
}

func cloneCandidate(c candidate) candidate {
	return candidate{Vals: append([]float64(nil), c.Vals...)}
}

// applyCandidate returns a copy of base with c applied, and the excitation
// the candidate is rendered with.
func applyCandidate(base *preset.Preset, resonator int, defs []knobDef, c candidate) (*preset.Preset, fitExcitation) {
	params := *base.Params
	out := *base
	out.Params = &params

	exc := fitExcitation{
		resonator: resonator,
		strike:    resonant.DefaultExcitation(resonant.ExcitationStrike),
	}
	for i, d := range defs {
		v := c.Vals[i]
		switch d.Name {
		case "material_x":
			params.MaterialPosition[0] = v
		case "material_y":
			params.MaterialPosition[1] = v
		case "material_z":
			params.MaterialPosition[2] = v
		case "topology":
			all := resonant.Topologies()
			params.Topology = all[min(max(int(v), 0), len(all)-1)]
		case "strike_position":
			exc.strike.Position = v
		case "strike_hardness":
			exc.strike.Hardness = v
		}
	}
	params.ApplyMaterialPosition = true
	params.Material = resonant.MaterialFromPosition(params.MaterialPosition[0], params.MaterialPosition[1])
	params.CouplingStrength = float32(params.MaterialPosition[2])
	return &out, exc
}

func knobMap(defs []knobDef, c candidate) map[string]float64 {
	m := make(map[string]float64, len(defs))
	for i, d := range defs {
		m[d.Name] = c.Vals[i]
	}
	return m
}
