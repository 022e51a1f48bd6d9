package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-resonant/resonant"
)

// DefaultMasterGain is the output gain applied by the host after rendering.
const DefaultMasterGain = float32(0.4)

// File is the JSON schema for resonator bank presets.
type File struct {
	Resonators       *int     `json:"resonators,omitempty"`
	MaxDelayMs       *float64 `json:"max_delay_ms,omitempty"`
	EnergySmoothing  *float32 `json:"energy_smoothing,omitempty"`
	Material         string   `json:"material,omitempty"`
	Stiffness        *float32 `json:"stiffness,omitempty"`
	Damping          *float32 `json:"damping,omitempty"`
	Topology         string   `json:"topology,omitempty"`
	CouplingStrength *float32 `json:"coupling_strength,omitempty"`
	// MaterialPosition retunes every resonator from the physics model.
	MaterialPosition *[3]float64 `json:"material_position,omitempty"`
	Tension          *float32    `json:"tension,omitempty"`
	AnalysisInterval *int        `json:"analysis_interval,omitempty"`
	Seed             *int64      `json:"seed,omitempty"`
	TensionLFOHz     *float64    `json:"tension_lfo_hz,omitempty"`
	TensionLFODepth  *float64    `json:"tension_lfo_depth,omitempty"`

	MasterGain *float32 `json:"master_gain,omitempty"`
	RoomIRPath string   `json:"room_ir_path,omitempty"`
	RoomMix    *float32 `json:"room_mix,omitempty"`
}

// Preset is a loaded preset: engine params plus host-side output settings.
type Preset struct {
	Params     *resonant.Params
	MasterGain float32
	RoomIRPath string
	RoomMix    float32
}

// NewDefaultPreset returns default params with the default master gain.
func NewDefaultPreset() *Preset {
	return &Preset{
		Params:     resonant.NewDefaultParams(),
		MasterGain: DefaultMasterGain,
	}
}

// LoadJSON loads a preset JSON file and applies it on top of defaults.
func LoadJSON(path string) (*Preset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	p := NewDefaultPreset()
	if err := ApplyFile(p, &f); err != nil {
		return nil, err
	}

	if p.RoomIRPath != "" && !filepath.IsAbs(p.RoomIRPath) {
		base := filepath.Dir(path)
		p.RoomIRPath = filepath.Clean(filepath.Join(base, p.RoomIRPath))
	}
	return p, nil
}

// ApplyFile applies a parsed preset file onto an existing preset.
func ApplyFile(dst *Preset, f *File) error {
	if dst == nil || dst.Params == nil {
		return fmt.Errorf("nil destination params")
	}
	if f == nil {
		return nil
	}
	p := dst.Params

	if f.Resonators != nil {
		if *f.Resonators < 1 {
			return fmt.Errorf("resonators must be >= 1")
		}
		p.Resonators = *f.Resonators
	}
	if f.MaxDelayMs != nil {
		if *f.MaxDelayMs <= 0 {
			return fmt.Errorf("max_delay_ms must be > 0")
		}
		p.MaxDelayMs = *f.MaxDelayMs
	}
	if f.EnergySmoothing != nil {
		if *f.EnergySmoothing <= 0 || *f.EnergySmoothing > 1 {
			return fmt.Errorf("energy_smoothing must be in (0,1]")
		}
		p.EnergySmoothing = *f.EnergySmoothing
	}
	if name := strings.TrimSpace(f.Material); name != "" {
		m, err := resonant.MaterialPreset(name)
		if err != nil {
			return err
		}
		p.Material = m
	}
	if f.Stiffness != nil {
		if *f.Stiffness < 0 || *f.Stiffness > 1 {
			return fmt.Errorf("stiffness must be in [0,1]")
		}
		p.Material.Stiffness = *f.Stiffness
	}
	if f.Damping != nil {
		if *f.Damping < 0 {
			return fmt.Errorf("damping must be >= 0")
		}
		p.Material.Damping = *f.Damping
	}
	if name := strings.TrimSpace(f.Topology); name != "" {
		t, err := resonant.ParseTopology(name)
		if err != nil {
			return err
		}
		p.Topology = t
	}
	if f.CouplingStrength != nil {
		if *f.CouplingStrength < 0 {
			return fmt.Errorf("coupling_strength must be >= 0")
		}
		p.CouplingStrength = *f.CouplingStrength
	}
	if f.MaterialPosition != nil {
		for i, v := range f.MaterialPosition {
			if v < 0 || v > 1 {
				return fmt.Errorf("material_position[%d] must be in [0,1]", i)
			}
		}
		p.MaterialPosition = *f.MaterialPosition
		p.ApplyMaterialPosition = true
	}
	if f.Tension != nil {
		p.Tension = *f.Tension
	}
	if f.AnalysisInterval != nil {
		if *f.AnalysisInterval < 1 {
			return fmt.Errorf("analysis_interval must be >= 1")
		}
		p.AnalysisInterval = *f.AnalysisInterval
	}
	if f.Seed != nil {
		p.Seed = *f.Seed
	}
	if f.TensionLFOHz != nil {
		if *f.TensionLFOHz < 0 || *f.TensionLFOHz > resonant.MaxTensionLFOHz {
			return fmt.Errorf("tension_lfo_hz must be in [0,%g]", resonant.MaxTensionLFOHz)
		}
		p.TensionLFOHz = *f.TensionLFOHz
	}
	if f.TensionLFODepth != nil {
		p.TensionLFODepth = *f.TensionLFODepth
	}

	if f.MasterGain != nil {
		if *f.MasterGain <= 0 {
			return fmt.Errorf("master_gain must be > 0")
		}
		dst.MasterGain = *f.MasterGain
	}
	if f.RoomIRPath != "" {
		dst.RoomIRPath = strings.TrimSpace(f.RoomIRPath)
	}
	if f.RoomMix != nil {
		if *f.RoomMix < 0 || *f.RoomMix > 1 {
			return fmt.Errorf("room_mix must be in [0,1]")
		}
		dst.RoomMix = *f.RoomMix
	}
	return nil
}

// FromPreset builds a fully populated File describing p.
func FromPreset(p *Preset) *File {
	if p == nil || p.Params == nil {
		return &File{}
	}
	params := p.Params
	resonators := params.Resonators
	maxDelay := params.MaxDelayMs
	smoothing := params.EnergySmoothing
	stiffness := params.Material.Stiffness
	damping := params.Material.Damping
	strength := params.CouplingStrength
	tension := params.Tension
	interval := params.AnalysisInterval
	seed := params.Seed
	gain := p.MasterGain

	f := &File{
		Resonators:       &resonators,
		MaxDelayMs:       &maxDelay,
		EnergySmoothing:  &smoothing,
		Stiffness:        &stiffness,
		Damping:          &damping,
		Topology:         string(params.Topology),
		CouplingStrength: &strength,
		Tension:          &tension,
		AnalysisInterval: &interval,
		Seed:             &seed,
		MasterGain:       &gain,
		RoomIRPath:       p.RoomIRPath,
	}
	if params.ApplyMaterialPosition {
		pos := params.MaterialPosition
		f.MaterialPosition = &pos
	}
	if params.TensionLFOHz > 0 {
		hz := params.TensionLFOHz
		depth := params.TensionLFODepth
		f.TensionLFOHz = &hz
		f.TensionLFODepth = &depth
	}
	if p.RoomMix > 0 {
		mix := p.RoomMix
		f.RoomMix = &mix
	}
	return f
}

// SaveJSON writes p as an indented preset file.
func SaveJSON(path string, p *Preset) error {
	b, err := json.MarshalIndent(FromPreset(p), "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, b, 0o644)
}
