package resonant

// MaxTensionLFOHz is the fastest accepted tension LFO rate.
const MaxTensionLFOHz = 20.0

// Params holds the construction-time configuration of an Engine and its Processor.
type Params struct {
	Resonators int

	MaxDelayMs       float64
	EnergySmoothing  float32
	ExcitationCutoff float32
	EdgeCutoff       float32

	Material         Material
	MaterialPosition [3]float64
	// ApplyMaterialPosition retunes the bank from MaterialPosition at construction.
	ApplyMaterialPosition bool

	Topology         Topology
	CouplingStrength float32
	Tension          float32

	AnalysisInterval          int
	EnergySnapshotProbability float64
	CommandQueueSize          int
	EventQueueSize            int
	Seed                      int64

	// Tension LFO, off when either value is 0.
	TensionLFOHz    float64
	TensionLFODepth float64
}

// NewDefaultParams creates default parameters.
func NewDefaultParams() *Params {
	return &Params{
		Resonators:                8,
		MaxDelayMs:                100,
		EnergySmoothing:           0.001,
		ExcitationCutoff:          0.7,
		EdgeCutoff:                0.8,
		Material:                  DefaultMaterial(),
		MaterialPosition:          [3]float64{0.5, 0.5, 0.5},
		Topology:                  TopologyRing,
		CouplingStrength:          DefaultCouplingStrength,
		AnalysisInterval:          4096,
		EnergySnapshotProbability: 0.1,
		CommandQueueSize:          256,
		EventQueueSize:            64,
		Seed:                      1,
	}
}

// sanitized returns a copy of p with out-of-domain fields replaced by defaults.
func (p *Params) sanitized() *Params {
	def := NewDefaultParams()
	if p == nil {
		return def
	}
	out := *p
	if out.Resonators < 1 {
		out.Resonators = 1
	}
	if !isFinite64(out.MaxDelayMs) || out.MaxDelayMs <= 0 {
		out.MaxDelayMs = def.MaxDelayMs
	}
	if !isFinite(out.EnergySmoothing) || out.EnergySmoothing <= 0 || out.EnergySmoothing > 1 {
		out.EnergySmoothing = def.EnergySmoothing
	}
	if !isFinite(out.ExcitationCutoff) {
		out.ExcitationCutoff = def.ExcitationCutoff
	}
	if !isFinite(out.EdgeCutoff) {
		out.EdgeCutoff = def.EdgeCutoff
	}
	if out.Material == (Material{}) {
		out.Material = def.Material
	}
	if !out.Topology.Valid() {
		out.Topology = def.Topology
	}
	if !isFinite(out.CouplingStrength) || out.CouplingStrength < 0 {
		out.CouplingStrength = def.CouplingStrength
	}
	if !isFinite(out.Tension) {
		out.Tension = 0
	}
	if out.AnalysisInterval <= 0 {
		out.AnalysisInterval = def.AnalysisInterval
	}
	if !isFinite64(out.EnergySnapshotProbability) || out.EnergySnapshotProbability < 0 {
		out.EnergySnapshotProbability = 0
	}
	if !isFinite64(out.TensionLFOHz) || out.TensionLFOHz < 0 {
		out.TensionLFOHz = 0
	}
	out.TensionLFOHz = min(out.TensionLFOHz, MaxTensionLFOHz)
	if !isFinite64(out.TensionLFODepth) {
		out.TensionLFODepth = 0
	}
	if out.CommandQueueSize < 1 {
		out.CommandQueueSize = def.CommandQueueSize
	}
	if out.EventQueueSize < 1 {
		out.EventQueueSize = def.EventQueueSize
	}
	return &out
}
