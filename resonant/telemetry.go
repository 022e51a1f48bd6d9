package resonant

import approx "github.com/cwbudde/algo-approx"

// EventKind identifies a telemetry message.
type EventKind uint8

const (
	EventNone EventKind = iota
	// EventEnergy carries a snapshot of every resonator energy.
	EventEnergy
	// EventAnalysis carries the periodic analysis report.
	EventAnalysis
	// EventCouplingUpdate answers a topology change with the coupling strength.
	EventCouplingUpdate
)

func (k EventKind) String() string {
	switch k {
	case EventEnergy:
		return "energy"
	case EventAnalysis:
		return "analysis"
	case EventCouplingUpdate:
		return "coupling-update"
	}
	return "none"
}

// ResonatorReport describes one resonator in an analysis report.
type ResonatorReport struct {
	ID        int     `json:"id"`
	Energy    float32 `json:"energy"`
	Frequency float64 `json:"frequency"`
}

// AnalysisReport is emitted once per analysis window.
type AnalysisReport struct {
	PeakAmplitude float32           `json:"peakAmplitude"`
	Resonators    []ResonatorReport `json:"resonators"`
}

// EnergySnapshot holds the energy of every resonator at the end of a block.
type EnergySnapshot struct {
	Energies []float32 `json:"energies"`
}

const silenceDB = float32(-200)

// EnergyDB returns the energy of resonator i in dB (20*log10), floored at -200.
func (s *EnergySnapshot) EnergyDB(i int) float32 {
	if i < 0 || i >= len(s.Energies) {
		return silenceDB
	}
	return LinearToDB(s.Energies[i])
}

// LinearToDB converts a linear amplitude to dB with a fast logarithm.
func LinearToDB(v float32) float32 {
	const ln10 = 2.302585092994046
	if !(v > 1e-10) {
		return silenceDB
	}
	return 20 * approx.FastLog(v) / ln10
}

// Event is a telemetry message produced by the render goroutine.
type Event struct {
	Kind             EventKind
	Frame            uint64
	CouplingStrength float32
	Energy           EnergySnapshot
	Analysis         AnalysisReport
}

func newEventSlot(size int) Event {
	return Event{
		Energy:   EnergySnapshot{Energies: make([]float32, size)},
		Analysis: AnalysisReport{Resonators: make([]ResonatorReport, size)},
	}
}

// copyTo deep-copies ev into dst, reusing dst's slices where possible.
func (ev *Event) copyTo(dst *Event) {
	dst.Kind = ev.Kind
	dst.Frame = ev.Frame
	dst.CouplingStrength = ev.CouplingStrength
	dst.Analysis.PeakAmplitude = ev.Analysis.PeakAmplitude
	dst.Energy.Energies = append(dst.Energy.Energies[:0], ev.Energy.Energies...)
	dst.Analysis.Resonators = append(dst.Analysis.Resonators[:0], ev.Analysis.Resonators...)
}
