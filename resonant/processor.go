package resonant

import (
	"math/rand"
	"sync/atomic"
)

// Processor drives an Engine from a real-time render goroutine. Control
// goroutines enqueue Commands with Send; the render goroutine calls Process,
// which applies every pending command in order before rendering. Telemetry
// flows back through PollEvent. Send must be called from one goroutine at a
// time (see Controller); Process and PollEvent each from one goroutine.
type Processor struct {
	engine   *Engine
	commands *spscRing[Command]
	events   *spscRing[Event]

	rnd                 RandomSource
	snapshotProbability float64
	analysisInterval    int
	sampleCount         int
	windowPeak          float32
	frame               uint64

	lfo         *LFO
	baseTension float32

	droppedEvents   atomic.Uint64
	droppedCommands atomic.Uint64
}

// NewProcessor wraps engine. Queue sizes, telemetry cadence and the
// telemetry seed come from the engine's parameters.
func NewProcessor(engine *Engine) *Processor {
	p := engine.params
	n := engine.Size()
	proc := &Processor{
		engine:              engine,
		commands:            newSPSCRing[Command](p.CommandQueueSize),
		events:              newSPSCRing[Event](p.EventQueueSize),
		rnd:                 rand.New(rand.NewSource(p.Seed + 1)),
		snapshotProbability: p.EnergySnapshotProbability,
		analysisInterval:    p.AnalysisInterval,
		baseTension:         engine.TensionField(),
	}
	for i := range proc.events.slots {
		proc.events.slots[i] = newEventSlot(n)
	}
	if p.TensionLFOHz > 0 && p.TensionLFODepth != 0 {
		proc.lfo = NewLFO(p.TensionLFOHz, p.TensionLFODepth, engine.SampleRate())
	}
	return proc
}

// SetRandomSource replaces the source that decides energy snapshot emission.
// It must not be called concurrently with Process.
func (p *Processor) SetRandomSource(rnd RandomSource) {
	if rnd != nil {
		p.rnd = rnd
	}
}

// Engine returns the wrapped engine. It must only be touched from the
// render goroutine.
func (p *Processor) Engine() *Engine { return p.engine }

// Send enqueues c without blocking. It returns false and drops c when the
// queue is full.
func (p *Processor) Send(c Command) bool {
	slot := p.commands.reserve()
	if slot == nil {
		p.droppedCommands.Add(1)
		return false
	}
	*slot = c
	p.commands.commit()
	return true
}

// PollEvent copies the oldest pending event into dst and reports whether
// one was available. dst's slices are reused when large enough.
func (p *Processor) PollEvent(dst *Event) bool {
	ev := p.events.front()
	if ev == nil {
		return false
	}
	ev.copyTo(dst)
	p.events.pop()
	return true
}

// PendingCommands returns the number of queued commands.
func (p *Processor) PendingCommands() int { return p.commands.len() }

// DroppedEvents returns how many telemetry events were lost to a full queue.
func (p *Processor) DroppedEvents() uint64 { return p.droppedEvents.Load() }

// DroppedCommands returns how many commands Send rejected.
func (p *Processor) DroppedCommands() uint64 { return p.droppedCommands.Load() }

// Process applies pending commands and renders len(out)/2 interleaved
// stereo frames into out. It does not block or allocate.
func (p *Processor) Process(out []float32) {
	p.drainCommands()

	frames := len(out) / 2
	if frames == 0 {
		return
	}
	if p.lfo != nil {
		p.engine.SetTensionField(p.baseTension + float32(p.lfo.Advance(frames)))
	}
	p.engine.Render(out)
	p.frame += uint64(frames)

	for i := 0; i < frames; i++ {
		if v := absf(out[2*i]); v > p.windowPeak {
			p.windowPeak = v
		}
	}

	if p.snapshotProbability > 0 && p.rnd.Float64() < p.snapshotProbability {
		p.emitEnergy()
	}

	p.sampleCount += frames
	if p.sampleCount >= p.analysisInterval {
		p.sampleCount -= p.analysisInterval
		p.emitAnalysis()
		p.windowPeak = 0
	}
}

func (p *Processor) drainCommands() {
	for c := p.commands.front(); c != nil; c = p.commands.front() {
		if c.Kind == CommandTension && isFinite(c.Value) {
			p.baseTension = c.Value
		}
		changed, strength := c.Apply(p.engine)
		if c.Kind == CommandReset || c.Kind == CommandClose {
			p.resetTelemetry()
		}
		p.commands.pop()
		if changed {
			p.emitCouplingUpdate(strength)
		}
	}
}

func (p *Processor) resetTelemetry() {
	p.windowPeak = 0
	if p.lfo != nil {
		p.lfo.Reset()
	}
}

func (p *Processor) emitCouplingUpdate(strength float32) {
	ev := p.events.reserve()
	if ev == nil {
		p.droppedEvents.Add(1)
		return
	}
	ev.Kind = EventCouplingUpdate
	ev.Frame = p.frame
	ev.CouplingStrength = strength
	ev.Energy.Energies = ev.Energy.Energies[:0]
	ev.Analysis.Resonators = ev.Analysis.Resonators[:0]
	ev.Analysis.PeakAmplitude = 0
	p.events.commit()
}

func (p *Processor) emitEnergy() {
	ev := p.events.reserve()
	if ev == nil {
		p.droppedEvents.Add(1)
		return
	}
	ev.Kind = EventEnergy
	ev.Frame = p.frame
	ev.CouplingStrength = p.engine.CouplingStrength()
	ev.Energy.Energies = p.engine.Energies(ev.Energy.Energies[:0])
	ev.Analysis.Resonators = ev.Analysis.Resonators[:0]
	ev.Analysis.PeakAmplitude = 0
	p.events.commit()
}

func (p *Processor) emitAnalysis() {
	ev := p.events.reserve()
	if ev == nil {
		p.droppedEvents.Add(1)
		return
	}
	ev.Kind = EventAnalysis
	ev.Frame = p.frame
	ev.CouplingStrength = p.engine.CouplingStrength()
	ev.Energy.Energies = ev.Energy.Energies[:0]
	ev.Analysis.PeakAmplitude = p.windowPeak
	reports := ev.Analysis.Resonators[:p.engine.Size()]
	for i, r := range p.engine.resonators {
		reports[i] = ResonatorReport{ID: r.ID(), Energy: r.Energy(), Frequency: r.Frequency()}
	}
	ev.Analysis.Resonators = reports
	p.events.commit()
}
