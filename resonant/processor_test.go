package resonant

import (
	"math"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
)

func newTestProcessor(mutate func(p *Params)) *Processor {
	return NewProcessor(newTestEngine(48000, func(p *Params) {
		p.EnergySnapshotProbability = 0
		if mutate != nil {
			mutate(p)
		}
	}))
}

func TestProcessorAppliesCommandsInOrderBeforeRender(t *testing.T) {
	proc := newTestProcessor(nil)
	if !proc.Send(TopologyCommand(TopologyMesh)) || !proc.Send(CouplingCommand(0.6)) {
		t.Fatalf("expected commands accepted")
	}
	if !proc.Send(ExciteCommand(0, DefaultExcitation(ExcitationStrike))) {
		t.Fatalf("expected excite accepted")
	}
	buf := make([]float32, 2)
	proc.Process(buf)

	e := proc.Engine()
	if e.Topology() != TopologyMesh || !almostEqual(float64(e.CouplingStrength()), 0.6, 1e-6) {
		t.Fatalf("commands not applied: topology=%s strength=%f", e.Topology(), e.CouplingStrength())
	}
	if e.Energy(0) == 0 {
		t.Fatalf("expected excitation rendered in the same block")
	}
	if proc.PendingCommands() != 0 {
		t.Fatalf("expected drained queue: %d", proc.PendingCommands())
	}

	var ev Event
	if !proc.PollEvent(&ev) || ev.Kind != EventCouplingUpdate {
		t.Fatalf("expected coupling update event, got %v", ev.Kind)
	}
	if ev.CouplingStrength != DefaultCouplingStrength {
		t.Fatalf("expected strength at rebuild time: got=%f", ev.CouplingStrength)
	}
	if proc.PollEvent(&ev) {
		t.Fatalf("unexpected extra event %v", ev.Kind)
	}
}

func TestProcessorIgnoresUnknownTopology(t *testing.T) {
	proc := newTestProcessor(nil)
	proc.Send(TopologyCommand("hexagon"))
	proc.Process(make([]float32, 2))
	var ev Event
	if proc.PollEvent(&ev) {
		t.Fatalf("unexpected event for unknown topology: %v", ev.Kind)
	}
	if proc.Engine().Topology() != TopologyRing {
		t.Fatalf("topology changed: %s", proc.Engine().Topology())
	}
}

func TestProcessorDropsWhenCommandQueueFull(t *testing.T) {
	proc := newTestProcessor(func(p *Params) { p.CommandQueueSize = 2 })
	proc.Send(TensionCommand(1))
	proc.Send(TensionCommand(2))
	if proc.Send(TensionCommand(3)) {
		t.Fatalf("expected full queue to reject")
	}
	if proc.DroppedCommands() != 1 {
		t.Fatalf("expected one dropped command: %d", proc.DroppedCommands())
	}
	proc.Process(make([]float32, 2))
	if got := proc.Engine().TensionField(); got != 2 {
		t.Fatalf("expected last accepted tension: got=%f", got)
	}
}

func TestProcessorAnalysisCadence(t *testing.T) {
	proc := newTestProcessor(nil)
	proc.Send(ExciteCommand(0, DefaultExcitation(ExcitationStrike)))
	proc.Send(ExciteCommand(5, DefaultExcitation(ExcitationBow)))

	const frames = 128
	buf := make([]float32, frames*2)
	var ev Event
	peak := float32(0)
	for block := 0; block < 4096/frames; block++ {
		if proc.PollEvent(&ev) {
			t.Fatalf("block %d: analysis emitted early", block)
		}
		proc.Process(buf)
		for i := 0; i < frames; i++ {
			if v := absf(buf[2*i]); v > peak {
				peak = v
			}
		}
	}
	if !proc.PollEvent(&ev) || ev.Kind != EventAnalysis {
		t.Fatalf("expected analysis event after 4096 samples")
	}
	if ev.Frame != 4096 {
		t.Fatalf("unexpected frame: %d", ev.Frame)
	}
	if ev.Analysis.PeakAmplitude != peak || peak == 0 {
		t.Fatalf("expected window peak: got=%f want=%f", ev.Analysis.PeakAmplitude, peak)
	}
	e := proc.Engine()
	if len(ev.Analysis.Resonators) != e.Size() {
		t.Fatalf("expected %d resonator reports, got %d", e.Size(), len(ev.Analysis.Resonators))
	}
	for i, r := range ev.Analysis.Resonators {
		if r.ID != i || r.Energy != e.Energy(i) || r.Frequency != 48000/float64(e.DelaySamples(i)) {
			t.Fatalf("unexpected report %d: %+v", i, r)
		}
	}

	proc.Process(buf)
	if proc.PollEvent(&ev) {
		t.Fatalf("expected next analysis only after another window")
	}
}

func TestProcessorEnergySnapshots(t *testing.T) {
	proc := newTestProcessor(func(p *Params) { p.EnergySnapshotProbability = 0.1 })
	proc.Send(ExciteCommand(1, DefaultExcitation(ExcitationStrike)))
	buf := make([]float32, 64)
	var ev Event

	proc.SetRandomSource(fixedSource(0.5))
	proc.Process(buf)
	if proc.PollEvent(&ev) {
		t.Fatalf("expected no snapshot above probability")
	}

	proc.SetRandomSource(fixedSource(0.05))
	proc.Process(buf)
	if !proc.PollEvent(&ev) || ev.Kind != EventEnergy {
		t.Fatalf("expected energy snapshot")
	}
	want := proc.Engine().Energies(nil)
	if len(ev.Energy.Energies) != len(want) {
		t.Fatalf("snapshot size: got=%d want=%d", len(ev.Energy.Energies), len(want))
	}
	for i := range want {
		if ev.Energy.Energies[i] != want[i] {
			t.Fatalf("snapshot %d: got=%g want=%g", i, ev.Energy.Energies[i], want[i])
		}
	}
	if ev.Energy.EnergyDB(1) <= silenceDB {
		t.Fatalf("expected audible energy on the struck resonator")
	}
}

func TestProcessorDropsEventsWhenFull(t *testing.T) {
	proc := newTestProcessor(func(p *Params) {
		p.EnergySnapshotProbability = 1
		p.EventQueueSize = 1
	})
	proc.SetRandomSource(fixedSource(0))
	buf := make([]float32, 16)
	proc.Process(buf)
	proc.Process(buf)
	if proc.DroppedEvents() != 1 {
		t.Fatalf("expected one dropped event: %d", proc.DroppedEvents())
	}
}

func TestProcessorTensionLFO(t *testing.T) {
	proc := NewProcessor(newTestEngine(8000, func(p *Params) {
		p.TensionLFOHz = 2
		p.TensionLFODepth = 10
		p.EnergySnapshotProbability = 0
	}))
	proc.Send(TensionCommand(5))
	buf := make([]float32, 256)
	seen := map[float32]bool{}
	for i := 0; i < 64; i++ {
		proc.Process(buf)
		v := proc.Engine().TensionField()
		if v < -5 || v > 15 {
			t.Fatalf("tension outside LFO range: %f", v)
		}
		seen[v] = true
	}
	if len(seen) < 10 {
		t.Fatalf("expected modulated tension, saw %d distinct values", len(seen))
	}
}

func TestProcessorResetCommand(t *testing.T) {
	proc := newTestProcessor(nil)
	proc.Send(ExciteCommand(0, DefaultExcitation(ExcitationStrike)))
	buf := make([]float32, 512)
	proc.Process(buf)
	proc.Send(ResetCommand())
	proc.Process(buf)
	for _, v := range buf {
		if v != 0 {
			t.Fatalf("expected silence after reset: %f", v)
		}
	}
	if proc.Engine().Energy(0) != 0 {
		t.Fatalf("expected zero energy after reset")
	}
}

func TestProcessorDoesNotAllocate(t *testing.T) {
	proc := newTestProcessor(func(p *Params) { p.EnergySnapshotProbability = 1 })
	proc.SetRandomSource(fixedSource(0))
	buf := make([]float32, 256)
	ev := newEventSlot(proc.Engine().Size())
	allocs := testing.AllocsPerRun(100, func() {
		proc.Send(ExciteCommand(3, DefaultExcitation(ExcitationStrike)))
		proc.Send(TopologyCommand(TopologyTree))
		proc.Process(buf)
		for proc.PollEvent(&ev) {
		}
	})
	if allocs != 0 {
		t.Fatalf("expected zero allocations: got=%f", allocs)
	}
}

func TestProcessorConcurrentControl(t *testing.T) {
	proc := newTestProcessor(nil)
	ctrl := NewController(proc)
	const producers = 4
	const perProducer = 500

	var done atomic.Int32
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			defer done.Add(1)
			rnd := rand.New(rand.NewSource(seed))
			for i := 0; i < perProducer; {
				if _, ok := ctrl.RandomStrike(8, rnd); ok {
					i++
					continue
				}
				runtime.Gosched()
			}
		}(int64(p))
	}

	buf := make([]float32, 64)
	for done.Load() < producers || proc.PendingCommands() > 0 {
		proc.Process(buf)
	}
	wg.Wait()
	for _, v := range buf {
		if !isFinite(v) {
			t.Fatalf("non-finite output under concurrent control: %f", v)
		}
	}
}

func TestProcessorClampsTensionLFORate(t *testing.T) {
	proc := NewProcessor(newTestEngine(48000, func(p *Params) {
		p.TensionLFOHz = 1e11
		p.TensionLFODepth = 10
		p.EnergySnapshotProbability = 0
	}))
	if got := proc.Engine().Params().TensionLFOHz; got != MaxTensionLFOHz {
		t.Fatalf("lfo rate not clamped: got=%f want=%f", got, MaxTensionLFOHz)
	}
	buf := make([]float32, 512)
	for i := 0; i < 4; i++ {
		proc.Process(buf)
		if v := proc.Engine().TensionField(); v < -10 || v > 10 {
			t.Fatalf("tension outside LFO range: %f", v)
		}
	}

	proc = NewProcessor(newTestEngine(48000, func(p *Params) {
		p.TensionLFOHz = math.NaN()
		p.TensionLFODepth = 10
	}))
	if proc.lfo != nil {
		t.Fatalf("expected LFO off for a NaN rate")
	}
}
