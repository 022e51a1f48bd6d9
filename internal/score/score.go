// Package score runs Lua scores that drive a resonator bank offline.
//
// A score is a Lua chunk that enqueues control commands and advances time
// with render(seconds):
//
//	topology("mesh")
//	strike(0, 0.5, 0.9)
//	render(1.5)
//	bow_all()
//	render(2)
package score

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	lua "github.com/yuin/gopher-lua"

	"github.com/cwbudde/algo-resonant/resonant"
)

const (
	// DefaultBlockSize is the render block in frames.
	DefaultBlockSize = 128
	// DefaultMaxSeconds bounds the total rendered time of a score.
	DefaultMaxSeconds = 600.0
)

// Options configures a Runner.
type Options struct {
	BlockSize  int
	MaxSeconds float64
	// OnBlock, when set, receives every rendered interleaved block.
	OnBlock func(block []float32) error
	// OnEvent, when set, receives every telemetry event.
	OnEvent func(ev *resonant.Event)
}

// Runner executes scores against a Processor.
type Runner struct {
	proc *resonant.Processor
	ctrl *resonant.Controller
	rnd  *rand.Rand
	opts Options

	sampleRate int
	size       int
	block      []float32
	out        []float32
	rendered   int
	event      resonant.Event
}

// NewRunner wraps proc. When OnBlock is nil, rendered audio is collected and
// returned by Output.
func NewRunner(proc *resonant.Processor, seed int64, opts Options) *Runner {
	if opts.BlockSize < 1 {
		opts.BlockSize = DefaultBlockSize
	}
	if opts.MaxSeconds <= 0 {
		opts.MaxSeconds = DefaultMaxSeconds
	}
	e := proc.Engine()
	return &Runner{
		proc:       proc,
		ctrl:       resonant.NewController(proc),
		rnd:        rand.New(rand.NewSource(seed)),
		opts:       opts,
		sampleRate: e.SampleRate(),
		size:       e.Size(),
		block:      make([]float32, opts.BlockSize*2),
	}
}

// Output returns the collected interleaved stereo output.
func (r *Runner) Output() []float32 { return r.out }

// RenderedFrames returns the number of frames rendered so far.
func (r *Runner) RenderedFrames() int { return r.rendered }

// Run executes a score given as Lua source.
func (r *Runner) Run(ctx context.Context, src string) error {
	L := r.newState(ctx)
	defer L.Close()
	if err := L.DoString(src); err != nil {
		return fmt.Errorf("score: %w", err)
	}
	return nil
}

// RunFile executes a score file.
func (r *Runner) RunFile(ctx context.Context, path string) error {
	L := r.newState(ctx)
	defer L.Close()
	if err := L.DoFile(path); err != nil {
		return fmt.Errorf("score %s: %w", path, err)
	}
	return nil
}

func (r *Runner) newState(ctx context.Context) *lua.LState {
	L := lua.NewState()
	if ctx != nil {
		L.SetContext(ctx)
	}
	fns := map[string]lua.LGFunction{
		"strike":           r.luaStrike,
		"bow":              r.luaBow,
		"breath":           r.luaBreath,
		"excite":           r.luaExcite,
		"random_strike":    r.luaRandomStrike,
		"bow_all":          r.luaBowAll,
		"topology":         r.luaTopology,
		"material":         r.luaMaterial,
		"position":         r.luaPosition,
		"coupling":         r.luaSetter(r.ctrl.SetCouplingStrength),
		"damping":          r.luaSetter(r.ctrl.SetDamping),
		"stiffness":        r.luaSetter(r.ctrl.SetStiffness),
		"tension":          r.luaSetter(r.ctrl.SetTension),
		"reset":            r.luaReset,
		"render":           r.luaRender,
		"sample_rate":      r.luaSampleRate,
		"resonators":       r.luaResonators,
		"energy":           r.luaEnergy,
		"elapsed":          r.luaElapsed,
		"dropped_events":   r.luaDroppedEvents,
		"pending_commands": r.luaPending,
	}
	for name, fn := range fns {
		L.SetGlobal(name, L.NewFunction(fn))
	}
	return L
}

func (r *Runner) checkIndex(L *lua.LState, n int) int {
	i := L.CheckInt(n)
	if i < 0 || i >= r.size {
		L.ArgError(n, fmt.Sprintf("resonator index out of range [0,%d)", r.size))
	}
	return i
}

func (r *Runner) send(L *lua.LState, ok bool) int {
	if !ok {
		L.RaiseError("command queue full")
	}
	return 0
}

func optFloat(L *lua.LState, n int, def float64) float64 {
	return float64(L.OptNumber(n, lua.LNumber(def)))
}

// strike(index [, position, hardness])
func (r *Runner) luaStrike(L *lua.LState) int {
	i := r.checkIndex(L, 1)
	def := resonant.DefaultExcitation(resonant.ExcitationStrike)
	e := resonant.Strike(optFloat(L, 2, def.Position), optFloat(L, 3, def.Hardness))
	return r.send(L, r.ctrl.Excite(i, e))
}

// bow(index [, position, pressure, velocity])
func (r *Runner) luaBow(L *lua.LState) int {
	i := r.checkIndex(L, 1)
	def := resonant.DefaultExcitation(resonant.ExcitationBow)
	e := resonant.Bow(optFloat(L, 2, def.Position), optFloat(L, 3, def.Pressure), optFloat(L, 4, def.Velocity))
	return r.send(L, r.ctrl.Excite(i, e))
}

// breath(index [, pressure, turbulence])
func (r *Runner) luaBreath(L *lua.LState) int {
	i := r.checkIndex(L, 1)
	def := resonant.DefaultExcitation(resonant.ExcitationBreath)
	e := resonant.Breath(optFloat(L, 2, def.Pressure), optFloat(L, 3, def.Turbulence))
	return r.send(L, r.ctrl.Excite(i, e))
}

// excite(index, kind) with the default parameters of kind.
func (r *Runner) luaExcite(L *lua.LState) int {
	i := r.checkIndex(L, 1)
	kind, err := resonant.ParseExcitationKind(L.CheckString(2))
	if err != nil {
		L.ArgError(2, err.Error())
	}
	return r.send(L, r.ctrl.Excite(i, resonant.DefaultExcitation(kind)))
}

func (r *Runner) luaRandomStrike(L *lua.LState) int {
	i, ok := r.ctrl.RandomStrike(r.size, r.rnd)
	r.send(L, ok)
	L.Push(lua.LNumber(i))
	return 1
}

func (r *Runner) luaBowAll(L *lua.LState) int {
	L.Push(lua.LNumber(r.ctrl.BowAll(r.size, r.rnd, nil)))
	return 1
}

func (r *Runner) luaTopology(L *lua.LState) int {
	t, err := resonant.ParseTopology(L.CheckString(1))
	if err != nil {
		L.ArgError(1, err.Error())
	}
	return r.send(L, r.ctrl.SetTopology(t))
}

// material(name) or material(stiffness, damping)
func (r *Runner) luaMaterial(L *lua.LState) int {
	var m resonant.Material
	if L.Get(1).Type() == lua.LTString {
		var err error
		m, err = resonant.MaterialPreset(L.CheckString(1))
		if err != nil {
			L.ArgError(1, err.Error())
		}
	} else {
		m = resonant.Material{
			Stiffness: float32(L.CheckNumber(1)),
			Damping:   float32(L.CheckNumber(2)),
		}
	}
	return r.send(L, r.ctrl.SetMaterial(m))
}

func (r *Runner) luaPosition(L *lua.LState) int {
	x := float64(L.CheckNumber(1))
	y := float64(L.CheckNumber(2))
	z := optFloat(L, 3, 0.5)
	return r.send(L, r.ctrl.SetMaterialPosition(x, y, z))
}

func (r *Runner) luaSetter(set func(float32) bool) lua.LGFunction {
	return func(L *lua.LState) int {
		return r.send(L, set(float32(L.CheckNumber(1))))
	}
}

func (r *Runner) luaReset(L *lua.LState) int {
	return r.send(L, r.ctrl.Reset())
}

// render(seconds) advances the bank and returns the frames rendered.
func (r *Runner) luaRender(L *lua.LState) int {
	seconds := float64(L.CheckNumber(1))
	if math.IsNaN(seconds) || seconds < 0 {
		L.ArgError(1, "seconds must be >= 0")
	}
	frames, err := r.Render(L.Context(), seconds)
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
	L.Push(lua.LNumber(frames))
	return 1
}

func (r *Runner) luaSampleRate(L *lua.LState) int {
	L.Push(lua.LNumber(r.sampleRate))
	return 1
}

func (r *Runner) luaResonators(L *lua.LState) int {
	L.Push(lua.LNumber(r.size))
	return 1
}

// energy(index) reads the bank directly; only valid between renders.
func (r *Runner) luaEnergy(L *lua.LState) int {
	i := r.checkIndex(L, 1)
	L.Push(lua.LNumber(r.proc.Engine().Energy(i)))
	return 1
}

func (r *Runner) luaElapsed(L *lua.LState) int {
	L.Push(lua.LNumber(float64(r.rendered) / float64(r.sampleRate)))
	return 1
}

func (r *Runner) luaDroppedEvents(L *lua.LState) int {
	L.Push(lua.LNumber(r.proc.DroppedEvents()))
	return 1
}

func (r *Runner) luaPending(L *lua.LState) int {
	L.Push(lua.LNumber(r.proc.PendingCommands()))
	return 1
}

// Render advances the bank by seconds of audio in blocks. It returns the
// number of frames rendered by this call.
func (r *Runner) Render(ctx context.Context, seconds float64) (int, error) {
	limit := int(r.opts.MaxSeconds * float64(r.sampleRate))
	frames := int(math.Round(seconds * float64(r.sampleRate)))
	if r.rendered+frames > limit {
		return 0, fmt.Errorf("score exceeds %.1f s", r.opts.MaxSeconds)
	}
	done := 0
	for done < frames {
		if ctx != nil {
			if err := ctx.Err(); err != nil {
				return done, err
			}
		}
		n := min(frames-done, r.opts.BlockSize)
		buf := r.block[:n*2]
		r.proc.Process(buf)
		r.drainEvents()
		if r.opts.OnBlock != nil {
			if err := r.opts.OnBlock(buf); err != nil {
				return done, err
			}
		} else {
			r.out = append(r.out, buf...)
		}
		done += n
		r.rendered += n
	}
	return done, nil
}

func (r *Runner) drainEvents() {
	for r.proc.PollEvent(&r.event) {
		if r.opts.OnEvent != nil {
			r.opts.OnEvent(&r.event)
		}
	}
}
