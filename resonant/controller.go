package resonant

import "sync"

// Controller is a producer front end for a Processor that may be shared by
// several control goroutines. It serializes Send; the render side stays
// lock-free.
type Controller struct {
	mu   sync.Mutex
	proc *Processor
}

// NewController wraps proc.
func NewController(proc *Processor) *Controller {
	return &Controller{proc: proc}
}

// Send enqueues c and reports whether it was accepted.
func (c *Controller) Send(cmd Command) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.proc.Send(cmd)
}

// Excite excites resonator index.
func (c *Controller) Excite(index int, e Excitation) bool {
	return c.Send(ExciteCommand(index, e))
}

// Strike excites resonator index with the default strike.
func (c *Controller) Strike(index int) bool {
	return c.Excite(index, DefaultExcitation(ExcitationStrike))
}

// RandomStrike strikes a random resonator at a random position with a
// hardness in [0.5, 1). It returns the chosen index.
func (c *Controller) RandomStrike(size int, rnd RandomSource) (int, bool) {
	if size < 1 || rnd == nil {
		return -1, false
	}
	index := int(rnd.Float64() * float64(size))
	if index >= size {
		index = size - 1
	}
	ok := c.Excite(index, Strike(rnd.Float64(), 0.5+rnd.Float64()*0.5))
	return index, ok
}

// BowAll bows every resonator with the default bow at a random velocity in
// [2, 4). stagger, when non-nil, runs before each resonator is bowed and
// may sleep to spread the onsets. It returns the number of accepted commands.
func (c *Controller) BowAll(size int, rnd RandomSource, stagger func(i int)) int {
	if rnd == nil {
		return 0
	}
	sent := 0
	for i := 0; i < size; i++ {
		if stagger != nil {
			stagger(i)
		}
		if c.Excite(i, Bow(0.3, 0.7, 2+rnd.Float64()*2)) {
			sent++
		}
	}
	return sent
}

// SetMaterialPosition moves the bank through material space.
func (c *Controller) SetMaterialPosition(x, y, z float64) bool {
	return c.Send(MaterialPositionCommand(x, y, z))
}

// SetMaterial applies m to every resonator.
func (c *Controller) SetMaterial(m Material) bool {
	return c.Send(MaterialCommand(m))
}

// SetTopology requests a coupling rebuild. The new coupling strength
// arrives as an EventCouplingUpdate.
func (c *Controller) SetTopology(t Topology) bool {
	return c.Send(TopologyCommand(t))
}

// SetCouplingStrength sets the global coupling multiplier.
func (c *Controller) SetCouplingStrength(v float32) bool {
	return c.Send(CouplingCommand(v))
}

// SetDamping sets the damping of every resonator.
func (c *Controller) SetDamping(v float32) bool {
	return c.Send(DampingCommand(v))
}

// SetStiffness sets the stiffness of every resonator.
func (c *Controller) SetStiffness(v float32) bool {
	return c.Send(StiffnessCommand(v))
}

// SetTension sets the tension field.
func (c *Controller) SetTension(v float32) bool {
	return c.Send(TensionCommand(v))
}

// Reset clears all transient engine state.
func (c *Controller) Reset() bool {
	return c.Send(ResetCommand())
}

// Close is equivalent to Reset.
func (c *Controller) Close() bool {
	return c.Send(CloseCommand())
}
