package resonant

// CommandKind identifies a control operation.
type CommandKind uint8

const (
	CommandNone CommandKind = iota
	CommandExcite
	CommandMaterialPosition
	CommandMaterial
	CommandTopology
	CommandCoupling
	CommandDamping
	CommandStiffness
	CommandTension
	CommandReset
	CommandClose
)

var commandNames = [...]string{
	CommandNone:             "none",
	CommandExcite:           "excite",
	CommandMaterialPosition: "material-position",
	CommandMaterial:         "material",
	CommandTopology:         "topology",
	CommandCoupling:         "coupling",
	CommandDamping:          "damping",
	CommandStiffness:        "stiffness",
	CommandTension:          "tension",
	CommandReset:            "reset",
	CommandClose:            "close",
}

func (k CommandKind) String() string {
	if int(k) < len(commandNames) {
		return commandNames[k]
	}
	return "unknown"
}

// Command is a control message applied by the render goroutine. Only the
// fields used by Kind are meaningful.
type Command struct {
	Kind       CommandKind
	Index      int
	Excitation Excitation
	Position   [3]float64
	Material   Material
	Topology   Topology
	Value      float32
}

// ExciteCommand excites resonator index.
func ExciteCommand(index int, e Excitation) Command {
	return Command{Kind: CommandExcite, Index: index, Excitation: e}
}

// MaterialPositionCommand moves the bank through material space.
func MaterialPositionCommand(x, y, z float64) Command {
	return Command{Kind: CommandMaterialPosition, Position: [3]float64{x, y, z}}
}

// MaterialCommand applies m to every resonator.
func MaterialCommand(m Material) Command {
	return Command{Kind: CommandMaterial, Material: m}
}

// TopologyCommand rebuilds the coupling network.
func TopologyCommand(t Topology) Command {
	return Command{Kind: CommandTopology, Topology: t}
}

// CouplingCommand sets the global coupling strength.
func CouplingCommand(v float32) Command {
	return Command{Kind: CommandCoupling, Value: v}
}

// DampingCommand sets the base damping of every resonator.
func DampingCommand(v float32) Command {
	return Command{Kind: CommandDamping, Value: v}
}

// StiffnessCommand sets the stiffness of every resonator.
func StiffnessCommand(v float32) Command {
	return Command{Kind: CommandStiffness, Value: v}
}

// TensionCommand sets the tension field.
func TensionCommand(v float32) Command {
	return Command{Kind: CommandTension, Value: v}
}

// ResetCommand clears all transient state.
func ResetCommand() Command {
	return Command{Kind: CommandReset}
}

// CloseCommand is equivalent to ResetCommand.
func CloseCommand() Command {
	return Command{Kind: CommandClose}
}

// Apply runs c against e. It reports whether c was a topology change, whose
// returned coupling strength is passed back in strength.
func (c *Command) Apply(e *Engine) (topologyChanged bool, strength float32) {
	switch c.Kind {
	case CommandExcite:
		e.ExciteResonator(c.Index, c.Excitation)
	case CommandMaterialPosition:
		e.UpdateMaterialPosition(c.Position[0], c.Position[1], c.Position[2])
	case CommandMaterial:
		e.ApplyMaterial(c.Material)
	case CommandTopology:
		if !c.Topology.Valid() {
			return false, 0
		}
		return true, e.SetTopology(c.Topology)
	case CommandCoupling:
		e.SetCouplingStrength(c.Value)
	case CommandDamping:
		e.SetGlobalDamping(c.Value)
	case CommandStiffness:
		e.SetGlobalStiffness(c.Value)
	case CommandTension:
		e.SetTensionField(c.Value)
	case CommandReset:
		e.Reset()
	case CommandClose:
		e.Close()
	}
	return false, 0
}
