package resonant

import (
	"errors"
	"fmt"
	"strings"
)

// Topology names a coupling graph layout.
type Topology string

const (
	TopologyRing Topology = "ring"
	TopologyGrid Topology = "grid"
	TopologyTree Topology = "tree"
	TopologyMesh Topology = "mesh"
)

const (
	ringStrength      = float32(0.5)
	gridStrength      = float32(0.4)
	gridWidth         = 4
	gridHeight        = 2
	treeRootStrength  = float32(0.6)
	treeChildStrength = float32(0.4)
	treeBranches      = 3
	treeLeavesPerNode = 2
	meshStrength      = float32(0.2)

	// DefaultCouplingStrength is the global coupling multiplier at construction.
	DefaultCouplingStrength = float32(0.3)

	couplingEpsilon = float32(0.001)
	couplingDecay   = float32(0.95)
)

// ErrUnknownTopology is returned by ParseTopology for unsupported names.
var ErrUnknownTopology = errors.New("unknown topology")

// Topologies lists the built-in layouts.
func Topologies() []Topology {
	return []Topology{TopologyRing, TopologyGrid, TopologyTree, TopologyMesh}
}

// ParseTopology resolves a case-insensitive topology name.
func ParseTopology(name string) (Topology, error) {
	t := Topology(strings.ToLower(strings.TrimSpace(name)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTopology, name)
	}
	return t, nil
}

// Valid reports whether t is one of the built-in layouts.
func (t Topology) Valid() bool {
	switch t {
	case TopologyRing, TopologyGrid, TopologyTree, TopologyMesh:
		return true
	}
	return false
}

// Connection is one directed coupling edge.
type Connection struct {
	From     int
	To       int
	Strength float32
}

// CouplingNetwork is a directed weighted graph over resonator indices. Edge
// filters live in an N*N arena addressed by (from, to) so that topology
// changes never allocate.
type CouplingNetwork struct {
	size     int
	topology Topology
	strength float32

	edges   []Connection
	filters []OnePoleFilter
	active  []bool
}

// NewCouplingNetwork builds a network over size resonators with the given
// topology. edgeCutoff is the coefficient of every edge filter.
func NewCouplingNetwork(size int, topology Topology, edgeCutoff float32) *CouplingNetwork {
	if size < 1 {
		size = 1
	}
	arena := size * size
	filters := make([]OnePoleFilter, arena)
	for i := range filters {
		filters[i] = NewOnePoleFilter(edgeCutoff)
	}
	n := &CouplingNetwork{
		size:     size,
		strength: DefaultCouplingStrength,
		edges:    make([]Connection, 0, arena+2*size),
		filters:  filters,
		active:   make([]bool, arena),
	}
	n.SetTopology(topology)
	return n
}

// SetTopology switches the layout and rebuilds. Unknown names build a ring.
func (n *CouplingNetwork) SetTopology(t Topology) float32 {
	if !t.Valid() {
		t = TopologyRing
	}
	n.topology = t
	return n.RebuildTopology()
}

// RebuildTopology discards all edges and edge filter state, then rebuilds
// the current layout. It returns the unchanged global coupling strength.
func (n *CouplingNetwork) RebuildTopology() float32 {
	n.edges = n.edges[:0]
	for i := range n.filters {
		n.filters[i].Reset()
		n.active[i] = false
	}

	switch n.topology {
	case TopologyGrid:
		n.buildGrid()
	case TopologyTree:
		n.buildTree()
	case TopologyMesh:
		n.buildMesh()
	default:
		n.buildRing()
	}
	return n.strength
}

func (n *CouplingNetwork) buildRing() {
	for i := 0; i < n.size; i++ {
		n.addConnection(i, (i+1)%n.size, ringStrength)
		n.addConnection(i, (i+n.size-1)%n.size, ringStrength)
	}
}

func (n *CouplingNetwork) buildGrid() {
	for y := 0; y < gridHeight; y++ {
		for x := 0; x < gridWidth; x++ {
			idx := y*gridWidth + x
			if idx >= n.size {
				return
			}
			if x > 0 {
				n.addConnection(idx, idx-1, gridStrength)
			}
			if x < gridWidth-1 {
				n.addConnection(idx, idx+1, gridStrength)
			}
			if y > 0 {
				n.addConnection(idx, idx-gridWidth, gridStrength)
			}
			if y < gridHeight-1 {
				n.addConnection(idx, idx+gridWidth, gridStrength)
			}
		}
	}
}

func (n *CouplingNetwork) buildTree() {
	for i := 1; i <= treeBranches; i++ {
		n.addConnection(0, i, treeRootStrength)
	}
	next := treeBranches + 1
	for parent := 1; parent <= treeBranches; parent++ {
		for j := 0; j < treeLeavesPerNode; j++ {
			if next >= n.size {
				return
			}
			n.addConnection(parent, next, treeChildStrength)
			next++
		}
	}
}

func (n *CouplingNetwork) buildMesh() {
	for i := 0; i < n.size; i++ {
		for j := 0; j < n.size; j++ {
			if i == j {
				continue
			}
			d := i - j
			if d < 0 {
				d = -d
			}
			n.addConnection(i, j, meshStrength/float32(d+1))
		}
	}
}

// addConnection drops self loops and edges touching indices outside the network.
func (n *CouplingNetwork) addConnection(from, to int, strength float32) {
	if from == to || from < 0 || to < 0 || from >= n.size || to >= n.size {
		return
	}
	if len(n.edges) == cap(n.edges) {
		return
	}
	n.edges = append(n.edges, Connection{From: from, To: to, Strength: strength})
	n.active[from*n.size+to] = true
}

// ComputeInjection writes into dst the coupling input each resonator receives
// from previous. Both slices must have length Size(). The summed magnitude
// of dst never exceeds the summed magnitude of previous.
func (n *CouplingNetwork) ComputeInjection(dst []float32, previous []float32) {
	if debugAssertions {
		assertf(len(dst) == n.size && len(previous) == n.size, "coupling buffers %d/%d, want %d", len(dst), len(previous), n.size)
	}
	for i := range dst {
		dst[i] = 0
	}

	total := float32(0)
	for _, e := range n.edges {
		filter := &n.filters[e.From*n.size+e.To]
		signal := filter.Process(previous[e.From]) * e.Strength * n.strength
		dst[e.To] += signal
		total += absf(signal)
	}
	if total <= 0 {
		return
	}

	input := float32(0)
	for _, v := range previous {
		input += absf(v)
	}
	scale := minf(1, input/(total+couplingEpsilon)) * couplingDecay
	for i := range dst {
		dst[i] *= scale
	}
}

// Reset zeroes every edge filter without touching the topology.
func (n *CouplingNetwork) Reset() {
	for i := range n.filters {
		n.filters[i].Reset()
	}
}

// Size returns the number of resonators the network spans.
func (n *CouplingNetwork) Size() int { return n.size }

// Topology returns the active layout.
func (n *CouplingNetwork) Topology() Topology { return n.topology }

// Strength returns the global coupling multiplier.
func (n *CouplingNetwork) Strength() float32 { return n.strength }

// SetStrength sets the global coupling multiplier. Negative values clamp to
// 0; non-finite values are ignored.
func (n *CouplingNetwork) SetStrength(v float32) {
	if !isFinite(v) {
		return
	}
	if v < 0 {
		v = 0
	}
	n.strength = v
}

// Edges returns the current edges. The slice is owned by the network and is
// only valid until the next rebuild.
func (n *CouplingNetwork) Edges() []Connection { return n.edges }

// EdgeCount returns the number of directed edges.
func (n *CouplingNetwork) EdgeCount() int { return len(n.edges) }

// FilterState reports the edge filter state for (from, to) and whether the
// pair is used by the current layout.
func (n *CouplingNetwork) FilterState(from, to int) (float32, bool) {
	if from < 0 || to < 0 || from >= n.size || to >= n.size {
		return 0, false
	}
	idx := from*n.size + to
	return n.filters[idx].State(), n.active[idx]
}
