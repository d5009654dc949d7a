package plant

import (
	"fmt"
	"log/slog"

	"github.com/san-kum/fuelcycle/internal/dynamo"
)

// Connection is one wired output → input pair.
type Connection struct {
	From string
	Out  *Port
	To   string
	In   *Port
}

// ComponentMap owns the network. Declaration order of components is the
// order of the state vector and never changes.
type ComponentMap struct {
	nodes       []Node
	index       map[string]int
	connections []Connection
	logger      *slog.Logger
}

func NewComponentMap() *ComponentMap {
	return &ComponentMap{
		index:  make(map[string]int),
		logger: slog.New(slog.DiscardHandler),
	}
}

// SetLogger installs l on the map and on every component that logs.
func (m *ComponentMap) SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	m.logger = l
	for _, n := range m.nodes {
		if ln, ok := n.(interface{ SetLogger(*slog.Logger) }); ok {
			ln.SetLogger(l)
		}
	}
}

func (m *ComponentMap) AddComponent(n Node) error {
	if _, ok := m.index[n.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateComponent, n.Name())
	}
	m.index[n.Name()] = len(m.nodes)
	m.nodes = append(m.nodes, n)
	if ln, ok := n.(interface{ SetLogger(*slog.Logger) }); ok {
		ln.SetLogger(m.logger)
	}
	return nil
}

func (m *ComponentMap) Component(name string) (Node, bool) {
	i, ok := m.index[name]
	if !ok {
		return nil, false
	}
	return m.nodes[i], true
}

// Index is the position of the named component in the state vector.
func (m *ComponentMap) Index(name string) (int, bool) {
	i, ok := m.index[name]
	return i, ok
}

func (m *ComponentMap) Nodes() []Node { return m.nodes }

func (m *ComponentMap) Names() []string {
	names := make([]string, len(m.nodes))
	for i, n := range m.nodes {
		names[i] = n.Name()
	}
	return names
}

func (m *ComponentMap) Connections() []Connection { return m.connections }

// ConnectPorts links src's output port out to dst's input port in.
func (m *ComponentMap) ConnectPorts(src Node, out *Port, dst Node, in *Port) error {
	for _, n := range []Node{src, dst} {
		if i, ok := m.index[n.Name()]; !ok || m.nodes[i] != n {
			return fmt.Errorf("%w: %s", ErrUnknownComponent, n.Name())
		}
	}
	if out.owner != src.Base() || out.direction != Output {
		return fmt.Errorf("%w: %s is not an output of %s", ErrPortOwnership, out.name, src.Name())
	}
	if in.owner != dst.Base() || in.direction != Input {
		return fmt.Errorf("%w: %s is not an input of %s", ErrPortOwnership, in.name, dst.Name())
	}
	if out.peer != nil {
		return fmt.Errorf("%w: %s.%s", ErrPortConnected, src.Name(), out.name)
	}
	if in.peer != nil {
		return fmt.Errorf("%w: %s.%s", ErrPortConnected, dst.Name(), in.name)
	}
	if in.IncomingFraction < 0 || in.IncomingFraction > 1 {
		return fmt.Errorf("%w: %s.%s = %g", ErrInvalidFraction, dst.Name(), in.name, in.IncomingFraction)
	}

	out.peer = in
	in.peer = out
	m.connections = append(m.connections, Connection{From: src.Name(), Out: out, To: dst.Name(), In: in})
	return nil
}

// Validate checks every component's parameters and logs dangling ports.
func (m *ComponentMap) Validate() error {
	for _, n := range m.nodes {
		if v, ok := n.(interface{ validate() error }); ok {
			if err := v.validate(); err != nil {
				return err
			}
		}
		base := n.Base()
		m.warnDangling(n.Name(), base.inputs)
		m.warnDangling(n.Name(), base.outputs)
	}
	return nil
}

func (m *ComponentMap) warnDangling(component string, ports []*Port) {
	for _, p := range ports {
		if !p.Connected() {
			m.logger.Warn("unconnected port",
				slog.String("component", component),
				slog.String("port", p.Name()),
				slog.String("direction", p.Direction().String()),
			)
		}
	}
}

func (m *ComponentMap) StateDim() int { return len(m.nodes) }

// State snapshots every component's inventory in declaration order.
func (m *ComponentMap) State() dynamo.State {
	x := make(dynamo.State, len(m.nodes))
	for i, n := range m.nodes {
		x[i] = n.Inventory()
	}
	return x
}

// Derive evaluates all derivatives against the committed state before any
// component is advanced.
func (m *ComponentMap) Derive(t float64) dynamo.State {
	dx := make(dynamo.State, len(m.nodes))
	for i, n := range m.nodes {
		dx[i] = n.Derivative()
	}
	return dx
}

// Prepare lets components that advance their own discrete state, such as
// cryopump banks, step over [t, t+dt] before the derivatives are taken, and
// then propagates the resulting flows.
func (m *ComponentMap) Prepare(t, dt float64) error {
	for _, n := range m.nodes {
		if p, ok := n.(interface{ Prepare(t, dt float64) error }); ok {
			if err := p.Prepare(t, dt); err != nil {
				return err
			}
		}
	}
	m.UpdateFlowRates()
	return nil
}

// Commit hands each component its integrated inventory and returns what the
// components actually hold afterwards. Port flows are not touched; call
// UpdateFlowRates once every component has committed.
func (m *ComponentMap) Commit(x dynamo.State, t, dt float64) (dynamo.State, error) {
	if len(x) != len(m.nodes) {
		return nil, dynamo.ErrDimensionMismatch
	}
	committed := make(dynamo.State, len(m.nodes))
	for i, n := range m.nodes {
		committed[i] = n.Commit(x[i], t, dt)
	}
	return committed, nil
}

// UpdateFlowRates sets every output port to its owner's outflow, then every
// connected input port to its fraction of the peer output.
func (m *ComponentMap) UpdateFlowRates() {
	for _, n := range m.nodes {
		out := n.Outflow()
		for _, p := range n.Base().outputs {
			p.flowRate = out
		}
	}
	for _, n := range m.nodes {
		for _, p := range n.Base().inputs {
			if p.peer == nil {
				p.flowRate = 0
				continue
			}
			p.flowRate = p.IncomingFraction * p.peer.flowRate
		}
	}
}

// StoreFlows appends each component's current inflow and outflow to its
// history. It is called exactly once per integration step.
func (m *ComponentMap) StoreFlows() {
	for _, n := range m.nodes {
		n.Base().storeFlows(n.Inflow(), n.Outflow())
	}
}

// Reset restores every inventory from x and clears flows and histories.
func (m *ComponentMap) Reset(x dynamo.State) error {
	if len(x) != len(m.nodes) {
		return dynamo.ErrDimensionMismatch
	}
	if !x.IsValid() {
		return dynamo.ErrInvalidState
	}
	for i, n := range m.nodes {
		n.Reset(x[i])
	}
	return nil
}
