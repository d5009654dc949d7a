package plant

// Direction tells whether a port feeds its owner or drains it.
type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Input {
		return "input"
	}
	return "output"
}

// Port is a named, directed flow edge owned by exactly one component.
type Port struct {
	name             string
	owner            *Component
	direction        Direction
	flowRate         float64
	IncomingFraction float64
	peer             *Port
}

func (p *Port) Name() string         { return p.name }
func (p *Port) Owner() *Component    { return p.owner }
func (p *Port) Direction() Direction { return p.direction }
func (p *Port) FlowRate() float64    { return p.flowRate }
func (p *Port) Peer() *Port          { return p.peer }
func (p *Port) Connected() bool      { return p.peer != nil }
