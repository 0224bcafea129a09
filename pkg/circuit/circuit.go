package circuit

import (
	"errors"
	"fmt"

	"github.com/drzzm32/SimElectricity/pkg/device"
)

// ErrInvalidNetwork is returned when a network breaks a structural invariant.
var ErrInvalidNetwork = errors.New("circuit: invalid network")

// Edge is a linear resistance to another node.
type Edge struct {
	Node       int
	Resistance float64
}

// Node is one unknown voltage. Its arena slot is its matrix index.
type Node struct {
	Name      string
	Voltage   float64 // Cached across solves, used as the next initial guess
	Neighbors []Edge
	Component device.Component
}

// Params are the solver-wide constants used by the assemblers.
type Params struct {
	Gpn float64 // Diode parallel conductance
	Vt  float64 // Regulator feedback diode default thermal voltage
	Is  float64 // Regulator feedback diode default saturation current
}

// Network is an arena of nodes. Partner references are slot indices.
type Network struct {
	Nodes   []Node
	nodeMap map[string]int
}

func New() *Network {
	return &Network{nodeMap: make(map[string]int)}
}

func (n *Network) Len() int { return len(n.Nodes) }

// Lookup returns the slot of the named node.
func (n *Network) Lookup(name string) (int, bool) {
	i, ok := n.nodeMap[name]
	return i, ok
}

// Node returns the slot of the named node, creating a plain node if needed.
func (n *Network) Node(name string) int {
	if i, ok := n.nodeMap[name]; ok {
		return i
	}
	if n.nodeMap == nil {
		n.nodeMap = make(map[string]int)
	}
	i := len(n.Nodes)
	n.Nodes = append(n.Nodes, Node{Name: name, Component: &device.Plain{}})
	n.nodeMap[name] = i
	return i
}

// Names returns node names in slot order.
func (n *Network) Names() []string {
	names := make([]string, len(n.Nodes))
	for i := range n.Nodes {
		names[i] = n.Nodes[i].Name
	}
	return names
}

// Voltages returns a copy of the voltage cache in slot order.
func (n *Network) Voltages() []float64 {
	v := make([]float64, len(n.Nodes))
	for i := range n.Nodes {
		v[i] = n.Nodes[i].Voltage
	}
	return v
}

// CarryVoltages copies the voltage cache of prev into nodes of the same
// name, so a rebuilt topology warm-starts from the last solve. It returns
// the number of nodes carried over.
func (n *Network) CarryVoltages(prev *Network) int {
	carried := 0
	for i := range n.Nodes {
		if j, ok := prev.Lookup(n.Nodes[i].Name); ok {
			n.Nodes[i].Voltage = prev.Nodes[j].Voltage
			carried++
		}
	}
	return carried
}

// Connect adds a symmetric resistive edge between two slots.
func (n *Network) Connect(a, b int, r float64) error {
	if a == b {
		return fmt.Errorf("%w: self edge on node %d", ErrInvalidNetwork, a)
	}
	if err := n.checkSlot(a); err != nil {
		return err
	}
	if err := n.checkSlot(b); err != nil {
		return err
	}
	if err := positive("resistance", r); err != nil {
		return err
	}
	n.Nodes[a].Neighbors = append(n.Nodes[a].Neighbors, Edge{Node: b, Resistance: r})
	n.Nodes[b].Neighbors = append(n.Nodes[b].Neighbors, Edge{Node: a, Resistance: r})
	return nil
}

// Resistor connects two named nodes, creating them as needed.
func (n *Network) Resistor(a, b string, r float64) error {
	return n.Connect(n.Node(a), n.Node(b), r)
}

func (n *Network) AddVoltageSource(name string, volts, rint float64) (int, error) {
	if err := positive("internal resistance", rint); err != nil {
		return 0, err
	}
	return n.claim(name, &device.VoltageSource{Voltage: volts, Resistance: rint})
}

// AddLoad adds an enabled constant-power load.
func (n *Network) AddLoad(name string, watts, rmin, rmax float64) (int, error) {
	load := &device.ConstantPowerLoad{PowerRated: watts, RMin: rmin, RMax: rmax, Enabled: true}
	if err := checkLoad(load); err != nil {
		return 0, err
	}
	return n.claim(name, load)
}

func (n *Network) AddSwitch(a, b string, r float64, on bool) (int, int, error) {
	if err := positive("switch resistance", r); err != nil {
		return 0, 0, err
	}
	return n.claimPair(a, b,
		func(ib int) device.Component { return &device.SwitchA{B: ib, Resistance: r, On: on} },
		func(ia int) device.Component { return &device.SwitchB{A: ia} })
}

func (n *Network) AddInterconnect(cable, grid string, r float64, enabled bool) (int, int, error) {
	if err := positive("link resistance", r); err != nil {
		return 0, 0, err
	}
	return n.claimPair(cable, grid,
		func(ib int) device.Component { return &device.Interconnect{Peer: ib, Resistance: r, Enabled: enabled} },
		func(ia int) device.Component { return &device.InterconnectPeer{Owner: ia} })
}

func (n *Network) AddTransformer(pri, sec string, ratio, rsec float64) (int, int, error) {
	if err := positive("winding resistance", rsec); err != nil {
		return 0, 0, err
	}
	return n.claimPair(pri, sec,
		func(ib int) device.Component {
			return &device.TransformerPrimary{Secondary: ib, Ratio: ratio, Resistance: rsec}
		},
		func(ia int) device.Component { return &device.TransformerSecondary{Primary: ia} })
}

func (n *Network) AddDiode(in, out string, p device.DiodeParams) (int, int, error) {
	if err := checkDiode(p); err != nil {
		return 0, 0, err
	}
	return n.claimPair(in, out,
		func(ib int) device.Component { return &device.DiodeInput{DiodeParams: p, Output: ib} },
		func(ia int) device.Component { return &device.DiodeOutput{Input: ia} })
}

// AddRegulator adds a regulator triple and returns the input, output and
// controller slots.
func (n *Network) AddRegulator(in, out, ctrl string, p device.RegulatorParams) (int, int, int, error) {
	if err := checkRegulator(p); err != nil {
		return 0, 0, 0, err
	}
	if in == out || in == ctrl || out == ctrl {
		return 0, 0, 0, fmt.Errorf("%w: regulator terminals must be distinct", ErrInvalidNetwork)
	}
	for _, name := range []string{in, out, ctrl} {
		if err := n.claimable(name); err != nil {
			return 0, 0, 0, err
		}
	}

	ii, io, ic := n.Node(in), n.Node(out), n.Node(ctrl)
	n.Nodes[ii].Component = &device.RegulatorInput{RegulatorParams: p, Output: io, Controller: ic}
	n.Nodes[io].Component = &device.RegulatorOutput{Input: ii}
	n.Nodes[ic].Component = &device.RegulatorController{Input: ii}
	return ii, io, ic, nil
}

// claim assigns a component to a named node, which must still be plain.
func (n *Network) claim(name string, c device.Component) (int, error) {
	if err := n.claimable(name); err != nil {
		return 0, err
	}
	i := n.Node(name)
	n.Nodes[i].Component = c
	return i, nil
}

func (n *Network) claimPair(a, b string, first, second func(int) device.Component) (int, int, error) {
	if a == b {
		return 0, 0, fmt.Errorf("%w: %s coupled to itself", ErrInvalidNetwork, a)
	}
	if err := n.claimable(a); err != nil {
		return 0, 0, err
	}
	if err := n.claimable(b); err != nil {
		return 0, 0, err
	}

	ia, ib := n.Node(a), n.Node(b)
	n.Nodes[ia].Component = first(ib)
	n.Nodes[ib].Component = second(ia)
	return ia, ib, nil
}

func (n *Network) claimable(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty node name", ErrInvalidNetwork)
	}
	i, ok := n.nodeMap[name]
	if !ok {
		return nil
	}
	if k := n.Nodes[i].Component.Kind(); k != device.KindPlain {
		return fmt.Errorf("%w: node %s already carries a %s", ErrInvalidNetwork, name, k)
	}
	return nil
}

func (n *Network) checkSlot(i int) error {
	if i < 0 || i >= len(n.Nodes) {
		return fmt.Errorf("%w: node index %d out of range", ErrInvalidNetwork, i)
	}
	return nil
}
