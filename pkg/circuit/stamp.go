package circuit

import (
	"fmt"

	"github.com/drzzm32/SimElectricity/pkg/device"
	"github.com/drzzm32/SimElectricity/pkg/matrix"
)

// Stamp adds the Jacobian J = -dResidual/dV at v into m. Every node stamps
// its own row, so a resistor between i and j contributes +1/R to both
// diagonals and -1/R to both off-diagonal cells.
func (n *Network) Stamp(m matrix.DeviceMatrix, v []float64, p Params) {
	for i := range n.Nodes {
		n.stampRow(m, i, v, p)
	}
}

func (n *Network) stampRow(m matrix.DeviceMatrix, i int, v []float64, p Params) {
	node := &n.Nodes[i]
	vi := v[i]

	for _, e := range node.Neighbors {
		g := 1.0 / e.Resistance
		m.AddElement(i, i, g)
		m.AddElement(i, e.Node, -g)
	}

	switch c := node.Component.(type) {
	case *device.Plain:
	case *device.Interconnect:
		stampLink(m, i, c.Peer, c.Conductance())
	case *device.InterconnectPeer:
		stampLink(m, i, c.Owner, n.interconnect(c.Owner).Conductance())
	case *device.VoltageSource:
		m.AddElement(i, i, c.Conductance())
	case *device.ConstantPowerLoad:
		if c.Enabled {
			m.AddElement(i, i, c.Conductance(vi))
		}
	case *device.SwitchA:
		stampLink(m, i, c.B, c.Conductance())
	case *device.SwitchB:
		stampLink(m, i, c.A, n.switchA(c.A).Conductance())
	case *device.TransformerPrimary:
		m.AddElement(i, i, c.Ratio*c.Ratio/c.Resistance)
		m.AddElement(i, c.Secondary, -c.Ratio/c.Resistance)
	case *device.TransformerSecondary:
		t := n.transformer(c.Primary)
		m.AddElement(i, i, 1.0/t.Resistance)
		m.AddElement(i, c.Primary, -t.Ratio/t.Resistance)
	case *device.DiodeInput:
		gd := c.Conductance(vi-v[c.Output], p.Gpn)
		m.AddElement(i, i, gd)
		m.AddElement(i, c.Output, -gd)
	case *device.DiodeOutput:
		gd := n.diode(c.Input).Conductance(v[c.Input]-vi, p.Gpn)
		m.AddElement(i, i, gd)
		m.AddElement(i, c.Input, -gd)
	case *device.RegulatorInput:
		n.stampRegulator(m, i, 0, v, p)
	case *device.RegulatorOutput:
		n.stampRegulator(m, c.Input, 1, v, p)
	case *device.RegulatorController:
		n.stampRegulator(m, c.Input, 2, v, p)
	default:
		panic(fmt.Sprintf("circuit: unhandled component %T", c))
	}
}

// stampLink stamps row i of a conductance g to node j. Nothing is written
// while the link is open.
func stampLink(m matrix.DeviceMatrix, i, j int, g float64) {
	if g == 0 {
		return
	}
	m.AddElement(i, i, g)
	m.AddElement(i, j, -g)
}

// stampRegulator stamps one row (0 input, 1 output, 2 controller) of the
// regulator whose input node is in.
func (n *Network) stampRegulator(m matrix.DeviceMatrix, in, row int, v []float64, p Params) {
	r := n.Nodes[in].Component.(*device.RegulatorInput)
	nodes := [3]int{in, r.Output, r.Controller}
	jac := n.regulatorAt(in, v, p).Jacobian()
	for col, g := range jac[row] {
		if g != 0 {
			m.AddElement(nodes[row], nodes[col], g)
		}
	}
}
