package circuit

import (
	"fmt"

	"github.com/drzzm32/SimElectricity/pkg/device"
)

// Residual writes into out the net current flowing into each node at the
// voltages v. The network must be valid.
func (n *Network) Residual(v, out []float64, p Params) {
	for i := range n.Nodes {
		out[i] = -n.outflow(i, v, p)
	}
}

// outflow is the current leaving node i through its edges and component.
func (n *Network) outflow(i int, v []float64, p Params) float64 {
	node := &n.Nodes[i]
	vi := v[i]

	var cur float64
	for _, e := range node.Neighbors {
		cur += (vi - v[e.Node]) / e.Resistance
	}

	switch c := node.Component.(type) {
	case *device.Plain:
	case *device.Interconnect:
		cur += (vi - v[c.Peer]) * c.Conductance()
	case *device.InterconnectPeer:
		cur += (vi - v[c.Owner]) * n.interconnect(c.Owner).Conductance()
	case *device.VoltageSource:
		cur -= c.Current(vi)
	case *device.ConstantPowerLoad:
		cur += c.Current(vi)
	case *device.SwitchA:
		cur += (vi - v[c.B]) * c.Conductance()
	case *device.SwitchB:
		cur += (vi - v[c.A]) * n.switchA(c.A).Conductance()
	case *device.TransformerPrimary:
		cur += c.PrimaryCurrent(vi, v[c.Secondary])
	case *device.TransformerSecondary:
		cur += n.transformer(c.Primary).SecondaryCurrent(v[c.Primary], vi)
	case *device.DiodeInput:
		cur += c.Current(vi-v[c.Output], p.Gpn)
	case *device.DiodeOutput:
		cur -= n.diode(c.Input).Current(v[c.Input]-vi, p.Gpn)
	case *device.RegulatorInput:
		cur += n.regulatorAt(i, v, p).InputCurrent()
	case *device.RegulatorOutput:
		cur += n.regulatorAt(c.Input, v, p).OutputCurrent()
	case *device.RegulatorController:
		cur += n.regulatorAt(c.Input, v, p).ControllerCurrent()
	default:
		panic(fmt.Sprintf("circuit: unhandled component %T", c))
	}
	return cur
}

func (n *Network) interconnect(i int) *device.Interconnect {
	return n.Nodes[i].Component.(*device.Interconnect)
}

func (n *Network) switchA(i int) *device.SwitchA {
	return n.Nodes[i].Component.(*device.SwitchA)
}

func (n *Network) transformer(i int) *device.TransformerPrimary {
	return n.Nodes[i].Component.(*device.TransformerPrimary)
}

func (n *Network) diode(i int) *device.DiodeInput {
	return n.Nodes[i].Component.(*device.DiodeInput)
}

// regulatorAt evaluates the regulator whose input node is in.
func (n *Network) regulatorAt(in int, v []float64, p Params) device.RegulatorState {
	r := n.Nodes[in].Component.(*device.RegulatorInput)
	return r.At(v[in], v[r.Output], v[r.Controller], p.Vt, p.Is)
}
