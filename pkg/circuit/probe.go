package circuit

import (
	"math"

	"github.com/drzzm32/SimElectricity/pkg/device"
)

// Reading is a multimeter view of one node at the cached voltages.
// Current is drawn into the component from the node, so sources and
// delivering windings read negative. Power is Voltage*Current except for
// links, where it is the loss in the link.
type Reading struct {
	Kind       device.Kind
	Voltage    float64
	Current    float64
	Power      float64
	Resistance float64 // Effective resistance where the component has one, else NaN
}

// Probe reads node i using the voltage cache.
func (n *Network) Probe(i int, p Params) (Reading, error) {
	if err := n.checkSlot(i); err != nil {
		return Reading{}, err
	}
	v := n.Voltages()
	node := &n.Nodes[i]
	vi := v[i]
	r := Reading{Kind: node.Component.Kind(), Voltage: vi, Resistance: math.NaN()}

	switch c := node.Component.(type) {
	case *device.Plain:
		for _, e := range node.Neighbors {
			r.Current += (vi - v[e.Node]) / e.Resistance
		}
	case *device.VoltageSource:
		r.Current = -c.Current(vi)
		r.Resistance = c.Resistance
	case *device.ConstantPowerLoad:
		r.Current = c.Current(vi)
		r.Resistance = c.EffectiveResistance(vi)
	case *device.Interconnect:
		r.Current = (vi - v[c.Peer]) * c.Conductance()
		r.Resistance = c.Resistance
	case *device.InterconnectPeer:
		link := n.interconnect(c.Owner)
		r.Current = (vi - v[c.Owner]) * link.Conductance()
		r.Resistance = link.Resistance
	case *device.SwitchA:
		r.Current = (vi - v[c.B]) * c.Conductance()
		r.Resistance = c.Resistance
	case *device.SwitchB:
		sw := n.switchA(c.A)
		r.Current = (vi - v[c.A]) * sw.Conductance()
		r.Resistance = sw.Resistance
	case *device.TransformerPrimary:
		r.Current = c.PrimaryCurrent(vi, v[c.Secondary])
		r.Resistance = c.Resistance
	case *device.TransformerSecondary:
		t := n.transformer(c.Primary)
		r.Current = t.SecondaryCurrent(v[c.Primary], vi)
		r.Resistance = t.Resistance
	case *device.DiodeInput:
		vd := vi - v[c.Output]
		r.Current = c.Current(vd, p.Gpn)
		r.Power = vd * r.Current
		r.Resistance = vd / r.Current
		return r, nil
	case *device.DiodeOutput:
		vd := v[c.Input] - vi
		r.Current = -n.diode(c.Input).Current(vd, p.Gpn)
		r.Power = -vd * r.Current
		r.Resistance = -vd / r.Current
		return r, nil
	case *device.RegulatorInput:
		r.Current = n.regulatorAt(i, v, p).InputCurrent()
	case *device.RegulatorOutput:
		r.Current = n.regulatorAt(c.Input, v, p).OutputCurrent()
	case *device.RegulatorController:
		r.Current = n.regulatorAt(c.Input, v, p).ControllerCurrent()
	}

	switch r.Kind {
	case device.KindInterconnect, device.KindInterconnectPeer, device.KindSwitchA, device.KindSwitchB:
		r.Power = r.Current * r.Current * r.Resistance
	default:
		r.Power = vi * r.Current
	}
	return r, nil
}
