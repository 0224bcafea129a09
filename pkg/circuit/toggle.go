package circuit

import (
	"fmt"
	"math"

	"github.com/drzzm32/SimElectricity/pkg/device"
)

// SetSwitch turns the switch with a half at slot i on or off.
func (n *Network) SetSwitch(i int, on bool) error {
	if err := n.checkSlot(i); err != nil {
		return err
	}
	switch c := n.Nodes[i].Component.(type) {
	case *device.SwitchA:
		c.On = on
	case *device.SwitchB:
		n.switchA(c.A).On = on
	default:
		return n.kindMismatch(i, "switch")
	}
	return nil
}

// SetInterconnect enables or disables the link with a side at slot i.
func (n *Network) SetInterconnect(i int, enabled bool) error {
	if err := n.checkSlot(i); err != nil {
		return err
	}
	switch c := n.Nodes[i].Component.(type) {
	case *device.Interconnect:
		c.Enabled = enabled
	case *device.InterconnectPeer:
		n.interconnect(c.Owner).Enabled = enabled
	default:
		return n.kindMismatch(i, "interconnect")
	}
	return nil
}

func (n *Network) SetLoadEnabled(i int, enabled bool) error {
	if err := n.checkSlot(i); err != nil {
		return err
	}
	load, ok := n.Nodes[i].Component.(*device.ConstantPowerLoad)
	if !ok {
		return n.kindMismatch(i, "load")
	}
	load.Enabled = enabled
	return nil
}

func (n *Network) SetSourceVoltage(i int, volts float64) error {
	if err := n.checkSlot(i); err != nil {
		return err
	}
	src, ok := n.Nodes[i].Component.(*device.VoltageSource)
	if !ok {
		return n.kindMismatch(i, "voltage source")
	}
	if math.IsNaN(volts) || math.IsInf(volts, 0) {
		return fmt.Errorf("%w: source voltage %g", ErrInvalidNetwork, volts)
	}
	src.Voltage = volts
	return nil
}

func (n *Network) kindMismatch(i int, want string) error {
	return fmt.Errorf("%w: node %d (%s) is a %s, not a %s",
		ErrInvalidNetwork, i, n.Nodes[i].Name, n.Nodes[i].Component.Kind(), want)
}
