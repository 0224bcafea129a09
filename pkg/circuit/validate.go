package circuit

import (
	"fmt"
	"math"
	"slices"

	"github.com/drzzm32/SimElectricity/pkg/device"
)

// Validate checks the structural invariants the assemblers rely on.
func (n *Network) Validate() error {
	for i := range n.Nodes {
		if err := n.validateNode(i); err != nil {
			return fmt.Errorf("node %d (%s): %w", i, n.Nodes[i].Name, err)
		}
	}
	return nil
}

func (n *Network) validateNode(i int) error {
	node := &n.Nodes[i]
	if node.Component == nil {
		return fmt.Errorf("%w: missing component", ErrInvalidNetwork)
	}

	for _, e := range node.Neighbors {
		if e.Node == i {
			return fmt.Errorf("%w: self edge", ErrInvalidNetwork)
		}
		if err := n.checkSlot(e.Node); err != nil {
			return err
		}
		if err := positive("edge resistance", e.Resistance); err != nil {
			return err
		}
		if !n.hasEdge(e.Node, i, e.Resistance) {
			return fmt.Errorf("%w: edge to node %d has no mirror", ErrInvalidNetwork, e.Node)
		}
	}

	kind := node.Component.Kind()
	for _, p := range node.Component.Partners() {
		if p == i {
			return fmt.Errorf("%w: %s references itself", ErrInvalidNetwork, kind)
		}
		if err := n.checkSlot(p); err != nil {
			return err
		}
		other := n.Nodes[p].Component
		if other == nil || !device.Counterpart(kind, other.Kind()) {
			return fmt.Errorf("%w: %s partner %d is not a counterpart", ErrInvalidNetwork, kind, p)
		}
		if !slices.Contains(other.Partners(), i) {
			return fmt.Errorf("%w: %s partner %d does not reference back", ErrInvalidNetwork, kind, p)
		}
	}

	return checkParams(node.Component)
}

func checkParams(c device.Component) error {
	switch c := c.(type) {
	case *device.Interconnect:
		return positive("link resistance", c.Resistance)
	case *device.VoltageSource:
		if math.IsNaN(c.Voltage) || math.IsInf(c.Voltage, 0) {
			return fmt.Errorf("%w: source voltage %g", ErrInvalidNetwork, c.Voltage)
		}
		return positive("internal resistance", c.Resistance)
	case *device.ConstantPowerLoad:
		return checkLoad(c)
	case *device.SwitchA:
		return positive("switch resistance", c.Resistance)
	case *device.TransformerPrimary:
		return positive("winding resistance", c.Resistance)
	case *device.DiodeInput:
		return checkDiode(c.DiodeParams)
	case *device.RegulatorInput:
		return checkRegulator(c.RegulatorParams)
	}
	return nil
}

func checkLoad(l *device.ConstantPowerLoad) error {
	if !(l.PowerRated >= 0) || math.IsInf(l.PowerRated, 1) {
		return fmt.Errorf("%w: rated power must be non-negative and finite, got %g", ErrInvalidNetwork, l.PowerRated)
	}
	if err := positive("load rmin", l.RMin); err != nil {
		return err
	}
	if err := positive("load rmax", l.RMax); err != nil {
		return err
	}
	if l.RMin > l.RMax {
		return fmt.Errorf("%w: load rmin %g above rmax %g", ErrInvalidNetwork, l.RMin, l.RMax)
	}
	return nil
}

func checkDiode(p device.DiodeParams) error {
	if err := positive("diode vt", p.Vt); err != nil {
		return err
	}
	if err := positive("diode is", p.Is); err != nil {
		return err
	}
	return positive("diode rmin", p.RMin)
}

func checkRegulator(p device.RegulatorParams) error {
	for _, v := range []struct {
		name  string
		value float64
	}{
		{"regulator ro", p.Ro},
		{"regulator rdummy", p.Rdummy},
		{"regulator rs", p.Rs},
		{"regulator rc", p.Rc},
	} {
		if err := positive(v.name, v.value); err != nil {
			return err
		}
	}
	if p.Vt < 0 || p.Is < 0 {
		return fmt.Errorf("%w: negative regulator feedback diode parameter", ErrInvalidNetwork)
	}
	return nil
}

func positive(name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 1) {
		return fmt.Errorf("%w: %s must be positive and finite, got %g", ErrInvalidNetwork, name, v)
	}
	return nil
}

func (n *Network) hasEdge(from, to int, r float64) bool {
	for _, e := range n.Nodes[from].Neighbors {
		if e.Node == to && e.Resistance == r {
			return true
		}
	}
	return false
}
