package device

// Interconnect joins two network segments through a resistive link that can
// be enabled or disabled at runtime. The owner side holds the parameters.
type Interconnect struct {
	Peer       int
	Resistance float64
	Enabled    bool
}

func (*Interconnect) Kind() Kind        { return KindInterconnect }
func (c *Interconnect) Partners() []int { return []int{c.Peer} }
func (*Interconnect) component()        {}

// Conductance returns the link conductance, zero while disabled.
func (c *Interconnect) Conductance() float64 {
	if !c.Enabled {
		return 0
	}
	return 1.0 / c.Resistance
}

// InterconnectPeer is the far side of an Interconnect.
type InterconnectPeer struct {
	Owner int
}

func (*InterconnectPeer) Kind() Kind        { return KindInterconnectPeer }
func (c *InterconnectPeer) Partners() []int { return []int{c.Owner} }
func (*InterconnectPeer) component()        {}

// SwitchA is the parameter-holding half of a switch.
type SwitchA struct {
	B          int
	Resistance float64 // On resistance
	On         bool
}

func (*SwitchA) Kind() Kind        { return KindSwitchA }
func (s *SwitchA) Partners() []int { return []int{s.B} }
func (*SwitchA) component()        {}

// Conductance returns the switch conductance, zero while off.
func (s *SwitchA) Conductance() float64 {
	if !s.On {
		return 0
	}
	return 1.0 / s.Resistance
}

// SwitchB is the second half of a switch.
type SwitchB struct {
	A int
}

func (*SwitchB) Kind() Kind        { return KindSwitchB }
func (s *SwitchB) Partners() []int { return []int{s.A} }
func (*SwitchB) component()        {}
