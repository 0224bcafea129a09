package device

// VoltageSource is an ideal source behind an internal series resistance.
type VoltageSource struct {
	Voltage    float64
	Resistance float64 // Internal resistance
}

func (*VoltageSource) Kind() Kind      { return KindVoltageSource }
func (*VoltageSource) Partners() []int { return nil }
func (*VoltageSource) component()      {}

// Current returns the current delivered into a node held at v.
func (s *VoltageSource) Current(v float64) float64 {
	return (s.Voltage - v) / s.Resistance
}

// Conductance of the internal resistance.
func (s *VoltageSource) Conductance() float64 {
	return 1.0 / s.Resistance
}
