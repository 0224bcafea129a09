package device

import "math"

// ConstantPowerLoad draws its rated power by adjusting its resistance to
// the node voltage, bounded to [RMin, RMax].
type ConstantPowerLoad struct {
	PowerRated float64
	RMin       float64
	RMax       float64
	Enabled    bool
}

func (*ConstantPowerLoad) Kind() Kind      { return KindConstantPowerLoad }
func (*ConstantPowerLoad) Partners() []int { return nil }
func (*ConstantPowerLoad) component()      {}

// EffectiveResistance returns V²/P clamped to the load's bounds. A zero
// rated power sits at RMax.
func (l *ConstantPowerLoad) EffectiveResistance(v float64) float64 {
	r := v * v / l.PowerRated
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return l.RMax
	}
	return clamp(r, l.RMin, l.RMax)
}

// Current returns the current drawn at v, zero when disabled.
func (l *ConstantPowerLoad) Current(v float64) float64 {
	if !l.Enabled {
		return 0
	}
	return v / l.EffectiveResistance(v)
}

// Conductance returns the Jacobian contribution at v. The clamped
// resistance is used as a constant, which is the exact derivative outside
// the power-tracking band and the secant inside it.
func (l *ConstantPowerLoad) Conductance(v float64) float64 {
	if !l.Enabled {
		return 0
	}
	return 1.0 / l.EffectiveResistance(v)
}
