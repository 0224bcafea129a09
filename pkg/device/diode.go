package device

import (
	"math"

	"github.com/drzzm32/SimElectricity/internal/consts"
)

// DiodeParams describes the piecewise exponential/linear diode law.
type DiodeParams struct {
	Vt   float64 // Thermal voltage
	Is   float64 // Saturation current 포화 전류
	RMin float64 // Forward resistance above the knee
}

// DiodeInput is the anode side of a diode and holds its parameters.
type DiodeInput struct {
	DiodeParams
	Output int
}

func (*DiodeInput) Kind() Kind        { return KindDiodeInput }
func (d *DiodeInput) Partners() []int { return []int{d.Output} }
func (*DiodeInput) component()        {}

// Current returns the forward current at vd = Vin - Vout.
func (d *DiodeInput) Current(vd, gpn float64) float64 {
	return DiodeCurrent(vd, d.Vt, d.Is, d.RMin, gpn)
}

// Conductance returns dI/dVd at vd.
func (d *DiodeInput) Conductance(vd, gpn float64) float64 {
	return DiodeConductance(vd, d.Vt, d.Is, d.RMin, gpn)
}

// DiodeOutput is the cathode side of a diode.
type DiodeOutput struct {
	Input int
}

func (*DiodeOutput) Kind() Kind        { return KindDiodeOutput }
func (d *DiodeOutput) Partners() []int { return []int{d.Input} }
func (*DiodeOutput) component()        {}

// KneeVoltage is where the exponential branch reaches a slope of 1/rmin.
func KneeVoltage(vt, is, rmin float64) float64 {
	return vt * math.Log(vt/(is*rmin))
}

// DiodeCurrent evaluates the diode law. Above the knee the exponential is
// replaced by its tangent of slope 1/rmin, so the current stays continuous.
func DiodeCurrent(vd, vt, is, rmin, gpn float64) float64 {
	knee := KneeVoltage(vt, is, rmin)
	if vd > knee {
		return vt/rmin + (vd-knee)/rmin + vd*gpn
	}
	return is*math.Exp(vd/vt) + vd*gpn
}

// DiodeConductance is the derivative of DiodeCurrent with respect to vd.
func DiodeConductance(vd, vt, is, rmin, gpn float64) float64 {
	if vd > KneeVoltage(vt, is, rmin) {
		return 1.0/rmin + gpn
	}
	return is/vt*math.Exp(vd/vt) + gpn
}

// ThermalVoltage returns n*kT/q at temp kelvin, 27degC when temp <= 0.
func ThermalVoltage(n, temp float64) float64 {
	if temp <= 0 {
		temp = consts.REFTEMP
	}
	if n <= 0 {
		n = 1.0
	}
	return n * consts.BOLTZMANN * temp / consts.CHARGE
}
