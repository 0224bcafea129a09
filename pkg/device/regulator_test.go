package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testRegulator() *RegulatorInput {
	return &RegulatorInput{
		RegulatorParams: RegulatorParams{
			Vref: 5, Ro: 0.5, Rdummy: 1000, Dmax: 0.5, A: 10, Rs: 100, Rc: 0.1,
		},
		Output:     1,
		Controller: 2,
	}
}

func TestRegulatorJacobianMatchesDerivative(t *testing.T) {
	r := testRegulator()
	const h = 1e-6
	v := [3]float64{12, 4.8, 0.02}

	currents := func(v [3]float64) [3]float64 {
		s := r.At(v[0], v[1], v[2], 26e-6, 1e-6)
		return [3]float64{s.InputCurrent(), s.OutputCurrent(), s.ControllerCurrent()}
	}

	jac := r.At(v[0], v[1], v[2], 26e-6, 1e-6).Jacobian()
	for col := 0; col < 3; col++ {
		up, down := v, v
		up[col] += h
		down[col] -= h
		iu, id := currents(up), currents(down)
		for row := 0; row < 3; row++ {
			want := (iu[row] - id[row]) / (2 * h)
			assert.InDelta(t, want, jac[row][col], 1e-4, "d(%d)/d(%d)", row, col)
		}
	}
}

func TestRegulatorUsesOwnFeedbackDiode(t *testing.T) {
	r := testRegulator()
	withDefaults := r.At(12, 5, 0.5, 26e-6, 1e-6).ControllerCurrent()

	r.Vt, r.Is = 0.026, 1e-12
	own := r.At(12, 5, 0.5, 26e-6, 1e-6).ControllerCurrent()
	assert.NotEqual(t, withDefaults, own)
}

func TestRegulatorDummyLoad(t *testing.T) {
	r := testRegulator()
	s := r.At(0, 5, -r.Dmax, 26e-6, 1e-6)
	assert.InDelta(t, 5/r.Ro+5/r.Rdummy, s.OutputCurrent(), 1e-12)
	assert.Zero(t, s.InputCurrent())
}
