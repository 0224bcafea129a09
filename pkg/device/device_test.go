package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "diode-input", KindDiodeInput.String())
	assert.Equal(t, "regulator-controller", KindRegulatorController.String())
	assert.Equal(t, "kind(99)", Kind(99).String())
}

func TestCounterpart(t *testing.T) {
	assert.True(t, Counterpart(KindSwitchA, KindSwitchB))
	assert.True(t, Counterpart(KindRegulatorInput, KindRegulatorController))
	assert.True(t, Counterpart(KindRegulatorOutput, KindRegulatorInput))
	assert.False(t, Counterpart(KindRegulatorOutput, KindRegulatorController))
	assert.False(t, Counterpart(KindDiodeInput, KindSwitchB))
	assert.False(t, Counterpart(KindPlain, KindPlain))
}

func TestPartners(t *testing.T) {
	components := []Component{
		&Plain{},
		&VoltageSource{Voltage: 12, Resistance: 1},
		&Interconnect{Peer: 3},
		&TransformerSecondary{Primary: 4},
		&RegulatorInput{Output: 5, Controller: 6},
	}
	assert.Empty(t, components[0].Partners())
	assert.Empty(t, components[1].Partners())
	assert.Equal(t, []int{3}, components[2].Partners())
	assert.Equal(t, []int{4}, components[3].Partners())
	assert.Equal(t, []int{5, 6}, components[4].Partners())
}

func TestTransformerCurrentsBalancePower(t *testing.T) {
	tr := &TransformerPrimary{Secondary: 1, Ratio: 2, Resistance: 0.5}
	vp, vs := 10.0, 18.0
	ip := tr.PrimaryCurrent(vp, vs)
	is := tr.SecondaryCurrent(vp, vs)
	assert.InDelta(t, -tr.Ratio*is, ip, 1e-12)
	// Losses in the secondary-referred resistance.
	assert.InDelta(t, is*is*tr.Resistance, vp*ip+vs*is, 1e-9)
}
