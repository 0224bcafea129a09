package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drzzm32/SimElectricity/pkg/device"
)

var testParams = Params{Gpn: 1e-6, Vt: 26e-6, Is: 1e-6}

var testDiode = device.DiodeParams{Vt: 0.026, Is: 1e-12, RMin: 0.1}

var testRegulator = device.RegulatorParams{
	Vref: 5, Ro: 0.5, Rdummy: 1000, Dmax: 0.5, A: 10, Rs: 100, Rc: 0.1,
}

// mixedNetwork holds one of every component kind.
func mixedNetwork(t *testing.T) *Network {
	t.Helper()
	n := New()

	_, err := n.AddVoltageSource("src", 12, 0.5)
	require.NoError(t, err)
	require.NoError(t, n.Resistor("src", "a", 0.2))
	_, _, err = n.AddSwitch("a", "b", 0.05, true)
	require.NoError(t, err)
	require.NoError(t, n.Resistor("b", "c", 0.3))
	_, _, err = n.AddTransformer("c", "d", 2, 0.4)
	require.NoError(t, err)
	require.NoError(t, n.Resistor("d", "e", 0.1))
	_, _, err = n.AddDiode("e", "f", testDiode)
	require.NoError(t, err)
	require.NoError(t, n.Resistor("f", "g", 0.1))
	_, _, err = n.AddInterconnect("g", "h", 0.2, true)
	require.NoError(t, err)
	require.NoError(t, n.Resistor("h", "ri", 0.1))
	_, _, _, err = n.AddRegulator("ri", "ro", "rc", testRegulator)
	require.NoError(t, err)
	require.NoError(t, n.Resistor("ro", "l", 0.1))
	_, err = n.AddLoad("l", 1000, 0.1, 1000)
	require.NoError(t, err)

	require.NoError(t, n.Validate())
	return n
}

func mixedVoltages(n *Network) []float64 {
	byName := map[string]float64{
		"src": 11.8, "a": 11.5, "b": 11.4, "c": 11.2, "d": 22, "e": 21.9,
		"f": 21.0, "g": 20.9, "h": 20.8, "ri": 20.7, "ro": 5.0, "rc": 0.02, "l": 4.9,
	}
	v := make([]float64, n.Len())
	for name, volts := range byName {
		i, _ := n.Lookup(name)
		v[i] = volts
	}
	return v
}

func TestBuildersAssignKinds(t *testing.T) {
	n := mixedNetwork(t)

	kinds := map[string]device.Kind{
		"src": device.KindVoltageSource,
		"a":   device.KindSwitchA,
		"b":   device.KindSwitchB,
		"c":   device.KindTransformerPrimary,
		"d":   device.KindTransformerSecondary,
		"e":   device.KindDiodeInput,
		"f":   device.KindDiodeOutput,
		"g":   device.KindInterconnect,
		"h":   device.KindInterconnectPeer,
		"ri":  device.KindRegulatorInput,
		"ro":  device.KindRegulatorOutput,
		"rc":  device.KindRegulatorController,
		"l":   device.KindConstantPowerLoad,
	}
	assert.Equal(t, len(kinds), n.Len())
	for name, kind := range kinds {
		i, ok := n.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, kind, n.Nodes[i].Component.Kind(), name)
	}
	assert.Equal(t, "src", n.Names()[0])
}

func TestBuilderRejectsSecondRole(t *testing.T) {
	n := New()
	_, err := n.AddVoltageSource("a", 12, 1)
	require.NoError(t, err)

	_, err = n.AddLoad("a", 10, 0.1, 100)
	assert.ErrorIs(t, err, ErrInvalidNetwork)
	_, _, err = n.AddSwitch("b", "a", 1, true)
	assert.ErrorIs(t, err, ErrInvalidNetwork)
	_, _, err = n.AddDiode("x", "x", testDiode)
	assert.ErrorIs(t, err, ErrInvalidNetwork)
	_, _, _, err = n.AddRegulator("p", "q", "p", testRegulator)
	assert.ErrorIs(t, err, ErrInvalidNetwork)

	// Failed claims leave no half-built pair behind.
	_, ok := n.Lookup("b")
	assert.False(t, ok)
}

func TestBuilderRejectsBadParameters(t *testing.T) {
	n := New()
	_, err := n.AddVoltageSource("a", 12, 0)
	assert.ErrorIs(t, err, ErrInvalidNetwork)
	_, err = n.AddLoad("b", 10, 5, 1)
	assert.ErrorIs(t, err, ErrInvalidNetwork)
	_, _, err = n.AddTransformer("c", "d", 2, 0)
	assert.ErrorIs(t, err, ErrInvalidNetwork)
	assert.ErrorIs(t, n.Resistor("e", "e", 1), ErrInvalidNetwork)
	assert.ErrorIs(t, n.Resistor("e", "f", -1), ErrInvalidNetwork)
}

func TestValidate(t *testing.T) {
	plain := func() device.Component { return &device.Plain{} }

	tests := []struct {
		name  string
		nodes []Node
	}{
		{
			name:  "missing component",
			nodes: []Node{{Name: "a"}},
		},
		{
			name: "self edge",
			nodes: []Node{
				{Name: "a", Component: plain(), Neighbors: []Edge{{Node: 0, Resistance: 1}}},
			},
		},
		{
			name: "edge without mirror",
			nodes: []Node{
				{Name: "a", Component: plain(), Neighbors: []Edge{{Node: 1, Resistance: 1}}},
				{Name: "b", Component: plain()},
			},
		},
		{
			name: "mirror with other resistance",
			nodes: []Node{
				{Name: "a", Component: plain(), Neighbors: []Edge{{Node: 1, Resistance: 1}}},
				{Name: "b", Component: plain(), Neighbors: []Edge{{Node: 0, Resistance: 2}}},
			},
		},
		{
			name: "zero resistance edge",
			nodes: []Node{
				{Name: "a", Component: plain(), Neighbors: []Edge{{Node: 1, Resistance: 0}}},
				{Name: "b", Component: plain(), Neighbors: []Edge{{Node: 0, Resistance: 0}}},
			},
		},
		{
			name: "partner out of range",
			nodes: []Node{
				{Name: "a", Component: &device.SwitchA{B: 7, Resistance: 1}},
			},
		},
		{
			name: "partner does not reference back",
			nodes: []Node{
				{Name: "a", Component: &device.SwitchA{B: 1, Resistance: 1}},
				{Name: "b", Component: &device.SwitchB{A: 2}},
				{Name: "c", Component: &device.SwitchA{B: 1, Resistance: 1}},
			},
		},
		{
			name: "partner of wrong kind",
			nodes: []Node{
				{Name: "a", Component: &device.DiodeInput{DiodeParams: testDiode, Output: 1}},
				{Name: "b", Component: &device.SwitchB{A: 0}},
			},
		},
		{
			name: "load bounds inverted",
			nodes: []Node{
				{Name: "a", Component: &device.ConstantPowerLoad{PowerRated: 1, RMin: 10, RMax: 1}},
			},
		},
		{
			name: "zero transformer resistance",
			nodes: []Node{
				{Name: "a", Component: &device.TransformerPrimary{Secondary: 1, Ratio: 2}},
				{Name: "b", Component: &device.TransformerSecondary{Primary: 0}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &Network{Nodes: tt.nodes}
			assert.ErrorIs(t, n.Validate(), ErrInvalidNetwork)
		})
	}
}

func TestValidateEmptyNetwork(t *testing.T) {
	assert.NoError(t, New().Validate())
}

func TestToggles(t *testing.T) {
	n := mixedNetwork(t)
	a, _ := n.Lookup("a")
	b, _ := n.Lookup("b")
	g, _ := n.Lookup("g")
	h, _ := n.Lookup("h")
	l, _ := n.Lookup("l")
	src, _ := n.Lookup("src")

	require.NoError(t, n.SetSwitch(b, false))
	assert.False(t, n.Nodes[a].Component.(*device.SwitchA).On)

	require.NoError(t, n.SetInterconnect(h, false))
	assert.False(t, n.Nodes[g].Component.(*device.Interconnect).Enabled)

	require.NoError(t, n.SetLoadEnabled(l, false))
	assert.False(t, n.Nodes[l].Component.(*device.ConstantPowerLoad).Enabled)

	require.NoError(t, n.SetSourceVoltage(src, 24))
	assert.Equal(t, 24.0, n.Nodes[src].Component.(*device.VoltageSource).Voltage)

	assert.ErrorIs(t, n.SetSwitch(src, true), ErrInvalidNetwork)
	assert.ErrorIs(t, n.SetLoadEnabled(a, true), ErrInvalidNetwork)
	assert.ErrorIs(t, n.SetSourceVoltage(99, 1), ErrInvalidNetwork)
}

func TestCarryVoltages(t *testing.T) {
	prev := New()
	require.NoError(t, prev.Resistor("a", "b", 1))
	prev.Nodes[0].Voltage = 11
	prev.Nodes[1].Voltage = 10

	next := New()
	_, err := next.AddVoltageSource("b", 12, 1)
	require.NoError(t, err)
	require.NoError(t, next.Resistor("b", "c", 1))

	assert.Equal(t, 1, next.CarryVoltages(prev))
	b, _ := next.Lookup("b")
	c, _ := next.Lookup("c")
	assert.Equal(t, 10.0, next.Nodes[b].Voltage)
	assert.Zero(t, next.Nodes[c].Voltage)
}
