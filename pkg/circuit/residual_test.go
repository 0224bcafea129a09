package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drzzm32/SimElectricity/pkg/device"
)

func TestResidualIdempotent(t *testing.T) {
	n := mixedNetwork(t)
	v := mixedVoltages(n)
	cache := n.Voltages()

	first := make([]float64, n.Len())
	second := make([]float64, n.Len())
	n.Residual(v, first, testParams)
	n.Residual(v, second, testParams)

	assert.Equal(t, first, second)
	assert.Equal(t, cache, n.Voltages())
}

func TestResidualVoltageSource(t *testing.T) {
	n := New()
	_, err := n.AddVoltageSource("a", 12, 1)
	require.NoError(t, err)
	require.NoError(t, n.Resistor("a", "b", 2))

	out := make([]float64, 2)
	n.Residual([]float64{10, 4}, out, testParams)
	// 2A in from the source, 3A out through the edge.
	assert.InDelta(t, -1.0, out[0], 1e-12)
	assert.InDelta(t, 3.0, out[1], 1e-12)
}

func TestResidualDiodePair(t *testing.T) {
	n := New()
	in, out, err := n.AddDiode("in", "out", testDiode)
	require.NoError(t, err)

	v := make([]float64, 2)
	v[in], v[out] = 1.0, 0.2
	r := make([]float64, 2)
	n.Residual(v, r, testParams)

	id := device.DiodeCurrent(0.8, testDiode.Vt, testDiode.Is, testDiode.RMin, testParams.Gpn)
	assert.InDelta(t, -id, r[in], 1e-12)
	assert.InDelta(t, id, r[out], 1e-12)
}

func TestResidualConservesAcrossLinks(t *testing.T) {
	n := mixedNetwork(t)
	v := mixedVoltages(n)
	r := make([]float64, n.Len())
	n.Residual(v, r, testParams)

	// A link only moves current between its halves, so the two link terms
	// cancel once the edge terms are removed.
	for _, pair := range [][2]string{{"a", "b"}, {"g", "h"}, {"e", "f"}} {
		i, _ := n.Lookup(pair[0])
		j, _ := n.Lookup(pair[1])
		ri := r[i] + edgeOutflow(n, i, v)
		rj := r[j] + edgeOutflow(n, j, v)
		assert.InDelta(t, 0, ri+rj, 1e-9, "%s-%s", pair[0], pair[1])
	}
}

func edgeOutflow(n *Network, i int, v []float64) float64 {
	var cur float64
	for _, e := range n.Nodes[i].Neighbors {
		cur += (v[i] - v[e.Node]) / e.Resistance
	}
	return cur
}
