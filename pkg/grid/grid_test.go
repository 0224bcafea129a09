package grid

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drzzm32/SimElectricity/pkg/analysis"
	"github.com/drzzm32/SimElectricity/pkg/circuit"
)

func divider(t *testing.T, volts float64) *circuit.Network {
	t.Helper()
	n := circuit.New()
	_, err := n.AddVoltageSource("hi", volts, 1)
	require.NoError(t, err)
	_, err = n.AddVoltageSource("lo", 0, 1)
	require.NoError(t, err)
	require.NoError(t, n.Resistor("hi", "lo", 2))
	return n
}

func floating(t *testing.T) *circuit.Network {
	t.Helper()
	n := circuit.New()
	_, err := n.AddVoltageSource("src", 12, 1)
	require.NoError(t, err)
	n.Node("island")
	return n
}

func newTestGrid(t *testing.T) *Grid {
	t.Helper()
	config := analysis.DefaultConfig()
	config.Grid.Workers = 2
	g, err := New(config, nil)
	require.NoError(t, err)
	return g
}

func TestStepSolvesAllNetworks(t *testing.T) {
	g := newTestGrid(t)

	var ids []uuid.UUID
	for _, v := range []float64{4, 8, 12, 16} {
		id, err := g.Add(divider(t, v))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	reports, err := g.Step(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 4)
	for i, r := range reports {
		assert.Equal(t, ids[i], r.ID)
		assert.NoError(t, r.Err)
		assert.True(t, r.Result.Converged)

		net, ok := g.Network(r.ID)
		require.True(t, ok)
		lo, _ := net.Lookup("lo")
		assert.InDelta(t, float64(4*(i+1))/4, net.Nodes[lo].Voltage, 1e-9)
	}
}

func TestSingularNetworkQuarantined(t *testing.T) {
	g := newTestGrid(t)
	good, err := g.Add(divider(t, 8))
	require.NoError(t, err)
	bad, err := g.Add(floating(t))
	require.NoError(t, err)

	before := testutil.ToFloat64(quarantinedNetworks)
	reports, err := g.Step(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.NoError(t, reports[0].Err)
	assert.ErrorIs(t, reports[1].Err, analysis.ErrSingularMatrix)
	assert.True(t, reports[1].Quarantined)
	assert.True(t, g.Quarantined(bad))
	assert.False(t, g.Quarantined(good))
	assert.Equal(t, before+1, testutil.ToFloat64(quarantinedNetworks))

	// Quarantined networks are skipped.
	reports, err = g.Step(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, good, reports[0].ID)

	require.NoError(t, g.Release(bad))
	assert.False(t, g.Quarantined(bad))
	assert.Equal(t, before, testutil.ToFloat64(quarantinedNetworks))

	// Fix the topology, then it solves again.
	net, _ := g.Network(bad)
	require.NoError(t, net.Resistor("src", "island", 1))
	reports, err = g.Step(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.NoError(t, reports[1].Err)
}

func TestRemove(t *testing.T) {
	g := newTestGrid(t)
	id, err := g.Add(divider(t, 1))
	require.NoError(t, err)

	require.NoError(t, g.Remove(id))
	assert.ErrorIs(t, g.Remove(id), ErrUnknownNetwork)
	assert.ErrorIs(t, g.Release(id), ErrUnknownNetwork)
	_, ok := g.Network(id)
	assert.False(t, ok)

	reports, err := g.Step(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestAddRejectsInvalidNetwork(t *testing.T) {
	g := newTestGrid(t)
	_, err := g.Add(&circuit.Network{Nodes: []circuit.Node{{Name: "a"}}})
	assert.ErrorIs(t, err, circuit.ErrInvalidNetwork)
}

func TestStepCanceled(t *testing.T) {
	g := newTestGrid(t)
	_, err := g.Add(divider(t, 1))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.Step(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// cancelOnError cancels a step as soon as a driver logs a failure.
type cancelOnError struct{ cancel context.CancelFunc }

func (h cancelOnError) Enabled(context.Context, slog.Level) bool { return true }
func (h cancelOnError) WithAttrs([]slog.Attr) slog.Handler       { return h }
func (h cancelOnError) WithGroup(string) slog.Handler            { return h }

func (h cancelOnError) Handle(_ context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		h.cancel()
	}
	return nil
}

func TestStepCanceledKeepsFinishedReports(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := analysis.DefaultConfig()
	config.Grid.Workers = 1
	g, err := New(config, slog.New(cancelOnError{cancel: cancel}))
	require.NoError(t, err)
	bad, err := g.Add(floating(t))
	require.NoError(t, err)
	good, err := g.Add(divider(t, 8))
	require.NoError(t, err)

	before := testutil.ToFloat64(quarantinedNetworks)
	reports, err := g.Step(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, reports, 1)
	assert.Equal(t, bad, reports[0].ID)
	assert.ErrorIs(t, reports[0].Err, analysis.ErrSingularMatrix)
	assert.True(t, reports[0].Quarantined)
	assert.True(t, g.Quarantined(bad))
	assert.False(t, g.Quarantined(good))
	assert.Equal(t, before+1, testutil.ToFloat64(quarantinedNetworks))

	require.NoError(t, g.Remove(bad))
	assert.Equal(t, before, testutil.ToFloat64(quarantinedNetworks))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	config := analysis.DefaultConfig()
	config.Grid.Workers = 0
	_, err := New(config, nil)
	assert.Error(t, err)
}
