package util

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatValueFactor(t *testing.T) {
	tests := []struct {
		value float64
		unit  string
		want  string
	}{
		{230, "V", "230.000 V"},
		{-4.5, "A", "-4.500 A"},
		{1500, "W", "1.500 kW"},
		{2.2e6, "W", "2.200 MW"},
		{0.025, "A", "25.000 mA"},
		{3e-6, "A", "3.000 uA"},
		{4e-9, "A", "4.000 nA"},
		{5e-12, "A", "5.000 pA"},
		{0, "V", "0.000e+00 V"},
		{math.NaN(), "Ohm", "NaN Ohm"},
		{math.Inf(1), "Ohm", "+Inf Ohm"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatValueFactor(tt.value, tt.unit))
	}
}

func TestResultKeys(t *testing.T) {
	results := map[string][]float64{
		"V(b)":   {1},
		"V(a)":   {2},
		"ITER":   {1},
		"SWEEP1": {0},
	}
	assert.Equal(t, []string{"V(a)", "V(b)"}, ResultKeys(results, "V("))
	assert.Len(t, ResultKeys(results, ""), 4)
}

func TestPlotSweep(t *testing.T) {
	results := map[string][]float64{
		"SWEEP1": {0, 1, 2},
		"V(a)":   {0, 0.5, 1},
		"V(b)":   {0, 0.25, 0.5},
	}
	path := filepath.Join(t.TempDir(), "sweep.png")
	require.NoError(t, PlotSweep(results, "SWEEP1", "divider", path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	assert.Error(t, PlotSweep(results, "TIME", "divider", path))

	results["V(c)"] = []float64{1}
	assert.Error(t, PlotSweep(results, "SWEEP1", "divider", path))
}
