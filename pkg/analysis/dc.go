package analysis

import (
	"fmt"
	"math"

	"github.com/drzzm32/SimElectricity/pkg/circuit"
	"github.com/drzzm32/SimElectricity/pkg/device"
)

// DCSweep steps a voltage source through a range of values, solving one
// warm-started operating point per value.
type DCSweep struct {
	BaseAnalysis
	op         *OperatingPoint
	sourceName string
	startVal   float64
	stopVal    float64
	increment  float64
	sweepVals  []float64
}

func NewDCSweep(op *OperatingPoint, source string, start, stop, increment float64) (*DCSweep, error) {
	if !(increment > 0) {
		return nil, fmt.Errorf("sweep increment must be positive, got %g", increment)
	}
	if stop < start {
		return nil, fmt.Errorf("sweep stop %g below start %g", stop, start)
	}

	dc := &DCSweep{
		BaseAnalysis: *NewBaseAnalysis(),
		op:           op,
		sourceName:   source,
		startVal:     start,
		stopVal:      stop,
		increment:    increment,
	}

	// Index-based so the last point survives float accumulation.
	steps := int(math.Floor((stop-start)/increment + 1e-9))
	for i := 0; i <= steps; i++ {
		dc.sweepVals = append(dc.sweepVals, start+float64(i)*increment)
	}
	return dc, nil
}

func (dc *DCSweep) Setup(net *circuit.Network) error {
	return dc.BaseAnalysis.Setup(net)
}

func (dc *DCSweep) Values() []float64 { return dc.sweepVals }

// Execute records SWEEP1, V(node), ITER and CONVERGED per point. Points that
// hit the iteration cap are kept and flagged; a failed point aborts the
// sweep. The source voltage is restored afterwards.
func (dc *DCSweep) Execute() error {
	net := dc.Network
	if net == nil {
		return ErrNoNetwork
	}

	idx, ok := net.Lookup(dc.sourceName)
	if !ok {
		return fmt.Errorf("source %s not found", dc.sourceName)
	}
	source, ok := net.Nodes[idx].Component.(*device.VoltageSource)
	if !ok {
		return fmt.Errorf("node %s is not a voltage source", dc.sourceName)
	}
	origVal := source.Voltage
	defer func() { source.Voltage = origVal }()

	for _, val := range dc.sweepVals {
		if err := net.SetSourceVoltage(idx, val); err != nil {
			return err
		}

		res, err := dc.op.Run(net)
		if err != nil {
			return fmt.Errorf("sweep point %s=%g: %w", dc.sourceName, val, err)
		}

		dc.Append("SWEEP1", val)
		dc.StoreNodeVoltages()
		dc.Append("ITER", float64(res.Iterations))
		dc.Append("CONVERGED", boolValue(res.Converged))
	}
	return nil
}
