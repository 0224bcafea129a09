package analysis

import (
	"fmt"

	"github.com/drzzm32/SimElectricity/pkg/circuit"
)

const (
	OP int = iota
	DC
)

type Analysis interface {
	Setup(net *circuit.Network) error
	Execute() error
	GetResults() map[string][]float64
}

type BaseAnalysis struct {
	Network *circuit.Network
	results map[string][]float64 // key: variable name, value: result by sweep point
}

func NewBaseAnalysis() *BaseAnalysis {
	return &BaseAnalysis{results: make(map[string][]float64)}
}

func (a *BaseAnalysis) Setup(net *circuit.Network) error {
	if net == nil {
		return ErrNoNetwork
	}
	a.Network = net
	return nil
}

// StoreNodeVoltages appends the cached voltage of every node as V(name).
func (a *BaseAnalysis) StoreNodeVoltages() {
	for i := range a.Network.Nodes {
		node := &a.Network.Nodes[i]
		a.Append(VoltageKey(node.Name), node.Voltage)
	}
}

func (a *BaseAnalysis) Append(name string, value float64) {
	a.results[name] = append(a.results[name], value)
}

func (a *BaseAnalysis) GetResults() map[string][]float64 {
	return a.results
}

func VoltageKey(node string) string {
	return fmt.Sprintf("V(%s)", node)
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
