package device

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Kind tags the component variant carried by a node.
type Kind int

const (
	KindPlain Kind = iota
	KindInterconnect
	KindInterconnectPeer
	KindVoltageSource
	KindConstantPowerLoad
	KindSwitchA
	KindSwitchB
	KindTransformerPrimary
	KindTransformerSecondary
	KindDiodeInput
	KindDiodeOutput
	KindRegulatorInput
	KindRegulatorOutput
	KindRegulatorController
)

var kindNames = [...]string{
	KindPlain:                "plain",
	KindInterconnect:         "interconnect",
	KindInterconnectPeer:     "interconnect-peer",
	KindVoltageSource:        "voltage-source",
	KindConstantPowerLoad:    "constant-power-load",
	KindSwitchA:              "switch-a",
	KindSwitchB:              "switch-b",
	KindTransformerPrimary:   "transformer-primary",
	KindTransformerSecondary: "transformer-secondary",
	KindDiodeInput:           "diode-input",
	KindDiodeOutput:          "diode-output",
	KindRegulatorInput:       "regulator-input",
	KindRegulatorOutput:      "regulator-output",
	KindRegulatorController:  "regulator-controller",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Component is the closed set of node variants. Partner references are
// indices into the owning network's node arena.
type Component interface {
	Kind() Kind
	// Partners returns the arena indices of electrically coupled nodes.
	Partners() []int
	component()
}

// Plain carries only resistive neighbor edges.
type Plain struct{}

func (*Plain) Kind() Kind      { return KindPlain }
func (*Plain) Partners() []int { return nil }
func (*Plain) component()      {}

// Counterpart reports whether a node of kind k may reference a node of kind p.
func Counterpart(k, p Kind) bool {
	switch k {
	case KindInterconnect:
		return p == KindInterconnectPeer
	case KindInterconnectPeer:
		return p == KindInterconnect
	case KindSwitchA:
		return p == KindSwitchB
	case KindSwitchB:
		return p == KindSwitchA
	case KindTransformerPrimary:
		return p == KindTransformerSecondary
	case KindTransformerSecondary:
		return p == KindTransformerPrimary
	case KindDiodeInput:
		return p == KindDiodeOutput
	case KindDiodeOutput:
		return p == KindDiodeInput
	case KindRegulatorInput:
		return p == KindRegulatorOutput || p == KindRegulatorController
	case KindRegulatorOutput, KindRegulatorController:
		return p == KindRegulatorInput
	}
	return false
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
