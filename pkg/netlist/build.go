package netlist

import (
	"fmt"
	"slices"
	"strings"

	"github.com/drzzm32/SimElectricity/internal/consts"
	"github.com/drzzm32/SimElectricity/pkg/circuit"
	"github.com/drzzm32/SimElectricity/pkg/device"
)

var regulatorRequired = []string{"vref", "ro", "rdummy", "dmax", "a", "rs", "rc"}

// BuildNetwork turns parsed elements into a validated network. Node slots
// follow first appearance in the element list.
func BuildNetwork(data *NetlistData) (*circuit.Network, error) {
	net := circuit.New()

	for _, elem := range data.Elements {
		if err := addElement(net, elem, data.Models); err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", elem.Line, elem.Name, err)
		}
	}

	for name, v := range data.NodeSet {
		i, ok := net.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: .nodeset names unknown node %s", ErrSyntax, name)
		}
		net.Nodes[i].Voltage = v
	}

	if err := net.Validate(); err != nil {
		return nil, err
	}
	return net, nil
}

func addElement(net *circuit.Network, elem Element, models map[string]Model) error {
	var err error
	n, v := elem.Nodes, elem.Values

	switch elem.Type {
	case "R":
		err = net.Resistor(n[0], n[1], v[0])

	case "V":
		_, err = net.AddVoltageSource(n[0], v[0], v[1])

	case "P":
		var i int
		i, err = net.AddLoad(n[0], v[0], v[1], v[2])
		if err == nil && elem.Off {
			err = net.SetLoadEnabled(i, false)
		}

	case "S":
		_, _, err = net.AddSwitch(n[0], n[1], v[0], !elem.Off)

	case "X":
		_, _, err = net.AddInterconnect(n[0], n[1], v[0], !elem.Off)

	case "T":
		_, _, err = net.AddTransformer(n[0], n[1], v[0], v[1])

	case "D":
		var p device.DiodeParams
		p, err = diodeParams(elem.Model, models)
		if err == nil {
			_, _, err = net.AddDiode(n[0], n[1], p)
		}

	case "G":
		var p device.RegulatorParams
		p, err = regulatorParams(elem.Params)
		if err == nil {
			_, _, _, err = net.AddRegulator(n[0], n[1], n[2], p)
		}

	default:
		err = fmt.Errorf("%w: unsupported element type %s", ErrSyntax, elem.Type)
	}
	return err
}

// diodeParams resolves a diode model. A missing model name gives the
// default diode.
func diodeParams(name string, models map[string]Model) (device.DiodeParams, error) {
	p := device.DiodeParams{
		Vt:   device.ThermalVoltage(1, 0),
		Is:   consts.DIODE_IS,
		RMin: consts.DIODE_RMIN,
	}
	if name == "" {
		return p, nil
	}

	model, ok := models[name]
	if !ok {
		return p, fmt.Errorf("%w: undefined diode model %s", ErrSyntax, name)
	}
	for key, value := range model.Params {
		switch key {
		case "vt":
		case "is":
			p.Is = value
		case "rs":
			p.RMin = value
		case "n", "temp":
		default:
			return p, fmt.Errorf("%w: unknown diode parameter %s in model %s", ErrSyntax, key, name)
		}
	}

	if vt, ok := model.Params["vt"]; ok {
		p.Vt = vt
	} else {
		p.Vt = device.ThermalVoltage(model.Params["n"], model.Params["temp"])
	}
	return p, nil
}

func regulatorParams(params map[string]float64) (device.RegulatorParams, error) {
	for _, key := range regulatorRequired {
		if _, ok := params[key]; !ok {
			return device.RegulatorParams{}, fmt.Errorf("%w: missing regulator parameter %s", ErrSyntax, key)
		}
	}
	for key := range params {
		if !slices.Contains(regulatorRequired, key) && key != "vt" && key != "is" {
			return device.RegulatorParams{}, fmt.Errorf("%w: unknown regulator parameter %s", ErrSyntax, key)
		}
	}

	return device.RegulatorParams{
		Vref:   params["vref"],
		Ro:     params["ro"],
		Rdummy: params["rdummy"],
		Dmax:   params["dmax"],
		A:      params["a"],
		Rs:     params["rs"],
		Rc:     params["rc"],
		Vt:     params["vt"],
		Is:     params["is"],
	}, nil
}

// SourceNode maps a voltage source element name to the node it drives.
// Names that match no V element are returned as node names.
func (data *NetlistData) SourceNode(name string) string {
	for _, elem := range data.Elements {
		if elem.Type == "V" && strings.EqualFold(elem.Name, name) {
			return elem.Nodes[0]
		}
	}
	return name
}
