package netlist

import (
	"bufio"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrSyntax is returned for malformed netlist lines.
var ErrSyntax = errors.New("netlist: syntax error")

type AnalysisType int

const (
	AnalysisOP AnalysisType = iota
	AnalysisDC
)

type NetlistData struct {
	Elements []Element          // Network elements
	Models   map[string]Model   // Diode models
	Options  map[string]float64 // Solver options
	NodeSet  map[string]float64 // Initial node voltages
	Analysis AnalysisType       // Analysis type
	DCParam  struct {
		Source    string
		Start     float64
		Stop      float64
		Increment float64
	}
	Title string // Network title
}

type Element struct {
	Type   string             // Part type (R, V, P, S, X, T, D, G)
	Name   string             // Part name
	Nodes  []string           // Node names
	Values []float64          // Positional values
	Params map[string]float64 // name=value parameters
	Model  string             // Diode model name
	Off    bool               // Switch open, interconnect or load disabled
	Line   int
}

type Model struct {
	Type   string
	Name   string
	Params map[string]float64
}

var unitMap = map[string]float64{
	"T":   1e12,  // tera
	"G":   1e9,   // giga
	"meg": 1e6,   // mega
	"K":   1e3,   // kilo
	"k":   1e3,   // kilo
	"M":   1e-3,  // milli
	"m":   1e-3,  // milli
	"u":   1e-6,  // micro
	"n":   1e-9,  // nano
	"p":   1e-12, // pico
	"f":   1e-15, // femto
}

var (
	valueRe = regexp.MustCompile(`^([-+]?\d*\.?\d+(?:[eE][-+]?\d+)?)((?i:meg)|[TGMKkmunpf])?[a-zA-Z]?$`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// element layout: node count and positional value count
var layouts = map[string]struct{ nodes, values int }{
	"R": {2, 1},
	"V": {1, 2},
	"P": {1, 3},
	"S": {2, 1},
	"X": {2, 1},
	"T": {2, 2},
	"D": {2, 0},
	"G": {3, 0},
}

func syntaxError(line int, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrSyntax, line, fmt.Sprintf(format, args...))
}

// Parse reads a netlist. The first line is the title.
func Parse(input string) (*NetlistData, error) {
	scanner := bufio.NewScanner(strings.NewReader(input))
	netlistData := &NetlistData{
		Models:  make(map[string]Model),
		Options: make(map[string]float64),
		NodeSet: make(map[string]float64),
	}

	// Title or comment
	if scanner.Scan() {
		netlistData.Title = strings.TrimPrefix(scanner.Text(), "*")
		netlistData.Title = strings.TrimSpace(netlistData.Title)
	}

	lineNo := 1
	var currentLine string
	var currentNo int
	flush := func() error {
		if currentLine == "" {
			return nil
		}
		err := parseLine(netlistData, currentLine, currentNo)
		currentLine = ""
		return err
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Inline comment
		if idx := strings.Index(line, "*"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if len(line) == 0 {
			continue
		}

		if strings.HasPrefix(line, "+") {
			if currentLine == "" {
				return nil, syntaxError(lineNo, "continuation without a preceding line")
			}
			currentLine += " " + strings.TrimSpace(line[1:])
			continue
		}

		if err := flush(); err != nil {
			return nil, err
		}
		currentLine, currentNo = line, lineNo
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return netlistData, nil
}

func parseLine(netlistData *NetlistData, line string, lineNo int) error {
	line = spaceRe.ReplaceAllString(line, " ")

	if strings.HasPrefix(line, ".") {
		return parseDotOperator(netlistData, line, lineNo)
	}

	element, err := parseElement(line, lineNo)
	if err != nil {
		return err
	}
	netlistData.Elements = append(netlistData.Elements, *element)
	return nil
}

// Parse .op, .dc, .model, .options, .nodeset
func parseDotOperator(netlistData *NetlistData, line string, lineNo int) error {
	fields := strings.Fields(line)

	switch strings.ToLower(fields[0]) {
	case ".model":
		return parseModel(netlistData, fields[1:], lineNo)

	case ".op":
		netlistData.Analysis = AnalysisOP

	case ".dc":
		if len(fields) != 5 {
			return syntaxError(lineNo, ".dc needs source, start, stop and increment")
		}
		netlistData.Analysis = AnalysisDC
		netlistData.DCParam.Source = fields[1]
		values, err := parseValues(fields[2:], lineNo)
		if err != nil {
			return err
		}
		netlistData.DCParam.Start = values[0]
		netlistData.DCParam.Stop = values[1]
		netlistData.DCParam.Increment = values[2]

	case ".options", ".option":
		return parseAssignments(fields[1:], lineNo, strings.ToLower, netlistData.Options)

	case ".nodeset":
		return parseAssignments(fields[1:], lineNo, func(s string) string { return s }, netlistData.NodeSet)

	default:
		return syntaxError(lineNo, "unsupported command %s", fields[0])
	}

	return nil
}

func parseAssignments(fields []string, lineNo int, key func(string) string, into map[string]float64) error {
	for _, pair := range fields {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return syntaxError(lineNo, "expected name=value, got %q", pair)
		}
		value, err := ParseValue(raw)
		if err != nil {
			return syntaxError(lineNo, "%s: %v", name, err)
		}
		into[key(name)] = value
	}
	return nil
}

// parseModel reads ".model NAME D(vt=... is=... rs=...)". Parentheses are optional.
func parseModel(netlistData *NetlistData, fields []string, lineNo int) error {
	if len(fields) < 2 {
		return syntaxError(lineNo, "insufficient model parameters")
	}

	modelName := fields[0]
	rest := strings.Join(fields[1:], " ")
	rest = strings.ReplaceAll(rest, "(", " ")
	rest = strings.ReplaceAll(rest, ")", " ")
	words := strings.Fields(rest)
	if len(words) == 0 {
		return syntaxError(lineNo, "missing model type")
	}

	modelType := strings.ToUpper(words[0])
	if modelType != "D" {
		return syntaxError(lineNo, "unsupported model type: %s", words[0])
	}

	params := make(map[string]float64)
	if err := parseAssignments(words[1:], lineNo, strings.ToLower, params); err != nil {
		return err
	}

	netlistData.Models[modelName] = Model{
		Type:   modelType,
		Name:   modelName,
		Params: params,
	}
	return nil
}

// Parse network element
func parseElement(line string, lineNo int) (*Element, error) {
	fields := strings.Fields(line)

	elem := &Element{
		Name:   fields[0],
		Type:   strings.ToUpper(fields[0][:1]),
		Params: make(map[string]float64),
		Line:   lineNo,
	}

	layout, ok := layouts[elem.Type]
	if !ok {
		return nil, syntaxError(lineNo, "unsupported element type: %s", elem.Name)
	}
	if len(fields) < 1+layout.nodes+layout.values {
		return nil, syntaxError(lineNo, "%s needs %d nodes and %d values", elem.Name, layout.nodes, layout.values)
	}

	elem.Nodes = fields[1 : 1+layout.nodes]
	for _, node := range elem.Nodes {
		if isGround(node) {
			return nil, syntaxError(lineNo, "%s: ground %q is implicit and cannot be a node", elem.Name, node)
		}
	}

	values, err := parseValues(fields[1+layout.nodes:1+layout.nodes+layout.values], lineNo)
	if err != nil {
		return nil, err
	}
	elem.Values = values

	rest := fields[1+layout.nodes+layout.values:]
	switch elem.Type {
	case "P", "S", "X":
		if len(rest) > 1 {
			return nil, syntaxError(lineNo, "%s: unexpected %q", elem.Name, rest[1])
		}
		if len(rest) == 1 {
			switch strings.ToLower(rest[0]) {
			case "on":
			case "off":
				elem.Off = true
			default:
				if elem.Type == "P" {
					return nil, syntaxError(lineNo, "%s: expected off, got %q", elem.Name, rest[0])
				}
				return nil, syntaxError(lineNo, "%s: expected on or off, got %q", elem.Name, rest[0])
			}
		}

	case "D":
		if len(rest) > 1 {
			return nil, syntaxError(lineNo, "%s: unexpected %q", elem.Name, rest[1])
		}
		if len(rest) == 1 {
			elem.Model = rest[0]
		}

	case "G":
		if err := parseAssignments(rest, lineNo, strings.ToLower, elem.Params); err != nil {
			return nil, err
		}

	default:
		if len(rest) > 0 {
			return nil, syntaxError(lineNo, "%s: unexpected %q", elem.Name, rest[0])
		}
	}

	return elem, nil
}

func parseValues(fields []string, lineNo int) ([]float64, error) {
	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := ParseValue(f)
		if err != nil {
			return nil, syntaxError(lineNo, "%v", err)
		}
		values[i] = v
	}
	return values, nil
}

func isGround(name string) bool {
	return name == "0" || strings.EqualFold(name, "gnd")
}

// ParseValue - Parse value and factor. 1k -> 1000
func ParseValue(val string) (float64, error) {
	matches := valueRe.FindStringSubmatch(strings.TrimSpace(val))
	if matches == nil {
		return 0, fmt.Errorf("invalid value format: %s", val)
	}

	num, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, err
	}

	// factor
	factor := matches[2]
	if strings.EqualFold(factor, "meg") {
		factor = "meg"
	}
	if multiplier, ok := unitMap[factor]; ok {
		num *= multiplier
	}

	return num, nil
}
