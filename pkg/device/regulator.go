package device

// RegulatorParams describes a feedback-controlled duty-cycle converter.
type RegulatorParams struct {
	Vref   float64 // Output setpoint
	Ro     float64 // Output resistance
	Rdummy float64 // Dummy load across the output
	Dmax   float64 // Duty-cycle offset
	A      float64 // Error amplifier gain
	Rs     float64 // Controller input resistance
	Rc     float64 // Feedback diode forward resistance

	// Feedback diode; zero selects the solver-wide defaults.
	Vt float64
	Is float64
}

// RegulatorInput holds the parameters of the regulator triple.
type RegulatorInput struct {
	RegulatorParams
	Output     int
	Controller int
}

func (*RegulatorInput) Kind() Kind        { return KindRegulatorInput }
func (r *RegulatorInput) Partners() []int { return []int{r.Output, r.Controller} }
func (*RegulatorInput) component()        {}

// RegulatorState is the regulator evaluated at one voltage triple.
type RegulatorState struct {
	Vi, Vo, Vc float64
	p          *RegulatorParams
	vt, is     float64
}

// At evaluates the regulator at the given input, output and controller
// voltages. vt and is are used when the regulator carries no own values.
func (r *RegulatorInput) At(vi, vo, vc, vt, is float64) RegulatorState {
	if r.Vt > 0 {
		vt = r.Vt
	}
	if r.Is > 0 {
		is = r.Is
	}
	return RegulatorState{Vi: vi, Vo: vo, Vc: vc, p: &r.RegulatorParams, vt: vt, is: is}
}

func (s RegulatorState) duty() float64 { return s.Vc + s.p.Dmax }

// InputCurrent is the current drawn into the input node.
func (s RegulatorState) InputCurrent() float64 {
	d := s.duty()
	return s.Vi*d*d/s.p.Ro - s.Vo*d/s.p.Ro
}

// OutputCurrent is the current drawn into the output node. It is negative
// while the regulator delivers power.
func (s RegulatorState) OutputCurrent() float64 {
	return -s.Vi*s.duty()/s.p.Ro + s.Vo/s.p.Ro + s.Vo/s.p.Rdummy
}

// ControllerCurrent is the current drawn into the controller node.
func (s RegulatorState) ControllerCurrent() float64 {
	p := s.p
	return s.Vo*p.A/p.Rs + s.Vc/p.Rs + p.Dmax/p.Rs - p.Vref*p.A/p.Rs +
		DiodeCurrent(s.Vc, s.vt, s.is, p.Rc, 0)
}

// Jacobian returns the partial derivatives of the input, output and
// controller currents, ordered (in, out, con) in both dimensions.
func (s RegulatorState) Jacobian() [3][3]float64 {
	p := s.p
	d := s.duty()
	return [3][3]float64{
		{d * d / p.Ro, -d / p.Ro, (2*s.Vi*d - s.Vo) / p.Ro},
		{-d / p.Ro, 1/p.Ro + 1/p.Rdummy, -s.Vi / p.Ro},
		{0, p.A / p.Rs, 1/p.Rs + DiodeConductance(s.Vc, s.vt, s.is, p.Rc, 0)},
	}
}

// RegulatorOutput is the output node of a regulator.
type RegulatorOutput struct {
	Input int
}

func (*RegulatorOutput) Kind() Kind        { return KindRegulatorOutput }
func (r *RegulatorOutput) Partners() []int { return []int{r.Input} }
func (*RegulatorOutput) component()        {}

// RegulatorController is the feedback node of a regulator.
type RegulatorController struct {
	Input int
}

func (*RegulatorController) Kind() Kind        { return KindRegulatorController }
func (r *RegulatorController) Partners() []int { return []int{r.Input} }
func (*RegulatorController) component()        {}
