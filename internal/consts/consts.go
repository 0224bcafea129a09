package consts

const (
	CHARGE    = 1.6021918e-19 // Elementary charge (C)
	BOLTZMANN = 1.3806226e-23 // Boltzmann constant (J/K)
	KELVIN    = 273.15        // Kelvin temperature (K)
	REFTEMP   = 300.15        // 27degC
)

// Solver defaults
const (
	EPSILON       = 1e-6  // Residual tolerance (A)
	MAX_ITERATION = 50    // Newton-Raphson iteration cap
	GPN           = 1e-6  // Diode parallel conductance (S)
	REGULATOR_VT  = 26e-6 // Regulator feedback diode thermal voltage (V)
	REGULATOR_IS  = 1e-6  // Regulator feedback diode saturation current (A)
)

// Diode model defaults
const (
	DIODE_IS   = 1e-12 // Saturation current (A)
	DIODE_RMIN = 0.1   // Forward resistance above the knee (Ohm)
)
