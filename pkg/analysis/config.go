package analysis

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/drzzm32/SimElectricity/internal/consts"
	"github.com/drzzm32/SimElectricity/pkg/circuit"
	"github.com/drzzm32/SimElectricity/pkg/matrix"
)

// Config holds solver and host settings.
type Config struct {
	Solver   SolverConfig `yaml:"solver"`
	Grid     GridConfig   `yaml:"grid"`
	LogLevel string       `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// SolverConfig drives one Newton-Raphson run.
type SolverConfig struct {
	Epsilon      float64 `yaml:"epsilon" validate:"finite,gt=0"` // Residual tolerance (A)
	MaxIteration int     `yaml:"max_iteration" validate:"min=1"` // Iteration cap
	Gpn          float64 `yaml:"gpn" validate:"finite,gte=0"`    // Diode parallel conductance
	RegulatorVt  float64 `yaml:"regulator_vt" validate:"finite,gt=0"`
	RegulatorIs  float64 `yaml:"regulator_is" validate:"finite,gt=0"`
	Backend      string  `yaml:"backend" validate:"oneof=sparse dense"`
}

// GridConfig drives stepping of independent networks.
type GridConfig struct {
	Workers int `yaml:"workers" validate:"min=1"`
}

var configValidate *validator.Validate

func init() {
	configValidate = validator.New()
	configValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		return name
	})
	_ = configValidate.RegisterValidation("finite", validateFinite)
}

func validateFinite(fl validator.FieldLevel) bool {
	f := fl.Field().Float()
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func DefaultConfig() Config {
	return Config{
		Solver:   DefaultSolverConfig(),
		Grid:     GridConfig{Workers: 4},
		LogLevel: "info",
	}
}

func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		Epsilon:      consts.EPSILON,
		MaxIteration: consts.MAX_ITERATION,
		Gpn:          consts.GPN,
		RegulatorVt:  consts.REGULATOR_VT,
		RegulatorIs:  consts.REGULATOR_IS,
		Backend:      matrix.BackendSparse,
	}
}

// LoadConfig loads configuration with priority: env > file > defaults.
// A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	if path != "" {
		if err := loadConfigFile(path, &config); err != nil {
			return config, fmt.Errorf("load config file: %w", err)
		}
	}

	loadConfigFromEnv(&config)

	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

func loadConfigFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, config)
}

func loadConfigFromEnv(config *Config) {
	if v := os.Getenv("ENERGYNET_EPSILON"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Solver.Epsilon = f
		}
	}
	if v := os.Getenv("ENERGYNET_MAX_ITERATION"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.Solver.MaxIteration = i
		}
	}
	if v := os.Getenv("ENERGYNET_GPN"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Solver.Gpn = f
		}
	}
	if v := os.Getenv("ENERGYNET_BACKEND"); v != "" {
		config.Solver.Backend = v
	}
	if v := os.Getenv("ENERGYNET_WORKERS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.Grid.Workers = i
		}
	}
	if v := os.Getenv("ENERGYNET_LOG_LEVEL"); v != "" {
		config.LogLevel = v
	}
}

func (c Config) Validate() error {
	return validateStruct(c)
}

func (c SolverConfig) Validate() error {
	return validateStruct(c)
}

// validateStruct runs the validate tags and reports every failed field by
// its yaml path.
func validateStruct(s any) error {
	err := configValidate.Struct(s)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		msgs[i] = fmt.Sprintf("%s must satisfy %s, got %v", fe.Namespace(), rule, fe.Value())
	}
	return errors.New(strings.Join(msgs, "; "))
}

// optionNames maps .options keys, including the SPICE aliases, to the
// solver field they set.
var optionNames = map[string]string{
	"epsilon": "epsilon",
	"abstol":  "epsilon",
	"maxiter": "maxiter",
	"itl1":    "maxiter",
	"gpn":     "gpn",
	"gmin":    "gpn",
	"regvt":   "regvt",
	"regis":   "regis",
}

// Apply overrides solver fields from netlist .options values. Setting one
// field through two aliases is an error.
func (c *SolverConfig) Apply(options map[string]float64) error {
	seen := make(map[string]string, len(options))
	for _, key := range slices.Sorted(maps.Keys(options)) {
		value := options[key]
		name, ok := optionNames[key]
		if !ok {
			return fmt.Errorf("unknown option %q", key)
		}
		if prev, dup := seen[name]; dup {
			return fmt.Errorf("options %q and %q both set %s", prev, key, name)
		}
		seen[name] = key

		switch name {
		case "epsilon":
			c.Epsilon = value
		case "maxiter":
			if value != math.Trunc(value) || math.IsInf(value, 0) {
				return fmt.Errorf("option %q must be a whole number, got %g", key, value)
			}
			c.MaxIteration = int(value)
		case "gpn":
			c.Gpn = value
		case "regvt":
			c.RegulatorVt = value
		case "regis":
			c.RegulatorIs = value
		}
	}
	return c.Validate()
}

// Params returns the assembler constants for this configuration.
func (c SolverConfig) Params() circuit.Params {
	return circuit.Params{Gpn: c.Gpn, Vt: c.RegulatorVt, Is: c.RegulatorIs}
}
