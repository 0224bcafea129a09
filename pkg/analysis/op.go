package analysis

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/drzzm32/SimElectricity/pkg/circuit"
	"github.com/drzzm32/SimElectricity/pkg/matrix"
)

// Result summarizes one Newton-Raphson run.
type Result struct {
	Iterations        int
	Converged         bool
	MaxResidual       float64
	SkippedIncrements int
}

// OperatingPoint solves the DC operating point of a network, warm-started
// from the network's voltage cache. It is not safe for concurrent use.
type OperatingPoint struct {
	BaseAnalysis
	config SolverConfig
	solver matrix.Solver
	logger *slog.Logger
	dump   io.Writer

	voltages []float64
	residual []float64
	last     Result
}

type Option func(*OperatingPoint)

// WithSolver replaces the backend selected by the configuration.
func WithSolver(s matrix.Solver) Option {
	return func(op *OperatingPoint) { op.solver = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(op *OperatingPoint) { op.logger = l }
}

// WithJacobianDump writes the system stamped at the first iteration of
// every run to w.
func WithJacobianDump(w io.Writer) Option {
	return func(op *OperatingPoint) { op.dump = w }
}

func NewOP(config SolverConfig, opts ...Option) (*OperatingPoint, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	op := &OperatingPoint{
		BaseAnalysis: *NewBaseAnalysis(),
		config:       config,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(op)
	}

	if op.solver == nil {
		s, err := matrix.New(config.Backend, op.logger)
		if err != nil {
			return nil, err
		}
		op.solver = s
	}
	return op, nil
}

func (op *OperatingPoint) Config() SolverConfig { return op.config }

// Run drives the network to its operating point and writes the voltages
// back into the cache. A run that hits the iteration cap is not an error;
// Result.Converged reports it. On a singular Jacobian the cache is left
// untouched and a *SolveError wrapping ErrSingularMatrix is returned.
func (op *OperatingPoint) Run(net *circuit.Network) (Result, error) {
	if err := net.Validate(); err != nil {
		return Result{}, err
	}

	size := net.Len()
	if size == 0 {
		op.record(Result{Converged: true}, outcomeConverged)
		return Result{Converged: true}, nil
	}

	v := op.resize(size)
	for i := range net.Nodes {
		v[i] = net.Nodes[i].Voltage
	}
	r := op.residual
	params := op.config.Params()

	var res Result
	for {
		net.Residual(v, r, params)
		if res.MaxResidual = maxAbs(r); res.MaxResidual <= op.config.Epsilon {
			res.Converged = true
			break
		}

		if res.Iterations > op.config.MaxIteration {
			op.logger.Warn("maximum number of iterations reached",
				slog.Int("iterations", res.Iterations),
				slog.Int("nodes", size),
				slog.Float64("max_residual", res.MaxResidual))
			break
		}

		if err := op.step(net, v, r, params, res.Iterations); err != nil {
			outcome := outcomeFailed
			if errors.Is(err, ErrSingularMatrix) {
				outcome = outcomeSingular
			}
			op.record(res, outcome)
			op.logger.Error("operating point failed",
				slog.Int("iteration", res.Iterations),
				slog.Int("nodes", size),
				slog.String("error", err.Error()))
			return res, &SolveError{Iteration: res.Iterations, Err: err}
		}

		for i, dv := range r {
			if math.IsNaN(dv) || math.IsInf(dv, 0) {
				res.SkippedIncrements++
				continue
			}
			v[i] += dv
		}
		res.Iterations++
	}

	for i := range net.Nodes {
		net.Nodes[i].Voltage = v[i]
	}

	outcome := outcomeConverged
	if !res.Converged {
		outcome = outcomeIterationLimit
	}
	op.record(res, outcome)
	op.logger.Debug("operating point solved",
		slog.Int("iterations", res.Iterations),
		slog.Int("nodes", size),
		slog.Float64("max_residual", res.MaxResidual),
		slog.Bool("converged", res.Converged))
	return res, nil
}

// step stamps and solves J dv = r, leaving dv in r.
func (op *OperatingPoint) step(net *circuit.Network, v, r []float64, params circuit.Params, iter int) error {
	op.solver.Reset(len(v))
	net.Stamp(op.solver, v, params)
	if err := op.solver.Finalize(); err != nil {
		return fmt.Errorf("finalize jacobian: %w", err)
	}
	if op.dump != nil && iter == 0 {
		op.solver.Fprint(op.dump)
	}

	if err := op.solver.Solve(r); err != nil {
		if errors.Is(err, matrix.ErrSingular) {
			return fmt.Errorf("%w: %w", ErrSingularMatrix, err)
		}
		return fmt.Errorf("solve jacobian: %w", err)
	}
	return nil
}

func (op *OperatingPoint) resize(size int) []float64 {
	if cap(op.voltages) < size {
		op.voltages = make([]float64, size)
		op.residual = make([]float64, size)
	}
	op.voltages = op.voltages[:size]
	op.residual = op.residual[:size]
	return op.voltages
}

func (op *OperatingPoint) record(res Result, outcome string) {
	op.last = res
	solverRunsTotal.WithLabelValues(outcome).Inc()
	solverIterations.Observe(float64(res.Iterations))
	if res.SkippedIncrements > 0 {
		solverSkippedIncrements.Add(float64(res.SkippedIncrements))
	}
}

// LastResult returns the summary of the most recent run.
func (op *OperatingPoint) LastResult() Result { return op.last }

// Execute runs the network given to Setup and stores V(node) results.
func (op *OperatingPoint) Execute() error {
	if op.Network == nil {
		return ErrNoNetwork
	}
	res, err := op.Run(op.Network)
	if err != nil {
		return err
	}
	op.StoreNodeVoltages()
	op.Append("ITER", float64(res.Iterations))
	op.Append("CONVERGED", boolValue(res.Converged))
	return nil
}

// maxAbs returns the largest magnitude in r, +Inf if any entry is NaN.
func maxAbs(r []float64) float64 {
	var m float64
	for _, x := range r {
		if math.IsNaN(x) {
			return math.Inf(1)
		}
		if a := math.Abs(x); a > m {
			m = a
		}
	}
	return m
}
