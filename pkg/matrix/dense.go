package matrix

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Below this log-determinant gonum reports a regular matrix as singular.
var minLogDet = math.Log(math.SmallestNonzeroFloat64)

// Dense is an LU backend with partial pivoting.
type Dense struct {
	size   int
	a      *mat.Dense
	scaled *mat.Dense
	lu     mat.LU
	scale  float64

	final    bool
	singular bool
	logger   *slog.Logger
}

func NewDense(logger *slog.Logger) *Dense {
	return &Dense{logger: loggerOrDefault(logger)}
}

func (d *Dense) Size() int { return d.size }

func (d *Dense) Reset(size int) {
	switch {
	case size == 0:
		d.a, d.scaled = nil, nil
	case size != d.size || d.a == nil:
		d.a = mat.NewDense(size, size, nil)
		d.scaled = nil
	default:
		d.a.Zero()
	}
	d.size = size
	d.final = false
	d.singular = false
	d.scale = 1
}

func (d *Dense) AddElement(i, j int, value float64) {
	if d.final {
		d.logger.Warn("write to finalized matrix ignored", slog.Int("row", i), slog.Int("col", j))
		return
	}
	if i < 0 || j < 0 || i >= d.size || j >= d.size {
		d.logger.Warn("matrix index out of bounds", slog.Int("row", i), slog.Int("col", j), slog.Int("size", d.size))
		return
	}
	d.a.Set(i, j, d.a.At(i, j)+value)
}

func (d *Dense) Finalize() error {
	if d.final {
		return nil
	}
	d.final = true
	if d.size == 0 {
		return nil
	}

	d.lu.Factorize(d.a)
	logDet, _ := d.lu.LogDet()
	switch {
	case math.IsInf(logDet, -1):
		d.singular = true
	case logDet < minLogDet:
		// Rescale so the determinant is representable.
		d.scale = math.Exp(-logDet / float64(d.size))
		if d.scaled == nil {
			d.scaled = mat.NewDense(d.size, d.size, nil)
		}
		d.scaled.Scale(d.scale, d.a)
		d.lu.Factorize(d.scaled)
	}
	return nil
}

func (d *Dense) Solve(rhs []float64) error {
	if !d.final {
		return ErrNotFinalized
	}
	if d.size == 0 {
		return nil
	}
	if len(rhs) != d.size {
		return fmt.Errorf("matrix: rhs length %d, want %d", len(rhs), d.size)
	}
	if d.singular {
		return fmt.Errorf("%w: zero pivot", ErrSingular)
	}

	b := mat.NewVecDense(d.size, nil)
	for i, v := range rhs {
		b.SetVec(i, v*d.scale)
	}

	var x mat.VecDense
	err := d.lu.SolveVecTo(&x, false, b)
	var cond mat.Condition
	switch {
	case errors.Is(err, mat.ErrSingular):
		return fmt.Errorf("%w: %v", ErrSingular, err)
	case errors.As(err, &cond):
		d.logger.Warn("ill-conditioned jacobian", slog.Float64("condition", float64(cond)))
	case err != nil:
		return fmt.Errorf("matrix: dense solve failed: %w", err)
	}

	for i := range rhs {
		rhs[i] = x.AtVec(i)
	}
	return nil
}

func (d *Dense) Fprint(w io.Writer) {
	if d.a == nil {
		fprintRows(w, 0, nil)
		return
	}
	fprintRows(w, d.size, d.a.At)
}
