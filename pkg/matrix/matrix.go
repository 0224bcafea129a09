package matrix

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// ErrSingular is returned by Solve when the system has no unique solution.
var ErrSingular = errors.New("matrix: singular system")

// ErrNotFinalized is returned by Solve before Finalize was called.
var ErrNotFinalized = errors.New("matrix: solve before finalize")

const (
	BackendSparse = "sparse"
	BackendDense  = "dense"
)

// Solver is a square linear system assembled by additive stamps. A cycle is
// Reset, any number of AddElement calls, Finalize, then Solve.
type Solver interface {
	DeviceMatrix
	// Reset empties the matrix and resizes it to size x size.
	Reset(size int)
	// Finalize locks the matrix against further writes.
	Finalize() error
	// Solve overwrites rhs with the solution of A x = rhs.
	Solve(rhs []float64) error
	Size() int
	Fprint(w io.Writer)
}

// New returns the solver backend with the given name.
func New(backend string, logger *slog.Logger) (Solver, error) {
	switch backend {
	case BackendSparse, "":
		return NewSparse(logger), nil
	case BackendDense:
		return NewDense(logger), nil
	}
	return nil, fmt.Errorf("matrix: unknown backend %q", backend)
}

type cell struct {
	row, col int
}

func fprintRows(w io.Writer, size int, at func(i, j int) float64) {
	fmt.Fprintf(w, "\nJacobian (%dx%d):\n", size, size)
	for i := 0; i < size; i++ {
		fmt.Fprintf(w, "Equation %d:", i)
		for j := 0; j < size; j++ {
			if v := at(i, j); v != 0 {
				fmt.Fprintf(w, "  %+g*x%d", v, j)
			}
		}
		fmt.Fprintln(w)
	}
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
