package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrSingularMatrix indicates the Jacobian could not be solved. The
	// network state is left as it was before the run.
	ErrSingularMatrix = errors.New("analysis: singular matrix")

	// ErrNoNetwork indicates Execute was called before Setup.
	ErrNoNetwork = errors.New("analysis: network not set")
)

// SolveError wraps a failed run with the iteration it stopped at.
type SolveError struct {
	Iteration int
	Err       error
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("iteration %d: %v", e.Iteration, e.Err)
}

func (e *SolveError) Unwrap() error {
	return e.Err
}
