package analysis

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeConverged      = "converged"
	outcomeIterationLimit = "iteration_limit"
	outcomeSingular       = "singular"
	outcomeFailed         = "failed"
)

var (
	// solverRunsTotal counts runs by outcome.
	solverRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "energynet",
			Subsystem: "solver",
			Name:      "runs_total",
			Help:      "Newton-Raphson runs by outcome.",
		},
		[]string{"outcome"},
	)

	solverIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "energynet",
			Subsystem: "solver",
			Name:      "iterations",
			Help:      "Newton-Raphson iterations per run.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21, 34, 55, 89},
		},
	)

	solverSkippedIncrements = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "energynet",
			Subsystem: "solver",
			Name:      "skipped_increments_total",
			Help:      "Non-finite voltage increments dropped during runs.",
		},
	)
)
