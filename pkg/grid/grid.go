package grid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/drzzm32/SimElectricity/pkg/analysis"
	"github.com/drzzm32/SimElectricity/pkg/circuit"
)

// ErrUnknownNetwork is returned for ids that were never added or were removed.
var ErrUnknownNetwork = errors.New("grid: unknown network")

// Report is the outcome of one network in a step.
type Report struct {
	ID          uuid.UUID
	Result      analysis.Result
	Err         error
	Quarantined bool // Set when this step quarantined the network
}

type entry struct {
	net         *circuit.Network
	op          *analysis.OperatingPoint
	quarantined bool
}

// Grid steps independent networks, each with its own driver. A network whose
// Jacobian turns singular is quarantined and skipped until released.
type Grid struct {
	mu      sync.Mutex
	config  analysis.Config
	logger  *slog.Logger
	entries map[uuid.UUID]*entry
	order   []uuid.UUID
}

func New(config analysis.Config, logger *slog.Logger) (*Grid, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Grid{
		config:  config,
		logger:  logger,
		entries: make(map[uuid.UUID]*entry),
	}, nil
}

// Add registers a network and returns its id.
func (g *Grid) Add(net *circuit.Network) (uuid.UUID, error) {
	if err := net.Validate(); err != nil {
		return uuid.Nil, err
	}

	id := uuid.New()
	op, err := analysis.NewOP(g.config.Solver,
		analysis.WithLogger(g.logger.With(slog.String("network", id.String()))))
	if err != nil {
		return uuid.Nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.entries[id] = &entry{net: net, op: op}
	g.order = append(g.order, id)
	return id, nil
}

func (g *Grid) Remove(id uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNetwork, id)
	}
	if e.quarantined {
		quarantinedNetworks.Dec()
	}
	delete(g.entries, id)
	for i, other := range g.order {
		if other == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	return nil
}

// Network returns the registered network for id.
func (g *Grid) Network(id uuid.UUID) (*circuit.Network, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.entries[id]
	if !ok {
		return nil, false
	}
	return e.net, true
}

func (g *Grid) Quarantined(id uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.entries[id]
	return ok && e.quarantined
}

// Release lets a quarantined network be stepped again, typically after its
// topology was rebuilt.
func (g *Grid) Release(id uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNetwork, id)
	}
	if e.quarantined {
		e.quarantined = false
		quarantinedNetworks.Dec()
	}
	return nil
}

// Step solves every active network once, at most Grid.Workers at a time.
// Reports follow registration order. Networks must not be modified while a
// step is running. The context is checked before each network; when it ends
// the step, the reports of the networks that already ran are returned with
// the context error and singular ones among them are still quarantined.
func (g *Grid) Step(ctx context.Context) ([]Report, error) {
	g.mu.Lock()
	ids := make([]uuid.UUID, 0, len(g.order))
	active := make([]*entry, 0, len(g.order))
	for _, id := range g.order {
		if e := g.entries[id]; !e.quarantined {
			ids = append(ids, id)
			active = append(active, e)
		}
	}
	g.mu.Unlock()

	reports := make([]Report, len(active))
	ran := make([]bool, len(active))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.config.Grid.Workers)
	for i, e := range active {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := e.op.Run(e.net)
			reports[i] = Report{ID: ids[i], Result: res, Err: err}
			ran[i] = true
			return nil
		})
	}
	stepErr := eg.Wait()
	if stepErr != nil {
		done := reports[:0]
		for i := range reports {
			if ran[i] {
				done = append(done, reports[i])
			}
		}
		reports = done
	}

	g.quarantine(reports)
	return reports, stepErr
}

// quarantine marks the networks whose report carries a singular matrix.
func (g *Grid) quarantine(reports []Report) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range reports {
		r := &reports[i]
		if !errors.Is(r.Err, analysis.ErrSingularMatrix) {
			continue
		}
		e, ok := g.entries[r.ID]
		if !ok || e.quarantined {
			continue
		}
		e.quarantined = true
		r.Quarantined = true
		quarantinedNetworks.Inc()
		g.logger.Warn("network quarantined", slog.String("network", r.ID.String()), slog.String("error", r.Err.Error()))
	}
}
