package matrix

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/edp1096/sparse"
)

// Sparse is a Markowitz-ordered sparse LU backend. Element handles are kept
// across cycles while the nonzero structure stays the same.
type Sparse struct {
	size     int
	config   *sparse.Configuration
	matrix   *sparse.Matrix
	elements map[cell]*sparse.Element

	values   map[cell]float64
	order    []cell
	final    bool
	factored bool
	logger   *slog.Logger
}

func NewSparse(logger *slog.Logger) *Sparse {
	config := &sparse.Configuration{
		Real:             true,
		Complex:          false,
		Expandable:       false,
		Translate:        false,
		ModifiedNodal:    false,
		DefaultPartition: sparse.AUTO_PARTITION,
		TiesMultiplier:   5,
		PrinterWidth:     140,
		Annotate:         0,
	}

	return &Sparse{
		config: config,
		values: make(map[cell]float64),
		logger: loggerOrDefault(logger),
	}
}

func (s *Sparse) Size() int { return s.size }

func (s *Sparse) Reset(size int) {
	if size != s.size {
		s.release()
		s.size = size
	}
	clear(s.values)
	s.order = s.order[:0]
	s.final = false
	s.factored = false
}

func (s *Sparse) AddElement(i, j int, value float64) {
	if s.final {
		s.logger.Warn("write to finalized matrix ignored", slog.Int("row", i), slog.Int("col", j))
		return
	}
	if i < 0 || j < 0 || i >= s.size || j >= s.size {
		s.logger.Warn("matrix index out of bounds", slog.Int("row", i), slog.Int("col", j), slog.Int("size", s.size))
		return
	}

	c := cell{i, j}
	if _, ok := s.values[c]; !ok {
		s.order = append(s.order, c)
	}
	s.values[c] += value
}

func (s *Sparse) Finalize() error {
	if s.final {
		return nil
	}
	s.final = true
	if s.size == 0 {
		return nil
	}

	if s.sameStructure() {
		s.matrix.Clear()
	} else if err := s.rebuild(); err != nil {
		return err
	}

	for c, v := range s.values {
		s.elements[c].Real = v
	}
	// Pivots chosen for the previous values may be zero now.
	s.matrix.NeedsOrdering = true
	return nil
}

func (s *Sparse) Solve(rhs []float64) error {
	if !s.final {
		return ErrNotFinalized
	}
	if s.size == 0 {
		return nil
	}
	if len(rhs) != s.size {
		return fmt.Errorf("matrix: rhs length %d, want %d", len(rhs), s.size)
	}
	if row, ok := s.emptyRow(); ok {
		return fmt.Errorf("%w: row %d has no entries", ErrSingular, row)
	}

	if !s.factored {
		if err := s.matrix.Factor(); err != nil {
			return fmt.Errorf("%w: %v", ErrSingular, err)
		}
		s.factored = true
	}

	b := make([]float64, s.size+1) // 1-based indexing
	copy(b[1:], rhs)
	x, err := s.matrix.Solve(b)
	if err != nil {
		return fmt.Errorf("matrix: sparse solve failed: %w", err)
	}
	copy(rhs, x[1:s.size+1])
	return nil
}

func (s *Sparse) Fprint(w io.Writer) {
	fprintRows(w, s.size, func(i, j int) float64 { return s.values[cell{i, j}] })
}

func (s *Sparse) sameStructure() bool {
	if s.matrix == nil {
		return false
	}
	for c := range s.values {
		if _, ok := s.elements[c]; !ok {
			return false
		}
	}
	return true
}

func (s *Sparse) rebuild() error {
	s.release()

	m, err := sparse.Create(int64(s.size), s.config)
	if err != nil {
		return fmt.Errorf("matrix: create sparse matrix: %w", err)
	}

	elements := make(map[cell]*sparse.Element, len(s.order))
	for _, c := range s.order {
		el := m.GetElement(int64(c.row+1), int64(c.col+1))
		if el == nil {
			m.Destroy()
			return fmt.Errorf("matrix: no element at (%d, %d)", c.row, c.col)
		}
		elements[c] = el
	}

	s.matrix = m
	s.elements = elements
	return nil
}

func (s *Sparse) emptyRow() (int, bool) {
	nonzero := make([]bool, s.size)
	for c, v := range s.values {
		if v != 0 {
			nonzero[c.row] = true
		}
	}
	for i, ok := range nonzero {
		if !ok {
			return i, true
		}
	}
	return 0, false
}

func (s *Sparse) release() {
	if s.matrix != nil {
		s.matrix.Destroy()
	}
	s.matrix = nil
	s.elements = nil
}
