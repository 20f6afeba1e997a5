package problem

import "fmt"

// Sphere is the classic f(x) = sum(x_j^2) benchmark: fully continuous,
// single-objective, box-constrained, non-blocking. It backs the end-to-end
// scenarios in spec.md §8 and the CLI's default run target.
type Sphere struct {
	dim    int
	lb, ub []float64
}

// NewSphere builds a D-dimensional Sphere problem with symmetric bounds
// [-bound, bound] on every component.
func NewSphere(d int, bound float64) (*Sphere, error) {
	if d <= 0 {
		return nil, fmt.Errorf("sphere: dimension must be > 0, got %d", d)
	}
	if bound <= 0 {
		return nil, fmt.Errorf("sphere: bound must be > 0, got %g", bound)
	}
	lb := make([]float64, d)
	ub := make([]float64, d)
	for i := range lb {
		lb[i] = -bound
		ub[i] = bound
	}
	return &Sphere{dim: d, lb: lb, ub: ub}, nil
}

func (s *Sphere) Dimension() int            { return s.dim }
func (s *Sphere) IntegerDimension() int     { return 0 }
func (s *Sphere) ContinuousDimension() int  { return s.dim }
func (s *Sphere) ConstraintDimension() int  { return 0 }
func (s *Sphere) FitnessDimension() int     { return 1 }
func (s *Sphere) Blocking() bool            { return false }

func (s *Sphere) Bounds() (lb, ub []float64) {
	return append([]float64(nil), s.lb...), append([]float64(nil), s.ub...)
}

func (s *Sphere) Objective(out, x []float64) error {
	if len(out) != 1 {
		return fmt.Errorf("sphere: out must have length 1, got %d", len(out))
	}
	if len(x) != s.dim {
		return fmt.Errorf("sphere: x must have length %d, got %d", s.dim, len(x))
	}
	sum := 0.0
	for _, v := range x {
		sum += v * v
	}
	out[0] = sum
	return nil
}

// Better implements minimization: lower fitness wins.
func (s *Sphere) Better(a, b []float64) bool {
	return a[0] < b[0]
}

func (s *Sphere) Clone() Problem {
	c := &Sphere{
		dim: s.dim,
		lb:  append([]float64(nil), s.lb...),
		ub:  append([]float64(nil), s.ub...),
	}
	return c
}
