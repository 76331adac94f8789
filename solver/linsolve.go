package solver

import (
	"math"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/floats"
)

// DirectionSolver produces the Newton search direction p from H p = -g.
// The full-space implementation solves the sparse system directly; the
// reduced-order implementation projects through a modal basis first.
type DirectionSolver interface {
	Solve(H *sparse.CSR, g []float64) (p []float64, err error)
}

// CGSolver is a Jacobi-preconditioned conjugate gradient solve on the
// assembled CSR matrix, which the projected assembly guarantees symmetric
// positive semi-definite (and definite once the inertia diagonal and
// Dirichlet identity rows are in). On breakdown it retries once with a
// small Tikhonov shift before reporting LinearSolveFailure.
type CGSolver struct {
	Tol     float64
	MaxIter int // 0 means 4x the DOF count
}

func NewCGSolver() *CGSolver {
	return &CGSolver{Tol: 1e-10}
}

func (cg *CGSolver) Solve(H *sparse.CSR, g []float64) (p []float64, err error) {
	var (
		n    = len(g)
		diag = make([]float64, n)
	)
	H.DoNonZero(func(i, j int, v float64) {
		if i == j {
			diag[i] += v
		}
	})
	p, iters, res := cg.run(H, g, diag, 0)
	if p != nil {
		return
	}
	// regularization retry: shift the diagonal by a small fraction of its
	// largest entry and solve again
	shift := 1e-8 * utilsMaxAbs(diag)
	if shift == 0 {
		shift = 1e-12
	}
	if p, iters, res = cg.run(H, g, diag, shift); p != nil {
		return
	}
	err = &LinearSolveFailure{Iters: iters, Residual: res}
	return
}

func utilsMaxAbs(v []float64) (m float64) {
	for _, val := range v {
		if a := math.Abs(val); a > m {
			m = a
		}
	}
	return
}

// run returns nil when CG fails to reach tolerance within the iteration
// budget or the preconditioner is unusable.
func (cg *CGSolver) run(H *sparse.CSR, g []float64, diag []float64, shift float64) (p []float64, iters int, res float64) {
	var (
		n       = len(g)
		maxIter = cg.MaxIter
		x       = make([]float64, n)
		r       = make([]float64, n)
		z       = make([]float64, n)
		d       = make([]float64, n)
		hd      = make([]float64, n)
	)
	if maxIter == 0 {
		maxIter = 4 * n
	}
	// solve H x = -g
	for i := range r {
		r[i] = -g[i]
	}
	bNorm := floats.Norm(r, 2)
	if bNorm == 0 {
		return x, 0, 0
	}
	precond := func(dst, src []float64) bool {
		for i := range dst {
			di := diag[i] + shift
			if di <= 0 {
				return false
			}
			dst[i] = src[i] / di
		}
		return true
	}
	if !precond(z, r) {
		return nil, 0, bNorm
	}
	copy(d, z)
	rz := floats.Dot(r, z)
	for iters = 0; iters < maxIter; iters++ {
		for i := range hd {
			hd[i] = shift * d[i]
		}
		H.DoNonZero(func(i, j int, v float64) {
			hd[i] += v * d[j]
		})
		dHd := floats.Dot(d, hd)
		if dHd <= 0 {
			// lost positive definiteness, trigger the regularized retry
			return nil, iters, floats.Norm(r, 2)
		}
		alpha := rz / dHd
		floats.AddScaled(x, alpha, d)
		floats.AddScaled(r, -alpha, hd)
		res = floats.Norm(r, 2)
		if res <= cg.Tol*bNorm {
			return x, iters, res
		}
		if !precond(z, r) {
			return nil, iters, res
		}
		rzNew := floats.Dot(r, z)
		beta := rzNew / rz
		rz = rzNew
		for i := range d {
			d[i] = z[i] + beta*d[i]
		}
	}
	return nil, iters, res
}
