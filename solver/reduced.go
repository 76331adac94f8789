package solver

import (
	"math"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gosolid/utils"
)

// NewModalBasis computes a fixed reduction basis from the generalized
// eigenproblem K phi = omega^2 M phi of the rest-state elastic stiffness
// and the lumped mass, restricted to free DOFs. With the substitution
// y = M^(1/2) x the problem is symmetric and gonum's EigenSym applies; the
// m lowest modes are kept and expanded back with M^(-1/2), zero on fixed
// DOFs. The basis is computed once at setup and read-only thereafter.
func NewModalBasis(K *utils.Triplets, mass []float64, mask *DirichletMask, m int) (B *mat.Dense, err error) {
	var (
		ndof = 2 * len(mass)
		free = make([]int, 0, ndof) // free-DOF index -> full-DOF index
		into = make([]int, ndof)    // full-DOF index -> free-DOF index
	)
	for i := 0; i < ndof; i++ {
		into[i] = -1
		if !mask.Fixed[i] {
			into[i] = len(free)
			free = append(free, i)
		}
	}
	var (
		nf     = len(free)
		sqrtM  = make([]float64, ndof)
		A      = mat.NewSymDense(nf, nil)
		packed = K.ToCSR()
	)
	for i := 0; i < ndof; i++ {
		sqrtM[i] = math.Sqrt(mass[i/2])
	}
	packed.DoNonZero(func(i, j int, v float64) {
		fi, fj := into[i], into[j]
		if fi < 0 || fj < 0 || fi > fj {
			return
		}
		A.SetSym(fi, fj, A.At(fi, fj)+v/(sqrtM[i]*sqrtM[j]))
	})

	var eig mat.EigenSym
	if ok := eig.Factorize(A, true); !ok {
		err = &LinearSolveFailure{Residual: math.NaN()}
		return
	}
	var V mat.Dense
	eig.VectorsTo(&V)
	// eigenvalues come back ascending; the first m columns are the low
	// frequency modes
	if m > nf {
		m = nf
	}
	B = mat.NewDense(ndof, m, nil)
	for k := 0; k < m; k++ {
		for fi, i := range free {
			B.Set(i, k, V.At(fi, k)/sqrtM[i])
		}
	}
	return
}

// ReducedSolver is the reduced-order direction solve: the chain rule
// transforms (H, g) into the modal subspace, the small dense SPD system is
// factorized, and the direction is expanded back to full space. The Newton
// loop stays basis-agnostic; Dirichlet masking has already happened in
// full space, and the basis is zero on fixed DOFs so the expanded
// direction leaves them untouched.
type ReducedSolver struct {
	Basis *mat.Dense // ndof x m, fixed for the simulation's lifetime
}

func NewReducedSolver(basis *mat.Dense) *ReducedSolver {
	return &ReducedSolver{Basis: basis}
}

func (rs *ReducedSolver) Solve(H *sparse.CSR, g []float64) (p []float64, err error) {
	var (
		ndof, m = rs.Basis.Dims()
		HB      = mat.NewDense(ndof, m, nil)
	)
	H.DoNonZero(func(i, j int, v float64) {
		for k := 0; k < m; k++ {
			HB.Set(i, k, HB.At(i, k)+v*rs.Basis.At(j, k))
		}
	})
	var (
		Hr = mat.NewSymDense(m, nil)
		gr = mat.NewVecDense(m, nil)
	)
	for a := 0; a < m; a++ {
		var dot float64
		for i := 0; i < ndof; i++ {
			dot += rs.Basis.At(i, a) * g[i]
		}
		gr.SetVec(a, -dot)
		for b := a; b < m; b++ {
			var sum float64
			for i := 0; i < ndof; i++ {
				sum += rs.Basis.At(i, a) * HB.At(i, b)
			}
			Hr.SetSym(a, b, sum)
		}
	}

	var (
		chol mat.Cholesky
		q    mat.VecDense
	)
	if ok := chol.Factorize(Hr); !ok {
		// regularization retry, then give up
		var shift float64
		for a := 0; a < m; a++ {
			if d := math.Abs(Hr.At(a, a)); d > shift {
				shift = d
			}
		}
		shift = math.Max(1e-8*shift, 1e-12)
		for a := 0; a < m; a++ {
			Hr.SetSym(a, a, Hr.At(a, a)+shift)
		}
		if ok = chol.Factorize(Hr); !ok {
			err = &LinearSolveFailure{Residual: math.NaN()}
			return
		}
	}
	if err = chol.SolveVecTo(&q, gr); err != nil {
		err = &LinearSolveFailure{Residual: math.NaN()}
		return
	}
	p = make([]float64, ndof)
	for i := 0; i < ndof; i++ {
		var sum float64
		for k := 0; k < m; k++ {
			sum += rs.Basis.At(i, k) * q.AtVec(k)
		}
		p[i] = sum
	}
	return
}
