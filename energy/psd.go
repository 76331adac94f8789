package energy

import (
	"gonum.org/v1/gonum/mat"
)

// ProjectPSD clamps the negative eigenvalues of the small symmetric block A
// to zero in place. Applied per element before scatter: the sum of PSD
// blocks plus the strictly positive definite lumped-mass inertia keeps the
// assembled Hessian PSD, so Newton directions are always descent directions.
func ProjectPSD(A *mat.SymDense) {
	var (
		n   = A.SymmetricDim()
		eig mat.EigenSym
	)
	if ok := eig.Factorize(A, true); !ok {
		panic("eigenvalue decomposition failed")
	}
	vals := eig.Values(nil)
	indefinite := false
	for _, v := range vals {
		if v < 0 {
			indefinite = true
			break
		}
	}
	if !indefinite {
		return
	}
	var V mat.Dense
	eig.VectorsTo(&V)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			var sum float64
			for k := 0; k < n; k++ {
				if vals[k] <= 0 {
					continue
				}
				sum += vals[k] * V.At(i, k) * V.At(j, k)
			}
			A.SetSym(i, j, sum)
		}
	}
}
