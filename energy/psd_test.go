package energy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

// assertDensePSD checks all eigenvalues of the row-major n x n matrix A
// are non-negative up to roundoff.
func assertDensePSD(t *testing.T, A []float64, n int) {
	S := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			S.SetSym(i, j, 0.5*(A[i*n+j]+A[j*n+i]))
		}
	}
	var eig mat.EigenSym
	assert.True(t, eig.Factorize(S, false))
	var scale float64
	vals := eig.Values(nil)
	for _, v := range vals {
		if a := v; a > scale {
			scale = a
		}
	}
	tol := 1e-10 * (scale + 1)
	for _, v := range vals {
		assert.GreaterOrEqual(t, v, -tol)
	}
}

func TestProjectPSD(t *testing.T) {
	// an already PSD block is untouched
	{
		A := mat.NewSymDense(2, []float64{2, 1, 1, 2})
		B := mat.NewSymDense(2, nil)
		B.CopySym(A)
		ProjectPSD(A)
		assert.InDelta(t, B.At(0, 0), A.At(0, 0), 1e-14)
		assert.InDelta(t, B.At(0, 1), A.At(0, 1), 1e-14)
	}
	// an indefinite block loses exactly its negative curvature
	{
		// eigenvalues 3 and -1 along (1,1)/sqrt2 and (1,-1)/sqrt2
		A := mat.NewSymDense(2, []float64{1, 2, 2, 1})
		ProjectPSD(A)
		var eig mat.EigenSym
		assert.True(t, eig.Factorize(A, false))
		vals := eig.Values(nil)
		assert.InDelta(t, 0.0, vals[0], 1e-12)
		assert.InDelta(t, 3.0, vals[1], 1e-12)
		// projected matrix is 1.5 on the diagonal, 1.5 off it
		assert.InDelta(t, 1.5, A.At(0, 0), 1e-12)
		assert.InDelta(t, 1.5, A.At(0, 1), 1e-12)
	}
	// a negative definite block projects to zero
	{
		A := mat.NewSymDense(2, []float64{-1, 0, 0, -2})
		ProjectPSD(A)
		assert.InDelta(t, 0.0, A.At(0, 0), 1e-14)
		assert.InDelta(t, 0.0, A.At(1, 1), 1e-14)
	}
}
