package utils

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// Index is a list of DOF indices used to scatter element blocks into the
// global system.
type Index []int

// Triplets accumulates coordinate format (i, j, value) contributions to a
// square sparse matrix. Contributions are concatenated, duplicates included;
// they are summed only when the matrix is finalized by ToCSR. Symmetry is
// the caller's contract: every off-diagonal entry must be appended with its
// transpose partner, which AddSym guarantees for dense blocks.
type Triplets struct {
	n     int
	scale float64
	rows  []int
	cols  []int
	vals  []float64
}

func NewTriplets(n int) (T *Triplets) {
	T = &Triplets{
		n:     n,
		scale: 1,
	}
	return
}

func (tp *Triplets) Dims() (r, c int) { return tp.n, tp.n }
func (tp *Triplets) Len() int         { return len(tp.vals) }

// SetScale multiplies subsequently appended values by s. Used by the
// assembler to fold the h^2 factor into every non-inertial contribution.
func (tp *Triplets) SetScale(s float64) { tp.scale = s }

func (tp *Triplets) Append(i, j int, v float64) {
	if i < 0 || i >= tp.n || j < 0 || j >= tp.n {
		err := fmt.Errorf("triplet index out of range: (%d,%d), dimension = %d", i, j, tp.n)
		panic(err)
	}
	tp.rows = append(tp.rows, i)
	tp.cols = append(tp.cols, j)
	tp.vals = append(tp.vals, tp.scale*v)
}

// AddSym scatters the dense symmetric block A over the global DOF indices I.
func (tp *Triplets) AddSym(I Index, A mat.Symmetric) {
	var (
		n = A.SymmetricDim()
	)
	if n != len(I) {
		err := fmt.Errorf("block dimension %d does not match index length %d", n, len(I))
		panic(err)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			tp.Append(I[i], I[j], A.At(i, j))
		}
	}
}

// AddDiag adds v on the diagonal at DOF i.
func (tp *Triplets) AddDiag(i int, v float64) {
	tp.Append(i, i, v)
}

// Filter removes every entry with a row or column on a masked DOF. Used by
// the Dirichlet projection before finalizing.
func (tp *Triplets) Filter(masked []bool) {
	var (
		k int
	)
	for ii := range tp.vals {
		if masked[tp.rows[ii]] || masked[tp.cols[ii]] {
			continue
		}
		tp.rows[k] = tp.rows[ii]
		tp.cols[k] = tp.cols[ii]
		tp.vals[k] = tp.vals[ii]
		k++
	}
	tp.rows = tp.rows[:k]
	tp.cols = tp.cols[:k]
	tp.vals = tp.vals[:k]
}

// ToCSR resolves duplicate coordinates by summation and finalizes the
// accumulated triplets into an immutable CSR matrix.
func (tp *Triplets) ToCSR() (R *sparse.CSR) {
	C := sparse.NewCOO(tp.n, tp.n, tp.rows, tp.cols, tp.vals)
	R = C.ToCSR()
	return
}
