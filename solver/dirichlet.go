package solver

import (
	"github.com/notargets/gosolid/utils"
)

// DirichletMask is the projection that decouples constrained DOFs from the
// linear solve: their Hessian rows and columns are removed, the diagonal is
// set to one and the gradient zeroed, so the computed direction leaves them
// untouched. Prescribed motion is imposed externally by the integrator
// before the solve.
type DirichletMask struct {
	Fixed []bool // per DOF
}

// NewDirichletMask expands per-node flags to per-DOF flags.
func NewDirichletMask(fixedNodes []bool) (dm *DirichletMask) {
	dm = &DirichletMask{
		Fixed: make([]bool, 2*len(fixedNodes)),
	}
	for i, f := range fixedNodes {
		dm.Fixed[2*i] = f
		dm.Fixed[2*i+1] = f
	}
	return
}

func (dm *DirichletMask) NumFree() (n int) {
	for _, f := range dm.Fixed {
		if !f {
			n++
		}
	}
	return
}

// ApplyHessian drops every triplet touching a fixed DOF and places a unit
// diagonal there.
func (dm *DirichletMask) ApplyHessian(tb *utils.Triplets) {
	tb.Filter(dm.Fixed)
	for i, f := range dm.Fixed {
		if f {
			tb.AddDiag(i, 1)
		}
	}
}

// ApplyVector zeroes the masked entries of a gradient or direction.
func (dm *DirichletMask) ApplyVector(v []float64) {
	for i, f := range dm.Fixed {
		if f {
			v[i] = 0
		}
	}
}
