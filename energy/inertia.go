package energy

import (
	"fmt"

	"github.com/notargets/gosolid/utils"
)

// Inertia is the quadratic distance to the predicted position,
// 0.5*(x - xTilde)' M (x - xTilde) with lumped (diagonal) mass. Always
// convex. XTilde is reset by the integrator at the start of each step.
type Inertia struct {
	Mass   []float64 // per node
	XTilde []float64 // predicted position, x_n + h*v_n
}

func NewInertia(mass []float64) (in *Inertia) {
	in = &Inertia{
		Mass:   mass,
		XTilde: make([]float64, 2*len(mass)),
	}
	return
}

func (in *Inertia) check(x []float64) {
	if len(x) != len(in.XTilde) {
		err := fmt.Errorf("inertia: DOF count %d does not match predicted state %d",
			len(x), len(in.XTilde))
		panic(err)
	}
}

func (in *Inertia) Value(x []float64) (E float64, err error) {
	in.check(x)
	for i, m := range in.Mass {
		dx := x[2*i] - in.XTilde[2*i]
		dy := x[2*i+1] - in.XTilde[2*i+1]
		E += 0.5 * m * (dx*dx + dy*dy)
	}
	return
}

func (in *Inertia) AddGradient(x, g []float64) (err error) {
	in.check(x)
	for i, m := range in.Mass {
		g[2*i] += m * (x[2*i] - in.XTilde[2*i])
		g[2*i+1] += m * (x[2*i+1] - in.XTilde[2*i+1])
	}
	return
}

func (in *Inertia) AddHessian(x []float64, tb *utils.Triplets) (err error) {
	in.check(x)
	for i, m := range in.Mass {
		tb.AddDiag(2*i, m)
		tb.AddDiag(2*i+1, m)
	}
	return
}
