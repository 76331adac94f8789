package energy

import (
	"github.com/notargets/gosolid/utils"
)

/*
	Every additive piece of the incremental potential implements Term. The
	three evaluations are mutually consistent at a common trial iterate:
	AddGradient accumulates the exact derivative of Value, AddHessian the
	exact second derivative or its per-element PSD-clamped surrogate.

	DOF layout is flat: node i owns entries (2i, 2i+1) of x.
*/
type Term interface {
	Value(x []float64) (float64, error)
	AddGradient(x, g []float64) error
	AddHessian(x []float64, tb *utils.Triplets) error
}

// StepLimiter is implemented by terms whose domain constrains how far the
// iterate may move along a search direction: barriers (via CCD) and
// inversion-free elasticity (via the positive-area bound).
type StepLimiter interface {
	MaxStep(x, p []float64) float64
}

func node(x []float64, i int) (px, py float64) {
	return x[2*i], x[2*i+1]
}
