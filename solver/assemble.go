package solver

import (
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/gosolid/energy"
	"github.com/notargets/gosolid/utils"
)

// Potential is the incremental potential of one implicit Euler step,
//
//	IP(x) = inertia(x) + h^2 * sum(elastic + external + contact + friction),
//
// whose minimizer is the next position. Terms are evaluated at a common
// trial iterate; Hessian contributions are concatenated as triplets and
// resolved into one sparse matrix only when the Newton solver finalizes.
type Potential struct {
	Inertia energy.Term
	Terms   []energy.Term
	H       float64
	NDOF    int
}

func NewPotential(inertia energy.Term, h float64, ndof int, terms ...energy.Term) (ip *Potential) {
	ip = &Potential{
		Inertia: inertia,
		Terms:   terms,
		H:       h,
		NDOF:    ndof,
	}
	return
}

func (ip *Potential) Value(x []float64) (E float64, err error) {
	if E, err = ip.Inertia.Value(x); err != nil {
		return
	}
	for _, term := range ip.Terms {
		var v float64
		if v, err = term.Value(x); err != nil {
			return
		}
		E += utils.POW(ip.H, 2) * v
	}
	return
}

func (ip *Potential) Gradient(x []float64) (g []float64, err error) {
	g = make([]float64, ip.NDOF)
	if err = ip.Inertia.AddGradient(x, g); err != nil {
		return
	}
	gt := make([]float64, ip.NDOF)
	for _, term := range ip.Terms {
		if err = term.AddGradient(x, gt); err != nil {
			return
		}
	}
	floats.AddScaled(g, utils.POW(ip.H, 2), gt)
	return
}

// HessianTriplets assembles all (PSD-projected) Hessian contributions into
// a fresh triplet arena, inertia unscaled and every other term scaled by
// h^2. The caller applies Dirichlet masking before finalizing to CSR.
func (ip *Potential) HessianTriplets(x []float64) (tb *utils.Triplets, err error) {
	tb = utils.NewTriplets(ip.NDOF)
	if err = ip.Inertia.AddHessian(x, tb); err != nil {
		return
	}
	tb.SetScale(utils.POW(ip.H, 2))
	for _, term := range ip.Terms {
		if err = term.AddHessian(x, tb); err != nil {
			return
		}
	}
	tb.SetScale(1)
	return
}

// Limiters returns the step-size constraints carried by the potential's
// terms (barrier CCD and positive-area bounds).
func (ip *Potential) Limiters() (ls []energy.StepLimiter) {
	for _, term := range ip.Terms {
		if l, ok := term.(energy.StepLimiter); ok {
			ls = append(ls, l)
		}
	}
	return
}
