package energy

import (
	"math"

	"github.com/notargets/gosolid/geometry2D"
	"github.com/notargets/gosolid/utils"
)

/*
	HalfPlaneFriction approximates Coulomb friction against a half-plane.
	The normal force magnitude lambda and the contact frame come from the
	committed state of the previous step, not the trial iterate: the
	coupling is semi-implicit, so the term stays well-defined and convex
	during the Newton solve. The integrator rebuilds it before every step.

	With u the tangential displacement since the last step and y = |u|/h
	the sliding speed, the term contributes mu*lambda*f0(y)/h to the
	(pre-h^2) potential, where f0 smooths |.| below EpsV:

	    f0(y) = -y^3/(3 EpsV^2) + y^2/EpsV + EpsV/3   for y < EpsV
	    f0(y) = y                                     for y >= EpsV

	The resulting force magnitude is mu*lambda*f1(y) <= mu*lambda, the
	Coulomb cap, with a smooth transition through zero sliding speed.
*/
type HalfPlaneFriction struct {
	Mu     float64
	EpsV   float64 // sliding speed below which friction smooths out
	H      float64
	Lambda []float64 // per-node normal force from the previous step
	T      geometry2D.Point
	Xn     []float64 // committed positions at step start
}

// NewHalfPlaneFriction captures lambda from the barrier at the committed
// state xn. The tangent is the plane normal rotated a quarter turn.
func NewHalfPlaneFriction(hb *HalfPlaneBarrier, mu, epsv, h float64, xn []float64) (fr *HalfPlaneFriction) {
	fr = &HalfPlaneFriction{
		Mu:     mu,
		EpsV:   epsv,
		H:      h,
		Lambda: hb.ContactForces(xn),
		T:      geometry2D.Point{X: [2]float64{-hb.N.X[1], hb.N.X[0]}},
		Xn:     append([]float64(nil), xn...),
	}
	return
}

func f0(y, epsv float64) float64 {
	if y >= epsv {
		return y
	}
	return -y*y*y/(3*epsv*epsv) + y*y/epsv + epsv/3
}

// f1 = f0'
func f1(y, epsv float64) float64 {
	if y >= epsv {
		return 1
	}
	return y * (2 - y/epsv) / epsv
}

// slip returns the scalar tangential displacement of node i since the
// last committed state.
func (fr *HalfPlaneFriction) slip(x []float64, i int) float64 {
	return fr.T.X[0]*(x[2*i]-fr.Xn[2*i]) + fr.T.X[1]*(x[2*i+1]-fr.Xn[2*i+1])
}

func (fr *HalfPlaneFriction) Value(x []float64) (E float64, err error) {
	for i, lam := range fr.Lambda {
		if lam == 0 {
			continue
		}
		y := math.Abs(fr.slip(x, i)) / fr.H
		E += fr.Mu * lam * f0(y, fr.EpsV) / fr.H
	}
	return
}

func (fr *HalfPlaneFriction) AddGradient(x, g []float64) (err error) {
	for i, lam := range fr.Lambda {
		if lam == 0 {
			continue
		}
		var (
			u    = fr.slip(x, i)
			y    = math.Abs(u) / fr.H
			coef = fr.Mu * lam * f1(y, fr.EpsV) / utils.POW(fr.H, 2)
		)
		if u < 0 {
			coef = -coef
		}
		g[2*i] += coef * fr.T.X[0]
		g[2*i+1] += coef * fr.T.X[1]
	}
	return
}

func (fr *HalfPlaneFriction) AddHessian(x []float64, tb *utils.Triplets) (err error) {
	for i, lam := range fr.Lambda {
		if lam == 0 {
			continue
		}
		var (
			y  = math.Abs(fr.slip(x, i)) / fr.H
			h3 = utils.POW(fr.H, 3)
			// f1' vanishes past EpsV and is non-negative below it, so the
			// rank-one tangent block is already PSD
			df1 float64
		)
		if y < fr.EpsV {
			df1 = 2 * (1 - y/fr.EpsV) / fr.EpsV
		}
		coef := fr.Mu * lam * df1 / h3
		if coef == 0 {
			continue
		}
		tb.Append(2*i, 2*i, coef*fr.T.X[0]*fr.T.X[0])
		tb.Append(2*i, 2*i+1, coef*fr.T.X[0]*fr.T.X[1])
		tb.Append(2*i+1, 2*i, coef*fr.T.X[1]*fr.T.X[0])
		tb.Append(2*i+1, 2*i+1, coef*fr.T.X[1]*fr.T.X[1])
	}
	return
}
