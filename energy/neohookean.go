package energy

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gosolid/utils"
)

// NeoHookean is the stable Neo-Hookean strain energy over a triangle mesh:
// Psi(F) = mu/2 (tr(F'F) - 2) - mu ln J + lambda/2 ln^2 J, integrated with
// one point per element. The log terms diverge as the element area
// approaches zero, which together with the positive-area step bound keeps
// the simulation inversion free. Evaluation at J <= 0 is outside the
// domain and reported as a violation.
type NeoHookean struct {
	Tris   [][3]int
	IB     [][4]float64 // inverse rest shape matrix per element, column major
	Vol    []float64    // rest area per element
	Mu     float64
	Lambda float64
}

// NewNeoHookean precomputes rest shape matrices from xRest. E and nu are
// Young's modulus and Poisson's ratio.
func NewNeoHookean(tris [][3]int, xRest []float64, E, nu float64) (nh *NeoHookean, err error) {
	if nu < 0 || nu >= 0.5 {
		err = fmt.Errorf("poisson ratio must be in [0, 0.5), got %g", nu)
		return
	}
	nh = &NeoHookean{
		Tris:   tris,
		IB:     make([][4]float64, len(tris)),
		Vol:    make([]float64, len(tris)),
		Mu:     E / (2 * (1 + nu)),
		Lambda: E * nu / ((1 + nu) * (1 - 2*nu)),
	}
	for e, tri := range tris {
		var (
			x0, y0 = node(xRest, tri[0])
			x1, y1 = node(xRest, tri[1])
			x2, y2 = node(xRest, tri[2])
			b00    = x1 - x0
			b10    = y1 - y0
			b01    = x2 - x0
			b11    = y2 - y0
			det    = b00*b11 - b01*b10
		)
		if det <= 0 {
			err = &DomainViolation{Term: "neo-hookean", Detail: "degenerate or inverted rest element"}
			return
		}
		nh.Vol[e] = 0.5 * det
		nh.IB[e] = [4]float64{b11 / det, -b10 / det, -b01 / det, b00 / det}
	}
	return
}

// deformationGradient returns vec(F) in column-major order
// (F00, F10, F01, F11) for element e at iterate x.
func (nh *NeoHookean) deformationGradient(x []float64, e int) (F [4]float64) {
	var (
		tri    = nh.Tris[e]
		ib     = nh.IB[e]
		x0, y0 = node(x, tri[0])
		x1, y1 = node(x, tri[1])
		x2, y2 = node(x, tri[2])
		d00    = x1 - x0
		d10    = y1 - y0
		d01    = x2 - x0
		d11    = y2 - y0
	)
	F[0] = d00*ib[0] + d01*ib[1]
	F[1] = d10*ib[0] + d11*ib[1]
	F[2] = d00*ib[2] + d01*ib[3]
	F[3] = d10*ib[2] + d11*ib[3]
	return
}

// dFdx returns the constant 4x6 chain-rule matrix d vec(F) / d x for
// element e, DOF order (x0, y0, x1, y1, x2, y2).
func (nh *NeoHookean) dFdx(e int) (J [4][6]float64) {
	ib := nh.IB[e]
	// rows follow vec(F) = (F00, F10, F01, F11)
	J[0][2], J[0][4], J[0][0] = ib[0], ib[1], -(ib[0] + ib[1])
	J[1][3], J[1][5], J[1][1] = ib[0], ib[1], -(ib[0] + ib[1])
	J[2][2], J[2][4], J[2][0] = ib[2], ib[3], -(ib[2] + ib[3])
	J[3][3], J[3][5], J[3][1] = ib[2], ib[3], -(ib[2] + ib[3])
	return
}

func (nh *NeoHookean) Value(x []float64) (E float64, err error) {
	for e := range nh.Tris {
		F := nh.deformationGradient(x, e)
		J := F[0]*F[3] - F[2]*F[1]
		if J <= 0 {
			err = &DomainViolation{Term: "neo-hookean", Detail: "non-positive element area"}
			return
		}
		var (
			I1   = F[0]*F[0] + F[1]*F[1] + F[2]*F[2] + F[3]*F[3]
			logJ = math.Log(J)
			psi  = 0.5*nh.Mu*(I1-2) - nh.Mu*logJ + 0.5*nh.Lambda*logJ*logJ
		)
		E += nh.Vol[e] * psi
	}
	return
}

func (nh *NeoHookean) AddGradient(x, g []float64) (err error) {
	for e, tri := range nh.Tris {
		F := nh.deformationGradient(x, e)
		J := F[0]*F[3] - F[2]*F[1]
		if J <= 0 {
			err = &DomainViolation{Term: "neo-hookean", Detail: "non-positive element area"}
			return
		}
		var (
			logJ = math.Log(J)
			// vec(J F^-T) in the same column-major ordering
			gj   = [4]float64{F[3], -F[2], -F[1], F[0]}
			coef = (nh.Lambda*logJ - nh.Mu) / J
			P    [4]float64
		)
		for k := 0; k < 4; k++ {
			P[k] = nh.Mu*F[k] + coef*gj[k]
		}
		var (
			Jx   = nh.dFdx(e)
			dofs = [6]int{2 * tri[0], 2*tri[0] + 1, 2 * tri[1], 2*tri[1] + 1, 2 * tri[2], 2*tri[2] + 1}
		)
		for c := 0; c < 6; c++ {
			var sum float64
			for r := 0; r < 4; r++ {
				sum += Jx[r][c] * P[r]
			}
			g[dofs[c]] += nh.Vol[e] * sum
		}
	}
	return
}

func (nh *NeoHookean) AddHessian(x []float64, tb *utils.Triplets) (err error) {
	for e, tri := range nh.Tris {
		F := nh.deformationGradient(x, e)
		J := F[0]*F[3] - F[2]*F[1]
		if J <= 0 {
			err = &DomainViolation{Term: "neo-hookean", Detail: "non-positive element area"}
			return
		}
		var (
			logJ = math.Log(J)
			gj   = [4]float64{F[3], -F[2], -F[1], F[0]}
			c1   = (nh.Lambda*(1-logJ) + nh.Mu) / (J * J)
			c2   = (nh.Lambda*logJ - nh.Mu) / J
			dPdF = mat.NewSymDense(4, nil)
		)
		// dP/dF = mu I4 + c1 gj gj' + c2 d2J/dF2, where the area Hessian
		// couples (F00,F11) with +1 and (F10,F01) with -1
		for i := 0; i < 4; i++ {
			for j := i; j < 4; j++ {
				v := c1 * gj[i] * gj[j]
				if i == j {
					v += nh.Mu
				}
				dPdF.SetSym(i, j, v)
			}
		}
		dPdF.SetSym(0, 3, dPdF.At(0, 3)+c2)
		dPdF.SetSym(1, 2, dPdF.At(1, 2)-c2)
		ProjectPSD(dPdF)

		var (
			Jx = nh.dFdx(e)
			He = mat.NewSymDense(6, nil)
		)
		// He = vol * Jx' dPdF Jx; PSD of dPdF carries through the congruence
		for a := 0; a < 6; a++ {
			for b := a; b < 6; b++ {
				var sum float64
				for r := 0; r < 4; r++ {
					for s := 0; s < 4; s++ {
						sum += Jx[r][a] * dPdF.At(r, s) * Jx[s][b]
					}
				}
				He.SetSym(a, b, nh.Vol[e]*sum)
			}
		}
		I := utils.Index{2 * tri[0], 2*tri[0] + 1, 2 * tri[1], 2*tri[1] + 1, 2 * tri[2], 2*tri[2] + 1}
		tb.AddSym(I, He)
	}
	return
}

// MaxStep keeps every element's signed area positive along p: the area at
// x + t*p is quadratic in t, and the bound is 0.9 of the smallest positive
// root across elements.
func (nh *NeoHookean) MaxStep(x, p []float64) (alpha float64) {
	alpha = 1
	for _, tri := range nh.Tris {
		var (
			x0, y0 = node(x, tri[0])
			x1, y1 = node(x, tri[1])
			x2, y2 = node(x, tri[2])
			p0x    = p[2*tri[0]]
			p0y    = p[2*tri[0]+1]
			u1x    = x1 - x0
			u1y    = y1 - y0
			u2x    = x2 - x0
			u2y    = y2 - y0
			q1x    = p[2*tri[1]] - p0x
			q1y    = p[2*tri[1]+1] - p0y
			q2x    = p[2*tri[2]] - p0x
			q2y    = p[2*tri[2]+1] - p0y
			// area(t) ~ a t^2 + b t + c (twice the signed area)
			a = q1x*q2y - q1y*q2x
			b = u1x*q2y - u1y*q2x + q1x*u2y - q1y*u2x
			c = u1x*u2y - u1y*u2x
		)
		if root, ok := smallestPositiveRoot(a, b, c); ok {
			if t := 0.9 * root; t < alpha {
				alpha = t
			}
		}
	}
	return
}

// smallestPositiveRoot solves a t^2 + b t + c = 0 for the smallest t > 0,
// assuming c > 0 (the current configuration is feasible).
func smallestPositiveRoot(a, b, c float64) (t float64, ok bool) {
	if a == 0 {
		if b >= 0 {
			return
		}
		return -c / b, true
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		return
	}
	var (
		sq = math.Sqrt(disc)
		r1 = (-b - sq) / (2 * a)
		r2 = (-b + sq) / (2 * a)
	)
	if r1 > r2 {
		r1, r2 = r2, r1
	}
	switch {
	case r1 > 0:
		return r1, true
	case r2 > 0:
		return r2, true
	}
	return
}
