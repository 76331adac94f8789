package geometry2D

import (
	"gonum.org/v1/gonum/mat"
)

// Point is a 2D position.
type Point struct {
	X [2]float64
}

func (p Point) Minus(q Point) Point {
	return Point{X: [2]float64{p.X[0] - q.X[0], p.X[1] - q.X[1]}}
}

func (p Point) Plus(q Point) Point {
	return Point{X: [2]float64{p.X[0] + q.X[0], p.X[1] + q.X[1]}}
}

func (p Point) Scale(s float64) Point {
	return Point{X: [2]float64{s * p.X[0], s * p.X[1]}}
}

func (p Point) Dot(q Point) float64 {
	return p.X[0]*q.X[0] + p.X[1]*q.X[1]
}

// Cross returns the scalar z-component of the 2D cross product.
func (p Point) Cross(q Point) float64 {
	return p.X[0]*q.X[1] - p.X[1]*q.X[0]
}

func (p Point) NormSq() float64 { return p.Dot(p) }

// PointPointDistSq returns the squared distance between p and q with its
// gradient with respect to the stacked coordinates (p, q).
func PointPointDistSq(p, q Point) (d2 float64) {
	d2 = p.Minus(q).NormSq()
	return
}

func PointPointDistSqGrad(p, q Point) (g [4]float64) {
	d := p.Minus(q)
	g[0], g[1] = 2*d.X[0], 2*d.X[1]
	g[2], g[3] = -2*d.X[0], -2*d.X[1]
	return
}

// PointPointDistSqHess is constant: 2*[[I, -I], [-I, I]].
func PointPointDistSqHess() (H *mat.SymDense) {
	H = mat.NewSymDense(4, nil)
	for i := 0; i < 2; i++ {
		H.SetSym(i, i, 2)
		H.SetSym(i+2, i+2, 2)
		H.SetSym(i, i+2, -2)
	}
	return
}

// edgeParam returns the unclamped projection parameter of p onto segment
// (e0, e1): t = (p-e0).(e1-e0)/|e1-e0|^2.
func edgeParam(p, e0, e1 Point) (t float64) {
	e := e1.Minus(e0)
	L2 := e.NormSq()
	if L2 == 0 {
		return 0
	}
	t = p.Minus(e0).Dot(e) / L2
	return
}

// PointEdgeDistSq returns the squared distance from p to the segment
// (e0, e1). The nearest feature splits into the two endpoints and the
// interior of the supporting line.
func PointEdgeDistSq(p, e0, e1 Point) (d2 float64) {
	switch t := edgeParam(p, e0, e1); {
	case t <= 0:
		d2 = PointPointDistSq(p, e0)
	case t >= 1:
		d2 = PointPointDistSq(p, e1)
	default:
		e := e1.Minus(e0)
		c := e.Cross(p.Minus(e0))
		d2 = c * c / e.NormSq()
	}
	return
}

// PointEdgeDistSqGrad returns the gradient of the squared point-edge
// distance with respect to the stacked coordinates (p, e0, e1).
func PointEdgeDistSqGrad(p, e0, e1 Point) (g [6]float64) {
	switch t := edgeParam(p, e0, e1); {
	case t <= 0:
		gp := PointPointDistSqGrad(p, e0)
		g[0], g[1], g[2], g[3] = gp[0], gp[1], gp[2], gp[3]
	case t >= 1:
		gp := PointPointDistSqGrad(p, e1)
		g[0], g[1], g[4], g[5] = gp[0], gp[1], gp[2], gp[3]
	default:
		var (
			e     = e1.Minus(e0)
			r     = p.Minus(e0)
			c     = e.Cross(r)
			L2    = e.NormSq()
			gc    = crossGrad(e, r)
			coefC = 2 * c / L2
			coefL = c * c / (L2 * L2)
		)
		// d2 = c^2/L2; grad = (2c/L2) grad(c) - (c^2/L2^2) grad(L2)
		for i := 0; i < 6; i++ {
			g[i] = coefC * gc[i]
		}
		g[2] += coefL * 2 * e.X[0]
		g[3] += coefL * 2 * e.X[1]
		g[4] -= coefL * 2 * e.X[0]
		g[5] -= coefL * 2 * e.X[1]
	}
	return
}

// crossGrad is the gradient of c = cross(e1-e0, p-e0) in the stacked
// (p, e0, e1) coordinates.
func crossGrad(e, r Point) (g [6]float64) {
	g[0] = -e.X[1]
	g[1] = e.X[0]
	g[2] = e.X[1] - r.X[1]
	g[3] = r.X[0] - e.X[0]
	g[4] = r.X[1]
	g[5] = -r.X[0]
	return
}

// crossHess is the (constant) second derivative of c = cross(e1-e0, p-e0).
func crossHess() (H *mat.SymDense) {
	H = mat.NewSymDense(6, nil)
	// DOF order (px, py, e0x, e0y, e1x, e1y)
	H.SetSym(0, 3, 1)
	H.SetSym(0, 5, -1)
	H.SetSym(1, 2, -1)
	H.SetSym(1, 4, 1)
	H.SetSym(2, 5, 1)
	H.SetSym(3, 4, -1)
	return
}

// PointEdgeDistSqHess returns the 6x6 Hessian of the squared point-edge
// distance in the stacked (p, e0, e1) coordinates. It is exact per nearest
// feature; the (measure-zero) feature transitions are left to the caller's
// PSD projection.
func PointEdgeDistSqHess(p, e0, e1 Point) (H *mat.SymDense) {
	H = mat.NewSymDense(6, nil)
	switch t := edgeParam(p, e0, e1); {
	case t <= 0:
		Hpp := PointPointDistSqHess()
		scatter4(H, Hpp, [4]int{0, 1, 2, 3})
	case t >= 1:
		Hpp := PointPointDistSqHess()
		scatter4(H, Hpp, [4]int{0, 1, 4, 5})
	default:
		var (
			e   = e1.Minus(e0)
			r   = p.Minus(e0)
			c   = e.Cross(r)
			L2  = e.NormSq()
			gc  = crossGrad(e, r)
			Hc  = crossHess()
			gL  [6]float64
			cL2 = c / L2
		)
		gL[2], gL[3] = -2*e.X[0], -2*e.X[1]
		gL[4], gL[5] = 2*e.X[0], 2*e.X[1]
		// H = (2/L2) gc gc' + (2c/L2) Hc - (2c/L2^2)(gc gL' + gL gc')
		//     - (c^2/L2^2) HL + (2c^2/L2^3) gL gL'
		for i := 0; i < 6; i++ {
			for j := i; j < 6; j++ {
				v := 2/L2*gc[i]*gc[j] +
					2*cL2*Hc.At(i, j) -
					2*cL2/L2*(gc[i]*gL[j]+gL[i]*gc[j]) +
					2*cL2*cL2/L2*gL[i]*gL[j]
				H.SetSym(i, j, v)
			}
		}
		// HL: constant Hessian of L2 = |e1-e0|^2
		for k := 0; k < 2; k++ {
			H.SetSym(2+k, 2+k, H.At(2+k, 2+k)-cL2*cL2*2)
			H.SetSym(4+k, 4+k, H.At(4+k, 4+k)-cL2*cL2*2)
			H.SetSym(2+k, 4+k, H.At(2+k, 4+k)+cL2*cL2*2)
		}
	}
	return
}

func scatter4(H *mat.SymDense, B *mat.SymDense, I [4]int) {
	for i := 0; i < 4; i++ {
		for j := i; j < 4; j++ {
			if I[i] <= I[j] {
				H.SetSym(I[i], I[j], B.At(i, j))
			} else {
				H.SetSym(I[j], I[i], B.At(i, j))
			}
		}
	}
}

// HalfPlaneGap returns the signed gap of x above the half-plane with unit
// outward normal n and offset o: gap = n.x - o. The gradient is n and the
// Hessian vanishes.
func HalfPlaneGap(x Point, n Point, o float64) (d float64) {
	d = n.Dot(x) - o
	return
}
