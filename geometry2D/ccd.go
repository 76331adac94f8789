package geometry2D

import (
	"math"
)

const (
	// fraction of the initial separation preserved by the CCD bound
	accdGap = 0.1
	// conservative advancement iteration cap; walking past t=1 before the
	// cap is reached means no contact within the step
	accdMaxIters = 256
)

// PointEdgeMaxStep bounds the step multiplier t in [0,1] such that the
// point p moved by t*dp stays strictly separated from the edge (e0, e1)
// moved by t*de0, t*de1. Additive (conservative advancement) CCD: relative
// motion per unit t is bounded by the sum of the largest point and edge
// displacement magnitudes, so advancing by (distance - gap)/bound never
// overshoots contact. Failure to find a root within the iteration budget
// means no collision inside the step and the full step is allowed.
func PointEdgeMaxStep(p, e0, e1, dp, de0, de1 Point) (t float64) {
	// remove the mean motion; separation only depends on relative movement
	mean := dp.Plus(de0).Plus(de1).Scale(1. / 3.)
	dp = dp.Minus(mean)
	de0 = de0.Minus(mean)
	de1 = de1.Minus(mean)
	bound := math.Sqrt(dp.NormSq()) +
		math.Sqrt(math.Max(de0.NormSq(), de1.NormSq()))
	if bound == 0 {
		return 1
	}
	d0 := math.Sqrt(PointEdgeDistSq(p, e0, e1))
	if d0 == 0 {
		return 0
	}
	gap := accdGap * d0
	for iter := 0; iter < accdMaxIters; iter++ {
		d := math.Sqrt(PointEdgeDistSq(p, e0, e1))
		step := (d - gap) / bound
		if t+step >= 1 {
			return 1
		}
		t += step
		p = p.Plus(dp.Scale(step))
		e0 = e0.Plus(de0.Scale(step))
		e1 = e1.Plus(de1.Scale(step))
		if d-gap < 1e-3*d0 {
			break
		}
	}
	return
}

// HalfPlaneMaxStep bounds the step multiplier so that x + t*dx keeps a
// strictly positive gap above the half-plane (n, o). The gap is linear in
// t, so the bound is closed form; 0.9 keeps the limited step strictly
// inside the barrier domain.
func HalfPlaneMaxStep(x, dx Point, n Point, o float64) (t float64) {
	t = 1
	approach := -n.Dot(dx)
	if approach <= 0 {
		return
	}
	d := HalfPlaneGap(x, n, o)
	if a := 0.9 * d / approach; a < t {
		t = a
	}
	return
}
