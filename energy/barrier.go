package energy

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gosolid/geometry2D"
	"github.com/notargets/gosolid/utils"
)

// barrier is the log-barrier b(d) = -(d - dhat)^2 ln(d/dhat) on (0, dhat),
// identically zero beyond dhat. It diverges as d -> 0+ and meets zero with
// two continuous derivatives at the activation distance.
func barrier(d, dhat float64) (b float64) {
	if d >= dhat {
		return
	}
	t := d - dhat
	b = -t * t * math.Log(d/dhat)
	return
}

func barrierGrad(d, dhat float64) (db float64) {
	if d >= dhat {
		return
	}
	t := d - dhat
	db = -2*t*math.Log(d/dhat) - t*t/d
	return
}

func barrierHess(d, dhat float64) (d2b float64) {
	if d >= dhat {
		return
	}
	t := d - dhat
	d2b = -2*math.Log(d/dhat) - 4*t/d + t*t/(d*d)
	return
}

// HalfPlaneBarrier keeps every node strictly above a fixed half-plane
// (ground, slope or ceiling), with per-node contact-area weighting. The gap
// is linear in position, so the Hessian per node is b''(d) n n'.
type HalfPlaneBarrier struct {
	N     geometry2D.Point // unit outward normal
	O     float64          // plane offset; gap = n.x - o
	Dhat  float64
	Kappa float64
	Area  []float64 // per-node contact area weight
}

func NewHalfPlaneBarrier(n [2]float64, o, dhat, kappa float64, area []float64) (hb *HalfPlaneBarrier) {
	var (
		nrm = math.Hypot(n[0], n[1])
	)
	hb = &HalfPlaneBarrier{
		N:     geometry2D.Point{X: [2]float64{n[0] / nrm, n[1] / nrm}},
		O:     o,
		Dhat:  dhat,
		Kappa: kappa,
		Area:  area,
	}
	return
}

func (hb *HalfPlaneBarrier) gap(x []float64, i int) float64 {
	px, py := node(x, i)
	return geometry2D.HalfPlaneGap(geometry2D.Point{X: [2]float64{px, py}}, hb.N, hb.O)
}

func (hb *HalfPlaneBarrier) Value(x []float64) (E float64, err error) {
	for i := range hb.Area {
		d := hb.gap(x, i)
		if d <= 0 {
			err = &DomainViolation{Term: "half-plane barrier", Detail: "non-positive gap"}
			return
		}
		E += hb.Area[i] * hb.Kappa * barrier(d, hb.Dhat)
	}
	return
}

func (hb *HalfPlaneBarrier) AddGradient(x, g []float64) (err error) {
	for i := range hb.Area {
		d := hb.gap(x, i)
		if d <= 0 {
			err = &DomainViolation{Term: "half-plane barrier", Detail: "non-positive gap"}
			return
		}
		coef := hb.Area[i] * hb.Kappa * barrierGrad(d, hb.Dhat)
		g[2*i] += coef * hb.N.X[0]
		g[2*i+1] += coef * hb.N.X[1]
	}
	return
}

func (hb *HalfPlaneBarrier) AddHessian(x []float64, tb *utils.Triplets) (err error) {
	for i := range hb.Area {
		d := hb.gap(x, i)
		if d <= 0 {
			err = &DomainViolation{Term: "half-plane barrier", Detail: "non-positive gap"}
			return
		}
		// rank-one in the normal; clamping b'' is the PSD projection here
		coef := hb.Area[i] * hb.Kappa * math.Max(barrierHess(d, hb.Dhat), 0)
		if coef == 0 {
			continue
		}
		tb.Append(2*i, 2*i, coef*hb.N.X[0]*hb.N.X[0])
		tb.Append(2*i, 2*i+1, coef*hb.N.X[0]*hb.N.X[1])
		tb.Append(2*i+1, 2*i, coef*hb.N.X[1]*hb.N.X[0])
		tb.Append(2*i+1, 2*i+1, coef*hb.N.X[1]*hb.N.X[1])
	}
	return
}

// MaxStep is the closed-form half-plane bound, minimized over nodes.
func (hb *HalfPlaneBarrier) MaxStep(x, p []float64) (alpha float64) {
	alpha = 1
	for i := range hb.Area {
		var (
			px, py = node(x, i)
			xi     = geometry2D.Point{X: [2]float64{px, py}}
			di     = geometry2D.Point{X: [2]float64{p[2*i], p[2*i+1]}}
		)
		if a := geometry2D.HalfPlaneMaxStep(xi, di, hb.N, hb.O); a < alpha {
			alpha = a
		}
	}
	return
}

// ContactForces returns the per-node normal force magnitude exerted by the
// barrier at x, used by the semi-implicit friction term.
func (hb *HalfPlaneBarrier) ContactForces(x []float64) (lambda []float64) {
	lambda = make([]float64, len(hb.Area))
	for i := range hb.Area {
		d := hb.gap(x, i)
		if d <= 0 || d >= hb.Dhat {
			continue
		}
		lambda[i] = -hb.Area[i] * hb.Kappa * barrierGrad(d, hb.Dhat)
	}
	return
}

// PointEdgeBarrier enforces non-interpenetration between boundary points
// and non-incident boundary edges (self-contact and contact between
// bodies). It operates on squared distances with threshold dhat^2, which
// keeps the energy smooth through nearest-feature transitions. The active
// pair set is rediscovered at every evaluation and never persisted.
type PointEdgeBarrier struct {
	Points utils.Index // candidate point nodes (boundary nodes)
	Edges  [][2]int    // boundary edges
	Dhat   float64
	Kappa  float64
	Area   []float64 // contact area weight per candidate point
}

func NewPointEdgeBarrier(points utils.Index, edges [][2]int, dhat, kappa float64, area []float64) *PointEdgeBarrier {
	return &PointEdgeBarrier{Points: points, Edges: edges, Dhat: dhat, Kappa: kappa, Area: area}
}

// pairs walks the active set: every (point, edge) combination within the
// activation distance, excluding incident pairs, pre-culled by a bounding
// interval test.
func (pe *PointEdgeBarrier) pairs(x []float64, visit func(k, e int, p, e0, e1 geometry2D.Point, s float64) error) (err error) {
	sHat := pe.Dhat * pe.Dhat
	for k, pi := range pe.Points {
		px, py := node(x, pi)
		p := geometry2D.Point{X: [2]float64{px, py}}
		for e, ed := range pe.Edges {
			if ed[0] == pi || ed[1] == pi {
				continue
			}
			var (
				ax, ay = node(x, ed[0])
				bx, by = node(x, ed[1])
			)
			// bounding cull before the exact distance
			if math.Min(ax, bx)-pe.Dhat > px || math.Max(ax, bx)+pe.Dhat < px ||
				math.Min(ay, by)-pe.Dhat > py || math.Max(ay, by)+pe.Dhat < py {
				continue
			}
			var (
				e0 = geometry2D.Point{X: [2]float64{ax, ay}}
				e1 = geometry2D.Point{X: [2]float64{bx, by}}
				s  = geometry2D.PointEdgeDistSq(p, e0, e1)
			)
			if s >= sHat {
				continue
			}
			if err = visit(k, e, p, e0, e1, s); err != nil {
				return
			}
		}
	}
	return
}

func (pe *PointEdgeBarrier) Value(x []float64) (E float64, err error) {
	sHat := pe.Dhat * pe.Dhat
	err = pe.pairs(x, func(k, e int, p, e0, e1 geometry2D.Point, s float64) error {
		if s <= 0 {
			return &DomainViolation{Term: "point-edge barrier", Detail: "zero distance"}
		}
		E += pe.Area[k] * pe.Kappa * barrier(s, sHat)
		return nil
	})
	return
}

func (pe *PointEdgeBarrier) AddGradient(x, g []float64) (err error) {
	sHat := pe.Dhat * pe.Dhat
	err = pe.pairs(x, func(k, e int, p, e0, e1 geometry2D.Point, s float64) error {
		if s <= 0 {
			return &DomainViolation{Term: "point-edge barrier", Detail: "zero distance"}
		}
		var (
			ed   = pe.Edges[e]
			gs   = geometry2D.PointEdgeDistSqGrad(p, e0, e1)
			coef = pe.Area[k] * pe.Kappa * barrierGrad(s, sHat)
			dofs = pe.dofs(k, ed)
		)
		for i, dof := range dofs {
			g[dof] += coef * gs[i]
		}
		return nil
	})
	return
}

func (pe *PointEdgeBarrier) AddHessian(x []float64, tb *utils.Triplets) (err error) {
	sHat := pe.Dhat * pe.Dhat
	err = pe.pairs(x, func(k, e int, p, e0, e1 geometry2D.Point, s float64) error {
		if s <= 0 {
			return &DomainViolation{Term: "point-edge barrier", Detail: "zero distance"}
		}
		var (
			ed = pe.Edges[e]
			gs = geometry2D.PointEdgeDistSqGrad(p, e0, e1)
			Hs = geometry2D.PointEdgeDistSqHess(p, e0, e1)
			db = barrierGrad(s, sHat)
			hb = barrierHess(s, sHat)
			w  = pe.Area[k] * pe.Kappa
			B  = mat.NewSymDense(6, nil)
		)
		// chain rule: w*(b'' gs gs' + b' Hs), clamped per pair
		for i := 0; i < 6; i++ {
			for j := i; j < 6; j++ {
				B.SetSym(i, j, w*(hb*gs[i]*gs[j]+db*Hs.At(i, j)))
			}
		}
		ProjectPSD(B)
		tb.AddSym(pe.dofs(k, ed), B)
		return nil
	})
	return
}

func (pe *PointEdgeBarrier) dofs(k int, ed [2]int) utils.Index {
	pi := pe.Points[k]
	return utils.Index{2 * pi, 2*pi + 1, 2 * ed[0], 2*ed[0] + 1, 2 * ed[1], 2*ed[1] + 1}
}

// MinDistance returns the smallest active point-edge distance at x, +Inf
// when no pair is inside the activation distance. Used for step reporting.
func (pe *PointEdgeBarrier) MinDistance(x []float64) (d float64) {
	d = math.Inf(1)
	pe.pairs(x, func(k, e int, p, e0, e1 geometry2D.Point, s float64) error {
		if ds := math.Sqrt(s); ds < d {
			d = ds
		}
		return nil
	})
	return
}

// MaxStep runs additive CCD over every non-incident candidate pair and
// returns the most conservative bound.
func (pe *PointEdgeBarrier) MaxStep(x, p []float64) (alpha float64) {
	alpha = 1
	for _, pi := range pe.Points {
		var (
			px, py = node(x, pi)
			pt     = geometry2D.Point{X: [2]float64{px, py}}
			dp     = geometry2D.Point{X: [2]float64{p[2*pi], p[2*pi+1]}}
		)
		for _, ed := range pe.Edges {
			if ed[0] == pi || ed[1] == pi {
				continue
			}
			var (
				ax, ay = node(x, ed[0])
				bx, by = node(x, ed[1])
				e0     = geometry2D.Point{X: [2]float64{ax, ay}}
				e1     = geometry2D.Point{X: [2]float64{bx, by}}
				de0    = geometry2D.Point{X: [2]float64{p[2*ed[0]], p[2*ed[0]+1]}}
				de1    = geometry2D.Point{X: [2]float64{p[2*ed[1]], p[2*ed[1]+1]}}
			)
			if a := geometry2D.PointEdgeMaxStep(pt, e0, e1, dp, de0, de1); a < alpha {
				alpha = a
			}
		}
	}
	return
}
