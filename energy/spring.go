package energy

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gosolid/utils"
)

// MassSpring is the elastic energy of a network of springs,
// 0.5*k*l0^2*(|x_a - x_b|^2/l0^2 - 1)^2 per edge. The squared-strain form
// is smooth everywhere, including through zero length, so it carries no
// domain restriction; compressed springs make it non-convex, handled by
// the per-edge PSD projection.
type MassSpring struct {
	Edges [][2]int
	Rest  []float64 // rest length per edge
	K     float64
}

// NewMassSpring measures rest lengths from the given configuration.
func NewMassSpring(edges [][2]int, xRest []float64, k float64) (ms *MassSpring) {
	ms = &MassSpring{
		Edges: edges,
		Rest:  make([]float64, len(edges)),
		K:     k,
	}
	for e, ed := range edges {
		dx := xRest[2*ed[0]] - xRest[2*ed[1]]
		dy := xRest[2*ed[0]+1] - xRest[2*ed[1]+1]
		ms.Rest[e] = math.Sqrt(dx*dx + dy*dy)
	}
	return
}

func (ms *MassSpring) Value(x []float64) (E float64, err error) {
	for e, ed := range ms.Edges {
		var (
			l02    = ms.Rest[e] * ms.Rest[e]
			dx     = x[2*ed[0]] - x[2*ed[1]]
			dy     = x[2*ed[0]+1] - x[2*ed[1]+1]
			strain = (dx*dx+dy*dy)/l02 - 1
		)
		E += 0.5 * ms.K * l02 * strain * strain
	}
	return
}

func (ms *MassSpring) AddGradient(x, g []float64) (err error) {
	for e, ed := range ms.Edges {
		var (
			l02    = ms.Rest[e] * ms.Rest[e]
			dx     = x[2*ed[0]] - x[2*ed[1]]
			dy     = x[2*ed[0]+1] - x[2*ed[1]+1]
			strain = (dx*dx+dy*dy)/l02 - 1
			coef   = 2 * ms.K * strain
		)
		g[2*ed[0]] += coef * dx
		g[2*ed[0]+1] += coef * dy
		g[2*ed[1]] -= coef * dx
		g[2*ed[1]+1] -= coef * dy
	}
	return
}

func (ms *MassSpring) AddHessian(x []float64, tb *utils.Triplets) (err error) {
	for e, ed := range ms.Edges {
		var (
			l02    = ms.Rest[e] * ms.Rest[e]
			dx     = x[2*ed[0]] - x[2*ed[1]]
			dy     = x[2*ed[0]+1] - x[2*ed[1]+1]
			strain = (dx*dx+dy*dy)/l02 - 1
			d      = [2]float64{dx, dy}
			B      = mat.NewSymDense(4, nil)
		)
		// 2x2 single-node block 2k[(r-1)I + (2/l0^2) dd'], mirrored with
		// opposite sign across the two nodes
		for i := 0; i < 2; i++ {
			for j := i; j < 2; j++ {
				v := 4 * ms.K / l02 * d[i] * d[j]
				if i == j {
					v += 2 * ms.K * strain
				}
				B.SetSym(i, j, v)
				B.SetSym(i+2, j+2, v)
				B.SetSym(i, j+2, -v)
				if i != j {
					B.SetSym(j, i+2, -v)
				}
			}
		}
		ProjectPSD(B)
		I := utils.Index{2 * ed[0], 2*ed[0] + 1, 2 * ed[1], 2*ed[1] + 1}
		tb.AddSym(I, B)
	}
	return
}
