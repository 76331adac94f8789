package energy

import (
	"github.com/notargets/gosolid/utils"
)

// Gravity is the external potential -sum_i m_i g.x_i, linear in position
// with zero Hessian.
type Gravity struct {
	Mass []float64
	G    [2]float64 // acceleration, typically (0, -9.81)
}

func NewGravity(mass []float64, g [2]float64) *Gravity {
	return &Gravity{Mass: mass, G: g}
}

func (gr *Gravity) Value(x []float64) (E float64, err error) {
	for i, m := range gr.Mass {
		E -= m * (gr.G[0]*x[2*i] + gr.G[1]*x[2*i+1])
	}
	return
}

func (gr *Gravity) AddGradient(x, g []float64) (err error) {
	for i, m := range gr.Mass {
		g[2*i] -= m * gr.G[0]
		g[2*i+1] -= m * gr.G[1]
	}
	return
}

func (gr *Gravity) AddHessian(x []float64, tb *utils.Triplets) (err error) {
	return
}
