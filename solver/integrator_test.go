package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notargets/gosolid/energy"
	"github.com/notargets/gosolid/solid2D"
	"github.com/notargets/gosolid/utils"
)

// oneNodeMesh builds a minimal hand-assembled body for integrator tests.
func oneNodeMesh(x, y float64) *solid2D.Mesh {
	return &solid2D.Mesh{
		X:           []float64{x, y},
		V:           []float64{0, 0},
		Mass:        utils.ConstArray(1, 1),
		Fixed:       []bool{false},
		ScriptedVel: [][2]float64{{0, 0}},
		ContactArea: utils.ConstArray(1, 1),
	}
}

func TestIntegratorFreeFall(t *testing.T) {
	var (
		h  = 0.01
		m  = oneNodeMesh(0, 1)
		it = NewIntegrator(m, h, [2]float64{0, -10})
	)
	rep, err := it.Step()
	assert.NoError(t, err)
	assert.Equal(t, 1, rep.Step)
	// exact implicit Euler update for a free particle
	assert.InDelta(t, -10*h, m.V[1], 1e-10)
	assert.InDelta(t, 1-10*h*h, m.X[1], 1e-10)
	assert.InDelta(t, 0.0, m.X[0], 1e-12)
	// second step accumulates velocity; kinetic energy follows
	rep, err = it.Step()
	assert.NoError(t, err)
	assert.InDelta(t, -20*h, m.V[1], 1e-10)
	assert.InDelta(t, 0.5*(20*h)*(20*h), rep.Kinetic, 1e-10)
}

// A node slammed into the ground barrier at high speed must come to rest
// strictly above the plane: the CCD filter and barrier forbid tunneling.
func TestIntegratorNoTunneling(t *testing.T) {
	var (
		h = 0.01
		m = oneNodeMesh(0, 0.05)
	)
	m.V[1] = -100 // would cross the plane by 0.95 in one unfiltered step
	it := NewIntegrator(m, h, [2]float64{0, -10})
	it.Barriers = []*energy.HalfPlaneBarrier{
		energy.NewHalfPlaneBarrier([2]float64{0, 1}, 0, 0.01, 1e5, m.ContactArea),
	}
	for s := 0; s < 20; s++ {
		rep, err := it.Step()
		assert.NoError(t, err)
		assert.Greater(t, rep.MinGap, 0.0)
		assert.Greater(t, m.X[1], 0.0)
	}
}

func TestIntegratorScriptedDirichlet(t *testing.T) {
	var (
		h = 0.01
		m = &solid2D.Mesh{
			X:           []float64{0, 0, 1, 0},
			V:           make([]float64, 4),
			Mass:        utils.ConstArray(2, 1),
			Fixed:       []bool{false, false},
			ScriptedVel: make([][2]float64, 2),
			ContactArea: utils.ConstArray(2, 1),
			Edges:       [][2]int{{0, 1}},
		}
		spring = energy.NewMassSpring(m.Edges, m.X, 1e3)
	)
	m.FixNode(0, [2]float64{0, -0.5})
	it := NewIntegrator(m, h, [2]float64{0, 0})
	it.Elastic = []energy.Term{spring}
	_, err := it.Step()
	assert.NoError(t, err)
	// the scripted node follows its trajectory exactly
	assert.InDelta(t, -0.5*h, m.X[1], 1e-14)
	assert.InDelta(t, -0.5, m.V[1], 1e-12)
	assert.InDelta(t, 0.0, m.X[0], 1e-14)
}

// Friction against the ground slows a sliding node relative to the
// frictionless run of the same scenario.
func TestIntegratorFrictionSlows(t *testing.T) {
	run := func(mu float64) float64 {
		m := oneNodeMesh(0, 0.003)
		m.V[0] = 1.0
		it := NewIntegrator(m, 0.01, [2]float64{0, -10})
		it.Barriers = []*energy.HalfPlaneBarrier{
			energy.NewHalfPlaneBarrier([2]float64{0, 1}, 0, 0.01, 1e5, m.ContactArea),
		}
		it.Mu = mu
		for s := 0; s < 10; s++ {
			_, err := it.Step()
			assert.NoError(t, err)
		}
		return m.V[0]
	}
	var (
		vFree  = run(0)
		vRough = run(0.5)
	)
	assert.Less(t, math.Abs(vRough), math.Abs(vFree))
	// friction never reverses the slide direction
	assert.GreaterOrEqual(t, vRough, 0.0)
}

// A failed Newton solve surfaces as a StepError wrapping the
// non-convergence, and the mesh state is left uncommitted.
func TestIntegratorStepError(t *testing.T) {
	var (
		m = &solid2D.Mesh{
			X:           []float64{0, 0, 2.5, 0},
			V:           make([]float64, 4),
			Mass:        utils.ConstArray(2, 1),
			Fixed:       []bool{true, false},
			ScriptedVel: make([][2]float64, 2),
			ContactArea: utils.ConstArray(2, 1),
			Edges:       [][2]int{{0, 1}},
		}
		spring = energy.NewMassSpring(m.Edges, []float64{0, 0, 1, 0}, 1e6)
		it     = NewIntegrator(m, 0.01, [2]float64{0, 0})
	)
	it.Elastic = []energy.Term{spring}
	it.Opts.Tol = 1e-14
	it.Opts.MaxIters = 1
	x0 := append([]float64(nil), m.X...)
	_, err := it.Step()
	var (
		se *StepError
		nc *NewtonNonConvergence
	)
	assert.ErrorAs(t, err, &se)
	assert.Equal(t, 1, se.Step)
	assert.ErrorAs(t, err, &nc)
	assert.Equal(t, x0, m.X)
}

// The reported minimum gap covers point-edge contact, not only the
// environment half-planes.
func TestIntegratorPointEdgeMinGap(t *testing.T) {
	var (
		m = &solid2D.Mesh{
			X:           []float64{-1, 0, 1, 0, 0, 0.005},
			V:           make([]float64, 6),
			Mass:        utils.ConstArray(3, 1),
			Fixed:       []bool{true, true, false},
			ScriptedVel: make([][2]float64, 3),
			ContactArea: utils.ConstArray(3, 0.5),
		}
	)
	it := NewIntegrator(m, 0.01, [2]float64{0, -10})
	it.Contact = energy.NewPointEdgeBarrier(utils.Index{2}, [][2]int{{0, 1}},
		0.01, 1e5, []float64{0.5})
	rep, err := it.Step()
	assert.NoError(t, err)
	assert.Greater(t, rep.MinGap, 0.0)
	// node 2 projects onto the edge interior, so the gap is its height
	assert.InDelta(t, m.X[5], rep.MinGap, 1e-12)
}

// A mesh at elastic equilibrium with zero velocity, no gravity and no
// contact is left unchanged by a step.
func TestIntegratorNoOpStep(t *testing.T) {
	var (
		m = &solid2D.Mesh{
			X:           []float64{0, 0, 1, 0, 0.5, 1},
			V:           make([]float64, 6),
			Mass:        utils.ConstArray(3, 1),
			Fixed:       []bool{true, false, false},
			ScriptedVel: make([][2]float64, 3),
			ContactArea: utils.ConstArray(3, 1),
			Tris:        [][3]int{{0, 1, 2}},
		}
		nh, err = energy.NewNeoHookean(m.Tris, m.X, 1e5, 0.4)
	)
	assert.NoError(t, err)
	it := NewIntegrator(m, 0.01, [2]float64{0, 0})
	it.Elastic = []energy.Term{nh}
	x0 := append([]float64(nil), m.X...)
	_, err = it.Step()
	assert.NoError(t, err)
	for i := range x0 {
		assert.InDelta(t, x0[i], m.X[i], 1e-10)
		assert.InDelta(t, 0.0, m.V[i], 1e-8)
	}
}

// Resting exactly at the barrier equilibrium, repeated steps stay put.
func TestIntegratorRestingContact(t *testing.T) {
	m := oneNodeMesh(0, 0.005)
	it := NewIntegrator(m, 0.01, [2]float64{0, -10})
	it.Barriers = []*energy.HalfPlaneBarrier{
		energy.NewHalfPlaneBarrier([2]float64{0, 1}, 0, 0.01, 1e5, m.ContactArea),
	}
	// settle first
	for s := 0; s < 50; s++ {
		_, err := it.Step()
		assert.NoError(t, err)
	}
	y := m.X[1]
	_, err := it.Step()
	assert.NoError(t, err)
	assert.InDelta(t, y, m.X[1], 1e-6)
	assert.InDelta(t, 0.0, m.V[1], 1e-4)
}
