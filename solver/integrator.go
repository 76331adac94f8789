package solver

import (
	"math"

	"github.com/notargets/gosolid/energy"
	"github.com/notargets/gosolid/solid2D"
)

// Integrator advances the mesh by implicit Euler: predict, minimize the
// incremental potential from the committed state, then recover velocity
// from the accepted position. A step that fails to converge is reported
// with its index and nothing is committed.
type Integrator struct {
	Mesh    *solid2D.Mesh
	H       float64
	Gravity [2]float64

	Elastic  []energy.Term // elasticity terms (springs and/or triangles)
	Barriers []*energy.HalfPlaneBarrier
	Contact  *energy.PointEdgeBarrier // nil when self-contact is off
	Mu       float64                  // friction coefficient against the half-planes
	EpsV     float64                  // friction smoothing speed

	Lin  DirectionSolver
	Opts NewtonOpts

	inertia *energy.Inertia
	gravity *energy.Gravity
	mask    *DirichletMask
	step    int
}

// StepReport is the per-step summary surfaced to the driver.
type StepReport struct {
	Step     int
	Iters    int
	Residual float64
	IP       float64
	Kinetic  float64
	Elastic  float64
	MinGap   float64
}

func NewIntegrator(mesh *solid2D.Mesh, h float64, gravity [2]float64) (it *Integrator) {
	it = &Integrator{
		Mesh:    mesh,
		H:       h,
		Gravity: gravity,
		EpsV:    1e-3,
		Lin:     NewCGSolver(),
		Opts:    DefaultNewtonOpts(),
		inertia: energy.NewInertia(mesh.Mass),
		gravity: energy.NewGravity(mesh.Mass, gravity),
		mask:    NewDirichletMask(mesh.Fixed),
	}
	return
}

// Step performs one implicit Euler step and commits the result on success.
func (it *Integrator) Step() (rep StepReport, err error) {
	var (
		m    = it.Mesh
		ndof = m.NumDOF()
		x    = append([]float64(nil), m.X...) // trial iterate, owned by this step
	)
	it.step++
	rep.Step = it.step

	// predicted position: free nodes follow x_n + h v_n (+ h^2 g via the
	// gravity term); fixed nodes follow their prescribed trajectory, which
	// is imposed directly on the trial iterate
	for i := 0; i < m.NumNodes(); i++ {
		if m.Fixed[i] {
			x[2*i] += it.H * m.ScriptedVel[i][0]
			x[2*i+1] += it.H * m.ScriptedVel[i][1]
			it.inertia.XTilde[2*i] = x[2*i]
			it.inertia.XTilde[2*i+1] = x[2*i+1]
			continue
		}
		it.inertia.XTilde[2*i] = m.X[2*i] + it.H*m.V[2*i]
		it.inertia.XTilde[2*i+1] = m.X[2*i+1] + it.H*m.V[2*i+1]
	}

	// friction is semi-implicit: normal forces and frames captured from
	// the committed state, constant during this step's Newton solve
	terms := append([]energy.Term{it.gravity}, it.Elastic...)
	for _, hb := range it.Barriers {
		terms = append(terms, hb)
		if it.Mu > 0 {
			terms = append(terms, energy.NewHalfPlaneFriction(hb, it.Mu, it.EpsV, it.H, m.X))
		}
	}
	if it.Contact != nil {
		terms = append(terms, it.Contact)
	}

	ip := NewPotential(it.inertia, it.H, ndof, terms...)
	ns := NewNewtonSolver(ip, it.mask, it.Lin, it.Opts)
	var res NewtonResult
	if res, err = ns.Minimize(x); err != nil {
		err = &StepError{Step: it.step, Err: err}
		return
	}

	for i := range x {
		m.V[i] = (x[i] - m.X[i]) / it.H
		m.X[i] = x[i]
	}
	rep.Iters = res.Iters
	rep.Residual = res.Residual
	rep.IP = res.IP
	rep.Kinetic, rep.Elastic = it.energies(x)
	rep.MinGap = it.minGap(x)
	return
}

// energies reports the committed kinetic and elastic energy of the step.
func (it *Integrator) energies(x []float64) (kin, ela float64) {
	m := it.Mesh
	for i := 0; i < m.NumNodes(); i++ {
		kin += 0.5 * m.Mass[i] * (m.V[2*i]*m.V[2*i] + m.V[2*i+1]*m.V[2*i+1])
	}
	for _, term := range it.Elastic {
		if v, verr := term.Value(x); verr == nil {
			ela += v
		}
	}
	return
}

func (it *Integrator) minGap(x []float64) (gap float64) {
	gap = math.Inf(1)
	for _, hb := range it.Barriers {
		for i := 0; i < it.Mesh.NumNodes(); i++ {
			d := hb.N.X[0]*x[2*i] + hb.N.X[1]*x[2*i+1] - hb.O
			if d < gap {
				gap = d
			}
		}
	}
	if it.Contact != nil {
		if d := it.Contact.MinDistance(x); d < gap {
			gap = d
		}
	}
	if math.IsInf(gap, 1) {
		gap = 0
	}
	return
}
