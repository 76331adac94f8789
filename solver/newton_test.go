package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gosolid/energy"
	"github.com/notargets/gosolid/utils"
)

// A single free node under gravity with no elasticity or contact: one
// implicit Euler step is the closed-form minimizer x = xTilde + h^2 g.
func TestNewtonFreeFallAnalytic(t *testing.T) {
	var (
		h    = 0.01
		mass = []float64{2.5}
		in   = energy.NewInertia(mass)
		gr   = energy.NewGravity(mass, [2]float64{0, -9.81})
		x    = []float64{0.3, 1.0}
		v    = []float64{0.5, -0.2}
	)
	in.XTilde[0] = x[0] + h*v[0]
	in.XTilde[1] = x[1] + h*v[1]
	var (
		ip   = NewPotential(in, h, 2, gr)
		mask = NewDirichletMask([]bool{false})
		ns   = NewNewtonSolver(ip, mask, NewCGSolver(), NewtonOpts{Tol: 1e-10, MaxIters: 20, MaxHalvings: 20})
	)
	res, err := ns.Minimize(x)
	assert.NoError(t, err)
	assert.InDelta(t, in.XTilde[0], x[0], 1e-10)
	assert.InDelta(t, in.XTilde[1]-h*h*9.81, x[1], 1e-10)
	assert.LessOrEqual(t, res.Iters, 3)
	// the reported potential is the value at the accepted iterate
	E, err := ip.Value(x)
	assert.NoError(t, err)
	assert.InDelta(t, E, res.IP, 1e-14)
}

// With no halving budget the line search cannot accept any step and must
// report exhaustion rather than loop or move the iterate.
func TestNewtonLineSearchExhausted(t *testing.T) {
	var (
		h    = 0.01
		mass = []float64{1}
		in   = energy.NewInertia(mass)
		gr   = energy.NewGravity(mass, [2]float64{0, -9.81})
		x    = []float64{0, 1}
	)
	in.XTilde[0] = x[0]
	in.XTilde[1] = x[1] - 0.5
	var (
		ip   = NewPotential(in, h, 2, gr)
		mask = NewDirichletMask([]bool{false})
		ns   = NewNewtonSolver(ip, mask, NewCGSolver(), NewtonOpts{Tol: 1e-12, MaxIters: 10, MaxHalvings: 0})
	)
	_, err := ns.Minimize(x)
	var lse *LineSearchExhausted
	assert.ErrorAs(t, err, &lse)
	assert.Equal(t, 0, lse.Halvings)
	// the iterate was not moved by the failed search
	assert.Equal(t, []float64{0, 1}, x)
}

// A two-node spring with one pinned end converges to static equilibrium
// (rest length) as h grows and v0 = 0: the inertia term becomes
// negligible against h^2 times the elastic energy.
func TestNewtonSpringEquilibrium(t *testing.T) {
	var (
		h     = 1e3
		mass  = []float64{1, 1}
		xRest = []float64{0, 0, 1, 0}
		ms    = energy.NewMassSpring([][2]int{{0, 1}}, xRest, 100)
		in    = energy.NewInertia(mass)
		x     = []float64{0, 0, 1.8, 0} // stretched
	)
	copy(in.XTilde, x)
	var (
		ip   = NewPotential(in, h, 4, ms)
		mask = NewDirichletMask([]bool{true, false})
		ns   = NewNewtonSolver(ip, mask, NewCGSolver(), NewtonOpts{Tol: 1e-10, MaxIters: 200, MaxHalvings: 40})
	)
	_, err := ns.Minimize(x)
	assert.NoError(t, err)
	l := math.Hypot(x[2]-x[0], x[3]-x[1])
	assert.InDelta(t, 1.0, l, 1e-4)
	// the pinned node never moved
	assert.Equal(t, 0.0, x[0])
	assert.Equal(t, 0.0, x[1])
}

// The incremental potential decreases monotonically across accepted
// Newton iterates, including with an active barrier.
func TestNewtonMonotonicDecrease(t *testing.T) {
	var (
		h    = 0.01
		mass = []float64{1}
		in   = energy.NewInertia(mass)
		gr   = energy.NewGravity(mass, [2]float64{0, -9.81})
		hb   = energy.NewHalfPlaneBarrier([2]float64{0, 1}, 0, 0.01, 1e4, []float64{0.5})
		x    = []float64{0, 0.02}
	)
	// falling fast toward the ground
	in.XTilde[0] = x[0]
	in.XTilde[1] = x[1] + h*(-2.0)
	var (
		ip   = NewPotential(in, h, 2, gr, hb)
		mask = NewDirichletMask([]bool{false})
		ns   = NewNewtonSolver(ip, mask, NewCGSolver(), NewtonOpts{Tol: 1e-6, MaxIters: 100, MaxHalvings: 40})
	)
	res, err := ns.Minimize(x)
	assert.NoError(t, err)
	for k := 1; k < len(res.IPs); k++ {
		assert.LessOrEqual(t, res.IPs[k], res.IPs[k-1]+1e-12)
	}
	// the barrier kept the node strictly above the plane
	assert.Greater(t, x[1], 0.0)
}

// The assembled, Dirichlet-masked Hessian is PSD even where individual
// energies are non-convex (compressed spring, active barrier).
func TestAssembledHessianPSD(t *testing.T) {
	var (
		h    = 0.01
		mass = []float64{1, 1}
		ms   = energy.NewMassSpring([][2]int{{0, 1}}, []float64{0, 0, 1, 0}, 1e4)
		hb   = energy.NewHalfPlaneBarrier([2]float64{0, 1}, 0, 0.01, 1e4, []float64{0.5, 0.5})
		in   = energy.NewInertia(mass)
		x    = []float64{0, 0.005, 0.3, 0.008} // compressed and in contact
	)
	copy(in.XTilde, x)
	var (
		ip   = NewPotential(in, h, 4, ms, hb)
		mask = NewDirichletMask([]bool{true, false})
	)
	tb, err := ip.HessianTriplets(x)
	assert.NoError(t, err)
	mask.ApplyHessian(tb)
	var (
		H = tb.ToCSR()
		S = mat.NewSymDense(4, nil)
	)
	H.DoNonZero(func(i, j int, v float64) {
		if i <= j {
			S.SetSym(i, j, S.At(i, j)+v)
		}
	})
	var eig mat.EigenSym
	assert.True(t, eig.Factorize(S, false))
	for _, v := range eig.Values(nil) {
		assert.GreaterOrEqual(t, v, -1e-9)
	}
}

func TestCGSolver(t *testing.T) {
	// small SPD system against the dense solution
	{
		tb := utils.NewTriplets(3)
		tb.AddDiag(0, 4)
		tb.AddDiag(1, 3)
		tb.AddDiag(2, 2)
		tb.Append(0, 1, 1)
		tb.Append(1, 0, 1)
		var (
			g      = []float64{1, -2, 3}
			cg     = NewCGSolver()
			p, err = cg.Solve(tb.ToCSR(), g)
		)
		assert.NoError(t, err)
		// verify H p = -g
		var (
			want = []float64{-1, 2, -3}
			H    = [3][3]float64{{4, 1, 0}, {1, 3, 0}, {0, 0, 2}}
		)
		for i := 0; i < 3; i++ {
			var sum float64
			for j := 0; j < 3; j++ {
				sum += H[i][j] * p[j]
			}
			assert.InDelta(t, want[i], sum, 1e-8)
		}
	}
	// zero gradient returns the zero direction
	{
		tb := utils.NewTriplets(2)
		tb.AddDiag(0, 1)
		tb.AddDiag(1, 1)
		p, err := NewCGSolver().Solve(tb.ToCSR(), []float64{0, 0})
		assert.NoError(t, err)
		assert.Equal(t, []float64{0, 0}, p)
	}
}

func TestCGSolverRegularization(t *testing.T) {
	// a singular diagonal (empty row) is rescued by the shift retry
	{
		tb := utils.NewTriplets(2)
		tb.AddDiag(0, 1)
		p, err := NewCGSolver().Solve(tb.ToCSR(), []float64{1, 0})
		assert.NoError(t, err)
		assert.InDelta(t, -1.0, p[0], 1e-6)
		assert.InDelta(t, 0.0, p[1], 1e-6)
	}
	// an indefinite diagonal fails both runs and surfaces typed
	{
		tb := utils.NewTriplets(2)
		tb.AddDiag(0, 1)
		tb.AddDiag(1, -1)
		_, err := NewCGSolver().Solve(tb.ToCSR(), []float64{1, 1})
		var lsf *LinearSolveFailure
		assert.ErrorAs(t, err, &lsf)
	}
}

// With the full free-space basis the reduced solve reproduces the
// unreduced direction.
func TestReducedSolverFullBasis(t *testing.T) {
	var (
		n  = 4
		tb = utils.NewTriplets(n)
		g  = []float64{1, -1, 2, 0.5}
	)
	tb.AddDiag(0, 5)
	tb.AddDiag(1, 4)
	tb.AddDiag(2, 3)
	tb.AddDiag(3, 6)
	tb.Append(0, 2, 1)
	tb.Append(2, 0, 1)
	var (
		H     = tb.ToCSR()
		eye   = mat.NewDense(n, n, nil)
		pFull []float64
		pRed  []float64
		err   error
	)
	for i := 0; i < n; i++ {
		eye.Set(i, i, 1)
	}
	pFull, err = NewCGSolver().Solve(H, g)
	assert.NoError(t, err)
	pRed, err = NewReducedSolver(eye).Solve(H, g)
	assert.NoError(t, err)
	for i := 0; i < n; i++ {
		assert.InDelta(t, pFull[i], pRed[i], 1e-8)
	}
}

// Modal basis columns are mass-orthonormal and vanish on fixed DOFs.
func TestModalBasis(t *testing.T) {
	var (
		mass = []float64{2, 3, 4}
		K    = utils.NewTriplets(6)
		mask = NewDirichletMask([]bool{true, false, false})
	)
	// a simple chain stiffness in x and y
	for i := 0; i < 6; i++ {
		K.AddDiag(i, 10)
	}
	K.Append(2, 4, -5)
	K.Append(4, 2, -5)
	B, err := NewModalBasis(K, mass, mask, 3)
	assert.NoError(t, err)
	r, c := B.Dims()
	assert.Equal(t, 6, r)
	assert.Equal(t, 3, c)
	// fixed node rows are zero
	assert.Equal(t, 0.0, B.At(0, 0))
	assert.Equal(t, 0.0, B.At(1, 1))
	// B' M B = I over the lumped mass
	for a := 0; a < c; a++ {
		for b := a; b < c; b++ {
			var dot float64
			for i := 0; i < r; i++ {
				dot += mass[i/2] * B.At(i, a) * B.At(i, b)
			}
			if a == b {
				assert.InDelta(t, 1.0, dot, 1e-10)
			} else {
				assert.InDelta(t, 0.0, dot, 1e-10)
			}
		}
	}
}
