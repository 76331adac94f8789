package solver

import (
	"fmt"

	"github.com/notargets/gosolid/utils"
)

// NewtonOpts are the convergence controls of the projected-Newton loop.
type NewtonOpts struct {
	Tol         float64 // on |p|_inf / h, a velocity measure
	MaxIters    int
	MaxHalvings int
	Verbose     bool
}

func DefaultNewtonOpts() NewtonOpts {
	return NewtonOpts{
		Tol:         1e-2,
		MaxIters:    100,
		MaxHalvings: 40,
	}
}

// NewtonResult summarizes one converged (or failed) minimization.
type NewtonResult struct {
	Iters     int
	Residual  float64
	IP        float64   // potential value at the accepted iterate
	Residuals []float64 // per-iteration history
	IPs       []float64 // IP value at each iterate, non-increasing
}

// NewtonSolver minimizes the incremental potential by projected Newton:
// assemble the PSD-projected system, mask Dirichlet DOFs, solve for the
// direction, limit the step to the feasible region and backtrack on the
// potential value. Every accepted iterate strictly decreases IP, so the
// loop is globally convergent on the feasible set.
type NewtonSolver struct {
	IP    *Potential
	Mask  *DirichletMask
	Lin   DirectionSolver
	Limit *StepSizeLimiter
	Opts  NewtonOpts
}

func NewNewtonSolver(ip *Potential, mask *DirichletMask, lin DirectionSolver, opts NewtonOpts) (ns *NewtonSolver) {
	ns = &NewtonSolver{
		IP:    ip,
		Mask:  mask,
		Lin:   lin,
		Limit: NewStepSizeLimiter(ip.Limiters()...),
		Opts:  opts,
	}
	return
}

// Minimize advances x in place to the IP minimizer. x must be strictly
// feasible on entry; the step-size limiter keeps it so throughout.
func (ns *NewtonSolver) Minimize(x []float64) (res NewtonResult, err error) {
	var (
		E float64
		p []float64
	)
	if E, err = ns.IP.Value(x); err != nil {
		return
	}
	res.IP = E
	for res.Iters = 0; res.Iters < ns.Opts.MaxIters; res.Iters++ {
		if p, err = ns.direction(x); err != nil {
			return
		}
		res.Residual = utils.NormInf(p) / ns.IP.H
		res.Residuals = append(res.Residuals, res.Residual)
		res.IPs = append(res.IPs, E)
		if ns.Opts.Verbose {
			fmt.Printf("    newton iter %3d: residual = %12.6e, IP = %12.6e\n",
				res.Iters, res.Residual, E)
		}
		if res.Residual < ns.Opts.Tol {
			return
		}
		if E, err = ns.lineSearch(x, p, E); err != nil {
			return
		}
		res.IP = E
	}
	err = &NewtonNonConvergence{Iters: res.Iters, Residual: res.Residual}
	return
}

func (ns *NewtonSolver) direction(x []float64) (p []float64, err error) {
	var (
		g  []float64
		tb *utils.Triplets
	)
	if g, err = ns.IP.Gradient(x); err != nil {
		return
	}
	if tb, err = ns.IP.HessianTriplets(x); err != nil {
		return
	}
	ns.Mask.ApplyHessian(tb)
	ns.Mask.ApplyVector(g)
	if p, err = ns.Lin.Solve(tb.ToCSR(), g); err != nil {
		return
	}
	ns.Mask.ApplyVector(p)
	return
}

// lineSearch starts at the feasible bound and halves until the potential
// decreases, returning the accepted value.
func (ns *NewtonSolver) lineSearch(x, p []float64, E0 float64) (E float64, err error) {
	var (
		alpha = ns.Limit.MaxStep(x, p)
		trial = make([]float64, len(x))
	)
	for halvings := 0; halvings < ns.Opts.MaxHalvings; halvings++ {
		for i := range trial {
			trial[i] = x[i] + alpha*p[i]
		}
		if E, err = ns.IP.Value(trial); err != nil {
			// infeasible trial despite the limiter: an invariant failure
			return
		}
		if E <= E0 {
			copy(x, trial)
			return
		}
		alpha *= 0.5
	}
	err = &LineSearchExhausted{Halvings: ns.Opts.MaxHalvings, Alpha: alpha}
	return
}
