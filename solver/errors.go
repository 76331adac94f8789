package solver

import (
	"fmt"
)

// LinearSolveFailure reports a singular or numerically broken direction
// solve that survived the regularization retry.
type LinearSolveFailure struct {
	Iters    int
	Residual float64
}

func (e *LinearSolveFailure) Error() string {
	return fmt.Sprintf("linear solve failed after %d iterations, residual = %g", e.Iters, e.Residual)
}

// LineSearchExhausted reports that no sufficient-decrease step was found
// within the halving budget.
type LineSearchExhausted struct {
	Halvings int
	Alpha    float64
}

func (e *LineSearchExhausted) Error() string {
	return fmt.Sprintf("line search exhausted after %d halvings, alpha = %g", e.Halvings, e.Alpha)
}

// NewtonNonConvergence reports an iteration budget exhausted before the
// residual dropped below tolerance.
type NewtonNonConvergence struct {
	Iters    int
	Residual float64
}

func (e *NewtonNonConvergence) Error() string {
	return fmt.Sprintf("no convergence in %d Newton iterations, residual = %g", e.Iters, e.Residual)
}

// StepError tags a solver failure with the time step it occurred in. The
// integrator never commits the state of a failed step.
type StepError struct {
	Step int
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("time step %d: %s", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
