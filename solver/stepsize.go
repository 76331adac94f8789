package solver

import (
	"github.com/notargets/gosolid/energy"
)

// StepSizeLimiter combines every feasibility bound along a search
// direction: CCD on contact pairs, barrier-domain bounds and positive-area
// constraints. The returned multiplier is the minimum across constraints,
// always in (0, 1]; moving by it keeps the trial iterate strictly inside
// every energy's domain so the line search never evaluates an infeasible
// point.
type StepSizeLimiter struct {
	Limiters []energy.StepLimiter
}

func NewStepSizeLimiter(ls ...energy.StepLimiter) *StepSizeLimiter {
	return &StepSizeLimiter{Limiters: ls}
}

func (sl *StepSizeLimiter) MaxStep(x, p []float64) (alpha float64) {
	alpha = 1
	for _, l := range sl.Limiters {
		if a := l.MaxStep(x, p); a < alpha {
			alpha = a
		}
	}
	return
}
