package energy

import (
	"fmt"
)

// DomainViolation reports an energy evaluated outside its valid domain
// (non-positive contact distance or element area). With a correct step-size
// limiter upstream this never happens, so it signals an internal invariant
// failure rather than a recoverable runtime condition.
type DomainViolation struct {
	Term   string
	Detail string
}

func (dv *DomainViolation) Error() string {
	return fmt.Sprintf("domain violation in %s term: %s", dv.Term, dv.Detail)
}
