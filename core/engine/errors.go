package engine

import (
	"fmt"
	"time"

	"github.com/escaladev/escala/core/model"
)

// InfeasibleError reports that the hard-constraint set has no solution. When
// the conflict can be localized, Week/Date/Shift identify the slot that
// cannot be covered.
type InfeasibleError struct {
	Week   *model.ISOWeek
	Date   time.Time
	Shift  model.ShiftKind
	Reason string
}

func (e *InfeasibleError) Error() string {
	if e.Week != nil {
		return fmt.Sprintf("infeasible: %s on %s (week %s): %s",
			e.Shift, e.Date.Format(model.DateLayout), e.Week, e.Reason)
	}
	return "infeasible: " + e.Reason
}

// SolverError reports that the solver could not produce a definitive answer
// within its budget. Distinct from InfeasibleError.
type SolverError struct {
	Err error
}

func (e *SolverError) Error() string { return "solver: " + e.Err.Error() }

func (e *SolverError) Unwrap() error { return e.Err }
