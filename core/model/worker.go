package model

import (
	"fmt"
	"sort"
)

// Worker is a roster member. Immutable for the duration of a run.
type Worker struct {
	ID          int64
	Name        string
	WeeklyLoad  int // standard weekly hours, 12 or 18
	Nights      bool
	Unavailable DateSet
}

// ValidationError reports malformed input discovered before modeling.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ValidateRoster checks structural roster integrity. Any failure here aborts
// the whole run.
func ValidateRoster(workers []Worker) error {
	if len(workers) == 0 {
		return &ValidationError{Field: "roster", Reason: "no workers"}
	}
	seen := make(map[int64]string, len(workers))
	for _, w := range workers {
		if w.Name == "" {
			return &ValidationError{Field: fmt.Sprintf("worker %d name", w.ID), Reason: "empty"}
		}
		// Zero is the solver's unassigned marker, negatives make no sense.
		if w.ID <= 0 {
			return &ValidationError{
				Field:  fmt.Sprintf("worker %q id", w.Name),
				Reason: fmt.Sprintf("must be positive, got %d", w.ID),
			}
		}
		if w.WeeklyLoad != 12 && w.WeeklyLoad != 18 {
			return &ValidationError{
				Field:  fmt.Sprintf("worker %q weekly_load", w.Name),
				Reason: fmt.Sprintf("must be 12 or 18, got %d", w.WeeklyLoad),
			}
		}
		if prev, dup := seen[w.ID]; dup {
			return &ValidationError{
				Field:  "worker id",
				Reason: fmt.Sprintf("%d used by both %q and %q", w.ID, prev, w.Name),
			}
		}
		seen[w.ID] = w.Name
	}
	return nil
}

// RankWorkers returns each worker's deterministic tie-break rank, ordered by
// ascending (id, name).
func RankWorkers(workers []Worker) map[int64]int64 {
	order := make([]Worker, len(workers))
	copy(order, workers)
	sort.Slice(order, func(i, j int) bool {
		if order[i].ID != order[j].ID {
			return order[i].ID < order[j].ID
		}
		return order[i].Name < order[j].Name
	})
	ranks := make(map[int64]int64, len(order))
	for i, w := range order {
		ranks[w.ID] = int64(i)
	}
	return ranks
}
