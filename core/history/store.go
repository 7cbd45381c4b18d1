// Package history defines the persistence contract for scheduled weeks.
package history

import (
	"time"

	"github.com/escaladev/escala/core/equity"
	"github.com/escaladev/escala/core/model"
)

// Record is the persisted outcome of one scheduled ISO week. Immutable once
// appended.
type Record struct {
	Week        model.ISOWeek
	Assignments []model.Assignment
	Hours       map[int64]model.WeeklyHours
	Counters    map[int64]equity.Counters
}

// Store is the engine's view of history persistence. Implementations must be
// safe for single-run sequential use; callers serialize runs against the same
// store.
type Store interface {
	// LoadWeek returns the record for a week, reporting whether it exists.
	LoadWeek(week model.ISOWeek) (Record, bool, error)
	// ScheduledWeeks lists all persisted weeks in chronological order.
	ScheduledWeeks() ([]model.ISOWeek, error)
	// LoadTail returns all assignments dated within the given number of
	// days strictly before the cutoff, for boundary checks.
	LoadTail(before time.Time, days int) ([]model.Assignment, error)
	// SumCounters accumulates the per-worker equity counters of every
	// record belonging to the given ISO year.
	SumCounters(isoYear int) (map[int64]equity.Counters, error)
	// AppendWeek persists a new record. Appending an existing week is an
	// error: records are never rewritten.
	AppendWeek(rec Record) error
}
