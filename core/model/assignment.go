package model

import "time"

// Assignment binds a worker to one shift slot on one day.
type Assignment struct {
	Date     time.Time
	Shift    ShiftKind
	WorkerID int64
}

// Start returns the assignment's start time.
func (a Assignment) Start() time.Time { return a.Shift.Start(a.Date) }

// End returns the assignment's end time.
func (a Assignment) End() time.Time { return a.Shift.End(a.Date) }

// WeeklyHours summarizes a worker's hours inside one ISO week against the
// standard weekly load.
type WeeklyHours struct {
	Worked    int `json:"worked"`
	Overtime  int `json:"overtime"`
	Undertime int `json:"undertime"`
}

// HoursFor tallies weekly hours for the given load and assignments.
func HoursFor(load int, assignments []Assignment) WeeklyHours {
	var h WeeklyHours
	for _, a := range assignments {
		h.Worked += a.Shift.Hours()
	}
	if h.Worked > load {
		h.Overtime = h.Worked - load
	} else {
		h.Undertime = load - h.Worked
	}
	return h
}
