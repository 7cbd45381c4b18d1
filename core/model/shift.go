package model

import (
	"fmt"
	"time"
)

// ShiftKind identifies one of the three daily shift slots.
type ShiftKind string

const (
	// ShiftDayShort is the 12h day shift, 08:00-20:00.
	ShiftDayShort ShiftKind = "M1"
	// ShiftDayLong is the 15h day shift, 08:00-23:00.
	ShiftDayLong ShiftKind = "M2"
	// ShiftNight is the 12h night shift, 20:00-08:00 next day.
	ShiftNight ShiftKind = "N"
)

// Shifts returns the slot kinds in canonical order, one of each per day.
func Shifts() []ShiftKind {
	return []ShiftKind{ShiftDayShort, ShiftDayLong, ShiftNight}
}

// ParseShift converts a token into a ShiftKind.
func ParseShift(s string) (ShiftKind, error) {
	switch ShiftKind(s) {
	case ShiftDayShort, ShiftDayLong, ShiftNight:
		return ShiftKind(s), nil
	}
	return "", fmt.Errorf("unknown shift type %q", s)
}

// StartHour returns the shift start as hours from the day's midnight.
func (s ShiftKind) StartHour() int {
	if s == ShiftNight {
		return 20
	}
	return 8
}

// EndHour returns the shift end as hours from the day's midnight.
// The night shift ends at 32, i.e. 08:00 the next day.
func (s ShiftKind) EndHour() int {
	switch s {
	case ShiftDayShort:
		return 20
	case ShiftDayLong:
		return 23
	default:
		return 32
	}
}

// Hours returns the shift duration in hours.
func (s ShiftKind) Hours() int { return s.EndHour() - s.StartHour() }

// IsNight reports whether the shift is the night slot.
func (s ShiftKind) IsNight() bool { return s == ShiftNight }

// Start returns the shift start time on the given day.
func (s ShiftKind) Start(day time.Time) time.Time {
	return Midnight(day).Add(time.Duration(s.StartHour()) * time.Hour)
}

// End returns the shift end time for the given day. For the night shift
// this falls on the following day.
func (s ShiftKind) End(day time.Time) time.Time {
	return Midnight(day).Add(time.Duration(s.EndHour()) * time.Hour)
}
