// Package calendar maps a target month onto the ISO weeks it overlaps and
// classifies individual days for scheduling purposes.
package calendar

import (
	"time"

	"github.com/escaladev/escala/core/model"
)

// DayClass is the scheduling classification of a calendar day.
type DayClass int

const (
	Weekday DayClass = iota
	Saturday
	Sunday
)

// Class carries a day's classification and its holiday flag. A holiday on a
// weekday is still a weekday for availability and first-shift purposes.
type Class struct {
	Day     DayClass
	Holiday bool
}

// Classify resolves the day class for the given holiday set.
func Classify(day time.Time, holidays model.DateSet) Class {
	c := Class{Holiday: holidays.Has(day)}
	switch model.Midnight(day).Weekday() {
	case time.Saturday:
		c.Day = Saturday
	case time.Sunday:
		c.Day = Sunday
	default:
		c.Day = Weekday
	}
	return c
}

// WeeksOverlapping returns every ISO week containing at least one day of the
// month, in chronological order.
func WeeksOverlapping(year int, month time.Month) []model.ISOWeek {
	var weeks []model.ISOWeek
	day := model.Date(year, month, 1)
	for day.Month() == month {
		w := model.ISOWeekOf(day)
		if len(weeks) == 0 || weeks[len(weeks)-1] != w {
			weeks = append(weeks, w)
		}
		day = day.AddDate(0, 0, 1)
	}
	return weeks
}

// Window returns all days of the scheduling window for the month, from the
// Monday of its first overlapping week to the Sunday of its last.
func Window(year int, month time.Month) []time.Time {
	weeks := WeeksOverlapping(year, month)
	var days []time.Time
	for _, w := range weeks {
		days = append(days, w.Days()...)
	}
	return days
}

// IsVacationWeek reports whether the worker has zero available weekdays
// (Mon-Fri, holidays included) in the week.
func IsVacationWeek(w model.Worker, week model.ISOWeek) bool {
	for i, day := range week.Days() {
		if i >= 5 {
			break
		}
		if !w.Unavailable.Has(day) {
			return false
		}
	}
	return true
}
