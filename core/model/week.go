package model

import (
	"fmt"
	"time"
)

// ISOWeek identifies a Monday-Sunday span by ISO year and week number.
type ISOWeek struct {
	Year int `json:"year"`
	Week int `json:"week"`
}

// ISOWeekOf returns the ISO week containing the given day.
func ISOWeekOf(t time.Time) ISOWeek {
	y, w := Midnight(t).ISOWeek()
	return ISOWeek{Year: y, Week: w}
}

// Monday returns the first day of the week.
func (w ISOWeek) Monday() time.Time {
	// January 4th is always inside ISO week 1.
	jan4 := Date(w.Year, time.January, 4)
	offset := (int(jan4.Weekday()) + 6) % 7
	week1Monday := jan4.AddDate(0, 0, -offset)
	return week1Monday.AddDate(0, 0, (w.Week-1)*7)
}

// Days returns the seven days of the week, Monday first.
func (w ISOWeek) Days() []time.Time {
	mon := w.Monday()
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = mon.AddDate(0, 0, i)
	}
	return days
}

// Contains reports whether the day falls inside the week.
func (w ISOWeek) Contains(t time.Time) bool {
	return ISOWeekOf(t) == w
}

// Next returns the following ISO week.
func (w ISOWeek) Next() ISOWeek {
	return ISOWeekOf(w.Monday().AddDate(0, 0, 7))
}

// Prev returns the preceding ISO week.
func (w ISOWeek) Prev() ISOWeek {
	return ISOWeekOf(w.Monday().AddDate(0, 0, -7))
}

// Before reports whether w starts earlier than o.
func (w ISOWeek) Before(o ISOWeek) bool {
	if w.Year != o.Year {
		return w.Year < o.Year
	}
	return w.Week < o.Week
}

func (w ISOWeek) String() string {
	return fmt.Sprintf("%04d-W%02d", w.Year, w.Week)
}
