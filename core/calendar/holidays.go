package calendar

import (
	"time"

	"github.com/escaladev/escala/core/model"
)

// Portuguese national holidays with a fixed date, keyed by month.
var fixedHolidays = map[time.Month][]int{
	time.January:  {1},
	time.April:    {25},
	time.May:      {1},
	time.June:     {10},
	time.August:   {15},
	time.October:  {5},
	time.November: {1},
	time.December: {1, 8, 25},
}

// Movable feasts as day offsets from Easter Sunday.
var easterOffsets = []int{-47, -2, 0, 60}

// Easter returns Easter Sunday for the year using the anonymous Gregorian
// computus.
func Easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := (19*a + b - b/4 - ((b-(b+8)/25+1)/3) + 15) % 30
	e := (32 + 2*(b%4) + 2*(c/4) - d - (c % 4)) % 7
	f := d + e - 7*((a+11*d+22*e)/451) + 114
	return model.Date(year, time.Month(f/31), f%31+1)
}

// Holidays returns the national holidays falling inside the given year.
func Holidays(year int) model.DateSet {
	set := make(model.DateSet)
	for m, days := range fixedHolidays {
		for _, d := range days {
			set.Add(model.Date(year, m, d))
		}
	}
	easter := Easter(year)
	for _, off := range easterOffsets {
		h := easter.AddDate(0, 0, off)
		if h.Year() == year {
			set.Add(h)
		}
	}
	return set
}

// HolidaysForWindow returns national holidays for every year touched by the
// scheduling window of (year, month).
func HolidaysForWindow(year int, month time.Month) model.DateSet {
	days := Window(year, month)
	set := Holidays(days[0].Year())
	if last := days[len(days)-1].Year(); last != days[0].Year() {
		set = set.Union(Holidays(last))
	}
	return set
}
