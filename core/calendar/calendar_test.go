package calendar

import (
	"testing"
	"time"

	"github.com/escaladev/escala/core/model"
)

func TestWeeksOverlappingSeptember2025(t *testing.T) {
	weeks := WeeksOverlapping(2025, time.September)
	if len(weeks) != 5 {
		t.Fatalf("expected 5 weeks, got %d: %v", len(weeks), weeks)
	}
	if weeks[0] != (model.ISOWeek{Year: 2025, Week: 36}) {
		t.Fatalf("first week: got %v", weeks[0])
	}
	if weeks[4] != (model.ISOWeek{Year: 2025, Week: 40}) {
		t.Fatalf("last week: got %v", weeks[4])
	}
	// Week 40 spills into October.
	days := weeks[4].Days()
	if !days[6].Equal(model.Date(2025, time.October, 5)) {
		t.Fatalf("week 40 sunday: got %v", days[6])
	}
}

func TestWeeksOverlappingOctober2025(t *testing.T) {
	weeks := WeeksOverlapping(2025, time.October)
	if weeks[0] != (model.ISOWeek{Year: 2025, Week: 40}) {
		t.Fatalf("first week: got %v", weeks[0])
	}
	last := weeks[len(weeks)-1]
	if !last.Days()[6].Equal(model.Date(2025, time.November, 2)) {
		t.Fatalf("window should end Nov 2, got %v", last.Days()[6])
	}
}

func TestWindowIsContiguous(t *testing.T) {
	days := Window(2025, time.September)
	if days[0].Weekday() != time.Monday {
		t.Fatalf("window must start on Monday, got %v", days[0].Weekday())
	}
	for i := 1; i < len(days); i++ {
		if !days[i].Equal(days[i-1].AddDate(0, 0, 1)) {
			t.Fatalf("gap at %d: %v -> %v", i, days[i-1], days[i])
		}
	}
}

func TestClassify(t *testing.T) {
	holidays := model.NewDateSet(model.Date(2025, time.June, 10))
	c := Classify(model.Date(2025, time.June, 10), holidays) // Tuesday
	if c.Day != Weekday || !c.Holiday {
		t.Fatalf("got %+v", c)
	}
	c = Classify(model.Date(2025, time.June, 14), holidays)
	if c.Day != Saturday || c.Holiday {
		t.Fatalf("got %+v", c)
	}
	c = Classify(model.Date(2025, time.June, 15), holidays)
	if c.Day != Sunday {
		t.Fatalf("got %+v", c)
	}
}

func TestEaster(t *testing.T) {
	cases := map[int]time.Time{
		2024: model.Date(2024, time.March, 31),
		2025: model.Date(2025, time.April, 20),
		2026: model.Date(2026, time.April, 5),
	}
	for year, want := range cases {
		if got := Easter(year); !got.Equal(want) {
			t.Fatalf("easter %d: got %v want %v", year, got, want)
		}
	}
}

func TestHolidays2025(t *testing.T) {
	h := Holidays(2025)
	fixed := []time.Time{
		model.Date(2025, time.January, 1),
		model.Date(2025, time.April, 25),
		model.Date(2025, time.May, 1),
		model.Date(2025, time.June, 10),
		model.Date(2025, time.December, 25),
	}
	for _, d := range fixed {
		if !h.Has(d) {
			t.Fatalf("missing fixed holiday %v", d)
		}
	}
	// Movable feasts: Good Friday and Corpus Christi 2025.
	if !h.Has(model.Date(2025, time.April, 18)) {
		t.Fatalf("missing good friday")
	}
	if !h.Has(model.Date(2025, time.June, 19)) {
		t.Fatalf("missing corpus christi")
	}
	if h.Has(model.Date(2025, time.July, 4)) {
		t.Fatalf("unexpected holiday")
	}
}

func TestHolidaysForWindowSpansYears(t *testing.T) {
	// December 2025's window ends in January 2026.
	h := HolidaysForWindow(2025, time.December)
	if !h.Has(model.Date(2025, time.December, 25)) {
		t.Fatalf("missing christmas")
	}
	if !h.Has(model.Date(2026, time.January, 1)) {
		t.Fatalf("missing new year from adjacent year")
	}
}

func TestIsVacationWeek(t *testing.T) {
	week := model.ISOWeek{Year: 2025, Week: 37} // Sept 8-14
	unavail := make(model.DateSet)
	for i := 0; i < 5; i++ {
		unavail.Add(model.Date(2025, time.September, 8+i))
	}
	w := model.Worker{ID: 1, Name: "Ana", WeeklyLoad: 12, Unavailable: unavail}
	if !IsVacationWeek(w, week) {
		t.Fatalf("expected vacation week")
	}
	// One free weekday breaks the vacation.
	partial := model.NewDateSet(
		model.Date(2025, time.September, 8),
		model.Date(2025, time.September, 9),
	)
	w.Unavailable = partial
	if IsVacationWeek(w, week) {
		t.Fatalf("partial unavailability is not a vacation week")
	}
}
