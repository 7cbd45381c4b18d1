// Package equity tracks per-worker exposure to undesirable shifts across
// weighted categories and synthesizes credits for extended absences.
package equity

import (
	"fmt"
	"time"

	"github.com/escaladev/escala/core/model"
)

// Category is one of the weighted shift-exposure buckets, ordered by
// balancing priority (highest first).
type Category int

const (
	SaturdayNight Category = iota
	SundayHolidayLongDay
	SundayHolidayShortDay
	SundayHolidayNight
	SaturdayLongDay
	SaturdayShortDay
	FridayNight
	WeekdayNight
	MondayDay
	WeekdayDay

	NumCategories
)

var categoryNames = [NumCategories]string{
	"saturday_night",
	"sun_holiday_long_day",
	"sun_holiday_short_day",
	"sun_holiday_night",
	"saturday_long_day",
	"saturday_short_day",
	"friday_night",
	"weekday_night",
	"monday_day",
	"weekday_day",
}

func (c Category) String() string {
	if c < 0 || c >= NumCategories {
		return "unknown"
	}
	return categoryNames[c]
}

// ParseCategory converts a category name into a Category.
func ParseCategory(s string) (Category, error) {
	for i, name := range categoryNames {
		if name == s {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown equity category %q", s)
}

// Weight returns the imbalance weight for the category. Weights descend with
// priority so the combined equity cost keeps the priority ordering.
func (c Category) Weight() int64 {
	return [NumCategories]int64{10000, 9500, 9200, 8300, 7600, 6800, 1000, 700, 300, 50}[c]
}

// Cadence returns the absence-credit cadence in weeks: roughly how many
// absent weeks correspond to one shift of this category.
func (c Category) Cadence() int {
	switch c {
	case FridayNight, WeekdayNight:
		return 5
	case MondayDay, WeekdayDay:
		return 2
	default:
		return 15
	}
}

// Categorize buckets an assignment slot. Holiday folding: a Saturday holiday
// night stays a Saturday night; Saturday holiday day shifts and all Sunday or
// weekday holidays fold into the Sunday/Holiday buckets. A slot lands in
// exactly one category.
func Categorize(day time.Time, shift model.ShiftKind, holidays model.DateSet) Category {
	dow := model.Midnight(day).Weekday()
	holiday := holidays.Has(day)
	sunOrHoliday := dow == time.Sunday || holiday
	switch {
	case dow == time.Saturday && shift.IsNight():
		return SaturdayNight
	case sunOrHoliday && shift == model.ShiftDayLong:
		return SundayHolidayLongDay
	case sunOrHoliday && shift == model.ShiftDayShort:
		return SundayHolidayShortDay
	case sunOrHoliday && shift.IsNight():
		return SundayHolidayNight
	case dow == time.Saturday && shift == model.ShiftDayLong:
		return SaturdayLongDay
	case dow == time.Saturday && shift == model.ShiftDayShort:
		return SaturdayShortDay
	case dow == time.Friday && shift.IsNight():
		return FridayNight
	case shift.IsNight():
		return WeekdayNight
	case dow == time.Monday:
		return MondayDay
	default:
		return WeekdayDay
	}
}

// Counters accumulates a worker's category and day-of-week exposure.
type Counters struct {
	Categories [NumCategories]int64 `json:"categories"`
	DayOfWeek  [7]int64             `json:"day_of_week"`
}

// Record buckets one assignment into the counters.
func (c *Counters) Record(day time.Time, shift model.ShiftKind, holidays model.DateSet) {
	c.Categories[Categorize(day, shift, holidays)]++
	c.DayOfWeek[int(model.Midnight(day).Weekday())]++
}

// Add merges another counter set into c.
func (c *Counters) Add(o Counters) {
	for i := range c.Categories {
		c.Categories[i] += o.Categories[i]
	}
	for i := range c.DayOfWeek {
		c.DayOfWeek[i] += o.DayOfWeek[i]
	}
}

// Override adjusts one worker category after automatic credits: Clear zeroes
// the accumulated value, Delta is then added.
type Override struct {
	Clear bool  `json:"clear"`
	Delta int64 `json:"delta"`
}

// ApplyOverrides mutates counters with the worker's manual overrides.
func ApplyOverrides(c *Counters, overrides map[Category]Override) {
	for cat, o := range overrides {
		if cat < 0 || cat >= NumCategories {
			continue
		}
		if o.Clear {
			c.Categories[cat] = 0
		}
		c.Categories[cat] += o.Delta
	}
}
