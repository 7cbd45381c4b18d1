package equity

import (
	"math"
	"time"

	"github.com/escaladev/escala/core/calendar"
	"github.com/escaladev/escala/core/model"
)

// Absence-credit scan bounds around the target month.
const (
	creditLookbackWeeks = 12
	creditLookaheadDays = 35
	minAbsenceWeeks     = 3
)

// Credits synthesizes equity-counter credits for a worker with an extended
// absence around the target month. An absence is a run of consecutive ISO
// weeks in which all five weekdays are unavailable; runs shorter than three
// weeks earn nothing. Credits approximate the shifts the worker would have
// received and are recomputed fresh every run.
func Credits(w model.Worker, year int, month time.Month) Counters {
	firstOfMonth := model.Date(year, month, 1)
	start := firstOfMonth.AddDate(0, 0, -7*creditLookbackWeeks)
	start = model.ISOWeekOf(start).Monday()
	end := firstOfMonth.AddDate(0, 0, creditLookaheadDays)

	run, longest := 0, 0
	for day := start; day.Before(end); day = day.AddDate(0, 0, 7) {
		if calendar.IsVacationWeek(w, model.ISOWeekOf(day)) {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}

	var credits Counters
	if longest < minAbsenceWeeks {
		return credits
	}
	for cat := Category(0); cat < NumCategories; cat++ {
		credits.Categories[cat] = int64(math.Round(float64(longest) / float64(cat.Cadence())))
	}
	return credits
}
