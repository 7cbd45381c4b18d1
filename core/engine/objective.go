package engine

import (
	"time"

	"github.com/escaladev/escala/core/equity"
	"github.com/escaladev/escala/core/model"
)

// Cost evaluates a complete assignment as a lexicographic vector, one
// component per soft-rule tier in priority order, followed by the
// deterministic tie-break. Lower is better component by component.
func (p *problem) Cost(assign []int64) []int64 {
	return []int64{
		p.firstShiftCost(assign),
		p.threeDaySpanCost(assign),
		p.weekendBothCost(assign),
		p.consecutiveWeekendCost(assign),
		p.spacingCost(assign),
		p.equityCost(assign),
		p.longDayPriorityCost(assign),
		p.nightIntervalCost(assign),
		p.consecutiveNightCost(assign),
		p.loadCost(assign),
		p.dowEquityCost(assign),
		p.tiebreakCost(assign),
	}
}

// firstShiftCost penalizes each eligible worker's weekly shift mix by the
// rank of the best category they reached: weekday day 0, weekday night 1,
// Saturday day 2, Saturday night 3, Sunday day 4, Sunday night 5. Weeks
// whose weekend belongs to a three-day span only keep the weekday-night
// penalty.
func (p *problem) firstShiftCost(assign []int64) int64 {
	var cost int64
	for _, wk := range p.weeks {
		sat := wk.week.Monday().AddDate(0, 0, 5)
		for _, id := range wk.eligible {
			var hasWD, hasWN, hasSatD, hasSatN, hasSunD, hasSunN, any bool
			for i := wk.first; i <= wk.last; i++ {
				if assign[i] != id {
					continue
				}
				any = true
				s := p.slots[i]
				switch {
				case s.weekday && !s.Shift.IsNight():
					hasWD = true
				case s.weekday:
					hasWN = true
				case s.Date.Equal(sat) && !s.Shift.IsNight():
					hasSatD = true
				case s.Date.Equal(sat):
					hasSatN = true
				case s.Shift.IsNight():
					hasSunN = true
				default:
					hasSunD = true
				}
			}
			if !any {
				continue
			}
			if wk.weekendSuppressed {
				if !hasWD && !hasSatD && !hasSatN && !hasSunD && !hasSunN && hasWN {
					cost++
				}
				continue
			}
			switch {
			case hasWD:
			case hasWN:
				cost++
			case hasSatD:
				cost += 2
			case hasSatN:
				cost += 3
			case hasSunD:
				cost += 4
			case hasSunN:
				cost += 5
			}
		}
	}
	return cost
}

// threeDaySpanCost counts distinct workers covering each three-day holiday
// span. Span days before the window resolve against the history tail.
func (p *problem) threeDaySpanCost(assign []int64) int64 {
	if len(p.spans) == 0 {
		return 0
	}
	windowStart := p.weeks[0].week.Monday()
	var cost int64
	for _, span := range p.spans {
		used := make(map[int64]bool)
		for _, day := range span {
			if day.Before(windowStart) {
				for _, t := range p.tail {
					if model.Midnight(t.Date).Equal(day) {
						used[t.WorkerID] = true
					}
				}
				continue
			}
			for i, s := range p.slots {
				if s.Date.Equal(day) && assign[i] != 0 {
					used[assign[i]] = true
				}
			}
		}
		cost += int64(len(used))
	}
	return cost
}

// weekendBothCost counts workers holding both a Saturday and a Sunday shift
// in the same non-suppressed week.
func (p *problem) weekendBothCost(assign []int64) int64 {
	var cost int64
	for _, wk := range p.weeks {
		if wk.weekendSuppressed {
			continue
		}
		hasSat := make(map[int64]bool)
		hasSun := make(map[int64]bool)
		for i := wk.first; i <= wk.last; i++ {
			s := p.slots[i]
			switch s.Date.Weekday() {
			case time.Saturday:
				hasSat[assign[i]] = true
			case time.Sunday:
				hasSun[assign[i]] = true
			}
		}
		for id := range hasSat {
			if id != 0 && hasSun[id] {
				cost++
			}
		}
	}
	return cost
}

// consecutiveWeekendCost penalizes giving an in-month weekend shift to a
// worker who covered the immediately preceding weekend while another worker
// still has no weekend shift this month. The preceding weekend may lie
// before the window, in which case the history tail decides.
func (p *problem) consecutiveWeekendCost(assign []int64) int64 {
	numWeeks := len(p.weeks)
	hasWknd := make([]map[int64]bool, numWeeks)
	for wi, wk := range p.weeks {
		hasWknd[wi] = make(map[int64]bool)
		for i := wk.first; i <= wk.last; i++ {
			s := p.slots[i]
			if s.Date.Weekday() != time.Saturday && s.Date.Weekday() != time.Sunday {
				continue
			}
			if s.Date.Month() != p.month {
				continue
			}
			if assign[i] != 0 {
				hasWknd[wi][assign[i]] = true
			}
		}
	}
	workedOn := func(day time.Time, id int64) bool {
		windowStart := p.weeks[0].week.Monday()
		if day.Before(windowStart) {
			for _, t := range p.tail {
				if t.WorkerID == id && model.Midnight(t.Date).Equal(day) {
					return true
				}
			}
			return false
		}
		for i, s := range p.slots {
			if s.Date.Equal(day) && assign[i] == id {
				return true
			}
		}
		return false
	}
	var cost int64
	for wi, wk := range p.weeks {
		monday := wk.week.Monday()
		prevSat := monday.AddDate(0, 0, -2)
		prevSun := monday.AddDate(0, 0, -1)
		for _, w := range p.roster {
			if !hasWknd[wi][w.ID] {
				continue
			}
			if !workedOn(prevSat, w.ID) && !workedOn(prevSun, w.ID) {
				continue
			}
			otherWithout := false
			for _, o := range p.roster {
				if o.ID == w.ID {
					continue
				}
				covered := false
				for j := 0; j < wi; j++ {
					if hasWknd[j][o.ID] {
						covered = true
						break
					}
				}
				if !covered {
					otherWithout = true
					break
				}
			}
			if otherWithout {
				cost++
			}
		}
	}
	return cost
}

// spacingCost counts same-worker shift pairs separated by a legal but short
// rest, at least 24h and under 48h.
func (p *problem) spacingCost(assign []int64) int64 {
	var cost int64
	for k := range p.slots {
		s := p.slots[k]
		for j := k - 1; j >= 0; j-- {
			o := p.slots[j]
			if s.dayIdx-o.dayIdx > 3 {
				break
			}
			if assign[j] != assign[k] || assign[k] == 0 || o.dayIdx == s.dayIdx {
				continue
			}
			gap := s.startHour() - o.endHour()
			if gap >= 24 && gap < 48 {
				cost++
			}
		}
	}
	return cost
}

// equityCost sums, over the ten categories, the weighted maximum deviation
// of any worker's year-to-date total from the roster mean. Deviations are
// scaled by the roster size to stay integral.
func (p *problem) equityCost(assign []int64) int64 {
	totals := p.windowCounters(assign)
	n := int64(len(p.roster))
	var cost int64
	for cat := equity.Category(0); cat < equity.NumCategories; cat++ {
		var sum int64
		for _, w := range p.roster {
			sum += totals[w.ID].Categories[cat]
		}
		var maxDev int64
		for _, w := range p.roster {
			dev := n*totals[w.ID].Categories[cat] - sum
			if dev < 0 {
				dev = -dev
			}
			if dev > maxDev {
				maxDev = dev
			}
		}
		cost += cat.Weight() * maxDev
	}
	return cost
}

// windowCounters returns base counters plus this assignment's contribution.
func (p *problem) windowCounters(assign []int64) map[int64]equity.Counters {
	totals := make(map[int64]equity.Counters, len(p.roster))
	for _, w := range p.roster {
		totals[w.ID] = p.base[w.ID]
	}
	for i, s := range p.slots {
		id := assign[i]
		if _, ok := totals[id]; !ok {
			continue
		}
		c := totals[id]
		c.Record(s.Date, s.Shift, p.holidays)
		totals[id] = c
	}
	return totals
}

// longDayPriorityCost counts short-day slots held by 18h-load workers.
func (p *problem) longDayPriorityCost(assign []int64) int64 {
	var cost int64
	for i, s := range p.slots {
		if s.Shift != model.ShiftDayShort {
			continue
		}
		if w, ok := p.workers[assign[i]]; ok && w.WeeklyLoad == 18 {
			cost++
		}
	}
	return cost
}

// nightIntervalCost counts same-worker night pairs with starts within 48h.
func (p *problem) nightIntervalCost(assign []int64) int64 {
	return p.nightPairCost(assign, func(startGap, dayGap int) bool {
		return startGap <= 48
	})
}

// consecutiveNightCost counts back-to-back nights on adjacent days whose
// starts are under 96h apart.
func (p *problem) consecutiveNightCost(assign []int64) int64 {
	return p.nightPairCost(assign, func(startGap, dayGap int) bool {
		return dayGap == 1 && startGap < 96
	})
}

func (p *problem) nightPairCost(assign []int64, hit func(startGap, dayGap int) bool) int64 {
	var nights []int
	for i, s := range p.slots {
		if s.Shift.IsNight() {
			nights = append(nights, i)
		}
	}
	var cost int64
	for a := 0; a < len(nights); a++ {
		for b := a + 1; b < len(nights); b++ {
			i, j := nights[a], nights[b]
			if assign[i] == 0 || assign[i] != assign[j] {
				continue
			}
			startGap := p.slots[j].startHour() - p.slots[i].startHour()
			dayGap := p.slots[j].dayIdx - p.slots[i].dayIdx
			if startGap > 96 {
				break
			}
			if hit(startGap, dayGap) {
				cost++
			}
		}
	}
	return cost
}

// loadCost sums per-week deviations from each roster worker's weekly load.
func (p *problem) loadCost(assign []int64) int64 {
	var cost int64
	for _, wk := range p.weeks {
		hours := make(map[int64]int)
		for i := wk.first; i <= wk.last; i++ {
			hours[assign[i]] += p.slots[i].Shift.Hours()
		}
		for _, w := range p.roster {
			dev := hours[w.ID] - w.WeeklyLoad
			if dev < 0 {
				dev = -dev
			}
			cost += int64(dev)
		}
	}
	return cost
}

// dowEquityCost balances per-weekday shift counts across the roster,
// including carried history, with the same scaled-deviation measure as
// equityCost.
func (p *problem) dowEquityCost(assign []int64) int64 {
	totals := p.windowCounters(assign)
	n := int64(len(p.roster))
	var cost int64
	for d := 0; d < 7; d++ {
		var sum int64
		for _, w := range p.roster {
			sum += totals[w.ID].DayOfWeek[d]
		}
		var maxDev int64
		for _, w := range p.roster {
			dev := n*totals[w.ID].DayOfWeek[d] - sum
			if dev < 0 {
				dev = -dev
			}
			if dev > maxDev {
				maxDev = dev
			}
		}
		cost += maxDev
	}
	return cost
}

// tiebreakCost prefers lower (id, name) workers when all else ties.
func (p *problem) tiebreakCost(assign []int64) int64 {
	var cost int64
	for _, id := range assign {
		cost += p.ranks[id]
	}
	return cost
}
