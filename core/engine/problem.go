package engine

import (
	"time"

	"github.com/escaladev/escala/core/calendar"
	"github.com/escaladev/escala/core/equity"
	"github.com/escaladev/escala/core/history"
	"github.com/escaladev/escala/core/model"
)

// slotInfo is one (date, shift) decision of the window.
type slotInfo struct {
	Date    time.Time
	Shift   model.ShiftKind
	week    int // index into problem.weeks
	dayIdx  int // day offset from the window's first Monday
	weekday bool
	fixed   bool // already scheduled, domain pinned to history
}

func (s slotInfo) startHour() int { return s.dayIdx*24 + s.Shift.StartHour() }
func (s slotInfo) endHour() int   { return s.dayIdx*24 + s.Shift.EndHour() }

// weekSlots groups the slot range and per-week metadata of one ISO week.
type weekSlots struct {
	week     model.ISOWeek
	first    int
	last     int
	fixed    bool
	eligible []int64 // roster IDs with at least one available weekday, ascending
	// weekend Sat/Sun of this week is covered by a three-day holiday span
	weekendSuppressed bool
}

// problem models the whole scheduling window: already-scheduled weeks are
// pinned through singleton domains, remaining weeks carry the full filtered
// candidate set.
type problem struct {
	roster   []model.Worker
	workers  map[int64]model.Worker
	ranks    map[int64]int64
	holidays model.DateSet
	month    time.Month

	slots   []slotInfo
	domains [][]int64
	weeks   []weekSlots

	// Three-day holiday spans, each three consecutive days. Days before
	// the window resolve against the history tail.
	spans [][3]time.Time

	// Equity base per roster worker: carried year-to-date counters plus
	// absence credits and manual overrides.
	base map[int64]equity.Counters

	// History assignments strictly before the window, for rest and
	// weekend lookback at the boundary.
	tail []model.Assignment
}

func (p *problem) Slots() int           { return len(p.slots) }
func (p *problem) Domain(i int) []int64 { return p.domains[i] }

// restConflict reports whether two shifts of one worker are too close:
// overlapping, or separated by less than 24h end to start.
func restConflict(a, b slotInfo) bool {
	if a.startHour() > b.startHour() {
		a, b = b, a
	}
	if b.startHour() < a.endHour() {
		return true
	}
	return b.startHour()-a.endHour() < 24
}

// tailConflict checks a slot against a worker's pre-window assignment.
func tailConflict(t model.Assignment, s slotInfo, windowStart time.Time) bool {
	dayIdx := int(model.Midnight(t.Date).Sub(windowStart).Hours() / 24)
	prev := slotInfo{Shift: t.Shift, dayIdx: dayIdx}
	return restConflict(prev, s)
}

// Accept enforces the prefix-checkable hard constraints for the newly
// assigned slot k, plus admissible week-level pruning.
func (p *problem) Accept(assign []int64, k int) bool {
	v := assign[k]
	s := p.slots[k]
	for j := k - 1; j >= 0; j-- {
		o := p.slots[j]
		if s.dayIdx-o.dayIdx > 2 {
			break
		}
		if assign[j] != v {
			continue
		}
		if o.dayIdx == s.dayIdx {
			return false // one shift per worker per day
		}
		if restConflict(o, s) {
			return false
		}
	}
	return p.weekPrune(assign, k)
}

// weekPrune rejects prefixes that can no longer satisfy weekly participation
// or weekday distribution ordering.
func (p *problem) weekPrune(assign []int64, k int) bool {
	wk := p.weeks[p.slots[k].week]
	if wk.fixed {
		return true
	}
	if k == wk.last {
		return p.weekValid(assign, wk)
	}
	remaining := wk.last - k
	assignedInWeek := make(map[int64]bool)
	weekdayCount := make(map[int64]int)
	remainingWeekday := 0
	for i := wk.first; i <= wk.last; i++ {
		if i <= k {
			assignedInWeek[assign[i]] = true
			if p.slots[i].weekday {
				weekdayCount[assign[i]]++
			}
		} else if p.slots[i].weekday {
			remainingWeekday++
		}
	}
	missing := 0
	missingWeekday := 0
	for _, id := range wk.eligible {
		if !assignedInWeek[id] {
			missing++
		}
		if weekdayCount[id] == 0 {
			missingWeekday++
		}
	}
	if missing > remaining {
		return false
	}
	// A second weekday shift is only reachable if the workers still
	// without one can all be served afterwards.
	if p.slots[k].weekday && weekdayCount[assign[k]] >= 2 && missingWeekday > remainingWeekday {
		return false
	}
	return true
}

// weekValid runs the exact week-complete checks. Recorded weeks are copied
// verbatim and never re-judged against the current roster; only their slots
// being filled matters.
func (p *problem) weekValid(assign []int64, wk weekSlots) bool {
	for i := wk.first; i <= wk.last; i++ {
		if assign[i] == 0 {
			return false
		}
	}
	if wk.fixed {
		return true
	}
	assignedInWeek := make(map[int64]bool)
	weekdayCount := make(map[int64]int)
	maxWeekday := 0
	for i := wk.first; i <= wk.last; i++ {
		assignedInWeek[assign[i]] = true
		if p.slots[i].weekday {
			weekdayCount[assign[i]]++
			if weekdayCount[assign[i]] > maxWeekday {
				maxWeekday = weekdayCount[assign[i]]
			}
		}
	}
	for _, id := range wk.eligible {
		if !assignedInWeek[id] {
			return false
		}
	}
	if maxWeekday >= 2 {
		for _, id := range wk.eligible {
			if weekdayCount[id] == 0 {
				return false
			}
		}
	}
	return true
}

// Valid re-checks every hard constraint on a complete assignment.
func (p *problem) Valid(assign []int64) bool {
	for k := range p.slots {
		v := assign[k]
		if v == 0 {
			return false
		}
		s := p.slots[k]
		for j := k - 1; j >= 0; j-- {
			o := p.slots[j]
			if s.dayIdx-o.dayIdx > 2 {
				break
			}
			if assign[j] != v {
				continue
			}
			if o.dayIdx == s.dayIdx || restConflict(o, s) {
				return false
			}
		}
	}
	for _, wk := range p.weeks {
		if !p.weekValid(assign, wk) {
			return false
		}
	}
	return true
}

// buildProblem assembles slots, domains and metadata for the window.
func buildProblem(req Request, holidays model.DateSet, recorded map[model.ISOWeek]history.Record,
	tail []model.Assignment, base map[int64]equity.Counters, warn func(format string, args ...any)) *problem {

	weeks := calendar.WeeksOverlapping(req.Year, req.Month)
	windowStart := weeks[0].Monday()

	p := &problem{
		roster:   req.Workers,
		workers:  make(map[int64]model.Worker, len(req.Workers)),
		ranks:    model.RankWorkers(req.Workers),
		holidays: holidays,
		month:    req.Month,
		base:     base,
		tail:     tail,
	}
	for _, w := range req.Workers {
		p.workers[w.ID] = w
	}

	pinned := make(map[string]int64)
	blocked := make(map[string]map[int64]bool)
	slotKey := func(d time.Time, sh model.ShiftKind) string {
		return model.Midnight(d).Format(model.DateLayout) + "|" + string(sh)
	}
	inWindow := func(d time.Time) bool {
		dd := model.Midnight(d)
		return !dd.Before(windowStart) && dd.Before(windowStart.AddDate(0, 0, 7*len(weeks)))
	}
	for _, pin := range req.Pinned {
		if !inWindow(pin.Date) {
			warn("pinned assignment %s %s is outside the window", pin.Date.Format(model.DateLayout), pin.Shift)
			continue
		}
		if _, fixed := recorded[model.ISOWeekOf(pin.Date)]; fixed {
			warn("pinned assignment %s %s targets an already scheduled week", pin.Date.Format(model.DateLayout), pin.Shift)
			continue
		}
		pinned[slotKey(pin.Date, pin.Shift)] = pin.WorkerID
	}
	for _, blk := range req.Blocked {
		if !inWindow(blk.Date) {
			warn("blocked assignment %s %s is outside the window", blk.Date.Format(model.DateLayout), blk.Shift)
			continue
		}
		if _, fixed := recorded[model.ISOWeekOf(blk.Date)]; fixed {
			warn("blocked assignment %s %s targets an already scheduled week", blk.Date.Format(model.DateLayout), blk.Shift)
			continue
		}
		key := slotKey(blk.Date, blk.Shift)
		if blocked[key] == nil {
			blocked[key] = make(map[int64]bool)
		}
		blocked[key][blk.WorkerID] = true
	}

	fixedWorker := make(map[string]int64)
	for _, rec := range recorded {
		for _, a := range rec.Assignments {
			fixedWorker[slotKey(a.Date, a.Shift)] = a.WorkerID
		}
	}

	for wi, week := range weeks {
		_, isFixed := recorded[week]
		ws := weekSlots{week: week, first: len(p.slots), fixed: isFixed}
		for _, w := range req.Workers {
			if !calendar.IsVacationWeek(w, week) {
				ws.eligible = append(ws.eligible, w.ID)
			}
		}
		for di, day := range week.Days() {
			dayIdx := wi*7 + di
			for _, shift := range model.Shifts() {
				s := slotInfo{
					Date:    day,
					Shift:   shift,
					week:    wi,
					dayIdx:  dayIdx,
					weekday: di < 5,
					fixed:   isFixed,
				}
				key := slotKey(day, shift)
				var domain []int64
				if isFixed {
					if id, ok := fixedWorker[key]; ok {
						domain = []int64{id}
					}
				} else {
					pinID, hasPin := pinned[key]
					for _, w := range req.Workers {
						if hasPin && w.ID != pinID {
							continue
						}
						if w.Unavailable.Has(day) {
							continue
						}
						if shift.IsNight() && !w.Nights {
							continue
						}
						if blocked[key][w.ID] {
							continue
						}
						if conflictsWithTail(tail, w.ID, s, windowStart) {
							continue
						}
						domain = append(domain, w.ID)
					}
				}
				p.slots = append(p.slots, s)
				p.domains = append(p.domains, domain)
			}
		}
		ws.last = len(p.slots) - 1
		p.weeks = append(p.weeks, ws)
	}

	p.detectSpans(windowStart, len(weeks))
	return p
}

func conflictsWithTail(tail []model.Assignment, workerID int64, s slotInfo, windowStart time.Time) bool {
	for _, t := range tail {
		if t.WorkerID != workerID {
			continue
		}
		if tailConflict(t, s, windowStart) {
			return true
		}
	}
	return false
}

// detectSpans finds three-day holiday weekends: a Friday holiday spans
// Fri-Sat-Sun, a Monday holiday spans Sat-Sun-Mon (reaching into the
// previous week, possibly before the window). Weeks whose weekend falls
// inside a span have their weekend-specific penalties suppressed.
func (p *problem) detectSpans(windowStart time.Time, numWeeks int) {
	windowEnd := windowStart.AddDate(0, 0, 7*numWeeks)
	spanDays := make(model.DateSet)
	for day := windowStart; day.Before(windowEnd); day = day.AddDate(0, 0, 1) {
		if !p.holidays.Has(day) {
			continue
		}
		var span [3]time.Time
		switch day.Weekday() {
		case time.Friday:
			span = [3]time.Time{day, day.AddDate(0, 0, 1), day.AddDate(0, 0, 2)}
		case time.Monday:
			span = [3]time.Time{day.AddDate(0, 0, -2), day.AddDate(0, 0, -1), day}
		default:
			continue
		}
		p.spans = append(p.spans, span)
		for _, d := range span {
			spanDays.Add(d)
		}
	}
	for i, wk := range p.weeks {
		sat := wk.week.Monday().AddDate(0, 0, 5)
		if spanDays.Has(sat) || spanDays.Has(sat.AddDate(0, 0, 1)) {
			p.weeks[i].weekendSuppressed = true
		}
	}
}
