package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/escaladev/escala/core/calendar"
	"github.com/escaladev/escala/core/equity"
	"github.com/escaladev/escala/core/history"
	"github.com/escaladev/escala/core/model"
	"github.com/escaladev/escala/core/solver"
)

func testRoster() []model.Worker {
	names := []string{"Ana", "Bruno", "Carla", "Diogo", "Eva", "Filipe"}
	workers := make([]model.Worker, 0, len(names))
	for i, n := range names {
		workers = append(workers, model.Worker{
			ID:         int64(i + 1),
			Name:       n,
			WeeklyLoad: 12,
			Nights:     true,
		})
	}
	return workers
}

// weekPattern is a hand-checked legal week for the six-worker roster: rows
// are Monday..Sunday, columns M1, M2, N. It also chains legally with itself
// across week boundaries.
var weekPattern = [7][3]int64{
	{1, 2, 3},
	{4, 5, 1},
	{2, 3, 4},
	{5, 6, 2},
	{1, 3, 4},
	{5, 6, 2},
	{3, 4, 5},
}

func patternRecord(t *testing.T, week model.ISOWeek, holidays model.DateSet) history.Record {
	t.Helper()
	rec := history.Record{
		Week:     week,
		Hours:    make(map[int64]model.WeeklyHours),
		Counters: make(map[int64]equity.Counters),
	}
	byWorker := make(map[int64][]model.Assignment)
	for di, day := range week.Days() {
		for si, shift := range model.Shifts() {
			a := model.Assignment{Date: day, Shift: shift, WorkerID: weekPattern[di][si]}
			rec.Assignments = append(rec.Assignments, a)
			byWorker[a.WorkerID] = append(byWorker[a.WorkerID], a)
		}
	}
	for id, list := range byWorker {
		rec.Hours[id] = model.HoursFor(12, list)
		var c equity.Counters
		for _, a := range list {
			c.Record(a.Date, a.Shift, holidays)
		}
		rec.Counters[id] = c
	}
	return rec
}

// checkHard verifies coverage, single shift per day, rest, night capability,
// weekly participation and weekday distribution on a planned window.
func checkHard(t *testing.T, roster []model.Worker, assignments []model.Assignment, weeks []model.ISOWeek) {
	t.Helper()
	workers := make(map[int64]model.Worker)
	for _, w := range roster {
		workers[w.ID] = w
	}

	seen := make(map[string]bool)
	for _, a := range assignments {
		key := a.Date.Format(model.DateLayout) + "|" + string(a.Shift)
		if seen[key] {
			t.Fatalf("slot %s assigned twice", key)
		}
		seen[key] = true
		w, ok := workers[a.WorkerID]
		if !ok {
			t.Fatalf("slot %s assigned to unknown worker %d", key, a.WorkerID)
		}
		if a.Shift.IsNight() && !w.Nights {
			t.Fatalf("night shift %s given to %s who cannot work nights", key, w.Name)
		}
		if w.Unavailable.Has(a.Date) {
			t.Fatalf("slot %s given to %s on an unavailable day", key, w.Name)
		}
	}
	if want := len(weeks) * 7 * len(model.Shifts()); len(assignments) != want {
		t.Fatalf("got %d assignments, want %d", len(assignments), want)
	}

	byWorker := make(map[int64][]model.Assignment)
	for _, a := range assignments {
		byWorker[a.WorkerID] = append(byWorker[a.WorkerID], a)
	}
	for id, list := range byWorker {
		for i := 0; i < len(list); i++ {
			for j := i + 1; j < len(list); j++ {
				a, b := list[i], list[j]
				if a.Start().After(b.Start()) {
					a, b = b, a
				}
				if model.Midnight(a.Date).Equal(model.Midnight(b.Date)) {
					t.Fatalf("worker %d works twice on %s", id, a.Date.Format(model.DateLayout))
				}
				if b.Start().Before(a.End()) {
					t.Fatalf("worker %d has overlapping shifts at %s", id, a.Date.Format(model.DateLayout))
				}
				if b.Start().Sub(a.End()) < 24*time.Hour {
					t.Fatalf("worker %d rests under 24h between %s %s and %s %s",
						id, a.Date.Format(model.DateLayout), a.Shift, b.Date.Format(model.DateLayout), b.Shift)
				}
			}
		}
	}

	for _, week := range weeks {
		assigned := make(map[int64]bool)
		weekday := make(map[int64]int)
		maxWeekday := 0
		for _, a := range assignments {
			if !week.Contains(a.Date) {
				continue
			}
			assigned[a.WorkerID] = true
			if wd := a.Date.Weekday(); wd != time.Saturday && wd != time.Sunday {
				weekday[a.WorkerID]++
				if weekday[a.WorkerID] > maxWeekday {
					maxWeekday = weekday[a.WorkerID]
				}
			}
		}
		for _, w := range roster {
			if calendar.IsVacationWeek(w, week) {
				continue
			}
			if !assigned[w.ID] {
				t.Fatalf("worker %s has no shift in week %s", w.Name, week)
			}
			if maxWeekday >= 2 && weekday[w.ID] == 0 {
				t.Fatalf("worker %s has no weekday shift in week %s while others have several", w.Name, week)
			}
		}
	}
}

func testBudget() solver.Config {
	return solver.Config{MaxNodes: 200_000, Timeout: 3 * time.Second}
}

func TestPlanMonth(t *testing.T) {
	pl := New(history.NewMemoryStore())
	res, err := pl.Plan(context.Background(), Request{
		Year:    2025,
		Month:   time.September,
		Workers: testRoster(),
		Budget:  testBudget(),
	})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	weeks := calendar.WeeksOverlapping(2025, time.September)
	checkHard(t, testRoster(), res.Assignments, weeks)
	if len(res.NewRecords) != len(weeks) {
		t.Fatalf("got %d new records, want %d", len(res.NewRecords), len(weeks))
	}
	if res.Diagnostics.RunID == "" {
		t.Fatal("missing run id")
	}
	if len(res.Diagnostics.Spread) != int(equity.NumCategories) {
		t.Fatalf("spread has %d categories", len(res.Diagnostics.Spread))
	}

	var total int64
	for _, c := range res.Counters {
		for _, n := range c.Categories {
			total += n
		}
	}
	if want := int64(len(weeks) * 21); total != want {
		t.Fatalf("counters sum to %d, want %d", total, want)
	}
}

func TestPlanKeepsRecordedWeeks(t *testing.T) {
	store := history.NewMemoryStore()
	holidays := calendar.HolidaysForWindow(2025, time.September)
	for _, week := range calendar.WeeksOverlapping(2025, time.September) {
		if err := store.AppendWeek(patternRecord(t, week, holidays)); err != nil {
			t.Fatalf("seed week %s: %v", week, err)
		}
	}

	pl := New(store)
	res, err := pl.Plan(context.Background(), Request{
		Year:    2025,
		Month:   time.October,
		Workers: testRoster(),
		Budget:  testBudget(),
	})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	weeks := calendar.WeeksOverlapping(2025, time.October)
	checkHard(t, testRoster(), res.Assignments, weeks)

	// Week 40 was scheduled during the September run and must be copied
	// verbatim.
	shared := weeks[0]
	got := make(map[string]int64)
	for _, a := range res.Assignments {
		if shared.Contains(a.Date) {
			got[a.Date.Format(model.DateLayout)+"|"+string(a.Shift)] = a.WorkerID
		}
	}
	for di, day := range shared.Days() {
		for si, shift := range model.Shifts() {
			key := day.Format(model.DateLayout) + "|" + string(shift)
			if got[key] != weekPattern[di][si] {
				t.Fatalf("slot %s changed: got %d, want %d", key, got[key], weekPattern[di][si])
			}
		}
	}
	if len(res.NewRecords) != len(weeks)-1 {
		t.Fatalf("got %d new records, want %d", len(res.NewRecords), len(weeks)-1)
	}
	for _, rec := range res.NewRecords {
		if rec.Week == shared {
			t.Fatalf("week %s was re-recorded", shared)
		}
	}
}

func TestPlanKeepsRecordedWeeksAfterRosterGrowth(t *testing.T) {
	store := history.NewMemoryStore()
	holidays := calendar.HolidaysForWindow(2025, time.September)
	for _, week := range calendar.WeeksOverlapping(2025, time.September) {
		if err := store.AppendWeek(patternRecord(t, week, holidays)); err != nil {
			t.Fatalf("seed week %s: %v", week, err)
		}
	}

	// Week 40 was recorded by a six-worker run; a seventh worker joining
	// afterwards must not invalidate it.
	roster := append(testRoster(), model.Worker{
		ID: 7, Name: "Gloria", WeeklyLoad: 12, Nights: true,
	})
	res, err := New(store).Plan(context.Background(), Request{
		Year:    2025,
		Month:   time.October,
		Workers: roster,
		Budget:  testBudget(),
	})
	if err != nil {
		t.Fatalf("plan with grown roster: %v", err)
	}

	weeks := calendar.WeeksOverlapping(2025, time.October)
	shared := weeks[0]
	got := make(map[string]int64)
	for _, a := range res.Assignments {
		if shared.Contains(a.Date) {
			got[a.Date.Format(model.DateLayout)+"|"+string(a.Shift)] = a.WorkerID
		}
	}
	for di, day := range shared.Days() {
		for si, shift := range model.Shifts() {
			key := day.Format(model.DateLayout) + "|" + string(shift)
			if got[key] != weekPattern[di][si] {
				t.Fatalf("slot %s changed: got %d, want %d", key, got[key], weekPattern[di][si])
			}
		}
	}
	for _, week := range weeks[1:] {
		found := false
		for _, a := range res.Assignments {
			if week.Contains(a.Date) && a.WorkerID == 7 {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("new worker has no shift in freshly solved week %s", week)
		}
	}
}

func TestPlanDeterministicReplay(t *testing.T) {
	store := history.NewMemoryStore()
	holidays := calendar.HolidaysForWindow(2025, time.September)
	weeks := calendar.WeeksOverlapping(2025, time.September)
	for _, week := range weeks[:len(weeks)-1] {
		if err := store.AppendWeek(patternRecord(t, week, holidays)); err != nil {
			t.Fatalf("seed week %s: %v", week, err)
		}
	}

	req := Request{
		Year:    2025,
		Month:   time.September,
		Workers: testRoster(),
		Budget:  solver.Config{MaxNodes: 500_000},
	}
	first, err := New(store).Plan(context.Background(), req)
	if err != nil {
		t.Fatalf("first plan: %v", err)
	}
	second, err := New(store).Plan(context.Background(), req)
	if err != nil {
		t.Fatalf("second plan: %v", err)
	}
	if first.Diagnostics.SolverStatus != second.Diagnostics.SolverStatus {
		t.Fatalf("statuses differ: %v vs %v",
			first.Diagnostics.SolverStatus, second.Diagnostics.SolverStatus)
	}
	if len(first.Assignments) != len(second.Assignments) {
		t.Fatalf("lengths differ: %d vs %d", len(first.Assignments), len(second.Assignments))
	}
	for i := range first.Assignments {
		if first.Assignments[i] != second.Assignments[i] {
			t.Fatalf("assignment %d differs: %+v vs %+v",
				i, first.Assignments[i], second.Assignments[i])
		}
	}
}

func TestPlanInfeasibleWithoutNightCover(t *testing.T) {
	roster := testRoster()
	for i := range roster {
		roster[i].Nights = false
	}
	pl := New(history.NewMemoryStore())
	_, err := pl.Plan(context.Background(), Request{
		Year:    2025,
		Month:   time.September,
		Workers: roster,
		Budget:  testBudget(),
	})
	var infErr *InfeasibleError
	if !errors.As(err, &infErr) {
		t.Fatalf("got %v, want InfeasibleError", err)
	}
	if infErr.Week == nil || infErr.Shift != model.ShiftNight {
		t.Fatalf("error does not localize the night slot: %v", infErr)
	}
}

func TestPlanRestAcrossWindowBoundary(t *testing.T) {
	store := history.NewMemoryStore()
	// Worker 1 ends a night at 08:00 on Monday September 1st.
	prev := model.ISOWeekOf(model.Date(2025, time.August, 31))
	err := store.AppendWeek(history.Record{
		Week: prev,
		Assignments: []model.Assignment{
			{Date: model.Date(2025, time.August, 31), Shift: model.ShiftNight, WorkerID: 1},
		},
		Hours:    map[int64]model.WeeklyHours{1: {Worked: 12}},
		Counters: map[int64]equity.Counters{},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, err := New(store).Plan(context.Background(), Request{
		Year:    2025,
		Month:   time.September,
		Workers: testRoster(),
		Budget:  testBudget(),
	})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	firstDay := model.Date(2025, time.September, 1)
	for _, a := range res.Assignments {
		if a.WorkerID == 1 && model.Midnight(a.Date).Equal(firstDay) {
			t.Fatalf("worker 1 works %s on September 1st without resting after the August 31st night", a.Shift)
		}
	}
}

func TestPlanPinnedAndBlocked(t *testing.T) {
	pinDay := model.Date(2025, time.September, 5)
	blockDay := model.Date(2025, time.September, 1)
	res, err := New(history.NewMemoryStore()).Plan(context.Background(), Request{
		Year:    2025,
		Month:   time.September,
		Workers: testRoster(),
		Pinned:  []model.Assignment{{Date: pinDay, Shift: model.ShiftDayLong, WorkerID: 6}},
		Blocked: []model.Assignment{{Date: blockDay, Shift: model.ShiftDayShort, WorkerID: 1}},
		Budget:  testBudget(),
	})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	for _, a := range res.Assignments {
		switch {
		case model.Midnight(a.Date).Equal(pinDay) && a.Shift == model.ShiftDayLong:
			if a.WorkerID != 6 {
				t.Fatalf("pinned slot got worker %d", a.WorkerID)
			}
		case model.Midnight(a.Date).Equal(blockDay) && a.Shift == model.ShiftDayShort:
			if a.WorkerID == 1 {
				t.Fatal("blocked slot still assigned to worker 1")
			}
		}
	}
}

func TestPlanWarnsOnUnusableTargets(t *testing.T) {
	store := history.NewMemoryStore()
	holidays := calendar.HolidaysForWindow(2025, time.September)
	recordedWeek := calendar.WeeksOverlapping(2025, time.September)[0]
	if err := store.AppendWeek(patternRecord(t, recordedWeek, holidays)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, err := New(store).Plan(context.Background(), Request{
		Year:    2025,
		Month:   time.September,
		Workers: testRoster(),
		Pinned: []model.Assignment{
			// Outside the window.
			{Date: model.Date(2025, time.August, 1), Shift: model.ShiftDayShort, WorkerID: 1},
			// Inside an already scheduled week.
			{Date: model.Date(2025, time.September, 2), Shift: model.ShiftDayShort, WorkerID: 2},
		},
		Budget: testBudget(),
	})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(res.Diagnostics.Warnings) != 2 {
		t.Fatalf("got %d warnings, want 2: %v", len(res.Diagnostics.Warnings), res.Diagnostics.Warnings)
	}
}

func TestPlanVacationWeek(t *testing.T) {
	roster := testRoster()
	off := model.NewDateSet()
	for d := 8; d <= 14; d++ {
		off.Add(model.Date(2025, time.September, d))
	}
	roster[5].Unavailable = off

	res, err := New(history.NewMemoryStore()).Plan(context.Background(), Request{
		Year:    2025,
		Month:   time.September,
		Workers: roster,
		Budget:  testBudget(),
	})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	checkHard(t, roster, res.Assignments, calendar.WeeksOverlapping(2025, time.September))
	for _, a := range res.Assignments {
		if a.WorkerID == 6 && off.Has(a.Date) {
			t.Fatalf("worker on vacation assigned %s %s", a.Date.Format(model.DateLayout), a.Shift)
		}
	}
}

func TestPlanRejectsBadInput(t *testing.T) {
	pl := New(history.NewMemoryStore())
	if _, err := pl.Plan(context.Background(), Request{Year: 2025, Month: time.September}); err == nil {
		t.Fatal("empty roster accepted")
	}
	var vErr *model.ValidationError
	_, err := pl.Plan(context.Background(), Request{Year: 2025, Month: 13, Workers: testRoster()})
	if !errors.As(err, &vErr) {
		t.Fatalf("got %v, want ValidationError", err)
	}

	// Zero-based IDs collide with the unassigned slot marker and must be
	// rejected up front instead of failing deep in the solver.
	zeroBased := testRoster()
	for i := range zeroBased {
		zeroBased[i].ID = int64(i)
	}
	_, err = pl.Plan(context.Background(), Request{
		Year: 2025, Month: time.September, Workers: zeroBased, Budget: testBudget(),
	})
	if !errors.As(err, &vErr) {
		t.Fatalf("got %v, want ValidationError for worker id 0", err)
	}
}

// sumCountingStore counts SumCounters calls and fails past a limit.
type sumCountingStore struct {
	*history.MemoryStore
	calls    int
	failFrom int
}

func (s *sumCountingStore) SumCounters(isoYear int) (map[int64]equity.Counters, error) {
	s.calls++
	if s.calls >= s.failFrom {
		return nil, errors.New("counter storage unavailable")
	}
	return s.MemoryStore.SumCounters(isoYear)
}

func TestPlanLoadsCounterSumsOnce(t *testing.T) {
	store := &sumCountingStore{MemoryStore: history.NewMemoryStore(), failFrom: 2}
	res, err := New(store).Plan(context.Background(), Request{
		Year:    2025,
		Month:   time.September,
		Workers: testRoster(),
		Budget:  testBudget(),
	})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if store.calls != 1 {
		t.Fatalf("counter sums loaded %d times, want 1", store.calls)
	}
	if len(res.Counters) != len(testRoster()) {
		t.Fatalf("counters missing: %v", res.Counters)
	}
}

func TestPlanFailsWhenCounterSumsUnavailable(t *testing.T) {
	store := &sumCountingStore{MemoryStore: history.NewMemoryStore(), failFrom: 1}
	_, err := New(store).Plan(context.Background(), Request{
		Year:    2025,
		Month:   time.September,
		Workers: testRoster(),
		Budget:  testBudget(),
	})
	if err == nil {
		t.Fatal("counter sum failure not propagated")
	}
}
