// Package engine plans one month of shift assignments: it builds the
// constraint model for the scheduling window, drives the solver, and merges
// the result with already-scheduled weeks from history.
package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/escaladev/escala/core/calendar"
	"github.com/escaladev/escala/core/equity"
	"github.com/escaladev/escala/core/history"
	"github.com/escaladev/escala/core/logger"
	"github.com/escaladev/escala/core/metrics"
	"github.com/escaladev/escala/core/model"
	"github.com/escaladev/escala/core/solver"
)

// tailLookbackDays covers rest and previous-weekend checks at the window's
// leading boundary.
const tailLookbackDays = 7

// Request is one scheduling run's frozen input snapshot.
type Request struct {
	Year      int
	Month     time.Month
	Workers   []model.Worker
	Holidays  model.DateSet // computed for the window when nil
	Overrides map[int64]map[equity.Category]equity.Override
	Pinned    []model.Assignment
	Blocked   []model.Assignment
	Budget    solver.Config
}

// Diagnostics describes how a run went.
type Diagnostics struct {
	RunID        string
	SolverStatus solver.Status
	Nodes        int64
	Elapsed      time.Duration
	Warnings     []string
	// Spread is the per-category standard deviation of year-to-date
	// totals after this run.
	Spread map[equity.Category]float64
}

// Result is a successful run's output. NewRecords must be persisted by the
// caller.
type Result struct {
	Assignments []model.Assignment
	NewRecords  []history.Record
	Counters    map[int64]equity.Counters
	Diagnostics Diagnostics
}

// Planner runs scheduling against a history store.
type Planner struct {
	store history.Store
	log   logger.Logger
	sink  metrics.Sink
}

// Option customizes a Planner.
type Option func(*Planner)

// WithLogger sets the run logger.
func WithLogger(l logger.Logger) Option { return func(p *Planner) { p.log = l } }

// WithMetrics sets the metrics sink.
func WithMetrics(s metrics.Sink) Option { return func(p *Planner) { p.sink = s } }

// New builds a Planner on the given history store.
func New(store history.Store, opts ...Option) *Planner {
	p := &Planner{store: store, log: logger.Nop{}, sink: metrics.NopSink{}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan solves the request's window. Already-scheduled weeks are copied
// verbatim; the remaining weeks are solved under the hard constraints and
// the lexicographic soft-rule ordering. Failures are *model.ValidationError,
// *InfeasibleError or *SolverError.
func (pl *Planner) Plan(ctx context.Context, req Request) (*Result, error) {
	runID := uuid.NewString()
	if err := model.ValidateRoster(req.Workers); err != nil {
		return nil, err
	}
	if req.Month < time.January || req.Month > time.December {
		return nil, &model.ValidationError{Field: "month", Reason: fmt.Sprintf("out of range: %d", req.Month)}
	}
	holidays := req.Holidays
	if holidays == nil {
		holidays = calendar.HolidaysForWindow(req.Year, req.Month)
	}

	weeks := calendar.WeeksOverlapping(req.Year, req.Month)
	windowStart := weeks[0].Monday()
	pl.log.Infof("run %s: planning %04d-%02d, window %s..%s",
		runID, req.Year, req.Month, weeks[0], weeks[len(weeks)-1])

	recorded := make(map[model.ISOWeek]history.Record)
	for _, w := range weeks {
		rec, ok, err := pl.store.LoadWeek(w)
		if err != nil {
			return nil, fmt.Errorf("load week %s: %w", w, err)
		}
		if ok {
			recorded[w] = rec
		}
	}
	tail, err := pl.store.LoadTail(windowStart, tailLookbackDays)
	if err != nil {
		return nil, fmt.Errorf("load history tail: %w", err)
	}
	sums, err := pl.store.SumCounters(req.Year)
	if err != nil {
		return nil, fmt.Errorf("sum equity counters: %w", err)
	}
	base := equityBase(req, weeks, recorded, sums)

	var warnings []string
	warn := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		warnings = append(warnings, msg)
		pl.log.Warnf("run %s: %s", runID, msg)
	}
	p := buildProblem(req, holidays, recorded, tail, base, warn)

	for i, domain := range p.domains {
		if len(domain) == 0 {
			s := p.slots[i]
			week := p.weeks[s.week].week
			pl.sink.RecordRun("infeasible", 0, 0)
			return nil, &InfeasibleError{
				Week:   &week,
				Date:   s.Date,
				Shift:  s.Shift,
				Reason: "no eligible worker for this slot",
			}
		}
	}

	res := solver.Solve(ctx, p, req.Budget)
	pl.sink.RecordRun(res.Status.String(), res.Nodes, res.Elapsed)
	switch res.Status {
	case solver.StatusInfeasible:
		return nil, &InfeasibleError{Reason: fmt.Sprintf(
			"no assignment satisfies the hard constraints for weeks %s..%s",
			weeks[0], weeks[len(weeks)-1])}
	case solver.StatusError:
		return nil, &SolverError{Err: res.Err}
	}
	pl.log.Infof("run %s: solver %s after %d nodes in %s", runID, res.Status, res.Nodes, res.Elapsed)

	out := assemble(req, p, res.Assign, recorded, holidays, sums)
	out.Diagnostics = Diagnostics{
		RunID:        runID,
		SolverStatus: res.Status,
		Nodes:        res.Nodes,
		Elapsed:      res.Elapsed,
		Warnings:     warnings,
		Spread:       spread(req.Workers, out.Counters),
	}
	return out, nil
}

// equityBase carries year-to-date counters into the run: persisted sums for
// the ISO year minus the window weeks already recorded (they are re-counted
// from the model), plus absence credits and manual overrides.
func equityBase(req Request, weeks []model.ISOWeek, recorded map[model.ISOWeek]history.Record,
	sums map[int64]equity.Counters) map[int64]equity.Counters {

	base := make(map[int64]equity.Counters, len(req.Workers))
	for _, w := range req.Workers {
		c := sums[w.ID]
		for _, week := range weeks {
			rec, ok := recorded[week]
			if !ok || week.Year != req.Year {
				continue
			}
			if wc, ok := rec.Counters[w.ID]; ok {
				for i := range c.Categories {
					c.Categories[i] -= wc.Categories[i]
				}
				for i := range c.DayOfWeek {
					c.DayOfWeek[i] -= wc.DayOfWeek[i]
				}
			}
		}
		c.Add(equity.Credits(w, req.Year, req.Month))
		equity.ApplyOverrides(&c, req.Overrides[w.ID])
		base[w.ID] = c
	}
	return base
}

// assemble turns the solved vector into the output assignment set, new
// history records for freshly solved weeks, and post-run counters.
func assemble(req Request, p *problem, assign []int64,
	recorded map[model.ISOWeek]history.Record, holidays model.DateSet,
	sums map[int64]equity.Counters) *Result {

	out := &Result{Counters: make(map[int64]equity.Counters, len(req.Workers))}
	loads := make(map[int64]int, len(req.Workers))
	for _, w := range req.Workers {
		loads[w.ID] = w.WeeklyLoad
	}

	for _, wk := range p.weeks {
		weekAssignments := make([]model.Assignment, 0, wk.last-wk.first+1)
		for i := wk.first; i <= wk.last; i++ {
			weekAssignments = append(weekAssignments, model.Assignment{
				Date:     p.slots[i].Date,
				Shift:    p.slots[i].Shift,
				WorkerID: assign[i],
			})
		}
		out.Assignments = append(out.Assignments, weekAssignments...)
		if _, ok := recorded[wk.week]; ok {
			continue
		}
		rec := history.Record{
			Week:        wk.week,
			Assignments: weekAssignments,
			Hours:       make(map[int64]model.WeeklyHours),
			Counters:    make(map[int64]equity.Counters),
		}
		byWorker := make(map[int64][]model.Assignment)
		for _, a := range weekAssignments {
			byWorker[a.WorkerID] = append(byWorker[a.WorkerID], a)
		}
		for id, list := range byWorker {
			load, ok := loads[id]
			if !ok {
				load = 12
			}
			rec.Hours[id] = model.HoursFor(load, list)
			var c equity.Counters
			for _, a := range list {
				c.Record(a.Date, a.Shift, holidays)
			}
			rec.Counters[id] = c
		}
		out.NewRecords = append(out.NewRecords, rec)
	}
	sort.Slice(out.Assignments, func(i, j int) bool {
		a, b := out.Assignments[i], out.Assignments[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Shift < b.Shift
	})

	// Post-run year-to-date counters: persisted history plus the window,
	// without credits or overrides (those are re-derived each run).
	counted := make(map[int64]equity.Counters, len(req.Workers))
	for _, w := range req.Workers {
		c := sums[w.ID]
		for _, rec := range out.NewRecords {
			if rec.Week.Year != req.Year {
				continue
			}
			if wc, ok := rec.Counters[w.ID]; ok {
				c.Add(wc)
			}
		}
		counted[w.ID] = c
	}
	out.Counters = counted
	return out
}

// spread summarizes per-category imbalance as a standard deviation across
// the roster.
func spread(workers []model.Worker, counters map[int64]equity.Counters) map[equity.Category]float64 {
	out := make(map[equity.Category]float64, equity.NumCategories)
	for cat := equity.Category(0); cat < equity.NumCategories; cat++ {
		vals := make([]float64, 0, len(workers))
		for _, w := range workers {
			vals = append(vals, float64(counters[w.ID].Categories[cat]))
		}
		out[cat] = stat.StdDev(vals, nil)
	}
	return out
}
