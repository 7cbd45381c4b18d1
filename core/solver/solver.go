// Package solver provides a generic discrete assignment solver: exhaustive
// backtracking for feasibility followed by deterministic local search under a
// lexicographic cost vector.
package solver

import (
	"context"
	"errors"
	"time"
)

// Problem is the contract a model must satisfy. Slots are assigned values
// (positive int64 identifiers) in index order; 0 marks an unassigned slot.
type Problem interface {
	// Slots returns the number of decision slots.
	Slots() int
	// Domain returns the candidate values for a slot in deterministic
	// order. An empty domain makes the problem infeasible.
	Domain(slot int) []int64
	// Accept reports whether the prefix assignment up to and including
	// slot violates no hard constraint. Slots after the given index are
	// unassigned (0).
	Accept(assign []int64, slot int) bool
	// Valid reports whether a complete assignment satisfies every hard
	// constraint, including those only checkable on full assignments.
	Valid(assign []int64) bool
	// Cost evaluates a complete, valid assignment as a lexicographic
	// vector; lower is better, compared component by component.
	Cost(assign []int64) []int64
}

// Status classifies a solve outcome.
type Status int

const (
	// StatusOptimal means the search converged: no neighboring
	// assignment improves the cost.
	StatusOptimal Status = iota
	// StatusFeasible means a legal assignment was found but the budget
	// expired before the search converged.
	StatusFeasible
	// StatusInfeasible means the full search space was exhausted without
	// a legal assignment.
	StatusInfeasible
	// StatusError means the budget expired before feasibility could be
	// decided.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	case StatusInfeasible:
		return "infeasible"
	default:
		return "error"
	}
}

// ErrBudgetExhausted reports an inconclusive search.
var ErrBudgetExhausted = errors.New("solver budget exhausted before feasibility was decided")

// Config bounds the search effort.
type Config struct {
	// MaxNodes caps the number of explored candidates; 0 means a large
	// default.
	MaxNodes int64
	// Timeout caps wall time; 0 means a default of 30s.
	Timeout time.Duration
}

const (
	defaultMaxNodes = 20_000_000
	defaultTimeout  = 30 * time.Second
)

// Result carries the solve outcome and search statistics.
type Result struct {
	Status  Status
	Assign  []int64
	Cost    []int64
	Nodes   int64
	Elapsed time.Duration
	Err     error
}

// Less compares two lexicographic cost vectors.
func Less(a, b []int64) bool {
	for i := range a {
		if i >= len(b) {
			return false
		}
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

type budget struct {
	deadline time.Time
	maxNodes int64
	nodes    int64
	ctx      context.Context
}

func (b *budget) spent() bool {
	if b.nodes >= b.maxNodes {
		return true
	}
	if b.nodes%1024 == 0 {
		if b.ctx.Err() != nil || time.Now().After(b.deadline) {
			return true
		}
	}
	return false
}

// Solve searches the problem within the given budget. The first phase proves
// feasibility or infeasibility by chronological backtracking; the second
// improves the incumbent by single-slot reassignments and pairwise swaps
// until no neighbor improves the cost. Identical inputs yield identical
// results.
func Solve(ctx context.Context, p Problem, cfg Config) Result {
	start := time.Now()
	if cfg.MaxNodes <= 0 {
		cfg.MaxNodes = defaultMaxNodes
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	b := &budget{deadline: start.Add(cfg.Timeout), maxNodes: cfg.MaxNodes, ctx: ctx}

	n := p.Slots()
	assign := make([]int64, n)
	status := backtrack(p, assign, b)
	if status != StatusOptimal {
		return Result{Status: status, Nodes: b.nodes, Elapsed: time.Since(start), Err: statusErr(status)}
	}

	cost := p.Cost(assign)
	converged := improve(p, assign, &cost, b)
	res := Result{Assign: assign, Cost: cost, Nodes: b.nodes, Elapsed: time.Since(start)}
	if converged {
		res.Status = StatusOptimal
	} else {
		res.Status = StatusFeasible
	}
	return res
}

func statusErr(s Status) error {
	if s == StatusError {
		return ErrBudgetExhausted
	}
	return nil
}

// backtrack fills assign in slot order. Returns StatusOptimal when a valid
// assignment is found, StatusInfeasible when the space is exhausted, and
// StatusError when the budget ran out first.
func backtrack(p Problem, assign []int64, b *budget) Status {
	n := len(assign)
	if n == 0 {
		if p.Valid(assign) {
			return StatusOptimal
		}
		return StatusInfeasible
	}
	// next[i] is the index into Domain(i) to try next.
	next := make([]int, n)
	slot := 0
	for {
		if b.spent() {
			return StatusError
		}
		domain := p.Domain(slot)
		advanced := false
		for next[slot] < len(domain) {
			v := domain[next[slot]]
			next[slot]++
			b.nodes++
			assign[slot] = v
			if p.Accept(assign, slot) {
				advanced = true
				break
			}
			assign[slot] = 0
			if b.spent() {
				return StatusError
			}
		}
		if !advanced {
			// Exhausted this slot: backtrack.
			assign[slot] = 0
			next[slot] = 0
			slot--
			if slot < 0 {
				return StatusInfeasible
			}
			assign[slot] = 0
			continue
		}
		slot++
		if slot == n {
			if p.Valid(assign) {
				return StatusOptimal
			}
			// Full assignment failed the whole-solution checks; undo
			// the last slot and keep searching.
			slot--
			assign[slot] = 0
		}
	}
}

// improve runs first-improvement local search over single-slot reassignments
// and pairwise swaps. Returns true when a full pass found no improvement.
func improve(p Problem, assign []int64, cost *[]int64, b *budget) bool {
	n := len(assign)
	candidate := make([]int64, n)
	for {
		improved := false
		for slot := 0; slot < n && !improved; slot++ {
			for _, v := range p.Domain(slot) {
				if v == assign[slot] {
					continue
				}
				if b.spent() {
					return false
				}
				b.nodes++
				copy(candidate, assign)
				candidate[slot] = v
				if !p.Valid(candidate) {
					continue
				}
				c := p.Cost(candidate)
				if Less(c, *cost) {
					copy(assign, candidate)
					*cost = c
					improved = true
					break
				}
			}
		}
		if improved {
			continue
		}
		for i := 0; i < n && !improved; i++ {
			for j := i + 1; j < n; j++ {
				if assign[i] == assign[j] {
					continue
				}
				if !inDomain(p.Domain(i), assign[j]) || !inDomain(p.Domain(j), assign[i]) {
					continue
				}
				if b.spent() {
					return false
				}
				b.nodes++
				copy(candidate, assign)
				candidate[i], candidate[j] = candidate[j], candidate[i]
				if !p.Valid(candidate) {
					continue
				}
				c := p.Cost(candidate)
				if Less(c, *cost) {
					copy(assign, candidate)
					*cost = c
					improved = true
					break
				}
			}
		}
		if !improved {
			return true
		}
	}
}

func inDomain(domain []int64, v int64) bool {
	for _, d := range domain {
		if d == v {
			return true
		}
	}
	return false
}
