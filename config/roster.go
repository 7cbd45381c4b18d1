package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/escaladev/escala/core/equity"
	"github.com/escaladev/escala/core/model"
)

// WorkerConfig describes one roster member.
type WorkerConfig struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	WeeklyLoad int    `json:"weekly_load"`
	Nights     bool   `json:"nights"`
	// Unavailable lists absence entries: a single day ("2025-09-01"), an
	// inclusive range ("2025-09-01 to 2025-09-14"), or a single shift on a
	// day ("2025-09-01 N"). Shift entries block only that slot.
	Unavailable []string `json:"unavailable"`
}

// SlotConfig names one (day, shift, worker) triple, used for pinned and
// blocked assignments.
type SlotConfig struct {
	Date   string `json:"date"`
	Shift  string `json:"shift"`
	Worker int64  `json:"worker"`
}

// OverrideConfig adjusts one worker's accumulated equity category.
type OverrideConfig struct {
	Worker   int64  `json:"worker"`
	Category string `json:"category"`
	Clear    bool   `json:"clear"`
	Delta    int64  `json:"delta"`
}

// Workers converts the roster configuration into model workers plus the
// per-shift blocks encoded in unavailability entries. Malformed entries are
// skipped and reported as warnings instead of failing the run.
func (c *Config) Workers() ([]model.Worker, []model.Assignment, []string) {
	var warnings []string
	var blocked []model.Assignment
	workers := make([]model.Worker, 0, len(c.Roster))
	for _, wc := range c.Roster {
		w := model.Worker{
			ID:          wc.ID,
			Name:        wc.Name,
			WeeklyLoad:  wc.WeeklyLoad,
			Nights:      wc.Nights,
			Unavailable: model.NewDateSet(),
		}
		for _, entry := range wc.Unavailable {
			days, block, err := parseUnavailability(entry)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("worker %s: %v", wc.Name, err))
				continue
			}
			for _, d := range days {
				w.Unavailable.Add(d)
			}
			if block != nil {
				block.WorkerID = wc.ID
				blocked = append(blocked, *block)
			}
		}
		workers = append(workers, w)
	}
	return workers, blocked, warnings
}

func parseUnavailability(entry string) ([]time.Time, *model.Assignment, error) {
	entry = strings.TrimSpace(entry)
	if from, to, ok := strings.Cut(entry, " to "); ok {
		start, err := model.ParseDate(strings.TrimSpace(from))
		if err != nil {
			return nil, nil, fmt.Errorf("bad range start in %q: %w", entry, err)
		}
		end, err := model.ParseDate(strings.TrimSpace(to))
		if err != nil {
			return nil, nil, fmt.Errorf("bad range end in %q: %w", entry, err)
		}
		if end.Before(start) {
			return nil, nil, fmt.Errorf("range %q ends before it starts", entry)
		}
		var days []time.Time
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			days = append(days, d)
		}
		return days, nil, nil
	}
	fields := strings.Fields(entry)
	switch len(fields) {
	case 1:
		d, err := model.ParseDate(fields[0])
		if err != nil {
			return nil, nil, fmt.Errorf("bad date %q: %w", entry, err)
		}
		return []time.Time{d}, nil, nil
	case 2:
		d, err := model.ParseDate(fields[0])
		if err != nil {
			return nil, nil, fmt.Errorf("bad date in %q: %w", entry, err)
		}
		sh, err := model.ParseShift(fields[1])
		if err != nil {
			return nil, nil, fmt.Errorf("bad shift in %q: %w", entry, err)
		}
		return nil, &model.Assignment{Date: d, Shift: sh}, nil
	default:
		return nil, nil, fmt.Errorf("unparseable unavailability %q", entry)
	}
}

// HolidaySet parses the configured holiday list. An empty list returns nil so
// the engine falls back to the computed national holidays.
func (c *Config) HolidaySet() (model.DateSet, []string) {
	if len(c.Holidays) == 0 {
		return nil, nil
	}
	var warnings []string
	set := model.NewDateSet()
	for _, s := range c.Holidays {
		d, err := model.ParseDate(strings.TrimSpace(s))
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("holiday: %v", err))
			continue
		}
		set.Add(d)
	}
	return set, warnings
}

// Slots parses the configured pinned or blocked slot list.
func Slots(entries []SlotConfig) ([]model.Assignment, []string) {
	var warnings []string
	out := make([]model.Assignment, 0, len(entries))
	for _, e := range entries {
		d, err := model.ParseDate(e.Date)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("slot %s: %v", e.Date, err))
			continue
		}
		sh, err := model.ParseShift(e.Shift)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("slot %s: %v", e.Date, err))
			continue
		}
		out = append(out, model.Assignment{Date: d, Shift: sh, WorkerID: e.Worker})
	}
	return out, warnings
}

// EquityOverrides converts the configured adjustments into per-worker
// category overrides.
func (c *Config) EquityOverrides() (map[int64]map[equity.Category]equity.Override, []string) {
	if len(c.Overrides) == 0 {
		return nil, nil
	}
	var warnings []string
	out := make(map[int64]map[equity.Category]equity.Override)
	for _, o := range c.Overrides {
		cat, err := equity.ParseCategory(o.Category)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("override for worker %d: %v", o.Worker, err))
			continue
		}
		if out[o.Worker] == nil {
			out[o.Worker] = make(map[equity.Category]equity.Override)
		}
		out[o.Worker][cat] = equity.Override{Clear: o.Clear, Delta: o.Delta}
	}
	return out, warnings
}
