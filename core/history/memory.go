package history

import (
	"fmt"
	"sort"
	"time"

	"github.com/escaladev/escala/core/equity"
	"github.com/escaladev/escala/core/model"
)

// MemoryStore is an in-memory Store, used by tests and library embedders.
type MemoryStore struct {
	records map[model.ISOWeek]Record
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[model.ISOWeek]Record)}
}

func (s *MemoryStore) LoadWeek(week model.ISOWeek) (Record, bool, error) {
	rec, ok := s.records[week]
	return rec, ok, nil
}

func (s *MemoryStore) ScheduledWeeks() ([]model.ISOWeek, error) {
	weeks := make([]model.ISOWeek, 0, len(s.records))
	for w := range s.records {
		weeks = append(weeks, w)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })
	return weeks, nil
}

func (s *MemoryStore) LoadTail(before time.Time, days int) ([]model.Assignment, error) {
	cutoff := model.Midnight(before)
	from := cutoff.AddDate(0, 0, -days)
	var out []model.Assignment
	for _, rec := range s.records {
		for _, a := range rec.Assignments {
			d := model.Midnight(a.Date)
			if !d.Before(from) && d.Before(cutoff) {
				out = append(out, a)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Shift < out[j].Shift
	})
	return out, nil
}

func (s *MemoryStore) SumCounters(isoYear int) (map[int64]equity.Counters, error) {
	sums := make(map[int64]equity.Counters)
	for week, rec := range s.records {
		if week.Year != isoYear {
			continue
		}
		for id, c := range rec.Counters {
			acc := sums[id]
			acc.Add(c)
			sums[id] = acc
		}
	}
	return sums, nil
}

func (s *MemoryStore) AppendWeek(rec Record) error {
	if _, exists := s.records[rec.Week]; exists {
		return fmt.Errorf("week %s already scheduled", rec.Week)
	}
	s.records[rec.Week] = rec
	return nil
}
