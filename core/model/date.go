package model

import "time"

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Date builds a UTC midnight timestamp for a calendar day. All dates
// handled by the engine are normalized this way.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Midnight truncates a timestamp to its UTC calendar day.
func Midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD token into a UTC midnight timestamp.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// DateSet is a set of calendar days keyed by their YYYY-MM-DD form.
type DateSet map[string]struct{}

// NewDateSet builds a set from the given days.
func NewDateSet(days ...time.Time) DateSet {
	s := make(DateSet, len(days))
	for _, d := range days {
		s.Add(d)
	}
	return s
}

// Add inserts a day into the set.
func (s DateSet) Add(t time.Time) { s[Midnight(t).Format(DateLayout)] = struct{}{} }

// Has reports whether the set contains the given day.
func (s DateSet) Has(t time.Time) bool {
	if s == nil {
		return false
	}
	_, ok := s[Midnight(t).Format(DateLayout)]
	return ok
}

// Union returns a new set containing the days of both sets.
func (s DateSet) Union(o DateSet) DateSet {
	out := make(DateSet, len(s)+len(o))
	for k := range s {
		out[k] = struct{}{}
	}
	for k := range o {
		out[k] = struct{}{}
	}
	return out
}
