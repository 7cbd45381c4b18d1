// Package export renders a solved schedule for external consumers.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/escaladev/escala/core/model"
)

// Entry is one exported schedule row.
type Entry struct {
	Date   string `json:"date"`
	Shift  string `json:"shift"`
	Worker int64  `json:"worker"`
	Name   string `json:"name"`
}

// Entries flattens assignments into export rows, resolving worker names.
func Entries(assignments []model.Assignment, names map[int64]string) []Entry {
	out := make([]Entry, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, Entry{
			Date:   model.Midnight(a.Date).Format(model.DateLayout),
			Shift:  string(a.Shift),
			Worker: a.WorkerID,
			Name:   names[a.WorkerID],
		})
	}
	return out
}

// WriteJSON writes the schedule to w in JSON format.
func WriteJSON(w io.Writer, entries []Entry) error {
	enc := json.NewEncoder(w)
	return enc.Encode(entries)
}

// WriteCSV writes the schedule to w in CSV format.
func WriteCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "shift", "worker_id", "worker_name"}); err != nil {
		return err
	}
	for _, e := range entries {
		rec := []string{
			e.Date,
			e.Shift,
			strconv.FormatInt(e.Worker, 10),
			e.Name,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
