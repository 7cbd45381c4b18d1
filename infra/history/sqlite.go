// Package history provides the SQLite-backed store for scheduled weeks.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/escaladev/escala/core/equity"
	corehistory "github.com/escaladev/escala/core/history"
	"github.com/escaladev/escala/core/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS weeks (
	iso_year INTEGER NOT NULL,
	iso_week INTEGER NOT NULL,
	PRIMARY KEY (iso_year, iso_week)
);
CREATE TABLE IF NOT EXISTS assignments (
	iso_year  INTEGER NOT NULL,
	iso_week  INTEGER NOT NULL,
	day       TEXT    NOT NULL,
	shift     TEXT    NOT NULL,
	worker_id INTEGER NOT NULL,
	PRIMARY KEY (day, shift)
);
CREATE TABLE IF NOT EXISTS week_hours (
	iso_year  INTEGER NOT NULL,
	iso_week  INTEGER NOT NULL,
	worker_id INTEGER NOT NULL,
	worked    INTEGER NOT NULL,
	overtime  INTEGER NOT NULL,
	undertime INTEGER NOT NULL,
	PRIMARY KEY (iso_year, iso_week, worker_id)
);
CREATE TABLE IF NOT EXISTS week_counters (
	iso_year  INTEGER NOT NULL,
	iso_week  INTEGER NOT NULL,
	worker_id INTEGER NOT NULL,
	kind      TEXT    NOT NULL,
	idx       INTEGER NOT NULL,
	n         INTEGER NOT NULL,
	PRIMARY KEY (iso_year, iso_week, worker_id, kind, idx)
);
`

// SQLiteStore implements the history store on a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

var _ corehistory.Store = (*SQLiteStore)(nil)

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) LoadWeek(week model.ISOWeek) (corehistory.Record, bool, error) {
	var exists int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM weeks WHERE iso_year = ? AND iso_week = ?`,
		week.Year, week.Week).Scan(&exists)
	if err != nil {
		return corehistory.Record{}, false, fmt.Errorf("load week %s: %w", week, err)
	}
	if exists == 0 {
		return corehistory.Record{}, false, nil
	}

	rec := corehistory.Record{
		Week:     week,
		Hours:    make(map[int64]model.WeeklyHours),
		Counters: make(map[int64]equity.Counters),
	}
	rows, err := s.db.Query(`SELECT day, shift, worker_id FROM assignments
		WHERE iso_year = ? AND iso_week = ? ORDER BY day, shift`, week.Year, week.Week)
	if err != nil {
		return corehistory.Record{}, false, fmt.Errorf("load assignments for %s: %w", week, err)
	}
	defer rows.Close()
	for rows.Next() {
		var day, shift string
		var workerID int64
		if err := rows.Scan(&day, &shift, &workerID); err != nil {
			return corehistory.Record{}, false, err
		}
		d, err := model.ParseDate(day)
		if err != nil {
			return corehistory.Record{}, false, fmt.Errorf("stored day %q: %w", day, err)
		}
		sh, err := model.ParseShift(shift)
		if err != nil {
			return corehistory.Record{}, false, fmt.Errorf("stored shift %q: %w", shift, err)
		}
		rec.Assignments = append(rec.Assignments, model.Assignment{Date: d, Shift: sh, WorkerID: workerID})
	}
	if err := rows.Err(); err != nil {
		return corehistory.Record{}, false, err
	}

	hourRows, err := s.db.Query(`SELECT worker_id, worked, overtime, undertime FROM week_hours
		WHERE iso_year = ? AND iso_week = ?`, week.Year, week.Week)
	if err != nil {
		return corehistory.Record{}, false, fmt.Errorf("load hours for %s: %w", week, err)
	}
	defer hourRows.Close()
	for hourRows.Next() {
		var workerID int64
		var h model.WeeklyHours
		if err := hourRows.Scan(&workerID, &h.Worked, &h.Overtime, &h.Undertime); err != nil {
			return corehistory.Record{}, false, err
		}
		rec.Hours[workerID] = h
	}
	if err := hourRows.Err(); err != nil {
		return corehistory.Record{}, false, err
	}

	counterRows, err := s.db.Query(`SELECT worker_id, kind, idx, n FROM week_counters
		WHERE iso_year = ? AND iso_week = ?`, week.Year, week.Week)
	if err != nil {
		return corehistory.Record{}, false, fmt.Errorf("load counters for %s: %w", week, err)
	}
	defer counterRows.Close()
	for counterRows.Next() {
		var workerID, n int64
		var kind string
		var idx int
		if err := counterRows.Scan(&workerID, &kind, &idx, &n); err != nil {
			return corehistory.Record{}, false, err
		}
		c := rec.Counters[workerID]
		switch {
		case kind == "category" && idx >= 0 && idx < int(equity.NumCategories):
			c.Categories[idx] = n
		case kind == "dow" && idx >= 0 && idx < 7:
			c.DayOfWeek[idx] = n
		default:
			return corehistory.Record{}, false, fmt.Errorf(
				"counters for %s: malformed row kind=%q idx=%d", week, kind, idx)
		}
		rec.Counters[workerID] = c
	}
	if err := counterRows.Err(); err != nil {
		return corehistory.Record{}, false, err
	}
	return rec, true, nil
}

func (s *SQLiteStore) ScheduledWeeks() ([]model.ISOWeek, error) {
	rows, err := s.db.Query(`SELECT iso_year, iso_week FROM weeks ORDER BY iso_year, iso_week`)
	if err != nil {
		return nil, fmt.Errorf("list weeks: %w", err)
	}
	defer rows.Close()
	var weeks []model.ISOWeek
	for rows.Next() {
		var w model.ISOWeek
		if err := rows.Scan(&w.Year, &w.Week); err != nil {
			return nil, err
		}
		weeks = append(weeks, w)
	}
	return weeks, rows.Err()
}

func (s *SQLiteStore) LoadTail(before time.Time, days int) ([]model.Assignment, error) {
	cutoff := model.Midnight(before)
	from := cutoff.AddDate(0, 0, -days)
	rows, err := s.db.Query(`SELECT day, shift, worker_id FROM assignments
		WHERE day >= ? AND day < ? ORDER BY day, shift`,
		from.Format(model.DateLayout), cutoff.Format(model.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("load tail before %s: %w", cutoff.Format(model.DateLayout), err)
	}
	defer rows.Close()
	var out []model.Assignment
	for rows.Next() {
		var day, shift string
		var workerID int64
		if err := rows.Scan(&day, &shift, &workerID); err != nil {
			return nil, err
		}
		d, err := model.ParseDate(day)
		if err != nil {
			return nil, fmt.Errorf("stored day %q: %w", day, err)
		}
		sh, err := model.ParseShift(shift)
		if err != nil {
			return nil, fmt.Errorf("stored shift %q: %w", shift, err)
		}
		out = append(out, model.Assignment{Date: d, Shift: sh, WorkerID: workerID})
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SumCounters(isoYear int) (map[int64]equity.Counters, error) {
	rows, err := s.db.Query(`SELECT worker_id, kind, idx, SUM(n) FROM week_counters
		WHERE iso_year = ? GROUP BY worker_id, kind, idx`, isoYear)
	if err != nil {
		return nil, fmt.Errorf("sum counters for %d: %w", isoYear, err)
	}
	defer rows.Close()
	sums := make(map[int64]equity.Counters)
	for rows.Next() {
		var workerID, n int64
		var kind string
		var idx int
		if err := rows.Scan(&workerID, &kind, &idx, &n); err != nil {
			return nil, err
		}
		c := sums[workerID]
		switch {
		case kind == "category" && idx >= 0 && idx < int(equity.NumCategories):
			c.Categories[idx] = n
		case kind == "dow" && idx >= 0 && idx < 7:
			c.DayOfWeek[idx] = n
		default:
			return nil, fmt.Errorf(
				"counter sums for %d: malformed row kind=%q idx=%d", isoYear, kind, idx)
		}
		sums[workerID] = c
	}
	return sums, rows.Err()
}

func (s *SQLiteStore) AppendWeek(rec corehistory.Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM weeks WHERE iso_year = ? AND iso_week = ?`,
		rec.Week.Year, rec.Week.Week).Scan(&exists); err != nil {
		return err
	}
	if exists > 0 {
		return fmt.Errorf("week %s already scheduled", rec.Week)
	}
	if _, err := tx.Exec(`INSERT INTO weeks (iso_year, iso_week) VALUES (?, ?)`,
		rec.Week.Year, rec.Week.Week); err != nil {
		return err
	}
	for _, a := range rec.Assignments {
		if _, err := tx.Exec(`INSERT INTO assignments (iso_year, iso_week, day, shift, worker_id)
			VALUES (?, ?, ?, ?, ?)`,
			rec.Week.Year, rec.Week.Week,
			model.Midnight(a.Date).Format(model.DateLayout), string(a.Shift), a.WorkerID); err != nil {
			return err
		}
	}
	for workerID, h := range rec.Hours {
		if _, err := tx.Exec(`INSERT INTO week_hours (iso_year, iso_week, worker_id, worked, overtime, undertime)
			VALUES (?, ?, ?, ?, ?, ?)`,
			rec.Week.Year, rec.Week.Week, workerID, h.Worked, h.Overtime, h.Undertime); err != nil {
			return err
		}
	}
	for workerID, c := range rec.Counters {
		for idx, n := range c.Categories {
			if n == 0 {
				continue
			}
			if _, err := tx.Exec(`INSERT INTO week_counters (iso_year, iso_week, worker_id, kind, idx, n)
				VALUES (?, ?, ?, 'category', ?, ?)`,
				rec.Week.Year, rec.Week.Week, workerID, idx, n); err != nil {
				return err
			}
		}
		for idx, n := range c.DayOfWeek {
			if n == 0 {
				continue
			}
			if _, err := tx.Exec(`INSERT INTO week_counters (iso_year, iso_week, worker_id, kind, idx, n)
				VALUES (?, ?, ?, 'dow', ?, ?)`,
				rec.Week.Year, rec.Week.Week, workerID, idx, n); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}
