package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/escaladev/escala/core/equity"
	"github.com/escaladev/escala/core/model"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	data := `history:
  path: "test.db"
roster:
  - id: 1
    name: "Ana"
    weekly_load: 12
    nights: true
    unavailable:
      - "2025-09-01"
      - "2025-09-08 to 2025-09-10"
      - "2025-09-15 N"
  - id: 2
    name: "Bruno"
    weekly_load: 18
    nights: false
holidays:
  - "2025-12-08"
pinned:
  - date: "2025-09-05"
    shift: "M2"
    worker: 2
overrides:
  - worker: 1
    category: "saturday_night"
    delta: 2
solver:
  max_nodes: 1000
  timeout_seconds: 10
metrics:
  sinks:
    - type: "nop"
`
	cfg, err := Load(writeConfig(t, "config.yaml", data))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.History.Path != "test.db" {
		t.Fatalf("history path: %s", cfg.History.Path)
	}

	workers, blocked, warnings := cfg.Workers()
	if len(warnings) != 0 {
		t.Fatalf("warnings: %v", warnings)
	}
	if len(workers) != 2 || workers[1].WeeklyLoad != 18 || workers[1].Nights {
		t.Fatalf("workers: %+v", workers)
	}
	if !workers[0].Unavailable.Has(model.Date(2025, time.September, 1)) ||
		!workers[0].Unavailable.Has(model.Date(2025, time.September, 9)) ||
		workers[0].Unavailable.Has(model.Date(2025, time.September, 15)) {
		t.Fatalf("unavailability: %+v", workers[0].Unavailable)
	}
	if len(blocked) != 1 || blocked[0].WorkerID != 1 || blocked[0].Shift != model.ShiftNight {
		t.Fatalf("blocked: %+v", blocked)
	}

	holidays, warnings := cfg.HolidaySet()
	if len(warnings) != 0 || !holidays.Has(model.Date(2025, time.December, 8)) {
		t.Fatalf("holidays: %v %v", holidays, warnings)
	}

	pins, warnings := Slots(cfg.Pinned)
	if len(warnings) != 0 || len(pins) != 1 || pins[0].WorkerID != 2 || pins[0].Shift != model.ShiftDayLong {
		t.Fatalf("pins: %v %v", pins, warnings)
	}

	overrides, warnings := cfg.EquityOverrides()
	if len(warnings) != 0 || overrides[1][equity.SaturdayNight].Delta != 2 {
		t.Fatalf("overrides: %v %v", overrides, warnings)
	}

	budget := cfg.Solver.Budget()
	if budget.MaxNodes != 1000 || budget.Timeout != 10*time.Second {
		t.Fatalf("budget: %+v", budget)
	}
	if len(cfg.Metrics.Sinks) != 1 || cfg.Metrics.Sinks[0].Type != "nop" {
		t.Fatalf("metrics: %+v", cfg.Metrics.Sinks)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ESCALA_HISTORY__PATH", "/tmp/env.db")
	data := `roster:
  - id: 1
    name: "Ana"
    weekly_load: 12
`
	cfg, err := Load(writeConfig(t, "config.yaml", data))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.History.Path != "/tmp/env.db" {
		t.Fatalf("env override not applied: %s", cfg.History.Path)
	}
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	if _, err := Load(writeConfig(t, "config.toml", "x = 1")); err == nil {
		t.Fatal("unknown format accepted")
	}
}

func TestLoadRejectsEmptyRoster(t *testing.T) {
	if _, err := Load(writeConfig(t, "config.yaml", "history:\n  path: a.db\n")); err == nil {
		t.Fatal("empty roster accepted")
	}
}

func TestWorkersSkipsMalformedEntries(t *testing.T) {
	cfg := &Config{Roster: []WorkerConfig{{
		ID:          1,
		Name:        "Ana",
		WeeklyLoad:  12,
		Unavailable: []string{"not-a-date", "2025-09-01 X", "2025-09-02"},
	}}}
	workers, _, warnings := cfg.Workers()
	if len(warnings) != 2 {
		t.Fatalf("got %d warnings: %v", len(warnings), warnings)
	}
	if !workers[0].Unavailable.Has(model.Date(2025, time.September, 2)) {
		t.Fatal("valid entry dropped")
	}
}
