package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/escaladev/escala/core/model"
)

func sampleEntries() []Entry {
	assignments := []model.Assignment{
		{Date: model.Date(2025, time.September, 1), Shift: model.ShiftDayShort, WorkerID: 1},
		{Date: model.Date(2025, time.September, 1), Shift: model.ShiftNight, WorkerID: 2},
	}
	return Entries(assignments, map[int64]string{1: "Ana", 2: "Bruno"})
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleEntries()); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines: %q", len(lines), buf.String())
	}
	if lines[1] != "2025-09-01,M1,1,Ana" {
		t.Fatalf("row: %q", lines[1])
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleEntries()); err != nil {
		t.Fatalf("write: %v", err)
	}
	var got []Entry
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 2 || got[1].Name != "Bruno" || got[1].Shift != "N" {
		t.Fatalf("entries: %+v", got)
	}
}
