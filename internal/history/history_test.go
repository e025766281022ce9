package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"agentenv/internal/bootstrap"
)

func sampleRecord(runID string) Record {
	return Record{
		RunID:      runID,
		Timestamp:  time.Now().UTC(),
		ProjectDir: "/work/migration-agent",
		Created:    true,
		Ok:         true,
		Secrets:    "configured",
		DurationMs: 1200,
		Steps: []StepRecord{
			{Name: bootstrap.StepEnsureEnv, Status: bootstrap.StatusOK, Detail: "created", DurationMs: 900},
			{Name: bootstrap.StepActivate, Status: bootstrap.StatusOK, DurationMs: 2},
		},
	}
}

func TestWriter_Append(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", HistoryFile)
	writer := NewWriter(path)

	if err := writer.Append(sampleRecord("run-1")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read history file: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("history has %d lines, want 1", len(lines))
	}

	var record Record
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("history line is not valid JSON: %v", err)
	}
	if record.RunID != "run-1" {
		t.Errorf("record.RunID = %q, want run-1", record.RunID)
	}
	if len(record.Steps) != 2 {
		t.Errorf("record has %d steps, want 2", len(record.Steps))
	}
}

func TestWriter_AppendMultiple(t *testing.T) {
	path := filepath.Join(t.TempDir(), HistoryFile)
	writer := NewWriter(path)

	for i := 0; i < 3; i++ {
		if err := writer.Append(sampleRecord("run")); err != nil {
			t.Fatalf("Append() %d error = %v", i, err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read history file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Errorf("history has %d lines, want 3", len(lines))
	}
}

func TestReadLast(t *testing.T) {
	path := filepath.Join(t.TempDir(), HistoryFile)
	writer := NewWriter(path)

	for _, id := range []string{"run-1", "run-2", "run-3"} {
		if err := writer.Append(sampleRecord(id)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	t.Run("limits to most recent", func(t *testing.T) {
		records, err := ReadLast(path, 2)
		if err != nil {
			t.Fatalf("ReadLast() error = %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("ReadLast() returned %d records, want 2", len(records))
		}
		if records[0].RunID != "run-2" || records[1].RunID != "run-3" {
			t.Errorf("ReadLast() order = %s, %s; want run-2, run-3", records[0].RunID, records[1].RunID)
		}
	})

	t.Run("zero means all", func(t *testing.T) {
		records, err := ReadLast(path, 0)
		if err != nil {
			t.Fatalf("ReadLast() error = %v", err)
		}
		if len(records) != 3 {
			t.Errorf("ReadLast() returned %d records, want 3", len(records))
		}
	})
}

func TestReadLast_MissingFile(t *testing.T) {
	records, err := ReadLast(filepath.Join(t.TempDir(), "nope.jsonl"), 5)
	if err != nil {
		t.Fatalf("ReadLast() error = %v, want nil for missing file", err)
	}
	if len(records) != 0 {
		t.Errorf("ReadLast() returned %d records for missing file", len(records))
	}
}

func TestReadLast_SkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), HistoryFile)
	writer := NewWriter(path)

	if err := writer.Append(sampleRecord("run-1")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("failed to open history: %v", err)
	}
	if _, err := file.WriteString("{truncated\n"); err != nil {
		t.Fatalf("failed to corrupt history: %v", err)
	}
	file.Close()

	if err := writer.Append(sampleRecord("run-2")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	records, err := ReadLast(path, 0)
	if err != nil {
		t.Fatalf("ReadLast() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("ReadLast() returned %d records, want 2 valid ones", len(records))
	}
	if records[0].RunID != "run-1" || records[1].RunID != "run-2" {
		t.Errorf("unexpected records: %s, %s", records[0].RunID, records[1].RunID)
	}
}

func TestFromReport(t *testing.T) {
	report := &bootstrap.Report{
		RunID:      "run-42",
		ProjectDir: "/work/project",
		StartedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Duration:   1500 * time.Millisecond,
		Created:    true,
		Secrets:    "placeholder",
		Steps: []bootstrap.StepResult{
			{Name: bootstrap.StepEnsureEnv, Status: bootstrap.StatusOK, Detail: "created", Duration: time.Second},
			{Name: bootstrap.StepInstallDeps, Status: bootstrap.StatusFailed, Err: "boom", Duration: 400 * time.Millisecond},
		},
	}

	record := FromReport(report)

	if record.RunID != "run-42" {
		t.Errorf("RunID = %q, want run-42", record.RunID)
	}
	if record.Ok {
		t.Error("Ok = true despite failed step")
	}
	if record.DurationMs != 1500 {
		t.Errorf("DurationMs = %d, want 1500", record.DurationMs)
	}
	if len(record.Steps) != 2 {
		t.Fatalf("record has %d steps, want 2", len(record.Steps))
	}
	if record.Steps[1].Error != "boom" {
		t.Errorf("step error = %q, want boom", record.Steps[1].Error)
	}
	if record.Steps[0].DurationMs != 1000 {
		t.Errorf("step duration = %d, want 1000", record.Steps[0].DurationMs)
	}
}
