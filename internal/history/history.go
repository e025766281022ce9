// Package history persists setup run outcomes as an append-only JSONL file
// in the state directory, one record per run.
package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"agentenv/internal/bootstrap"
	"agentenv/internal/fsutil"
)

// HistoryFile is the file name used inside the state directory.
const HistoryFile = "history.jsonl"

// Record is one persisted setup run.
type Record struct {
	RunID      string       `json:"run_id"`
	Timestamp  time.Time    `json:"timestamp"`
	ProjectDir string       `json:"project_dir"`
	Created    bool         `json:"created"`
	Ok         bool         `json:"ok"`
	Secrets    string       `json:"secrets"`
	DurationMs int64        `json:"duration_ms"`
	Steps      []StepRecord `json:"steps"`
}

// StepRecord is one step outcome within a run.
type StepRecord struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Detail     string `json:"detail,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// FromReport converts a setup report into a persistable record.
func FromReport(report *bootstrap.Report) Record {
	record := Record{
		RunID:      report.RunID,
		Timestamp:  report.StartedAt.UTC(),
		ProjectDir: report.ProjectDir,
		Created:    report.Created,
		Ok:         report.Ok(),
		Secrets:    report.Secrets,
		DurationMs: report.Duration.Milliseconds(),
		Steps:      make([]StepRecord, 0, len(report.Steps)),
	}
	for _, step := range report.Steps {
		record.Steps = append(record.Steps, StepRecord{
			Name:       step.Name,
			Status:     step.Status,
			Detail:     step.Detail,
			Error:      step.Err,
			DurationMs: step.Duration.Milliseconds(),
		})
	}
	return record
}

// DefaultPath returns the history file location inside the state directory.
func DefaultPath() string {
	return filepath.Join(fsutil.StateDir(), HistoryFile)
}

// Writer appends run records to a JSONL history file.
type Writer struct {
	path string
}

// NewWriter creates a writer for the given history file path.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Append writes one record as a JSON line, creating the file and its parent
// directory as needed.
func (w *Writer) Append(record Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal history record: %w", err)
	}
	data = append(data, '\n')

	if err := fsutil.EnsureStateDirectory(filepath.Dir(w.path)); err != nil {
		return err
	}

	file, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) // #nosec G302 G304
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("failed to write history record: %w", err)
	}
	return nil
}

// ReadLast returns up to n most recent records, oldest first. A missing
// history file yields an empty slice. Corrupt lines are skipped so a
// truncated write cannot block later reads.
func ReadLast(path string, n int) ([]Record, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("failed to open history file: %w", err)
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record Record
		if err := json.Unmarshal(line, &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	if n > 0 && len(records) > n {
		records = records[len(records)-n:]
	}
	return records, nil
}
