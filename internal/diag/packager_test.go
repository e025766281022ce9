package diag

import (
	"archive/zip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"agentenv/internal/config"
	"agentenv/internal/history"
)

// setupProvisionedSystem lays out a state dir, config dir, and project with a
// usable environment so every collection step has something to gather.
func setupProvisionedSystem(t *testing.T) (stateDir, projectDir string) {
	t.Helper()

	stateDir = t.TempDir()
	configDir := t.TempDir()
	projectDir = t.TempDir()
	jupyterDir := t.TempDir()
	t.Setenv("AGENTENV_STATE_DIR", stateDir)
	t.Setenv("AGENTENV_CONFIG_DIR", configDir)
	t.Setenv("JUPYTER_DATA_DIR", jupyterDir)

	logDir := filepath.Join(stateDir, "logs")
	if err := os.MkdirAll(logDir, 0o750); err != nil {
		t.Fatal(err)
	}
	logContent := "setup run\nGEMINI_API_KEY=" + testAPIKey + "\n"
	if err := os.WriteFile(filepath.Join(logDir, "agentenv.log"), []byte(logContent), 0o644); err != nil {
		t.Fatal(err)
	}

	userConfig := "logging:\n  level: info\napi_key: " + testAPIKey + "\n"
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(userConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	projectConfig := "python:\n  env_dir: .venv\n"
	if err := os.WriteFile(filepath.Join(projectDir, "agentenv.yaml"), []byte(projectConfig), 0o644); err != nil {
		t.Fatal(err)
	}

	binDir := filepath.Join(projectDir, ".venv", "bin")
	if err := os.MkdirAll(binDir, 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(binDir, "python"), []byte("#!/bin/sh\n"), 0o700); err != nil { // #nosec G306
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(jupyterDir, "kernels", "migration-agent"), 0o750); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(projectDir, ".env"), []byte("GEMINI_API_KEY="+testAPIKey+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	writer := history.NewWriter(filepath.Join(stateDir, history.HistoryFile))
	record := history.Record{RunID: "run-1", Timestamp: time.Now().UTC(), Ok: true}
	if err := writer.Append(record); err != nil {
		t.Fatal(err)
	}

	return stateDir, projectDir
}

func readZipEntry(t *testing.T, file *zip.File) []byte {
	t.Helper()
	reader, err := file.Open()
	if err != nil {
		t.Fatalf("Failed to open %s: %v", file.Name, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", file.Name, err)
	}
	return data
}

func TestPackager_CreatePackage(t *testing.T) {
	stateDir, projectDir := setupProvisionedSystem(t)
	outputPath := filepath.Join(t.TempDir(), "diag.zip")

	cfg := &Config{
		App:           config.DefaultConfig(),
		ProjectDir:    projectDir,
		LogDir:        filepath.Join(stateDir, "logs"),
		OutputPath:    outputPath,
		IncludeLogs:   true,
		IncludeConfig: true,
		HistoryLimit:  10,
		Version:       "0.3.0-test",
	}
	packager := NewPackager(cfg, zap.NewNop())

	zipPath, err := packager.CreatePackage()
	if err != nil {
		t.Fatalf("CreatePackage() error = %v", err)
	}

	if zipPath != outputPath {
		t.Errorf("Expected output path %s, got %s", outputPath, zipPath)
	}

	zipReader, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("Failed to open ZIP: %v", err)
	}
	defer zipReader.Close()

	expectedFiles := map[string]bool{
		"logs/agentenv.log":    false,
		"config/config.yaml":   false,
		"config/agentenv.yaml": false,
		"system_info.json":     false,
		"environment.json":     false,
		"history.jsonl":        false,
		"diag_manifest.json":   false,
	}

	entries := make(map[string][]byte)
	for _, f := range zipReader.File {
		if _, expected := expectedFiles[f.Name]; expected {
			expectedFiles[f.Name] = true
		}
		entries[f.Name] = readZipEntry(t, f)
	}

	for name, found := range expectedFiles {
		if !found {
			t.Errorf("Expected file %s not found in ZIP", name)
		}
	}

	// Nothing in the bundle may carry the configured key value.
	for name, content := range entries {
		if strings.Contains(string(content), testAPIKey) {
			t.Errorf("Secret leaked into bundle file %s", name)
		}
	}

	if !strings.Contains(string(entries["config/config.yaml"]), "[REDACTED]") {
		t.Error("Redaction marker not found in config")
	}
	if !strings.Contains(string(entries["logs/agentenv.log"]), "[REDACTED]") {
		t.Error("Redaction marker not found in log file")
	}

	var manifest Manifest
	if err := json.Unmarshal(entries["diag_manifest.json"], &manifest); err != nil {
		t.Fatalf("Failed to decode manifest: %v", err)
	}

	if manifest.AgentenvVersion != "0.3.0-test" {
		t.Errorf("Expected version 0.3.0-test, got %s", manifest.AgentenvVersion)
	}
	if manifest.Timestamp == "" {
		t.Error("Manifest timestamp is empty")
	}
	if manifest.Host == "" {
		t.Error("Manifest host is empty")
	}
	if len(manifest.Files) != len(entries)-1 {
		t.Errorf("Expected %d files in manifest, got %d", len(entries)-1, len(manifest.Files))
	}

	// Every manifest checksum must match the packaged content.
	for _, mf := range manifest.Files {
		content, exists := entries[mf.Path]
		if !exists {
			t.Errorf("Manifest lists %s but ZIP does not contain it", mf.Path)
			continue
		}
		if mf.SHA256 != CalculateSHA256(content) {
			t.Errorf("Checksum mismatch for %s", mf.Path)
		}
		if mf.SizeBytes != int64(len(content)) {
			t.Errorf("Size mismatch for %s", mf.Path)
		}
	}
}

func TestPackager_CreatePackage_PartialFailure(t *testing.T) {
	t.Setenv("AGENTENV_STATE_DIR", t.TempDir())
	t.Setenv("AGENTENV_CONFIG_DIR", filepath.Join(t.TempDir(), "absent"))
	t.Setenv("JUPYTER_DATA_DIR", t.TempDir())

	outputPath := filepath.Join(t.TempDir(), "diag.zip")

	// Nothing to collect beyond system info and the environment report.
	cfg := &Config{
		App:           config.DefaultConfig(),
		ProjectDir:    filepath.Join(t.TempDir(), "no-project"),
		LogDir:        filepath.Join(t.TempDir(), "no-logs"),
		OutputPath:    outputPath,
		IncludeLogs:   true,
		IncludeConfig: true,
		HistoryLimit:  10,
		Version:       "0.3.0-test",
	}
	packager := NewPackager(cfg, zap.NewNop())

	zipPath, err := packager.CreatePackage()
	if err != nil {
		t.Fatalf("CreatePackage() should not fail with missing sources: %v", err)
	}

	zipReader, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("Failed to open ZIP: %v", err)
	}
	defer zipReader.Close()

	got := make(map[string]bool)
	for _, f := range zipReader.File {
		got[f.Name] = true
	}

	for _, name := range []string{"system_info.json", "environment.json", "diag_manifest.json"} {
		if !got[name] {
			t.Errorf("%s should be present even with missing sources", name)
		}
	}
	if len(got) != 3 {
		t.Errorf("Expected 3 files in partial bundle, got %d", len(got))
	}
}

func TestNewConfig(t *testing.T) {
	stateDir := t.TempDir()
	t.Setenv("AGENTENV_STATE_DIR", stateDir)

	cfg := NewConfig(config.DefaultConfig(), "/work/project", "1.0.0")

	if cfg.Version != "1.0.0" {
		t.Errorf("Expected version 1.0.0, got %s", cfg.Version)
	}
	if cfg.ProjectDir != "/work/project" {
		t.Errorf("Expected project dir /work/project, got %s", cfg.ProjectDir)
	}
	if cfg.LogDir != filepath.Join(stateDir, "logs") {
		t.Errorf("Expected log dir under the state directory, got %s", cfg.LogDir)
	}
	if !cfg.IncludeLogs {
		t.Error("Expected IncludeLogs to be true by default")
	}
	if !cfg.IncludeConfig {
		t.Error("Expected IncludeConfig to be true by default")
	}
	if cfg.HistoryLimit != 20 {
		t.Errorf("Expected history limit 20, got %d", cfg.HistoryLimit)
	}
	if !strings.HasPrefix(cfg.OutputPath, "agentenv-diag-") {
		t.Errorf("Expected output path to start with 'agentenv-diag-', got %s", cfg.OutputPath)
	}
	if !strings.HasSuffix(cfg.OutputPath, ".zip") {
		t.Errorf("Expected output path to end with '.zip', got %s", cfg.OutputPath)
	}
}
