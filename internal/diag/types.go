package diag

import (
	"path/filepath"
	"time"

	"agentenv/internal/config"
	"agentenv/internal/fsutil"
)

// Manifest represents the diagnostic bundle manifest
type Manifest struct {
	Timestamp       string         `json:"timestamp"`
	Host            string         `json:"host"`
	AgentenvVersion string         `json:"agentenv_version"`
	Files           []ManifestFile `json:"files"`
}

// ManifestFile represents a file in the diagnostic bundle
type ManifestFile struct {
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
	SHA256    string `json:"sha256"`
}

// Config configures diagnostic collection
type Config struct {
	// App is the effective application configuration for the project.
	App           config.Config
	ProjectDir    string
	LogDir        string
	OutputPath    string
	IncludeLogs   bool
	IncludeConfig bool
	HistoryLimit  int
	Version       string
}

// NewConfig creates a default diagnostic config for a project
func NewConfig(app config.Config, projectDir, version string) *Config {
	return &Config{
		App:           app,
		ProjectDir:    projectDir,
		LogDir:        filepath.Join(fsutil.StateDir(), "logs"),
		OutputPath:    generateOutputPath(),
		IncludeLogs:   true,
		IncludeConfig: true,
		HistoryLimit:  20,
		Version:       version,
	}
}

func generateOutputPath() string {
	timestamp := time.Now().UTC().Format("20060102-150405")
	return "agentenv-diag-" + timestamp + ".zip"
}
