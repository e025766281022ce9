package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultStatePermissions is the default permission for state directories
	DefaultStatePermissions = 0o750
	// DefaultFilePermissions is the default permission for state files
	DefaultFilePermissions = 0o600
)

// StateDir resolves the directory agentenv keeps its state in (run history,
// logs, key stash, UI state). Order: AGENTENV_STATE_DIR, XDG_STATE_HOME,
// ~/.local/state/agentenv, with a working-directory fallback when no home
// can be determined.
func StateDir() string {
	if env := os.Getenv("AGENTENV_STATE_DIR"); env != "" {
		if abs, err := filepath.Abs(env); err == nil {
			return abs
		}
		return env
	}
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "agentenv")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", "agentenv")
	}
	return ".agentenv-state"
}

// EnsureStateDirectory creates the state directory if it doesn't exist.
// It uses DefaultStatePermissions (0o750) for the directory.
func EnsureStateDirectory(path string) error {
	if err := os.MkdirAll(path, DefaultStatePermissions); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	return nil
}

// AtomicWriteFile writes data to a file atomically by first writing to a temp
// file and then renaming it to the target path. This ensures the file is never
// partially written.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmpPath := path + ".tmp"

	if err := os.WriteFile(tmpPath, data, perm); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		// Best-effort cleanup of the orphaned temp file.
		if removeErr := os.Remove(tmpPath); removeErr != nil && !os.IsNotExist(removeErr) {
			return fmt.Errorf("failed to rename file: %w (temp file left at %s)", err, tmpPath)
		}
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}
