package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"agentenv/internal/config"
	"agentenv/internal/envfile"
	"agentenv/internal/fsutil"
	"agentenv/internal/history"
	"agentenv/internal/pyenv"
)

// statusDebounce coalesces bursts of file events into one re-render.
const statusDebounce = 250 * time.Millisecond

var statusWatch bool

// statusCmd reports the environment state without changing anything
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the environment state without changing anything",
	Long: `Inspects the virtual environment, the notebook kernel, the secrets file
and the last recorded setup run, and prints a one-page summary. Purely
read-only.

With --watch the summary is re-rendered whenever the project directory,
the configuration or the run history changes.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "Re-render on file changes until interrupted")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	renderStatus(os.Stdout)
	if !statusWatch {
		return nil
	}
	return watchStatus()
}

// renderStatus writes the one-page environment summary.
func renderStatus(w io.Writer) {
	fmt.Fprintln(w, "=== Environment Status ===")
	fmt.Fprintf(w, "Project:     %s\n", projectDir)

	envDir := filepath.Join(projectDir, cfg.Python.EnvDir)
	env, err := pyenv.Activate(envDir)
	if err != nil {
		fmt.Fprintf(w, "Environment: ✗ %v\n", err)
		fmt.Fprintln(w, "             Run 'agentenv setup' to provision it.")
	} else {
		fmt.Fprintf(w, "Environment: ✓ %s\n", env.Root)
		fmt.Fprintf(w, "Python:      %s\n", env.Python)
	}

	if cfg.Kernel.Register {
		if pyenv.KernelRegistered(cfg.Kernel.Name) {
			fmt.Fprintf(w, "Kernel:      ✓ %s registered\n", cfg.Kernel.Name)
		} else {
			fmt.Fprintf(w, "Kernel:      ✗ %s not registered\n", cfg.Kernel.Name)
		}
	} else {
		fmt.Fprintln(w, "Kernel:      registration disabled")
	}

	secretsPath := filepath.Join(projectDir, cfg.Secrets.File)
	state := envfile.Inspect(secretsPath, cfg.Secrets.KeyName, cfg.Secrets.Placeholder)
	if state == envfile.StateConfigured {
		fmt.Fprintf(w, "Secrets:     ✓ %s (%s)\n", state, cfg.Secrets.File)
	} else {
		fmt.Fprintf(w, "Secrets:     ✗ %s (%s)\n", state, cfg.Secrets.File)
	}

	records, err := history.ReadLast(history.DefaultPath(), 1)
	switch {
	case err != nil:
		fmt.Fprintf(w, "Last setup:  history unreadable (%v)\n", err)
	case len(records) == 0:
		fmt.Fprintln(w, "Last setup:  no runs recorded")
	default:
		last := records[len(records)-1]
		outcome := "ok"
		if !last.Ok {
			outcome = "failed"
		}
		fmt.Fprintf(w, "Last setup:  %s at %s\n", outcome, last.Timestamp.Local().Format("2006-01-02 15:04"))
	}
}

// watchStatus re-renders the summary on relevant file changes until the
// process is interrupted.
func watchStatus() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	// The watch is non-recursive; the directories below cover everything
	// the summary is derived from.
	watchDirs := []string{
		projectDir,
		filepath.Dir(config.UserConfigPath()),
		fsutil.StateDir(),
	}
	for _, dir := range watchDirs {
		if err := watcher.Add(dir); err != nil {
			logger.Debug("not watching directory", zap.String("dir", dir), zap.Error(err))
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Println()
	fmt.Println("Watching for changes. Press Ctrl+C to stop.")

	debounce := time.NewTimer(statusDebounce)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if statusRelevant(event) {
				debounce.Reset(statusDebounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("file watcher error", zap.Error(err))
		case <-debounce.C:
			fmt.Println()
			fmt.Printf("--- %s ---\n", time.Now().Format("15:04:05"))
			renderStatus(os.Stdout)
		}
	}
}

// statusRelevant filters watcher events down to the files the summary
// actually reads.
func statusRelevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}

	switch filepath.Base(event.Name) {
	case filepath.Base(cfg.Python.EnvDir),
		filepath.Base(cfg.Secrets.File),
		filepath.Base(config.ProjectConfigPath(projectDir)),
		filepath.Base(config.UserConfigPath()),
		history.HistoryFile:
		return true
	}
	return false
}
