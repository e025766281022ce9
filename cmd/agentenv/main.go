// Package main implements the agentenv command line interface.
//
// agentenv provisions and maintains the local development environment of
// the migration-agent project: a virtual environment pinned to the
// project's interpreter version, the project installed in editable mode,
// an optional Jupyter kernel and guidance for the secrets file (which
// agentenv inspects but never writes). Run without arguments it starts
// an interactive terminal interface; subcommands cover scripted use.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"agentenv/internal/config"
	"agentenv/internal/fsutil"
	"agentenv/internal/logging"
	"agentenv/internal/tui"
)

const (
	version = "0.1.0"
)

var (
	// Global flags
	verbose    bool
	projectDir string

	// Runtime state shared by all commands, populated in PersistentPreRunE.
	cfg    config.Config
	cfgErr error
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "agentenv",
	Short: "Environment bootstrapper for the migration-agent project",
	Long: `agentenv provisions everything the migration-agent needs to run locally:
a Python virtual environment pinned to the project's interpreter version,
the project installed in editable mode, an optional Jupyter notebook
kernel and guidance for the secrets file. The secrets file is inspected
but never written.

Run without arguments to start the interactive interface.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		abs, err := filepath.Abs(projectDir)
		if err != nil {
			return fmt.Errorf("failed to resolve project directory: %w", err)
		}
		projectDir = abs

		cfg, cfgErr = config.Load(projectDir)
		if cfgErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not load configuration: %v\n", cfgErr)
			fmt.Fprintln(os.Stderr, "Continuing with built-in defaults. Run 'agentenv config test' for details.")
			cfg = config.DefaultConfig()
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}

		logPath := filepath.Join(fsutil.StateDir(), "logs", "agentenv.log")
		logger, err = logging.BuildWithFile(level, logPath)
		if err != nil {
			// State directory not writable; log to stderr only.
			logger, err = logging.Build(level)
		}
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "project", "p", ".", "Project directory to bootstrap")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runTUI starts the interactive terminal interface.
func runTUI() error {
	logger.Info("interactive session started",
		zap.String("version", version),
		zap.String("project_dir", projectDir))

	p := tea.NewProgram(tui.NewModel(cfg, projectDir, logger))
	if _, err := p.Run(); err != nil {
		logger.Error("interactive session failed", zap.Error(err))
		return fmt.Errorf("failed to run interactive interface: %w", err)
	}

	logger.Info("interactive session ended")
	return nil
}

// requireConfig guards commands that change the system. They refuse to run
// when configuration failed to load, because built-in defaults could point
// them at the wrong environment directory.
func requireConfig() error {
	if cfgErr != nil {
		return fmt.Errorf("refusing to continue with invalid configuration: %w", cfgErr)
	}
	return nil
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
