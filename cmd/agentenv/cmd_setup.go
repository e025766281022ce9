package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"agentenv/internal/bootstrap"
	"agentenv/internal/history"
	"agentenv/internal/pyenv"
)

// setupCmd provisions the project environment
var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Provision the virtual environment, dependencies and kernel",
	Long: `Provisions the project's development environment end to end:

  1. Creates the virtual environment when it is missing (an existing one
     is reused, never recreated)
  2. Upgrades pip, setuptools and wheel inside it
  3. Installs the project in editable mode
  4. Registers the Jupyter notebook kernel
  5. Inspects the secrets file and prints guidance (never writes it)

Steps 2-5 are best effort: a failure prints a warning with the manual fix
and setup carries on. Only a failed environment creation makes setup exit
non-zero. Running setup again on a provisioned checkout is a cheap no-op.`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	if err := requireConfig(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	toolchain := pyenv.NewLazyToolchain(cfg.Python.Version)
	bootstrapper := bootstrap.New(cfg, toolchain, projectDir, os.Stdout, logger)
	report, runErr := bootstrapper.Run(ctx)

	if report != nil {
		writer := history.NewWriter(history.DefaultPath())
		if err := writer.Append(history.FromReport(report)); err != nil {
			logger.Warn("failed to record setup run", zap.Error(err))
		}
	}

	return runErr
}
