package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"agentenv/internal/health"
	"agentenv/internal/pyenv"
)

var healthSave bool

// healthCmd runs the readiness probes
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run readiness checks against the environment",
	Long: `Probes the system interpreter, the virtual environment, the notebook
kernel, the secrets file and the state directory, and prints one line per
check. Exits non-zero when any check fails, so it can gate scripts.`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func init() {
	healthCmd.Flags().BoolVar(&healthSave, "save", false, "Save the report as JSON into the state directory")
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	toolchain := pyenv.NewLazyToolchain(cfg.Python.Version)
	checker := health.NewChecker(cfg, toolchain, projectDir, logger)
	report := checker.Run(ctx)

	health.Render(os.Stdout, report)

	if healthSave {
		path, err := health.Save(report)
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nWarning: failed to save report: %v\n", err)
		} else {
			fmt.Printf("\nReport saved to: %s\n", path)
		}
	}

	if !report.Healthy {
		_ = logger.Sync()
		os.Exit(1)
	}
	return nil
}
