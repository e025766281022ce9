package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"agentenv/internal/bootstrap"
	"agentenv/internal/config"
	"agentenv/internal/fsutil"
	"agentenv/internal/pyenv"
)

var (
	purgeYes          bool
	purgeRemoveConfig bool
)

var errPurgeCanceled = errors.New("purge canceled")

// purgeCmd removes everything setup provisioned
var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove everything agentenv created",
	Long: `Removes the Jupyter kernelspec, the virtual environment and the state
directory contents, in that order. The secrets file belongs to you and
is never touched. Pass --remove-config to also delete the user
configuration file.`,
	Args: cobra.NoArgs,
	RunE: runPurge,
}

func init() {
	purgeCmd.Flags().BoolVarP(&purgeYes, "yes", "y", false, "Skip confirmation prompts")
	purgeCmd.Flags().BoolVar(&purgeRemoveConfig, "remove-config", false, "Also remove the user configuration file")
	rootCmd.AddCommand(purgeCmd)
}

func runPurge(cmd *cobra.Command, args []string) error {
	if err := requireConfig(); err != nil {
		return err
	}
	if err := confirmPurge(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Starting purge...")

	ctx, cancel := signalContext()
	defer cancel()

	toolchain := pyenv.NewLazyToolchain(cfg.Python.Version)
	purger := bootstrap.NewPurger(cfg, toolchain, projectDir, logger)
	purgeLog, err := purger.PurgeAll(ctx, purgeRemoveConfig)
	if err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}

	displayPurgeResults(purgeLog)

	fmt.Println()
	fmt.Println("Verifying cleanup...")
	clean, leftovers := purger.VerifyClean()
	reportCleanupStatus(clean, leftovers)
	savePurgeLog(purgeLog)

	if len(purgeLog.Errors) > 0 || !clean {
		_ = logger.Sync()
		os.Exit(1)
	}
	return nil
}

func confirmPurge() error {
	if purgeYes {
		return nil
	}

	envDir := filepath.Join(projectDir, cfg.Python.EnvDir)
	fmt.Println("⚠️  WARNING: This will permanently delete:")
	fmt.Printf("  - The virtual environment (%s)\n", envDir)
	if cfg.Kernel.Register {
		fmt.Printf("  - The Jupyter kernelspec (%s)\n", cfg.Kernel.Name)
	}
	fmt.Printf("  - The state directory contents (%s)\n", fsutil.StateDir())
	if purgeRemoveConfig {
		fmt.Printf("  - The user configuration file (%s)\n", config.UserConfigPath())
	}
	fmt.Println()
	fmt.Printf("The secrets file (%s) belongs to you and will not be touched.\n", cfg.Secrets.File)
	fmt.Println()
	fmt.Print("Type 'yes' to confirm: ")

	var response string
	if _, err := fmt.Scanln(&response); err != nil {
		return errPurgeCanceled
	}
	if response != "yes" {
		return errPurgeCanceled
	}

	fmt.Println()
	fmt.Print("Are you absolutely sure? Type 'PURGE' to proceed: ")
	if _, err := fmt.Scanln(&response); err != nil {
		return errPurgeCanceled
	}
	if response != "PURGE" {
		return errPurgeCanceled
	}
	return nil
}

func displayPurgeResults(purgeLog *bootstrap.PurgeLog) {
	fmt.Println()
	fmt.Printf("Purge completed. Removed %d items:\n", len(purgeLog.RemovedItems))
	for _, item := range purgeLog.RemovedItems {
		fmt.Printf("  - %s\n", item)
	}

	if len(purgeLog.Errors) == 0 {
		return
	}

	fmt.Println()
	fmt.Printf("⚠️  Encountered %d errors:\n", len(purgeLog.Errors))
	for _, msg := range purgeLog.Errors {
		fmt.Printf("  - %s\n", msg)
	}
}

func reportCleanupStatus(clean bool, leftovers []string) {
	if clean {
		fmt.Println("✓ System is clean. All agentenv components removed.")
		return
	}

	fmt.Printf("⚠️  Found %d leftover items:\n", len(leftovers))
	for _, item := range leftovers {
		fmt.Printf("  - %s\n", item)
	}
}

// savePurgeLog writes the purge record outside the state directory, which
// the purge itself just emptied.
func savePurgeLog(purgeLog *bootstrap.PurgeLog) {
	data, err := json.MarshalIndent(purgeLog, "", "  ")
	if err != nil {
		logger.Warn("failed to marshal purge log", zap.Error(err))
		return
	}

	path := filepath.Join(os.TempDir(), "agentenv_purge_log.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		logger.Warn("failed to save purge log", zap.Error(err))
		return
	}

	fmt.Println()
	fmt.Printf("Purge log saved to: %s\n", path)
}
