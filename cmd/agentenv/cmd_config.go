package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"agentenv/internal/config"
)

// configCmd groups configuration inspection subcommands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and validate configuration",
}

var configTestCmd = &cobra.Command{
	Use:   "test [path]",
	Short: "Validate configuration and print the effective values",
	Long: `Validates a configuration file. Without a path the user and project
configuration are merged over the defaults, exactly as every other
command sees them.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigTest,
}

func init() {
	configCmd.AddCommand(configTestCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigTest(cmd *cobra.Command, args []string) error {
	var (
		tested  config.Config
		loadErr error
	)

	if len(args) > 0 {
		fmt.Printf("Testing configuration file: %s\n", args[0])
		tested, loadErr = config.LoadFrom(args[0])
	} else {
		fmt.Println("Testing configuration (user + project merge):")
		fmt.Printf("  User config:    %s\n", config.UserConfigPath())
		fmt.Printf("  Project config: %s\n", config.ProjectConfigPath(projectDir))
		fmt.Println()
		tested, loadErr = config.Load(projectDir)
	}

	if loadErr != nil {
		fmt.Fprintln(os.Stderr, "❌ Configuration validation FAILED:")
		fmt.Fprintf(os.Stderr, "   %v\n", loadErr)
		logger.Error("configuration validation failed", zap.Error(loadErr))
		_ = logger.Sync()
		os.Exit(1)
	}

	fmt.Println("✓ Configuration is VALID")
	fmt.Println()
	fmt.Println("Configuration Summary:")
	fmt.Printf("  Python Version:   %s\n", tested.Python.Version)
	fmt.Printf("  Environment Dir:  %s\n", tested.Python.EnvDir)
	fmt.Printf("  Kernel Register:  %t\n", tested.Kernel.Register)
	fmt.Printf("  Kernel Name:      %s\n", tested.Kernel.Name)
	fmt.Printf("  Secrets File:     %s\n", tested.Secrets.File)
	fmt.Printf("  Key Name:         %s\n", tested.Secrets.KeyName)
	fmt.Printf("  Upgrade Pip:      %t\n", tested.Install.UpgradePip)
	fmt.Printf("  Log Level:        %s\n", tested.Logging.Level)
	fmt.Printf("  Log Format:       %s\n", tested.Logging.Format)

	logger.Info("configuration validation passed",
		zap.String("python_version", tested.Python.Version),
		zap.String("env_dir", tested.Python.EnvDir))
	return nil
}
