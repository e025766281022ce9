package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"agentenv/internal/diag"
)

var (
	diagOutput   string
	diagNoLogs   bool
	diagNoConfig bool
)

// diagCmd creates a redacted diagnostic bundle
var diagCmd = &cobra.Command{
	Use:   "diag",
	Short: "Create a redacted diagnostic bundle",
	Long: `Collects logs, configuration, system information, an environment report
and the setup run history into a ZIP bundle for troubleshooting.

Secret values are redacted everywhere, and the secrets file itself is
never included: only its classification (absent, placeholder or
configured) is recorded.`,
	Args: cobra.NoArgs,
	RunE: runDiag,
}

func init() {
	diagCmd.Flags().StringVarP(&diagOutput, "output", "o", "", "Bundle path (default agentenv-diag-<timestamp>.zip)")
	diagCmd.Flags().BoolVar(&diagNoLogs, "no-logs", false, "Exclude log files from the bundle")
	diagCmd.Flags().BoolVar(&diagNoConfig, "no-config", false, "Exclude configuration files from the bundle")
	rootCmd.AddCommand(diagCmd)
}

func runDiag(cmd *cobra.Command, args []string) error {
	diagCfg := diag.NewConfig(cfg, projectDir, version)
	if diagOutput != "" {
		diagCfg.OutputPath = diagOutput
	}
	if diagNoLogs {
		diagCfg.IncludeLogs = false
	}
	if diagNoConfig {
		diagCfg.IncludeConfig = false
	}

	fmt.Println("Creating diagnostic bundle...")
	fmt.Printf("  Version: %s\n", diagCfg.Version)
	fmt.Printf("  Logs: %v\n", diagCfg.IncludeLogs)
	fmt.Printf("  Config: %v\n", diagCfg.IncludeConfig)
	fmt.Println()

	packager := diag.NewPackager(diagCfg, logger)
	zipPath, err := packager.CreatePackage()
	if err != nil {
		return fmt.Errorf("failed to create diagnostic bundle: %w", err)
	}

	info, err := os.Stat(zipPath)
	if err != nil {
		fmt.Printf("✓ Diagnostic bundle created: %s\n", zipPath)
		return nil
	}

	fmt.Println("✓ Diagnostic bundle created successfully")
	fmt.Printf("  Path: %s\n", zipPath)
	fmt.Printf("  Size: %s\n", formatBytes(info.Size()))
	if checksum, err := diag.CalculateFileSHA256(zipPath); err != nil {
		logger.Warn("failed to checksum bundle", zap.Error(err))
	} else {
		fmt.Printf("  SHA256: %s\n", checksum)
	}

	fmt.Println()
	fmt.Println("The bundle contains:")
	fmt.Println("  • System information and an environment report")
	if diagCfg.IncludeLogs {
		fmt.Println("  • Application logs (secrets redacted)")
	}
	if diagCfg.IncludeConfig {
		fmt.Println("  • Configuration files (secrets redacted)")
	}
	fmt.Println("  • Setup run history")
	fmt.Println("  • Manifest with file checksums (diag_manifest.json)")
	fmt.Println()
	fmt.Println("You can share this bundle for troubleshooting.")
	fmt.Println("All sensitive data has been redacted.")
	return nil
}

// formatBytes renders a byte count in binary units, e.g. "1.5 MiB".
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
