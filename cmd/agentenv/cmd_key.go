package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"agentenv/internal/secrets"
)

// keyCmd manages the locally stashed API key
var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the locally stashed API key",
	Long: `Stores the project's API key encrypted in the state directory, separate
from the secrets file. The stash never writes the secrets file; use
'key export' to expose the stored value to a shell.`,
}

var keySetCmd = &cobra.Command{
	Use:   "set",
	Short: "Prompt for the API key and store it encrypted",
	Args:  cobra.NoArgs,
	RunE:  runKeySet,
}

var keyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored key, masked",
	Args:  cobra.NoArgs,
	RunE:  runKeyShow,
}

var keyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print a shell export line for the stored key",
	Long: `Prints an export statement for the stored key on stdout, suitable for

  eval "$(agentenv key export)"`,
	Args: cobra.NoArgs,
	RunE: runKeyExport,
}

var keyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored key",
	Args:  cobra.NoArgs,
	RunE:  runKeyClear,
}

func init() {
	keyCmd.AddCommand(keySetCmd, keyShowCmd, keyExportCmd, keyClearCmd)
	rootCmd.AddCommand(keyCmd)
}

func openStash() (*secrets.Stash, error) {
	stash, err := secrets.Open(secrets.DefaultDir(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open key stash: %w", err)
	}
	return stash, nil
}

func runKeySet(cmd *cobra.Command, args []string) error {
	stash, err := openStash()
	if err != nil {
		return err
	}

	value, err := readSecret(fmt.Sprintf("Enter value for %s: ", cfg.Secrets.KeyName))
	if err != nil {
		return err
	}
	if len(value) == 0 {
		return fmt.Errorf("refusing to store an empty value")
	}

	if err := stash.Set(cfg.Secrets.KeyName, value); err != nil {
		return err
	}

	fmt.Printf("✓ Stored %s in the local key stash.\n", cfg.Secrets.KeyName)
	fmt.Println()
	fmt.Println("The stash never writes your secrets file. To expose the key in a shell:")
	fmt.Println("  eval \"$(agentenv key export)\"")
	return nil
}

func runKeyShow(cmd *cobra.Command, args []string) error {
	stash, err := openStash()
	if err != nil {
		return err
	}

	value, err := stash.Get(cfg.Secrets.KeyName)
	if err != nil {
		return err
	}

	line := fmt.Sprintf("%s: %s", cfg.Secrets.KeyName, maskSecret(value))
	if entries, err := stash.List(); err == nil {
		for _, entry := range entries {
			if entry.Name == cfg.Secrets.KeyName {
				line += fmt.Sprintf(" (stored %s)", entry.StoredAt.Local().Format("2006-01-02 15:04"))
			}
		}
	}
	fmt.Println(line)
	return nil
}

func runKeyExport(cmd *cobra.Command, args []string) error {
	stash, err := openStash()
	if err != nil {
		return err
	}

	value, err := stash.Get(cfg.Secrets.KeyName)
	if err != nil {
		return err
	}

	// Nothing but the export line goes to stdout so eval stays safe.
	fmt.Printf("export %s=%s\n", cfg.Secrets.KeyName, shellQuote(string(value)))
	return nil
}

func runKeyClear(cmd *cobra.Command, args []string) error {
	stash, err := openStash()
	if err != nil {
		return err
	}

	if err := stash.Clear(cfg.Secrets.KeyName); err != nil {
		return err
	}

	fmt.Printf("✓ Removed %s from the local key stash.\n", cfg.Secrets.KeyName)
	return nil
}

// readSecret reads a secret without echo when stdin is a terminal, and
// falls back to reading a line so values can be piped in.
func readSecret(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Print(prompt)
		value, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return nil, fmt.Errorf("failed to read secret: %w", err)
		}
		return value, nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return nil, fmt.Errorf("failed to read secret from stdin: %w", err)
	}
	return []byte(strings.TrimRight(line, "\r\n")), nil
}

// maskSecret hides the value, keeping the last four characters as a hint.
func maskSecret(value []byte) string {
	const visible = 4
	if len(value) <= visible {
		return "****"
	}
	return "****" + string(value[len(value)-visible:])
}

// shellQuote single-quotes a value for POSIX shells.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
