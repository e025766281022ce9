package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// versionCmd prints the agentenv version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the agentenv version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("agentenv version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
