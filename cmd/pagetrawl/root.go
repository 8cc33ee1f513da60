// Package main provides the entry point for the pagetrawl CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for pagetrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pagetrawl",
		Short: "Resumable, rate-adaptive web page harvester",
		Long: `pagetrawl harvests web pages from seed URLs under adversarial,
rate-limiting conditions. Each domain converges to its own sustainable
request rate, blocking responses rotate the outbound identity, and a
crash-safe checkpoint lets interrupted sessions resume without losing
completed work or persisting duplicates.

Fetches can optionally be routed through Tor, with periodic circuit
renewal during long sessions.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
