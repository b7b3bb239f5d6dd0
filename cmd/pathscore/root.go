package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for pathscore.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pathscore",
		Short: "Score and explain the plausibility of Tor relay paths",
		Long: `pathscore scores candidate Tor relay paths by how consistent relay
directory metadata is with each path having carried one session.

Every score is bounded by a ceiling, classified into a confidence tier and
delivered with a structured explanation: the two strongest factors, the
applied shared-infrastructure penalties and the limitations of the result.
A score is not a probability and never excludes alternative paths.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewScoreCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
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
