// Package cli implements the gentest command line interface.
//
// The CLI drives the harness from scenario files: run executes them,
// validate checks them against the CUE schema, and trace inspects
// archived runs. Programs ship their own generators by passing a
// resolver to NewRootCommand.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gentest/internal/env"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Resolver resolves scenario generator namespaces. Supplied by the
	// embedding program (cmd/gentest wires the built-in generators).
	Resolver env.Resolver
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the gentest CLI.
func NewRootCommand(resolver env.Resolver) *cobra.Command {
	opts := &RootOptions{Resolver: resolver}

	cmd := &cobra.Command{
		Use:   "gentest",
		Short: "gentest - scaffolding generator test harness",
		Long:  "A harness that configures, runs, and traces scaffolding generators from declarative scenario files.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	// Add subcommands
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
