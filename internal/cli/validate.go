package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gentest/internal/scenario"
)

// ValidationResult holds validation results for one file.
type ValidationResult struct {
	Path  string `json:"path"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario.yaml> [scenario.yaml...]",
		Short: "Validate scenario files without running them",
		Long: `Validate scenario files against the CUE schema and structural rules
without executing any generator.

Exit codes:
  0 - All files valid
  2 - One or more files invalid`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	results := make([]ValidationResult, 0, len(paths))
	invalid := 0
	for _, path := range paths {
		vr := ValidationResult{Path: path, Valid: true}
		if _, err := scenario.Load(path); err != nil {
			vr.Valid = false
			vr.Error = err.Error()
			invalid++
		}
		results = append(results, vr)
	}

	if opts.Format == "json" {
		if err := formatter.Success(results); err != nil {
			return err
		}
	} else {
		for _, vr := range results {
			if vr.Valid {
				fmt.Fprintf(cmd.OutOrStdout(), "OK    %s\n", vr.Path)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "BAD   %s: %s\n", vr.Path, vr.Error)
			}
		}
	}

	if invalid > 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("%d file(s) invalid", invalid))
	}
	return nil
}
