package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ValidationResult is the JSON payload of a successful validate.
type ValidationResult struct {
	Valid  bool `json:"valid"`
	Stages int  `json:"stages"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <operations.json|->",
		Short: "Check an operation list against the product schema",
		Long: `Check a JSON operation list without running it.

The list is checked against the operation schema (names, argument shapes,
group bounds) and then resolved against the product members: unknown
fields, unconvertible values, operators the member type does not support
and inconsistent groups are all reported, each with the path of the
offending argument.

Example:
  dynfilter validate ops.json
  echo '[{"name":"take","arguments":5}]' | dynfilter validate -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	p, err := loadPipeline(formatter, path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Stages: len(p.Stages)})
	}

	fmt.Fprintln(formatter.Writer, "✓ Operations valid")
	formatter.VerboseLog("%s", p)
	return nil
}
