package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/dynfilter/internal/querysql"
)

// ExplainOptions holds flags for the explain command.
type ExplainOptions struct {
	*RootOptions
	Dialect string
}

// ExplainResult is the JSON payload of explain.
type ExplainResult struct {
	Pipeline string `json:"pipeline"`
	Dialect  string `json:"dialect"`
	SQL      string `json:"sql"`
	Params   []any  `json:"params"`
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExplainOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "explain <operations.json|->",
		Short: "Show the resolved pipeline and the SQL it compiles to",
		Long: `Resolve an operation list against the product schema and print the
pipeline stages followed by the SQL query and bound parameters for the
chosen dialect. No database is opened.

Example:
  dynfilter explain ops.json
  dynfilter explain --dialect postgres --format json ops.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Dialect, "dialect", "sqlite", "SQL dialect (sqlite|postgres)")

	return cmd
}

func runExplain(opts *ExplainOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	var dialect querysql.Dialect
	switch opts.Dialect {
	case "sqlite":
		dialect = querysql.SQLite
	case "postgres":
		dialect = querysql.Postgres
	default:
		_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("unknown dialect %q", opts.Dialect), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown dialect %q", opts.Dialect))
	}

	p, err := loadPipeline(formatter, path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	query, params, err := querysql.NewSQLCompiler(dialect).Compile(p)
	if err != nil {
		return formatter.Fault(err)
	}

	if formatter.Format == "json" {
		return formatter.Success(ExplainResult{
			Pipeline: p.String(),
			Dialect:  dialect.Name(),
			SQL:      query,
			Params:   params,
		})
	}

	w := formatter.Writer
	fmt.Fprintln(w, p)
	fmt.Fprintln(w)
	fmt.Fprintln(w, query)
	for i, v := range params {
		fmt.Fprintf(w, "  %d: %T %v\n", i+1, v, v)
	}
	return nil
}
