package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/dynfilter/internal/config"
	"github.com/roach88/dynfilter/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Storage config.StorageConfig

	// Clock overrides the wall clock for generated products (for testing).
	Clock Clock
}

// QueryResult is the JSON payload of query.
type QueryResult struct {
	Items []any `json:"items"`
	Count int   `json:"count"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <operations.json|->",
		Short: "Run an operation list against the product catalog",
		Long: `Run a JSON operation list against products in a database, or in memory
when --driver memory is given. Text output prints one JSON element per
line.

Example:
  dynfilter query --db ./products.db ops.json
  dynfilter query --driver pgx --db postgres://localhost/shop ops.json
  dynfilter query --driver memory --fixtures products.yaml ops.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	addStorageFlags(cmd, &opts.Storage)

	return cmd
}

func addStorageFlags(cmd *cobra.Command, sc *config.StorageConfig) {
	cmd.Flags().StringVar(&sc.Driver, "driver", store.DefaultDriver, "storage driver (sqlite3|sqlite|pgx|memory)")
	cmd.Flags().StringVar(&sc.DSN, "db", "", "database path or DSN")
	cmd.Flags().StringVar(&sc.Fixtures, "fixtures", "", "YAML product fixtures (memory driver)")
	cmd.Flags().IntVar(&sc.Generate, "generate", 0, "number of generated products (memory driver)")
	cmd.Flags().Int64Var(&sc.Seed, "seed", 1, "random seed for generated products")
}

func runQuery(opts *QueryOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if opts.Storage.Driver != "memory" && opts.Storage.DSN == "" {
		_ = formatter.Error(ErrCodeStorage, "--db is required for database drivers", nil)
		return NewExitError(ExitCommandError, "--db is required for database drivers")
	}

	p, err := loadPipeline(formatter, path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	products, closeFn, err := openProducts(ctx, opts.Storage, opts.Clock)
	if err != nil {
		return formatter.commandError(ErrCodeStorage, "failed to open products", err)
	}
	defer closeFn() //nolint:errcheck

	formatter.VerboseLog("Running against %s:\n%s", describeSource(opts.Storage), p)
	elems, err := products.FindProducts(ctx, p)
	if err != nil {
		return formatter.commandError(ErrCodeStorage, "query failed", err)
	}
	items := p.Present(elems)

	if formatter.Format == "json" {
		return formatter.Success(QueryResult{Items: items, Count: len(items)})
	}

	enc := json.NewEncoder(formatter.Writer)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return err
		}
	}
	formatter.VerboseLog("%d element(s)", len(items))
	return nil
}

func describeSource(sc config.StorageConfig) string {
	if sc.Driver == "memory" {
		return "memory"
	}
	return fmt.Sprintf("%s %s", sc.Driver, sc.DSN)
}
