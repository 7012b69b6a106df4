package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// queryOptions holds options for the query command.
type queryOptions struct {
	Input string
}

func newQueryCommand() *cobra.Command {
	opts := &queryOptions{}

	cmd := &cobra.Command{
		Use:   "query <program> [SQL]",
		Short: "Load a program and run a SQL query",
		Long: `Load every file declared by a program, then run a SQL query against the
registered tables. Tables are named after their files without extension.`,
		Example: `  tldr query load.tldr "SELECT day, SUM(amount) FROM sales GROUP BY day"
  tldr query load.tldr -i report.sql -o csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")
	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *queryOptions) (err error) {
	var sqlQuery string
	switch {
	case len(args) > 1:
		sqlQuery = strings.Join(args[1:], " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sqlQuery = string(content)
	default:
		return errors.New("no query given, pass SQL as an argument or use --input")
	}

	ec, err := openProgram(cmd, args[0])
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, ec.Close())
	}()

	rows, err := ec.QueryContext(cmd.Context(), sqlQuery)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return newRenderer(cmd.OutOrStdout(), getConfig(cmd).Output).sqlRows(rows)
}
