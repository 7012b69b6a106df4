package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/nao1215/tldr/engine"
)

type tableInfo struct {
	Name    string       `json:"name"`
	Rows    int64        `json:"rows"`
	Columns []columnInfo `json:"columns"`
}

type columnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

func newLoadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load <program>",
		Short: "Load a program and print the resulting tables",
		Long: `Load every file declared by a program and print the schema and row
count of each registered table.`,
		Example: `  tldr load load.tldr
  tldr load load.tldr --concurrency 4 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ec, err := openProgram(cmd, args[0])
			if err != nil {
				return err
			}
			defer func() {
				err = errors.Join(err, ec.Close())
			}()

			infos, err := describeTables(cmd.Context(), ec)
			if err != nil {
				return err
			}
			return renderTables(newRenderer(cmd.OutOrStdout(), getConfig(cmd).Output), infos)
		},
	}
}

func describeTables(ctx context.Context, ec *engine.Context) ([]tableInfo, error) {
	names := ec.Tables()
	infos := make([]tableInfo, 0, len(names))
	for _, name := range names {
		rows, err := ec.RowCount(ctx, name)
		if err != nil {
			return nil, err
		}
		info := tableInfo{Name: name, Rows: rows}
		if schema, ok := ec.Schema(name); ok {
			for _, field := range schema.Fields() {
				info.Columns = append(info.Columns, columnInfo{
					Name:     field.Name,
					Type:     field.Type.String(),
					Nullable: field.Nullable,
				})
			}
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func renderTables(r *renderer, infos []tableInfo) error {
	cols := []string{"TABLE", "ROWS", "COLUMN", "TYPE", "NULLABLE"}
	var rows [][]any
	for _, info := range infos {
		for _, column := range info.Columns {
			rows = append(rows, []any{info.Name, info.Rows, column.Name, column.Type, column.Nullable})
		}
	}
	return r.records(cols, rows, infos)
}
