package cli

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/nao1215/tldr/internal/config"
)

// renderer writes tabular results in the configured output format.
type renderer struct {
	w      io.Writer
	format string
}

func newRenderer(w io.Writer, format string) *renderer {
	return &renderer{w: w, format: format}
}

// records renders cols and rows. value is encoded as JSON in json mode.
func (r *renderer) records(cols []string, rows [][]any, value any) error {
	switch r.format {
	case config.OutputJSON:
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")
		return enc.Encode(value)
	case config.OutputCSV:
		return r.csv(cols, rows)
	default:
		return r.table(cols, rows)
	}
}

func (r *renderer) table(cols []string, rows [][]any) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(r.w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(cols))
	for i, col := range cols {
		header[i] = col
	}
	t.AppendHeader(header)
	for _, row := range rows {
		t.AppendRow(table.Row(row))
	}
	t.Render()
	_, _ = fmt.Fprintf(r.w, "(%d rows)\n", len(rows))
	return nil
}

func (r *renderer) csv(cols []string, rows [][]any) error {
	w := csv.NewWriter(r.w)
	if err := w.Write(cols); err != nil {
		return err
	}
	record := make([]string, len(cols))
	for _, row := range rows {
		for i, v := range row {
			record[i] = formatValue(v)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// sqlRows renders a query result.
func (r *renderer) sqlRows(rows *sql.Rows) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	var (
		values  [][]any
		objects []map[string]any
	)
	for rows.Next() {
		dest := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}

		object := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := dest[i].([]byte); ok {
				dest[i] = string(b)
			}
			object[col] = dest[i]
		}
		display := make([]any, len(dest))
		for i, v := range dest {
			display[i] = formatValue(v)
		}
		values = append(values, display)
		objects = append(objects, object)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if objects == nil {
		objects = []map[string]any{}
	}
	return r.records(cols, values, objects)
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}
