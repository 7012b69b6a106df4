package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nao1215/tldr/domain/model"
	"github.com/nao1215/tldr/grammar"
	"github.com/nao1215/tldr/source"
)

type directiveInfo struct {
	Table     string       `json:"table"`
	Format    string       `json:"format"`
	File      string       `json:"file"`
	Separator string       `json:"separator"`
	HasHeader bool         `json:"has_header"`
	Sample    string       `json:"max_read_records"`
	Columns   []columnSpec `json:"field_types,omitempty"`
}

type columnSpec struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Example string `json:"example,omitempty"`
}

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <program>",
		Short: "Parse a program and print its directives",
		Long: `Parse a program without reading any declared file.

Syntax errors are reported with their line and column. Declared temporal
formats are shown with an example value.`,
		Example: `  tldr check load.tldr
  tldr check load.tldr -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := grammar.ParseFile(source.OS(), args[0])
			if err != nil {
				return err
			}
			return renderProgram(newRenderer(cmd.OutOrStdout(), getConfig(cmd).Output), program)
		},
	}
}

func describeProgram(program *model.Program) []directiveInfo {
	infos := make([]directiveInfo, 0, program.Len())
	for _, directive := range program.Directives {
		info := directiveInfo{
			Table:  model.TableFromFilePath(directive.Path()),
			Format: directive.Format().String(),
			File:   directive.Path(),
		}
		if d, ok := directive.(*model.CSVDirective); ok {
			spec := d.Spec
			info.Separator = strconv.QuoteRune(rune(spec.Delimiter))
			info.HasHeader = spec.HasHeader
			info.Sample = "none"
			if limit := spec.SampleLimit(); limit > 0 {
				info.Sample = strconv.Itoa(limit)
			}
			for _, name := range spec.OverrideColumns() {
				desc := spec.FieldTypes[name]
				column := columnSpec{Name: name, Type: desc.String()}
				if desc.Kind.IsTemporal() && desc.Format != "" {
					column.Example = grammar.FormatExample(desc.Format)
				}
				info.Columns = append(info.Columns, column)
			}
		}
		infos = append(infos, info)
	}
	return infos
}

func renderProgram(r *renderer, program *model.Program) error {
	infos := describeProgram(program)

	cols := []string{"TABLE", "FORMAT", "FILE", "SEPARATOR", "HEADER", "SAMPLE", "COLUMN", "TYPE", "EXAMPLE"}
	var rows [][]any
	for _, info := range infos {
		base := []any{info.Table, info.Format, info.File, info.Separator, info.HasHeader, info.Sample}
		if len(info.Columns) == 0 {
			rows = append(rows, append(base, "", "", ""))
			continue
		}
		for _, column := range info.Columns {
			row := append(append([]any{}, base...), column.Name, column.Type, column.Example)
			rows = append(rows, row)
		}
	}
	return r.records(cols, rows, infos)
}
