package schema

import (
	"fmt"

	"github.com/apache/arrow/go/v18/arrow"

	"github.com/nao1215/tldr/domain/model"
)

// Merge combines an inferred schema with an override schema.
//
// The result keeps the column order of base and appends columns only present
// in override. A column present in both takes the type and nullability of
// override when the inferred type can be read as the declared one. Otherwise
// Merge fails with model.ErrSchemaMergeConflict naming path and column.
func Merge(path string, base, override *arrow.Schema) (*arrow.Schema, error) {
	fields := make([]arrow.Field, 0, base.NumFields()+override.NumFields())
	used := make(map[string]bool, override.NumFields())

	for _, inferred := range base.Fields() {
		declared, ok := lookup(override, inferred.Name)
		if !ok {
			fields = append(fields, inferred)
			continue
		}
		if !reconcilable(inferred.Type, declared.Type) {
			return nil, model.NewErrorContext("merge schema", path).
				WithColumn(inferred.Name).
				WithDetails(fmt.Sprintf("inferred %s cannot be read as declared %s", inferred.Type, declared.Type)).
				Error(model.ErrSchemaMergeConflict, nil)
		}
		used[declared.Name] = true
		fields = append(fields, arrow.Field{Name: inferred.Name, Type: declared.Type, Nullable: declared.Nullable})
	}

	for _, declared := range override.Fields() {
		if !used[declared.Name] {
			fields = append(fields, declared)
		}
	}
	return arrow.NewSchema(fields, nil), nil
}

func lookup(s *arrow.Schema, name string) (arrow.Field, bool) {
	indices := s.FieldIndices(name)
	if len(indices) == 0 {
		return arrow.Field{}, false
	}
	return s.Field(indices[0]), true
}

// reconcilable reports whether values inferred as inferred parse as declared.
func reconcilable(inferred, declared arrow.DataType) bool {
	if arrow.TypeEqual(inferred, declared) {
		return true
	}
	switch declared.ID() {
	case arrow.STRING, arrow.BINARY:
		return true
	}

	switch inferred.ID() {
	case arrow.NULL:
		return true
	case arrow.INT64:
		return isInteger(declared) || isFloat(declared) || declared.ID() == arrow.DURATION
	case arrow.UINT64:
		return isFloat(declared)
	case arrow.FLOAT64:
		return isFloat(declared)
	case arrow.BOOL:
		return declared.ID() == arrow.BOOL
	default:
		return false
	}
}

func isInteger(dt arrow.DataType) bool {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return true
	default:
		return false
	}
}

func isFloat(dt arrow.DataType) bool {
	return dt.ID() == arrow.FLOAT32 || dt.ID() == arrow.FLOAT64
}
