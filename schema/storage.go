// Package schema resolves the column layout of declared files by reconciling an
// inferred schema with the column types a program declares.
package schema

import (
	"fmt"

	"github.com/apache/arrow/go/v18/arrow"

	"github.com/nao1215/tldr/domain/model"
)

// StorageType maps a declared column type to its Arrow storage type.
// Time, Date and Datetime columns keep their text form.
func StorageType(desc model.TypeDescriptor) (arrow.DataType, error) {
	switch desc.Kind {
	case model.KindUInt8:
		return arrow.PrimitiveTypes.Uint8, nil
	case model.KindUInt16:
		return arrow.PrimitiveTypes.Uint16, nil
	case model.KindUInt32:
		return arrow.PrimitiveTypes.Uint32, nil
	case model.KindUInt64:
		return arrow.PrimitiveTypes.Uint64, nil
	case model.KindInt8:
		return arrow.PrimitiveTypes.Int8, nil
	case model.KindInt16:
		return arrow.PrimitiveTypes.Int16, nil
	case model.KindInt32:
		return arrow.PrimitiveTypes.Int32, nil
	case model.KindInt64:
		return arrow.PrimitiveTypes.Int64, nil
	case model.KindFloat32:
		return arrow.PrimitiveTypes.Float32, nil
	case model.KindFloat64:
		return arrow.PrimitiveTypes.Float64, nil
	case model.KindBoolean:
		return arrow.FixedWidthTypes.Boolean, nil
	case model.KindBinary:
		return arrow.BinaryTypes.Binary, nil
	case model.KindString:
		return arrow.BinaryTypes.String, nil
	case model.KindNull:
		return arrow.Null, nil
	case model.KindDuration:
		return durationType(desc.Unit)
	case model.KindTime, model.KindDate, model.KindDatetime:
		return arrow.BinaryTypes.String, nil
	default:
		return nil, fmt.Errorf("unsupported column type %s", desc.Kind)
	}
}

func durationType(unit model.TimeUnit) (arrow.DataType, error) {
	switch unit {
	case model.Seconds:
		return arrow.FixedWidthTypes.Duration_s, nil
	case model.Milliseconds:
		return arrow.FixedWidthTypes.Duration_ms, nil
	case model.Microseconds:
		return arrow.FixedWidthTypes.Duration_us, nil
	case model.Nanoseconds:
		return arrow.FixedWidthTypes.Duration_ns, nil
	default:
		return nil, fmt.Errorf("unsupported time unit %s", unit)
	}
}

// OverrideSchema builds the schema of the declared columns, sorted by name.
func OverrideSchema(fieldTypes map[string]model.TypeDescriptor) (*arrow.Schema, error) {
	spec := model.CSVSpec{FieldTypes: fieldTypes}
	names := spec.OverrideColumns()
	fields := make([]arrow.Field, 0, len(names))
	for _, name := range names {
		desc := fieldTypes[name]
		dt, err := StorageType(desc)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		fields = append(fields, arrow.Field{Name: name, Type: dt, Nullable: desc.IsNullable()})
	}
	return arrow.NewSchema(fields, nil), nil
}
