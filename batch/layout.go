package batch

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
)

var (
	errNullValue     = errors.New("null value in non-nullable column")
	errMissingColumn = errors.New("non-nullable column missing from file")
	errNotNull       = errors.New("value in Null column")
	errNotBoolean    = errors.New("not a boolean")
)

// layout maps the cells of a file row onto the field builders of a record.
type layout struct {
	fields    []arrow.Field
	columns   []int // file column of each field, -1 when absent
	builders  []array.Builder
	appenders []func(string) error
}

func newLayout(schema *arrow.Schema, names []string, rb *array.RecordBuilder) (*layout, error) {
	index := make(map[string]int, len(names))
	for i, name := range names {
		index[name] = i
	}

	l := &layout{fields: schema.Fields()}
	for i, f := range l.fields {
		col, ok := index[f.Name]
		if !ok {
			col = -1
		}
		b := rb.Field(i)
		appender, err := newAppender(b)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", f.Name, err)
		}
		l.columns = append(l.columns, col)
		l.builders = append(l.builders, b)
		l.appenders = append(l.appenders, appender)
	}
	return l, nil
}

func (l *layout) append(row int, values []string) error {
	for i, f := range l.fields {
		col := l.columns[i]
		if col < 0 {
			if !f.Nullable {
				return &CellError{Row: row, Column: f.Name, Err: errMissingColumn}
			}
			l.builders[i].AppendNull()
			continue
		}

		value := values[col]
		if value == "" {
			if !f.Nullable {
				return &CellError{Row: row, Column: f.Name, Err: errNullValue}
			}
			l.builders[i].AppendNull()
			continue
		}
		if err := l.appenders[i](value); err != nil {
			return &CellError{Row: row, Column: f.Name, Value: value, Err: err}
		}
	}
	return nil
}

// newAppender returns a function parsing a non-empty cell into b.
func newAppender(b array.Builder) (func(string) error, error) {
	switch b := b.(type) {
	case *array.NullBuilder:
		return func(string) error { return errNotNull }, nil
	case *array.BooleanBuilder:
		return func(s string) error {
			switch s = strings.TrimSpace(s); {
			case strings.EqualFold(s, "true"):
				b.Append(true)
			case strings.EqualFold(s, "false"):
				b.Append(false)
			default:
				return errNotBoolean
			}
			return nil
		}, nil
	case *array.Int8Builder:
		return signed(8, b.Append), nil
	case *array.Int16Builder:
		return signed(16, b.Append), nil
	case *array.Int32Builder:
		return signed(32, b.Append), nil
	case *array.Int64Builder:
		return signed(64, b.Append), nil
	case *array.Uint8Builder:
		return unsigned(8, b.Append), nil
	case *array.Uint16Builder:
		return unsigned(16, b.Append), nil
	case *array.Uint32Builder:
		return unsigned(32, b.Append), nil
	case *array.Uint64Builder:
		return unsigned(64, b.Append), nil
	case *array.Float32Builder:
		return float(32, b.Append), nil
	case *array.Float64Builder:
		return float(64, b.Append), nil
	case *array.DurationBuilder:
		return signed(64, b.Append), nil
	case *array.StringBuilder:
		return func(s string) error {
			b.Append(s)
			return nil
		}, nil
	case *array.BinaryBuilder:
		return func(s string) error {
			b.Append([]byte(s))
			return nil
		}, nil
	default:
		return nil, fmt.Errorf("unsupported column type %s", b.Type())
	}
}

func signed[T ~int8 | ~int16 | ~int32 | ~int64](bits int, appendFn func(T)) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseInt(strings.TrimSpace(s), 10, bits)
		if err != nil {
			return err
		}
		appendFn(T(v))
		return nil
	}
}

func unsigned[T ~uint8 | ~uint16 | ~uint32 | ~uint64](bits int, appendFn func(T)) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseUint(strings.TrimSpace(s), 10, bits)
		if err != nil {
			return err
		}
		appendFn(T(v))
		return nil
	}
}

func float[T ~float32 | ~float64](bits int, appendFn func(T)) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), bits)
		if err != nil {
			return err
		}
		appendFn(T(v))
		return nil
	}
}
