package engine

import (
	"fmt"
	"math"
	"strconv"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
)

// sqlType returns the SQLite column type storing values of dt. UInt64 columns
// carry no type so values above MaxInt64 are kept exactly as decimal text.
func sqlType(dt arrow.DataType) (string, error) {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32,
		arrow.BOOL, arrow.DURATION:
		return "INTEGER", nil
	case arrow.UINT64:
		return "", nil
	case arrow.FLOAT32, arrow.FLOAT64:
		return "REAL", nil
	case arrow.STRING, arrow.NULL:
		return "TEXT", nil
	case arrow.BINARY:
		return "BLOB", nil
	default:
		return "", fmt.Errorf("unsupported column type %s", dt)
	}
}

// cellValue converts one array element into a database/sql argument.
func cellValue(arr arrow.Array, i int) any {
	if arr.IsNull(i) {
		return nil
	}
	switch a := arr.(type) {
	case *array.Int8:
		return int64(a.Value(i))
	case *array.Int16:
		return int64(a.Value(i))
	case *array.Int32:
		return int64(a.Value(i))
	case *array.Int64:
		return a.Value(i)
	case *array.Uint8:
		return int64(a.Value(i))
	case *array.Uint16:
		return int64(a.Value(i))
	case *array.Uint32:
		return int64(a.Value(i))
	case *array.Uint64:
		v := a.Value(i)
		if v > math.MaxInt64 {
			return strconv.FormatUint(v, 10)
		}
		return int64(v)
	case *array.Float32:
		return float64(a.Value(i))
	case *array.Float64:
		return a.Value(i)
	case *array.Boolean:
		return a.Value(i)
	case *array.Duration:
		return int64(a.Value(i))
	case *array.String:
		return a.Value(i)
	case *array.Binary:
		return a.Value(i)
	default:
		return nil
	}
}
