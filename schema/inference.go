package schema

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v18/arrow"

	"github.com/nao1215/tldr/domain/model"
	"github.com/nao1215/tldr/source"
)

// ErrEmptyFile indicates that a file holds no row to infer a schema from.
var ErrEmptyFile = errors.New("empty file")

// Inferrer infers the schema of a delimited file from a sample of its rows.
type Inferrer interface {
	// Infer scans at most maxRecords data rows, or every row when maxRecords is 0.
	Infer(ctx context.Context, path string, delimiter byte, maxRecords int, hasHeader bool) (*arrow.Schema, error)
}

// CSVInferrer infers schemas of CSV files read from a FileSystem.
type CSVInferrer struct {
	fs source.FileSystem
}

// NewCSVInferrer creates a CSVInferrer.
func NewCSVInferrer(fsys source.FileSystem) *CSVInferrer {
	return &CSVInferrer{fs: fsys}
}

// Infer implements Inferrer. Every inferred field is nullable.
func (c *CSVInferrer) Infer(ctx context.Context, path string, delimiter byte, maxRecords int, hasHeader bool) (*arrow.Schema, error) {
	if !model.IsSupportedFile(path) {
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}

	rc, err := c.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	reader := source.NewCSVReader(rc, delimiter)
	first, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, err
	}
	names, err := model.ColumnNames(first, hasHeader)
	if err != nil {
		return nil, err
	}

	kinds := make([]columnKind, len(names))
	sampled := 0
	if !hasHeader {
		observe(kinds, first)
		sampled++
	}
	for maxRecords <= 0 || sampled < maxRecords {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		observe(kinds, row)
		sampled++
	}

	fields := make([]arrow.Field, len(names))
	for i, name := range names {
		fields[i] = arrow.Field{Name: name, Type: kinds[i].dataType(), Nullable: true}
	}
	return arrow.NewSchema(fields, nil), nil
}

// columnKind is the inferred class of a column, ordered from narrowest to widest.
type columnKind int

const (
	kindNull columnKind = iota
	kindBoolean
	kindInteger  // 0 to MaxInt64
	kindSigned   // negative int64
	kindUnsigned // above MaxInt64, within uint64
	kindReal
	kindText
)

func (k columnKind) dataType() arrow.DataType {
	switch k {
	case kindNull:
		return arrow.Null
	case kindBoolean:
		return arrow.FixedWidthTypes.Boolean
	case kindInteger, kindSigned:
		return arrow.PrimitiveTypes.Int64
	case kindUnsigned:
		return arrow.PrimitiveTypes.Uint64
	case kindReal:
		return arrow.PrimitiveTypes.Float64
	default:
		return arrow.BinaryTypes.String
	}
}

func observe(kinds []columnKind, row []string) {
	for i, value := range row {
		kinds[i] = widen(kinds[i], classify(value))
	}
}

// classify infers the class of a single cell. Empty cells are nulls.
func classify(value string) columnKind {
	if value == "" {
		return kindNull
	}
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, "true") || strings.EqualFold(value, "false") {
		return kindBoolean
	}
	if v, err := strconv.ParseInt(value, 10, 64); err == nil {
		if v < 0 {
			return kindSigned
		}
		return kindInteger
	}
	if _, err := strconv.ParseUint(value, 10, 64); err == nil {
		return kindUnsigned
	}
	if _, err := strconv.ParseFloat(value, 64); err == nil {
		return kindReal
	}
	return kindText
}

// widen returns the narrowest class holding values of both a and b.
// Integers widen to the signed or unsigned class they meet; signed and
// unsigned together only fit a real.
func widen(a, b columnKind) columnKind {
	if a == b || b == kindNull {
		return a
	}
	if a == kindNull {
		return b
	}
	if a > b {
		a, b = b, a
	}
	switch {
	case a == kindInteger && (b == kindSigned || b == kindUnsigned):
		return b
	case a >= kindInteger && b <= kindReal:
		return kindReal
	default:
		return kindText
	}
}
