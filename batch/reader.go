// Package batch reads declared files into Arrow record batches shaped by a
// resolved schema.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"

	"github.com/nao1215/tldr/domain/model"
	"github.com/nao1215/tldr/source"
)

// DefaultRowsPerChunk is the default number of rows per record batch
const DefaultRowsPerChunk = 1000

// Reader reads a whole file into record batches conforming to a schema.
// The caller owns the returned records and must release them.
type Reader interface {
	Read(ctx context.Context, path string, schema *arrow.Schema, delimiter byte, hasHeader bool) ([]arrow.Record, error)
}

// CellError reports a value that does not conform to its column.
type CellError struct {
	// Row is the 1-based data row number, not counting the header.
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("row %d, column %q, value %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *CellError) Unwrap() error {
	return e.Err
}

// Option configures a CSVReader.
type Option func(*CSVReader)

// WithRowsPerChunk sets the number of rows per record batch.
func WithRowsPerChunk(n int) Option {
	return func(r *CSVReader) {
		if n > 0 {
			r.rowsPerChunk = n
		}
	}
}

// WithAllocator sets the allocator backing the record batches.
func WithAllocator(mem memory.Allocator) Option {
	return func(r *CSVReader) {
		r.mem = mem
	}
}

// CSVReader reads CSV files from a FileSystem.
type CSVReader struct {
	fs           source.FileSystem
	rowsPerChunk int
	mem          memory.Allocator
}

// NewCSVReader creates a CSVReader.
func NewCSVReader(fsys source.FileSystem, opts ...Option) *CSVReader {
	r := &CSVReader{
		fs:           fsys,
		rowsPerChunk: DefaultRowsPerChunk,
		mem:          memory.DefaultAllocator,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read implements Reader.
//
// File columns are matched to schema fields by name. Schema fields missing
// from the file are null. An empty cell is null, and a null in a
// non-nullable field is an error.
func (r *CSVReader) Read(ctx context.Context, path string, schema *arrow.Schema, delimiter byte, hasHeader bool) (records []arrow.Record, err error) {
	rc, err := r.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if err != nil {
			releaseAll(records)
			records = nil
		}
	}()

	csvReader := source.NewCSVReader(rc, delimiter)
	first, err := csvReader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	names, err := model.ColumnNames(first, hasHeader)
	if err != nil {
		return nil, err
	}

	builder := array.NewRecordBuilder(r.mem, schema)
	defer builder.Release()

	layout, err := newLayout(schema, names, builder)
	if err != nil {
		return nil, err
	}

	row, rows := 0, 0
	flush := func() {
		if rows > 0 {
			records = append(records, builder.NewRecord())
			rows = 0
		}
	}
	appendRow := func(values []string) error {
		row++
		if err := layout.append(row, values); err != nil {
			return err
		}
		rows++
		if rows == r.rowsPerChunk {
			flush()
		}
		return nil
	}

	if !hasHeader {
		if err := appendRow(first); err != nil {
			return records, err
		}
	}
	for {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		values, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return records, err
		}
		if err := appendRow(values); err != nil {
			return records, err
		}
	}
	flush()
	return records, nil
}

func releaseAll(records []arrow.Record) {
	for _, rec := range records {
		rec.Release()
	}
}
