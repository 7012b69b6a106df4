package tldr

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/tldr/domain/model"
	"github.com/nao1215/tldr/engine"
	"github.com/nao1215/tldr/grammar"
	"github.com/nao1215/tldr/source"
)

// testWriter forwards log output to the test log.
type testWriter struct {
	t *testing.T
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t: t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newEngine(t *testing.T) *engine.Context {
	t.Helper()
	ec, err := engine.New(context.Background(), engine.WithLogger(testLogger(t)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ec.Close() })
	return ec
}

func mustParse(t *testing.T, src string) *model.Program {
	t.Helper()
	program, err := grammar.Parse(src)
	require.NoError(t, err)
	return program
}

func newTestLoader(t *testing.T, files fstest.MapFS, opts ...Option) *Loader {
	t.Helper()
	opts = append([]Option{WithFileSystem(source.FromFS(files)), WithLogger(testLogger(t))}, opts...)
	return NewLoader(opts...)
}

func gzipped(t *testing.T, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{
		"people.csv":     {Data: []byte("id;name;score;active\n1;alice;1.5;true\n2;bob;;false\n3;;2;TRUE\n")},
		"sales.csv":      {Data: []byte("day,amount\n2024-01-01,10\n2024-01-02,12.5\n")},
		"raw.csv":        {Data: []byte("1|a\n2|b\n")},
		"archive.csv.gz": {Data: gzipped(t, "n\n1\n2\n3\n")},
	}
	program := mustParse(t, `load_files
CSV(file_name = "people.csv")
CSV(file_name = "sales.csv", separator = ',', field_types {
    ("day": Date "%Y-%m-%d")
    ("amount": Float32 nullable)
})
CSV(file_name = "raw.csv", separator = '|', has_header = false)
CSV(file_name = "archive.csv.gz")`)

	for _, concurrency := range []int{1, 4} {
		t.Run(fmt.Sprintf("concurrency %d", concurrency), func(t *testing.T) {
			t.Parallel()

			ec := newEngine(t)
			loader := newTestLoader(t, files, WithConcurrency(concurrency), WithChunkSize(2))
			require.NoError(t, loader.Load(context.Background(), program, ec))

			assert.Equal(t, []string{"people", "sales", "raw", "archive"}, ec.Tables())

			people, ok := ec.Schema("people")
			require.True(t, ok)
			expected := arrow.NewSchema([]arrow.Field{
				{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
				{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
				{Name: "score", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
				{Name: "active", Type: arrow.FixedWidthTypes.Boolean, Nullable: true},
			}, nil)
			assert.True(t, expected.Equal(people), people.String())

			sales, ok := ec.Schema("sales")
			require.True(t, ok)
			assert.Equal(t, arrow.BinaryTypes.String, sales.Field(0).Type)
			assert.False(t, sales.Field(0).Nullable)
			assert.Equal(t, arrow.PrimitiveTypes.Float32, sales.Field(1).Type)

			raw, ok := ec.Schema("raw")
			require.True(t, ok)
			assert.Equal(t, "column_1", raw.Field(0).Name)
			assert.Equal(t, "column_2", raw.Field(1).Name)

			for name, rows := range map[string]int64{"people": 3, "sales": 2, "raw": 2, "archive": 3} {
				n, err := ec.RowCount(context.Background(), name)
				require.NoError(t, err)
				assert.Equal(t, rows, n, name)
			}

			var total float64
			row := ec.DB().QueryRowContext(context.Background(), `SELECT SUM(score) FROM people WHERE active = 1`)
			require.NoError(t, row.Scan(&total))
			assert.InDelta(t, 3.5, total, 1e-9)
		})
	}
}

func TestLoader_EmptyProgram(t *testing.T) {
	t.Parallel()

	ec := newEngine(t)
	loader := newTestLoader(t, fstest.MapFS{})
	require.NoError(t, loader.Load(context.Background(), mustParse(t, "load_files"), ec))
	require.NoError(t, loader.Load(context.Background(), nil, ec))
	assert.Empty(t, ec.Tables())
}

func TestLoader_MissingFile(t *testing.T) {
	t.Parallel()

	ec := newEngine(t)
	loader := newTestLoader(t, fstest.MapFS{})
	err := loader.Load(context.Background(), mustParse(t, `load_files CSV(file_name = "a.csv")`), ec)

	require.ErrorIs(t, err, ErrFileNotFound)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "a.csv", loadErr.Path)
	assert.Empty(t, ec.Tables())
}

func TestLoader_DateOverrideOverText(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{"k.csv": {Data: []byte("K;v\n2024-01-01;1\n2024-02-01;2\n")}}
	ec := newEngine(t)
	loader := newTestLoader(t, files)
	err := loader.Load(context.Background(), mustParse(t,
		`load_files CSV(file_name = "k.csv", field_types { ("K": Date "%Y-%m-%d") })`), ec)
	require.NoError(t, err)

	got, ok := ec.Schema("k")
	require.True(t, ok)
	expected := arrow.NewSchema([]arrow.Field{
		{Name: "K", Type: arrow.BinaryTypes.String},
		{Name: "v", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	}, nil)
	assert.True(t, expected.Equal(got), got.String())

	var day string
	require.NoError(t, ec.DB().QueryRowContext(context.Background(), `SELECT K FROM k WHERE v = 2`).Scan(&day))
	assert.Equal(t, "2024-02-01", day)
}

func TestLoader_Uint64AboveInt64(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		data     string
		program  string
		expected arrow.DataType
		values   []string
	}{
		{
			name:     "declared",
			data:     "v\n18446744073709551615\n",
			program:  `load_files CSV(file_name = "huge.csv", field_types { ("v": UInt64) })`,
			expected: arrow.PrimitiveTypes.Uint64,
			values:   []string{"18446744073709551615"},
		},
		{
			name:     "declared with small sample",
			data:     "v\n1\n18446744073709551615\n",
			program:  `load_files CSV(file_name = "huge.csv", max_read_records = 1, field_types { ("v": UInt64) })`,
			expected: arrow.PrimitiveTypes.Uint64,
			values:   []string{"1", "18446744073709551615"},
		},
		{
			name:     "inferred",
			data:     "v\n18446744073709551615\n7\n",
			program:  `load_files CSV(file_name = "huge.csv")`,
			expected: arrow.PrimitiveTypes.Uint64,
			values:   []string{"7", "18446744073709551615"},
		},
		{
			name:     "inferred with negatives",
			data:     "v\n-1\n18446744073709551615\n",
			program:  `load_files CSV(file_name = "huge.csv")`,
			expected: arrow.PrimitiveTypes.Float64,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ec := newEngine(t)
			loader := newTestLoader(t, fstest.MapFS{"huge.csv": {Data: []byte(tt.data)}})
			require.NoError(t, loader.Load(context.Background(), mustParse(t, tt.program), ec))

			schema, ok := ec.Schema("huge")
			require.True(t, ok)
			assert.Equal(t, tt.expected, schema.Field(0).Type)
			if tt.values == nil {
				return
			}

			rows, err := ec.QueryContext(context.Background(), `SELECT v FROM huge ORDER BY v`)
			require.NoError(t, err)
			defer rows.Close()
			var got []string
			for rows.Next() {
				var v string
				require.NoError(t, rows.Scan(&v))
				got = append(got, v)
			}
			require.NoError(t, rows.Err())
			assert.Equal(t, tt.values, got)
		})
	}
}

func TestLoader_TableNameCollision(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{
		"dir1/x.csv": {Data: []byte("a\n1\n2\n")},
		"dir2/x.csv": {Data: []byte("b\nfoo\n")},
	}
	program := mustParse(t, `load_files
CSV(file_name = "dir1/x.csv")
CSV(file_name = "dir2/x.csv")`)

	for _, concurrency := range []int{1, 2} {
		t.Run(fmt.Sprintf("concurrency %d", concurrency), func(t *testing.T) {
			t.Parallel()

			ec := newEngine(t)
			loader := newTestLoader(t, files, WithConcurrency(concurrency))
			err := loader.Load(context.Background(), program, ec)

			require.ErrorIs(t, err, ErrTableRegistration)
			assert.ErrorIs(t, err, engine.ErrNameCollision)
			var loadErr *LoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, "x", loadErr.Table)
			assert.Equal(t, "dir2/x.csv", loadErr.Path)

			assert.Equal(t, []string{"x"}, ec.Tables())
			schema, ok := ec.Schema("x")
			require.True(t, ok)
			assert.Equal(t, "a", schema.Field(0).Name)
			n, err := ec.RowCount(context.Background(), "x")
			require.NoError(t, err)
			assert.Equal(t, int64(2), n)
		})
	}
}

func TestLoader_SampleLimitHidesBadRow(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	sb.WriteString("id;n\n")
	for i := 1; i <= 1000; i++ {
		if i == 500 {
			fmt.Fprintf(&sb, "%d;oops\n", i)
			continue
		}
		fmt.Fprintf(&sb, "%d;%d\n", i, i*2)
	}
	files := fstest.MapFS{"big.csv": {Data: []byte(sb.String())}}

	ec := newEngine(t)
	loader := newTestLoader(t, files)
	err := loader.Load(context.Background(), mustParse(t,
		`load_files CSV(file_name = "big.csv", max_read_records = 10)`), ec)

	require.ErrorIs(t, err, ErrFileRead)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "big", loadErr.Table)
	assert.Equal(t, "n", loadErr.Column)
	assert.Equal(t, "row 500", loadErr.Details)
	assert.Empty(t, ec.Tables())

	// Sampling every row widens n to text and the file loads.
	ec = newEngine(t)
	require.NoError(t, loader.Load(context.Background(), mustParse(t,
		`load_files CSV(file_name = "big.csv", max_read_records = none)`), ec))
	schema, ok := ec.Schema("big")
	require.True(t, ok)
	assert.Equal(t, arrow.BinaryTypes.String, schema.Field(1).Type)
}

func TestLoader_PartialSuccess(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{
		"a.csv": {Data: []byte("v\n1\n")},
		"c.csv": {Data: []byte("v\n3\n")},
	}
	program := mustParse(t, `load_files
CSV(file_name = "a.csv")
CSV(file_name = "b.csv")
CSV(file_name = "c.csv")`)

	for _, concurrency := range []int{1, 3} {
		t.Run(fmt.Sprintf("concurrency %d", concurrency), func(t *testing.T) {
			t.Parallel()

			ec := newEngine(t)
			loader := newTestLoader(t, files, WithConcurrency(concurrency))
			err := loader.Load(context.Background(), program, ec)

			require.ErrorIs(t, err, ErrFileNotFound)
			var loadErr *LoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, "b.csv", loadErr.Path)
			assert.Equal(t, []string{"a"}, ec.Tables())
		})
	}
}

func TestLoader_MergeConflict(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{"flags.csv": {Data: []byte("flag\n1\n0\n")}}
	ec := newEngine(t)
	loader := newTestLoader(t, files)
	err := loader.Load(context.Background(), mustParse(t,
		`load_files CSV(file_name = "flags.csv", field_types { ("flag": Boolean) })`), ec)

	require.ErrorIs(t, err, ErrSchemaMergeConflict)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "flag", loadErr.Column)
	assert.Empty(t, ec.Tables())
}

func TestLoader_UnsupportedFile(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{"data.json": {Data: []byte(`{"a": 1}`)}}
	ec := newEngine(t)
	loader := newTestLoader(t, files)
	err := loader.Load(context.Background(), mustParse(t, `load_files CSV(file_name = "data.json")`), ec)

	require.ErrorIs(t, err, ErrSchemaInference)
	assert.Contains(t, err.Error(), "data.json")
}

func TestLoader_NotNullViolation(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{"ids.csv": {Data: []byte("id;name\n1;a\n;b\n")}}
	ec := newEngine(t)
	loader := newTestLoader(t, files)
	err := loader.Load(context.Background(), mustParse(t,
		`load_files CSV(file_name = "ids.csv", field_types { ("id": UInt16) })`), ec)

	require.ErrorIs(t, err, ErrFileRead)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "id", loadErr.Column)
	assert.Equal(t, "row 2", loadErr.Details)
}

// fakeInferrer returns a fixed schema or error.
type fakeInferrer struct {
	schema *arrow.Schema
	err    error
}

func (f fakeInferrer) Infer(context.Context, string, byte, int, bool) (*arrow.Schema, error) {
	return f.schema, f.err
}

func TestLoader_InferrerFailure(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{"a.csv": {Data: []byte("v\n1\n")}}
	cause := errors.New("sampling failed")
	ec := newEngine(t)
	loader := newTestLoader(t, files, WithInferrer(fakeInferrer{err: cause}))
	err := loader.Load(context.Background(), mustParse(t, `load_files CSV(file_name = "a.csv")`), ec)

	require.ErrorIs(t, err, ErrSchemaInference)
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, ec.Tables())
}

// recordingRegistrar remembers registered tables without keeping their batches.
type recordingRegistrar struct {
	mu     sync.Mutex
	names  []string
	rows   map[string]int64
	reject string
}

func (r *recordingRegistrar) RegisterTable(_ context.Context, name string, _ *arrow.Schema, batches []arrow.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == r.reject {
		return errors.New("refused")
	}
	if r.rows == nil {
		r.rows = make(map[string]int64)
	}
	r.names = append(r.names, name)
	for _, rec := range batches {
		r.rows[name] += rec.NumRows()
	}
	return nil
}

func TestLoader_CustomRegistrar(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{
		"a.csv": {Data: []byte("v\n1\n2\n3\n")},
		"b.csv": {Data: []byte("v\n1\n")},
		"c.csv": {Data: []byte("v\n1\n")},
	}
	program := mustParse(t, `load_files
CSV(file_name = "a.csv")
CSV(file_name = "b.csv")
CSV(file_name = "c.csv")`)

	t.Run("all registered in order", func(t *testing.T) {
		t.Parallel()

		registrar := &recordingRegistrar{}
		loader := newTestLoader(t, files, WithConcurrency(3), WithChunkSize(1))
		require.NoError(t, loader.Load(context.Background(), program, registrar))
		assert.Equal(t, []string{"a", "b", "c"}, registrar.names)
		assert.Equal(t, int64(3), registrar.rows["a"])
	})

	t.Run("refusal stops the load", func(t *testing.T) {
		t.Parallel()

		registrar := &recordingRegistrar{reject: "b"}
		loader := newTestLoader(t, files)
		err := loader.Load(context.Background(), program, registrar)
		require.ErrorIs(t, err, ErrTableRegistration)
		assert.Equal(t, []string{"a"}, registrar.names)
	})
}

func TestLoader_CanceledContext(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{"a.csv": {Data: []byte("v\n1\n")}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ec := newEngine(t)
	loader := newTestLoader(t, files)
	err := loader.Load(ctx, mustParse(t, `load_files CSV(file_name = "a.csv")`), ec)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ec.Tables())
}
