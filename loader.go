package tldr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/apache/arrow/go/v18/arrow"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/tldr/batch"
	"github.com/nao1215/tldr/domain/model"
	"github.com/nao1215/tldr/schema"
	"github.com/nao1215/tldr/source"
)

// Registrar receives loaded tables. *engine.Context implements it.
//
// RegisterTable must fail when name is already registered. Batches are
// released once RegisterTable returns, so an implementation keeping them
// must Retain them.
type Registrar interface {
	RegisterTable(ctx context.Context, name string, schema *arrow.Schema, batches []arrow.Record) error
}

// Loader executes programs: for every directive it resolves the schema,
// reads the file and registers the resulting table.
type Loader struct {
	fs          source.FileSystem
	inferrer    schema.Inferrer
	reader      batch.Reader
	logger      *slog.Logger
	concurrency int
	chunkSize   int
	resolver    *schema.Resolver
}

// NewLoader creates a Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		fs:          source.OS(),
		logger:      slog.New(slog.DiscardHandler),
		concurrency: 1,
		chunkSize:   batch.DefaultRowsPerChunk,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.inferrer == nil {
		l.inferrer = schema.NewCSVInferrer(l.fs)
	}
	if l.reader == nil {
		l.reader = batch.NewCSVReader(l.fs, batch.WithRowsPerChunk(l.chunkSize))
	}
	l.resolver = schema.NewResolver(l.fs, l.inferrer)
	return l
}

// loadedTable is a directive that is ready to be registered.
type loadedTable struct {
	name    string
	path    string
	schema  *arrow.Schema
	records []arrow.Record
	started time.Time
}

func (t *loadedTable) release() {
	if t == nil {
		return
	}
	for _, rec := range t.records {
		rec.Release()
	}
	t.records = nil
}

func (t *loadedTable) rows() int64 {
	var n int64
	for _, rec := range t.records {
		n += rec.NumRows()
	}
	return n
}

// Load runs program against registrar.
//
// Directives are processed in declaration order and the first failure is
// returned unchanged. Loading is not transactional: tables registered by
// earlier directives stay registered and later directives are skipped.
func (l *Loader) Load(ctx context.Context, program *model.Program, registrar Registrar) error {
	if program.Len() == 0 {
		return nil
	}
	if l.concurrency > 1 && program.Len() > 1 {
		return l.loadConcurrently(ctx, program, registrar)
	}

	for _, directive := range program.Directives {
		if err := ctx.Err(); err != nil {
			return err
		}
		table, err := l.prepare(ctx, directive)
		if err != nil {
			return err
		}
		if err := l.register(ctx, registrar, table); err != nil {
			return err
		}
	}
	return nil
}

// loadConcurrently resolves and reads directives in parallel, then registers
// them serially so that the outcome matches a sequential run.
func (l *Loader) loadConcurrently(ctx context.Context, program *model.Program, registrar Registrar) error {
	n := program.Len()
	tables := make([]*loadedTable, n)
	errs := make([]error, n)

	var firstFailure atomic.Int64
	firstFailure.Store(int64(n))

	// Failures are kept per directive in errs; the group only bounds parallelism.
	var g errgroup.Group
	g.SetLimit(l.concurrency)
	for i, directive := range program.Directives {
		g.Go(func() error {
			if int64(i) > firstFailure.Load() {
				return nil
			}
			table, err := l.prepare(ctx, directive)
			if err != nil {
				errs[i] = err
				for {
					current := firstFailure.Load()
					if int64(i) >= current || firstFailure.CompareAndSwap(current, int64(i)) {
						break
					}
				}
				return nil
			}
			tables[i] = table
			return nil
		})
	}
	_ = g.Wait()

	defer func() {
		for _, table := range tables {
			table.release()
		}
	}()
	for i := range program.Directives {
		if err := ctx.Err(); err != nil {
			return err
		}
		if errs[i] != nil {
			return errs[i]
		}
		if err := l.register(ctx, registrar, tables[i]); err != nil {
			return err
		}
	}
	return nil
}

// prepare resolves the schema of a directive and reads its rows.
func (l *Loader) prepare(ctx context.Context, directive model.FileDirective) (*loadedTable, error) {
	switch directive.Format() {
	case model.FormatCSV:
		d, ok := directive.(*model.CSVDirective)
		if !ok {
			return nil, fmt.Errorf("unexpected directive type %T for format %s", directive, directive.Format())
		}
		return l.prepareCSV(ctx, &d.Spec)
	default:
		return nil, fmt.Errorf("unsupported file format %s", directive.Format())
	}
}

func (l *Loader) prepareCSV(ctx context.Context, spec *model.CSVSpec) (*loadedTable, error) {
	started := time.Now()
	name := model.TableFromFilePath(spec.FilePath)
	l.logger.Debug("loading file", slog.String("path", spec.FilePath), slog.String("table", name))

	resolved, err := l.resolver.Resolve(ctx, spec)
	if err != nil {
		return nil, err
	}

	records, err := l.reader.Read(ctx, spec.FilePath, resolved, spec.Delimiter, spec.HasHeader)
	if err != nil {
		errCtx := model.NewErrorContext("read file", spec.FilePath).WithTable(name)
		var cellErr *batch.CellError
		if errors.As(err, &cellErr) {
			errCtx.WithColumn(cellErr.Column).WithDetails(fmt.Sprintf("row %d", cellErr.Row))
		}
		return nil, errCtx.Error(model.ErrFileRead, err)
	}

	return &loadedTable{
		name:    name,
		path:    spec.FilePath,
		schema:  resolved,
		records: records,
		started: started,
	}, nil
}

// register hands a prepared table to registrar and releases its batches.
func (l *Loader) register(ctx context.Context, registrar Registrar, table *loadedTable) error {
	defer table.release()

	if err := registrar.RegisterTable(ctx, table.name, table.schema, table.records); err != nil {
		return model.NewErrorContext("register table", table.path).
			WithTable(table.name).
			Error(model.ErrTableRegistration, err)
	}
	l.logger.Info("loaded table",
		slog.String("table", table.name),
		slog.String("path", table.path),
		slog.Int("columns", table.schema.NumFields()),
		slog.Int64("rows", table.rows()),
		slog.Duration("elapsed", time.Since(table.started)))
	return nil
}
