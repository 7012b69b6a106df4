// Package engine provides the query engine context that loaded tables are
// registered in. Tables live in an in-memory SQLite database and stay
// queryable with SQL for the lifetime of the context.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

var (
	// ErrNameCollision indicates that a table with the same name is already registered
	ErrNameCollision = errors.New("engine: table name already registered")

	// ErrRejected indicates that the engine refused a table definition or its rows
	ErrRejected = errors.New("engine: table rejected")

	// ErrUnknownTable indicates that no table with the given name is registered
	ErrUnknownTable = errors.New("engine: unknown table")
)

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger receiving registration events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Context) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Context is a query engine context. Registration is serialized; queries may
// run concurrently with each other.
type Context struct {
	mu     sync.Mutex
	db     *sql.DB
	id     string
	logger *slog.Logger
	tables map[string]*arrow.Schema
	order  []string
}

// New opens an empty context.
func New(ctx context.Context, opts ...Option) (*Context, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open query engine: %w", err)
	}
	// every connection to :memory: is a distinct database
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	if err := db.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to open query engine: %w", err), db.Close())
	}

	c := &Context{
		db:     db,
		id:     uuid.NewString(),
		logger: slog.New(slog.DiscardHandler),
		tables: make(map[string]*arrow.Schema),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SessionID identifies the context in logs.
func (c *Context) SessionID() string {
	return c.id
}

// DB returns the database holding the registered tables.
func (c *Context) DB() *sql.DB {
	return c.db
}

// QueryContext runs a query against the registered tables.
func (c *Context) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.db.QueryContext(ctx, query, args...)
}

// Close releases the database. Registered tables are lost.
func (c *Context) Close() error {
	return c.db.Close()
}

// Tables returns the registered table names in registration order.
func (c *Context) Tables() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.order...)
}

// Schema returns the schema a table was registered with.
func (c *Context) Schema(name string) (*arrow.Schema, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.tables[name]
	return s, ok
}

// RowCount counts the rows of a registered table.
func (c *Context) RowCount(ctx context.Context, name string) (int64, error) {
	if _, ok := c.Schema(name); !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	var n int64
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(name)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows of %s: %w", name, err)
	}
	return n, nil
}

// RegisterTable creates table name with the given schema and inserts the
// rows of batches. Names are unique within a context: registering an
// existing name fails with ErrNameCollision and leaves the existing table
// untouched. Invalid definitions or rows fail with ErrRejected and leave no
// table behind.
func (c *Context) RegisterTable(ctx context.Context, name string, schema *arrow.Schema, batches []arrow.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.tables[name]; ok {
		return fmt.Errorf("%w: %s", ErrNameCollision, name)
	}
	exists, err := c.tableExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrNameCollision, name)
	}
	if err := validate(name, schema, batches); err != nil {
		return err
	}

	rows, err := c.createAndFill(ctx, name, schema, batches)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRejected, name, err)
	}

	c.tables[name] = schema
	c.order = append(c.order, name)
	c.logger.Debug("registered table",
		slog.String("session", c.id),
		slog.String("table", name),
		slog.Int("columns", schema.NumFields()),
		slog.Int64("rows", rows))
	return nil
}

func (c *Context) tableExists(ctx context.Context, name string) (bool, error) {
	var n int
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type IN ('table', 'view') AND name = ? COLLATE NOCASE`,
		name,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check table existence: %w", err)
	}
	return n > 0, nil
}

func validate(name string, schema *arrow.Schema, batches []arrow.Record) error {
	if name == "" {
		return fmt.Errorf("%w: empty table name", ErrRejected)
	}
	if schema == nil || schema.NumFields() == 0 {
		return fmt.Errorf("%w: %s: table has no columns", ErrRejected, name)
	}
	seen := make(map[string]bool, schema.NumFields())
	for _, f := range schema.Fields() {
		key := strings.ToLower(f.Name)
		if seen[key] {
			return fmt.Errorf("%w: %s: duplicate column %q", ErrRejected, name, f.Name)
		}
		seen[key] = true
		if _, err := sqlType(f.Type); err != nil {
			return fmt.Errorf("%w: %s: column %q: %w", ErrRejected, name, f.Name, err)
		}
	}
	for i, rec := range batches {
		if !schema.Equal(rec.Schema()) {
			return fmt.Errorf("%w: %s: batch %d does not match the table schema", ErrRejected, name, i)
		}
	}
	return nil
}

func (c *Context) createAndFill(ctx context.Context, name string, schema *arrow.Schema, batches []arrow.Record) (rows int64, err error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	if _, err := tx.ExecContext(ctx, createTableQuery(name, schema)); err != nil {
		return 0, fmt.Errorf("failed to create table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertQuery(name, schema.NumFields()))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	values := make([]any, schema.NumFields())
	for _, rec := range batches {
		for row := 0; row < int(rec.NumRows()); row++ {
			for col := range values {
				values[col] = cellValue(rec.Column(col), row)
			}
			if _, err := stmt.ExecContext(ctx, values...); err != nil {
				return 0, fmt.Errorf("failed to insert record: %w", err)
			}
			rows++
		}
	}
	return rows, tx.Commit()
}

func createTableQuery(name string, schema *arrow.Schema) string {
	columns := make([]string, 0, schema.NumFields())
	for _, f := range schema.Fields() {
		typ, _ := sqlType(f.Type)
		column := quoteIdent(f.Name)
		if typ != "" {
			column += " " + typ
		}
		if !f.Nullable {
			column += " NOT NULL"
		}
		columns = append(columns, column)
	}
	return fmt.Sprintf(`CREATE TABLE %s (%s)`, quoteIdent(name), strings.Join(columns, ", "))
}

func insertQuery(name string, columns int) string {
	placeholders := make([]string, columns)
	for i := range placeholders {
		placeholders[i] = "?"
	}
	return fmt.Sprintf(`INSERT INTO %s VALUES (%s)`, quoteIdent(name), strings.Join(placeholders, ", "))
}

// quoteIdent quotes a SQLite identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
