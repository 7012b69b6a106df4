package tldr

import (
	"log/slog"

	"github.com/nao1215/tldr/batch"
	"github.com/nao1215/tldr/schema"
	"github.com/nao1215/tldr/source"
)

// Option configures a Loader.
type Option func(*Loader)

// WithFileSystem sets where declared files are read from. Defaults to source.OS().
func WithFileSystem(fsys source.FileSystem) Option {
	return func(l *Loader) {
		if fsys != nil {
			l.fs = fsys
		}
	}
}

// WithInferrer replaces the CSV schema inferrer.
func WithInferrer(inferrer schema.Inferrer) Option {
	return func(l *Loader) {
		l.inferrer = inferrer
	}
}

// WithReader replaces the CSV row reader.
func WithReader(reader batch.Reader) Option {
	return func(l *Loader) {
		l.reader = reader
	}
}

// WithLogger sets the logger receiving load events. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithConcurrency sets how many directives are resolved and read at the same
// time. Tables are still registered one by one in declaration order.
func WithConcurrency(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// WithChunkSize sets the number of rows per record batch of the default reader.
func WithChunkSize(rows int) Option {
	return func(l *Loader) {
		if rows > 0 {
			l.chunkSize = rows
		}
	}
}
