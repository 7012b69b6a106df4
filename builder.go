package tldr

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/tldr/domain/model"
	"github.com/nao1215/tldr/engine"
	"github.com/nao1215/tldr/grammar"
)

// Builder collects program sources, parses them into a single program and
// loads it into a new engine context.
//
// The typical usage pattern is:
//
//	builder := tldr.NewBuilder(tldr.WithConcurrency(4)).
//	    AddProgramFile("load.tldr").
//	    AddProgram(`load_files CSV(file_name = "extra.csv")`)
//
//	validatedBuilder, err := builder.Build(ctx)
//	if err != nil {
//		return err
//	}
//	ec, err := validatedBuilder.Open(ctx)
//	if err != nil {
//		return err
//	}
//	defer ec.Close()
type Builder struct {
	// sources are raw programs or program file paths, in the order added
	sources []programSource
	// program is the concatenation of all sources after Build
	program *model.Program
	loader  *Loader
}

type programSource struct {
	text string
	path string
}

// NewBuilder creates a Builder. The options configure the Loader used by Open.
func NewBuilder(opts ...Option) *Builder {
	return &Builder{
		sources: make([]programSource, 0),
		loader:  NewLoader(opts...),
	}
}

// AddProgram adds program text.
// Returns the builder for method chaining.
func (b *Builder) AddProgram(src string) *Builder {
	b.sources = append(b.sources, programSource{text: src})
	return b
}

// AddProgramFile adds a program file, read through the configured file system.
// Returns the builder for method chaining.
func (b *Builder) AddProgramFile(path string) *Builder {
	b.sources = append(b.sources, programSource{path: path})
	return b
}

// Build parses every source. Directives of later sources follow those of
// earlier ones. Build must be called before Open.
//
// Returns the same builder instance for method chaining, or an error if any
// source fails to parse.
func (b *Builder) Build(_ context.Context) (*Builder, error) {
	if len(b.sources) == 0 {
		return nil, errors.New("at least one program must be provided")
	}

	program := &model.Program{}
	for _, src := range b.sources {
		var (
			parsed *model.Program
			err    error
		)
		if src.path != "" {
			parsed, err = grammar.ParseFile(b.loader.fs, src.path)
		} else {
			parsed, err = grammar.Parse(src.text)
		}
		if err != nil {
			return nil, err
		}
		program.Append(parsed)
	}
	b.program = program
	return b, nil
}

// Program returns the program parsed by Build.
func (b *Builder) Program() *model.Program {
	return b.program
}

// Open creates an engine context and loads the built program into it.
// On failure the context is closed; use a Loader directly to keep the tables
// of directives that loaded before the failure.
func (b *Builder) Open(ctx context.Context) (*engine.Context, error) {
	if b.program == nil {
		return nil, errors.New("no program to load, did you call Build()?")
	}

	ec, err := engine.New(ctx, engine.WithLogger(b.loader.logger))
	if err != nil {
		return nil, err
	}
	if err := b.loader.Load(ctx, b.program, ec); err != nil {
		if closeErr := ec.Close(); closeErr != nil {
			return nil, errors.Join(err, fmt.Errorf("failed to close engine: %w", closeErr))
		}
		return nil, err
	}
	return ec, nil
}
