package schema

import (
	"context"

	"github.com/apache/arrow/go/v18/arrow"

	"github.com/nao1215/tldr/domain/model"
	"github.com/nao1215/tldr/source"
)

// Resolver produces the effective schema of a CSV directive.
type Resolver struct {
	fs       source.FileSystem
	inferrer Inferrer
}

// NewResolver creates a Resolver. A nil inferrer selects a CSVInferrer over fsys.
func NewResolver(fsys source.FileSystem, inferrer Inferrer) *Resolver {
	if inferrer == nil {
		inferrer = NewCSVInferrer(fsys)
	}
	return &Resolver{fs: fsys, inferrer: inferrer}
}

// Resolve checks that the declared file exists, infers its schema from a
// sample of rows and merges the declared column types over it.
// The spec is not modified.
func (r *Resolver) Resolve(ctx context.Context, spec *model.CSVSpec) (*arrow.Schema, error) {
	errCtx := model.NewErrorContext("resolve schema", spec.FilePath)
	if !r.fs.Exists(spec.FilePath) {
		return nil, errCtx.Error(model.ErrFileNotFound, nil)
	}

	base, err := r.inferrer.Infer(ctx, spec.FilePath, spec.Delimiter, spec.SampleLimit(), spec.HasHeader)
	if err != nil {
		return nil, errCtx.Error(model.ErrSchemaInference, err)
	}

	override, err := OverrideSchema(spec.FieldTypes)
	if err != nil {
		return nil, errCtx.Error(model.ErrSchemaMergeConflict, err)
	}
	return Merge(spec.FilePath, base, override)
}
