package tldr

import "github.com/nao1215/tldr/domain/model"

// Error kinds returned by Parse, Load and Open. Match them with errors.Is.
var (
	// ErrParse indicates that a program is malformed
	ErrParse = model.ErrParse

	// ErrFileNotFound indicates that a declared file does not exist
	ErrFileNotFound = model.ErrFileNotFound

	// ErrSchemaInference indicates that the schema of a file could not be inferred
	ErrSchemaInference = model.ErrSchemaInference

	// ErrSchemaMergeConflict indicates that a declared column type cannot replace the inferred one
	ErrSchemaMergeConflict = model.ErrSchemaMergeConflict

	// ErrFileRead indicates that a file does not conform to its resolved schema
	ErrFileRead = model.ErrFileRead

	// ErrTableRegistration indicates that the query engine refused a table
	ErrTableRegistration = model.ErrTableRegistration
)

// LoadError describes the failure of one directive.
type LoadError = model.LoadError
