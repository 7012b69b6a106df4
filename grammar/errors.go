package grammar

import (
	"fmt"

	"github.com/nao1215/tldr/domain/model"
)

// ParseError represents a parsing error with source location.
type ParseError struct {
	// Path is the DSL file name, empty for in-memory programs.
	Path    string
	Pos     Position
	Message string
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Pos.Line, e.Pos.Column, e.Message)
	}
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Is makes every ParseError match model.ErrParse.
func (e *ParseError) Is(target error) bool {
	return target == model.ErrParse
}
