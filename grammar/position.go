package grammar

import (
	"fmt"
	"unicode/utf8"
)

// Position represents a location in DSL source.
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column, counted in runes
	Offset int // 0-based byte offset
}

// IsValid returns true if the position is valid (line > 0).
func (p Position) IsValid() bool {
	return p.Line > 0
}

// String returns "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// positionAt computes the line and column of a byte offset. Offsets past the end
// of src resolve to the position just after the last byte. Continuation bytes of
// a multi-byte rune do not advance the column.
func positionAt(src []byte, offset int) Position {
	if offset > len(src) {
		offset = len(src)
	}
	if offset < 0 {
		offset = 0
	}
	pos := Position{Line: 1, Column: 1, Offset: offset}
	for _, b := range src[:offset] {
		if b == '\n' {
			pos.Line++
			pos.Column = 1
			continue
		}
		if utf8.RuneStart(b) {
			pos.Column++
		}
	}
	return pos
}
