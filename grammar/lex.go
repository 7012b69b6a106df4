package grammar

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

const (
	spaceToken = iota
	identifierToken
	quotedToken
	byteLiteralToken
	integerToken
	lParenToken
	rParenToken
	lBraceToken
	rBraceToken
	commaToken
	equalsToken
	colonToken
)

var spaces = &space{}
var spaceMatcher = parsly.NewToken(spaceToken, "Whitespace", spaces)
var identifierMatcher = parsly.NewToken(identifierToken, "Identifier", &identifier{})
var quotedMatcher = parsly.NewToken(quotedToken, "String", &quoted{})
var byteLiteralMatcher = parsly.NewToken(byteLiteralToken, "Byte", &byteLiteral{})
var integerMatcher = parsly.NewToken(integerToken, "Integer", &integer{})
var lParenMatcher = parsly.NewToken(lParenToken, "(", matcher.NewByte('('))
var rParenMatcher = parsly.NewToken(rParenToken, ")", matcher.NewByte(')'))
var lBraceMatcher = parsly.NewToken(lBraceToken, "{", matcher.NewByte('{'))
var rBraceMatcher = parsly.NewToken(rBraceToken, "}", matcher.NewByte('}'))
var commaMatcher = parsly.NewToken(commaToken, ",", matcher.NewByte(','))
var equalsMatcher = parsly.NewToken(equalsToken, "=", matcher.NewByte('='))
var colonMatcher = parsly.NewToken(colonToken, ":", matcher.NewByte(':'))

// space matches whitespace and # comments running to the end of the line.
type space struct{}

func (s *space) Match(cursor *parsly.Cursor) int {
	pos := cursor.Pos
	for pos < cursor.InputSize {
		b := cursor.Input[pos]
		switch {
		case isWhitespace(b):
			pos++
		case b == '#':
			for pos < cursor.InputSize && cursor.Input[pos] != '\n' {
				pos++
			}
		default:
			return pos - cursor.Pos
		}
	}
	return pos - cursor.Pos
}

type identifier struct{}

func (i *identifier) Match(cursor *parsly.Cursor) int {
	if cursor.Pos >= cursor.InputSize {
		return 0
	}
	if !isIdentifierStart(cursor.Input[cursor.Pos]) {
		return 0
	}
	pos := cursor.Pos + 1
	for pos < cursor.InputSize && isIdentifierPart(cursor.Input[pos]) {
		pos++
	}
	return pos - cursor.Pos
}

// quoted matches a double quoted string. Escapes are validated when the value is decoded.
type quoted struct{}

func (q *quoted) Match(cursor *parsly.Cursor) int {
	if cursor.Pos >= cursor.InputSize || cursor.Input[cursor.Pos] != '"' {
		return 0
	}
	for pos := cursor.Pos + 1; pos < cursor.InputSize; pos++ {
		switch cursor.Input[pos] {
		case '\\':
			pos++
		case '"':
			return pos - cursor.Pos + 1
		}
	}
	return 0
}

// byteLiteral matches 'x' or a two byte escape such as '\t'.
type byteLiteral struct{}

func (l *byteLiteral) Match(cursor *parsly.Cursor) int {
	input, pos := cursor.Input, cursor.Pos
	if pos+2 >= cursor.InputSize || input[pos] != '\'' {
		return 0
	}
	if input[pos+1] == '\\' {
		if pos+3 < cursor.InputSize && input[pos+3] == '\'' {
			return 4
		}
		return 0
	}
	if input[pos+1] != '\'' && input[pos+2] == '\'' {
		return 3
	}
	return 0
}

// integer matches an unsigned decimal number not glued to an identifier.
type integer struct{}

func (n *integer) Match(cursor *parsly.Cursor) int {
	pos := cursor.Pos
	for pos < cursor.InputSize && isDigit(cursor.Input[pos]) {
		pos++
	}
	if pos == cursor.Pos {
		return 0
	}
	if pos < cursor.InputSize && isIdentifierStart(cursor.Input[pos]) {
		return 0
	}
	return pos - cursor.Pos
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r' || b == '\v' || b == '\f'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isIdentifierStart(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_'
}

func isIdentifierPart(b byte) bool {
	return isIdentifierStart(b) || isDigit(b)
}
