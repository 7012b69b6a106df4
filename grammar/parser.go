// Package grammar parses tldr programs.
//
// A program starts with the load_files keyword followed by file directives:
//
//	load_files
//	CSV(file_name = "sales.csv", separator = ',', field_types {
//	    ("day": Date "%Y-%m-%d")
//	    ("amount": Float64 nullable)
//	})
//
// Whitespace and newlines separate tokens and # starts a comment running to
// the end of the line.
package grammar

import (
	"fmt"
	"io"
	"strconv"

	"github.com/viant/parsly"

	"github.com/nao1215/tldr/domain/model"
	"github.com/nao1215/tldr/source"
)

// Keywords of the language.
const (
	keywordLoadFiles      = "load_files"
	keywordCSV            = "CSV"
	keywordFileName       = "file_name"
	keywordSeparator      = "separator"
	keywordFieldTypes     = "field_types"
	keywordHasHeader      = "has_header"
	keywordMaxReadRecords = "max_read_records"
	keywordNullable       = "nullable"
	keywordNone           = "none"
	keywordTrue           = "true"
	keywordFalse          = "false"
)

// Parse parses a program. The returned program owns all of its strings.
func Parse(src string) (*model.Program, error) {
	return newParser([]byte(src)).parseProgram()
}

// ParseFile reads and parses the program stored at path.
func ParseFile(fsys source.FileSystem, path string) (*model.Program, error) {
	errCtx := model.NewErrorContext("parse", path)
	if !fsys.Exists(path) {
		return nil, errCtx.Error(model.ErrFileNotFound, nil)
	}
	rc, err := fsys.Open(path)
	if err != nil {
		return nil, errCtx.Error(model.ErrParse, err)
	}
	defer rc.Close()

	src, err := io.ReadAll(rc)
	if err != nil {
		return nil, errCtx.Error(model.ErrParse, err)
	}
	program, err := newParser(src).parseProgram()
	if perr, ok := err.(*ParseError); ok {
		perr.Path = path
	}
	return program, err
}

type lexeme struct {
	code   int
	text   string
	offset int
}

type parser struct {
	src    []byte
	cursor *parsly.Cursor
}

func newParser(src []byte) *parser {
	return &parser{src: src, cursor: parsly.NewCursor("", src, 0)}
}

// skip consumes whitespace and comments and returns the offset of the next token.
func (p *parser) skip() int {
	p.cursor.Pos += spaces.Match(p.cursor)
	return p.cursor.Pos
}

// accept matches one of tokens, leaving the cursor untouched on mismatch.
func (p *parser) accept(tokens ...*parsly.Token) (lexeme, bool) {
	offset := p.skip()
	if offset >= len(p.src) {
		return lexeme{offset: offset}, false
	}
	matched := p.cursor.MatchAfterOptional(spaceMatcher, tokens...)
	for _, token := range tokens {
		if matched.Code == token.Code {
			return lexeme{code: matched.Code, text: matched.Text(p.cursor), offset: matched.Offset}, true
		}
	}
	p.cursor.Pos = offset
	return lexeme{offset: offset}, false
}

// expect matches one of tokens or reports what was expected at the current token.
func (p *parser) expect(what string, tokens ...*parsly.Token) (lexeme, error) {
	lex, ok := p.accept(tokens...)
	if !ok {
		return lex, p.unexpected(lex.offset, what)
	}
	return lex, nil
}

func (p *parser) expectKeyword(keyword string) (lexeme, error) {
	lex, ok := p.accept(identifierMatcher)
	if !ok || lex.text != keyword {
		return lex, p.unexpected(lex.offset, strconv.Quote(keyword))
	}
	return lex, nil
}

func (p *parser) errorf(offset int, format string, args ...any) *ParseError {
	return &ParseError{Pos: positionAt(p.src, offset), Message: fmt.Sprintf(format, args...)}
}

func (p *parser) unexpected(offset int, what string) *ParseError {
	return p.errorf(offset, "expected %s, found %s", what, p.describe(offset))
}

// describe names the token starting at offset for diagnostics.
func (p *parser) describe(offset int) string {
	if offset >= len(p.src) {
		return "end of input"
	}
	b := p.src[offset]
	switch {
	case isIdentifierStart(b) || isDigit(b):
		end := offset + 1
		for end < len(p.src) && isIdentifierPart(p.src[end]) {
			end++
		}
		return strconv.Quote(string(p.src[offset:end]))
	case b == '"':
		return "string"
	default:
		return strconv.QuoteRune(rune(b))
	}
}

// program := "load_files" directive*
func (p *parser) parseProgram() (*model.Program, error) {
	if _, err := p.expectKeyword(keywordLoadFiles); err != nil {
		return nil, err
	}
	program := &model.Program{}
	for p.skip() < len(p.src) {
		directive, err := p.parseDirective()
		if err != nil {
			return nil, err
		}
		program.Directives = append(program.Directives, directive)
	}
	return program, nil
}

func (p *parser) parseDirective() (model.FileDirective, error) {
	lex, err := p.expect("file directive", identifierMatcher)
	if err != nil {
		return nil, err
	}
	switch lex.text {
	case keywordCSV:
		spec, err := p.parseCSV(lex.offset)
		if err != nil {
			return nil, err
		}
		return model.NewCSVDirective(spec), nil
	default:
		return nil, p.errorf(lex.offset, "unknown file directive %q, expected %s", lex.text, keywordCSV)
	}
}

// directive := "CSV" "(" csv_arg ("," csv_arg)* ")"
func (p *parser) parseCSV(start int) (model.CSVSpec, error) {
	spec := model.NewCSVSpec("")
	if _, err := p.expect("'(' after CSV", lParenMatcher); err != nil {
		return spec, err
	}

	seen := make(map[string]bool)
	for {
		arg, err := p.expect("CSV argument", identifierMatcher)
		if err != nil {
			return spec, err
		}
		if seen[arg.text] {
			return spec, p.errorf(arg.offset, "duplicate argument %q", arg.text)
		}
		if err := p.parseCSVArg(arg, &spec); err != nil {
			return spec, err
		}
		seen[arg.text] = true

		sep, err := p.expect("',' or ')'", commaMatcher, rParenMatcher)
		if err != nil {
			return spec, err
		}
		if sep.code == rParenToken {
			break
		}
	}

	if !seen[keywordFileName] {
		return spec, p.errorf(start, "CSV directive requires %s", keywordFileName)
	}
	return spec, nil
}

func (p *parser) parseCSVArg(arg lexeme, spec *model.CSVSpec) error {
	if arg.text == keywordFieldTypes {
		return p.parseFieldTypes(spec)
	}

	switch arg.text {
	case keywordFileName, keywordSeparator, keywordHasHeader, keywordMaxReadRecords:
	default:
		return p.errorf(arg.offset, "unknown CSV argument %q", arg.text)
	}
	if _, err := p.expect("'='", equalsMatcher); err != nil {
		return err
	}

	switch arg.text {
	case keywordFileName:
		path, offset, err := p.parseString()
		if err != nil {
			return err
		}
		if path == "" {
			return p.errorf(offset, "%s must not be empty", keywordFileName)
		}
		spec.FilePath = path
	case keywordSeparator:
		delimiter, err := p.parseSeparator()
		if err != nil {
			return err
		}
		spec.Delimiter = delimiter
	case keywordHasHeader:
		lex, ok := p.accept(identifierMatcher)
		if !ok {
			return p.unexpected(p.skip(), "true or false")
		}
		if lex.text != keywordTrue && lex.text != keywordFalse {
			return p.unexpected(lex.offset, "true or false")
		}
		spec.HasHeader = lex.text == keywordTrue
	case keywordMaxReadRecords:
		limit, err := p.parseSampleLimit()
		if err != nil {
			return err
		}
		spec.MaxSampleRecords = limit
	}
	return nil
}

// sample_arg value := positive_integer | "none"
func (p *parser) parseSampleLimit() (*int, error) {
	lex, ok := p.accept(integerMatcher, identifierMatcher)
	if !ok {
		return nil, p.unexpected(lex.offset, "positive integer or none")
	}
	if lex.code == identifierToken {
		if lex.text != keywordNone {
			return nil, p.unexpected(lex.offset, "positive integer or none")
		}
		return nil, nil
	}
	n, err := strconv.Atoi(lex.text)
	if err != nil || n <= 0 {
		return nil, p.errorf(lex.offset, "%s must be a positive integer, got %s", keywordMaxReadRecords, lex.text)
	}
	return &n, nil
}

func (p *parser) parseSeparator() (byte, error) {
	lex, err := p.expect("byte literal such as ','", byteLiteralMatcher)
	if err != nil {
		return 0, err
	}
	b, err := decodeByte(lex.text)
	if err != nil {
		return 0, p.errorf(lex.offset, "%v", err)
	}
	if b == '"' || b == '\n' || b == '\r' || b >= 0x80 {
		return 0, p.errorf(lex.offset, "invalid separator %s", lex.text)
	}
	return b, nil
}

// parseString matches a quoted string and returns its decoded value and offset.
func (p *parser) parseString() (string, int, error) {
	lex, ok := p.accept(quotedMatcher)
	if !ok {
		if lex.offset < len(p.src) && p.src[lex.offset] == '"' {
			return "", lex.offset, p.errorf(lex.offset, "unterminated string")
		}
		return "", lex.offset, p.unexpected(lex.offset, "quoted string")
	}
	value, bad, err := unquote(lex.text)
	if err != nil {
		return "", lex.offset, p.errorf(lex.offset+bad, "%v", err)
	}
	return value, lex.offset, nil
}

// field_types_arg := "field_types" "{" field_type_entry* "}"
func (p *parser) parseFieldTypes(spec *model.CSVSpec) error {
	if _, err := p.expect("'{' after field_types", lBraceMatcher); err != nil {
		return err
	}
	for {
		lex, err := p.expect("'(' or '}'", lParenMatcher, rBraceMatcher)
		if err != nil {
			return err
		}
		if lex.code == rBraceToken {
			return nil
		}
		if err := p.parseFieldEntry(spec); err != nil {
			return err
		}
	}
}

// field_type_entry := "(" quoted_string ":" type_expr ["nullable"] ")"
func (p *parser) parseFieldEntry(spec *model.CSVSpec) error {
	column, offset, err := p.parseString()
	if err != nil {
		return err
	}
	if column == "" {
		return p.errorf(offset, "column name must not be empty")
	}
	if _, dup := spec.FieldTypes[column]; dup {
		return p.errorf(offset, "duplicate column %q in field_types", column)
	}
	if _, err := p.expect("':'", colonMatcher); err != nil {
		return err
	}

	desc, err := p.parseType()
	if err != nil {
		return err
	}
	if lex, ok := p.accept(identifierMatcher); ok {
		if lex.text != keywordNullable {
			return p.unexpected(lex.offset, "nullable or ')'")
		}
		desc.Nullable = true
	}
	if _, err := p.expect("')'", rParenMatcher); err != nil {
		return err
	}
	spec.FieldTypes[column] = desc
	return nil
}

// type_expr := scalar_type | "Duration" time_unit | "Time" quoted_string
//
//	| "Date" quoted_string | "Datetime" quoted_string time_unit [quoted_string]
func (p *parser) parseType() (model.TypeDescriptor, error) {
	lex, err := p.expect("type", identifierMatcher)
	if err != nil {
		return model.TypeDescriptor{}, err
	}
	if kind, ok := model.ScalarKind(lex.text); ok {
		return model.NewScalar(kind, false), nil
	}

	switch lex.text {
	case model.KindDuration.String():
		unit, err := p.parseTimeUnit()
		if err != nil {
			return model.TypeDescriptor{}, err
		}
		return model.NewDuration(false, unit), nil
	case model.KindTime.String():
		format, err := p.parseFormat()
		if err != nil {
			return model.TypeDescriptor{}, err
		}
		return model.NewTime(false, format), nil
	case model.KindDate.String():
		format, err := p.parseFormat()
		if err != nil {
			return model.TypeDescriptor{}, err
		}
		return model.NewDate(false, format), nil
	case model.KindDatetime.String():
		return p.parseDatetime()
	default:
		return model.TypeDescriptor{}, p.errorf(lex.offset, "unknown type %q", lex.text)
	}
}

func (p *parser) parseDatetime() (model.TypeDescriptor, error) {
	format, err := p.parseFormat()
	if err != nil {
		return model.TypeDescriptor{}, err
	}
	unit, err := p.parseTimeUnit()
	if err != nil {
		return model.TypeDescriptor{}, err
	}

	var timezone string
	if p.skip() < len(p.src) && p.src[p.cursor.Pos] == '"' {
		tz, offset, err := p.parseString()
		if err != nil {
			return model.TypeDescriptor{}, err
		}
		if err := validateTimezone(tz); err != nil {
			return model.TypeDescriptor{}, p.errorf(offset, "%v", err)
		}
		timezone = tz
	}
	return model.NewDatetime(false, format, unit, timezone), nil
}

func (p *parser) parseFormat() (string, error) {
	format, offset, err := p.parseString()
	if err != nil {
		return "", err
	}
	if err := validateFormat(format); err != nil {
		return "", p.errorf(offset, "%v", err)
	}
	return format, nil
}

// time_unit := "Seconds" | "Milliseconds" | "Microseconds" | "Nanoseconds"
func (p *parser) parseTimeUnit() (model.TimeUnit, error) {
	lex, ok := p.accept(identifierMatcher)
	if ok {
		if unit, ok := model.ParseTimeUnit(lex.text); ok {
			return unit, nil
		}
	}
	return 0, p.unexpected(lex.offset, "time unit (Seconds, Milliseconds, Microseconds or Nanoseconds)")
}
