package model

import (
	"fmt"
	"sort"
)

// Directive defaults applied when a CSV(...) clause omits an argument.
const (
	// DefaultDelimiter is the field delimiter of a CSV directive
	DefaultDelimiter = ';'
	// DefaultMaxSampleRecords is the number of data rows scanned for schema inference
	DefaultMaxSampleRecords = 100
	// DefaultHasHeader tells whether the first row holds column names
	DefaultHasHeader = true
)

// FileFormat identifies the kind of file a directive loads.
type FileFormat int

const (
	// FormatCSV is a delimited text file
	FormatCSV FileFormat = iota
)

// String returns the DSL keyword of the format.
func (f FileFormat) String() string {
	switch f {
	case FormatCSV:
		return "CSV"
	default:
		return fmt.Sprintf("FileFormat(%d)", int(f))
	}
}

// FileDirective is one file-loading declaration of a program.
// The set of implementations is closed to this package.
type FileDirective interface {
	// Format returns the file format the directive loads.
	Format() FileFormat
	// Path returns the path of the file to load.
	Path() string

	fileDirective()
}

// CSVSpec describes how a CSV file is loaded.
type CSVSpec struct {
	// FilePath is the file to load, relative to the working directory.
	FilePath string
	// FieldTypes maps column names to user declared types.
	FieldTypes map[string]TypeDescriptor
	// Delimiter separates fields.
	Delimiter byte
	// MaxSampleRecords bounds the rows scanned for inference. nil scans every row.
	MaxSampleRecords *int
	// HasHeader tells whether the first row holds column names.
	HasHeader bool
}

// NewCSVSpec creates a CSVSpec with default settings.
func NewCSVSpec(filePath string) CSVSpec {
	limit := DefaultMaxSampleRecords
	return CSVSpec{
		FilePath:         filePath,
		FieldTypes:       make(map[string]TypeDescriptor),
		Delimiter:        DefaultDelimiter,
		MaxSampleRecords: &limit,
		HasHeader:        DefaultHasHeader,
	}
}

// SampleLimit returns the inference sample bound, 0 meaning unbounded.
func (s *CSVSpec) SampleLimit() int {
	if s.MaxSampleRecords == nil {
		return 0
	}
	return *s.MaxSampleRecords
}

// OverrideColumns returns the declared column names in sorted order.
func (s *CSVSpec) OverrideColumns() []string {
	names := make([]string, 0, len(s.FieldTypes))
	for name := range s.FieldTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CSVDirective is the CSV(...) clause.
type CSVDirective struct {
	Spec CSVSpec
}

// NewCSVDirective wraps a spec into a directive.
func NewCSVDirective(spec CSVSpec) *CSVDirective {
	return &CSVDirective{Spec: spec}
}

// Format implements FileDirective.
func (d *CSVDirective) Format() FileFormat {
	return FormatCSV
}

// Path implements FileDirective.
func (d *CSVDirective) Path() string {
	return d.Spec.FilePath
}

func (d *CSVDirective) fileDirective() {}

// Program is a parsed DSL program: file directives in declaration order.
type Program struct {
	Directives []FileDirective
}

// Len returns the number of directives.
func (p *Program) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Directives)
}

// Append adds the directives of other after the directives of p.
func (p *Program) Append(other *Program) {
	if other == nil {
		return
	}
	p.Directives = append(p.Directives, other.Directives...)
}
