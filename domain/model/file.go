package model

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// File extensions
const (
	// ExtCSV is the CSV file extension
	ExtCSV = ".csv"
	// ExtGZ is the gzip compression extension
	ExtGZ = ".gz"
	// ExtBZ2 is the bzip2 compression extension
	ExtBZ2 = ".bz2"
	// ExtXZ is the xz compression extension
	ExtXZ = ".xz"
	// ExtZSTD is the zstd compression extension
	ExtZSTD = ".zst"
)

// CompressionType represents the compression applied to an input file
type CompressionType int

const (
	// CompressionNone represents no compression
	CompressionNone CompressionType = iota
	// CompressionGZ represents gzip compression
	CompressionGZ
	// CompressionBZ2 represents bzip2 compression
	CompressionBZ2
	// CompressionXZ represents xz compression
	CompressionXZ
	// CompressionZSTD represents zstd compression
	CompressionZSTD
)

var compressionExtensions = []struct {
	ext string
	typ CompressionType
}{
	{ExtGZ, CompressionGZ},
	{ExtBZ2, CompressionBZ2},
	{ExtXZ, CompressionXZ},
	{ExtZSTD, CompressionZSTD},
}

// String returns the string representation of CompressionType
func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGZ:
		return "gzip"
	case CompressionBZ2:
		return "bzip2"
	case CompressionXZ:
		return "xz"
	case CompressionZSTD:
		return "zstd"
	default:
		return "unknown"
	}
}

// Extension returns the file extension of the compression type
func (c CompressionType) Extension() string {
	for _, ce := range compressionExtensions {
		if ce.typ == c {
			return ce.ext
		}
	}
	return ""
}

// DetectCompression returns the compression type implied by the path suffix.
func DetectCompression(path string) CompressionType {
	lower := strings.ToLower(path)
	for _, ce := range compressionExtensions {
		if strings.HasSuffix(lower, ce.ext) {
			return ce.typ
		}
	}
	return CompressionNone
}

// trimCompression removes one compression extension, if present.
func trimCompression(name string) string {
	if c := DetectCompression(name); c != CompressionNone {
		return name[:len(name)-len(c.Extension())]
	}
	return name
}

// IsSupportedFile checks if the file has a supported extension
func IsSupportedFile(fileName string) bool {
	return strings.EqualFold(filepath.Ext(trimCompression(fileName)), ExtCSV)
}

// TableFromFilePath creates table name from file path
func TableFromFilePath(filePath string) string {
	fileName := filepath.Base(filePath)
	// Remove compression extensions first
	fileName = trimCompression(fileName)
	// Then remove the file type extension
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}

// ColumnName returns the generated name of the column at zero-based index i,
// used when a file has no header or a header cell is empty.
func ColumnName(i int) string {
	return "column_" + strconv.Itoa(i+1)
}

// ColumnNames derives column names from a header row. With no header the
// names are generated from the row width. Duplicate names are rejected.
func ColumnNames(row []string, hasHeader bool) ([]string, error) {
	names := make([]string, len(row))
	seen := make(map[string]bool, len(row))
	for i := range row {
		name := ColumnName(i)
		if hasHeader && strings.TrimSpace(row[i]) != "" {
			name = row[i]
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateColumnName, name)
		}
		seen[name] = true
		names[i] = name
	}
	return names, nil
}
