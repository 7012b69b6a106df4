package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableFromFilePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		filePath string
		expected string
	}{
		{name: "Simple CSV file", filePath: "test.csv", expected: "test"},
		{name: "Compressed CSV file", filePath: "data.csv.gz", expected: "data"},
		{name: "Zstd compressed CSV file", filePath: "logs/events.csv.zst", expected: "events"},
		{name: "Path with directory", filePath: "/home/user/data.csv", expected: "data"},
		{name: "Relative path", filePath: "dir1/x.csv", expected: "x"},
		{name: "File without extension", filePath: "data", expected: "data"},
		{name: "Upper case extension", filePath: "DATA.CSV", expected: "DATA"},
		{name: "Dotted stem", filePath: "sales.2024.csv", expected: "sales.2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, TableFromFilePath(tt.filePath))
		})
	}
}

func TestIsSupportedFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		fileName string
		expected bool
	}{
		{"a.csv", true},
		{"a.CSV", true},
		{"a.csv.gz", true},
		{"a.csv.bz2", true},
		{"a.csv.xz", true},
		{"a.csv.zst", true},
		{"a.tsv", false},
		{"a.json", false},
		{"a.gz", false},
		{"csv", false},
	}

	for _, tt := range tests {
		t.Run(tt.fileName, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, IsSupportedFile(tt.fileName))
		})
	}
}

func TestDetectCompression(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CompressionNone, DetectCompression("a.csv"))
	assert.Equal(t, CompressionGZ, DetectCompression("a.csv.gz"))
	assert.Equal(t, CompressionGZ, DetectCompression("A.CSV.GZ"))
	assert.Equal(t, CompressionBZ2, DetectCompression("a.csv.bz2"))
	assert.Equal(t, CompressionXZ, DetectCompression("a.csv.xz"))
	assert.Equal(t, CompressionZSTD, DetectCompression("a.csv.zst"))
}

func TestCompressionType_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "none", CompressionNone.String())
	assert.Equal(t, "gzip", CompressionGZ.String())
	assert.Equal(t, "bzip2", CompressionBZ2.String())
	assert.Equal(t, "xz", CompressionXZ.String())
	assert.Equal(t, "zstd", CompressionZSTD.String())
	assert.Equal(t, "unknown", CompressionType(99).String())
	assert.Equal(t, ".zst", CompressionZSTD.Extension())
	assert.Empty(t, CompressionNone.Extension())
}

func TestColumnNames(t *testing.T) {
	t.Parallel()

	t.Run("header", func(t *testing.T) {
		t.Parallel()
		names, err := ColumnNames([]string{"id", "", "name"}, true)
		assert.NoError(t, err)
		assert.Equal(t, []string{"id", "column_2", "name"}, names)
	})

	t.Run("no header", func(t *testing.T) {
		t.Parallel()
		names, err := ColumnNames([]string{"1", "alice"}, false)
		assert.NoError(t, err)
		assert.Equal(t, []string{"column_1", "column_2"}, names)
	})

	t.Run("duplicate", func(t *testing.T) {
		t.Parallel()
		_, err := ColumnNames([]string{"id", "name", "id"}, true)
		assert.ErrorIs(t, err, ErrDuplicateColumnName)
	})
}
