package source

import (
	"encoding/csv"
	"io"
)

// NewCSVReader returns a CSV reader splitting fields on delimiter.
// Every row must have as many fields as the first one.
func NewCSVReader(r io.Reader, delimiter byte) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = rune(delimiter)
	reader.FieldsPerRecord = 0
	reader.ReuseRecord = true
	return reader
}
