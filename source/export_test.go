package source

import (
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/nao1215/tldr/domain/model"
)

// newCompressWriter builds compressed fixtures for the reader tests. bzip2 has
// no writer, so those fixtures are not produced here.
func newCompressWriter(writer io.Writer, compressionType model.CompressionType) (io.WriteCloser, error) {
	switch compressionType {
	case model.CompressionNone:
		return nopWriteCloser{writer}, nil
	case model.CompressionGZ:
		return gzip.NewWriter(writer), nil
	case model.CompressionXZ:
		return xz.NewWriter(writer)
	case model.CompressionZSTD:
		return zstd.NewWriter(writer)
	default:
		return nil, fmt.Errorf("no test writer for compression type %v", compressionType)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
