package source

import (
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/nao1215/tldr/domain/model"
)

// Decompress wraps reader with a decompression reader for the given compression type.
// The returned cleanup function releases decoder resources but does not close reader.
func Decompress(reader io.Reader, compressionType model.CompressionType) (io.Reader, func() error, error) {
	switch compressionType {
	case model.CompressionNone:
		return reader, func() error { return nil }, nil

	case model.CompressionGZ:
		gzReader, err := gzip.NewReader(reader)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gzReader, gzReader.Close, nil

	case model.CompressionBZ2:
		// bzip2.NewReader doesn't need closing
		return bzip2.NewReader(reader), func() error { return nil }, nil

	case model.CompressionXZ:
		xzReader, err := xz.NewReader(reader)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return xzReader, func() error { return nil }, nil

	case model.CompressionZSTD:
		decoder, err := zstd.NewReader(reader)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return decoder, func() error {
			decoder.Close()
			return nil
		}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported compression type for reading: %v", compressionType)
	}
}

// decompressingReader closes the decoder before the underlying file.
type decompressingReader struct {
	io.Reader
	cleanup func() error
	file    io.Closer
}

func (r *decompressingReader) Close() error {
	return errors.Join(r.cleanup(), r.file.Close())
}

// openDecompressed wraps an opened file according to the compression implied by path.
func openDecompressed(file io.ReadCloser, path string) (io.ReadCloser, error) {
	compressionType := model.DetectCompression(path)
	if compressionType == model.CompressionNone {
		return file, nil
	}
	reader, cleanup, err := Decompress(file, compressionType)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return &decompressingReader{Reader: reader, cleanup: cleanup, file: file}, nil
}
