package compression

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

const (
	// ContentTypeGzip is the MIME type for GZIP compressed content
	ContentTypeGzip = "application/gzip"
)

// gzipMagic is the two-byte member header every GZIP stream starts with
var gzipMagic = []byte{0x1f, 0x8b}

// Compressor handles message content compression
type Compressor struct {
	compressionLevel int
}

// NewCompressor creates a new compressor with default compression level
func NewCompressor() *Compressor {
	return &Compressor{
		compressionLevel: gzip.DefaultCompression,
	}
}

// NewCompressorWithLevel creates a new compressor with specified compression level
func NewCompressorWithLevel(level int) *Compressor {
	return &Compressor{
		compressionLevel: level,
	}
}

// Compress compresses data using GZIP
func (c *Compressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	writer, err := gzip.NewWriterLevel(&buf, c.compressionLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to write data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress decompresses GZIP data
func (c *Compressor) Decompress(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer reader.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, fmt.Errorf("failed to read compressed data: %w", err)
	}

	return buf.Bytes(), nil
}

// DecompressIfCompressed decompresses recognized GZIP content and returns
// anything else unchanged. The second return value reports whether
// decompression actually took place. Safe to apply repeatedly: once the
// content is no longer recognized as compressed it passes through as-is.
func (c *Compressor) DecompressIfCompressed(data []byte) ([]byte, bool, error) {
	if !IsCompressed(data) {
		return data, false, nil
	}
	decompressed, err := c.Decompress(data)
	if err != nil {
		return nil, false, err
	}
	return decompressed, true, nil
}

// IsCompressed reports whether data starts a GZIP member
func IsCompressed(data []byte) bool {
	return len(data) >= len(gzipMagic) && bytes.Equal(data[:len(gzipMagic)], gzipMagic)
}

// ShouldCompress determines if content should be compressed based on its
// declared type; formats that are already compressed gain nothing.
func ShouldCompress(contentType string) bool {
	compressedTypes := map[string]bool{
		"application/gzip":   true,
		"application/zip":    true,
		"application/x-gzip": true,
		"image/jpeg":         true,
		"image/png":          true,
		"video/mp4":          true,
		"audio/mp3":          true,
	}

	return !compressedTypes[contentType]
}
