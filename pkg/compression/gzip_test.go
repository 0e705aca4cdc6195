package compression

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressor_CompressDecompress(t *testing.T) {
	compressor := NewCompressor()

	// Use sufficiently large data for compression to be effective
	// GZIP has overhead (~18-20 bytes), so small data actually gets larger
	repeated := "This is test data that should be compressed. It contains repeated text. "
	testData := []byte(repeated + repeated + repeated + repeated + repeated)

	compressed, err := compressor.Compress(testData)
	require.NoError(t, err)
	assert.NotEmpty(t, compressed)
	assert.Less(t, len(compressed), len(testData))

	decompressed, err := compressor.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, testData, decompressed)
}

func TestCompressor_EmptyData(t *testing.T) {
	compressor := NewCompressor()

	compressed, err := compressor.Compress([]byte{})
	require.NoError(t, err)
	assert.NotEmpty(t, compressed) // GZIP header is present even for empty data

	decompressed, err := compressor.Decompress(compressed)
	require.NoError(t, err)
	assert.Empty(t, decompressed)
}

func TestCompressor_LargeData(t *testing.T) {
	compressor := NewCompressor()

	largeData := bytes.Repeat([]byte("test data "), 100000)

	compressed, err := compressor.Compress(largeData)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(largeData)/10, "Compressed size should be much smaller than original for repeated data")

	decompressed, err := compressor.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, largeData, decompressed)
}

func TestIsCompressed(t *testing.T) {
	compressor := NewCompressor()

	compressed, err := compressor.Compress([]byte("some content"))
	require.NoError(t, err)

	assert.True(t, IsCompressed(compressed))
	assert.False(t, IsCompressed([]byte("plain text content")))
	assert.False(t, IsCompressed(nil))
	assert.False(t, IsCompressed([]byte{0x1f}))
}

func TestDecompressIfCompressed(t *testing.T) {
	compressor := NewCompressor()
	plain := []byte("business document content")

	compressed, err := compressor.Compress(plain)
	require.NoError(t, err)

	// Compressed content is decompressed
	out, acted, err := compressor.DecompressIfCompressed(compressed)
	require.NoError(t, err)
	assert.True(t, acted)
	assert.Equal(t, plain, out)

	// Plain content passes through untouched
	out, acted, err = compressor.DecompressIfCompressed(plain)
	require.NoError(t, err)
	assert.False(t, acted)
	assert.Equal(t, plain, out)

	// Repeating the attempt on already-decompressed content is a no-op
	out, acted, err = compressor.DecompressIfCompressed(out)
	require.NoError(t, err)
	assert.False(t, acted)
	assert.Equal(t, plain, out)
}

func TestCompressor_ShouldCompress(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		expected    bool
	}{
		{"text plain", "text/plain", true},
		{"application xml", "application/xml", true},
		{"edi x12", "application/edi-x12", true},
		{"gzip", "application/gzip", false},
		{"zip", "application/zip", false},
		{"jpeg", "image/jpeg", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShouldCompress(tt.contentType))
		})
	}
}
