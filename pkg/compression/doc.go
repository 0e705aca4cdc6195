/*
Package compression provides GZIP content compression for AS2 exchanges.

AS2 partners may compress message content either before or after signing,
so receivers cannot know in advance whether a given byte stream is
compressed. This package therefore pairs the compressor with content
detection:

	compressor := compression.NewCompressor()
	compressed, err := compressor.Compress(content)

	if compression.IsCompressed(data) {
	    data, err = compressor.Decompress(data)
	}

DecompressIfCompressed combines the two into the idempotent
detect-and-passthrough operation the inbound security chain relies on: it
decompresses recognized GZIP content and returns anything else unchanged.

# References

  - GZIP RFC 1952: https://datatracker.ietf.org/doc/html/rfc1952
  - ZLIB Compressed Data Format RFC 1950: https://datatracker.ietf.org/doc/html/rfc1950
*/
package compression
