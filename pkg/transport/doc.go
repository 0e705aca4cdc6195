/*
Package transport implements the HTTPS transport layer for AS2 exchanges.

This package provides secure HTTP transport for AS2 entities with
TLS 1.2/1.3 support. The client posts the S/MIME entity produced by the
outbound pipeline to the partner's endpoint with the AS2 identification
headers; the server accepts inbound entities and hands them to a
registered handler.

# TLS Configuration

The package recommends TLS 1.3 with fallback to TLS 1.2:

	config := transport.DefaultHTTPSConfig()
	// MinTLSVersion: TLS 1.2
	// MaxTLSVersion: TLS 1.3

# References

  - AS2 RFC 4130: https://datatracker.ietf.org/doc/html/rfc4130
  - HTTP RFC 9110: https://datatracker.ietf.org/doc/html/rfc9110
*/
package transport
