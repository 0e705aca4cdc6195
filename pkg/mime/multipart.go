// Package mime implements MIME entity handling for AS2 messages
package mime

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/google/uuid"
)

const (
	// ContentTypeMultipartSigned is the MIME type of a signed entity
	ContentTypeMultipartSigned = "multipart/signed"
	// ContentTypeSignature is the MIME type of the detached signature part
	ContentTypeSignature = "application/pkcs7-signature"
	// DefaultMICAlg is the default message integrity check algorithm label
	DefaultMICAlg = "sha-256"
)

// Part is one MIME body part of an AS2 entity
type Part struct {
	ContentType      string
	TransferEncoding string
	Headers          textproto.MIMEHeader
	Data             []byte
}

// SignedEntity is a parsed multipart/signed AS2 entity: the signed content
// part and the detached signature over it
type SignedEntity struct {
	Boundary  string
	MICAlg    string
	Content   Part
	Signature []byte
}

// BuildSigned serializes a multipart/signed entity from the content part
// and its detached signature. It returns the entity body and the full
// Content-Type header value carrying the boundary, protocol and micalg
// parameters.
func BuildSigned(content Part, signature []byte, micalg string) ([]byte, string, error) {
	if micalg == "" {
		micalg = DefaultMICAlg
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	boundary := generateBoundary()
	if err := writer.SetBoundary(boundary); err != nil {
		return nil, "", fmt.Errorf("failed to set boundary: %w", err)
	}

	contentHeader := textproto.MIMEHeader{}
	contentType := content.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	contentHeader.Set("Content-Type", contentType)
	transferEncoding := content.TransferEncoding
	if transferEncoding == "" {
		transferEncoding = "binary"
	}
	contentHeader.Set("Content-Transfer-Encoding", transferEncoding)
	for key, values := range content.Headers {
		for _, value := range values {
			contentHeader.Add(key, value)
		}
	}

	contentPart, err := writer.CreatePart(contentHeader)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create content part: %w", err)
	}
	if _, err := contentPart.Write(content.Data); err != nil {
		return nil, "", fmt.Errorf("failed to write content part: %w", err)
	}

	signatureHeader := textproto.MIMEHeader{}
	signatureHeader.Set("Content-Type", ContentTypeSignature)
	signatureHeader.Set("Content-Transfer-Encoding", "binary")
	signaturePart, err := writer.CreatePart(signatureHeader)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create signature part: %w", err)
	}
	if _, err := signaturePart.Write(signature); err != nil {
		return nil, "", fmt.Errorf("failed to write signature part: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	headerValue := mime.FormatMediaType(ContentTypeMultipartSigned, map[string]string{
		"boundary": boundary,
		"protocol": ContentTypeSignature,
		"micalg":   micalg,
	})
	return buf.Bytes(), headerValue, nil
}

// ParseSigned parses a multipart/signed entity body. The boundary is read
// from the body's opening delimiter line, so the entity is self-contained
// and no transport header is needed.
func ParseSigned(data []byte) (*SignedEntity, error) {
	boundary, err := sniffBoundary(data)
	if err != nil {
		return nil, err
	}

	entity := &SignedEntity{Boundary: boundary}
	reader := multipart.NewReader(bytes.NewReader(data), boundary)

	partIndex := 0
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read part: %w", err)
		}

		body, err := io.ReadAll(part)
		if err != nil {
			return nil, fmt.Errorf("failed to read part data: %w", err)
		}

		switch partIndex {
		case 0:
			entity.Content = Part{
				ContentType:      part.Header.Get("Content-Type"),
				TransferEncoding: part.Header.Get("Content-Transfer-Encoding"),
				Headers:          part.Header,
				Data:             body,
			}
		case 1:
			partType, _, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
			if err != nil || partType != ContentTypeSignature {
				return nil, fmt.Errorf("second part is %q, expected %s",
					part.Header.Get("Content-Type"), ContentTypeSignature)
			}
			entity.Signature = body
		default:
			return nil, fmt.Errorf("signed entity has more than two parts")
		}
		partIndex++
	}

	if partIndex != 2 {
		return nil, fmt.Errorf("signed entity has %d parts, expected 2", partIndex)
	}
	return entity, nil
}

// sniffBoundary reads the boundary from the entity's opening delimiter
func sniffBoundary(data []byte) (string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "--") || len(line) <= 2 {
			return "", fmt.Errorf("not a multipart entity")
		}
		return line[2:], nil
	}
	return "", fmt.Errorf("empty entity")
}

// NewContentID generates a unique Content-ID in angle-bracket form
func NewContentID() string {
	return fmt.Sprintf("<%s@hb2b.as2>", uuid.NewString())
}

// StripBrackets removes < and > from a Content-ID
func StripBrackets(contentID string) string {
	contentID = strings.TrimPrefix(contentID, "<")
	return strings.TrimSuffix(contentID, ">")
}

// AddBrackets adds < and > to a Content-ID if not present
func AddBrackets(contentID string) string {
	if !strings.HasPrefix(contentID, "<") {
		contentID = "<" + contentID
	}
	if !strings.HasSuffix(contentID, ">") {
		contentID = contentID + ">"
	}
	return contentID
}

// generateBoundary generates a MIME boundary string
func generateBoundary() string {
	return fmt.Sprintf("----=_Part_%s", strings.ReplaceAll(uuid.NewString(), "-", ""))
}
