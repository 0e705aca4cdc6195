package mime

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildParseSignedRoundTrip(t *testing.T) {
	content := Part{
		ContentType: "application/edi-x12",
		Data:        []byte("ISA*00*          *00*          *ZZ*SENDER"),
	}
	signature := []byte{0x30, 0x82, 0x01, 0x00} // DER-ish bytes

	body, contentType, err := BuildSigned(content, signature, "sha-256")
	require.NoError(t, err)

	assert.Contains(t, contentType, ContentTypeMultipartSigned)
	assert.Contains(t, contentType, "micalg=sha-256")
	assert.Contains(t, contentType, `protocol="application/pkcs7-signature"`)

	entity, err := ParseSigned(body)
	require.NoError(t, err)
	assert.Equal(t, content.Data, entity.Content.Data)
	assert.Equal(t, "application/edi-x12", entity.Content.ContentType)
	assert.Equal(t, signature, entity.Signature)
}

func TestBuildSignedDefaults(t *testing.T) {
	body, contentType, err := BuildSigned(Part{Data: []byte("x")}, []byte("sig"), "")
	require.NoError(t, err)
	assert.Contains(t, contentType, "micalg="+DefaultMICAlg)

	entity, err := ParseSigned(body)
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", entity.Content.ContentType)
	assert.Equal(t, "binary", entity.Content.TransferEncoding)
}

func TestParseSignedRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"not multipart", "plain text body"},
		{"single part", "--b\r\nContent-Type: text/plain\r\n\r\nhello\r\n--b--\r\n"},
		{"wrong signature type", "--b\r\nContent-Type: text/plain\r\n\r\nhello\r\n" +
			"--b\r\nContent-Type: text/plain\r\n\r\nsig\r\n--b--\r\n"},
		{"three parts", "--b\r\n\r\na\r\n--b\r\nContent-Type: application/pkcs7-signature\r\n\r\ns\r\n" +
			"--b\r\n\r\nc\r\n--b--\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSigned([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestContentIDHelpers(t *testing.T) {
	id := NewContentID()
	assert.True(t, strings.HasPrefix(id, "<"))
	assert.True(t, strings.HasSuffix(id, "@hb2b.as2>"))

	assert.Equal(t, "abc@host", StripBrackets("<abc@host>"))
	assert.Equal(t, "abc@host", StripBrackets("abc@host"))
	assert.Equal(t, "<abc@host>", AddBrackets("abc@host"))
	assert.Equal(t, "<abc@host>", AddBrackets("<abc@host>"))
}
