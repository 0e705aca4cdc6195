package transport

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultHTTPSConfig(t *testing.T) {
	config := DefaultHTTPSConfig()

	assert.Equal(t, uint16(TLS12), config.MinTLSVersion)
	assert.Equal(t, uint16(TLS13), config.MaxTLSVersion)
	assert.Equal(t, tls.NoClientCert, config.ClientAuth)
	assert.NotZero(t, config.Timeout)
}

func TestHTTPSClient_Send(t *testing.T) {
	var received *http.Request
	var receivedBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r.Clone(context.Background())
		receivedBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "message/disposition-notification")
		w.Write([]byte("disposition: automatic-action/MDN-sent-automatically; processed"))
	}))
	defer server.Close()

	client := NewHTTPSClient(nil)
	mdn, err := client.Send(context.Background(), &Request{
		EndpointURL: server.URL,
		MessageID:   "msg-1@hb2b.as2",
		AS2From:     "org-a",
		AS2To:       "org-b",
		ContentType: "application/pkcs7-mime",
		Body:        []byte("entity bytes"),
	})
	require.NoError(t, err)
	assert.Contains(t, string(mdn), "processed")

	require.NotNil(t, received)
	assert.Equal(t, http.MethodPost, received.Method)
	assert.Equal(t, "1.2", received.Header.Get("AS2-Version"))
	assert.Equal(t, "org-a", received.Header.Get("AS2-From"))
	assert.Equal(t, "org-b", received.Header.Get("AS2-To"))
	assert.Equal(t, "<msg-1@hb2b.as2>", received.Header.Get("Message-ID"))
	assert.Equal(t, "application/pkcs7-mime", received.Header.Get("Content-Type"))
	assert.Equal(t, []byte("entity bytes"), receivedBody)
}

func TestHTTPSClient_SendDefaultContentType(t *testing.T) {
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
	}))
	defer server.Close()

	client := NewHTTPSClient(nil)
	_, err := client.Send(context.Background(), &Request{EndpointURL: server.URL, Body: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", contentType)
}

func TestHTTPSClient_SendErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such partner", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewHTTPSClient(nil)
	_, err := client.Send(context.Background(), &Request{EndpointURL: server.URL, Body: []byte("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

type echoHandler struct{}

func (echoHandler) HandleEntity(_ context.Context, _ http.Header, body []byte) ([]byte, error) {
	return append([]byte("mdn for: "), body...), nil
}

func TestHTTPSServer_HandleAS2(t *testing.T) {
	s := NewHTTPSServer("127.0.0.1:0", nil, echoHandler{})

	req := httptest.NewRequest(http.MethodPost, "/as2", nil)
	req.Body = http.NoBody
	rec := httptest.NewRecorder()
	s.handleAS2(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "message/disposition-notification", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	s.handleAS2(rec, httptest.NewRequest(http.MethodGet, "/as2", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHTTPSServer_StartWithoutCertificates(t *testing.T) {
	s := NewHTTPSServer("127.0.0.1:0", nil, echoHandler{})
	assert.Error(t, s.Start())
}
