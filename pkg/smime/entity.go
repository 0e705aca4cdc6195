package smime

import (
	"fmt"

	asmime "github.com/holodeck-b2b/hb2b-as2-sub001/pkg/mime"
)

// ContentSigner produces a detached PKCS#7 signature over content bytes
type ContentSigner interface {
	SignDetached(content []byte) ([]byte, error)
}

// ContentVerifier checks a detached PKCS#7 signature against content bytes
type ContentVerifier interface {
	VerifyDetached(content, signature []byte) error
}

// MultipartSigner adapts a ContentSigner into the pipeline's Signer by
// wrapping content and detached signature into a multipart/signed entity.
type MultipartSigner struct {
	Signer ContentSigner

	// MICAlg labels the digest algorithm in the entity's micalg parameter;
	// empty means the package default.
	MICAlg string

	// ContentType of the wrapped content part; empty means EDI X12.
	ContentType string
}

// Sign implements Signer
func (s *MultipartSigner) Sign(data []byte) ([]byte, error) {
	signature, err := s.Signer.SignDetached(data)
	if err != nil {
		return nil, err
	}

	contentType := s.ContentType
	if contentType == "" {
		contentType = ContentTypeEDI
	}
	body, _, err := asmime.BuildSigned(asmime.Part{
		ContentType: contentType,
		Data:        data,
	}, signature, s.MICAlg)
	if err != nil {
		return nil, fmt.Errorf("building signed entity: %w", err)
	}
	return body, nil
}

// MultipartVerifier adapts a ContentVerifier into the pipeline's
// SignatureVerifier: it splits the multipart/signed entity, checks the
// detached signature, and returns the inner content.
type MultipartVerifier struct {
	Verifier ContentVerifier
}

// Verify implements SignatureVerifier
func (v *MultipartVerifier) Verify(data []byte) ([]byte, error) {
	entity, err := asmime.ParseSigned(data)
	if err != nil {
		return nil, fmt.Errorf("parsing signed entity: %w", err)
	}
	if err := v.Verifier.VerifyDetached(entity.Content.Data, entity.Signature); err != nil {
		return nil, err
	}
	return entity.Content.Data, nil
}
