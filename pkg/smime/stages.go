package smime

import (
	"context"
	"errors"
	"fmt"

	"github.com/holodeck-b2b/hb2b-as2-sub001/pkg/compression"
	"github.com/holodeck-b2b/hb2b-as2-sub001/pkg/message"
	"github.com/holodeck-b2b/hb2b-as2-sub001/pkg/pipeline"
	"github.com/holodeck-b2b/hb2b-as2-sub001/pkg/transport"
)

// Property keys set by the stage handlers
const (
	PropDecompressedEarly = "smime.decompressed-pre-verify"
	PropDecompressedLate  = "smime.decompressed-post-verify"
	PropSigned            = "smime.signed"
	PropCompressed        = "smime.compressed"
	PropEncrypted         = "smime.encrypted"
	PropMDN               = "smime.mdn"
)

var (
	// ErrNoEndpoint is returned when an outbound P-Mode has no partner address
	ErrNoEndpoint = errors.New("no partner endpoint configured")
	// ErrNoCodec is returned when a P-Mode requires a security operation
	// but no collaborator implementing it was supplied
	ErrNoCodec = errors.New("security operation required but codec missing")
	// ErrNoReporter is returned when a fault flow runs without a reporter
	ErrNoReporter = errors.New("no fault reporter configured")
)

// Decrypter removes the S/MIME encryption layer of an inbound entity
type Decrypter interface {
	Decrypt(data []byte) ([]byte, error)
}

// SignatureVerifier checks the signature layer of an inbound entity and
// returns the signed content with the signature wrapper removed
type SignatureVerifier interface {
	Verify(data []byte) ([]byte, error)
}

// Signer wraps outbound content in an S/MIME signature layer
type Signer interface {
	Sign(data []byte) ([]byte, error)
}

// Encrypter wraps outbound content in an S/MIME encryption layer
type Encrypter interface {
	Encrypt(data []byte) ([]byte, error)
}

// PayloadExtractor unpacks the business payload from the decoded entity.
// When nil, the decoded body is taken to be the payload itself.
type PayloadExtractor interface {
	Extract(env *message.Envelope) error
}

// Sender delivers the finished outbound entity. *transport.HTTPSClient
// satisfies this interface.
type Sender interface {
	Send(ctx context.Context, r *transport.Request) ([]byte, error)
}

// FaultReporter receives the protocol-level error signal a fault flow
// builds for a failed exchange, typically persisting it for dispatch back
// to the partner.
type FaultReporter interface {
	ReportFault(ctx context.Context, signal *message.MessageUnit) error
}

// Codecs bundles the external collaborators the stage handlers delegate
// to. Nil crypto codecs turn their stages into passthroughs unless the
// message's P-Mode requires the operation.
type Codecs struct {
	Decrypter  Decrypter
	Verifier   SignatureVerifier
	Signer     Signer
	Encrypter  Encrypter
	Extractor  PayloadExtractor
	Compressor *compression.Compressor
	Sender     Sender
	Reporter   FaultReporter
}

// BindHandlers binds this package's stage handlers into an executor
func BindHandlers(e *pipeline.Executor, c Codecs) {
	if c.Compressor == nil {
		c.Compressor = compression.NewCompressor()
	}

	e.BindHandler(StageDecrypt, decryptStage(c.Decrypter))
	e.BindHandler(StageDecompressEarly, decompressStage(c.Compressor, PropDecompressedEarly))
	e.BindHandler(StageVerify, verifyStage(c.Verifier))
	e.BindHandler(StageDecompressLate, decompressStage(c.Compressor, PropDecompressedLate))
	e.BindHandler(StageExtractPayload, extractStage(c.Extractor))

	e.BindHandler(StageSign, signStage(c.Signer))
	e.BindHandler(StageCompress, compressStage(c.Compressor))
	e.BindHandler(StageEncrypt, encryptStage(c.Encrypter))
	e.BindHandler(StageSend, sendStage(c.Sender))

	e.BindHandler(StageBuildErrorSignal, buildErrorSignalStage())
	e.BindHandler(StageReportFault, reportFaultStage(c.Reporter))
}

func decryptStage(d Decrypter) pipeline.Handler {
	return pipeline.HandlerFunc(func(ctx context.Context, pc *pipeline.ProcContext) error {
		if d == nil {
			return nil
		}
		plain, err := d.Decrypt(pc.Envelope.Body)
		if err != nil {
			return fmt.Errorf("decryption failed: %w", err)
		}
		pc.Envelope.Body = plain
		return nil
	})
}

// decompressStage is the detect-and-passthrough decompression attempt.
// Content that is not recognized as compressed passes through untouched,
// which keeps the double attempt of the inbound chain safe.
func decompressStage(c *compression.Compressor, prop string) pipeline.Handler {
	return pipeline.HandlerFunc(func(ctx context.Context, pc *pipeline.ProcContext) error {
		data, acted, err := c.DecompressIfCompressed(pc.Envelope.Body)
		if err != nil {
			return fmt.Errorf("decompression failed: %w", err)
		}
		pc.Envelope.Body = data
		if acted {
			pc.Properties[prop] = "true"
		}
		return nil
	})
}

func verifyStage(v SignatureVerifier) pipeline.Handler {
	return pipeline.HandlerFunc(func(ctx context.Context, pc *pipeline.ProcContext) error {
		if v == nil {
			return nil
		}
		content, err := v.Verify(pc.Envelope.Body)
		if err != nil {
			return fmt.Errorf("signature verification failed: %w", err)
		}
		pc.Envelope.Body = content
		return nil
	})
}

func extractStage(x PayloadExtractor) pipeline.Handler {
	return pipeline.HandlerFunc(func(ctx context.Context, pc *pipeline.ProcContext) error {
		if x == nil {
			return nil
		}
		if err := x.Extract(pc.Envelope); err != nil {
			return fmt.Errorf("payload extraction failed: %w", err)
		}
		return nil
	})
}

func signStage(s Signer) pipeline.Handler {
	return pipeline.HandlerFunc(func(ctx context.Context, pc *pipeline.ProcContext) error {
		if pc.PMode == nil || pc.PMode.Security == nil || pc.PMode.Security.Signing == nil {
			return nil
		}
		if s == nil {
			return fmt.Errorf("%w: signing", ErrNoCodec)
		}
		signed, err := s.Sign(pc.Envelope.Body)
		if err != nil {
			return fmt.Errorf("signing failed: %w", err)
		}
		pc.Envelope.Body = signed
		pc.Properties[PropSigned] = "true"
		pc.Envelope.Headers.Set("Content-Type", ContentTypeSigned)
		return nil
	})
}

func compressStage(c *compression.Compressor) pipeline.Handler {
	return pipeline.HandlerFunc(func(ctx context.Context, pc *pipeline.ProcContext) error {
		if pc.PMode == nil || !pc.PMode.Compression {
			return nil
		}
		compressed, err := c.Compress(pc.Envelope.Body)
		if err != nil {
			return fmt.Errorf("compression failed: %w", err)
		}
		pc.Envelope.Body = compressed
		pc.Properties[PropCompressed] = "true"
		pc.Envelope.Headers.Set("Content-Transfer-Encoding", "binary")
		return nil
	})
}

func encryptStage(e Encrypter) pipeline.Handler {
	return pipeline.HandlerFunc(func(ctx context.Context, pc *pipeline.ProcContext) error {
		if pc.PMode == nil || pc.PMode.Security == nil || pc.PMode.Security.Encryption == nil {
			return nil
		}
		if e == nil {
			return fmt.Errorf("%w: encryption", ErrNoCodec)
		}
		ciphertext, err := e.Encrypt(pc.Envelope.Body)
		if err != nil {
			return fmt.Errorf("encryption failed: %w", err)
		}
		pc.Envelope.Body = ciphertext
		pc.Properties[PropEncrypted] = "true"
		pc.Envelope.Headers.Set("Content-Type", ContentTypeEnveloped)
		return nil
	})
}

func sendStage(s Sender) pipeline.Handler {
	return pipeline.HandlerFunc(func(ctx context.Context, pc *pipeline.ProcContext) error {
		if s == nil {
			// Delivery handed off elsewhere; nothing to do here.
			return nil
		}
		if pc.PMode == nil || pc.PMode.Protocol == nil || pc.PMode.Protocol.Address == "" {
			return ErrNoEndpoint
		}

		mdn, err := s.Send(ctx, &transport.Request{
			EndpointURL: pc.PMode.Protocol.Address,
			MessageID:   pc.Message.MessageID,
			AS2From:     pc.Message.FromPartyID,
			AS2To:       pc.Message.ToPartyID,
			ContentType: pc.Envelope.Headers.Get("Content-Type"),
			Body:        pc.Envelope.Body,
		})
		if err != nil {
			return fmt.Errorf("delivery failed: %w", err)
		}
		if len(mdn) > 0 {
			pc.Properties[PropMDN] = string(mdn)
		}
		return nil
	})
}

func buildErrorSignalStage() pipeline.Handler {
	return pipeline.HandlerFunc(func(ctx context.Context, pc *pipeline.ProcContext) error {
		reason := pc.Properties[pipeline.PropFaultError]
		if reason == "" {
			reason = "unspecified processing failure"
		}
		pc.ErrorSignal = message.NewErrorSignal(pc.Message, reason)
		return nil
	})
}

func reportFaultStage(r FaultReporter) pipeline.Handler {
	return pipeline.HandlerFunc(func(ctx context.Context, pc *pipeline.ProcContext) error {
		if r == nil {
			return ErrNoReporter
		}
		if pc.ErrorSignal == nil {
			return errors.New("no error signal built")
		}
		return r.ReportFault(ctx, pc.ErrorSignal)
	})
}
