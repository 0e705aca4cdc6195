package smime

import (
	"sync"

	"github.com/holodeck-b2b/hb2b-as2-sub001/pkg/pipeline"
)

// Stage names contributed by this package
const (
	// Inbound security stages
	StageDecrypt         = "decrypt"
	StageDecompressEarly = "decompress-pre-verify"
	StageVerify          = "verify-signature"
	StageDecompressLate  = "decompress-post-verify"
	StageExtractPayload  = "extract-payload"

	// Outbound security and delivery stages
	StageSign     = "sign"
	StageCompress = "compress"
	StageEncrypt  = "encrypt"
	StageSend     = "send"

	// Fault-flow stages
	StageBuildErrorSignal = "build-error-signal"
	StageReportFault      = "report-fault"
)

// Phase labels used by this package's flows
const (
	PhaseSecurity = "security"
	PhasePayload  = "payload"
	PhaseDelivery = "delivery"
	PhaseFault    = "fault-handling"
)

// S/MIME entity content types this extension handles
const (
	ContentTypeEnveloped = "application/pkcs7-mime"
	ContentTypeSignature = "application/pkcs7-signature"
	ContentTypeSigned    = "multipart/signed"
	ContentTypeEDI       = "application/edi-x12"
)

var (
	initOnce     sync.Once
	contentTypes map[string]bool
)

// Init performs the process-wide S/MIME bootstrap, registering the entity
// content types this extension handles. It runs exactly once before any
// pipeline executes and is idempotent when invoked again.
func Init() {
	initOnce.Do(func() {
		contentTypes = map[string]bool{
			ContentTypeEnveloped: true,
			ContentTypeSignature: true,
			ContentTypeSigned:    true,
			ContentTypeEDI:       true,
		}
	})
}

// IsHandledContentType reports whether this extension handles entities of
// the given content type. Init must have run.
func IsHandledContentType(contentType string) bool {
	return contentTypes[contentType]
}

// InboundStages returns the fixed inbound stage wiring. Decompression is
// attempted both directly after decryption and again after signature
// verification; normally only one of the two acts.
func InboundStages() []pipeline.StageDescriptor {
	return []pipeline.StageDescriptor{
		{Name: StageDecrypt, Phase: PhaseSecurity, PhaseFirst: true},
		{Name: StageDecompressEarly, Phase: PhaseSecurity, After: StageDecrypt},
		{Name: StageVerify, Phase: PhaseSecurity, After: StageDecompressEarly},
		{Name: StageDecompressLate, Phase: PhaseSecurity, After: StageVerify},
		{Name: StageExtractPayload, Phase: PhasePayload, PhaseFirst: true},
	}
}

// OutboundStages returns the fixed outbound stage wiring, mirroring the
// inbound security order forward: sign, compress, encrypt, then delivery.
func OutboundStages() []pipeline.StageDescriptor {
	return []pipeline.StageDescriptor{
		{Name: StageSign, Phase: PhaseSecurity, PhaseFirst: true},
		{Name: StageCompress, Phase: PhaseSecurity, After: StageSign},
		{Name: StageEncrypt, Phase: PhaseSecurity, After: StageCompress},
		{Name: StageSend, Phase: PhaseDelivery, PhaseFirst: true},
	}
}

// FaultStages returns the stage wiring shared by both fault flows: build
// the protocol-level error signal first, then hand it to the reporter.
func FaultStages() []pipeline.StageDescriptor {
	return []pipeline.StageDescriptor{
		{Name: StageBuildErrorSignal, Phase: PhaseFault, PhaseFirst: true},
		{Name: StageReportFault, Phase: PhaseFault, After: StageBuildErrorSignal},
	}
}

// RegisterFlows registers this extension's four flows into a registry
func RegisterFlows(r *pipeline.Registry) error {
	if err := r.RegisterAll(pipeline.FlowNormalIn, InboundStages()); err != nil {
		return err
	}
	if err := r.RegisterAll(pipeline.FlowNormalOut, OutboundStages()); err != nil {
		return err
	}
	if err := r.RegisterAll(pipeline.FlowFaultIn, FaultStages()); err != nil {
		return err
	}
	return r.RegisterAll(pipeline.FlowFaultOut, FaultStages())
}
