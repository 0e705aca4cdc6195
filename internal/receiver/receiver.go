// Package receiver handles inbound AS2 entities.
//
// The Receiver plugs into the HTTPS endpoint as its EntityHandler. For
// each received entity it locates the P-Mode governing the sender and
// receiver party pair, records the message, runs the inbound processing
// flow of the P-Mode's binding, and answers with a message disposition
// notification. Processing failures are recorded on the message and
// reported to the sender through a failed-disposition MDN.
package receiver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/holodeck-b2b/hb2b-as2-sub001/internal/storage"
	"github.com/holodeck-b2b/hb2b-as2-sub001/pkg/binding"
	"github.com/holodeck-b2b/hb2b-as2-sub001/pkg/message"
	"github.com/holodeck-b2b/hb2b-as2-sub001/pkg/mime"
	"github.com/holodeck-b2b/hb2b-as2-sub001/pkg/pipeline"
	"github.com/holodeck-b2b/hb2b-as2-sub001/pkg/pmode"
)

// Receiver processes inbound AS2 entities. It implements
// transport.EntityHandler.
type Receiver struct {
	store    storage.Store
	pmodes   *pmode.Manager
	selector *binding.Selector
	logger   *slog.Logger
}

// New creates a receiver
func New(store storage.Store, pmodes *pmode.Manager, selector *binding.Selector, logger *slog.Logger) *Receiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Receiver{
		store:    store,
		pmodes:   pmodes,
		selector: selector,
		logger:   logger,
	}
}

// HandleEntity processes one received AS2 entity and returns the MDN body
func (r *Receiver) HandleEntity(ctx context.Context, headers http.Header, body []byte) ([]byte, error) {
	from := headers.Get("AS2-From")
	to := headers.Get("AS2-To")
	if from == "" || to == "" {
		return nil, fmt.Errorf("missing AS2-From or AS2-To header")
	}

	messageID := mime.StripBrackets(headers.Get("Message-ID"))
	if messageID == "" {
		messageID = message.GenerateMessageID()
	}
	log := r.logger.With("message_id", messageID, "from", from, "to", to)

	pm := r.pmodeFor(from, to)
	if pm == nil {
		log.Warn("no P-Mode for party pair")
		return nil, fmt.Errorf("no P-Mode for exchange %s to %s", from, to)
	}

	fs, err := r.selector.Select(pm)
	if err != nil {
		return nil, err
	}

	m := &message.MessageUnit{
		MessageID:   messageID,
		Direction:   message.DirectionIn,
		Kind:        message.KindUserMessage,
		State:       message.StateReceived,
		PModeID:     pm.ID,
		FromPartyID: from,
		ToPartyID:   to,
	}
	if err := r.store.PutMessage(ctx, m); err != nil {
		return nil, fmt.Errorf("recording inbound message: %w", err)
	}

	env := &message.Envelope{Headers: textproto.MIMEHeader(headers), Body: body}
	pc := pipeline.NewProcContext(m, pm, env)
	if err := fs.Executor.Run(ctx, pipeline.FlowNormalIn, pc); err != nil {
		log.Error("inbound processing failed", "error", err)
		r.markFailed(ctx, messageID, err)
		return mdn(messageID, "failed/failure: "+err.Error()), nil
	}

	if _, err := r.store.CompareAndSetState(ctx, messageID, message.StateReceived, message.StateDone); err != nil {
		log.Error("failed to finalize inbound message", "error", err)
	}
	log.Info("message received")
	return mdn(messageID, "processed"), nil
}

// pmodeFor locates the P-Mode whose initiator and responder match the
// AS2-From and AS2-To identifiers of the received entity
func (r *Receiver) pmodeFor(from, to string) *pmode.ProcessingMode {
	return r.pmodes.Find(func(pm *pmode.ProcessingMode) bool {
		return pm.Initiator != nil && pm.Initiator.ID == from &&
			pm.Responder != nil && pm.Responder.ID == to
	})
}

func (r *Receiver) markFailed(ctx context.Context, messageID string, cause error) {
	if _, err := r.store.CompareAndSetState(ctx, messageID, message.StateReceived, message.StateFailure); err != nil {
		r.logger.Error("failed to mark inbound message as failed", "message_id", messageID, "error", err)
		return
	}
	if err := r.store.SetLastError(ctx, messageID, cause.Error()); err != nil {
		r.logger.Error("failed to record failure reason", "message_id", messageID, "error", err)
	}
}

// mdn renders a minimal message disposition notification body
func mdn(messageID, disposition string) []byte {
	var b strings.Builder
	b.WriteString("Reporting-UA: hb2b-as2/1.0\r\n")
	b.WriteString("Original-Message-ID: " + mime.AddBrackets(messageID) + "\r\n")
	b.WriteString("Disposition: automatic-action/MDN-sent-automatically; " + disposition + "\r\n")
	return []byte(b.String())
}
