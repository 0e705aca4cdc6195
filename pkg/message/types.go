package message

import (
	"fmt"
	"net/textproto"
	"time"

	"github.com/google/uuid"
)

// Direction indicates whether a message is being received or sent
type Direction string

const (
	// DirectionIn for messages received from a trading partner
	DirectionIn Direction = "IN"
	// DirectionOut for messages being sent to a trading partner
	DirectionOut Direction = "OUT"
)

// Kind identifies the message unit variant
type Kind string

const (
	// KindUserMessage is a business document exchange
	KindUserMessage Kind = "UserMessage"
	// KindReceipt is a positive acknowledgement (MDN)
	KindReceipt Kind = "Receipt"
	// KindErrorSignal is a protocol-level error report
	KindErrorSignal Kind = "ErrorSignal"
)

// ProcessingState represents the persisted lifecycle state of a message.
// States advance monotonically; only an external retry collaborator may
// reset a message back to ReadyToPush.
type ProcessingState string

const (
	// StateReceived indicates an inbound message has arrived
	StateReceived ProcessingState = "RECEIVED"
	// StateReadyToPush indicates an outbound message is eligible for dispatch
	StateReadyToPush ProcessingState = "READY_TO_PUSH"
	// StateProcessing indicates a worker has claimed the message
	StateProcessing ProcessingState = "PROCESSING"
	// StateDone indicates processing completed successfully
	StateDone ProcessingState = "DONE"
	// StateFailure indicates processing failed; terminal for this core
	StateFailure ProcessingState = "FAILURE"
)

// MessageUnit is the persisted metadata for one message exchange leg
type MessageUnit struct {
	MessageID      string
	RefToMessageID string
	Direction      Direction
	Kind           Kind
	State          ProcessingState
	PModeID        string
	FromPartyID    string
	ToPartyID      string
	LastError      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewUserMessage creates an outbound user message eligible for dispatch
func NewUserMessage(pmodeID, fromParty, toParty string) *MessageUnit {
	now := time.Now()
	return &MessageUnit{
		MessageID:   GenerateMessageID(),
		Direction:   DirectionOut,
		Kind:        KindUserMessage,
		State:       StateReadyToPush,
		PModeID:     pmodeID,
		FromPartyID: fromParty,
		ToPartyID:   toParty,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewErrorSignal creates an error signal referencing a failed message
func NewErrorSignal(failed *MessageUnit, reason string) *MessageUnit {
	now := time.Now()
	return &MessageUnit{
		MessageID:      GenerateMessageID(),
		RefToMessageID: failed.MessageID,
		Direction:      DirectionOut,
		Kind:           KindErrorSignal,
		State:          StateReadyToPush,
		PModeID:        failed.PModeID,
		FromPartyID:    failed.ToPartyID,
		ToPartyID:      failed.FromPartyID,
		LastError:      reason,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// GenerateMessageID creates a unique RFC 2822 style message identifier
func GenerateMessageID() string {
	return fmt.Sprintf("%s@hb2b.as2", uuid.NewString())
}

// Envelope is the mutable transport envelope a message carries through a
// processing pipeline: the MIME headers of the HTTP entity plus the
// current body bytes. Stages rewrite Body in place as they encode or
// decode the content.
type Envelope struct {
	Headers textproto.MIMEHeader
	Body    []byte
}

// NewEnvelope creates an envelope around the given body
func NewEnvelope(body []byte) *Envelope {
	return &Envelope{
		Headers: make(textproto.MIMEHeader),
		Body:    body,
	}
}
