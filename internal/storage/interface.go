// Package storage defines the persisted message state API for the AS2
// extension.
//
// # Interface Design
//
// The dispatch core touches storage through exactly two operations:
// listing the messages of a direction in a given processing state, and a
// conditional compare-and-set of one message's state. Every concurrent
// guarantee the dispatcher gives, in particular the at-most-one-claim
// property, rests on CompareAndSetState being atomic in the backend.
//
// # Implementations
//
// MemoryStore keeps everything in process and is intended for tests and
// single-node deployments. The mongodb sub-package provides a
// production-ready MongoDB implementation.
//
// # Concurrency
//
// All store implementations must be safe for concurrent use from multiple
// goroutines and, for shared backends, from multiple processes.
package storage

import (
	"context"
	"errors"

	"github.com/holodeck-b2b/hb2b-as2-sub001/pkg/message"
)

// ErrMessageNotFound is returned when a message id is unknown to the store
var ErrMessageNotFound = errors.New("message not found")

// Store is the persisted message state API
type Store interface {
	// PutMessage stores a new message unit
	PutMessage(ctx context.Context, m *message.MessageUnit) error

	// GetMessage retrieves a message unit by id
	GetMessage(ctx context.Context, messageID string) (*message.MessageUnit, error)

	// MessagesInState returns the messages of a direction currently in
	// the given processing state, up to limit (0 means no limit).
	MessagesInState(ctx context.Context, direction message.Direction, state message.ProcessingState, limit int) ([]*message.MessageUnit, error)

	// CompareAndSetState atomically transitions a message's state from
	// expected to next. It returns true when the transition was applied
	// and false when the current state was not the expected one. Of any
	// concurrent callers racing on one message id, at most one succeeds.
	CompareAndSetState(ctx context.Context, messageID string, expected, next message.ProcessingState) (bool, error)

	// SetLastError records a failure description on a message
	SetLastError(ctx context.Context, messageID, lastError string) error

	// Close releases storage resources
	Close(ctx context.Context) error

	// Ping checks backend connectivity
	Ping(ctx context.Context) error
}
