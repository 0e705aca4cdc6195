package dispatch

import (
	"context"

	"github.com/holodeck-b2b/hb2b-as2-sub001/internal/storage"
	"github.com/holodeck-b2b/hb2b-as2-sub001/pkg/message"
)

// StoreReporter persists the error signals built by fault flows as new
// outbound messages, making them eligible for dispatch back to the
// partner on a later poll. It satisfies the smime.FaultReporter contract.
type StoreReporter struct {
	store storage.Store
}

// NewStoreReporter creates a reporter over a store
func NewStoreReporter(store storage.Store) *StoreReporter {
	return &StoreReporter{store: store}
}

// ReportFault implements the fault reporting stage boundary
func (r *StoreReporter) ReportFault(ctx context.Context, signal *message.MessageUnit) error {
	return r.store.PutMessage(ctx, signal)
}
