package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/holodeck-b2b/hb2b-as2-sub001/internal/storage"
	"github.com/holodeck-b2b/hb2b-as2-sub001/pkg/message"
)

// ClaimManager guards the per-message dispatch state machine:
//
//	READY_TO_PUSH --claim--> PROCESSING --complete--> DONE
//	                                    \--fail-----> FAILURE
//
// Claim is a conditional compare-and-set against persisted state; of any
// concurrent racers on one message id, at most one succeeds. Claims are
// never released back to READY_TO_PUSH by this core: failures move to
// FAILURE, successes to DONE, both terminal here. An external retry
// collaborator may reset FAILURE messages out of band.
type ClaimManager struct {
	store  storage.Store
	logger *slog.Logger
}

// NewClaimManager creates a claim manager over a store
func NewClaimManager(store storage.Store, logger *slog.Logger) *ClaimManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClaimManager{store: store, logger: logger}
}

// Claim attempts the exclusive READY_TO_PUSH to PROCESSING transition.
// A false return without error means another worker won the race; that
// is expected under contention, not an error.
func (c *ClaimManager) Claim(ctx context.Context, messageID string) (bool, error) {
	claimed, err := c.store.CompareAndSetState(ctx, messageID, message.StateReadyToPush, message.StateProcessing)
	if err != nil {
		return false, fmt.Errorf("claiming message %s: %w", messageID, err)
	}
	return claimed, nil
}

// Complete moves a claimed message to DONE
func (c *ClaimManager) Complete(ctx context.Context, messageID string) error {
	applied, err := c.store.CompareAndSetState(ctx, messageID, message.StateProcessing, message.StateDone)
	if err != nil {
		return fmt.Errorf("completing message %s: %w", messageID, err)
	}
	if !applied {
		return fmt.Errorf("message %s not in PROCESSING on completion", messageID)
	}
	return nil
}

// Fail moves a message to FAILURE and records the reason. The message may
// be in PROCESSING (a failed dispatch) or still in READY_TO_PUSH (a
// non-sendable message that bypassed the claim).
func (c *ClaimManager) Fail(ctx context.Context, messageID, reason string) error {
	applied, err := c.store.CompareAndSetState(ctx, messageID, message.StateProcessing, message.StateFailure)
	if err != nil {
		return fmt.Errorf("failing message %s: %w", messageID, err)
	}
	if !applied {
		applied, err = c.store.CompareAndSetState(ctx, messageID, message.StateReadyToPush, message.StateFailure)
		if err != nil {
			return fmt.Errorf("failing message %s: %w", messageID, err)
		}
	}
	if !applied {
		return fmt.Errorf("message %s not in a failable state", messageID)
	}

	if err := c.store.SetLastError(ctx, messageID, reason); err != nil {
		c.logger.Error("failed to record failure reason", "message_id", messageID, "error", err)
	}
	return nil
}
