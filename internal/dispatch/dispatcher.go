// Package dispatch provides background delivery of outbound AS2 messages.
//
// The Dispatcher runs a pool of independent workers that periodically
// poll for outbound messages in READY_TO_PUSH state and attempt to claim
// and dispatch each one. Workers share no in-memory state; the only
// shared resource is the persisted message state, mediated exclusively
// through the claim's compare-and-set. Multiple dispatcher processes can
// run against one shared store.
//
// # Claim Discipline
//
// A successful claim is the precondition for binding selection and
// pipeline execution, and is taken before any slow I/O. A lost claim is
// logged and the message left for a later poll. A message with no
// associated P-Mode can never be dispatched and moves straight to
// FAILURE, bypassing the claim.
//
// # Failure Containment
//
// Each message is processed behind a recovery boundary: any failure,
// including a panic escaping a stage handler, is mapped to FAILURE before
// the worker resumes polling. Storage failures are caught per message so
// one broken call never aborts the rest of the poll batch.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/holodeck-b2b/hb2b-as2-sub001/internal/storage"
	"github.com/holodeck-b2b/hb2b-as2-sub001/pkg/binding"
	"github.com/holodeck-b2b/hb2b-as2-sub001/pkg/message"
	"github.com/holodeck-b2b/hb2b-as2-sub001/pkg/pipeline"
	"github.com/holodeck-b2b/hb2b-as2-sub001/pkg/pmode"
)

// EnvelopeLoader materializes the transport envelope for a claimed
// message, typically by loading its payload from the payload store. When
// nil, messages are dispatched with an empty envelope.
type EnvelopeLoader interface {
	LoadEnvelope(ctx context.Context, m *message.MessageUnit) (*message.Envelope, error)
}

// Config holds dispatcher configuration
type Config struct {
	PollInterval time.Duration
	Workers      int
	BatchSize    int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		PollInterval: 10 * time.Second,
		Workers:      4,
		BatchSize:    10,
	}
}

// Dispatcher polls for dispatchable messages and pushes them through the
// flow set their P-Mode's binding selects
type Dispatcher struct {
	store    storage.Store
	claims   *ClaimManager
	pmodes   *pmode.Manager
	selector *binding.Selector
	loader   EnvelopeLoader
	logger   *slog.Logger

	pollInterval time.Duration
	workers      int
	batchSize    int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(
	store storage.Store,
	pmodes *pmode.Manager,
	selector *binding.Selector,
	loader EnvelopeLoader,
	cfg *Config,
	logger *slog.Logger,
) *Dispatcher {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		store:        store,
		claims:       NewClaimManager(store, logger),
		pmodes:       pmodes,
		selector:     selector,
		loader:       loader,
		logger:       logger,
		pollInterval: cfg.PollInterval,
		workers:      cfg.Workers,
		batchSize:    cfg.BatchSize,
	}
}

// Start launches the worker pool
func (d *Dispatcher) Start(ctx context.Context) {
	d.ctx, d.cancel = context.WithCancel(ctx)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	d.logger.Info("dispatcher started", "workers", d.workers, "poll_interval", d.pollInterval)
}

// Stop gracefully stops the dispatcher
func (d *Dispatcher) Stop() {
	d.cancel()
	d.wg.Wait()
	d.logger.Info("dispatcher stopped")
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.processBatch(id)
		}
	}
}

// processBatch polls for dispatchable messages and attempts each one
func (d *Dispatcher) processBatch(workerID int) {
	messages, err := d.store.MessagesInState(d.ctx, message.DirectionOut, message.StateReadyToPush, d.batchSize)
	if err != nil {
		d.logger.Error("failed to poll for dispatchable messages", "worker", workerID, "error", err)
		return
	}

	for _, m := range messages {
		d.dispatchOne(workerID, m)
	}
}

// dispatchOne attempts to claim and dispatch a single message. All
// failures are contained here so the poll batch continues.
func (d *Dispatcher) dispatchOne(workerID int, m *message.MessageUnit) {
	log := d.logger.With("worker", workerID, "message_id", m.MessageID)

	pm := d.pmodes.Get(m.PModeID)
	if pm == nil {
		// Never dispatchable: no claim, straight to FAILURE.
		log.Warn("message has no associated P-Mode", "pmode_id", m.PModeID)
		if err := d.claims.Fail(d.ctx, m.MessageID, "no P-Mode associated with message"); err != nil {
			log.Error("failed to mark message as failed", "error", err)
		}
		return
	}

	claimed, err := d.claims.Claim(d.ctx, m.MessageID)
	if err != nil {
		// Storage failure: leave the message in its prior state for the
		// next poll.
		log.Error("claim attempt failed", "error", err)
		return
	}
	if !claimed {
		log.Debug("claim lost to another worker")
		return
	}

	if err := d.execute(log, m, pm); err != nil {
		log.Error("dispatch failed", "error", err)
		if failErr := d.claims.Fail(d.ctx, m.MessageID, err.Error()); failErr != nil {
			log.Error("failed to mark message as failed", "error", failErr)
		}
		return
	}

	if err := d.claims.Complete(d.ctx, m.MessageID); err != nil {
		log.Error("failed to complete message", "error", err)
		return
	}
	log.Info("message dispatched")
}

// execute runs the send attempt for a claimed message. Panics escaping a
// stage handler are recovered here, at the worker boundary, and reported
// as errors; anything past this boundary would be a defect, not an error
// path.
func (d *Dispatcher) execute(log *slog.Logger, m *message.MessageUnit, pm *pmode.ProcessingMode) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during dispatch: %v", r)
		}
	}()

	fs, err := d.selector.Select(pm)
	if err != nil {
		return err
	}

	env := message.NewEnvelope(nil)
	if d.loader != nil {
		env, err = d.loader.LoadEnvelope(d.ctx, m)
		if err != nil {
			return fmt.Errorf("loading envelope: %w", err)
		}
	}

	pc := pipeline.NewProcContext(m, pm, env)
	if err := fs.Executor.Run(d.ctx, pipeline.FlowNormalOut, pc); err != nil {
		var ffErr *pipeline.FaultFlowError
		if errors.As(err, &ffErr) {
			// Unrecoverable for this exchange; surface loudly.
			log.Error("fault flow failed, exchange unrecoverable", "error", ffErr)
		}
		return err
	}
	return nil
}
