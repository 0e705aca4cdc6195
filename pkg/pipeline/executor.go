package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/holodeck-b2b/hb2b-as2-sub001/pkg/message"
	"github.com/holodeck-b2b/hb2b-as2-sub001/pkg/pmode"
)

// ErrNoHandler is returned when a resolved plan names a stage that has no
// handler bound. Detected before any stage of the plan runs.
var ErrNoHandler = errors.New("no handler bound for stage")

// Property keys the executor sets on the context before entering a fault
// flow, so fault stages can describe the failure they are handling.
const (
	PropFaultFlow  = "fault.flow"
	PropFaultStage = "fault.stage"
	PropFaultError = "fault.error"
)

// ProcContext is the mutable processing context a pipeline run operates
// on: the message unit being processed, the P-Mode governing it, and its
// transport envelope. Stages may stash intermediate values in Properties.
type ProcContext struct {
	Message    *message.MessageUnit
	PMode      *pmode.ProcessingMode
	Envelope   *message.Envelope
	Properties map[string]string

	// ErrorSignal is populated by fault-flow stages that build a
	// protocol-level error report for the failed exchange.
	ErrorSignal *message.MessageUnit
}

// NewProcContext creates a processing context for a message and envelope
func NewProcContext(m *message.MessageUnit, pm *pmode.ProcessingMode, env *message.Envelope) *ProcContext {
	return &ProcContext{
		Message:    m,
		PMode:      pm,
		Envelope:   env,
		Properties: make(map[string]string),
	}
}

// Handler is the stage execution boundary. A handler either succeeds or
// returns an error describing the fault; concrete behavior (crypto,
// formatting, transport) is supplied by external collaborators.
type Handler interface {
	Execute(ctx context.Context, pc *ProcContext) error
}

// HandlerFunc adapts a function to the Handler interface
type HandlerFunc func(ctx context.Context, pc *ProcContext) error

// Execute implements Handler
func (f HandlerFunc) Execute(ctx context.Context, pc *ProcContext) error {
	return f(ctx, pc)
}

// StageFault reports the business failure of a single stage. It is
// recoverable: the executor diverts to the paired fault flow once.
type StageFault struct {
	Flow  Flow
	Stage string
	Err   error
}

func (f *StageFault) Error() string {
	return fmt.Sprintf("stage %q in flow %s faulted: %v", f.Stage, f.Flow, f.Err)
}

func (f *StageFault) Unwrap() error { return f.Err }

// FaultFlowError is fatal: a fault occurred while the fault flow itself
// was executing. The message exchange cannot be recovered and the error
// must be surfaced to the operator.
type FaultFlowError struct {
	Original  error
	FaultFlow error
}

func (e *FaultFlowError) Error() string {
	return fmt.Sprintf("fault flow failed (%v) while handling %v", e.FaultFlow, e.Original)
}

func (e *FaultFlowError) Unwrap() error { return e.Original }

// Executor runs resolved plans against processing contexts. Stage names
// are dispatched to behavior through an explicit handler mapping; the set
// of handlers is closed once processing starts.
type Executor struct {
	registry *Registry
	logger   *slog.Logger

	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewExecutor creates an executor over a stage registry
func NewExecutor(registry *Registry, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		registry: registry,
		logger:   logger,
		handlers: make(map[string]Handler),
	}
}

// BindHandler maps a stage name to its behavior
func (e *Executor) BindHandler(name string, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[name] = h
}

// handler returns the bound handler for a stage name
func (e *Executor) handler(name string) (Handler, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	h, ok := e.handlers[name]
	return h, ok
}

// Run executes the flow's resolved plan strictly in order. On a stage
// fault it aborts the flow and runs the paired fault flow exactly once,
// from that flow's own beginning. The original fault is still returned so
// the caller can record the failure; if the fault flow itself faults, the
// returned error is a fatal FaultFlowError.
func (e *Executor) Run(ctx context.Context, flow Flow, pc *ProcContext) error {
	fault := e.runFlow(ctx, flow, pc)
	if fault == nil {
		return nil
	}

	faultFlow, ok := flow.FaultFlow()
	if !ok {
		// Already a fault flow; nothing further to divert to.
		return fault
	}

	e.logger.Warn("diverting to fault flow",
		"flow", flow,
		"fault_flow", faultFlow,
		"message_id", messageID(pc),
		"error", fault,
	)

	if pc.Properties == nil {
		pc.Properties = make(map[string]string)
	}
	pc.Properties[PropFaultFlow] = string(flow)
	pc.Properties[PropFaultError] = fault.Error()
	var sf *StageFault
	if errors.As(fault, &sf) {
		pc.Properties[PropFaultStage] = sf.Stage
		pc.Properties[PropFaultError] = sf.Err.Error()
	}

	if ffErr := e.runFlow(ctx, faultFlow, pc); ffErr != nil {
		return &FaultFlowError{Original: fault, FaultFlow: ffErr}
	}
	return fault
}

// runFlow resolves and executes one flow without fault diversion
func (e *Executor) runFlow(ctx context.Context, flow Flow, pc *ProcContext) error {
	plan, err := e.registry.Resolve(flow)
	if err != nil {
		return err
	}

	// Every stage must have a handler before the first one runs.
	for _, stage := range plan.Stages() {
		if _, ok := e.handler(stage.Name); !ok {
			return fmt.Errorf("%w: %q in flow %s", ErrNoHandler, stage.Name, flow)
		}
	}

	for _, stage := range plan.Stages() {
		h, _ := e.handler(stage.Name)
		if err := h.Execute(ctx, pc); err != nil {
			return &StageFault{Flow: flow, Stage: stage.Name, Err: err}
		}
	}
	return nil
}

func messageID(pc *ProcContext) string {
	if pc == nil || pc.Message == nil {
		return ""
	}
	return pc.Message.MessageID
}
