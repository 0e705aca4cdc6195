package pipeline

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrDuplicateStage is returned when a stage name is registered twice
	// within the same flow
	ErrDuplicateStage = errors.New("duplicate stage name")
	// ErrFlowFrozen is returned when registering into a flow that has
	// already been resolved
	ErrFlowFrozen = errors.New("flow already resolved")
)

// Flow identifies one of the four directional pipelines
type Flow string

const (
	// FlowNormalIn processes received messages
	FlowNormalIn Flow = "NormalIn"
	// FlowFaultIn handles faults raised while processing received messages
	FlowFaultIn Flow = "FaultIn"
	// FlowNormalOut processes messages being sent
	FlowNormalOut Flow = "NormalOut"
	// FlowFaultOut handles faults raised while sending messages
	FlowFaultOut Flow = "FaultOut"
)

// FaultFlow returns the fault flow paired with a normal flow. The second
// return value is false when f is itself a fault flow.
func (f Flow) FaultFlow() (Flow, bool) {
	switch f {
	case FlowNormalIn:
		return FlowFaultIn, true
	case FlowNormalOut:
		return FlowFaultOut, true
	default:
		return "", false
	}
}

// StageDescriptor declares one named processing step and its position
// constraints within a flow. Descriptors are immutable once registered.
type StageDescriptor struct {
	// Name uniquely identifies the stage within its flow
	Name string
	// Phase is the ordered group the stage belongs to
	Phase string
	// PhaseFirst places the stage ahead of all non-tagged stages of its phase
	PhaseFirst bool
	// After names a same-phase stage this one must follow
	After string
}

// Registry holds the declarative stage descriptors for every flow and
// caches the resolved execution plan per flow. Registration happens once
// at startup; after a flow has been resolved its descriptor list is
// frozen.
type Registry struct {
	mu     sync.Mutex
	phases []string // registry-wide phase order, fixed by first registration
	flows  map[Flow][]StageDescriptor
	plans  map[Flow]*Plan
}

// NewRegistry creates an empty stage registry
func NewRegistry() *Registry {
	return &Registry{
		flows: make(map[Flow][]StageDescriptor),
		plans: make(map[Flow]*Plan),
	}
}

// Register adds a stage descriptor to a flow. The stage name must be
// unique within the flow, and the flow must not have been resolved yet.
func (r *Registry) Register(flow Flow, d StageDescriptor) error {
	if d.Name == "" {
		return errors.New("stage name is required")
	}
	if d.Phase == "" {
		return errors.New("stage phase is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, resolved := r.plans[flow]; resolved {
		return fmt.Errorf("%w: %s", ErrFlowFrozen, flow)
	}
	for _, existing := range r.flows[flow] {
		if existing.Name == d.Name {
			return fmt.Errorf("%w: %q in flow %s", ErrDuplicateStage, d.Name, flow)
		}
	}

	r.notePhase(d.Phase)
	r.flows[flow] = append(r.flows[flow], d)
	return nil
}

// RegisterAll registers descriptors in order, stopping at the first error
func (r *Registry) RegisterAll(flow Flow, descriptors []StageDescriptor) error {
	for _, d := range descriptors {
		if err := r.Register(flow, d); err != nil {
			return err
		}
	}
	return nil
}

// notePhase records a phase label on first appearance. Caller holds r.mu.
func (r *Registry) notePhase(phase string) {
	for _, p := range r.phases {
		if p == phase {
			return
		}
	}
	r.phases = append(r.phases, phase)
}

// Plan is the resolved, immutable execution order for one flow. A Plan is
// computed once, cached in the Registry, and may be shared read-only
// across workers without locking.
type Plan struct {
	flow   Flow
	stages []StageDescriptor
}

// Flow returns the flow this plan was resolved for
func (p *Plan) Flow() Flow { return p.flow }

// Stages returns the ordered stage descriptors of the plan
func (p *Plan) Stages() []StageDescriptor { return p.stages }

// Names returns the ordered stage names of the plan
func (p *Plan) Names() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}
