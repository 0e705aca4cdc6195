// Package pipeline implements the declarative stage ordering and execution
// engine for the AS2 extension.
//
// Processing is described as stage descriptors registered per flow, where
// a flow is one of the four directional pipelines a message can pass
// through (normal/fault x in/out). Each descriptor names its stage, the
// phase it belongs to, and optional position constraints: PhaseFirst to
// lead its phase, or After to follow another stage of the same phase.
//
// The Registry collects descriptors at startup. Resolve turns the
// descriptors of one flow into an immutable execution Plan: phases run in
// the fixed registry-wide order of first registration, PhaseFirst stages
// lead their phase, and remaining same-phase order is a stable topological
// sort over After edges with declaration order breaking ties. Malformed
// descriptor sets (cycles, After references crossing phases) fail with
// ErrOrderingConflict at resolve time.
//
// The Executor runs a resolved plan against a mutable processing context.
// Stage behavior is bound through an explicit name to Handler mapping.
// When a stage faults, execution aborts and diverts once to the paired
// fault flow, entering at that flow's beginning. A fault during fault-flow
// execution is fatal for the message exchange.
//
// Plans are computed once per flow, cached, and safely shared read-only
// across any number of workers.
package pipeline
