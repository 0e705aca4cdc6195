package pipeline

import (
	"errors"
	"fmt"
)

// ErrOrderingConflict is returned when a flow's descriptors cannot be
// linearized: a cycle among After constraints, an After reference to an
// unknown stage, an After reference crossing phase groups, or a
// PhaseFirst stage constrained to follow a non-PhaseFirst stage.
// Resolution failures are fatal to startup of the affected flow.
var ErrOrderingConflict = errors.New("ordering conflict")

// Resolve produces the execution plan for a flow, computing it on first
// call and returning the cached plan afterwards. Resolution is a pure
// function of the registered descriptors: identical input always yields
// an identical plan.
func (r *Registry) Resolve(flow Flow) (*Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if plan, ok := r.plans[flow]; ok {
		return plan, nil
	}

	ordered, err := resolveOrder(flow, r.phases, r.flows[flow])
	if err != nil {
		return nil, err
	}

	plan := &Plan{flow: flow, stages: ordered}
	r.plans[flow] = plan
	return plan, nil
}

// resolveOrder buckets descriptors by phase in the fixed phase order and
// linearizes each phase independently.
func resolveOrder(flow Flow, phases []string, descriptors []StageDescriptor) ([]StageDescriptor, error) {
	byPhase := make(map[string][]StageDescriptor)
	for _, d := range descriptors {
		byPhase[d.Phase] = append(byPhase[d.Phase], d)
	}

	byName := make(map[string]StageDescriptor, len(descriptors))
	for _, d := range descriptors {
		byName[d.Name] = d
	}

	ordered := make([]StageDescriptor, 0, len(descriptors))
	for _, phase := range phases {
		group := byPhase[phase]
		if len(group) == 0 {
			continue
		}
		sorted, err := sortPhase(flow, phase, group, byName)
		if err != nil {
			return nil, err
		}
		ordered = append(ordered, sorted...)
	}
	return ordered, nil
}

// sortPhase linearizes the stages of one phase: PhaseFirst stages lead,
// After edges are honored, and declaration order breaks all remaining
// ties. The sort is a topological sort that always emits the eligible
// stage with the strongest claim (PhaseFirst, then earliest declaration),
// which makes the output stable for any fixed input.
func sortPhase(flow Flow, phase string, group []StageDescriptor, byName map[string]StageDescriptor) ([]StageDescriptor, error) {
	index := make(map[string]int, len(group)) // name -> declaration index
	for i, d := range group {
		index[d.Name] = i
	}

	// Validate constraints and build same-phase edges: After = X means X
	// must be emitted before the declaring stage.
	blockers := make([]int, len(group)) // count of unemitted predecessors
	dependents := make(map[string][]int)
	for i, d := range group {
		if d.After == "" {
			continue
		}
		ref, known := byName[d.After]
		if !known {
			return nil, fmt.Errorf("%w: flow %s stage %q declares after unknown stage %q",
				ErrOrderingConflict, flow, d.Name, d.After)
		}
		if ref.Phase != phase {
			return nil, fmt.Errorf("%w: flow %s stage %q (phase %q) declares after %q of phase %q",
				ErrOrderingConflict, flow, d.Name, phase, d.After, ref.Phase)
		}
		if d.PhaseFirst && !ref.PhaseFirst {
			return nil, fmt.Errorf("%w: flow %s phase-first stage %q cannot follow %q",
				ErrOrderingConflict, flow, d.Name, d.After)
		}
		blockers[i]++
		dependents[d.After] = append(dependents[d.After], i)
	}

	sorted := make([]StageDescriptor, 0, len(group))
	emitted := make([]bool, len(group))
	for len(sorted) < len(group) {
		next := -1
		for i, d := range group {
			if emitted[i] || blockers[i] > 0 {
				continue
			}
			if next == -1 || betterCandidate(d, group[next]) {
				next = i
			}
		}
		if next == -1 {
			return nil, fmt.Errorf("%w: cyclic after constraints in flow %s phase %q",
				ErrOrderingConflict, flow, phase)
		}
		emitted[next] = true
		sorted = append(sorted, group[next])
		for _, dep := range dependents[group[next].Name] {
			blockers[dep]--
		}
	}
	return sorted, nil
}

// betterCandidate reports whether a should be emitted before b when both
// are eligible. PhaseFirst stages win; declaration order is implicit in
// the scan order, so only the PhaseFirst flag can override it.
func betterCandidate(a, b StageDescriptor) bool {
	return a.PhaseFirst && !b.PhaseFirst
}
