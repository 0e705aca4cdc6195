package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/holodeck-b2b/hb2b-as2-sub001/pkg/pipeline"
)

// WiringEntry is one declarative stage descriptor in the wiring file
type WiringEntry struct {
	Name       string `yaml:"name"`
	Phase      string `yaml:"phase"`
	PhaseFirst bool   `yaml:"phaseFirst,omitempty"`
	After      string `yaml:"after,omitempty"`
}

// Wiring maps flow names to their ordered stage descriptor lists.
// Entry order within a flow is the declaration order the resolver falls
// back to for unconstrained stage pairs.
//
// Example wiring file:
//
//	NormalOut:
//	  - {name: sign, phase: security, phaseFirst: true}
//	  - {name: compress, phase: security, after: sign}
//	  - {name: encrypt, phase: security, after: compress}
//	  - {name: send, phase: delivery, phaseFirst: true}
//	FaultOut:
//	  - {name: build-error-signal, phase: fault-handling, phaseFirst: true}
//	  - {name: report-fault, phase: fault-handling, after: build-error-signal}
type Wiring map[string][]WiringEntry

// knownFlows guards against typos in the wiring file
var knownFlows = map[string]pipeline.Flow{
	string(pipeline.FlowNormalIn):  pipeline.FlowNormalIn,
	string(pipeline.FlowFaultIn):   pipeline.FlowFaultIn,
	string(pipeline.FlowNormalOut): pipeline.FlowNormalOut,
	string(pipeline.FlowFaultOut):  pipeline.FlowFaultOut,
}

// LoadWiring reads a stage wiring file and registers its descriptors
// into the registry. The wiring source is consumed once at startup;
// ordering conflicts surface on the first Resolve of each flow.
func LoadWiring(path string, r *pipeline.Registry) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading wiring file: %w", err)
	}
	return ParseWiring(data, r)
}

// ParseWiring registers the wiring in data into the registry
func ParseWiring(data []byte, r *pipeline.Registry) error {
	var wiring Wiring
	if err := yaml.Unmarshal(data, &wiring); err != nil {
		return fmt.Errorf("parsing wiring file: %w", err)
	}

	// Register in the file's flow order for a stable phase order.
	for _, flowName := range []string{
		string(pipeline.FlowNormalIn),
		string(pipeline.FlowFaultIn),
		string(pipeline.FlowNormalOut),
		string(pipeline.FlowFaultOut),
	} {
		entries, ok := wiring[flowName]
		if !ok {
			continue
		}
		delete(wiring, flowName)

		flow := knownFlows[flowName]
		for _, e := range entries {
			err := r.Register(flow, pipeline.StageDescriptor{
				Name:       e.Name,
				Phase:      e.Phase,
				PhaseFirst: e.PhaseFirst,
				After:      e.After,
			})
			if err != nil {
				return fmt.Errorf("wiring flow %s: %w", flowName, err)
			}
		}
	}

	for flowName := range wiring {
		return fmt.Errorf("unknown flow %q in wiring file", flowName)
	}
	return nil
}
