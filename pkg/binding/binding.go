package binding

import (
	"errors"
	"fmt"

	"github.com/holodeck-b2b/hb2b-as2-sub001/pkg/pipeline"
	"github.com/holodeck-b2b/hb2b-as2-sub001/pkg/pmode"
)

// MEP binding tokens recognized by the gateway. The AS2 token is the one
// legal value this extension contributes to the P-Mode parameter space.
const (
	// TokenDefaultPush is the host gateway's default push binding
	TokenDefaultPush = "http://docs.oasis-open.org/ebxml-msg/ebms/v3.0/ns/core/200704/push"

	// TokenAS2 selects the AS2 exchange scheme
	TokenAS2 = "http://holodeck-b2b.org/pmode/mepBinding/as2"
)

// Binding is the closed set of protocol variants
type Binding int

const (
	// BindingDefault routes through the host gateway's default flow set
	BindingDefault Binding = iota
	// BindingAS2 routes through this extension's flow set
	BindingAS2
)

// String returns the binding's token
func (b Binding) String() string {
	switch b {
	case BindingAS2:
		return TokenAS2
	default:
		return TokenDefaultPush
	}
}

// ErrBindingMissing is returned when a P-Mode carries no recognized MEP
// binding token. Messages under such a P-Mode are non-sendable.
var ErrBindingMissing = errors.New("no recognized MEP binding")

// Parse maps a MEP binding token to its variant
func Parse(token string) (Binding, error) {
	switch token {
	case TokenDefaultPush:
		return BindingDefault, nil
	case TokenAS2:
		return BindingAS2, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrBindingMissing, token)
	}
}

// FlowSet pairs the stage registry and executor serving one binding
type FlowSet struct {
	Registry *pipeline.Registry
	Executor *pipeline.Executor
}

// Selector routes messages to the flow set of their P-Mode's binding.
// Selection happens once per send attempt.
type Selector struct {
	flowSets map[Binding]*FlowSet
}

// NewSelector creates a selector over the registered flow sets
func NewSelector() *Selector {
	return &Selector{
		flowSets: make(map[Binding]*FlowSet),
	}
}

// RegisterFlowSet binds a flow set to a protocol variant
func (s *Selector) RegisterFlowSet(b Binding, fs *FlowSet) {
	s.flowSets[b] = fs
}

// Select inspects the P-Mode's binding attribute and returns the flow set
// to process the message with. An unrecognized token or a binding with no
// registered flow set is an error, never a silent default.
func (s *Selector) Select(pm *pmode.ProcessingMode) (*FlowSet, error) {
	if pm == nil {
		return nil, fmt.Errorf("%w: no P-Mode", ErrBindingMissing)
	}

	b, err := Parse(pm.MEPBinding)
	if err != nil {
		return nil, err
	}

	fs, ok := s.flowSets[b]
	if !ok {
		return nil, fmt.Errorf("no flow set registered for binding %s", b)
	}
	return fs, nil
}
