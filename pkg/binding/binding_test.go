package binding

import (
	"errors"
	"testing"

	"github.com/holodeck-b2b/hb2b-as2-sub001/pkg/pipeline"
	"github.com/holodeck-b2b/hb2b-as2-sub001/pkg/pmode"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		want    Binding
		wantErr bool
	}{
		{"default push", TokenDefaultPush, BindingDefault, false},
		{"as2", TokenAS2, BindingAS2, false},
		{"empty token", "", 0, true},
		{"unknown token", "http://example.com/pmode/mepBinding/as3", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.token)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) expected error, got %v", tt.token, got)
				}
				if !errors.Is(err, ErrBindingMissing) {
					t.Errorf("Parse(%q) error = %v, want ErrBindingMissing", tt.token, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.token, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}

func TestBindingString(t *testing.T) {
	if BindingAS2.String() != TokenAS2 {
		t.Errorf("BindingAS2.String() = %q", BindingAS2.String())
	}
	if BindingDefault.String() != TokenDefaultPush {
		t.Errorf("BindingDefault.String() = %q", BindingDefault.String())
	}
}

func newFlowSet() *FlowSet {
	r := pipeline.NewRegistry()
	return &FlowSet{Registry: r, Executor: pipeline.NewExecutor(r, nil)}
}

func TestSelector_Select(t *testing.T) {
	as2 := newFlowSet()
	dflt := newFlowSet()

	s := NewSelector()
	s.RegisterFlowSet(BindingAS2, as2)
	s.RegisterFlowSet(BindingDefault, dflt)

	got, err := s.Select(&pmode.ProcessingMode{ID: "pm1", MEPBinding: TokenAS2})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if got != as2 {
		t.Error("Select returned the wrong flow set for the AS2 binding")
	}

	got, err = s.Select(&pmode.ProcessingMode{ID: "pm2", MEPBinding: TokenDefaultPush})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if got != dflt {
		t.Error("Select returned the wrong flow set for the default binding")
	}
}

func TestSelector_SelectNilPMode(t *testing.T) {
	s := NewSelector()
	if _, err := s.Select(nil); !errors.Is(err, ErrBindingMissing) {
		t.Errorf("Select(nil) error = %v, want ErrBindingMissing", err)
	}
}

func TestSelector_SelectUnknownToken(t *testing.T) {
	s := NewSelector()
	s.RegisterFlowSet(BindingAS2, newFlowSet())

	_, err := s.Select(&pmode.ProcessingMode{ID: "pm", MEPBinding: "urn:unknown"})
	if !errors.Is(err, ErrBindingMissing) {
		t.Errorf("Select with unknown token error = %v, want ErrBindingMissing", err)
	}
}

func TestSelector_SelectUnregisteredBinding(t *testing.T) {
	s := NewSelector()
	s.RegisterFlowSet(BindingAS2, newFlowSet())

	// Token parses, but no flow set is registered for it
	if _, err := s.Select(&pmode.ProcessingMode{ID: "pm", MEPBinding: TokenDefaultPush}); err == nil {
		t.Error("Select must not fall back to another binding's flow set")
	}
}
