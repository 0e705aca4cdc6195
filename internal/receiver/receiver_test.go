package receiver

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holodeck-b2b/hb2b-as2-sub001/internal/storage"
	"github.com/holodeck-b2b/hb2b-as2-sub001/pkg/binding"
	"github.com/holodeck-b2b/hb2b-as2-sub001/pkg/message"
	"github.com/holodeck-b2b/hb2b-as2-sub001/pkg/pipeline"
	"github.com/holodeck-b2b/hb2b-as2-sub001/pkg/pmode"
)

func newReceiver(t *testing.T, stageErr error) (*Receiver, *storage.MemoryStore) {
	t.Helper()

	registry := pipeline.NewRegistry()
	require.NoError(t, registry.Register(pipeline.FlowNormalIn,
		pipeline.StageDescriptor{Name: "unpack", Phase: "payload"}))

	executor := pipeline.NewExecutor(registry, nil)
	executor.BindHandler("unpack", pipeline.HandlerFunc(func(context.Context, *pipeline.ProcContext) error {
		return stageErr
	}))

	selector := binding.NewSelector()
	selector.RegisterFlowSet(binding.BindingAS2, &binding.FlowSet{Registry: registry, Executor: executor})

	pmodes := pmode.NewManager()
	pmodes.Add(&pmode.ProcessingMode{
		ID:         "pm-in",
		MEPBinding: binding.TokenAS2,
		Initiator:  &pmode.Party{ID: "org-a", Role: "Sender"},
		Responder:  &pmode.Party{ID: "org-b", Role: "Receiver"},
	})

	store := storage.NewMemoryStore()
	return New(store, pmodes, selector, nil), store
}

func entityHeaders(messageID string) http.Header {
	h := http.Header{}
	h.Set("AS2-Version", "1.2")
	h.Set("AS2-From", "org-a")
	h.Set("AS2-To", "org-b")
	h.Set("Message-ID", "<"+messageID+">")
	h.Set("Content-Type", "application/edi-x12")
	return h
}

func TestHandleEntity(t *testing.T) {
	r, store := newReceiver(t, nil)

	mdnBody, err := r.HandleEntity(context.Background(), entityHeaders("in-1@partner"), []byte("ISA*00"))
	require.NoError(t, err)
	assert.Contains(t, string(mdnBody), "processed")
	assert.Contains(t, string(mdnBody), "<in-1@partner>")

	m, err := store.GetMessage(context.Background(), "in-1@partner")
	require.NoError(t, err)
	assert.Equal(t, message.DirectionIn, m.Direction)
	assert.Equal(t, message.StateDone, m.State)
	assert.Equal(t, "pm-in", m.PModeID)
	assert.Equal(t, "org-a", m.FromPartyID)
}

func TestHandleEntityMissingPartyHeaders(t *testing.T) {
	r, _ := newReceiver(t, nil)

	h := entityHeaders("in-2@partner")
	h.Del("AS2-From")
	_, err := r.HandleEntity(context.Background(), h, []byte("ISA*00"))
	assert.Error(t, err)
}

func TestHandleEntityUnknownPartyPair(t *testing.T) {
	r, _ := newReceiver(t, nil)

	h := entityHeaders("in-3@partner")
	h.Set("AS2-From", "org-stranger")
	_, err := r.HandleEntity(context.Background(), h, []byte("ISA*00"))
	assert.Error(t, err)
}

func TestHandleEntityGeneratesMessageID(t *testing.T) {
	r, store := newReceiver(t, nil)

	h := entityHeaders("")
	h.Del("Message-ID")
	_, err := r.HandleEntity(context.Background(), h, []byte("ISA*00"))
	require.NoError(t, err)

	stored, err := store.MessagesInState(context.Background(), message.DirectionIn, message.StateDone, 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.NotEmpty(t, stored[0].MessageID)
}

func TestHandleEntityProcessingFailure(t *testing.T) {
	r, store := newReceiver(t, errors.New("malformed interchange"))

	mdnBody, err := r.HandleEntity(context.Background(), entityHeaders("in-4@partner"), []byte("garbage"))
	require.NoError(t, err, "a processing failure still yields an MDN")
	assert.Contains(t, string(mdnBody), "failed")

	m, err := store.GetMessage(context.Background(), "in-4@partner")
	require.NoError(t, err)
	assert.Equal(t, message.StateFailure, m.State)
	assert.Contains(t, m.LastError, "malformed interchange")
}
