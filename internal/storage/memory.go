package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/holodeck-b2b/hb2b-as2-sub001/pkg/message"
)

// MemoryStore is an in-process Store implementation. The compare-and-set
// runs under the store mutex, which makes it atomic with respect to every
// other accessor in this process.
type MemoryStore struct {
	mu       sync.Mutex
	messages map[string]*message.MessageUnit
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		messages: make(map[string]*message.MessageUnit),
	}
}

// PutMessage implements Store
func (s *MemoryStore) PutMessage(ctx context.Context, m *message.MessageUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.messages[m.MessageID]; exists {
		return fmt.Errorf("message %s already stored", m.MessageID)
	}
	stored := *m
	s.messages[m.MessageID] = &stored
	return nil
}

// GetMessage implements Store
func (s *MemoryStore) GetMessage(ctx context.Context, messageID string) (*message.MessageUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[messageID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMessageNotFound, messageID)
	}
	copy := *m
	return &copy, nil
}

// MessagesInState implements Store. Results are snapshots; mutating them
// does not affect the stored units.
func (s *MemoryStore) MessagesInState(ctx context.Context, direction message.Direction, state message.ProcessingState, limit int) ([]*message.MessageUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*message.MessageUnit
	for _, m := range s.messages {
		if m.Direction != direction || m.State != state {
			continue
		}
		copy := *m
		result = append(result, &copy)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

// CompareAndSetState implements Store
func (s *MemoryStore) CompareAndSetState(ctx context.Context, messageID string, expected, next message.ProcessingState) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[messageID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrMessageNotFound, messageID)
	}
	if m.State != expected {
		return false, nil
	}
	m.State = next
	m.UpdatedAt = time.Now()
	return true, nil
}

// SetLastError implements Store
func (s *MemoryStore) SetLastError(ctx context.Context, messageID, lastError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[messageID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMessageNotFound, messageID)
	}
	m.LastError = lastError
	m.UpdatedAt = time.Now()
	return nil
}

// Close implements Store
func (s *MemoryStore) Close(ctx context.Context) error { return nil }

// Ping implements Store
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }
