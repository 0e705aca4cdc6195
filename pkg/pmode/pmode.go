package pmode

import (
	"sync"
)

// ProcessingMode represents one trading-partner processing agreement
type ProcessingMode struct {
	ID string

	// MEPBinding selects the protocol variant used for exchanges under
	// this agreement. See the binding package for the recognized tokens.
	MEPBinding string

	// Business info
	Service string
	Action  string

	// Parties
	Initiator *Party
	Responder *Party

	// Protocol
	Protocol *Protocol

	// Security
	Security *Security

	// Compression enables GZIP compression of outbound content
	Compression bool
}

// Party identifies one participant of the agreement
type Party struct {
	ID   string
	Role string
}

// Protocol contains transport parameters
type Protocol struct {
	Address string
}

// Security contains the security parameters of the agreement
type Security struct {
	Signing    *SigningConfig
	Encryption *EncryptionConfig
}

// SigningConfig contains signing configuration
type SigningConfig struct {
	CertificateAlias string
	HashFunction     string
}

// EncryptionConfig contains encryption configuration
type EncryptionConfig struct {
	CertificateAlias string
	Algorithm        string
}

// Manager holds the loaded processing modes. Reads are concurrent; the
// set is normally populated once at startup.
type Manager struct {
	mu     sync.RWMutex
	pmodes map[string]*ProcessingMode
}

// NewManager creates an empty P-Mode manager
func NewManager() *Manager {
	return &Manager{
		pmodes: make(map[string]*ProcessingMode),
	}
}

// Add registers a processing mode
func (m *Manager) Add(pm *ProcessingMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pmodes[pm.ID] = pm
}

// Get retrieves a processing mode by ID, or nil when unknown
func (m *Manager) Get(id string) *ProcessingMode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pmodes[id]
}

// Remove deletes a processing mode
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pmodes, id)
}

// Find returns the first processing mode the predicate accepts, or nil.
// Iteration order is unspecified.
func (m *Manager) Find(match func(*ProcessingMode) bool) *ProcessingMode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, pm := range m.pmodes {
		if match(pm) {
			return pm
		}
	}
	return nil
}

// Len returns the number of registered processing modes
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.pmodes)
}
