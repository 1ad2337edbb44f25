package cart

import (
	"errors"
	"sync"

	"pos-service/internal/models"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for unknown or closed session ids.
var ErrSessionNotFound = errors.New("session not found")

// Session scopes one cart to one cashier. The mutex gives the cart the same
// single-writer guarantee the original UI event loop provided: two mutations
// never interleave, and a checkout holds the cart for its whole duration.
type Session struct {
	ID      string
	Cashier models.Cashier

	mu   sync.Mutex
	cart *Cart
}

// WithCart runs fn with exclusive access to the session's cart.
func (s *Session) WithCart(fn func(c *Cart) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.cart)
}

// Registry owns the active cashier sessions. A session is created at login
// and torn down at logout; its cart never outlives it and is never shared.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Open creates a session with a fresh empty cart for the given cashier.
func (r *Registry) Open(cashier models.Cashier) *Session {
	s := &Session{
		ID:      uuid.New().String(),
		Cashier: cashier,
		cart:    New(),
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns the session with the given id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close tears down a session and discards its cart.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}
