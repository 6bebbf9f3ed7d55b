// Package identity resolves who is acting. The session identity is set at
// login and cleared at logout; everything else receives a Provider by
// reference instead of reaching for a global.
package identity

import "sync"

type Identity struct {
	ID     string `json:"id"`
	Handle string `json:"handle,omitempty"`
}

// Provider reports the current session identity, if any.
type Provider interface {
	Current() (Identity, bool)
}

// Static is the in-process Provider. Concurrent-safe; mutated only at
// login/logout boundaries.
type Static struct {
	mu  sync.RWMutex
	id  Identity
	set bool
}

func NewStatic() *Static { return &Static{} }

// Set installs the session identity (login).
func (s *Static) Set(id Identity) {
	s.mu.Lock()
	s.id = id
	s.set = id.ID != ""
	s.mu.Unlock()
}

// Clear removes the session identity (logout).
func (s *Static) Clear() {
	s.mu.Lock()
	s.id = Identity{}
	s.set = false
	s.mu.Unlock()
}

// Current implements Provider.
func (s *Static) Current() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id, s.set
}
