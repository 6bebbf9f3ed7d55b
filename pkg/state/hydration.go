package state

import (
	"sync"

	"mirrorsync/pkg/logger"
	"mirrorsync/pkg/models"
	"mirrorsync/pkg/store"
)

// Phase of the mirror lifecycle.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseHydrating Phase = "hydrating"
	PhaseReady     Phase = "ready"
)

// Hydration tracks the mirror's lifecycle between login and logout. It is an
// explicit state holder constructed once at process start and passed by
// reference; subscribers are an explicit list, and teardown is an explicit
// call rather than implicit module lifetime.
type Hydration struct {
	mu    sync.Mutex
	phase Phase
	subs  []func(Phase)
}

func NewHydration() *Hydration {
	return &Hydration{phase: PhaseIdle}
}

// Subscribe registers a callback invoked on every phase change. Callbacks
// run synchronously on the transitioning goroutine and must not block.
func (h *Hydration) Subscribe(fn func(Phase)) {
	h.mu.Lock()
	h.subs = append(h.subs, fn)
	h.mu.Unlock()
}

// Phase returns the current phase.
func (h *Hydration) Phase() Phase {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.phase
}

func (h *Hydration) transition(p Phase) {
	h.mu.Lock()
	h.phase = p
	subs := append(([]func(Phase))(nil), h.subs...)
	h.mu.Unlock()
	logger.Info("hydration_phase", "phase", string(p))
	for _, fn := range subs {
		fn(p)
	}
}

// Begin marks the start of initial hydration (login).
func (h *Hydration) Begin() { h.transition(PhaseHydrating) }

// Complete marks the mirror as hydrated.
func (h *Hydration) Complete() { h.transition(PhaseReady) }

// Teardown resets every mirrored collection and returns to idle (logout).
// This is the only broad delete path; sync failures never reach it.
func (h *Hydration) Teardown() error {
	for _, c := range []string{models.Posts, models.Users, models.Chats} {
		if err := store.Reset(c); err != nil {
			return err
		}
	}
	h.transition(PhaseIdle)
	return nil
}
