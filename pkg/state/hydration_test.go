package state

import (
	"testing"

	"mirrorsync/pkg/models"
	"mirrorsync/pkg/store"
)

func TestHydrationPhaseTransitions(t *testing.T) {
	h := NewHydration()
	if h.Phase() != PhaseIdle {
		t.Fatalf("expected idle start; got %s", h.Phase())
	}

	var seen []Phase
	h.Subscribe(func(p Phase) { seen = append(seen, p) })

	h.Begin()
	if h.Phase() != PhaseHydrating {
		t.Fatalf("expected hydrating; got %s", h.Phase())
	}
	h.Complete()
	if h.Phase() != PhaseReady {
		t.Fatalf("expected ready; got %s", h.Phase())
	}
	if len(seen) != 2 || seen[0] != PhaseHydrating || seen[1] != PhaseReady {
		t.Fatalf("unexpected notifications: %v", seen)
	}
}

func TestTeardownResetsEveryCollection(t *testing.T) {
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	for _, c := range []string{models.Posts, models.Users, models.Chats} {
		if err := store.Set(c, "x", []byte(`{"id":"x"}`)); err != nil {
			t.Fatalf("seed %s: %v", c, err)
		}
	}

	h := NewHydration()
	h.Begin()
	h.Complete()
	if err := h.Teardown(); err != nil {
		t.Fatalf("Teardown: %v", err)
	}
	if h.Phase() != PhaseIdle {
		t.Fatalf("expected idle after teardown; got %s", h.Phase())
	}
	for _, c := range []string{models.Posts, models.Users, models.Chats} {
		if n, _ := store.Count(c); n != 0 {
			t.Fatalf("expected %s empty after teardown; got %d", c, n)
		}
	}
}
