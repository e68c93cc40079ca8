package leaderboard

import "testing"

func setupTest(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSubmitAndTop(t *testing.T) {
	store := setupTest(t)

	store.Submit("runner", "alice", 120)
	store.Submit("runner", "bob", 340)
	store.Submit("runner", "carol", 200)
	store.Submit("breaker", "alice", 999)

	top, err := store.Top("runner", 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(top))
	}
	if top[0].Player != "bob" || top[0].Score != 340 {
		t.Fatalf("expected bob 340 first, got %s %d", top[0].Player, top[0].Score)
	}
	if top[2].Player != "alice" {
		t.Fatalf("expected alice last, got %s", top[2].Player)
	}
}

func TestSubmitKeepsBestScore(t *testing.T) {
	store := setupTest(t)

	store.Submit("runner", "alice", 300)
	store.Submit("runner", "alice", 150)

	top, err := store.Top("runner", 1)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 1 || top[0].Score != 300 {
		t.Fatalf("expected best score 300 kept, got %+v", top)
	}

	store.Submit("runner", "alice", 500)
	top, _ = store.Top("runner", 1)
	if top[0].Score != 500 {
		t.Fatalf("expected improved score 500, got %d", top[0].Score)
	}
}

func TestTopLimit(t *testing.T) {
	store := setupTest(t)
	for i, p := range []string{"a", "b", "c", "d", "e"} {
		store.Submit("runner", p, (i+1)*10)
	}
	top, err := store.Top("runner", 3)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(top))
	}
	if top[0].Score != 50 {
		t.Fatalf("expected 50 first, got %d", top[0].Score)
	}
}

func TestTopUnknownGameEmpty(t *testing.T) {
	store := setupTest(t)
	top, err := store.Top("nope", 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 0 {
		t.Fatalf("expected empty, got %d entries", len(top))
	}
}
