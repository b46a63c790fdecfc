package presence

import (
	"fmt"
	"sync"
	"testing"
)

func TestJoinLookupDisconnect(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Lookup("alice@example.com"); ok {
		t.Error("Expected absent before join")
	}

	r.Join("alice@example.com", "conn1")
	if connID, ok := r.Lookup("alice@example.com"); !ok || connID != "conn1" {
		t.Errorf("Expected conn1, got %q ok=%v", connID, ok)
	}

	identity, ok := r.Disconnect("conn1")
	if !ok || identity != "alice@example.com" {
		t.Errorf("Expected disconnect of alice, got %q ok=%v", identity, ok)
	}
	if _, ok := r.Lookup("alice@example.com"); ok {
		t.Error("Expected absent after disconnect")
	}
}

func TestLastJoinWins(t *testing.T) {
	r := NewRegistry()

	r.Join("alice@example.com", "conn1")
	prev, replaced := r.Join("alice@example.com", "conn2")
	if !replaced || prev != "conn1" {
		t.Errorf("Expected replacement of conn1, got %q replaced=%v", prev, replaced)
	}

	// Disconnect of the superseded connection must be a no-op.
	if identity, ok := r.Disconnect("conn1"); ok {
		t.Errorf("Expected no-op for stale disconnect, removed %q", identity)
	}
	if connID, ok := r.Lookup("alice@example.com"); !ok || connID != "conn2" {
		t.Errorf("Expected conn2 to survive, got %q ok=%v", connID, ok)
	}
}

func TestDisconnectUnknownIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Join("alice@example.com", "conn1")

	if _, ok := r.Disconnect("never-seen"); ok {
		t.Error("Expected no-op for unknown connection")
	}
	if _, ok := r.Lookup("alice@example.com"); !ok {
		t.Error("Unrelated disconnect removed alice")
	}
}

func TestIdentitiesSnapshot(t *testing.T) {
	r := NewRegistry()
	r.Join("alice@example.com", "conn1")
	r.Join("bob@example.com", "conn2")

	got := r.Identities()
	if len(got) != 2 {
		t.Errorf("Expected 2 identities, got %d", len(got))
	}
}

func TestConcurrentChurn(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			identity := fmt.Sprintf("user%d@example.com", i%10)
			connID := fmt.Sprintf("conn%d", i)
			r.Join(identity, connID)
			r.Lookup(identity)
			r.Disconnect(connID)
		}(i)
	}
	wg.Wait()

	// Every join was matched with a disconnect; only last-join-wins
	// survivors whose disconnect hit a stale entry may remain online, and
	// each of those must still resolve consistently.
	for _, identity := range r.Identities() {
		connID, ok := r.Lookup(identity)
		if !ok {
			t.Errorf("Identity %s listed but not resolvable", identity)
			continue
		}
		if got, ok := r.Disconnect(connID); !ok || got != identity {
			t.Errorf("Disconnect(%s) = %q ok=%v, want %s", connID, got, ok, identity)
		}
	}
}
