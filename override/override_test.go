package override

import (
	"testing"

	"github.com/signalstage/core/node"
)

func TestTTLExpiry(t *testing.T) {
	m := NewManager()
	m.Apply("math", KindInput, "a", node.Number(100), 50, 0)

	if v, ok := m.Lookup("math", KindInput, "a", 33); !ok || v.AsNumber() != 100 {
		t.Fatalf("expected override live at t=33, got ok=%v v=%v", ok, v)
	}
	if v, ok := m.Lookup("math", KindInput, "a", 50); !ok || v.AsNumber() != 100 {
		t.Fatalf("expected override live at t=50, got ok=%v v=%v", ok, v)
	}
	if _, ok := m.Lookup("math", KindInput, "a", 99); ok {
		t.Fatal("expected override expired at t=99 (> ttl 50)")
	}

	m.ExpireAt(99)
	if m.Count(99) != 0 {
		t.Fatalf("expected ExpireAt to sweep expired entry, count=%d", m.Count(99))
	}
}

func TestPermanentOverrideSurvivesExpireAt(t *testing.T) {
	m := NewManager()
	m.Apply("n1", KindConfig, "value", node.Number(5), 0, 0)
	m.ExpireAt(1_000_000)
	if _, ok := m.Lookup("n1", KindConfig, "value", 1_000_000); !ok {
		t.Fatal("permanent override (ttl<=0) should never expire")
	}
}

func TestRemoveAndClear(t *testing.T) {
	m := NewManager()
	m.Apply("n1", KindInput, "x", node.Number(1), 0, 0)
	m.Apply("n2", KindInput, "y", node.Number(2), 0, 0)

	m.Remove("n1", KindInput, "x")
	if _, ok := m.Lookup("n1", KindInput, "x", 0); ok {
		t.Fatal("expected removed override to be gone")
	}

	m.Clear()
	if _, ok := m.Lookup("n2", KindInput, "y", 0); ok {
		t.Fatal("expected Clear to wipe all overrides")
	}
}

func TestExpiryDoesNotReintroducePreviousOverrideArtifact(t *testing.T) {
	// §9 design note: expiry must not reintroduce a stale prior value as an
	// artifact. Applying a new override over an old key must fully replace it.
	m := NewManager()
	m.Apply("n1", KindInput, "x", node.Number(1), 10, 0)
	m.Apply("n1", KindInput, "x", node.Number(2), 0, 5) // re-applied permanent before first expiry

	if v, ok := m.Lookup("n1", KindInput, "x", 1000); !ok || v.AsNumber() != 2 {
		t.Fatalf("expected replaced override value 2, got ok=%v v=%v", ok, v)
	}
}
