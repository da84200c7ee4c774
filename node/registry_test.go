package node

import "testing"

func TestRegistryRejectsDuplicateType(t *testing.T) {
	r := NewRegistry()
	def := &Definition{Type: "number"}
	if err := r.Register(def); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register(&Definition{Type: "number"}); err == nil {
		t.Fatal("expected duplicate-type registration to fail")
	}
}

func TestRegistryVersionGate(t *testing.T) {
	old := RuntimeVersion
	defer SetRuntimeVersion(old)
	SetRuntimeVersion("0.1.0")

	r := NewRegistry()
	err := r.Register(&Definition{Type: "future-node", MinRuntimeVersion: ">=9.0.0"})
	if err == nil {
		t.Fatal("expected version-gated registration to fail")
	}

	if err := r.Register(&Definition{Type: "compatible-node", MinRuntimeVersion: ">=0.1.0"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRegistryGetList(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&Definition{Type: "b"})
	_ = r.Register(&Definition{Type: "a"})

	if _, ok := r.Get("missing"); ok {
		t.Fatal("expected missing type to not resolve")
	}
	list := r.List()
	if len(list) != 2 || list[0].Type != "a" || list[1].Type != "b" {
		t.Fatalf("expected sorted [a b], got %+v", list)
	}

	r.Unregister("a")
	if _, ok := r.Get("a"); ok {
		t.Fatal("expected unregistered type to be gone")
	}
}
