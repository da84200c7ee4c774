package node

import (
	"encoding/json"
	"testing"
)

func TestAsNumberCoercion(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want float64
	}{
		{"number", Number(4.5), 4.5},
		{"fuzzy", Fuzzy(0.75), 0.75},
		{"bool-true", Bool(true), 1},
		{"bool-false", Bool(false), 0},
		{"numeric-string", String("12.5"), 12.5},
		{"non-numeric-string", String("hello"), 0},
		{"array-length", Array([]Value{Number(1), Number(2), Number(3)}), 3},
		{"null", Null, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.v.AsNumber(); got != c.want {
				t.Errorf("AsNumber() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestCanonicalJSONStableUnderKeyOrder(t *testing.T) {
	a := Command(map[string]interface{}{"action": "flashlight", "mode": "blink", "frequency": 2.0})
	b := Command(map[string]interface{}{"frequency": 2.0, "mode": "blink", "action": "flashlight"})

	if a.CanonicalJSON() != b.CanonicalJSON() {
		t.Fatalf("canonical JSON differs by construction order: %q vs %q", a.CanonicalJSON(), b.CanonicalJSON())
	}
}

func TestValueEqual(t *testing.T) {
	if !Number(1).Equal(Number(1)) {
		t.Fatal("Number(1) should equal Number(1)")
	}
	if Number(1).Equal(Number(2)) {
		t.Fatal("Number(1) should not equal Number(2)")
	}
	if !Array([]Value{Number(1)}).Equal(Array([]Value{Number(1)})) {
		t.Fatal("equal arrays should compare equal")
	}
}

func TestValueJSONRoundTripPreservesKind(t *testing.T) {
	cases := []Value{
		Null,
		Number(4.5),
		Fuzzy(0.25),
		Bool(true),
		String("hello"),
		Color("#ff0000"),
		Image("http://x/1.png"),
		Array([]Value{Number(1), String("a"), Bool(false)}),
		Effect(map[string]interface{}{"kind": "effect-ascii", "scale": 2.0}),
		Command(map[string]interface{}{"action": "flashlight", "payload": map[string]interface{}{"mode": "on"}}),
	}
	for _, v := range cases {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("Marshal(%v) error: %v", v, err)
		}
		var out Value
		if err := json.Unmarshal(b, &out); err != nil {
			t.Fatalf("Unmarshal(%s) error: %v", b, err)
		}
		if out.Kind() != v.Kind() {
			t.Fatalf("kind mismatch after round-trip: got %v, want %v", out.Kind(), v.Kind())
		}
		if !out.Equal(v) {
			t.Fatalf("value mismatch after round-trip: got %s, want %s", out.CanonicalJSON(), v.CanonicalJSON())
		}
	}
}

func TestGraphStateJSONRoundTrip(t *testing.T) {
	n := NewInstance("n1", "number", Position{X: 10, Y: 20})
	n.Config["value"] = Number(9)
	g := &GraphState{Nodes: []*Instance{n}, Connections: []Connection{{ID: "c1", SourceNodeID: "n1", SourcePortID: "value", TargetNodeID: "n2", TargetPortID: "a"}}}

	b, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var out GraphState
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if len(out.Nodes) != 1 || out.Nodes[0].ID != "n1" || out.Nodes[0].Position.X != 10 {
		t.Fatalf("node round-trip mismatch: %+v", out.Nodes)
	}
	if !out.Nodes[0].Config["value"].Equal(Number(9)) {
		t.Fatalf("config round-trip mismatch: %+v", out.Nodes[0].Config)
	}
	if len(out.Connections) != 1 || out.Connections[0].TargetNodeID != "n2" {
		t.Fatalf("connection round-trip mismatch: %+v", out.Connections)
	}
}

func TestValueAsRoundTrip(t *testing.T) {
	type payload struct {
		Mode string `json:"mode"`
	}
	v := Command(payload{Mode: "on"})
	var out payload
	if err := v.As(&out); err != nil {
		t.Fatalf("As() error: %v", err)
	}
	if out.Mode != "on" {
		t.Fatalf("got mode %q, want on", out.Mode)
	}
}
