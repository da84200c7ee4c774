package diffgraph

import (
	"testing"

	"github.com/signalstage/core/node"
)

func numberInstance(id string, value float64, pos node.Position) *node.Instance {
	n := node.NewInstance(id, "number", pos)
	n.Config["value"] = node.Number(value)
	return n
}

func TestDiffSelfIsEmpty(t *testing.T) {
	state := &node.GraphState{
		Nodes: []*node.Instance{numberInstance("n1", 1, node.Position{})},
	}
	if changes := Diff(state, state); len(changes) != 0 {
		t.Fatalf("expected no changes diffing a graph against itself, got %+v", changes)
	}
}

func TestDiffScenarioS6(t *testing.T) {
	prev := &node.GraphState{
		Nodes: []*node.Instance{
			numberInstance("n1", 1, node.Position{}),
			numberInstance("n2", 2, node.Position{}),
		},
	}
	next := &node.GraphState{
		Nodes: []*node.Instance{
			numberInstance("n1", 1, node.Position{X: 10, Y: 20}),
			numberInstance("n2", 9, node.Position{}),
			node.NewInstance("n3", "math", node.Position{}),
		},
		Connections: []node.Connection{
			{SourceNodeID: "n1", SourcePortID: "value", TargetNodeID: "n3", TargetPortID: "a"},
		},
	}

	changes := Diff(prev, next)

	want := map[ChangeKind]int{
		UpdateNodePosition: 1,
		UpdateNodeConfig:   1,
		AddNode:            1,
		AddConnection:      1,
	}
	got := map[ChangeKind]int{}
	for _, c := range changes {
		got[c.Kind]++
	}
	for k, n := range want {
		if got[k] != n {
			t.Fatalf("expected %d %s changes, got %d (all changes: %+v)", n, k, got[k], changes)
		}
	}
	if len(changes) != 4 {
		t.Fatalf("expected exactly 4 changes, got %d: %+v", len(changes), changes)
	}
}

func TestDiffRemoveNodeAndConnection(t *testing.T) {
	prev := &node.GraphState{
		Nodes: []*node.Instance{
			numberInstance("n1", 1, node.Position{}),
			numberInstance("n2", 2, node.Position{}),
		},
		Connections: []node.Connection{
			{SourceNodeID: "n1", SourcePortID: "value", TargetNodeID: "n2", TargetPortID: "in"},
		},
	}
	next := &node.GraphState{
		Nodes: []*node.Instance{numberInstance("n1", 1, node.Position{})},
	}

	changes := Diff(prev, next)
	var sawRemoveNode, sawRemoveConn bool
	for _, c := range changes {
		if c.Kind == RemoveNode && c.NodeID == "n2" {
			sawRemoveNode = true
		}
		if c.Kind == RemoveConnection {
			sawRemoveConn = true
		}
	}
	if !sawRemoveNode || !sawRemoveConn {
		t.Fatalf("expected remove-node and remove-connection, got %+v", changes)
	}
}
