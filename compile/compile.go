// Package compile implements graph compilation (§4.2): a Kahn topological
// sort over data edges only, producing a deterministic executionOrder.
// Sink edges are stripped before ordering and never participate in cycle
// detection — per §9's design decision, cyclic sink graphs are modeled as
// a second pass over the same order rather than a separate graph.
package compile

import (
	serr "github.com/signalstage/core/errors"
	"github.com/signalstage/core/node"
)

// Result is the outcome of a successful compile: a linear order in which
// the tick loop's compute pass should visit nodes.
type Result struct {
	ExecutionOrder []*node.Instance
}

// CycleDiagnostics describes a failed compile. Compile itself does not build
// one: its RuntimeCompileError carries the residue as a detail string.
type CycleDiagnostics struct {
	// ResidualNodeIDs are the node ids whose in-degree never reached zero —
	// the residue left behind by Kahn's algorithm, which is exactly the set
	// of nodes participating in (or downstream of) a data-edge cycle.
	ResidualNodeIDs []string
}

// Compile runs Kahn's algorithm over data edges only. Tie-breaking among
// zero-in-degree nodes is insertion order (the order nodes appear in
// state.Nodes), which makes execution deterministic across equivalent
// graphs (§4.2).
func Compile(state *node.GraphState, lookup node.Lookup) (*Result, error) {
	order := make(map[string]int, len(state.Nodes))
	for i, n := range state.Nodes {
		order[n.ID] = i
	}

	// adjacency + in-degree over data edges only (sink edges are stripped).
	indegree := make(map[string]int, len(state.Nodes))
	adj := make(map[string][]string, len(state.Nodes))
	for _, n := range state.Nodes {
		indegree[n.ID] = 0
	}

	for _, c := range state.Connections {
		if !isDataEdge(state, lookup, c) {
			continue
		}
		if _, ok := order[c.SourceNodeID]; !ok {
			continue
		}
		if _, ok := order[c.TargetNodeID]; !ok {
			continue
		}
		adj[c.SourceNodeID] = append(adj[c.SourceNodeID], c.TargetNodeID)
		indegree[c.TargetNodeID]++
	}

	// Ready set, maintained in insertion order for deterministic tie-breaking.
	var ready []string
	for _, n := range state.Nodes {
		if indegree[n.ID] == 0 {
			ready = append(ready, n.ID)
		}
	}

	var resultIDs []string
	for len(ready) > 0 {
		// Pop the earliest-inserted ready node.
		id := ready[0]
		ready = ready[1:]
		resultIDs = append(resultIDs, id)

		for _, next := range adj[id] {
			indegree[next]--
			if indegree[next] == 0 {
				ready = insertSorted(ready, next, order)
			}
		}
	}

	if len(resultIDs) != len(state.Nodes) {
		var residual []string
		for id, deg := range indegree {
			if deg > 0 {
				residual = append(residual, id)
			}
		}
		return nil, serr.Wrap(
			serr.WithDetail(serr.NewCompileError("cycle detected in data edges"), cycleDetail(residual)),
			"compile",
		)
	}

	instances := make([]*node.Instance, 0, len(resultIDs))
	for _, id := range resultIDs {
		n, _ := state.NodeByID(id)
		instances = append(instances, n)
	}
	return &Result{ExecutionOrder: instances}, nil
}

func cycleDetail(residual []string) string {
	return "residual node ids: " + joinIDs(residual)
}

func joinIDs(ids []string) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += id
	}
	return out
}

// insertSorted inserts id into the ready slice keeping the slice ordered by
// each id's position in the original insertion order, preserving
// determinism (§4.2 "tie-breaking is insertion order").
func insertSorted(ready []string, id string, order map[string]int) []string {
	pos := len(ready)
	for i, existing := range ready {
		if order[id] < order[existing] {
			pos = i
			break
		}
	}
	ready = append(ready, "")
	copy(ready[pos+1:], ready[pos:])
	ready[pos] = id
	return ready
}

// isDataEdge reports whether a connection's target port is a data port.
// Port-type mismatches are not checked here (§3: "ignored at compile").
func isDataEdge(state *node.GraphState, lookup node.Lookup, c node.Connection) bool {
	target, ok := state.NodeByID(c.TargetNodeID)
	if !ok {
		return false
	}
	def, ok := lookup.Get(target.Type)
	if !ok {
		return false
	}
	port, ok := def.InputPort(c.TargetPortID)
	if !ok {
		return false
	}
	return port.Kind == node.PortData
}
