// Package diffgraph computes structural change sets between two GraphState
// snapshots (§4.8), for incremental adapters (live editors, replication)
// that would rather apply a small change list than re-materialize the
// world every time.
package diffgraph

import "github.com/signalstage/core/node"

// ChangeKind is the closed set of structural change kinds §4.8 names.
type ChangeKind string

const (
	AddNode            ChangeKind = "add-node"
	RemoveNode         ChangeKind = "remove-node"
	UpdateNodeType     ChangeKind = "update-node-type"
	UpdateNodePosition ChangeKind = "update-node-position"
	UpdateNodeConfig   ChangeKind = "update-node-config"
	AddConnection      ChangeKind = "add-connection"
	RemoveConnection   ChangeKind = "remove-connection"
)

// Change is one emitted structural difference.
type Change struct {
	Kind ChangeKind

	NodeID string
	Type   string // for UpdateNodeType / AddNode
	Position node.Position // for UpdateNodePosition / AddNode
	Config   map[string]node.Value // for UpdateNodeConfig / AddNode

	Connection *node.Connection // for Add/RemoveConnection
}

// Diff computes prev -> next in a stable, incremental order: node removals
// (in `prev`'s slice order), then each `next` node's addition or its
// type/position/config updates (in `next`'s slice order), then connection
// removals (in `prev`'s slice order) and connection additions (in `next`'s
// slice order). Output ordering is deterministic.
func Diff(prev, next *node.GraphState) []Change {
	var changes []Change

	prevNodes := indexNodes(prev)
	nextNodes := indexNodes(next)

	for _, n := range prev.Nodes {
		if _, ok := nextNodes[n.ID]; !ok {
			changes = append(changes, Change{Kind: RemoveNode, NodeID: n.ID})
		}
	}

	for _, n := range next.Nodes {
		old, existed := prevNodes[n.ID]
		if !existed {
			changes = append(changes, Change{
				Kind:     AddNode,
				NodeID:   n.ID,
				Type:     n.Type,
				Position: n.Position,
				Config:   n.Config,
			})
			continue
		}
		if old.Type != n.Type {
			changes = append(changes, Change{Kind: UpdateNodeType, NodeID: n.ID, Type: n.Type})
		}
		if old.Position != n.Position {
			changes = append(changes, Change{Kind: UpdateNodePosition, NodeID: n.ID, Position: n.Position})
		}
		if !configEqual(old.Config, n.Config) {
			changes = append(changes, Change{Kind: UpdateNodeConfig, NodeID: n.ID, Config: n.Config})
		}
	}

	prevConns := indexConnections(prev)
	nextConns := indexConnections(next)

	for _, c := range prev.Connections {
		if _, ok := nextConns[connKey(c)]; !ok {
			cc := c
			changes = append(changes, Change{Kind: RemoveConnection, Connection: &cc})
		}
	}
	for _, c := range next.Connections {
		key := connKey(c)
		if _, ok := prevConns[key]; !ok {
			cc := c
			changes = append(changes, Change{Kind: AddConnection, Connection: &cc})
		}
	}

	return changes
}

func indexNodes(g *node.GraphState) map[string]*node.Instance {
	out := make(map[string]*node.Instance, len(g.Nodes))
	for _, n := range g.Nodes {
		out[n.ID] = n
	}
	return out
}

func indexConnections(g *node.GraphState) map[string]node.Connection {
	out := make(map[string]node.Connection, len(g.Connections))
	for _, c := range g.Connections {
		out[connKey(c)] = c
	}
	return out
}

func connKey(c node.Connection) string {
	return c.SourceNodeID + "." + c.SourcePortID + "->" + c.TargetNodeID + "." + c.TargetPortID
}

// configEqual compares two config maps via each Value's canonical JSON, so
// key order and Go map iteration never affect the result (§8 "compared via
// stable JSON").
func configEqual(a, b map[string]node.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		ov, ok := b[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}
