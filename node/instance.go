package node

// Position is an editor-facing (x, y) coordinate. The runtime never
// interprets it; it is carried through loadGraph/exportGraph verbatim.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Instance is a node instance within a GraphState (§3 "Node instance"). Field
// names and casing match §6's persisted-state layout exactly, so a GraphState
// round-trips through encoding/json without translation.
type Instance struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Position Position `json:"position"`

	Config       map[string]Value `json:"config"`
	InputValues  map[string]Value `json:"inputValues"`  // disconnected data inputs + latest sink values (for UI)
	OutputValues map[string]Value `json:"outputValues"` // wholly replaced each tick

	// State is private per-instance memory a process()/onSink() hook may
	// read and mutate in place across ticks (iterator position, last-seen
	// value, a queued-items list, a monotonic sequence counter). Unlike
	// Config/InputValues/OutputValues it is never part of GraphState's
	// persisted/exported shape (§6 "the last two are ignored on load" — State
	// goes further and isn't serialized at all, since it is implementation
	// memory, not graph-editor-visible data).
	State map[string]Value `json:"-"`
}

// NewInstance builds an instance with empty value maps.
func NewInstance(id, typ string, pos Position) *Instance {
	return &Instance{
		ID:           id,
		Type:         typ,
		Position:     pos,
		Config:       map[string]Value{},
		InputValues:  map[string]Value{},
		OutputValues: map[string]Value{},
		State:        map[string]Value{},
	}
}

// Clone returns a deep-enough copy for export/diff snapshots: value maps are
// copied, Value itself is an immutable struct so its contents need no
// further copying.
func (n *Instance) Clone() *Instance {
	c := &Instance{ID: n.ID, Type: n.Type, Position: n.Position}
	c.Config = cloneValueMap(n.Config)
	c.InputValues = cloneValueMap(n.InputValues)
	c.OutputValues = cloneValueMap(n.OutputValues)
	c.State = cloneValueMap(n.State)
	return c
}

func cloneValueMap(m map[string]Value) map[string]Value {
	out := make(map[string]Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Connection is a directed edge between two node ports (§3).
type Connection struct {
	ID           string `json:"id"`
	SourceNodeID string `json:"sourceNodeId"`
	SourcePortID string `json:"sourcePortId"`
	TargetNodeID string `json:"targetNodeId"`
	TargetPortID string `json:"targetPortId"`
}

// GraphState is the full persisted/exported shape: node instances plus
// connections (§3, §6 "Persisted state layout").
type GraphState struct {
	Nodes       []*Instance  `json:"nodes"`
	Connections []Connection `json:"connections"`
}

// Clone returns a deep copy of the graph state suitable for exportGraph
// snapshots (§5: "external accessors read stale-but-consistent snapshots").
func (g *GraphState) Clone() *GraphState {
	out := &GraphState{
		Nodes:       make([]*Instance, len(g.Nodes)),
		Connections: make([]Connection, len(g.Connections)),
	}
	for i, n := range g.Nodes {
		out.Nodes[i] = n.Clone()
	}
	copy(out.Connections, g.Connections)
	return out
}

// NodeByID returns the instance with the given id, if present.
func (g *GraphState) NodeByID(id string) (*Instance, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}

// IncomingConnections returns all connections targeting (nodeID, portID),
// regardless of port kind.
func (g *GraphState) IncomingConnections(nodeID, portID string) []Connection {
	var out []Connection
	for _, c := range g.Connections {
		if c.TargetNodeID == nodeID && c.TargetPortID == portID {
			out = append(out, c)
		}
	}
	return out
}

// Lookup resolves a node type to its Definition; implemented by *Registry.
type Lookup interface {
	Get(typ string) (*Definition, bool)
}
