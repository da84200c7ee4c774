package runtime

import "github.com/signalstage/core/node"

// Host is the set of accessor/dispatch callbacks a runtime embedder supplies
// (§6 "Host-provided callbacks"). The runtime never talks to a transport
// directly: node hooks that need client/sensor/dispatch access reach it
// through these functions, which the runtime threads into ProcessContext-
// adjacent helpers via the node library (package nodes), not by importing a
// transport package itself.
type Host interface {
	GetAllClientIds() []string
	GetSelectedClientIds() []string
	GetClientID() string
	GetLatestSensor() node.Value
	GetSensorForClientID(id string) node.Value
	GetImageForClientID(id string) node.Value
	ExecuteCommand(cmd node.Value)
	ExecuteCommandForClientID(id string, cmd node.Value)
}

// NopHost is a zero-value Host useful for tests and for graphs that never
// reach a client-facing node.
type NopHost struct{}

func (NopHost) GetAllClientIds() []string                 { return nil }
func (NopHost) GetSelectedClientIds() []string             { return nil }
func (NopHost) GetClientID() string                        { return "" }
func (NopHost) GetLatestSensor() node.Value                 { return node.Null }
func (NopHost) GetSensorForClientID(id string) node.Value   { return node.Null }
func (NopHost) GetImageForClientID(id string) node.Value    { return node.Null }
func (NopHost) ExecuteCommand(cmd node.Value)               {}
func (NopHost) ExecuteCommandForClientID(id string, cmd node.Value) {}
