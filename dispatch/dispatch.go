// Package dispatch implements the command dispatcher (§4.10): target
// selector resolution, global-clock executeAt clamping, and per-recipient
// transport frame emission. The runtime itself stays transport-agnostic;
// this package is what a host wires behind `executeCommand`/
// `executeCommandForClientId`.
package dispatch

import (
	"github.com/signalstage/core/connreg"
	"github.com/signalstage/core/logger"
	"github.com/signalstage/core/node"
)

// TargetKind is the closed set of selector shapes a command can address.
type TargetKind string

const (
	TargetAll       TargetKind = "all"
	TargetClientIDs TargetKind = "clientIds"
	TargetGroup     TargetKind = "group"
)

// Target addresses one or more clients.
type Target struct {
	Kind      TargetKind
	ClientIDs []string // for TargetClientIDs
	GroupID   string   // for TargetGroup
}

const (
	// defaultMaxClockSkewMs is how far a caller-supplied executeAt may
	// diverge from the dispatcher's own clock before being clamped back to
	// it (SPEC_FULL.md §4.10).
	defaultMaxClockSkewMs = int64(250)
	// defaultTravelBudgetMs is how far past now a future executeAt may be
	// scheduled (plus maxClockSkewMs of slack) before it's clamped to now.
	defaultTravelBudgetMs = int64(2000)
)

// Frame is one transport-ready command addressed to a single client.
type Frame struct {
	ClientID        string
	Command         node.Value
	ServerTimestamp int64
	ExecuteAt       int64
}

// Sender delivers one resolved frame; a host implements this over its own
// transport (websocket, etc).
type Sender func(Frame)

// Dispatcher resolves targets against a connection registry and clamps
// executeAt before handing frames to a Sender.
type Dispatcher struct {
	registry       *connreg.Registry
	send           Sender
	maxClockSkewMs int64
	travelBudgetMs int64

	// groups maps a groupId to a membership set, maintained by the host
	// (e.g. from a `client-object`-style router node's selection).
	groups map[string][]string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

func WithMaxClockSkewMs(ms int64) Option { return func(d *Dispatcher) { d.maxClockSkewMs = ms } }
func WithTravelBudgetMs(ms int64) Option { return func(d *Dispatcher) { d.travelBudgetMs = ms } }

// New builds a Dispatcher bound to a connection registry and a transport sender.
func New(registry *connreg.Registry, send Sender, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:       registry,
		send:           send,
		maxClockSkewMs: defaultMaxClockSkewMs,
		travelBudgetMs: defaultTravelBudgetMs,
		groups:         map[string][]string{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetGroup defines (or replaces) a named group's membership.
func (d *Dispatcher) SetGroup(groupID string, clientIDs []string) {
	d.groups[groupID] = clientIDs
}

// ExecuteCommand resolves target against connected clients and emits one
// frame per connected recipient, per §4.10.
func (d *Dispatcher) ExecuteCommand(target Target, cmd node.Value, executeAt int64, nowMs int64) {
	for _, clientID := range d.resolveTargets(target) {
		d.ExecuteCommandForClientID(clientID, cmd, executeAt, nowMs)
	}
}

// ExecuteCommandForClientID delivers to exactly one client id, silently
// doing nothing if it isn't currently connected (§7 "SelectorMiss").
func (d *Dispatcher) ExecuteCommandForClientID(clientID string, cmd node.Value, executeAt int64, nowMs int64) {
	if _, ok := d.registry.Resolve(clientID); !ok {
		logger.DispatchDebugw("selector miss", "clientId", clientID)
		return
	}
	frame := Frame{
		ClientID:        clientID,
		Command:         cmd,
		ServerTimestamp: nowMs,
		ExecuteAt:       d.clampExecuteAt(executeAt, nowMs),
	}
	logger.DispatchDebugw("dispatching frame", "clientId", clientID, "executeAt", frame.ExecuteAt)
	d.send(frame)
}

func (d *Dispatcher) resolveTargets(target Target) []string {
	switch target.Kind {
	case TargetAll:
		return d.registry.ConnectedClientIds()
	case TargetClientIDs:
		return target.ClientIDs
	case TargetGroup:
		return d.groups[target.GroupID]
	default:
		return nil
	}
}

// clampExecuteAt bounds a caller-supplied executeAt to the dispatcher's own
// clock: an instant more than maxClockSkewMs in the past, or more than
// maxClockSkewMs beyond now+travelBudgetMs, is clamped to now rather than
// honored as-is (SPEC_FULL.md §4.10). A zero executeAt means now.
func (d *Dispatcher) clampExecuteAt(executeAt, nowMs int64) int64 {
	if executeAt == 0 {
		return nowMs
	}
	skew := executeAt - nowMs
	if skew < -d.maxClockSkewMs || skew > d.travelBudgetMs+d.maxClockSkewMs {
		logger.DispatchDebugw("executeAt clamped to now", "requested", executeAt, "now", nowMs, "skew", skew)
		return nowMs
	}
	return executeAt
}
