// Package override implements the manager-driven input/config override
// layer (§4.4): a time-to-live mask applied only while reading, never
// mutating the underlying node state it shadows.
package override

import (
	"time"

	"github.com/signalstage/core/node"
)

// Kind distinguishes an override of a node's data input from one of its config.
type Kind string

const (
	KindInput  Kind = "input"
	KindConfig Kind = "config"
)

// key identifies an override by (nodeId, kind, key) per §4.4.
type key struct {
	nodeID string
	kind   Kind
	field  string
}

// entry is the stored override: value, optional TTL, and the time it was
// last (re)applied.
type entry struct {
	value     node.Value
	ttlMs     int64 // 0 means permanent until explicitly removed
	updatedAt int64 // ms, same clock as runtime.ProcessContext.Time
}

func (e entry) liveAt(now int64) bool {
	if e.ttlMs <= 0 {
		return true
	}
	return now-e.updatedAt <= e.ttlMs
}

// Manager owns the override table for one runtime instance. It is not
// concurrency-safe by design: all calls happen from the single tick
// goroutine or from host code between ticks, matching §5's cooperative
// scheduling model.
type Manager struct {
	entries map[key]entry
}

// NewManager returns an empty override table.
func NewManager() *Manager {
	return &Manager{entries: make(map[key]entry)}
}

// Apply sets an override's value and optional TTL (ms; <=0 means permanent).
// updatedAt is the current tick time, used to compute future expiry.
func (m *Manager) Apply(nodeID string, kind Kind, field string, value node.Value, ttlMs int64, updatedAt int64) {
	m.entries[key{nodeID, kind, field}] = entry{value: value, ttlMs: ttlMs, updatedAt: updatedAt}
}

// Remove drops an override immediately, regardless of TTL.
func (m *Manager) Remove(nodeID string, kind Kind, field string) {
	delete(m.entries, key{nodeID, kind, field})
}

// Clear wipes every override.
func (m *Manager) Clear() {
	m.entries = make(map[key]entry)
}

// ExpireAt drops every override whose TTL has elapsed as of now (ms). Called
// once at the start of each tick, before compile/compute (§4.3 step 1).
func (m *Manager) ExpireAt(now int64) {
	for k, e := range m.entries {
		if e.ttlMs > 0 && now-e.updatedAt > e.ttlMs {
			delete(m.entries, k)
		}
	}
}

// Lookup returns an override's value if one is currently live (present and,
// for TTL'd entries, not yet expired) at the given tick time. Expired-but-
// not-yet-swept entries are treated as absent, so a caller never needs to
// call ExpireAt before Lookup within the same tick.
func (m *Manager) Lookup(nodeID string, kind Kind, field string, now int64) (node.Value, bool) {
	e, ok := m.entries[key{nodeID, kind, field}]
	if !ok || !e.liveAt(now) {
		return node.Null, false
	}
	return e.value, true
}

// Count returns the number of live overrides at the given time; used by
// diagnostics/tests, not by the tick loop itself.
func (m *Manager) Count(now int64) int {
	n := 0
	for _, e := range m.entries {
		if e.liveAt(now) {
			n++
		}
	}
	return n
}
