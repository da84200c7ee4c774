// Package connreg implements the connection registry (§4.9): stable client
// ids, grace-period reconnection, and clientId/socketId bookkeeping that
// command dispatch resolves selectors against.
package connreg

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"

	"github.com/signalstage/core/logger"
)

// Role distinguishes a performer-carried client from a manager/editor
// connection: managers always get a fresh id (§4.9).
type Role int

const (
	RoleClient Role = iota
	RoleManager
)

const defaultGraceMs = int64(5000)

// Connection is one registered socket's bookkeeping record.
type Connection struct {
	ClientID   string
	SocketID   string
	DeviceID   string
	InstanceID string
	Role       Role
	Connected  bool
	// disconnectedAt is the registry's internal clock value when Connected
	// went false; zero while Connected is true.
	disconnectedAt int64
}

// ExpiredHandler is called once per clientId when its grace period elapses
// without a reconnect.
type ExpiredHandler func(clientID string)

// Registry owns the clientId -> Connection and socketId -> clientId maps. It
// is safe for concurrent use: registrations arrive from host transport
// goroutines, independent of the single-threaded tick loop (§5 draws the
// concurrency boundary at the runtime's own tick, not at host-side ingest).
type Registry struct {
	mu sync.Mutex

	graceMs int64
	clock   func() int64 // ms, overridable for deterministic tests

	byClientID map[string]*Connection
	bySocketID map[string]string // socketId -> clientId

	onExpired []ExpiredHandler
	counter   uint32
}

// Option configures a Registry at construction.
type Option func(*Registry)

// WithGraceMs overrides the default 5000 ms grace period. 0 means immediate
// purge on disconnect.
func WithGraceMs(ms int64) Option {
	return func(r *Registry) { r.graceMs = ms }
}

// WithClock overrides the registry's time source; intended for tests.
func WithClock(clock func() int64) Option {
	return func(r *Registry) { r.clock = clock }
}

// New builds an empty registry with the default 5000 ms grace period.
func New(opts ...Option) *Registry {
	r := &Registry{
		graceMs:    defaultGraceMs,
		clock:      func() int64 { return time.Now().UnixMilli() },
		byClientID: map[string]*Connection{},
		bySocketID: map[string]string{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnExpired registers a handler fired when a grace-period entry is purged.
func (r *Registry) OnExpired(h ExpiredHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onExpired = append(r.onExpired, h)
}

// Register attaches a socket to a (possibly new) clientId (§4.9).
//
// Managers always get a fresh id. Clients prefer a caller-supplied stable
// deviceId+instanceId pair: if a prior connection with that exact pair
// exists, its socket is replaced (takeover, preserving the clientId).
// Otherwise the desired id is allocated, with a numeric suffix on
// collision, falling back to a synthesized id when no desired id is given.
func (r *Registry) Register(socketID, desiredID, deviceID, instanceID string, role Role) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if role == RoleManager {
		id := r.freshManagerID()
		r.attachLocked(id, socketID, deviceID, instanceID, role)
		return id
	}

	if deviceID != "" && instanceID != "" {
		if existing := r.findByDeviceInstanceLocked(deviceID, instanceID); existing != nil {
			r.takeoverLocked(existing, socketID)
			return existing.ClientID
		}
	}

	id := r.allocateClientIDLocked(desiredID, deviceID, instanceID)
	r.attachLocked(id, socketID, deviceID, instanceID, role)
	return id
}

func (r *Registry) findByDeviceInstanceLocked(deviceID, instanceID string) *Connection {
	for _, c := range r.byClientID {
		if c.DeviceID == deviceID && c.InstanceID == instanceID {
			return c
		}
	}
	return nil
}

func (r *Registry) takeoverLocked(c *Connection, newSocketID string) {
	logger.ConnInfow("socket takeover", "clientId", c.ClientID, "oldSocketId", c.SocketID, "newSocketId", newSocketID)
	delete(r.bySocketID, c.SocketID)
	c.SocketID = newSocketID
	c.Connected = true
	c.disconnectedAt = 0
	r.bySocketID[newSocketID] = c.ClientID
}

func (r *Registry) attachLocked(clientID, socketID, deviceID, instanceID string, role Role) {
	r.byClientID[clientID] = &Connection{
		ClientID: clientID, SocketID: socketID,
		DeviceID: deviceID, InstanceID: instanceID,
		Role: role, Connected: true,
	}
	r.bySocketID[socketID] = clientID
}

// allocateClientIDLocked resolves the desired id against collisions with a
// numeric suffix, or synthesizes a fresh one if no desired id was given.
func (r *Registry) allocateClientIDLocked(desiredID, deviceID, instanceID string) string {
	if desiredID == "" {
		return r.synthesizeClientIDLocked()
	}
	if _, taken := r.byClientID[desiredID]; !taken {
		return desiredID
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", desiredID, n)
		if _, taken := r.byClientID[candidate]; !taken {
			return candidate
		}
	}
}

// synthesizeClientIDLocked builds a compact base58 id from an 8-byte
// timestamp+counter pair (§4.9 "as a last resort a fresh id is synthesized
// from timestamp + counter").
func (r *Registry) synthesizeClientIDLocked() string {
	r.counter++
	var buf [8]byte
	binary.BigEndian.PutUint32(buf[0:4], uint32(r.clock()))
	binary.BigEndian.PutUint32(buf[4:8], r.counter)
	return base58.Encode(buf[:])
}

// freshManagerID mints a uuid4-derived manager id (§4.9 "Managers always get
// a fresh id").
func (r *Registry) freshManagerID() string {
	return "mgr-" + uuid.NewString()
}

// Disconnect begins the grace period for the connection owning socketID. The
// clientId stays resolvable (marked Connected=false) until ExpireAt purges
// it, unless a reconnect happens first. With a zero grace period the entry
// is purged at once and ExpiredHandlers fire.
func (r *Registry) Disconnect(socketID string, nowMs int64) {
	r.mu.Lock()
	clientID, ok := r.bySocketID[socketID]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.bySocketID, socketID)
	c, ok := r.byClientID[clientID]
	if !ok {
		r.mu.Unlock()
		return
	}
	c.Connected = false
	c.disconnectedAt = nowMs
	logger.ConnInfow("connection entered grace period", "clientId", clientID, "graceMs", r.graceMs)
	if r.graceMs > 0 {
		r.mu.Unlock()
		return
	}
	r.purgeLocked(clientID)
	handlers := append([]ExpiredHandler(nil), r.onExpired...)
	r.mu.Unlock()

	logger.ConnInfow("connection expired", "clientId", clientID)
	for _, h := range handlers {
		h(clientID)
	}
}

// ExpireAt purges every disconnected entry whose grace period has elapsed as
// of nowMs, firing registered ExpiredHandlers.
func (r *Registry) ExpireAt(nowMs int64) {
	r.mu.Lock()
	var expired []string
	for id, c := range r.byClientID {
		if !c.Connected && nowMs-c.disconnectedAt > r.graceMs {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		r.purgeLocked(id)
	}
	handlers := append([]ExpiredHandler(nil), r.onExpired...)
	r.mu.Unlock()

	for _, id := range expired {
		logger.ConnInfow("connection expired", "clientId", id)
		for _, h := range handlers {
			h(id)
		}
	}
}

func (r *Registry) purgeLocked(clientID string) {
	delete(r.byClientID, clientID)
}

// ConnectedClientIds returns every currently connected client id, in no
// particular order. Used by host accessors (getAllClientIds) and by
// dispatch target resolution.
func (r *Registry) ConnectedClientIds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.byClientID))
	for id, c := range r.byClientID {
		if c.Connected && c.Role == RoleClient {
			out = append(out, id)
		}
	}
	return out
}

// Resolve returns the connection for a client id, ok=false if unknown or
// disconnected (selectors resolve only connected entries, §4.9).
func (r *Registry) Resolve(clientID string) (Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byClientID[clientID]
	if !ok || !c.Connected {
		return Connection{}, false
	}
	return *c, true
}

// Count returns the number of tracked entries (connected or in grace).
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byClientID)
}
