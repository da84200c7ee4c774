// Package wshost wires the runtime's abstract Host interface, the connection
// registry, and the command dispatcher to a concrete gorilla/websocket
// transport. It is the one place in stagectl that imports gorilla/websocket
// directly; no core package does.
package wshost

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/signalstage/core/connreg"
	"github.com/signalstage/core/dispatch"
	"github.com/signalstage/core/logger"
	"github.com/signalstage/core/node"
)

// Hub owns every connected socket, the connection registry entry it maps to,
// and the per-client sensor/image state that the runtime's Host callbacks
// read synchronously at tick start (spec.md §5 "host accessor callbacks").
type Hub struct {
	registry   *connreg.Registry
	dispatcher *dispatch.Dispatcher

	allowedOrigins []string

	mu             sync.RWMutex
	clients        map[string]*client // by clientID
	sensorByClient map[string]node.Value
	imageByClient  map[string]node.Value
	latestSensor   node.Value
	activeClientID string // most recently seen performer client, for getClientId()
	selected       []string

	onFrame func(dispatch.Frame)
	clock   func() int64
}

// NewHub builds a Hub bound to a fresh connection registry and dispatcher,
// both owned by the Hub so ExpireAt and grace-period bookkeeping happen in
// one place.
func NewHub(graceMs int64, maxClockSkewMs, travelBudgetMs int64, allowedOrigins []string) *Hub {
	h := &Hub{
		registry:       connreg.New(connreg.WithGraceMs(graceMs)),
		allowedOrigins: allowedOrigins,
		clients:        map[string]*client{},
		sensorByClient: map[string]node.Value{},
		imageByClient:  map[string]node.Value{},
		latestSensor:   node.Null,
		clock:          func() int64 { return time.Now().UnixMilli() },
	}
	h.dispatcher = dispatch.New(h.registry, h.send,
		dispatch.WithMaxClockSkewMs(maxClockSkewMs),
		dispatch.WithTravelBudgetMs(travelBudgetMs))
	h.registry.OnExpired(func(clientID string) {
		logger.Infow("client grace period expired", "client_id", clientID)
	})
	return h
}

// Dispatcher exposes the wired dispatcher for callers that need direct
// access to target resolution (e.g. group membership wiring).
func (h *Hub) Dispatcher() *dispatch.Dispatcher { return h.dispatcher }

// SetFrameObserver installs a callback invoked with every frame the
// dispatcher resolves, before delivery — e.g. an audit trail recorder. It is
// not a Sender itself: delivery to the client socket always happens via send.
func (h *Hub) SetFrameObserver(fn func(dispatch.Frame)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onFrame = fn
}

// ExpireGraceWindow purges any disconnected registry entries past their
// grace period; call this periodically (serve does so once a second).
func (h *Hub) ExpireGraceWindow() { h.registry.ExpireAt(h.clock()) }

// ConnectedCount reports how many clients are currently live, for the
// dashboard.
func (h *Hub) ConnectedCount() int { return len(h.registry.ConnectedClientIds()) }

// ServeWS upgrades one HTTP connection into a tracked client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  2048,
		WriteBufferSize: 2048,
		CheckOrigin:     h.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnw("websocket upgrade failed", "error", err)
		return
	}

	q := r.URL.Query()
	role := connreg.RoleClient
	if q.Get("role") == "manager" {
		role = connreg.RoleManager
	}
	socketID := conn.RemoteAddr().String() + "-" + q.Get("instanceId")
	clientID := h.registry.Register(socketID, q.Get("clientId"), q.Get("deviceId"), q.Get("instanceId"), role)

	c := &client{hub: h, conn: conn, clientID: clientID, socketID: socketID, send: make(chan dispatch.Frame, sendBuffer)}

	h.mu.Lock()
	h.clients[clientID] = c
	if role == connreg.RoleClient {
		h.activeClientID = clientID
	}
	h.mu.Unlock()

	c.sendWelcome()
	logger.Infow("client connected", "client_id", clientID, "role", role)

	go c.writePump()
	c.readPump()
}

func (h *Hub) unregister(c *client) {
	h.registry.Disconnect(c.socketID, h.clock())
	h.mu.Lock()
	delete(h.clients, c.clientID)
	close(c.send)
	h.mu.Unlock()
	logger.Infow("client disconnected", "client_id", c.clientID)
}

func (h *Hub) handleMessage(c *client, msg inboundMessage) {
	switch msg.Type {
	case "sensor":
		h.mu.Lock()
		h.sensorByClient[c.clientID] = msg.Value
		h.latestSensor = msg.Value
		h.mu.Unlock()
	case "image":
		h.mu.Lock()
		h.imageByClient[c.clientID] = msg.Value
		h.mu.Unlock()
	case "ping":
		// read-deadline refresh only; pong handler covers the control frame.
	default:
		logger.Debugw("unknown client message type", "type", msg.Type, "client_id", c.clientID)
	}
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(h.allowedOrigins) == 0 {
		return strings.HasPrefix(origin, "http://localhost") || strings.HasPrefix(origin, "https://localhost")
	}
	for _, allowed := range h.allowedOrigins {
		if strings.HasPrefix(origin, allowed) {
			return true
		}
	}
	return false
}

// send is the dispatch.Sender wired into the Dispatcher; it routes a frame
// to the one client socket that owns its ClientID, if still connected.
func (h *Hub) send(f dispatch.Frame) {
	h.mu.RLock()
	c, ok := h.clients[f.ClientID]
	observer := h.onFrame
	h.mu.RUnlock()

	if observer != nil {
		observer(f)
	}
	if !ok {
		return
	}
	c.deliver(f)
}

// SetSelectedClientIds records which client ids a router/selection node
// chose this tick, backing getSelectedClientIds() for nodes downstream.
func (h *Hub) SetSelectedClientIds(ids []string) {
	h.mu.Lock()
	h.selected = ids
	h.mu.Unlock()
}

// --- runtime.Host ---

func (h *Hub) GetAllClientIds() []string {
	return h.registry.ConnectedClientIds()
}

func (h *Hub) GetSelectedClientIds() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, len(h.selected))
	copy(out, h.selected)
	return out
}

func (h *Hub) GetClientID() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.activeClientID
}

func (h *Hub) GetLatestSensor() node.Value {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latestSensor
}

func (h *Hub) GetSensorForClientID(id string) node.Value {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if v, ok := h.sensorByClient[id]; ok {
		return v
	}
	return node.Null
}

func (h *Hub) GetImageForClientID(id string) node.Value {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if v, ok := h.imageByClient[id]; ok {
		return v
	}
	return node.Null
}

func (h *Hub) ExecuteCommand(cmd node.Value) {
	h.dispatcher.ExecuteCommand(dispatch.Target{Kind: dispatch.TargetAll}, cmd, 0, h.clock())
}

func (h *Hub) ExecuteCommandForClientID(id string, cmd node.Value) {
	h.dispatcher.ExecuteCommandForClientID(id, cmd, 0, h.clock())
}
