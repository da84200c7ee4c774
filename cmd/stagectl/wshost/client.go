package wshost

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/signalstage/core/dispatch"
	"github.com/signalstage/core/logger"
)

// WebSocket timeout constants, following the same Gorilla-recommended shape
// the teacher uses for its own graph-visualization socket.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 32
)

// client is one connected socket's bookkeeping, paired with its registry
// entry by clientID.
type client struct {
	hub      *Hub
	conn     *websocket.Conn
	clientID string
	socketID string
	send     chan dispatch.Frame
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNoStatusReceived) {
				logger.Warnw("websocket read error", "client_id", c.clientID, "error", err)
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			logger.Warnw("dropping malformed client message", "client_id", c.clientID, "error", err)
			continue
		}
		c.hub.handleMessage(c, msg)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			out := outboundMessage{
				Type:            "command",
				Command:         frame.Command,
				ServerTimestamp: frame.ServerTimestamp,
				ExecuteAt:       frame.ExecuteAt,
			}
			if err := c.conn.WriteJSON(out); err != nil {
				logger.Warnw("websocket write error", "client_id", c.clientID, "error", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) sendWelcome() {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteJSON(outboundMessage{Type: "welcome", ClientID: c.clientID})
}

// deliver queues a frame on the client's send channel, dropping it with a
// warning when the channel's buffer is full.
func (c *client) deliver(f dispatch.Frame) {
	select {
	case c.send <- f:
	default:
		logger.Warnw("dropping frame to slow client", "client_id", c.clientID)
	}
}
