package wshost

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/signalstage/core/connreg"
	"github.com/signalstage/core/dispatch"
	"github.com/signalstage/core/node"
)

func TestCheckOrigin_DefaultsToLocalhostOnly(t *testing.T) {
	h := NewHub(5000, 250, 2000, nil)

	localhost := &http.Request{Header: http.Header{"Origin": {"http://localhost:3000"}}}
	assert.True(t, h.checkOrigin(localhost))

	stranger := &http.Request{Header: http.Header{"Origin": {"http://evil.example.com"}}}
	assert.False(t, h.checkOrigin(stranger))

	noOrigin := &http.Request{Header: http.Header{}}
	assert.True(t, h.checkOrigin(noOrigin), "same-origin or non-browser clients send no Origin header")
}

func TestCheckOrigin_RespectsConfiguredAllowList(t *testing.T) {
	h := NewHub(5000, 250, 2000, []string{"https://stage.example.com"})

	allowed := &http.Request{Header: http.Header{"Origin": {"https://stage.example.com"}}}
	assert.True(t, h.checkOrigin(allowed))

	localhost := &http.Request{Header: http.Header{"Origin": {"http://localhost:3000"}}}
	assert.False(t, h.checkOrigin(localhost), "an explicit allow-list replaces the localhost default, it doesn't add to it")
}

func TestHub_SensorAndImageAccessorsDefaultToNull(t *testing.T) {
	h := NewHub(5000, 250, 2000, nil)

	assert.True(t, h.GetLatestSensor().IsNull())
	assert.True(t, h.GetSensorForClientID("unknown-client").IsNull())
	assert.True(t, h.GetImageForClientID("unknown-client").IsNull())
	assert.Empty(t, h.GetAllClientIds())
	assert.Equal(t, "", h.GetClientID())
}

func TestHub_SetSelectedClientIdsIsReadBackAsACopy(t *testing.T) {
	h := NewHub(5000, 250, 2000, nil)

	ids := []string{"alice", "bob"}
	h.SetSelectedClientIds(ids)
	got := h.GetSelectedClientIds()
	assert.Equal(t, ids, got)

	got[0] = "mutated"
	assert.Equal(t, "alice", h.GetSelectedClientIds()[0], "GetSelectedClientIds must not expose the hub's backing slice")
}

func TestHub_ExecuteCommandForClientIDObservedAndDelivered(t *testing.T) {
	h := NewHub(5000, 250, 2000, nil)

	clientID := h.registry.Register("socket-1", "", "device-1", "instance-1", connreg.RoleClient)
	c := &client{hub: h, clientID: clientID, send: make(chan dispatch.Frame, 1)}
	h.mu.Lock()
	h.clients[clientID] = c
	h.mu.Unlock()

	var observed []dispatch.Frame
	h.SetFrameObserver(func(f dispatch.Frame) { observed = append(observed, f) })

	cmd := node.Command(map[string]interface{}{"action": "flashlight"})
	h.ExecuteCommandForClientID(clientID, cmd)

	if assert.Len(t, observed, 1) {
		assert.Equal(t, clientID, observed[0].ClientID)
	}

	select {
	case frame := <-c.send:
		assert.Equal(t, clientID, frame.ClientID)
	default:
		t.Fatal("expected a frame to be delivered to the client's send channel")
	}
}

// TestHub_ExecuteCommandForUnresolvedClientNeverSends confirms the
// dispatcher's "SelectorMiss" behavior (§7): an id with no live registry
// entry never reaches send, so the observer never fires for it either.
func TestHub_ExecuteCommandForUnresolvedClientNeverSends(t *testing.T) {
	h := NewHub(5000, 250, 2000, nil)

	var observed int
	h.SetFrameObserver(func(f dispatch.Frame) { observed++ })

	h.ExecuteCommandForClientID("ghost", node.Command(map[string]interface{}{"action": "noop"}))
	assert.Equal(t, 0, observed)
}
