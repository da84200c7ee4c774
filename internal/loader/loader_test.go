package loader

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalstage/core/node"
)

func sampleGraph() *node.GraphState {
	n := node.NewInstance("n1", "number", node.Position{X: 1, Y: 2})
	n.Config["value"] = node.Number(5)
	return &node.GraphState{Nodes: []*node.Instance{n}, Connections: []node.Connection{}}
}

func TestEncodeDecodeJSONRoundTrip(t *testing.T) {
	g := sampleGraph()
	data, err := Encode(g, "json")
	require.NoError(t, err)

	out, err := Decode(data, "json")
	require.NoError(t, err)
	assert.Equal(t, "n1", out.Nodes[0].ID)
	assert.True(t, out.Nodes[0].Config["value"].Equal(node.Number(5)))
}

func TestEncodeDecodeYAMLRoundTrip(t *testing.T) {
	g := sampleGraph()
	data, err := Encode(g, "yaml")
	require.NoError(t, err)

	out, err := Decode(data, "yaml")
	require.NoError(t, err)
	assert.Equal(t, "n1", out.Nodes[0].ID)
	assert.Equal(t, float64(1), out.Nodes[0].Position.X)
}

func TestLoadInfersFormatFromExtension(t *testing.T) {
	g := sampleGraph()
	data, err := Encode(g, "yaml")
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "graph.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	out, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "n1", out.Nodes[0].ID)
}

func TestLoadFetchesRemoteJSON(t *testing.T) {
	g := sampleGraph()
	data, err := Encode(g, "json")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	out, err := Load(srv.URL+"/graph.json", "")
	require.NoError(t, err)
	assert.Equal(t, "n1", out.Nodes[0].ID)
}

func TestLoadRemoteNon200StatusIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := Load(srv.URL+"/missing.json", "json")
	assert.Error(t, err)
}

func TestWatcherDebouncesAndReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")
	data, err := Encode(sampleGraph(), "json")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	reloaded := make(chan *node.GraphState, 1)
	w, err := NewWatcher(path, "json", func(g *node.GraphState) error {
		reloaded <- g
		return nil
	})
	require.NoError(t, err)
	defer w.Stop()

	updated := sampleGraph()
	updated.Nodes[0].Config["value"] = node.Number(42)
	updatedData, err := Encode(updated, "json")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, updatedData, 0o644))

	select {
	case g := <-reloaded:
		assert.True(t, g.Nodes[0].Config["value"].Equal(node.Number(42)))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reload callback")
	}
}
