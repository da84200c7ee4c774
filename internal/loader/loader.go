// Package loader loads GraphState snapshots for host embedders (§6
// "Persisted state layout"), from a local file, a plain HTTP(S) URL, or a
// byte slice already in hand, in either the canonical JSON shape or YAML.
// The runtime itself never imports this package — persistence is a host
// concern (§1 Non-goals: "the runtime does not persist graph state").
package loader

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/signalstage/core/errors"
	"github.com/signalstage/core/node"
)

const defaultFetchTimeout = 10 * time.Second

// Load resolves path as either a local filesystem path or an http(s) URL,
// reads it, and decodes a GraphState in the format named by format ("json"
// or "yaml"); an empty format is inferred from path's extension.
func Load(path, format string) (*node.GraphState, error) {
	data, err := read(path)
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = inferFormat(path)
	}
	return Decode(data, format)
}

func read(path string) ([]byte, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return fetchRemote(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read graph snapshot %s", path)
	}
	return data, nil
}

// fetchRemote performs a single unauthenticated GET, bounded by
// defaultFetchTimeout. This is the stdlib net/http replacement for the
// teacher's hashicorp/go-getter dependency (see DESIGN.md "Dropped teacher
// dependencies"): one plain byte-slice fetch doesn't earn go-getter's
// checksum/unpacking machinery.
func fetchRemote(url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build request for %s", url)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch graph snapshot from %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read response body from %s", url)
	}
	return data, nil
}

func inferFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// Decode parses data as either canonical JSON or YAML into a GraphState.
// YAML is bridged through JSON (decode generically, re-marshal, then decode
// with node.Value's json.Unmarshaler) rather than hand-writing a second
// codec for the tagged-union Value type.
func Decode(data []byte, format string) (*node.GraphState, error) {
	switch format {
	case "yaml":
		var generic interface{}
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return nil, errors.Wrap(err, "failed to parse graph snapshot as YAML")
		}
		jsonBytes, err := json.Marshal(generic)
		if err != nil {
			return nil, errors.Wrap(err, "failed to bridge YAML graph snapshot to JSON")
		}
		data = jsonBytes
		fallthrough
	case "json", "":
		var state node.GraphState
		if err := json.Unmarshal(data, &state); err != nil {
			return nil, errors.Wrap(err, "failed to parse graph snapshot as JSON")
		}
		return &state, nil
	default:
		return nil, errors.Newf("unsupported graph snapshot format %q", format)
	}
}

// Encode is the write-side counterpart of Decode: it renders a graph state
// in either format. Nothing in cmd/stagectl calls it.
func Encode(state *node.GraphState, format string) ([]byte, error) {
	switch format {
	case "yaml":
		jsonBytes, err := json.Marshal(state)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal graph state to JSON")
		}
		var generic interface{}
		if err := json.Unmarshal(jsonBytes, &generic); err != nil {
			return nil, err
		}
		return yaml.Marshal(generic)
	case "json", "":
		return json.MarshalIndent(state, "", "  ")
	default:
		return nil, errors.Newf("unsupported graph snapshot format %q", format)
	}
}
