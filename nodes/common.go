// Package nodes is the built-in node kind catalog (§4.6): 40 definitions
// grouped by category, registered into a node.Registry via RegisterAll. Each
// file in this package groups one category, following the same Process/
// OnSink/OnDisable contract shape as package node's Definition.
package nodes

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/signalstage/core/node"
	"github.com/signalstage/core/runtime"
)

// RegisterAll installs every built-in node kind into reg. host is threaded
// into the selection/object and processor kinds that need client/sensor
// access or command dispatch; it may be runtime.NopHost{} for graphs that
// never reach one of those kinds.
func RegisterAll(reg *node.Registry, host runtime.Host) error {
	defs := make([]*node.Definition, 0, 64)
	defs = append(defs, valueDefs()...)
	defs = append(defs, displayDefs()...)
	defs = append(defs, logicDefs()...)
	defs = append(defs, controlFlowDefs()...)
	defs = append(defs, generatorDefs()...)
	defs = append(defs, midiDefs()...)
	defs = append(defs, selectionDefs(host)...)
	defs = append(defs, processorDefs(host)...)
	defs = append(defs, effectDefs()...)
	defs = append(defs, scriptDefs()...)

	for _, d := range defs {
		if err := reg.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// activeGate is the shared "active" input/config contract of the gated
// processor nodes (proc-flashlight, proc-screen-color): false sends a one-shot "off"
// payload rather than muting silently, so re-enabling produces a single
// resumption command. active reads the input if connected, else config.
func activeGate(inputs node.Inputs, cfg node.Config) bool {
	if v, ok := inputs["active"]; ok && !v.IsNull() {
		return v.AsBool()
	}
	return cfg["active"].AsBool()
}

// hybridValue implements the "Values" category contract (§4.6): take input
// if connected, else config; output the same.
func hybridValue(inputs node.Inputs, cfg node.Config, key string) node.Value {
	if v, ok := inputs[key]; ok && !v.IsNull() {
		return v
	}
	return cfg[key]
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

// lerpColor interpolates two "#rrggbb" hex colors channel-wise.
func lerpColor(a, b string, t float64) string {
	ar, ag, ab := hexToRGB(a)
	br, bg, bb := hexToRGB(b)
	r := int(math.Round(lerp(float64(ar), float64(br), t)))
	g := int(math.Round(lerp(float64(ag), float64(bg), t)))
	bl := int(math.Round(lerp(float64(ab), float64(bb), t)))
	return rgbToHex(r, g, bl)
}

func hexToRGB(hex string) (r, g, b int) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 0, 0, 0
	}
	rv, _ := strconv.ParseInt(hex[0:2], 16, 32)
	gv, _ := strconv.ParseInt(hex[2:4], 16, 32)
	bv, _ := strconv.ParseInt(hex[4:6], 16, 32)
	return int(rv), int(gv), int(bv)
}

func rgbToHex(r, g, b int) string {
	clampByte := func(v int) int {
		if v < 0 {
			return 0
		}
		if v > 255 {
			return 255
		}
		return v
	}
	return "#" + byteHex(clampByte(r)) + byteHex(clampByte(g)) + byteHex(clampByte(b))
}

func byteHex(v int) string {
	s := strconv.FormatInt(int64(v), 16)
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// commandValue builds the {action, payload} envelope every command-typed
// output/sink port carries (§4.6 processor contracts, §9 oscillation
// signature derivation assumes exactly this shape).
func commandValue(action string, payload map[string]interface{}) node.Value {
	return node.Command(map[string]interface{}{"action": action, "payload": payload})
}

// sortedStrings returns a sorted copy, used wherever a node kind must emit a
// deterministic client id ordering (§8 determinism invariant).
func sortedStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}
