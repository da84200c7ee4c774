package nodes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalstage/core/node"
	"github.com/signalstage/core/runtime"
)

func newTestContext(nodeID string, timeMs, deltaMs int64) node.ProcessContext {
	return node.ProcessContext{NodeID: nodeID, Time: timeMs, DeltaTime: deltaMs, State: map[string]node.Value{}}
}

func TestRegisterAllHasNoDuplicateTypes(t *testing.T) {
	reg := node.NewRegistry()
	err := RegisterAll(reg, runtime.NopHost{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(reg.List()), 40)
}

func TestHybridValuePrefersConnectedInput(t *testing.T) {
	def := valueDefs()[0] // number
	out := def.Process(node.Inputs{"value": node.Number(7)}, node.Config{"value": node.Number(1)}, newTestContext("n1", 0, 0))
	assert.Equal(t, float64(7), out["value"].AsNumber())

	out = def.Process(node.Inputs{}, node.Config{"value": node.Number(9)}, newTestContext("n1", 0, 0))
	assert.Equal(t, float64(9), out["value"].AsNumber())
}

func TestGateTruthTables(t *testing.T) {
	cases := []struct {
		typ      string
		a, b     bool
		expected bool
	}{
		{"and", true, true, true},
		{"and", true, false, false},
		{"or", false, true, true},
		{"xor", true, true, false},
		{"nand", true, true, false},
		{"nor", false, false, true},
	}
	all := logicDefs()
	byType := map[string]*node.Definition{}
	for _, d := range all {
		byType[d.Type] = d
	}
	for _, c := range cases {
		def := byType[c.typ]
		require.NotNil(t, def, c.typ)
		out := def.Process(node.Inputs{"a": node.Bool(c.a), "b": node.Bool(c.b)}, node.Config{}, newTestContext("n", 0, 0))
		assert.Equal(t, c.expected, out["out"].AsBool(), c.typ)
	}
}

func TestIfRoutesToMatchingBranch(t *testing.T) {
	def := ifDef()
	out := def.Process(node.Inputs{"condition": node.Bool(true), "value": node.Number(5)}, node.Config{}, newTestContext("n", 0, 0))
	assert.Equal(t, float64(5), out["then"].AsNumber())
	assert.True(t, out["else"].IsNull())
}

func TestMathOps(t *testing.T) {
	def := mathDef()
	out := def.Process(node.Inputs{"a": node.Number(10), "b": node.Number(3)}, node.Config{"op": node.String("mod")}, newTestContext("n", 0, 0))
	assert.Equal(t, float64(1), out["result"].AsNumber())
}

func TestArrayFilterSubtractsSet(t *testing.T) {
	def := arrayFilterDef()
	a := node.Array([]node.Value{node.Number(1), node.Number(2), node.Number(3)})
	b := node.Array([]node.Value{node.Number(2)})
	out := def.Process(node.Inputs{"a": a, "b": b}, node.Config{}, newTestContext("n", 0, 0))
	assert.Len(t, out["out"].AsArray(), 2)
}

func TestForEmitsIndexOnRisingEdgeAndStopsOnHeldFalse(t *testing.T) {
	def := forDef()
	cfg := node.Config{"from": node.Number(0), "to": node.Number(3), "waitMs": node.Number(10)}
	ctx := newTestContext("iter", 0, 0)

	out := def.Process(node.Inputs{"trigger": node.Bool(true)}, cfg, ctx)
	assert.Equal(t, float64(0), out["index"].AsNumber())
	assert.True(t, out["running"].AsBool())

	ctx.Time = 15
	out = def.Process(node.Inputs{"trigger": node.Bool(true)}, cfg, ctx)
	assert.Equal(t, float64(1), out["index"].AsNumber())

	out = def.Process(node.Inputs{"trigger": node.Bool(false)}, cfg, ctx)
	assert.False(t, out["running"].AsBool())
}

func TestSleepReleasesAfterDelay(t *testing.T) {
	def := sleepDef()
	cfg := node.Config{"delayMs": node.Number(100)}
	ctx := newTestContext("s", 0, 0)

	out := def.Process(node.Inputs{"value": node.Number(42)}, cfg, ctx)
	assert.True(t, out["value"].IsNull())

	ctx.Time = 150
	out = def.Process(node.Inputs{"value": node.Null}, cfg, ctx)
	assert.Equal(t, float64(42), out["value"].AsNumber())
}

func TestNumberStabilizerConvergesTowardTarget(t *testing.T) {
	def := numberStabilizerDef()
	cfg := node.Config{"smoothing": node.Number(100)}
	ctx := newTestContext("stab", 0, 0)

	def.Process(node.Inputs{"target": node.Number(0)}, cfg, ctx)
	ctx.DeltaTime = 50
	out := def.Process(node.Inputs{"target": node.Number(100)}, cfg, ctx)
	v := out["value"].AsNumber()
	assert.Greater(t, v, 0.0)
	assert.Less(t, v, 100.0)
}

func TestLFOSineStaysWithinAmplitudeBounds(t *testing.T) {
	def := lfoDef()
	cfg := node.Config{"shape": node.String("sine"), "frequencyHz": node.Number(1), "amplitude": node.Number(2), "offset": node.Number(1)}
	ctx := newTestContext("lfo", 0, 0)
	for i := 0; i < 20; i++ {
		ctx.DeltaTime = 37
		out := def.Process(node.Inputs{}, cfg, ctx)
		v := out["value"].AsNumber()
		assert.GreaterOrEqual(t, v, 1.0)
		assert.LessOrEqual(t, v, 3.0)
	}
}

func TestMidiMapLinearRemap(t *testing.T) {
	def := midiMapDef()
	cfg := node.Config{"min": node.Number(0), "max": node.Number(100), "invert": node.Bool(false), "round": node.Bool(false)}
	out := def.Process(node.Inputs{"value": node.Fuzzy(0.5)}, cfg, newTestContext("m", 0, 0))
	assert.Equal(t, float64(50), out["value"].AsNumber())
}

func TestMidiSelectMapBucketsAcrossOptions(t *testing.T) {
	def := midiSelectMapDef()
	cfg := node.Config{"options": node.Array([]node.Value{node.String("a"), node.String("b"), node.String("c")})}
	out := def.Process(node.Inputs{"value": node.Fuzzy(0.99)}, cfg, newTestContext("m", 0, 0))
	assert.Equal(t, "c", out["selected"].AsString())
}

type fakeHost struct {
	runtime.NopHost
	clients  []string
	sensors  map[string]node.Value
	executed []string
}

func (f *fakeHost) GetAllClientIds() []string { return f.clients }
func (f *fakeHost) GetSensorForClientID(id string) node.Value {
	return f.sensors[id]
}
func (f *fakeHost) ExecuteCommandForClientID(id string, cmd node.Value) {
	f.executed = append(f.executed, id)
}

func TestClientObjectSelectsAndFansSinkCommand(t *testing.T) {
	host := &fakeHost{clients: []string{"B", "A", "C"}}
	def := clientObjectDef(host)
	ctx := newTestContext("co1", 0, 0)

	out := def.Process(node.Inputs{"index": node.Number(1), "range": node.Number(1)}, node.Config{}, ctx)
	assert.Len(t, out["indexs"].AsArray(), 1)

	def.OnSink(node.Inputs{"in": node.Command(map[string]interface{}{"action": "test"})}, node.Config{}, ctx)
	assert.Len(t, host.executed, 1)
}

func TestClientObjectOnDisableSendsCleanupBundle(t *testing.T) {
	host := &fakeHost{clients: []string{"A"}}
	def := clientObjectDef(host)
	ctx := newTestContext("co2", 0, 0)
	def.Process(node.Inputs{"index": node.Number(1), "range": node.Number(1)}, node.Config{}, ctx)

	def.OnDisable(node.Inputs{}, node.Config{}, ctx)
	assert.Len(t, host.executed, len(clientObjectCleanupBundle()))
}

func TestCmdAggregatorFlattensUpToEight(t *testing.T) {
	def := cmdAggregatorDef()
	inputs := node.Inputs{"in1": node.Command(map[string]interface{}{"action": "a"}), "in3": node.Command(map[string]interface{}{"action": "b"})}
	out := def.Process(inputs, node.Config{}, newTestContext("agg", 0, 0))
	assert.Len(t, out["commands"].AsArray(), 2)
}

func TestProcFlashlightSendsOneShotOffOnDeactivate(t *testing.T) {
	def := procFlashlightDef()
	cfg := node.Config{"active": node.Bool(true), "mode": node.String("on"), "frequency": node.Number(1), "dutyCycle": node.Number(0.5)}
	ctx := newTestContext("fl", 0, 0)

	out := def.Process(node.Inputs{}, cfg, ctx)
	assert.False(t, out["command"].IsNull())

	cfg["active"] = node.Bool(false)
	out = def.Process(node.Inputs{}, cfg, ctx)
	var m map[string]interface{}
	require.NoError(t, out["command"].As(&m))
	assert.Equal(t, "flashlight", m["action"])

	out = def.Process(node.Inputs{}, cfg, ctx)
	assert.True(t, out["command"].IsNull())
}

// TestProcFlashlightFrequencyHzInputOverridesConfig exercises the S1 wiring
// (spec.md §8: lfo{freq:2} -> proc-flashlight.frequencyHz): an upstream
// value on the frequencyHz input must drive the dispatched frequency,
// falling back to the frequency config field only when unconnected.
func TestProcFlashlightFrequencyHzInputOverridesConfig(t *testing.T) {
	def := procFlashlightDef()
	cfg := node.Config{"active": node.Bool(true), "mode": node.String("blink"), "frequency": node.Number(1), "dutyCycle": node.Number(0.5)}

	out := def.Process(node.Inputs{"frequencyHz": node.Number(2)}, cfg, newTestContext("fl", 0, 0))
	var m map[string]interface{}
	require.NoError(t, out["command"].As(&m))
	payload := m["payload"].(map[string]interface{})
	assert.InDelta(t, 2, payload["frequency"], 0.01)

	out = def.Process(node.Inputs{}, cfg, newTestContext("fl", 0, 0))
	require.NoError(t, out["command"].As(&m))
	payload = m["payload"].(map[string]interface{})
	assert.InDelta(t, 1, payload["frequency"], 0.01)
}

func TestProcShowImageEmitsOnlyOnChange(t *testing.T) {
	def := procShowImageDef()
	ctx := newTestContext("img", 0, 0)

	out := def.Process(node.Inputs{"url": node.Image("http://x/1.png")}, node.Config{}, ctx)
	assert.False(t, out["command"].IsNull())

	out = def.Process(node.Inputs{"url": node.Image("http://x/1.png")}, node.Config{}, ctx)
	assert.True(t, out["command"].IsNull())

	out = def.Process(node.Inputs{"url": node.Null}, node.Config{}, ctx)
	var m map[string]interface{}
	require.NoError(t, out["command"].As(&m))
	assert.Equal(t, "hideImage", m["action"])
}

func TestProcPushImageUploadRateLimitsAndIncrementsSeq(t *testing.T) {
	def := procPushImageUploadDef()
	cfg := node.Config{"speed": node.Number(1000)} // effectively unlimited for this test window
	ctx := newTestContext("push-test-node", 0, 0)

	out := def.Process(node.Inputs{"trigger": node.Bool(true)}, cfg, ctx)
	require.False(t, out["command"].IsNull())
	var m map[string]interface{}
	require.NoError(t, out["command"].As(&m))
	assert.Equal(t, float64(1), m["payload"].(map[string]interface{})["seq"])

	def.OnDisable(node.Inputs{}, cfg, ctx)
}

func TestScriptWasmWithoutModuleConfiguredIsANoop(t *testing.T) {
	def := scriptWasmDef()
	out := def.Process(node.Inputs{"in": node.Number(1)}, node.Config{"module": node.String("")}, newTestContext("script", 0, 0))
	assert.Empty(t, out)
}

func TestEffectChainAppendsDescriptor(t *testing.T) {
	def := effectDefs()[0]
	out := def.Process(node.Inputs{"in": node.Array(nil)}, node.Config{"charset": node.String(" .#"), "scale": node.Number(2)}, newTestContext("fx", 0, 0))
	assert.Len(t, out["out"].AsArray(), 1)
}
