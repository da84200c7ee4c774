package runtime

import (
	"testing"

	"github.com/signalstage/core/node"
	"github.com/signalstage/core/override"
)

func numberDef() *node.Definition {
	return &node.Definition{
		Type:    "number",
		Inputs:  []node.Port{node.DataPort("in", "In", node.TypeNumber, node.Null)},
		Outputs: []node.Port{node.DataPort("value", "Value", node.TypeNumber, node.Null)},
		Config:  []node.ConfigField{{Key: "value", Type: node.TypeNumber, Default: node.Number(0)}},
		Process: func(in node.Inputs, cfg node.Config, ctx node.ProcessContext) node.Outputs {
			if !in["in"].IsNull() {
				return node.Outputs{"value": in["in"]}
			}
			return node.Outputs{"value": cfg["value"]}
		},
	}
}

func mathAddDef() *node.Definition {
	return &node.Definition{
		Type: "math",
		Inputs: []node.Port{
			node.DataPort("a", "A", node.TypeNumber, node.Number(0)),
			node.DataPort("b", "B", node.TypeNumber, node.Number(0)),
		},
		Outputs: []node.Port{node.DataPort("result", "Result", node.TypeNumber, node.Null)},
		Process: func(in node.Inputs, cfg node.Config, ctx node.ProcessContext) node.Outputs {
			return node.Outputs{"result": node.Number(in["a"].AsNumber() + in["b"].AsNumber())}
		},
	}
}

func newTestRuntime(t *testing.T, opts Options) (*Runtime, *node.Registry) {
	t.Helper()
	reg := node.NewRegistry()
	if err := reg.Register(numberDef()); err != nil {
		t.Fatalf("register number: %v", err)
	}
	if err := reg.Register(mathAddDef()); err != nil {
		t.Fatalf("register math: %v", err)
	}
	return New(reg, NopHost{}, opts), reg
}

func TestOverridePrecedenceTTL(t *testing.T) {
	rt, _ := newTestRuntime(t, Options{TickIntervalMs: 33})

	n1 := node.NewInstance("n1", "number", node.Position{})
	n1.Config["value"] = node.Number(5)
	n2 := node.NewInstance("n2", "number", node.Position{})
	n2.Config["value"] = node.Number(3)
	m := node.NewInstance("m", "math", node.Position{})

	state := &node.GraphState{
		Nodes: []*node.Instance{n1, n2, m},
		Connections: []node.Connection{
			{SourceNodeID: "n1", SourcePortID: "value", TargetNodeID: "m", TargetPortID: "a"},
			{SourceNodeID: "n2", SourcePortID: "value", TargetNodeID: "m", TargetPortID: "b"},
		},
	}
	if err := rt.LoadGraph(state); err != nil {
		t.Fatalf("LoadGraph: %v", err)
	}

	rt.ApplyOverride("m", override.KindInput, "a", node.Number(100), 50)

	rt.runTick(33)
	if got := rt.state.Nodes[2].OutputValues["result"].AsNumber(); got != 103 {
		t.Fatalf("tick1 result = %v, want 103", got)
	}

	rt.runTick(33)
	if got := rt.state.Nodes[2].OutputValues["result"].AsNumber(); got != 103 {
		t.Fatalf("tick2 result = %v, want 103 (ttl not yet elapsed)", got)
	}

	rt.runTick(33)
	if got := rt.state.Nodes[2].OutputValues["result"].AsNumber(); got != 8 {
		t.Fatalf("tick3 result = %v, want 8 (ttl elapsed)", got)
	}
}

func TestDeterminismAcrossIdenticalTicks(t *testing.T) {
	rt, _ := newTestRuntime(t, Options{TickIntervalMs: 33})
	n1 := node.NewInstance("n1", "number", node.Position{})
	n1.Config["value"] = node.Number(7)
	state := &node.GraphState{Nodes: []*node.Instance{n1}}
	if err := rt.LoadGraph(state); err != nil {
		t.Fatalf("LoadGraph: %v", err)
	}

	rt.runTick(33)
	first := rt.state.Nodes[0].OutputValues["value"]
	rt.runTick(33)
	second := rt.state.Nodes[0].OutputValues["value"]

	if !first.Equal(second) {
		t.Fatalf("expected deep-equal outputs across identical ticks: %v vs %v", first, second)
	}
}

func flashlightFlipDef(mode *string) *node.Definition {
	return &node.Definition{
		Type:    "flasher",
		Outputs: []node.Port{node.DataPort("cmd", "Cmd", node.TypeCommand, node.Null)},
		Process: func(in node.Inputs, cfg node.Config, ctx node.ProcessContext) node.Outputs {
			if *mode == "on" {
				*mode = "off"
			} else {
				*mode = "on"
			}
			return node.Outputs{"cmd": node.Command(map[string]interface{}{
				"action":  "flashlight",
				"payload": map[string]interface{}{"mode": *mode},
			})}
		},
	}
}

func sinkCollectorDef(calls *int) *node.Definition {
	return &node.Definition{
		Type:   "collector",
		Inputs: []node.Port{node.SinkPort("in", "In", node.TypeCommand)},
		OnSink: func(in node.Inputs, cfg node.Config, ctx node.ProcessContext) {
			*calls++
		},
	}
}

func TestOscillationReportedButNonFatal(t *testing.T) {
	var watchdogs []WatchdogInfo
	reg := node.NewRegistry()
	mode := "off"
	_ = reg.Register(flashlightFlipDef(&mode))
	var sinkCalls int
	_ = reg.Register(sinkCollectorDef(&sinkCalls))

	rt := New(reg, NopHost{}, Options{
		TickIntervalMs: 33,
		OnWatchdog:     func(info WatchdogInfo) { watchdogs = append(watchdogs, info) },
	})

	src := node.NewInstance("src", "flasher", node.Position{})
	dst := node.NewInstance("dst", "collector", node.Position{})
	state := &node.GraphState{
		Nodes: []*node.Instance{src, dst},
		Connections: []node.Connection{
			{SourceNodeID: "src", SourcePortID: "cmd", TargetNodeID: "dst", TargetPortID: "in"},
		},
	}
	if err := rt.LoadGraph(state); err != nil {
		t.Fatalf("LoadGraph: %v", err)
	}

	for i := 0; i < 10; i++ {
		rt.runTick(33)
	}

	if rt.halted {
		t.Fatal("oscillation must not halt the runtime")
	}
	if sinkCalls == 0 {
		t.Fatal("expected onSink to keep firing through oscillation")
	}

	sawOscillation := false
	for _, w := range watchdogs {
		if w.Reason == ReasonSinkBurst || w.Reason == ReasonCompileError {
			t.Fatalf("unexpected fatal watchdog reason during oscillation-only scenario: %v", w.Reason)
		}
		if w.Reason == ReasonOscillation {
			sawOscillation = true
		}
	}
	if !sawOscillation {
		t.Fatal("expected at least one oscillation watchdog within 10 ticks")
	}
}

func burstSourceDef(n int) *node.Definition {
	return &node.Definition{
		Type:    "burst-source",
		Outputs: []node.Port{node.DataPort("out", "Out", node.TypeArray, node.Null)},
		Process: func(in node.Inputs, cfg node.Config, ctx node.ProcessContext) node.Outputs {
			vals := make([]node.Value, n)
			for i := range vals {
				vals[i] = node.Command(map[string]interface{}{"action": "x", "payload": map[string]interface{}{"i": i}})
			}
			return node.Outputs{"out": node.Array(vals)}
		},
	}
}

func TestSinkBurstHaltsRuntime(t *testing.T) {
	reg := node.NewRegistry()
	_ = reg.Register(burstSourceDef(40))
	var sinkCalls int
	_ = reg.Register(&node.Definition{
		Type:   "aggregator",
		Inputs: []node.Port{node.SinkPort("in", "In", node.TypeCommand)},
		OnSink: func(in node.Inputs, cfg node.Config, ctx node.ProcessContext) {
			sinkCalls++
		},
	})

	var watchdogs []WatchdogInfo
	rt := New(reg, NopHost{}, Options{
		TickIntervalMs:       33,
		MaxSinkValuesPerTick: 10,
		OnWatchdog:           func(info WatchdogInfo) { watchdogs = append(watchdogs, info) },
	})

	src := node.NewInstance("src", "burst-source", node.Position{})
	dst := node.NewInstance("dst", "aggregator", node.Position{})
	state := &node.GraphState{
		Nodes: []*node.Instance{src, dst},
		Connections: []node.Connection{
			{SourceNodeID: "src", SourcePortID: "out", TargetNodeID: "dst", TargetPortID: "in"},
		},
	}
	if err := rt.LoadGraph(state); err != nil {
		t.Fatalf("LoadGraph: %v", err)
	}

	rt.runTick(33)
	if !rt.halted {
		t.Fatal("expected runtime to halt on sink burst")
	}
	foundBurst := false
	for _, w := range watchdogs {
		if w.Reason == ReasonSinkBurst {
			foundBurst = true
		}
	}
	if !foundBurst {
		t.Fatal("expected a sink-burst watchdog envelope")
	}

	clockBefore := rt.clockMs
	rt.runTick(33)
	if rt.clockMs != clockBefore {
		t.Fatal("expected halted runtime to ignore subsequent ticks")
	}
}

func TestLoadGraphRejectsUnknownType(t *testing.T) {
	rt, _ := newTestRuntime(t, Options{})
	state := &node.GraphState{Nodes: []*node.Instance{node.NewInstance("x", "does-not-exist", node.Position{})}}
	if err := rt.LoadGraph(state); err == nil {
		t.Fatal("expected error for unknown node type")
	}
}

func TestLoadGraphRejectsDuplicateDataInputConnection(t *testing.T) {
	rt, _ := newTestRuntime(t, Options{})
	n1 := node.NewInstance("n1", "number", node.Position{})
	n2 := node.NewInstance("n2", "number", node.Position{})
	m := node.NewInstance("m", "math", node.Position{})
	state := &node.GraphState{
		Nodes: []*node.Instance{n1, n2, m},
		Connections: []node.Connection{
			{SourceNodeID: "n1", SourcePortID: "value", TargetNodeID: "m", TargetPortID: "a"},
			{SourceNodeID: "n2", SourcePortID: "value", TargetNodeID: "m", TargetPortID: "a"},
		},
	}
	if err := rt.LoadGraph(state); err == nil {
		t.Fatal("expected error for duplicate data-input connection")
	}
}

func TestExportGraphRoundTripsStructurally(t *testing.T) {
	rt, _ := newTestRuntime(t, Options{})
	n1 := node.NewInstance("n1", "number", node.Position{})
	n1.Config["value"] = node.Number(9)
	state := &node.GraphState{Nodes: []*node.Instance{n1}}
	if err := rt.LoadGraph(state); err != nil {
		t.Fatalf("LoadGraph: %v", err)
	}
	exported := rt.ExportGraph()
	if len(exported.Nodes) != 1 || exported.Nodes[0].ID != "n1" {
		t.Fatalf("unexpected export: %+v", exported)
	}
	if !exported.Nodes[0].Config["value"].Equal(node.Number(9)) {
		t.Fatal("expected config to round-trip")
	}
}
