package nodes

import (
	"github.com/signalstage/core/clientsel"
	"github.com/signalstage/core/node"
	"github.com/signalstage/core/runtime"
)

// selectionDefs implements the "Selection / Objects" category (§4.6):
// client-count, client-object, cmd-aggregator, proc-client-sensors. These
// are the only catalog kinds that reach the host boundary (§6), closing over
// it rather than threading it through ProcessContext.
func selectionDefs(host runtime.Host) []*node.Definition {
	return []*node.Definition{
		clientCountDef(host),
		clientObjectDef(host),
		cmdAggregatorDef(),
		procClientSensorsDef(host),
	}
}

func clientCountDef(host runtime.Host) *node.Definition {
	return &node.Definition{
		Type:     "client-count",
		Label:    "Client Count",
		Category: "selection",
		Outputs: []node.Port{
			node.DataPort("clients", "Clients", node.TypeArray, node.Array(nil)),
			node.DataPort("count", "Count", node.TypeNumber, node.Number(0)),
		},
		Process: func(inputs node.Inputs, cfg node.Config, ctx node.ProcessContext) node.Outputs {
			ids := sortedStrings(host.GetAllClientIds())
			vals := make([]node.Value, len(ids))
			for i, id := range ids {
				vals[i] = node.String(id)
			}
			return node.Outputs{"clients": node.Array(vals), "count": node.Number(float64(len(ids)))}
		},
	}
}

// clientObjectDef is the primary router of the catalog (§4.6): it resolves a
// subset of connected clients via clientsel.SelectClientIdsForNode (or an
// explicit loadIndexs override), exposes the first selection's sensor
// snapshot and the full id list, fans sink commands out to every selected
// client, and on disable sends a fixed cleanup bundle to whichever clients
// were last selected.
func clientObjectDef(host runtime.Host) *node.Definition {
	return &node.Definition{
		Type:     "client-object",
		Label:    "Client Object",
		Category: "selection",
		Inputs: []node.Port{
			node.DataPort("loadIndexs", "Load Indexes", node.TypeArray, node.Array(nil)),
			node.DataPort("index", "Index", node.TypeNumber, node.Number(1)),
			node.DataPort("range", "Range", node.TypeNumber, node.Number(1)),
			node.DataPort("random", "Random", node.TypeBoolean, node.Bool(false)),
			node.SinkPort("in", "In", node.TypeCommand),
		},
		Outputs: []node.Port{
			node.DataPort("out", "Out", node.TypeClient, node.Null),
			node.DataPort("indexs", "Indexes", node.TypeArray, node.Array(nil)),
		},
		Process: func(inputs node.Inputs, cfg node.Config, ctx node.ProcessContext) node.Outputs {
			ids := sortedStrings(host.GetAllClientIds())
			selected := resolveClientObjectSelection(ctx.NodeID, ids, inputs)
			ctx.State["selected"] = stringsToValue(selected)

			idxVals := make([]node.Value, len(selected))
			for i, id := range selected {
				idxVals[i] = node.String(id)
			}

			var first node.Value = node.Null
			if len(selected) > 0 {
				first = host.GetSensorForClientID(selected[0])
			}
			return node.Outputs{"out": first, "indexs": node.Array(idxVals)}
		},
		OnSink: func(inputs node.Inputs, cfg node.Config, ctx node.ProcessContext) {
			cmd, ok := inputs["in"]
			if !ok || cmd.IsNull() {
				return
			}
			for _, id := range valueToStrings(ctx.State["selected"]) {
				host.ExecuteCommandForClientID(id, cmd)
			}
		},
		OnDisable: func(inputs node.Inputs, cfg node.Config, ctx node.ProcessContext) {
			for _, id := range valueToStrings(ctx.State["selected"]) {
				for _, cmd := range clientObjectCleanupBundle() {
					host.ExecuteCommandForClientID(id, cmd)
				}
			}
		},
	}
}

func resolveClientObjectSelection(nodeID string, ids []string, inputs node.Inputs) []string {
	if load := inputs["loadIndexs"]; !load.IsNull() {
		if arr := load.AsArray(); len(arr) > 0 {
			var out []string
			for _, v := range arr {
				idx := int(v.AsNumber())
				if idx >= 1 && idx <= len(ids) {
					out = append(out, ids[idx-1])
				}
			}
			return out
		}
	}
	res := clientsel.SelectClientIdsForNode(nodeID, ids, clientsel.Inputs{
		Index:  int(inputs["index"].AsNumber()),
		Range:  int(inputs["range"].AsNumber()),
		Random: inputs["random"].AsBool(),
	})
	return res.SelectedIDs
}

// clientObjectCleanupBundle is the fixed onDisable command set (§4.6): stop
// sound/media, hide any shown image, flashlight off, screen color back to
// opaque black.
func clientObjectCleanupBundle() []node.Value {
	return []node.Value{
		commandValue("stopSound", nil),
		commandValue("stopMedia", nil),
		commandValue("hideImage", nil),
		commandValue("flashlight", map[string]interface{}{"active": false, "mode": "off"}),
		commandValue("screenColor", map[string]interface{}{"active": true, "primary": "#000000", "minOpacity": 1, "maxOpacity": 1, "hz": 0}),
	}
}

func stringsToValue(ss []string) node.Value {
	vals := make([]node.Value, len(ss))
	for i, s := range ss {
		vals[i] = node.String(s)
	}
	return node.Array(vals)
}

func valueToStrings(v node.Value) []string {
	arr := v.AsArray()
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		out = append(out, e.AsString())
	}
	return out
}

// cmdAggregatorDef fans up to 8 command inputs into one flattened array.
func cmdAggregatorDef() *node.Definition {
	inputs := make([]node.Port, 8)
	for i := range inputs {
		inputs[i] = node.DataPort(aggregatorPortID(i), aggregatorPortLabel(i), node.TypeCommand, node.Null)
	}
	return &node.Definition{
		Type:     "cmd-aggregator",
		Label:    "Command Aggregator",
		Category: "selection",
		Inputs:   inputs,
		Outputs:  []node.Port{node.DataPort("commands", "Commands", node.TypeArray, node.Array(nil))},
		Process: func(in node.Inputs, cfg node.Config, ctx node.ProcessContext) node.Outputs {
			var out []node.Value
			for i := 0; i < 8; i++ {
				if v, ok := in[aggregatorPortID(i)]; ok && !v.IsNull() {
					out = append(out, v)
				}
			}
			return node.Outputs{"commands": node.Array(out)}
		},
	}
}

func aggregatorPortID(i int) string    { return "in" + string(rune('1'+i)) }
func aggregatorPortLabel(i int) string { return "In " + string(rune('1'+i)) }

// sensorSnapshot mirrors the client sensor payload this runtime decodes;
// missing fields default to zero.
type sensorSnapshot struct {
	AccelX, AccelY, AccelZ float64
	GyroAlpha, GyroBeta, GyroGamma float64
	MicVolume, MicLow, MicHigh, MicBPM float64
}

func procClientSensorsDef(host runtime.Host) *node.Definition {
	return &node.Definition{
		Type:     "proc-client-sensors",
		Label:    "Client Sensors",
		Category: "selection",
		Inputs:   []node.Port{node.DataPort("client", "Client", node.TypeClient, node.Null)},
		Outputs: []node.Port{
			node.DataPort("accelX", "Accel X", node.TypeNumber, node.Number(0)),
			node.DataPort("accelY", "Accel Y", node.TypeNumber, node.Number(0)),
			node.DataPort("accelZ", "Accel Z", node.TypeNumber, node.Number(0)),
			node.DataPort("gyroAlpha", "Gyro α", node.TypeNumber, node.Number(0)),
			node.DataPort("gyroBeta", "Gyro β", node.TypeNumber, node.Number(0)),
			node.DataPort("gyroGamma", "Gyro γ", node.TypeNumber, node.Number(0)),
			node.DataPort("micVolume", "Mic Volume", node.TypeNumber, node.Number(0)),
			node.DataPort("micLow", "Mic Low", node.TypeNumber, node.Number(0)),
			node.DataPort("micHigh", "Mic High", node.TypeNumber, node.Number(0)),
			node.DataPort("micBPM", "Mic BPM", node.TypeNumber, node.Number(0)),
		},
		Process: func(inputs node.Inputs, cfg node.Config, ctx node.ProcessContext) node.Outputs {
			sensor := inputs["client"]
			if sensor.IsNull() {
				sensor = host.GetLatestSensor()
			}
			var snap sensorSnapshot
			_ = sensor.As(&snap)
			return node.Outputs{
				"accelX": node.Number(snap.AccelX), "accelY": node.Number(snap.AccelY), "accelZ": node.Number(snap.AccelZ),
				"gyroAlpha": node.Number(snap.GyroAlpha), "gyroBeta": node.Number(snap.GyroBeta), "gyroGamma": node.Number(snap.GyroGamma),
				"micVolume": node.Number(snap.MicVolume), "micLow": node.Number(snap.MicLow), "micHigh": node.Number(snap.MicHigh), "micBPM": node.Number(snap.MicBPM),
			}
		},
	}
}
