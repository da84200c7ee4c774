package nodes

import (
	"math"

	"github.com/signalstage/core/node"
)

// midiDefs implements the "MIDI" category (§4.6): all five kinds read a
// normalized fuzzy 0..1 value, the shape every MIDI-learn source in this
// library emits once learned.
func midiDefs() []*node.Definition {
	return []*node.Definition{
		midiFuzzyDef(),
		midiBooleanDef(),
		midiMapDef(),
		midiColorMapDef(),
		midiSelectMapDef(),
	}
}

// midiFuzzyDef memoizes the last normalized value from a learned source, so
// downstream nodes keep reading a value even between sparse MIDI events.
func midiFuzzyDef() *node.Definition {
	return &node.Definition{
		Type:     "midi-fuzzy",
		Label:    "MIDI Fuzzy",
		Category: "midi",
		Inputs:   []node.Port{node.DataPort("value", "Value", node.TypeFuzzy, node.Fuzzy(0))},
		Outputs:  []node.Port{node.DataPort("value", "Value", node.TypeFuzzy, node.Fuzzy(0))},
		Process: func(inputs node.Inputs, cfg node.Config, ctx node.ProcessContext) node.Outputs {
			if v, ok := inputs["value"]; ok && !v.IsNull() {
				ctx.State["last"] = node.Fuzzy(v.AsNumber())
			}
			return node.Outputs{"value": ctx.State["last"]}
		},
	}
}

// midiBooleanDef thresholds a fuzzy value; with noteMode it is true on any
// tick whose velocity is nonzero (no latching), else it's a plain >=
// threshold gate.
func midiBooleanDef() *node.Definition {
	return &node.Definition{
		Type:     "midi-boolean",
		Label:    "MIDI Boolean",
		Category: "midi",
		Inputs:   []node.Port{node.DataPort("value", "Value", node.TypeFuzzy, node.Fuzzy(0))},
		Outputs:  []node.Port{node.DataPort("out", "Out", node.TypeBoolean, node.Bool(false))},
		Config: []node.ConfigField{
			{Key: "threshold", Type: node.TypeNumber, Default: node.Number(0.5)},
			{Key: "noteMode", Type: node.TypeBoolean, Default: node.Bool(false)},
		},
		Process: func(inputs node.Inputs, cfg node.Config, ctx node.ProcessContext) node.Outputs {
			v := inputs["value"].AsNumber()
			if cfg["noteMode"].AsBool() {
				return node.Outputs{"out": node.Bool(v > 0)}
			}
			return node.Outputs{"out": node.Bool(v >= cfg["threshold"].AsNumber())}
		},
	}
}

// midiMapDef linearly remaps a normalized 0..1 value onto [min,max], with
// optional invert and round-to-integer.
func midiMapDef() *node.Definition {
	return &node.Definition{
		Type:     "midi-map",
		Label:    "MIDI Map",
		Category: "midi",
		Inputs:   []node.Port{node.DataPort("value", "Value", node.TypeFuzzy, node.Fuzzy(0))},
		Outputs:  []node.Port{node.DataPort("value", "Value", node.TypeNumber, node.Number(0))},
		Config: []node.ConfigField{
			{Key: "min", Type: node.TypeNumber, Default: node.Number(0)},
			{Key: "max", Type: node.TypeNumber, Default: node.Number(1)},
			{Key: "invert", Type: node.TypeBoolean, Default: node.Bool(false)},
			{Key: "round", Type: node.TypeBoolean, Default: node.Bool(false)},
		},
		Process: func(inputs node.Inputs, cfg node.Config, ctx node.ProcessContext) node.Outputs {
			t := clampf(inputs["value"].AsNumber(), 0, 1)
			if cfg["invert"].AsBool() {
				t = 1 - t
			}
			v := lerp(cfg["min"].AsNumber(), cfg["max"].AsNumber(), t)
			if cfg["round"].AsBool() {
				v = math.Round(v)
			}
			return node.Outputs{"value": node.Number(v)}
		},
	}
}

// midiColorMapDef lerps between two hex colors by a normalized 0..1 value.
func midiColorMapDef() *node.Definition {
	return &node.Definition{
		Type:     "midi-color-map",
		Label:    "MIDI Color Map",
		Category: "midi",
		Inputs:   []node.Port{node.DataPort("value", "Value", node.TypeFuzzy, node.Fuzzy(0))},
		Outputs:  []node.Port{node.DataPort("color", "Color", node.TypeColor, node.Color("#000000"))},
		Config: []node.ConfigField{
			{Key: "colorA", Type: node.TypeColor, Default: node.Color("#000000")},
			{Key: "colorB", Type: node.TypeColor, Default: node.Color("#ffffff")},
		},
		Process: func(inputs node.Inputs, cfg node.Config, ctx node.ProcessContext) node.Outputs {
			t := clampf(inputs["value"].AsNumber(), 0, 1)
			c := lerpColor(cfg["colorA"].AsString(), cfg["colorB"].AsString(), t)
			return node.Outputs{"color": node.Color(c)}
		},
	}
}

// midiSelectMapDef maps a normalized 0..1 value onto one of N enumerated
// options by equal-width bucketing.
func midiSelectMapDef() *node.Definition {
	return &node.Definition{
		Type:     "midi-select-map",
		Label:    "MIDI Select Map",
		Category: "midi",
		Inputs:   []node.Port{node.DataPort("value", "Value", node.TypeFuzzy, node.Fuzzy(0))},
		Outputs:  []node.Port{node.DataPort("selected", "Selected", node.TypeString, node.String(""))},
		Config: []node.ConfigField{
			{Key: "options", Type: node.TypeArray, Default: node.Array(nil)},
		},
		Process: func(inputs node.Inputs, cfg node.Config, ctx node.ProcessContext) node.Outputs {
			opts := cfg["options"].AsArray()
			if len(opts) == 0 {
				return node.Outputs{"selected": node.String("")}
			}
			t := clampf(inputs["value"].AsNumber(), 0, 1)
			idx := int(t * float64(len(opts)))
			if idx >= len(opts) {
				idx = len(opts) - 1
			}
			return node.Outputs{"selected": node.String(opts[idx].AsString())}
		},
	}
}
