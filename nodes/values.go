package nodes

import "github.com/signalstage/core/node"

// valueDefs implements the "Values" category (§4.6): number/string/bool are
// hybrid constant/pass-through nodes.
func valueDefs() []*node.Definition {
	return []*node.Definition{
		hybridDef("number", "Number", node.TypeNumber, node.Number(0)),
		hybridDef("string", "String", node.TypeString, node.String("")),
		hybridDef("bool", "Bool", node.TypeBoolean, node.Bool(false)),
	}
}

func hybridDef(typ, label string, t node.PortType, def node.Value) *node.Definition {
	return &node.Definition{
		Type:     typ,
		Label:    label,
		Category: "values",
		Inputs:   []node.Port{node.DataPort("value", "Value", t, node.Null)},
		Outputs:  []node.Port{node.DataPort("value", "Value", t, def)},
		Config:   []node.ConfigField{{Key: "value", Type: t, Default: def}},
		Process: func(inputs node.Inputs, cfg node.Config, ctx node.ProcessContext) node.Outputs {
			return node.Outputs{"value": hybridValue(inputs, cfg, "value")}
		},
	}
}
