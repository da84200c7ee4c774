package nodes

import "github.com/signalstage/core/node"

const previewMaxLen = 120

// displayDefs implements the "Display" category (§4.6): show-anything
// converts any input to a bounded single-line preview; note is ornamental.
func displayDefs() []*node.Definition {
	return []*node.Definition{
		{
			Type:     "show-anything",
			Label:    "Show",
			Category: "display",
			Inputs:   []node.Port{node.DataPort("value", "Value", node.TypeAny, node.Null)},
			Outputs:  []node.Port{node.DataPort("preview", "Preview", node.TypeString, node.String(""))},
			Process: func(inputs node.Inputs, cfg node.Config, ctx node.ProcessContext) node.Outputs {
				s := inputs["value"].AsString()
				if inputs["value"].Kind() == node.KindArray || inputs["value"].Kind() == node.KindCommand ||
					inputs["value"].Kind() == node.KindEffect || inputs["value"].Kind() == node.KindClient {
					s = inputs["value"].CanonicalJSON()
				}
				if len(s) > previewMaxLen {
					s = s[:previewMaxLen] + "…"
				}
				return node.Outputs{"preview": node.String(s)}
			},
		},
		{
			// note carries no ports and no behavior; it exists purely so a
			// graph author can pin an annotation instance into the layout.
			Type:     "note",
			Label:    "Note",
			Category: "display",
			Config:   []node.ConfigField{{Key: "text", Type: node.TypeString, Default: node.String("")}},
		},
	}
}
