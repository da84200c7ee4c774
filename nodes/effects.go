package nodes

import "github.com/signalstage/core/node"

// effectDefs implements the "Effects" category (§4.6): each folds a new
// effect description onto an incoming VisualEffect[] chain. Applying the
// effects is out of core (§4.6); these nodes only build the chain.
func effectDefs() []*node.Definition {
	return []*node.Definition{
		effectChainDef("effect-ascii", "ASCII Effect", map[string]node.Value{
			"charset": node.String(" .:-=+*#%@"),
			"scale":   node.Number(1),
		}),
		effectChainDef("effect-convolution", "Convolution Effect", map[string]node.Value{
			"kernel":      node.String("sharpen"),
			"strength":    node.Number(1),
		}),
	}
}

func effectChainDef(typ, label string, configDefaults map[string]node.Value) *node.Definition {
	fields := make([]node.ConfigField, 0, len(configDefaults))
	for k, v := range configDefaults {
		fields = append(fields, node.ConfigField{Key: k, Type: node.TypeAny, Default: v})
	}
	return &node.Definition{
		Type:     typ,
		Label:    label,
		Category: "effects",
		Inputs:   []node.Port{node.DataPort("in", "In", node.TypeArray, node.Array(nil))},
		Outputs:  []node.Port{node.DataPort("out", "Out", node.TypeArray, node.Array(nil))},
		Config:   fields,
		Process: func(inputs node.Inputs, cfg node.Config, ctx node.ProcessContext) node.Outputs {
			chain := append([]node.Value{}, inputs["in"].AsArray()...)
			params := make(map[string]interface{}, len(cfg))
			for k, v := range cfg {
				params[k] = v.AsString()
				if v.Kind() == node.KindNumber {
					params[k] = v.AsNumber()
				}
			}
			params["kind"] = typ
			chain = append(chain, node.Effect(params))
			return node.Outputs{"out": node.Array(chain)}
		},
	}
}
