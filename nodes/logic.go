package nodes

import "github.com/signalstage/core/node"

// logicDefs implements the "Logic/Gate" category (§4.6): boolean gates, a
// dual-output if, arithmetic math, array-filter, and chainable bump nodes.
func logicDefs() []*node.Definition {
	defs := []*node.Definition{
		gateDef("not", "NOT", func(a, _ bool) bool { return !a }, true),
		gateDef("and", "AND", func(a, b bool) bool { return a && b }, false),
		gateDef("or", "OR", func(a, b bool) bool { return a || b }, false),
		gateDef("xor", "XOR", func(a, b bool) bool { return a != b }, false),
		gateDef("nand", "NAND", func(a, b bool) bool { return !(a && b) }, false),
		gateDef("nor", "NOR", func(a, b bool) bool { return !(a || b) }, false),
		ifDef(),
		mathDef(),
		arrayFilterDef(),
	}
	defs = append(defs, bumpDefs()...)
	return defs
}

func gateDef(typ, label string, fn func(a, b bool) bool, unary bool) *node.Definition {
	inputs := []node.Port{node.DataPort("a", "A", node.TypeBoolean, node.Bool(false))}
	if !unary {
		inputs = append(inputs, node.DataPort("b", "B", node.TypeBoolean, node.Bool(false)))
	}
	return &node.Definition{
		Type:     typ,
		Label:    label,
		Category: "logic",
		Inputs:   inputs,
		Outputs:  []node.Port{node.DataPort("out", "Out", node.TypeBoolean, node.Bool(false))},
		Process: func(inputs node.Inputs, cfg node.Config, ctx node.ProcessContext) node.Outputs {
			return node.Outputs{"out": node.Bool(fn(inputs["a"].AsBool(), inputs["b"].AsBool()))}
		},
	}
}

// ifDef is the dual-output router: the incoming value is forwarded to
// whichever of "then"/"else" matches condition; the other port outputs Null.
func ifDef() *node.Definition {
	return &node.Definition{
		Type:     "if",
		Label:    "If",
		Category: "logic",
		Inputs: []node.Port{
			node.DataPort("condition", "Condition", node.TypeBoolean, node.Bool(false)),
			node.DataPort("value", "Value", node.TypeAny, node.Null),
		},
		Outputs: []node.Port{
			node.DataPort("then", "Then", node.TypeAny, node.Null),
			node.DataPort("else", "Else", node.TypeAny, node.Null),
		},
		Process: func(inputs node.Inputs, cfg node.Config, ctx node.ProcessContext) node.Outputs {
			if inputs["condition"].AsBool() {
				return node.Outputs{"then": inputs["value"], "else": node.Null}
			}
			return node.Outputs{"then": node.Null, "else": inputs["value"]}
		},
	}
}

var mathOps = []string{"+", "-", "×", "÷", "min", "max", "mod", "pow"}

func mathDef() *node.Definition {
	return &node.Definition{
		Type:     "math",
		Label:    "Math",
		Category: "logic",
		Inputs: []node.Port{
			node.DataPort("a", "A", node.TypeNumber, node.Number(0)),
			node.DataPort("b", "B", node.TypeNumber, node.Number(0)),
		},
		Outputs: []node.Port{node.DataPort("result", "Result", node.TypeNumber, node.Number(0))},
		Config: []node.ConfigField{
			{Key: "op", Type: node.TypeString, Default: node.String("+"), Options: mathOps},
		},
		Process: func(inputs node.Inputs, cfg node.Config, ctx node.ProcessContext) node.Outputs {
			a, b := inputs["a"].AsNumber(), inputs["b"].AsNumber()
			return node.Outputs{"result": node.Number(applyMathOp(cfg["op"].AsString(), a, b))}
		},
	}
}

func applyMathOp(op string, a, b float64) float64 {
	switch op {
	case "+":
		return a + b
	case "-":
		return a - b
	case "×":
		return a * b
	case "÷":
		if b == 0 {
			return 0
		}
		return a / b
	case "min":
		if a < b {
			return a
		}
		return b
	case "max":
		if a > b {
			return a
		}
		return b
	case "mod":
		if b == 0 {
			return 0
		}
		r := a - b*float64(int64(a/b))
		return r
	case "pow":
		result := 1.0
		neg := b < 0
		n := b
		if neg {
			n = -n
		}
		for i := 0; i < int(n); i++ {
			result *= a
		}
		if neg && result != 0 {
			result = 1 / result
		}
		return result
	default:
		return 0
	}
}

// arrayFilterDef computes A minus B as sets, comparing elements via Value.Equal.
func arrayFilterDef() *node.Definition {
	return &node.Definition{
		Type:     "array-filter",
		Label:    "Array Filter",
		Category: "logic",
		Inputs: []node.Port{
			node.DataPort("a", "A", node.TypeArray, node.Array(nil)),
			node.DataPort("b", "B", node.TypeArray, node.Array(nil)),
		},
		Outputs: []node.Port{node.DataPort("out", "Out", node.TypeArray, node.Array(nil))},
		Process: func(inputs node.Inputs, cfg node.Config, ctx node.ProcessContext) node.Outputs {
			a := inputs["a"].AsArray()
			b := inputs["b"].AsArray()
			var out []node.Value
			for _, av := range a {
				found := false
				for _, bv := range b {
					if av.Equal(bv) {
						found = true
						break
					}
				}
				if !found {
					out = append(out, av)
				}
			}
			return node.Outputs{"out": node.Array(out)}
		},
	}
}

// bumpDefs are the chainable "twiddle" nodes: single data in/out, so a
// disabled instance qualifies for the generic passthrough bypass (§4.3, §9).
func bumpDefs() []*node.Definition {
	ops := []struct {
		typ, label string
		fn         func(v, amount float64) float64
	}{
		{"add", "Add", func(v, a float64) float64 { return v + a }},
		{"subtract", "Subtract", func(v, a float64) float64 { return v - a }},
		{"multiply", "Multiply", func(v, a float64) float64 { return v * a }},
		{"divide", "Divide", func(v, a float64) float64 {
			if a == 0 {
				return v
			}
			return v / a
		}},
	}
	defs := make([]*node.Definition, 0, len(ops))
	for _, op := range ops {
		op := op
		defs = append(defs, &node.Definition{
			Type:     op.typ,
			Label:    op.label,
			Category: "logic",
			Inputs:   []node.Port{node.DataPort("value", "Value", node.TypeNumber, node.Number(0))},
			Outputs:  []node.Port{node.DataPort("value", "Value", node.TypeNumber, node.Number(0))},
			Config:   []node.ConfigField{{Key: "amount", Type: node.TypeNumber, Default: node.Number(1)}},
			Process: func(inputs node.Inputs, cfg node.Config, ctx node.ProcessContext) node.Outputs {
				return node.Outputs{"value": node.Number(op.fn(inputs["value"].AsNumber(), cfg["amount"].AsNumber()))}
			},
		})
	}
	return defs
}
