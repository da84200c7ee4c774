package nodes

import (
	"math"

	"github.com/signalstage/core/node"
)

var lfoShapes = []string{"sine", "square", "triangle", "sawtooth"}

// generatorDefs implements the "Generators" category (§4.6): lfo.
func generatorDefs() []*node.Definition {
	return []*node.Definition{lfoDef()}
}

func lfoDef() *node.Definition {
	return &node.Definition{
		Type:     "lfo",
		Label:    "LFO",
		Category: "generators",
		Outputs:  []node.Port{node.DataPort("value", "Value", node.TypeNumber, node.Number(0))},
		Config: []node.ConfigField{
			{Key: "shape", Type: node.TypeString, Default: node.String("sine"), Options: lfoShapes},
			{Key: "frequencyHz", Type: node.TypeNumber, Default: node.Number(1)},
			{Key: "amplitude", Type: node.TypeNumber, Default: node.Number(1)},
			{Key: "offset", Type: node.TypeNumber, Default: node.Number(0)},
		},
		Process: func(inputs node.Inputs, cfg node.Config, ctx node.ProcessContext) node.Outputs {
			phase := ctx.State["phaseMs"].AsNumber() + float64(ctx.DeltaTime)
			ctx.State["phaseMs"] = node.Number(phase)

			freq := cfg["frequencyHz"].AsNumber()
			amp := cfg["amplitude"].AsNumber()
			offset := cfg["offset"].AsNumber()

			periodMs := 1000.0
			if freq > 0 {
				periodMs = 1000.0 / freq
			}
			t := math.Mod(phase, periodMs) / periodMs // 0..1 within the current cycle

			var unit float64
			switch cfg["shape"].AsString() {
			case "square":
				if t < 0.5 {
					unit = 1
				}
			case "triangle":
				if t < 0.5 {
					unit = 2 * t
				} else {
					unit = 2 * (1 - t)
				}
			case "sawtooth":
				unit = t
			default: // sine, normalized to 0..1
				unit = (math.Sin(2*math.Pi*t) + 1) / 2
			}

			return node.Outputs{"value": node.Number(offset + unit*amp)}
		},
	}
}
