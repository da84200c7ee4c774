package nodes

import (
	"math"

	"github.com/signalstage/core/node"
)

// controlFlowDefs implements the "Control flow" category (§4.6): for, sleep,
// number-stabilizer, number-script. All four carry cross-tick memory in
// ctx.State rather than Config/InputValues, since that memory is
// implementation detail, not graph-editor-visible data (node/instance.go).
func controlFlowDefs() []*node.Definition {
	return []*node.Definition{
		forDef(),
		sleepDef(),
		numberStabilizerDef(),
		numberScriptDef(),
	}
}

// forDef is an edge-triggered iterator: a rising edge on trigger (re)starts
// emission of from..to at wait-ms cadence; loopEnd pulses true on the last
// emit; holding trigger false stops it.
func forDef() *node.Definition {
	return &node.Definition{
		Type:     "for",
		Label:    "For",
		Category: "control-flow",
		Inputs:   []node.Port{node.DataPort("trigger", "Trigger", node.TypeBoolean, node.Bool(false))},
		Outputs: []node.Port{
			node.DataPort("index", "Index", node.TypeNumber, node.Number(0)),
			node.DataPort("running", "Running", node.TypeBoolean, node.Bool(false)),
			node.DataPort("loopEnd", "Loop End", node.TypeBoolean, node.Bool(false)),
		},
		Config: []node.ConfigField{
			{Key: "from", Type: node.TypeNumber, Default: node.Number(0)},
			{Key: "to", Type: node.TypeNumber, Default: node.Number(10)},
			{Key: "waitMs", Type: node.TypeNumber, Default: node.Number(100)},
		},
		Process: func(inputs node.Inputs, cfg node.Config, ctx node.ProcessContext) node.Outputs {
			trigger := inputs["trigger"].AsBool()
			wasTrigger := ctx.State["trigger"].AsBool()
			ctx.State["trigger"] = node.Bool(trigger)

			from := cfg["from"].AsNumber()
			to := cfg["to"].AsNumber()
			waitMs := cfg["waitMs"].AsNumber()
			if waitMs <= 0 {
				waitMs = 1
			}

			risingEdge := trigger && !wasTrigger
			if risingEdge {
				ctx.State["index"] = node.Number(from)
				ctx.State["running"] = node.Bool(true)
				ctx.State["lastEmitMs"] = node.Number(float64(ctx.Time))
			}

			if !trigger {
				ctx.State["running"] = node.Bool(false)
				return node.Outputs{
					"index": ctx.State["index"], "running": node.Bool(false), "loopEnd": node.Bool(false),
				}
			}

			running := ctx.State["running"].AsBool()
			if !running {
				return node.Outputs{"index": ctx.State["index"], "running": node.Bool(false), "loopEnd": node.Bool(false)}
			}

			idx := ctx.State["index"].AsNumber()
			lastEmitMs := int64(ctx.State["lastEmitMs"].AsNumber())
			loopEnd := false
			if !risingEdge && ctx.Time-lastEmitMs >= int64(waitMs) {
				idx++
				ctx.State["lastEmitMs"] = node.Number(float64(ctx.Time))
				if idx >= to {
					idx = to
					loopEnd = true
					running = false
				}
				ctx.State["index"] = node.Number(idx)
				ctx.State["running"] = node.Bool(running)
			}

			return node.Outputs{"index": node.Number(idx), "running": node.Bool(running), "loopEnd": node.Bool(loopEnd)}
		},
	}
}

// sleepDef is a time-queue: incoming values are timestamped on arrival and
// released once enqueueTime <= now-delay.
func sleepDef() *node.Definition {
	return &node.Definition{
		Type:     "sleep",
		Label:    "Sleep",
		Category: "control-flow",
		Inputs:   []node.Port{node.DataPort("value", "Value", node.TypeAny, node.Null)},
		Outputs:  []node.Port{node.DataPort("value", "Value", node.TypeAny, node.Null)},
		Config:   []node.ConfigField{{Key: "delayMs", Type: node.TypeNumber, Default: node.Number(1000)}},
		Process: func(inputs node.Inputs, cfg node.Config, ctx node.ProcessContext) node.Outputs {
			delay := int64(cfg["delayMs"].AsNumber())

			queueValues := ctx.State["queueValues"].AsArray()
			queueTimesV := ctx.State["queueTimes"].AsArray()
			var queueTimes []int64
			for _, t := range queueTimesV {
				queueTimes = append(queueTimes, int64(t.AsNumber()))
			}

			in := inputs["value"]
			last := ctx.State["lastIn"]
			if !in.IsNull() && !in.Equal(last) {
				queueValues = append(queueValues, in)
				queueTimes = append(queueTimes, ctx.Time)
			}
			ctx.State["lastIn"] = in

			var released node.Value = node.Null
			var keptValues []node.Value
			var keptTimes []int64
			for i, v := range queueValues {
				if ctx.Time-queueTimes[i] >= delay {
					released = v
					continue
				}
				keptValues = append(keptValues, v)
				keptTimes = append(keptTimes, queueTimes[i])
			}

			ctx.State["queueValues"] = node.Array(keptValues)
			timesAsValues := make([]node.Value, len(keptTimes))
			for i, t := range keptTimes {
				timesAsValues[i] = node.Number(float64(t))
			}
			ctx.State["queueTimes"] = node.Array(timesAsValues)

			return node.Outputs{"value": released}
		},
	}
}

// numberStabilizerDef eases toward a target value. smoothing < 1 is
// interpreted as normalized 0..1 mapped onto 50..1000ms, else taken directly
// as the easing duration in ms (§4.6).
func numberStabilizerDef() *node.Definition {
	return &node.Definition{
		Type:     "number-stabilizer",
		Label:    "Number Stabilizer",
		Category: "control-flow",
		Inputs:   []node.Port{node.DataPort("target", "Target", node.TypeNumber, node.Number(0))},
		Outputs:  []node.Port{node.DataPort("value", "Value", node.TypeNumber, node.Number(0))},
		Config:   []node.ConfigField{{Key: "smoothing", Type: node.TypeNumber, Default: node.Number(0.5)}},
		Process: func(inputs node.Inputs, cfg node.Config, ctx node.ProcessContext) node.Outputs {
			target := inputs["target"].AsNumber()
			smoothing := cfg["smoothing"].AsNumber()

			durationMs := smoothing
			if smoothing < 1 {
				durationMs = lerp(50, 1000, clampf(smoothing, 0, 1))
			}
			if durationMs <= 0 {
				durationMs = 1
			}

			current, seen := ctx.State["current"], !ctx.State["current"].IsNull()
			if !seen {
				ctx.State["current"] = node.Number(target)
				return node.Outputs{"value": node.Number(target)}
			}

			alpha := clampf(float64(ctx.DeltaTime)/durationMs, 0, 1)
			next := lerp(current.AsNumber(), target, alpha)
			ctx.State["current"] = node.Number(next)
			return node.Outputs{"value": node.Number(next)}
		},
	}
}

// numberScriptDef generates a cubic-Bezier-eased value over a fixed
// duration, with once | one-way | around loop modes; finished pulses true
// for exactly the tick playback completes.
func numberScriptDef() *node.Definition {
	return &node.Definition{
		Type:     "number-script",
		Label:    "Number Script",
		Category: "control-flow",
		Inputs:   []node.Port{node.DataPort("trigger", "Trigger", node.TypeBoolean, node.Bool(false))},
		Outputs: []node.Port{
			node.DataPort("value", "Value", node.TypeNumber, node.Number(0)),
			node.DataPort("running", "Running", node.TypeBoolean, node.Bool(false)),
			node.DataPort("finished", "Finished", node.TypeBoolean, node.Bool(false)),
		},
		Config: []node.ConfigField{
			{Key: "durationMs", Type: node.TypeNumber, Default: node.Number(1000)},
			{Key: "from", Type: node.TypeNumber, Default: node.Number(0)},
			{Key: "to", Type: node.TypeNumber, Default: node.Number(1)},
			{Key: "loopMode", Type: node.TypeString, Default: node.String("once"), Options: []string{"once", "one-way", "around"}},
			{Key: "x1", Type: node.TypeNumber, Default: node.Number(0.42)},
			{Key: "y1", Type: node.TypeNumber, Default: node.Number(0)},
			{Key: "x2", Type: node.TypeNumber, Default: node.Number(0.58)},
			{Key: "y2", Type: node.TypeNumber, Default: node.Number(1)},
		},
		Process: func(inputs node.Inputs, cfg node.Config, ctx node.ProcessContext) node.Outputs {
			trigger := inputs["trigger"].AsBool()
			wasTrigger := ctx.State["trigger"].AsBool()
			ctx.State["trigger"] = node.Bool(trigger)

			durationMs := cfg["durationMs"].AsNumber()
			if durationMs <= 0 {
				durationMs = 1
			}
			from, to := cfg["from"].AsNumber(), cfg["to"].AsNumber()
			loopMode := cfg["loopMode"].AsString()

			if trigger && !wasTrigger {
				ctx.State["startMs"] = node.Number(float64(ctx.Time))
				ctx.State["playing"] = node.Bool(true)
				ctx.State["direction"] = node.Number(1)
			}

			if !ctx.State["playing"].AsBool() {
				return node.Outputs{"value": node.Number(from), "running": node.Bool(false), "finished": node.Bool(false)}
			}

			elapsed := float64(ctx.Time) - ctx.State["startMs"].AsNumber()
			progress := clampf(elapsed/durationMs, 0, 1)
			eased := cubicBezierY(progress, cfg["x1"].AsNumber(), cfg["y1"].AsNumber(), cfg["x2"].AsNumber(), cfg["y2"].AsNumber())

			direction := ctx.State["direction"].AsNumber()
			value := from + (to-from)*eased
			if direction < 0 {
				value = to + (from-to)*eased
			}

			finished := false
			if progress >= 1 {
				switch loopMode {
				case "around":
					ctx.State["startMs"] = node.Number(float64(ctx.Time))
					ctx.State["direction"] = node.Number(-direction)
				default: // once, one-way: play exactly once then stop
					ctx.State["playing"] = node.Bool(false)
					finished = true
				}
			}

			return node.Outputs{"value": node.Number(value), "running": node.Bool(!finished), "finished": node.Bool(finished)}
		},
	}
}

// cubicBezierY evaluates a CSS-style cubic-bezier(x1,y1,x2,y2) easing curve
// at progress t by solving for the parametric x==t via bisection (cheap and
// dependency-free; no example in the pack carries an easing-curve library).
func cubicBezierY(t, x1, y1, x2, y2 float64) float64 {
	bez := func(p0, p1, p2, p3, u float64) float64 {
		mu := 1 - u
		return mu*mu*mu*p0 + 3*mu*mu*u*p1 + 3*mu*u*u*p2 + u*u*u*p3
	}
	lo, hi := 0.0, 1.0
	for i := 0; i < 24; i++ {
		mid := (lo + hi) / 2
		x := bez(0, x1, x2, 1, mid)
		if x < t {
			lo = mid
		} else {
			hi = mid
		}
	}
	u := (lo + hi) / 2
	return math.Min(1, math.Max(0, bez(0, y1, y2, 1, u)))
}
