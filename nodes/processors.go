package nodes

import (
	"sync"

	"github.com/signalstage/core/node"
	"github.com/signalstage/core/runtime"
	"golang.org/x/time/rate"
)

// processorDefs implements the "Processors" category (§4.6): each builds a
// command payload deterministically from inputs+config. proc-flashlight and
// proc-screen-color share the active-gate contract: active=false sends a
// one-shot "off" payload rather than muting silently. proc-synth-update,
// proc-push-image-upload and proc-show-image have no active input or config.
func processorDefs(host runtime.Host) []*node.Definition {
	return []*node.Definition{
		procFlashlightDef(),
		procScreenColorDef(),
		procSynthUpdateDef(),
		procPushImageUploadDef(),
		procShowImageDef(),
	}
}

// activeOrOff runs the shared active-gate bookkeeping: while active, fn
// builds the live payload; on the active->inactive transition it emits
// offAction/offPayload exactly once; while steadily inactive it emits Null.
func activeOrOff(ctx node.ProcessContext, inputs node.Inputs, cfg node.Config, offAction string, offPayload map[string]interface{}, fn func() node.Value) node.Value {
	active := activeGate(inputs, cfg)
	wasActive := ctx.State["wasActive"].AsBool()
	ctx.State["wasActive"] = node.Bool(active)

	if active {
		return fn()
	}
	if wasActive {
		return commandValue(offAction, offPayload)
	}
	return node.Null
}

var flashlightModes = []string{"off", "on", "blink"}

func procFlashlightDef() *node.Definition {
	return &node.Definition{
		Type:     "proc-flashlight",
		Label:    "Flashlight",
		Category: "processors",
		Inputs: []node.Port{
			node.DataPort("active", "Active", node.TypeBoolean, node.Null),
			node.DataPort("frequencyHz", "Frequency", node.TypeNumber, node.Null),
		},
		Outputs: []node.Port{node.DataPort("command", "Command", node.TypeCommand, node.Null)},
		Config: []node.ConfigField{
			{Key: "active", Type: node.TypeBoolean, Default: node.Bool(true)},
			{Key: "mode", Type: node.TypeString, Default: node.String("off"), Options: flashlightModes},
			{Key: "frequency", Type: node.TypeNumber, Default: node.Number(1)},
			{Key: "dutyCycle", Type: node.TypeNumber, Default: node.Number(0.5)},
		},
		Process: func(inputs node.Inputs, cfg node.Config, ctx node.ProcessContext) node.Outputs {
			freq := cfg["frequency"].AsNumber()
			if v, ok := inputs["frequencyHz"]; ok && !v.IsNull() {
				freq = v.AsNumber()
			}
			cmd := activeOrOff(ctx, inputs, cfg, "flashlight", map[string]interface{}{"active": false, "mode": "off"}, func() node.Value {
				return commandValue("flashlight", map[string]interface{}{
					"active": true, "mode": cfg["mode"].AsString(),
					"frequency": freq, "dutyCycle": cfg["dutyCycle"].AsNumber(),
				})
			})
			return node.Outputs{"command": cmd}
		},
	}
}

func procScreenColorDef() *node.Definition {
	return &node.Definition{
		Type:     "proc-screen-color",
		Label:    "Screen Color",
		Category: "processors",
		Inputs:   []node.Port{node.DataPort("active", "Active", node.TypeBoolean, node.Null)},
		Outputs:  []node.Port{node.DataPort("command", "Command", node.TypeCommand, node.Null)},
		Config: []node.ConfigField{
			{Key: "active", Type: node.TypeBoolean, Default: node.Bool(true)},
			{Key: "primary", Type: node.TypeColor, Default: node.Color("#000000")},
			{Key: "secondary", Type: node.TypeColor, Default: node.Color("#ffffff")},
			{Key: "waveform", Type: node.TypeString, Default: node.String("sine"), Options: lfoShapes},
			{Key: "minOpacity", Type: node.TypeNumber, Default: node.Number(0)},
			{Key: "maxOpacity", Type: node.TypeNumber, Default: node.Number(1)},
			{Key: "hz", Type: node.TypeNumber, Default: node.Number(1)},
		},
		Process: func(inputs node.Inputs, cfg node.Config, ctx node.ProcessContext) node.Outputs {
			cmd := activeOrOff(ctx, inputs, cfg, "screenColor", map[string]interface{}{"active": false}, func() node.Value {
				return commandValue("screenColor", map[string]interface{}{
					"active": true, "primary": cfg["primary"].AsString(), "secondary": cfg["secondary"].AsString(),
					"waveform": cfg["waveform"].AsString(), "minOpacity": cfg["minOpacity"].AsNumber(),
					"maxOpacity": cfg["maxOpacity"].AsNumber(), "hz": cfg["hz"].AsNumber(),
				})
			})
			return node.Outputs{"command": cmd}
		},
	}
}

func procSynthUpdateDef() *node.Definition {
	return &node.Definition{
		Type:     "proc-synth-update",
		Label:    "Synth Update",
		Category: "processors",
		Inputs: []node.Port{
			node.DataPort("frequency", "Frequency", node.TypeNumber, node.Number(440)),
			node.DataPort("amplitude", "Amplitude", node.TypeNumber, node.Number(0.5)),
		},
		Outputs: []node.Port{node.DataPort("command", "Command", node.TypeCommand, node.Null)},
		Config: []node.ConfigField{
			{Key: "durationMs", Type: node.TypeNumber, Default: node.Number(0)},
			{Key: "waveform", Type: node.TypeString, Default: node.String("sine"), Options: lfoShapes},
		},
		Process: func(inputs node.Inputs, cfg node.Config, ctx node.ProcessContext) node.Outputs {
			durationMs := cfg["durationMs"].AsNumber()
			if durationMs == 0 {
				return node.Outputs{"command": commandValue("synthUpdate", map[string]interface{}{"durationMs": 0})}
			}
			return node.Outputs{"command": commandValue("synthUpdate", map[string]interface{}{
				"frequency": inputs["frequency"].AsNumber(), "amplitude": inputs["amplitude"].AsNumber(),
				"waveform": cfg["waveform"].AsString(), "durationMs": durationMs,
			})}
		},
	}
}

// pushImageLimiters holds one rate.Limiter per node instance, keyed by node
// id, reused across ticks and rebuilt whenever the configured speed changes
// (§4.6 "one command per 1000/speed ms"). rate.Limiter isn't a node.Value so
// it can't live in ctx.State; this is the one catalog kind that needs
// process-lifetime memory outside that bag.
var (
	pushImageLimitersMu sync.Mutex
	pushImageLimiters   = map[string]*rate.Limiter{}
	pushImageSpeeds     = map[string]float64{}
)

func procPushImageUploadDef() *node.Definition {
	return &node.Definition{
		Type:     "proc-push-image-upload",
		Label:    "Push Image Upload",
		Category: "processors",
		Inputs:   []node.Port{node.DataPort("trigger", "Trigger", node.TypeBoolean, node.Bool(false))},
		Outputs:  []node.Port{node.DataPort("command", "Command", node.TypeCommand, node.Null)},
		Config:   []node.ConfigField{{Key: "speed", Type: node.TypeNumber, Default: node.Number(1)}},
		Process: func(inputs node.Inputs, cfg node.Config, ctx node.ProcessContext) node.Outputs {
			if !inputs["trigger"].AsBool() {
				return node.Outputs{"command": node.Null}
			}
			speed := cfg["speed"].AsNumber()
			if speed <= 0 {
				speed = 1
			}
			lim := pushImageLimiterFor(ctx.NodeID, speed)
			if !lim.Allow() {
				return node.Outputs{"command": node.Null}
			}
			seq := ctx.State["seq"].AsNumber() + 1
			ctx.State["seq"] = node.Number(seq)
			return node.Outputs{"command": commandValue("pushImageUpload", map[string]interface{}{"seq": int64(seq)})}
		},
		OnDisable: func(inputs node.Inputs, cfg node.Config, ctx node.ProcessContext) {
			pushImageLimitersMu.Lock()
			delete(pushImageLimiters, ctx.NodeID)
			delete(pushImageSpeeds, ctx.NodeID)
			pushImageLimitersMu.Unlock()
		},
	}
}

func pushImageLimiterFor(nodeID string, speed float64) *rate.Limiter {
	pushImageLimitersMu.Lock()
	defer pushImageLimitersMu.Unlock()
	if lim, ok := pushImageLimiters[nodeID]; ok && pushImageSpeeds[nodeID] == speed {
		return lim
	}
	lim := rate.NewLimiter(rate.Limit(speed), 1)
	pushImageLimiters[nodeID] = lim
	pushImageSpeeds[nodeID] = speed
	return lim
}

func procShowImageDef() *node.Definition {
	return &node.Definition{
		Type:     "proc-show-image",
		Label:    "Show Image",
		Category: "processors",
		Inputs:   []node.Port{node.DataPort("url", "URL", node.TypeImage, node.Null)},
		Outputs:  []node.Port{node.DataPort("command", "Command", node.TypeCommand, node.Null)},
		Process: func(inputs node.Inputs, cfg node.Config, ctx node.ProcessContext) node.Outputs {
			url := inputs["url"]
			last := ctx.State["lastUrl"]
			if url.Equal(last) {
				return node.Outputs{"command": node.Null}
			}
			ctx.State["lastUrl"] = url
			if url.IsNull() || url.AsString() == "" {
				return node.Outputs{"command": commandValue("hideImage", nil)}
			}
			return node.Outputs{"command": commandValue("showImage", map[string]interface{}{"url": url.AsString()})}
		},
	}
}
