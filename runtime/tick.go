package runtime

import (
	"github.com/signalstage/core/logger"
	"github.com/signalstage/core/node"
	"github.com/signalstage/core/override"
)

// runTick executes one full tick (§4.3): expire overrides, recompile if
// dirty, compute pass, sink pass, watchdogs.
func (r *Runtime) runTick(deltaMs int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.halted || r.state == nil {
		return
	}

	// now is this tick's logical time — the clock as it stood before this
	// tick's delta is folded in. Expiry, override lookup, and ProcessContext
	// all use it; clockMs only advances at the very end, becoming the next
	// tick's "now". This is what gives an override with TTL exactly
	// ⌈ttl / tickInterval⌉ live ticks (§8 invariant 4): the tick during which
	// elapsed time first exceeds ttl is the first tick that no longer
	// observes it, rather than one tick earlier.
	now := r.clockMs

	// 1. Override expiry.
	r.overrides.ExpireAt(now)

	// 2. Recompile if dirty.
	if r.dirty {
		logger.TickInfow("recompiling graph", "timeMs", now)
		if err := r.compileLocked(); err != nil {
			return // compile error already emitted + halted inside compileLocked
		}
	}

	sinkBudget := 0

	// 3. Compute pass.
	for _, n := range r.executionOrder {
		def, ok := r.registry.Get(n.Type)
		if !ok {
			continue
		}
		r.computeOne(n, def, now, deltaMs)
	}

	// 4. Sink pass.
	for _, n := range r.executionOrder {
		def, ok := r.registry.Get(n.Type)
		if !ok || def.OnSink == nil {
			continue
		}
		r.sinkOne(n, def, now, deltaMs, &sinkBudget)
		if r.halted {
			r.clockMs += deltaMs
			return
		}
	}

	r.clockMs += deltaMs
	logger.TickDebugw("tick complete", "deltaMs", deltaMs, "timeMs", r.clockMs, "nodeCount", len(r.executionOrder))
	if r.opts.OnTick != nil {
		r.opts.OnTick(deltaMs, r.clockMs)
	}
}

// computeOne resolves inputs, runs process (or passthrough bypass / clearing
// for disabled/gated nodes), and wholly replaces OutputValues.
func (r *Runtime) computeOne(n *node.Instance, def *node.Definition, now, deltaMs int64) {
	enabled := r.opts.IsNodeEnabled(n.ID)
	wasEnabled, seen := r.enabledLast[n.ID]
	r.enabledLast[n.ID] = enabled

	if !enabled {
		if seen && wasEnabled && def.OnDisable != nil {
			inputs := r.lastComputedInputs[n.ID]
			cfg := r.effectiveConfig(n, def, now)
			r.safeCall(n.ID, "onDisable", func() {
				def.OnDisable(inputs, cfg, r.ctxFor(n, now, 0))
			})
		}
		n.OutputValues = r.passthroughBypass(n, def)
		delete(r.sinkCaches, n.ID)
		return
	}

	if !r.opts.IsComputeEnabled(n.ID) {
		n.OutputValues = map[string]node.Value{}
		return
	}

	inputs := r.resolveInputs(n, def, now)
	r.lastComputedInputs[n.ID] = inputs
	cfg := r.effectiveConfig(n, def, now)

	if def.Process == nil {
		return
	}

	var outputs node.Outputs
	r.safeCall(n.ID, "process", func() {
		outputs = def.Process(inputs, cfg, r.ctxFor(n, now, deltaMs))
	})
	if outputs == nil {
		outputs = node.Outputs{}
	}
	n.OutputValues = map[string]node.Value(outputs)
}

// passthroughBypass implements §4.3's bypass rule for disabled nodes.
func (r *Runtime) passthroughBypass(n *node.Instance, def *node.Definition) map[string]node.Value {
	in, out, ok := def.SingleDataInOut()
	if !ok {
		return map[string]node.Value{}
	}
	conns := r.state.IncomingConnections(n.ID, in.ID)
	if len(conns) != 1 {
		return map[string]node.Value{}
	}
	src, ok := r.state.NodeByID(conns[0].SourceNodeID)
	if !ok {
		return map[string]node.Value{}
	}
	val, ok := src.OutputValues[conns[0].SourcePortID]
	if !ok {
		return map[string]node.Value{}
	}
	return map[string]node.Value{out.ID: val}
}

// resolveInputs applies the data-input precedence: override > connection >
// stored inputValues > port default (§4.4).
func (r *Runtime) resolveInputs(n *node.Instance, def *node.Definition, now int64) node.Inputs {
	inputs := make(node.Inputs, len(def.Inputs))
	for _, port := range def.Inputs {
		if port.Kind != node.PortData {
			continue
		}
		if v, ok := r.overrides.Lookup(n.ID, override.KindInput, port.ID, now); ok {
			inputs[port.ID] = v
			continue
		}
		conns := r.state.IncomingConnections(n.ID, port.ID)
		if len(conns) == 1 {
			if src, ok := r.state.NodeByID(conns[0].SourceNodeID); ok {
				if v, ok := src.OutputValues[conns[0].SourcePortID]; ok {
					inputs[port.ID] = v
					continue
				}
			}
		}
		if v, ok := n.InputValues[port.ID]; ok {
			inputs[port.ID] = v
			continue
		}
		inputs[port.ID] = port.Default
	}
	return inputs
}

// effectiveConfig overlays config overrides on top of base config/defaults
// (§4.4 "Precedence for config: override > base").
func (r *Runtime) effectiveConfig(n *node.Instance, def *node.Definition, now int64) node.Config {
	cfg := make(node.Config, len(def.Config))
	for _, f := range def.Config {
		if v, ok := r.overrides.Lookup(n.ID, override.KindConfig, f.Key, now); ok {
			cfg[f.Key] = v
			continue
		}
		if v, ok := n.Config[f.Key]; ok {
			cfg[f.Key] = v
			continue
		}
		cfg[f.Key] = f.Default
	}
	return cfg
}

// sinkOne aggregates sink-port values, diffs against the last delivered
// state, and calls onSink when the sink set changed or just reconnected
// (§4.3 step 4).
func (r *Runtime) sinkOne(n *node.Instance, def *node.Definition, now, deltaMs int64, sinkBudget *int) {
	sinkEnabled := r.opts.IsSinkEnabled(n.ID)

	hasSink := false
	sinkValues := map[string]node.Value{}
	for _, port := range def.Inputs {
		if port.Kind != node.PortSink {
			continue
		}
		conns := r.state.IncomingConnections(n.ID, port.ID)
		if len(conns) == 0 {
			continue
		}
		hasSink = true
		var values []node.Value
		for _, c := range conns {
			src, ok := r.state.NodeByID(c.SourceNodeID)
			if !ok {
				continue
			}
			if v, ok := src.OutputValues[c.SourcePortID]; ok {
				values = append(values, v)
				*sinkBudget += valueWeight(v)
			}
		}
		if len(values) == 1 {
			sinkValues[port.ID] = values[0]
		} else if len(values) > 1 {
			sinkValues[port.ID] = node.Array(values)
		}
	}

	cache, existed := r.sinkCaches[n.ID]
	if !existed {
		cache = &sinkCache{lastCmdSig: map[string]map[string]string{}}
		r.sinkCaches[n.ID] = cache
	}

	if !hasSink {
		if cache.hadSink && def.OnDisable != nil {
			inputs := r.lastComputedInputs[n.ID]
			cfg := r.effectiveConfig(n, def, now)
			r.safeCall(n.ID, "onDisable", func() {
				def.OnDisable(inputs, cfg, r.ctxFor(n, now, 0))
			})
		}
		delete(r.sinkCaches, n.ID)
		return
	}

	if *sinkBudget > r.opts.MaxSinkValuesPerTick {
		r.emitWatchdog(WatchdogInfo{
			Reason:  ReasonSinkBurst,
			Message: "sink values delivered this tick exceeded budget",
			Diagnostics: map[string]interface{}{
				"nodeId": n.ID, "count": *sinkBudget, "budget": r.opts.MaxSinkValuesPerTick,
			},
		})
		r.halted = true
		return
	}

	if !sinkEnabled {
		cache.hadSink = hasSink
		return
	}

	inputs := make(node.Inputs, len(r.lastComputedInputs[n.ID])+len(sinkValues))
	for k, v := range r.lastComputedInputs[n.ID] {
		inputs[k] = v
	}
	for k, v := range sinkValues {
		inputs[k] = v
	}
	cfg := r.effectiveConfig(n, def, now)

	reconnected := !cache.hadSink
	changed := reconnected || !inputsEqual(inputs, cache.lastInputs) || !configEqual(cfg, cache.lastConfig)

	if !r.diffCommandSinks(n, def, sinkValues, cache, now) && !changed {
		cache.hadSink = hasSink
		return
	}

	r.safeCall(n.ID, "onSink", func() {
		def.OnSink(inputs, cfg, r.ctxFor(n, now, deltaMs))
	})

	cache.hadSink = hasSink
	cache.lastInputs = inputs
	cache.lastConfig = cfg
}

// diffCommandSinks updates the oscillation tracker and per-action signature
// cache for command-typed sink ports, returning true if any signature
// changed (which alone should trigger onSink even if inputs/config didn't).
func (r *Runtime) diffCommandSinks(n *node.Instance, def *node.Definition, sinkValues map[string]node.Value, cache *sinkCache, now int64) bool {
	changed := false
	for _, port := range def.Inputs {
		if port.Kind != node.PortSink || port.Type != node.TypeCommand {
			continue
		}
		v, ok := sinkValues[port.ID]
		if !ok {
			continue
		}
		var payload interface{}
		action := ""
		if m, ok := asCommandMap(v); ok {
			if a, ok := m["action"].(string); ok {
				action = a
			}
			payload = m["payload"]
		}
		sig := commandSignature(action, payload)

		if cache.lastCmdSig[port.ID] == nil {
			cache.lastCmdSig[port.ID] = map[string]string{}
		}
		if cache.lastCmdSig[port.ID][action] != sig {
			changed = true
		}
		cache.lastCmdSig[port.ID][action] = sig

		if osc := r.oscTrack.Record(n.ID, port.ID, action, sig, now); osc {
			r.emitWatchdog(WatchdogInfo{
				Reason:  ReasonOscillation,
				Message: "command signature oscillating between two states",
				Diagnostics: map[string]interface{}{
					"nodeId": n.ID, "portId": port.ID, "action": action,
				},
			})
		}
	}
	return changed
}

// ctxFor builds the ProcessContext a hook sees for node n, including a live
// reference to its private State bag so stateful node kinds can persist
// memory across ticks without it ever entering GraphState's exported shape.
func (r *Runtime) ctxFor(n *node.Instance, now, deltaMs int64) node.ProcessContext {
	if n.State == nil {
		n.State = map[string]node.Value{}
	}
	return node.ProcessContext{NodeID: n.ID, Time: now, DeltaTime: deltaMs, State: n.State}
}

func asCommandMap(v node.Value) (map[string]interface{}, bool) {
	var m map[string]interface{}
	if err := v.As(&m); err != nil {
		return nil, false
	}
	return m, true
}

// valueWeight is the sink-burst counting unit: arrays count by length,
// everything else counts as one (§4.5).
func valueWeight(v node.Value) int {
	if v.Kind() == node.KindArray {
		return len(v.AsArray())
	}
	return 1
}

func inputsEqual(a, b node.Inputs) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		ov, ok := b[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

func configEqual(a, b node.Config) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		ov, ok := b[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}
