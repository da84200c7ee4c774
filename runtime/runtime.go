// Package runtime implements the tick-driven, topologically ordered graph
// evaluator at the center of the node graph runtime (§4.3, §5, §6): it loads
// a graph, compiles it, and on each tick resolves inputs, runs process/onSink
// hooks, tracks watchdogs, and reports through host-supplied accessors.
package runtime

import (
	"sync"
	"time"

	"github.com/signalstage/core/compile"
	serr "github.com/signalstage/core/errors"
	"github.com/signalstage/core/logger"
	"github.com/signalstage/core/node"
	"github.com/signalstage/core/override"
)

const (
	defaultTickIntervalMs = int64(33)
	minTickIntervalMs     = int64(5)
	maxTickIntervalMs     = int64(250)
	defaultMaxSinkValues  = 200
)

// Options configures a Runtime at construction time (§6 "Construction options").
type Options struct {
	TickIntervalMs       int64
	MaxSinkValuesPerTick int
	OscillationWindow    int
	OscillationSpanMs    int64

	IsNodeEnabled    func(nodeID string) bool
	IsComputeEnabled func(nodeID string) bool
	IsSinkEnabled    func(nodeID string) bool

	OnTick     func(durationMs int64, timeMs int64)
	OnWatchdog func(info WatchdogInfo)
}

func (o *Options) normalize() {
	if o.TickIntervalMs <= 0 {
		o.TickIntervalMs = defaultTickIntervalMs
	}
	if o.TickIntervalMs < minTickIntervalMs {
		o.TickIntervalMs = minTickIntervalMs
	}
	if o.TickIntervalMs > maxTickIntervalMs {
		o.TickIntervalMs = maxTickIntervalMs
	}
	if o.MaxSinkValuesPerTick <= 0 {
		o.MaxSinkValuesPerTick = defaultMaxSinkValues
	}
	if o.IsNodeEnabled == nil {
		o.IsNodeEnabled = func(string) bool { return true }
	}
	if o.IsComputeEnabled == nil {
		o.IsComputeEnabled = func(string) bool { return true }
	}
	if o.IsSinkEnabled == nil {
		o.IsSinkEnabled = func(string) bool { return true }
	}
}

// sinkCache is the per-node state the sink pass compares against to decide
// whether onSink should run again (§4.3 step 4).
type sinkCache struct {
	hadSink    bool
	lastInputs node.Inputs
	lastConfig node.Config
	lastCmdSig map[string]map[string]string // sinkPortID -> action -> signature
}

// Runtime owns one graph's mutable working copy, its overrides, compiled
// order, and all per-tick caches (§5 "Shared resources").
type Runtime struct {
	mu sync.Mutex

	registry node.Lookup
	host     Host
	opts     Options

	state          *node.GraphState
	executionOrder []*node.Instance
	dirty          bool

	overrides *override.Manager
	oscTrack  *oscillationTracker

	lastComputedInputs map[string]node.Inputs
	enabledLast        map[string]bool
	sinkCaches         map[string]*sinkCache

	clockMs int64

	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
	active bool

	halted bool
}

// New constructs a Runtime bound to a node registry/lookup and a host.
func New(registry node.Lookup, host Host, opts Options) *Runtime {
	opts.normalize()
	if host == nil {
		host = NopHost{}
	}
	return &Runtime{
		registry:           registry,
		host:               host,
		opts:               opts,
		overrides:          override.NewManager(),
		oscTrack:           newOscillationTracker(opts.OscillationWindow, opts.OscillationSpanMs),
		lastComputedInputs: map[string]node.Inputs{},
		enabledLast:        map[string]bool{},
		sinkCaches:         map[string]*sinkCache{},
	}
}

// LoadGraph replaces the world (§6). It validates every node type is
// registered and every connection endpoint exists, and rejects more than one
// incoming connection to a data input port.
func (r *Runtime) LoadGraph(state *node.GraphState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.validate(state); err != nil {
		return err
	}

	r.state = state.Clone()
	r.dirty = true
	r.overrides.Clear()
	r.oscTrack.Reset()
	r.lastComputedInputs = map[string]node.Inputs{}
	r.enabledLast = map[string]bool{}
	r.sinkCaches = map[string]*sinkCache{}
	r.halted = false
	return nil
}

func (r *Runtime) validate(state *node.GraphState) error {
	ids := make(map[string]*node.Instance, len(state.Nodes))
	for _, n := range state.Nodes {
		def, ok := r.registry.Get(n.Type)
		if !ok {
			return serr.NewProgrammerError("unknown node type %q for node %q", n.Type, n.ID)
		}
		_ = def
		ids[n.ID] = n
	}

	dataInputCounts := map[string]int{}
	for _, c := range state.Connections {
		src, ok := ids[c.SourceNodeID]
		if !ok {
			return serr.NewProgrammerError("connection %q references unknown source node %q", c.ID, c.SourceNodeID)
		}
		tgt, ok := ids[c.TargetNodeID]
		if !ok {
			return serr.NewProgrammerError("connection %q references unknown target node %q", c.ID, c.TargetNodeID)
		}
		srcDef, _ := r.registry.Get(src.Type)
		tgtDef, _ := r.registry.Get(tgt.Type)
		if _, ok := srcDef.OutputPort(c.SourcePortID); !ok {
			return serr.NewProgrammerError("connection %q references unknown source port %q on %q", c.ID, c.SourcePortID, src.ID)
		}
		targetPort, ok := tgtDef.InputPort(c.TargetPortID)
		if !ok {
			return serr.NewProgrammerError("connection %q references unknown target port %q on %q", c.ID, c.TargetPortID, tgt.ID)
		}
		if targetPort.Kind == node.PortData {
			key := c.TargetNodeID + "." + c.TargetPortID
			dataInputCounts[key]++
			if dataInputCounts[key] > 1 {
				return serr.NewProgrammerError("data input %q on node %q accepts at most one connection", c.TargetPortID, c.TargetNodeID)
			}
		}
	}
	return nil
}

// SetTickIntervalMs updates the tick period; clamped to [5, 250].
func (r *Runtime) SetTickIntervalMs(ms int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opts.TickIntervalMs = ms
	r.opts.normalize()
	if r.active {
		r.restartTickerLocked()
	}
}

// Start begins ticking on a wall-clock interval until Stop is called.
func (r *Runtime) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		return
	}
	r.active = true
	r.halted = false
	r.restartTickerLocked()
}

func (r *Runtime) restartTickerLocked() {
	if r.ticker != nil {
		r.ticker.Stop()
	}
	if r.stopCh != nil {
		close(r.stopCh)
	}
	r.ticker = time.NewTicker(time.Duration(r.opts.TickIntervalMs) * time.Millisecond)
	r.stopCh = make(chan struct{})
	ticker := r.ticker
	stopCh := r.stopCh
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		last := time.Now()
		for {
			select {
			case now := <-ticker.C:
				delta := now.Sub(last)
				last = now
				r.runTick(delta.Milliseconds())
			case <-stopCh:
				return
			}
		}
	}()
}

// Stop flushes onDisable for every node in topological order, clears
// outputs, drops cached sink state, and cancels the interval (§5).
func (r *Runtime) Stop() {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return
	}
	r.active = false
	if r.ticker != nil {
		r.ticker.Stop()
	}
	stopCh := r.stopCh
	r.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
	}
	r.wg.Wait()

	r.mu.Lock()
	r.flushDisableAllLocked()
	r.mu.Unlock()
}

func (r *Runtime) flushDisableAllLocked() {
	if r.state == nil {
		return
	}
	order := r.executionOrder
	if order == nil {
		order = r.state.Nodes
	}
	now := r.clockMs
	for _, n := range order {
		def, ok := r.registry.Get(n.Type)
		if ok && def.OnDisable != nil {
			inputs := r.lastComputedInputs[n.ID]
			cfg := r.effectiveConfig(n, def, now)
			r.safeCall(n.ID, "onDisable", func() {
				def.OnDisable(inputs, cfg, r.ctxFor(n, now, 0))
			})
		}
		n.OutputValues = map[string]node.Value{}
	}
	r.sinkCaches = map[string]*sinkCache{}
}

// Clear removes the loaded graph entirely, stopping the runtime first if
// it's running.
func (r *Runtime) Clear() {
	r.Stop()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = nil
	r.executionOrder = nil
	r.dirty = false
	r.overrides.Clear()
	r.oscTrack.Reset()
	r.lastComputedInputs = map[string]node.Inputs{}
	r.enabledLast = map[string]bool{}
	r.sinkCaches = map[string]*sinkCache{}
}

// ApplyOverride sets a node input/config override (§4.4). ttlMs<=0 means
// permanent until explicitly removed.
func (r *Runtime) ApplyOverride(nodeID string, kind override.Kind, key string, value node.Value, ttlMs int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides.Apply(nodeID, kind, key, value, ttlMs, r.clockMs)
}

func (r *Runtime) RemoveOverride(nodeID string, kind override.Kind, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides.Remove(nodeID, kind, key)
}

func (r *Runtime) ClearOverrides() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides.Clear()
}

// GetNode returns a snapshot copy of one node instance.
func (r *Runtime) GetNode(id string) (*node.Instance, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == nil {
		return nil, false
	}
	n, ok := r.state.NodeByID(id)
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

// GetLastComputedInputs returns the snapshot of inputs resolved for a node
// in the most recent compute pass, per §9's "snapshot, not a live pointer".
func (r *Runtime) GetLastComputedInputs(id string) node.Inputs {
	r.mu.Lock()
	defer r.mu.Unlock()
	src := r.lastComputedInputs[id]
	out := make(node.Inputs, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// ExportGraph returns a deep-copy snapshot of the current graph state.
func (r *Runtime) ExportGraph() *node.GraphState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == nil {
		return &node.GraphState{}
	}
	return r.state.Clone()
}

// GetGraphRef returns the runtime's live graph state pointer. Callers must
// not mutate it; it exists for host code that needs zero-copy reads between
// ticks (§5 "external accessors read stale-but-consistent snapshots").
func (r *Runtime) GetGraphRef() *node.GraphState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// CompileNow forces an immediate recompile, bypassing the dirty check.
func (r *Runtime) CompileNow() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.compileLocked()
}

func (r *Runtime) compileLocked() error {
	if r.state == nil {
		r.executionOrder = nil
		r.dirty = false
		return nil
	}
	result, err := compile.Compile(r.state, r.registry)
	if err != nil {
		r.emitWatchdog(WatchdogInfo{Reason: ReasonCompileError, Message: err.Error()})
		r.halted = true
		return err
	}
	r.executionOrder = result.ExecutionOrder
	r.dirty = false
	return nil
}

// emitWatchdog logs the envelope at a severity matching its reason (halting
// reasons are errors, oscillation is advisory) and then forwards it to the
// host's OnWatchdog, if any.
func (r *Runtime) emitWatchdog(info WatchdogInfo) {
	if info.Reason == ReasonOscillation {
		logger.WatchdogWarnw(info.Message, "reason", info.Reason, "diagnostics", info.Diagnostics)
	} else {
		logger.WatchdogErrorw(info.Message, "reason", info.Reason, "diagnostics", info.Diagnostics)
	}
	if r.opts.OnWatchdog != nil {
		r.opts.OnWatchdog(info)
	}
}

// safeCall runs fn with panic recovery (§7 "NodeHookException"): a panicking
// hook never crashes the tick loop. The hook's outputs for this tick stay
// empty and the failure is logged, not surfaced as an error return.
func (r *Runtime) safeCall(nodeID, hook string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			err := serr.NewNodeHookError(nodeID, hook, serr.Newf("panic: %v", rec))
			logger.Logger.Warnw("node hook panicked", "nodeId", nodeID, "hook", hook, "err", err)
		}
	}()
	fn()
}
