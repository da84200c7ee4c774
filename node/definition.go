package node

// ConfigField describes one entry of a node definition's config schema.
type ConfigField struct {
	Key     string
	Type    PortType
	Default Value
	Options []string // enumerated choices, for select-style config fields
	Min     *float64
	Max     *float64
	Step    *float64
}

// ProcessContext is computed fresh each tick from a monotonic clock (§3).
type ProcessContext struct {
	NodeID    string
	Time      int64 // ms, monotonic-ish wall clock the runtime maintains
	DeltaTime int64 // ms since this node's previous compute pass

	// State is the node instance's private memory, shared by reference
	// across ticks (node/instance.go's Instance.State). Stateful node
	// kinds (iterators, queues, oscillators) read and mutate it directly;
	// stateless kinds ignore it.
	State map[string]Value
}

// Inputs is the resolved data-input map a process()/onSink() hook receives:
// override > connection > stored inputValues > port default, as resolved by
// the tick loop (§4.3).
type Inputs map[string]Value

// Config is the effective config map (override-over-base) a hook receives.
type Config map[string]Value

// Outputs is what a process() hook returns; it wholly replaces the node's
// outputValues for the tick (§3 invariant: never partially merged).
type Outputs map[string]Value

// ProcessFunc is a pure transformation over data inputs. It must be
// synchronous and fast (§5): no goroutines, no blocking IO.
type ProcessFunc func(inputs Inputs, config Config, ctx ProcessContext) Outputs

// SinkFunc delivers side effects when a sink-port value (or relevant config)
// changes. inputs includes both the cached data view and the current sink
// values overlaid on top (§4.3).
type SinkFunc func(inputs Inputs, config Config, ctx ProcessContext)

// DisableFunc runs cleanup exactly once per disable transition: when a node
// becomes not-enabled, is disconnected from every sink, or the runtime stops.
type DisableFunc func(inputs Inputs, config Config, ctx ProcessContext)

// Definition is a node type's immutable metadata (§3 "Node definition").
// A zero-value Hook field means the node has no behavior for that phase.
type Definition struct {
	Type     string // globally unique
	Label    string
	Category string
	Inputs   []Port
	Outputs  []Port
	Config   []ConfigField

	Process   ProcessFunc
	OnSink    SinkFunc
	OnDisable DisableFunc

	// MinRuntimeVersion is an optional semver constraint (e.g. ">=0.3.0")
	// gating registration against the running core's own version — see
	// SPEC_FULL.md §4.1. Empty means "any version".
	MinRuntimeVersion string
}

// InputPort looks up a declared input port by id.
func (d *Definition) InputPort(id string) (Port, bool) {
	for _, p := range d.Inputs {
		if p.ID == id {
			return p, true
		}
	}
	return Port{}, false
}

// OutputPort looks up a declared output port by id.
func (d *Definition) OutputPort(id string) (Port, bool) {
	for _, p := range d.Outputs {
		if p.ID == id {
			return p, true
		}
	}
	return Port{}, false
}

// ConfigDefault returns a config field's declared default, or Null.
func (d *Definition) ConfigDefault(key string) Value {
	for _, f := range d.Config {
		if f.Key == key {
			return f.Default
		}
	}
	return Null
}

// SingleDataInOut reports the node's sole data input/output port pair, used
// by the generic passthrough-bypass heuristic (§4.3, §9): a disabled node
// qualifies for bypass only if it has exactly one data input and one data
// output whose types match and neither is command/client.
func (d *Definition) SingleDataInOut() (in, out Port, ok bool) {
	var dataIns, dataOuts []Port
	for _, p := range d.Inputs {
		if p.Kind == PortData {
			dataIns = append(dataIns, p)
		}
	}
	for _, p := range d.Outputs {
		if p.Kind == PortData {
			dataOuts = append(dataOuts, p)
		}
	}
	if len(dataIns) != 1 || len(dataOuts) != 1 {
		return Port{}, Port{}, false
	}
	in, out = dataIns[0], dataOuts[0]
	if in.Type != out.Type {
		return Port{}, Port{}, false
	}
	if in.Type == TypeCommand || in.Type == TypeClient {
		return Port{}, Port{}, false
	}
	return in, out, true
}
