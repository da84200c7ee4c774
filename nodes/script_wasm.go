package nodes

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/signalstage/core/logger"
	"github.com/signalstage/core/node"
)

const scriptWasmBudget = 50 * time.Millisecond

var (
	errMissingExport = errors.New("script-wasm: module missing wasm_alloc/wasm_free/process export")
	errAllocFailed   = errors.New("script-wasm: wasm_alloc returned null")
	errMemoryWrite   = errors.New("script-wasm: memory write out of range")
	errMemoryRead    = errors.New("script-wasm: memory read out of range")
)

// scriptWasmInstance is one node's cached compiled module, built on the
// node's first process call (or when its module string changes) and reused
// across ticks. api.Module isn't a
// node.Value so, like proc-push-image-upload's rate.Limiter, it lives
// outside ctx.State in a process-wide map keyed by node id.
type scriptWasmInstance struct {
	runtime   wazero.Runtime
	mod       api.Module
	moduleB64 string
}

var (
	scriptWasmInstancesMu sync.Mutex
	scriptWasmInstances   = map[string]*scriptWasmInstance{}
)

func scriptWasmInstanceFor(ctx context.Context, nodeID, moduleB64 string) (*scriptWasmInstance, error) {
	scriptWasmInstancesMu.Lock()
	if inst, ok := scriptWasmInstances[nodeID]; ok {
		if inst.moduleB64 == moduleB64 {
			scriptWasmInstancesMu.Unlock()
			return inst, nil
		}
		inst.runtime.Close(context.Background())
		delete(scriptWasmInstances, nodeID)
	}
	scriptWasmInstancesMu.Unlock()

	wasmBytes, err := base64.StdEncoding.DecodeString(moduleB64)
	if err != nil {
		return nil, err
	}
	rt := wazero.NewRuntime(ctx)
	compiled, err := rt.CompileModule(ctx, wasmBytes)
	if err != nil {
		rt.Close(ctx)
		return nil, err
	}
	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(nodeID))
	if err != nil {
		rt.Close(ctx)
		return nil, err
	}

	inst := &scriptWasmInstance{runtime: rt, mod: mod, moduleB64: moduleB64}
	scriptWasmInstancesMu.Lock()
	scriptWasmInstances[nodeID] = inst
	scriptWasmInstancesMu.Unlock()
	return inst, nil
}

func closeScriptWasmInstance(nodeID string) {
	scriptWasmInstancesMu.Lock()
	defer scriptWasmInstancesMu.Unlock()
	if inst, ok := scriptWasmInstances[nodeID]; ok {
		inst.runtime.Close(context.Background())
		delete(scriptWasmInstances, nodeID)
	}
}

// scriptDefs implements the supplemental script-wasm kind (SPEC_FULL.md
// §4.6): a sandboxed custom processor running a user-supplied WebAssembly
// module.
func scriptDefs() []*node.Definition {
	return []*node.Definition{scriptWasmDef()}
}

// wasmEnvelope is the JSON shape crossing the module boundary both ways:
// {inputs,config} in, {outputs} out.
type wasmEnvelope struct {
	Inputs  map[string]interface{} `json:"inputs,omitempty"`
	Config  map[string]interface{} `json:"config,omitempty"`
	Outputs map[string]interface{} `json:"outputs,omitempty"`
}

func scriptWasmDef() *node.Definition {
	return &node.Definition{
		Type:     "script-wasm",
		Label:    "Script (WASM)",
		Category: "scripting",
		Inputs:   []node.Port{node.DataPort("in", "In", node.TypeAny, node.Null)},
		Outputs:  []node.Port{node.DataPort("out", "Out", node.TypeAny, node.Null)},
		Config:   []node.ConfigField{{Key: "module", Type: node.TypeString, Default: node.String("")}},
		Process: func(inputs node.Inputs, cfg node.Config, ctx node.ProcessContext) node.Outputs {
			out, err := runScriptWasm(ctx.NodeID, cfg["module"].AsString(), inputs, cfg)
			if err != nil {
				logger.Logger.Warnw("script-wasm invocation failed", "nodeId", ctx.NodeID, "err", err)
				return node.Outputs{}
			}
			outputs := make(node.Outputs, len(out))
			for k, v := range out {
				outputs[k] = toNodeValue(v)
			}
			return outputs
		},
		OnDisable: func(inputs node.Inputs, cfg node.Config, ctx node.ProcessContext) {
			closeScriptWasmInstance(ctx.NodeID)
		},
	}
}

// runScriptWasm reuses (or builds, on first call or module-string change)
// this node's cached wazero instance, then runs one bounded-timeout call
// against it — instantiation is paid once per node, not once per tick (§5),
// matching the single-module-call protocol of the pack's own WASM bridge
// (ats/wasm/engine.go).
func runScriptWasm(nodeID, moduleB64 string, inputs node.Inputs, cfg node.Config) (map[string]interface{}, error) {
	if moduleB64 == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), scriptWasmBudget)
	defer cancel()

	inst, err := scriptWasmInstanceFor(ctx, nodeID, moduleB64)
	if err != nil {
		return nil, err
	}

	envelope := wasmEnvelope{Inputs: toRawMap(inputs), Config: toRawConfigMap(cfg)}
	reqBytes, err := json.Marshal(envelope)
	if err != nil {
		return nil, err
	}

	respBytes, err := callProcessFn(ctx, inst.mod, reqBytes)
	if err != nil {
		return nil, err
	}

	var resp wasmEnvelope
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, err
	}
	return resp.Outputs, nil
}

// callProcessFn implements the (ptr,len)->(ptr,len) shared-memory protocol:
// allocate, write, call "process", read the packed (ptr<<32)|len result, free.
func callProcessFn(ctx context.Context, mod api.Module, req []byte) ([]byte, error) {
	allocFn := mod.ExportedFunction("wasm_alloc")
	freeFn := mod.ExportedFunction("wasm_free")
	processFn := mod.ExportedFunction("process")
	if allocFn == nil || freeFn == nil || processFn == nil {
		return nil, errMissingExport
	}

	size := uint64(len(req))
	results, err := allocFn.Call(ctx, size)
	if err != nil {
		return nil, err
	}
	ptr := results[0]
	if ptr == 0 {
		return nil, errAllocFailed
	}
	if !mod.Memory().Write(uint32(ptr), req) {
		freeFn.Call(ctx, ptr, size)
		return nil, errMemoryWrite
	}

	packed, err := processFn.Call(ctx, ptr, size)
	freeFn.Call(ctx, ptr, size)
	if err != nil {
		return nil, err
	}

	resultPtr := uint32(packed[0] >> 32)
	resultLen := uint32(packed[0] & 0xFFFFFFFF)
	if resultPtr == 0 {
		return []byte(`{}`), nil
	}
	data, ok := mod.Memory().Read(resultPtr, resultLen)
	if !ok {
		return nil, errMemoryRead
	}
	out := make([]byte, len(data))
	copy(out, data)
	freeFn.Call(ctx, uint64(resultPtr), uint64(resultLen))
	return out, nil
}

func toRawMap(inputs node.Inputs) map[string]interface{} {
	out := make(map[string]interface{}, len(inputs))
	for k, v := range inputs {
		out[k] = v.AsString()
		if v.Kind() == node.KindNumber || v.Kind() == node.KindFuzzy {
			out[k] = v.AsNumber()
		}
		if v.Kind() == node.KindBool {
			out[k] = v.AsBool()
		}
	}
	return out
}

func toRawConfigMap(cfg node.Config) map[string]interface{} {
	return toRawMap(node.Inputs(cfg))
}

func toNodeValue(v interface{}) node.Value {
	switch t := v.(type) {
	case float64:
		return node.Number(t)
	case bool:
		return node.Bool(t)
	case string:
		return node.String(t)
	default:
		return node.Null
	}
}
