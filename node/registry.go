package node

import (
	"sort"
	"sync"

	"github.com/Masterminds/semver/v3"

	serr "github.com/signalstage/core/errors"
)

// RuntimeVersion is the running core's own version, checked against each
// definition's MinRuntimeVersion constraint at registration time
// (SPEC_FULL.md §4.1). Overridable by hosts that embed a different release
// train (e.g. a vendored fork) via SetRuntimeVersion.
var RuntimeVersion = "0.1.0"

// SetRuntimeVersion overrides RuntimeVersion; intended for host bootstrap,
// not for use mid-session.
func SetRuntimeVersion(v string) { RuntimeVersion = v }

// Registry is a process-wide mapping from node type to definition. It is
// read-only during a tick (§4.1): all Register/Unregister calls happen at
// startup, before any runtime.Start().
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds a definition, rejecting duplicate types and version
// constraints the running core doesn't satisfy.
func (r *Registry) Register(def *Definition) error {
	if def.Type == "" {
		return serr.NewProgrammerError("node definition has empty Type")
	}

	if def.MinRuntimeVersion != "" {
		if err := checkVersionConstraint(def.Type, def.MinRuntimeVersion); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.Type]; exists {
		return serr.NewProgrammerError("duplicate node type %q", def.Type)
	}
	r.defs[def.Type] = def
	return nil
}

func checkVersionConstraint(typ, constraint string) error {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return serr.NewProgrammerError("node type %q has invalid MinRuntimeVersion %q: %v", typ, constraint, err)
	}
	v, err := semver.NewVersion(RuntimeVersion)
	if err != nil {
		return serr.NewProgrammerError("runtime version %q is not valid semver: %v", RuntimeVersion, err)
	}
	if !c.Check(v) {
		return serr.NewProgrammerError("node type %q requires runtime %s, running %s", typ, constraint, RuntimeVersion)
	}
	return nil
}

// Get resolves a node type to its definition.
func (r *Registry) Get(typ string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[typ]
	return d, ok
}

// List returns all registered definitions, sorted by type for determinism.
func (r *Registry) List() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// Unregister removes a node type. It does not affect instances already
// loaded into a runtime; that is the embedder's responsibility.
func (r *Registry) Unregister(typ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.defs, typ)
}
