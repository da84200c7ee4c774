// Package clientsel implements the deterministic client-selection helper
// used by router nodes (§4.7): given a node id, the ordered list of
// currently connected client ids, and an {index, range, random} triple, it
// resolves which client ids a node should target this tick.
package clientsel

import "math/rand"

// Inputs is the resolved selection request a router node passes in.
type Inputs struct {
	Index  int  // 1-based; 0 or negative means "unset" -> defaults to 1
	Range  int  // count of ids to return; <=0 means "unset" -> defaults to 1
	Random bool
}

// Result is what selectClientIdsForNode returns (§4.7).
type Result struct {
	Index       int
	SelectedIDs []string
}

// SelectClientIdsForNode resolves a selection deterministically: random
// selection uses a PRNG seeded by hash(nodeId), so repeated ticks with
// identical (nodeId, clients, index, range) return identical selections
// (§9 "Deterministic random", §8 round-trip law).
func SelectClientIdsForNode(nodeID string, clients []string, in Inputs) Result {
	n := len(clients)
	if n == 0 {
		index := in.Index
		if index <= 0 {
			index = 1
		}
		return Result{Index: index, SelectedIDs: nil}
	}

	index := clampIndex(in.Index, n)
	rng := clampRange(in.Range, n)

	if in.Random {
		perm := deterministicPermutation(nodeID, n)
		selected := make([]string, 0, rng)
		for i := 0; i < rng; i++ {
			selected = append(selected, clients[perm[i]])
		}
		return Result{Index: index, SelectedIDs: selected}
	}

	start := index - 1
	selected := make([]string, 0, rng)
	for i := 0; i < rng; i++ {
		selected = append(selected, clients[(start+i)%n])
	}
	return Result{Index: index, SelectedIDs: selected}
}

func clampIndex(index, n int) int {
	if index <= 0 {
		index = 1
	}
	if index > n {
		index = n
	}
	return index
}

func clampRange(rng, n int) int {
	if rng <= 0 {
		rng = 1
	}
	if rng > n {
		rng = n
	}
	return rng
}

// deterministicPermutation returns a permutation of [0, n) seeded by
// hash(nodeId), stable across calls for the same (nodeId, n).
func deterministicPermutation(nodeID string, n int) []int {
	seed := hashNodeID(nodeID)
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(n)
	return perm
}

// hashNodeID is a small stable string hash (FNV-1a), independent of Go's
// randomized map iteration or string-hash seeding, so the same nodeId always
// yields the same PRNG seed across processes and runs.
func hashNodeID(s string) int64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return int64(h)
}
