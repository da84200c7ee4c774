package runtime

import (
	"fmt"
	"sort"
)

// commandSignature produces the oscillation detector's compact signature for
// a command payload: the action name plus a canonical JSON form of the
// payload with every numeric field quantized to 2 decimal places. SPEC_FULL.md
// §9 resolves the source's inconsistent quantization (some fields rounded,
// others not) by quantizing uniformly rather than special-casing field names.
func commandSignature(action string, payload interface{}) string {
	return action + "|" + canonicalQuantized(payload)
}

func canonicalQuantized(v interface{}) string {
	return stringify(quantize(v))
}

// quantize walks an arbitrary JSON-shaped value (as produced by a round-trip
// through encoding/json, i.e. map[string]interface{}/[]interface{}/float64/
// string/bool/nil) and rounds every float64 to 2 decimal places.
func quantize(v interface{}) interface{} {
	switch t := v.(type) {
	case float64:
		return roundTo2(t)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = quantize(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = quantize(val)
		}
		return out
	default:
		return t
	}
}

func roundTo2(f float64) float64 {
	scaled := f * 100
	rounded := float64(int64(scaled + sign(scaled)*0.5))
	return rounded / 100
}

func sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

// stringify renders a quantized value deterministically (sorted map keys)
// without depending on encoding/json's own map-key ordering guarantees.
func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		return fmt.Sprintf("%t", t)
	case float64:
		return fmt.Sprintf("%g", t)
	case string:
		return fmt.Sprintf("%q", t)
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := "{"
		for i, k := range keys {
			if i > 0 {
				out += ","
			}
			out += fmt.Sprintf("%q:%s", k, stringify(t[k]))
		}
		return out + "}"
	case []interface{}:
		out := "["
		for i, e := range t {
			if i > 0 {
				out += ","
			}
			out += stringify(e)
		}
		return out + "]"
	default:
		return fmt.Sprintf("%v", t)
	}
}
