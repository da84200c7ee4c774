// Package node defines the data model of the Node Graph Runtime: ports,
// node definitions, node instances, connections, and the graph state they
// compose into. It is deliberately side-effect-free — the tick loop that
// interprets this model lives in package runtime.
package node

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Kind is the closed set of semantic port types a Value can carry. The set
// is intentionally open-ended at the type-system level (§9 design note):
// the runtime never statically checks a Value's Kind against the upstream
// port's declared PortType, it only carries the value across and lets each
// process() hook coerce at its own boundary.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindBool
	KindString
	KindColor
	KindArray
	KindImage
	KindEffect
	KindCommand
	KindClient
	KindFuzzy
)

// Value is the tagged union every port, override, and cached input/output
// carries. Exactly one of the typed accessors is meaningful for a given Kind;
// the others return their zero value.
type Value struct {
	kind    Kind
	number  float64
	boolean bool
	str     string
	array   []Value
	raw     interface{} // Color/Image/Effect/Command/Client/Fuzzy payloads
}

// Null is the empty value: disconnected ports and missing defaults resolve to it.
var Null = Value{kind: KindNull}

func Number(v float64) Value   { return Value{kind: KindNumber, number: v} }
func Bool(v bool) Value        { return Value{kind: KindBool, boolean: v} }
func String(v string) Value    { return Value{kind: KindString, str: v} }
func Array(v []Value) Value    { return Value{kind: KindArray, array: v} }
func Color(hex string) Value   { return Value{kind: KindColor, str: hex} }
func Image(url string) Value   { return Value{kind: KindImage, str: url} }
func Effect(e interface{}) Value   { return Value{kind: KindEffect, raw: e} }
func Command(c interface{}) Value  { return Value{kind: KindCommand, raw: c} }
func Client(c interface{}) Value   { return Value{kind: KindClient, raw: c} }
func Fuzzy(v float64) Value    { return Value{kind: KindFuzzy, number: v} }

func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsNull() bool    { return v.kind == KindNull }

// AsNumber is the "best-effort number-ification" helper the design notes
// call for: numbers and fuzzy values pass through, booleans become 0/1,
// strings parse if numeric, arrays yield their length, everything else is 0.
func (v Value) AsNumber() float64 {
	switch v.kind {
	case KindNumber, KindFuzzy:
		return v.number
	case KindBool:
		if v.boolean {
			return 1
		}
		return 0
	case KindString:
		var f float64
		if _, err := fmt.Sscanf(v.str, "%g", &f); err == nil {
			return f
		}
		return 0
	case KindArray:
		return float64(len(v.array))
	default:
		return 0
	}
}

// AsBool coerces to a boolean: nonzero numbers, non-empty strings/arrays,
// and true booleans are truthy; everything else (including Null) is false.
func (v Value) AsBool() bool {
	switch v.kind {
	case KindBool:
		return v.boolean
	case KindNumber, KindFuzzy:
		return v.number != 0
	case KindString:
		return v.str != ""
	case KindArray:
		return len(v.array) > 0
	case KindNull:
		return false
	default:
		return v.raw != nil
	}
}

func (v Value) AsString() string {
	switch v.kind {
	case KindString, KindColor, KindImage:
		return v.str
	case KindNumber, KindFuzzy:
		return fmt.Sprintf("%g", v.number)
	case KindBool:
		return fmt.Sprintf("%t", v.boolean)
	default:
		return ""
	}
}

func (v Value) AsArray() []Value {
	if v.kind == KindArray {
		return v.array
	}
	if v.kind == KindNull {
		return nil
	}
	return []Value{v}
}

// As unmarshals a Command/Effect/Client/general raw payload into out via a
// JSON round-trip, which is how the runtime keeps process() hooks decoupled
// from each other's concrete payload structs.
func (v Value) As(out interface{}) error {
	if v.raw == nil {
		return fmt.Errorf("value has no structured payload (kind=%v)", v.kind)
	}
	b, err := json.Marshal(v.raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// CanonicalJSON produces a stable JSON encoding (sorted object keys) used by
// the sink/command diffing and oscillation signature logic, which must be
// insensitive to Go map iteration order.
func (v Value) CanonicalJSON() string {
	return canonicalJSON(v.toInterface())
}

func (v Value) toInterface() interface{} {
	switch v.kind {
	case KindNull:
		return nil
	case KindNumber, KindFuzzy:
		return v.number
	case KindBool:
		return v.boolean
	case KindString, KindColor, KindImage:
		return v.str
	case KindArray:
		out := make([]interface{}, len(v.array))
		for i, e := range v.array {
			out[i] = e.toInterface()
		}
		return out
	default:
		return v.raw
	}
}

// canonicalJSON marshals an arbitrary value with map keys sorted, so two
// semantically-equal values always serialize identically regardless of
// construction order.
func canonicalJSON(v interface{}) string {
	b, err := json.Marshal(normalizeForCanon(v))
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// normalizeForCanon round-trips through JSON so arbitrary structs become
// map[string]interface{}, then recursively sorts map keys via ordered
// marshaling (encoding/json already sorts map[string]interface{} keys).
func normalizeForCanon(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var generic interface{}
	if err := json.Unmarshal(b, &generic); err != nil {
		return v
	}
	return sortedCopy(generic)
}

func sortedCopy(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(map[string]interface{}, len(t))
		for _, k := range keys {
			out[k] = sortedCopy(t[k])
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = sortedCopy(e)
		}
		return out
	default:
		return t
	}
}

// Equal reports deep equality via canonical JSON comparison, used by the
// determinism invariant (§8.3) and the sink-state change check (§4.3).
func (v Value) Equal(other Value) bool {
	return v.CanonicalJSON() == other.CanonicalJSON()
}

func (k Kind) wireName() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindColor:
		return "color"
	case KindArray:
		return "array"
	case KindImage:
		return "image"
	case KindEffect:
		return "effect"
	case KindCommand:
		return "command"
	case KindClient:
		return "client"
	case KindFuzzy:
		return "fuzzy"
	default:
		return "null"
	}
}

// valueWire is the on-the-wire shape of a Value (§6: GraphState persists
// through plain JSON). It keeps every Kind distinguishable across a
// round-trip, which a bare interface{} encoding would lose (e.g. a Color and
// a String both serialize to a JSON string).
type valueWire struct {
	Kind  string          `json:"kind"`
	Num   float64         `json:"num,omitempty"`
	Bool  bool            `json:"bool,omitempty"`
	Str   string          `json:"str,omitempty"`
	Arr   []Value         `json:"arr,omitempty"`
	Raw   json.RawMessage `json:"raw,omitempty"`
}

// MarshalJSON implements json.Marshaler so GraphState round-trips exactly
// through encoding/json per §6's persisted-state layout.
func (v Value) MarshalJSON() ([]byte, error) {
	w := valueWire{Kind: v.kind.wireName()}
	switch v.kind {
	case KindNumber, KindFuzzy:
		w.Num = v.number
	case KindBool:
		w.Bool = v.boolean
	case KindString, KindColor, KindImage:
		w.Str = v.str
	case KindArray:
		w.Arr = v.array
	case KindEffect, KindCommand, KindClient:
		raw, err := json.Marshal(v.raw)
		if err != nil {
			return nil, err
		}
		w.Raw = raw
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler, reconstructing the exact Kind a
// prior MarshalJSON call produced.
func (v *Value) UnmarshalJSON(data []byte) error {
	var w valueWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Kind {
	case "number":
		*v = Number(w.Num)
	case "fuzzy":
		*v = Fuzzy(w.Num)
	case "bool":
		*v = Bool(w.Bool)
	case "string":
		*v = String(w.Str)
	case "color":
		*v = Color(w.Str)
	case "image":
		*v = Image(w.Str)
	case "array":
		*v = Array(w.Arr)
	case "effect", "command", "client":
		var raw interface{}
		if len(w.Raw) > 0 {
			if err := json.Unmarshal(w.Raw, &raw); err != nil {
				return err
			}
		}
		switch w.Kind {
		case "effect":
			*v = Effect(raw)
		case "command":
			*v = Command(raw)
		case "client":
			*v = Client(raw)
		}
	default:
		*v = Null
	}
	return nil
}
