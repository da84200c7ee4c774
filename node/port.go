package node

// PortKind distinguishes compute (DAG-enforced) ports from sink (side-effect,
// cycles-permitted) ports — §3's "Port" invariant (a)/(b).
type PortKind string

const (
	PortData PortKind = "data"
	PortSink PortKind = "sink"
)

// PortType is the closed set of semantic port types from §3. It is advisory
// only: the runtime never blocks a connection because PortTypes differ, it
// just passes the Value through and lets process() coerce (§9).
type PortType string

const (
	TypeNumber  PortType = "number"
	TypeBoolean PortType = "boolean"
	TypeString  PortType = "string"
	TypeColor   PortType = "color"
	TypeArray   PortType = "array"
	TypeImage   PortType = "image"
	TypeEffect  PortType = "effect"
	TypeClient  PortType = "client"
	TypeCommand PortType = "command"
	TypeAny     PortType = "any"
	TypeFuzzy   PortType = "fuzzy"
)

// Port is an identifier, label, semantic type, optional default, and kind.
type Port struct {
	ID      string
	Label   string
	Type    PortType
	Default Value
	Kind    PortKind
}

// DataPort is a convenience constructor for the common case.
func DataPort(id, label string, t PortType, def Value) Port {
	return Port{ID: id, Label: label, Type: t, Default: def, Kind: PortData}
}

// SinkPort is a convenience constructor for side-effect ports.
func SinkPort(id, label string, t PortType) Port {
	return Port{ID: id, Label: label, Type: t, Default: Null, Kind: PortSink}
}
