package wshost

import "github.com/signalstage/core/node"

// inboundMessage is the envelope a client sends. Only the fields relevant to
// Type are populated.
type inboundMessage struct {
	Type string `json:"type"`

	// hello
	DesiredID  string `json:"desiredId"`
	DeviceID   string `json:"deviceId"`
	InstanceID string `json:"instanceId"`
	Manager    bool   `json:"manager"`

	// sensor / image
	Value node.Value `json:"value"`
}

// outboundMessage is the envelope sent to a client.
type outboundMessage struct {
	Type string `json:"type"`

	// welcome
	ClientID string `json:"clientId,omitempty"`

	// command
	Command         node.Value `json:"command,omitempty"`
	ServerTimestamp int64      `json:"serverTimestamp,omitempty"`
	ExecuteAt       int64      `json:"executeAt,omitempty"`
}
