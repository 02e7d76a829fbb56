package attestation

import (
	"bytes"
	"encoding/json"
	"strings"
)

// TEEType labels the confidential-computing environment inferred from local
// markers.
type TEEType string

const (
	TEENone    TEEType = "none"
	TEEGeneric TEEType = "generic-tee"
	TEESEVSNP  TEEType = "amd-sev-snp"
	TEETDX     TEEType = "intel-tdx"
)

// Label is the wire form used in status records.
func (t TEEType) Label() string {
	if t == TEENone {
		return "none detected"
	}
	return string(t)
}

// Evidence is the result of one marker scan. It is advisory: it indicates
// likely TEE presence, it is not cryptographic proof of anything.
type Evidence struct {
	Type    TEEType
	Markers []string // marker paths found, in check order
}

func (e Evidence) InTEE() bool {
	return e.Type != TEENone
}

func (e Evidence) String() string {
	if len(e.Markers) == 0 {
		return e.Type.Label()
	}
	return e.Type.Label() + " (" + strings.Join(e.Markers, ", ") + ")"
}

// GuestInfo is instance identity metadata reported by the dstack guest
// agent. Self-reported enrichment only; no quotes, no verification.
type GuestInfo struct {
	AppID      string `json:"app_id,omitempty"`
	InstanceID string `json:"instance_id,omitempty"`
	DeviceID   string `json:"device_id,omitempty"`
}

// Status is the attestation status record served to clients.
type Status struct {
	Server        string      `json:"server"`
	Version       string      `json:"version"`
	RunningInTEE  bool        `json:"running_in_tee"`
	TEEType       string      `json:"tee_type"`
	SecretsLoaded SecretFlags `json:"secrets_loaded"`
	Timestamp     string      `json:"timestamp"`
	TEEInfo       *GuestInfo  `json:"tee_info,omitempty"`
}

// SecretFlag reports one declared secret by name plus whether it was
// provisioned. Never the value.
type SecretFlag struct {
	Name   string
	Loaded bool
}

// SecretFlags marshals as a JSON object whose key order is the declared
// capability order. A plain map would sort its keys.
type SecretFlags []SecretFlag

func (f SecretFlags) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, fl := range f {
		if i > 0 {
			b.WriteByte(',')
		}
		name, err := json.Marshal(fl.Name)
		if err != nil {
			return nil, err
		}
		b.Write(name)
		b.WriteByte(':')
		if fl.Loaded {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}
