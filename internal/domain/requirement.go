package domain

import (
	"bytes"
	"encoding/json"
	"slices"
)

// Requirement actions.
const (
	ActionAllow = "allow"
	ActionDeny  = "deny"
)

// Requirement is a firewall-like rule computed by the inventory service for a scenario.
// Everything except Selected is owned by the server and read-only once
// received. Selected is local UI state and never crosses the wire.
type Requirement struct {
	ID           Identifier `json:"id"`
	Name         string     `json:"name"`
	Services     []Service  `json:"services"`
	Applications []string   `json:"applications"`
	Action       string     `json:"action"`
	Selected     bool       `json:"-"`

	// raw is the object as the server sent it, minus any "selected" key.
	// A requirement submitted for apply is written back from raw.
	raw json.RawMessage
}

// Service is a named service and its ports, displayed alongside a requirement.
type Service struct {
	Name  string `json:"name,omitempty"`
	Ports []Port `json:"ports,omitempty"`
}

// RequirementSet is the authoritative answer of the inventory service to a
// fetch, apply or remove.
type RequirementSet struct {
	ExistingRequirements []Requirement `json:"existingRequirements"`
	NewRequirements      []Requirement `json:"newRequirements"`
}

type requirementJSON struct {
	ID           Identifier `json:"id"`
	Name         string     `json:"name"`
	Services     []Service  `json:"services,omitempty"`
	Applications []string   `json:"applications,omitempty"`
	Action       string     `json:"action"`
}

// UnmarshalJSON decodes a requirement and keeps the received object for
// writing it back. Selected is always false on a decoded requirement.
func (r *Requirement) UnmarshalJSON(data []byte) error {
	var known requirementJSON
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	raw, err := withoutKey(data, "selected")
	if err != nil {
		return err
	}
	*r = Requirement{
		ID:           known.ID,
		Name:         known.Name,
		Services:     known.Services,
		Applications: known.Applications,
		Action:       known.Action,
		raw:          raw,
	}
	return nil
}

// MarshalJSON writes a decoded requirement back as it was received. A
// requirement built in code is encoded from its fields.
func (r Requirement) MarshalJSON() ([]byte, error) {
	if r.raw != nil {
		return r.raw, nil
	}
	return json.Marshal(requirementJSON{
		ID:           r.ID,
		Name:         r.Name,
		Services:     r.Services,
		Applications: r.Applications,
		Action:       r.Action,
	})
}

// Field returns a field of the object the server sent.
func (r Requirement) Field(name string) (json.RawMessage, bool) {
	return field(r.raw, name)
}

// Clone returns a deep copy of the requirement.
func (r Requirement) Clone() Requirement {
	out := r
	if r.Services != nil {
		out.Services = make([]Service, len(r.Services))
		for i, svc := range r.Services {
			out.Services[i] = Service{Name: svc.Name, Ports: slices.Clone(svc.Ports)}
		}
	}
	out.Applications = slices.Clone(r.Applications)
	out.raw = slices.Clone(r.raw)
	return out
}

// IsDeny reports whether the requirement blocks traffic.
func (r Requirement) IsDeny() bool {
	return r.Action == ActionDeny
}

// CloneRequirements deep-copies a requirement list, preserving nil.
func CloneRequirements(reqs []Requirement) []Requirement {
	if reqs == nil {
		return nil
	}
	out := make([]Requirement, len(reqs))
	for i, r := range reqs {
		out[i] = r.Clone()
	}
	return out
}

// rawObject returns a copy of the JSON object data, or nil for null.
func rawObject(data []byte) (json.RawMessage, error) {
	_, raw, err := decodeObject(data)
	return raw, err
}

// withoutKey returns a copy of the JSON object data with key removed. The
// bytes are kept as received when the key is absent.
func withoutKey(data []byte, key string) (json.RawMessage, error) {
	fields, raw, err := decodeObject(data)
	if err != nil || raw == nil {
		return raw, err
	}
	if _, ok := fields[key]; !ok {
		return raw, nil
	}
	delete(fields, key)
	return json.Marshal(fields)
}

func decodeObject(data []byte) (map[string]json.RawMessage, json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, nil, err
	}
	if fields == nil {
		return nil, nil, nil
	}
	return fields, bytes.TrimSpace(bytes.Clone(data)), nil
}

func field(raw json.RawMessage, name string) (json.RawMessage, bool) {
	if raw == nil {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false
	}
	v, ok := fields[name]
	return v, ok
}
