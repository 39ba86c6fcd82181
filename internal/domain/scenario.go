package domain

import (
	"encoding/json"
	"slices"
)

// Scenario is a named deployment context that scopes which requirements apply.
// Catalog entries are read-only once fetched.
type Scenario struct {
	ID          Identifier `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`

	// raw is the catalog entry as the server sent it.
	raw json.RawMessage
}

type scenarioJSON struct {
	ID          Identifier `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
}

// UnmarshalJSON decodes a catalog entry and keeps it for writing it back.
func (s *Scenario) UnmarshalJSON(data []byte) error {
	var known scenarioJSON
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	raw, err := rawObject(data)
	if err != nil {
		return err
	}
	*s = Scenario{ID: known.ID, Name: known.Name, Description: known.Description, raw: raw}
	return nil
}

// MarshalJSON writes a decoded scenario back with every field the server
// sent. A scenario built in code is encoded from its fields.
func (s Scenario) MarshalJSON() ([]byte, error) {
	if s.raw != nil {
		return s.raw, nil
	}
	return json.Marshal(scenarioJSON{ID: s.ID, Name: s.Name, Description: s.Description})
}

// Field returns a field of the catalog entry the server sent.
func (s Scenario) Field(name string) (json.RawMessage, bool) {
	return field(s.raw, name)
}

// Clone returns a deep copy of the scenario.
func (s Scenario) Clone() Scenario {
	s.raw = slices.Clone(s.raw)
	return s
}

// FindScenario returns the scenario with the given id.
func FindScenario(scenarios []Scenario, id Identifier) (Scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return Scenario{}, false
}
