package domain

import "time"

// ChangeAction is the kind of write submitted to the inventory service.
type ChangeAction string

const (
	ChangeApply  ChangeAction = "apply"
	ChangeRemove ChangeAction = "remove"
)

// Change statuses.
const (
	ChangeStatusSuccess = "success"
	ChangeStatusFailed  = "failed"
)

// ChangeRecord is one apply or remove attempt, kept for the history view.
type ChangeRecord struct {
	ID             string       `json:"id" db:"id"`
	ScenarioID     string       `json:"scenarioId" db:"scenario_id"`
	ScenarioName   string       `json:"scenarioName" db:"scenario_name"`
	EndpointURL    string       `json:"endpointUrl" db:"endpoint_url"`
	Action         ChangeAction `json:"action" db:"action"`
	RequirementIDs []string     `json:"requirementIds" db:"-"` // Stored as JSON text
	Status         string       `json:"status" db:"status"`
	Error          string       `json:"error,omitempty" db:"error"`
	Operator       string       `json:"operator" db:"operator"`
	CreatedAt      time.Time    `json:"createdAt" db:"created_at"`
}

// Succeeded reports whether the inventory service accepted the change.
func (c *ChangeRecord) Succeeded() bool {
	return c.Status == ChangeStatusSuccess
}
