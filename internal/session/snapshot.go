package session

import "github.com/intelliment/puppet-integration/internal/domain"

// State is a copy of what a session shows. Changing it does not affect the session.
type State struct {
	Initialized          bool
	Scenarios            []domain.Scenario
	SelectedScenario     *domain.Scenario
	ExistingRequirements []domain.Requirement
	NewRequirements      []domain.Requirement
	SelectAllExisting    bool
	SelectAllNew         bool
	Operation            Operation
	EndpointURL          string
	Operator             string
}

// Snapshot returns a deep copy of the session state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Initialized:          s.initialized,
		Scenarios:            cloneScenarios(s.scenarios),
		ExistingRequirements: domain.CloneRequirements(s.existing),
		NewRequirements:      domain.CloneRequirements(s.proposed),
		SelectAllExisting:    s.selectAllExisting,
		SelectAllNew:         s.selectAllNew,
		Operation:            s.op,
		EndpointURL:          s.endpointURL,
		Operator:             s.operator,
	}
	if s.selected != nil {
		selected := s.selected.Clone()
		st.SelectedScenario = &selected
	}
	return st
}

func cloneScenarios(scenarios []domain.Scenario) []domain.Scenario {
	if scenarios == nil {
		return nil
	}
	out := make([]domain.Scenario, len(scenarios))
	for i, sc := range scenarios {
		out[i] = sc.Clone()
	}
	return out
}

// Loading reports whether requirements were being fetched.
func (st State) Loading() bool { return st.Operation == OpFetching }

// Applying reports whether requirements were being applied.
func (st State) Applying() bool { return st.Operation == OpApplying }

// Removing reports whether requirements were being removed.
func (st State) Removing() bool { return st.Operation == OpRemoving }

// Busy reports whether any inventory call was in flight.
func (st State) Busy() bool { return st.Operation != OpNone }

// Requirements returns the named list.
func (st State) Requirements(list List) []domain.Requirement {
	switch list {
	case ListExisting:
		return st.ExistingRequirements
	case ListNew:
		return st.NewRequirements
	default:
		return nil
	}
}

// SelectedCount returns how many items of the named list are selected.
func (st State) SelectedCount(list List) int {
	n := 0
	for _, r := range st.Requirements(list) {
		if r.Selected {
			n++
		}
	}
	return n
}

// RequirementSet returns both lists in wire form.
func (st State) RequirementSet() domain.RequirementSet {
	set := domain.RequirementSet{
		ExistingRequirements: st.ExistingRequirements,
		NewRequirements:      st.NewRequirements,
	}
	if set.ExistingRequirements == nil {
		set.ExistingRequirements = []domain.Requirement{}
	}
	if set.NewRequirements == nil {
		set.NewRequirements = []domain.Requirement{}
	}
	return set
}
