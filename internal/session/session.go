// Package session holds the requirement session: the state an operator works
// on while reconciling a scenario's requirements with the inventory service.
//
// A session keeps the scenario catalog, the selected scenario, the existing
// and new requirement lists with their selection flags, and the operation in
// flight. Fetch, apply and remove each make one inventory call; on success
// both lists are replaced by the server's answer, on failure they are left
// alone and the operator is notified.
package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/intelliment/puppet-integration/internal/domain"
	"github.com/intelliment/puppet-integration/internal/inventory"
)

// Operation is the inventory call a session is waiting on.
type Operation int

const (
	OpNone Operation = iota
	OpFetching
	OpApplying
	OpRemoving
)

// String returns the operation name.
func (o Operation) String() string {
	switch o {
	case OpNone:
		return "none"
	case OpFetching:
		return "fetching"
	case OpApplying:
		return "applying"
	case OpRemoving:
		return "removing"
	default:
		return fmt.Sprintf("Operation(%d)", int(o))
	}
}

// List names one of the two requirement lists.
type List string

const (
	ListExisting List = "existing"
	ListNew      List = "new"
)

// ParseList parses a list name.
func ParseList(s string) (List, error) {
	switch List(s) {
	case ListExisting, ListNew:
		return List(s), nil
	default:
		return "", domain.ErrUnknownList
	}
}

// Recorder keeps a history of apply and remove attempts.
type Recorder interface {
	RecordChange(ctx context.Context, change *domain.ChangeRecord) error
}

// Config holds the collaborators of a session.
type Config struct {
	Inventory inventory.Service
	// EndpointURL is the inventory endpoint passed to every requirement call.
	EndpointURL string
	Notifier    Notifier
	Recorder    Recorder
	Operator    string
	Logger      *zap.Logger
}

// Session is a requirement session. It is safe for concurrent use; the lock
// is not held while the inventory service is being called.
type Session struct {
	inventory   inventory.Service
	endpointURL string
	notifier    Notifier
	recorder    Recorder
	operator    string
	logger      *zap.Logger

	mu                sync.Mutex
	initialized       bool
	scenarios         []domain.Scenario
	selected          *domain.Scenario
	existing          []domain.Requirement
	proposed          []domain.Requirement
	selectAllExisting bool
	selectAllNew      bool
	op                Operation
}

// New creates a new session. The inventory service and endpoint URL are required.
func New(cfg Config) (*Session, error) {
	if cfg.Inventory == nil {
		return nil, fmt.Errorf("session: inventory service is required")
	}
	if cfg.EndpointURL == "" {
		return nil, fmt.Errorf("session: inventory endpoint URL is required")
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NopNotifier{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Session{
		inventory:   cfg.Inventory,
		endpointURL: cfg.EndpointURL,
		notifier:    cfg.Notifier,
		recorder:    cfg.Recorder,
		operator:    cfg.Operator,
		logger:      cfg.Logger,
	}, nil
}

// Operator returns the operator the session was created for.
func (s *Session) Operator() string {
	return s.operator
}

// EndpointURL returns the inventory endpoint the session works against.
func (s *Session) EndpointURL() string {
	return s.endpointURL
}

// Initialize fetches the scenario catalog. It may be called once; on failure
// the catalog stays empty.
func (s *Session) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return domain.ErrAlreadyInitialized
	}
	s.initialized = true
	s.mu.Unlock()

	scenarios, err := s.inventory.ListScenarios(ctx)
	if err != nil {
		return s.fail("scenarios", domain.MsgScenariosFailed, err)
	}

	s.mu.Lock()
	s.scenarios = append([]domain.Scenario(nil), scenarios...)
	s.mu.Unlock()

	s.logger.Debug("scenario catalog loaded", zap.Int("scenarios", len(scenarios)))
	return nil
}

// SelectScenario selects a scenario from the catalog. An empty id clears the
// selection. Changing scenario drops the lists fetched for the previous one.
func (s *Session) SelectScenario(id domain.Identifier) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.op != OpNone {
		return s.rejectLocked(domain.ErrOperationInProgress)
	}
	if id == "" {
		s.selectLocked(nil)
		return nil
	}

	scenario, ok := domain.FindScenario(s.scenarios, id)
	if !ok {
		return s.rejectLocked(domain.ErrUnknownScenario)
	}
	if s.selected != nil && s.selected.ID == scenario.ID {
		return nil
	}
	s.selectLocked(&scenario)
	return nil
}

// ClearScenario clears the scenario selection.
func (s *Session) ClearScenario() error {
	return s.SelectScenario("")
}

func (s *Session) selectLocked(scenario *domain.Scenario) {
	s.selected = scenario
	s.replaceLocked(&domain.RequirementSet{})
}

// SetSelectAll sets the select-all flag of a list without touching its items.
func (s *Session) SetSelectAll(list List, all bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch list {
	case ListExisting:
		s.selectAllExisting = all
	case ListNew:
		s.selectAllNew = all
	default:
		return domain.ErrUnknownList
	}
	return nil
}

// ToggleSelectAll copies the list's select-all flag onto every item of that list.
func (s *Session) ToggleSelectAll(list List) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch list {
	case ListExisting:
		setAll(s.existing, s.selectAllExisting)
	case ListNew:
		setAll(s.proposed, s.selectAllNew)
	default:
		return domain.ErrUnknownList
	}
	return nil
}

// SetSelected marks a single requirement of a list.
func (s *Session) SetSelected(list List, id domain.Identifier, selected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reqs, err := s.listLocked(list)
	if err != nil {
		return err
	}
	for i := range reqs {
		if reqs[i].ID == id {
			reqs[i].Selected = selected
			return nil
		}
	}
	return fmt.Errorf("requirement %s: %w", id, domain.ErrNotFound)
}

// SetSelection marks exactly the given requirements of a list as selected.
// Unknown ids are ignored. It returns the number of selected items.
func (s *Session) SetSelection(list List, ids []domain.Identifier) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reqs, err := s.listLocked(list)
	if err != nil {
		return 0, err
	}
	want := make(map[domain.Identifier]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	n := 0
	for i := range reqs {
		reqs[i].Selected = want[reqs[i].ID]
		if reqs[i].Selected {
			n++
		}
	}
	return n, nil
}

func (s *Session) listLocked(list List) ([]domain.Requirement, error) {
	switch list {
	case ListExisting:
		return s.existing, nil
	case ListNew:
		return s.proposed, nil
	default:
		return nil, domain.ErrUnknownList
	}
}

// FetchRequirements loads the existing and new requirements of the selected scenario.
func (s *Session) FetchRequirements(ctx context.Context) error {
	scenario, err := s.begin(OpFetching, nil)
	if err != nil {
		return err
	}
	defer s.end()

	set, err := s.inventory.GetRequirements(ctx, scenario.ID, s.endpointURL)
	if err != nil {
		return s.fail("fetch", domain.MsgFetchFailed, err)
	}
	s.replace(set)
	return nil
}

// ApplyRequirements submits the selected new requirements, as full objects,
// for creation.
func (s *Session) ApplyRequirements(ctx context.Context) error {
	var payload []domain.Requirement
	scenario, err := s.begin(OpApplying, func() {
		payload = selectedRequirements(s.proposed)
	})
	if err != nil {
		return err
	}
	defer s.end()

	ids := make([]domain.Identifier, len(payload))
	for i, r := range payload {
		ids[i] = r.ID
	}

	set, err := s.inventory.ApplyRequirements(ctx, scenario.ID, s.endpointURL, payload)
	s.record(ctx, domain.ChangeApply, scenario, ids, err)
	if err != nil {
		return s.fail("apply", domain.MsgApplyFailed, err)
	}
	s.replace(set)
	return nil
}

// RemoveRequirements submits the ids of the selected existing requirements
// for deletion.
func (s *Session) RemoveRequirements(ctx context.Context) error {
	var ids []domain.Identifier
	scenario, err := s.begin(OpRemoving, func() {
		ids = selectedIDs(s.existing)
	})
	if err != nil {
		return err
	}
	defer s.end()

	set, err := s.inventory.RemoveRequirements(ctx, scenario.ID, s.endpointURL, ids)
	s.record(ctx, domain.ChangeRemove, scenario, ids, err)
	if err != nil {
		return s.fail("remove", domain.MsgRemoveFailed, err)
	}
	s.replace(set)
	return nil
}

// begin checks the preconditions of an inventory call and marks op as in
// flight. capture runs under the same lock so the payload matches the state
// the checks saw.
func (s *Session) begin(op Operation, capture func()) (domain.Scenario, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selected == nil {
		return domain.Scenario{}, s.rejectLocked(domain.ErrNoScenarioSelected)
	}
	if s.op != OpNone {
		return domain.Scenario{}, s.rejectLocked(domain.ErrOperationInProgress)
	}
	s.op = op
	if capture != nil {
		capture()
	}
	return *s.selected, nil
}

func (s *Session) end() {
	s.mu.Lock()
	s.op = OpNone
	s.mu.Unlock()
}

func (s *Session) replace(set *domain.RequirementSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(set)
}

// replaceLocked swaps both lists for fresh copies with nothing selected.
func (s *Session) replaceLocked(set *domain.RequirementSet) {
	s.existing = unselected(set.ExistingRequirements)
	s.proposed = unselected(set.NewRequirements)
	s.selectAllExisting = false
	s.selectAllNew = false
}

// rejectLocked reports a user input error. No inventory call follows.
func (s *Session) rejectLocked(err error) error {
	s.logger.Debug("operation rejected", zap.Error(err))
	s.notifier.Notify(err.Error())
	return err
}

func (s *Session) fail(op, message string, err error) error {
	s.logger.Warn("inventory call failed", zap.String("op", op), zap.String("operator", s.operator), zap.Error(err))
	s.notifier.Notify(message)
	return &domain.TransportError{Op: op, Message: message, Err: err}
}

func (s *Session) record(ctx context.Context, action domain.ChangeAction, scenario domain.Scenario, ids []domain.Identifier, callErr error) {
	if s.recorder == nil {
		return
	}

	change := &domain.ChangeRecord{
		ScenarioID:     scenario.ID.String(),
		ScenarioName:   scenario.Name,
		EndpointURL:    s.endpointURL,
		Action:         action,
		RequirementIDs: make([]string, len(ids)),
		Status:         domain.ChangeStatusSuccess,
		Operator:       s.operator,
	}
	for i, id := range ids {
		change.RequirementIDs[i] = id.String()
	}
	if callErr != nil {
		change.Status = domain.ChangeStatusFailed
		change.Error = callErr.Error()
	}

	// The change happened (or failed) regardless of whether the caller is still waiting.
	if err := s.recorder.RecordChange(context.WithoutCancel(ctx), change); err != nil {
		s.logger.Warn("recording change failed", zap.String("action", string(action)), zap.Error(err))
	}
}

// Operation returns the inventory call in flight, if any.
func (s *Session) Operation() Operation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.op
}

// Loading reports whether requirements are being fetched.
func (s *Session) Loading() bool { return s.Operation() == OpFetching }

// Applying reports whether requirements are being applied.
func (s *Session) Applying() bool { return s.Operation() == OpApplying }

// Removing reports whether requirements are being removed.
func (s *Session) Removing() bool { return s.Operation() == OpRemoving }

func setAll(reqs []domain.Requirement, selected bool) {
	for i := range reqs {
		reqs[i].Selected = selected
	}
}

func unselected(reqs []domain.Requirement) []domain.Requirement {
	out := domain.CloneRequirements(reqs)
	setAll(out, false)
	return out
}

func selectedRequirements(reqs []domain.Requirement) []domain.Requirement {
	out := make([]domain.Requirement, 0, len(reqs))
	for _, r := range reqs {
		if r.Selected {
			out = append(out, r.Clone())
		}
	}
	return out
}

func selectedIDs(reqs []domain.Requirement) []domain.Identifier {
	out := make([]domain.Identifier, 0, len(reqs))
	for _, r := range reqs {
		if r.Selected {
			out = append(out, r.ID)
		}
	}
	return out
}
