package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/intelliment/puppet-integration/internal/domain"
)

// FileShim is a development and testing stand-in for the inventory service
// backed by a JSON file. Applying moves requirements from the new list to
// the existing list; removing moves them back.
type FileShim struct {
	filePath string
	logger   *zap.Logger
	mu       sync.Mutex
}

// Ensure FileShim implements Service.
var _ Service = (*FileShim)(nil)

// ShimData is the layout of the shim file.
type ShimData struct {
	Scenarios []domain.Scenario `json:"scenarios"`
	// Requirements is keyed by scenario id.
	Requirements map[string]*domain.RequirementSet `json:"requirements"`
}

// NewFileShim creates a new file-based shim.
func NewFileShim(filePath string, logger *zap.Logger) *FileShim {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileShim{filePath: filePath, logger: logger}
}

// ListScenarios reads the scenario catalog from the file.
func (f *FileShim) ListScenarios(ctx context.Context) ([]domain.Scenario, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return nil, err
	}
	if data.Scenarios == nil {
		return []domain.Scenario{}, nil
	}
	return data.Scenarios, nil
}

// GetRequirements returns the stored requirement set of a scenario.
func (f *FileShim) GetRequirements(ctx context.Context, scenarioID domain.Identifier, endpointURL string) (*domain.RequirementSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return nil, err
	}
	set, err := data.lookup(scenarioID)
	if err != nil {
		return nil, err
	}
	f.logger.Debug("shim requirements", zap.String("scenario", scenarioID.String()), zap.String("endpoint", endpointURL))
	return cloneSet(set), nil
}

// ApplyRequirements moves the submitted requirements to the existing list.
func (f *FileShim) ApplyRequirements(ctx context.Context, scenarioID domain.Identifier, endpointURL string, reqs []domain.Requirement) (*domain.RequirementSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return nil, err
	}
	set, err := data.lookup(scenarioID)
	if err != nil {
		return nil, err
	}

	ids := make([]domain.Identifier, len(reqs))
	for i, r := range reqs {
		ids[i] = r.ID
	}
	set.NewRequirements = withoutIDs(set.NewRequirements, ids)
	set.ExistingRequirements = append(withoutIDs(set.ExistingRequirements, ids), reqs...)

	if err := f.save(data); err != nil {
		return nil, err
	}
	f.logger.Info("shim applied requirements", zap.String("scenario", scenarioID.String()), zap.Int("count", len(reqs)))
	return cloneSet(set), nil
}

// RemoveRequirements moves the requirements with the given ids back to the new list.
func (f *FileShim) RemoveRequirements(ctx context.Context, scenarioID domain.Identifier, endpointURL string, ids []domain.Identifier) (*domain.RequirementSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return nil, err
	}
	set, err := data.lookup(scenarioID)
	if err != nil {
		return nil, err
	}

	var removed []domain.Requirement
	for _, r := range set.ExistingRequirements {
		if slices.Contains(ids, r.ID) {
			removed = append(removed, r)
		}
	}
	set.ExistingRequirements = withoutIDs(set.ExistingRequirements, ids)
	set.NewRequirements = append(withoutIDs(set.NewRequirements, ids), removed...)

	if err := f.save(data); err != nil {
		return nil, err
	}
	f.logger.Info("shim removed requirements", zap.String("scenario", scenarioID.String()), zap.Int("count", len(removed)))
	return cloneSet(set), nil
}

// load reads the shim file. A missing file is an empty inventory.
func (f *FileShim) load() (*ShimData, error) {
	raw, err := os.ReadFile(f.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ShimData{Requirements: map[string]*domain.RequirementSet{}}, nil
		}
		return nil, fmt.Errorf("reading shim file: %w", err)
	}

	var data ShimData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parsing shim file: %w", err)
	}
	if data.Requirements == nil {
		data.Requirements = map[string]*domain.RequirementSet{}
	}
	return &data, nil
}

func (f *FileShim) save(data *ShimData) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling shim data: %w", err)
	}
	if err := os.WriteFile(f.filePath, raw, 0644); err != nil {
		return fmt.Errorf("writing shim file: %w", err)
	}
	return nil
}

func (d *ShimData) lookup(scenarioID domain.Identifier) (*domain.RequirementSet, error) {
	if _, ok := domain.FindScenario(d.Scenarios, scenarioID); !ok {
		return nil, fmt.Errorf("scenario %s: %w", scenarioID, domain.ErrNotFound)
	}
	set, ok := d.Requirements[scenarioID.String()]
	if !ok {
		set = &domain.RequirementSet{}
		d.Requirements[scenarioID.String()] = set
	}
	return set, nil
}

func withoutIDs(reqs []domain.Requirement, ids []domain.Identifier) []domain.Requirement {
	out := make([]domain.Requirement, 0, len(reqs))
	for _, r := range reqs {
		if !slices.Contains(ids, r.ID) {
			out = append(out, r)
		}
	}
	return out
}

func cloneSet(set *domain.RequirementSet) *domain.RequirementSet {
	out := &domain.RequirementSet{
		ExistingRequirements: domain.CloneRequirements(set.ExistingRequirements),
		NewRequirements:      domain.CloneRequirements(set.NewRequirements),
	}
	if out.ExistingRequirements == nil {
		out.ExistingRequirements = []domain.Requirement{}
	}
	if out.NewRequirements == nil {
		out.NewRequirements = []domain.Requirement{}
	}
	return out
}
