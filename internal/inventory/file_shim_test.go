package inventory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelliment/puppet-integration/internal/domain"
)

const shimFixture = `{
	"scenarios": [{"id": 1, "name": "prod"}],
	"requirements": {
		"1": {
			"existingRequirements": [{"id": 10, "name": "ssh", "action": "allow"}],
			"newRequirements": [{"id": 20, "name": "web", "action": "allow"}, {"id": 21, "name": "telnet", "action": "deny"}]
		}
	}
}`

func newShim(t *testing.T) (*FileShim, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inventory.json")
	require.NoError(t, os.WriteFile(path, []byte(shimFixture), 0644))
	return NewFileShim(path, nil), path
}

func ids(reqs []domain.Requirement) []domain.Identifier {
	out := make([]domain.Identifier, len(reqs))
	for i, r := range reqs {
		out[i] = r.ID
	}
	return out
}

func TestFileShimMissingFileIsEmpty(t *testing.T) {
	shim := NewFileShim(filepath.Join(t.TempDir(), "absent.json"), nil)

	scenarios, err := shim.ListScenarios(context.Background())
	require.NoError(t, err)
	assert.Empty(t, scenarios)

	_, err = shim.GetRequirements(context.Background(), "1", endpoint)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFileShimApplyAndRemove(t *testing.T) {
	shim, path := newShim(t)
	ctx := context.Background()

	set, err := shim.GetRequirements(ctx, "1", endpoint)
	require.NoError(t, err)
	assert.Equal(t, []domain.Identifier{"10"}, ids(set.ExistingRequirements))
	assert.Equal(t, []domain.Identifier{"20", "21"}, ids(set.NewRequirements))

	set, err = shim.ApplyRequirements(ctx, "1", endpoint, set.NewRequirements[:1])
	require.NoError(t, err)
	assert.Equal(t, []domain.Identifier{"10", "20"}, ids(set.ExistingRequirements))
	assert.Equal(t, []domain.Identifier{"21"}, ids(set.NewRequirements))

	set, err = shim.RemoveRequirements(ctx, "1", endpoint, []domain.Identifier{"10"})
	require.NoError(t, err)
	assert.Equal(t, []domain.Identifier{"20"}, ids(set.ExistingRequirements))
	assert.Equal(t, []domain.Identifier{"21", "10"}, ids(set.NewRequirements))

	// State survives a fresh shim on the same file.
	reopened := NewFileShim(path, nil)
	set, err = reopened.GetRequirements(ctx, "1", endpoint)
	require.NoError(t, err)
	assert.Equal(t, []domain.Identifier{"20"}, ids(set.ExistingRequirements))
}

func TestFileShimUnknownScenario(t *testing.T) {
	shim, _ := newShim(t)

	_, err := shim.ApplyRequirements(context.Background(), "99", endpoint, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFileShimCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))

	_, err := NewFileShim(path, nil).ListScenarios(context.Background())
	assert.Error(t, err)
}
