// Package storagetest holds behaviour tests shared by every storage implementation.
package storagetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelliment/puppet-integration/internal/domain"
	"github.com/intelliment/puppet-integration/internal/storage"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func change(id string, minute int) *domain.ChangeRecord {
	return &domain.ChangeRecord{
		ID:             id,
		ScenarioID:     "7",
		ScenarioName:   "prod",
		EndpointURL:    "http://puppetdb:8080",
		Action:         domain.ChangeApply,
		RequirementIDs: []string{"1", "n-2"},
		Status:         domain.ChangeStatusSuccess,
		Operator:       "alice@example.com",
		CreatedAt:      base.Add(time.Duration(minute) * time.Minute),
	}
}

// Run exercises a fresh store returned by open.
func Run(t *testing.T, open func(t *testing.T) storage.Storage) {
	t.Run("CreateAndGet", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		c := change("a", 0)
		c.Action = domain.ChangeRemove
		c.Status = domain.ChangeStatusFailed
		c.Error = "Error removing requirements: HTTP 500"
		require.NoError(t, s.CreateChange(ctx, c))

		got, err := s.GetChange(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, c.ScenarioID, got.ScenarioID)
		assert.Equal(t, c.ScenarioName, got.ScenarioName)
		assert.Equal(t, c.EndpointURL, got.EndpointURL)
		assert.Equal(t, domain.ChangeRemove, got.Action)
		assert.Equal(t, []string{"1", "n-2"}, got.RequirementIDs)
		assert.Equal(t, domain.ChangeStatusFailed, got.Status)
		assert.Equal(t, c.Error, got.Error)
		assert.Equal(t, c.Operator, got.Operator)
		assert.True(t, c.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("Duplicate", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		require.NoError(t, s.CreateChange(ctx, change("a", 0)))
		assert.ErrorIs(t, s.CreateChange(ctx, change("a", 1)), domain.ErrAlreadyExists)
	})

	t.Run("NotFound", func(t *testing.T) {
		s := open(t)
		_, err := s.GetChange(context.Background(), "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("EmptyRequirementIDs", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		c := change("a", 0)
		c.RequirementIDs = nil
		require.NoError(t, s.CreateChange(ctx, c))

		got, err := s.GetChange(ctx, "a")
		require.NoError(t, err)
		assert.Empty(t, got.RequirementIDs)
	})

	t.Run("ListNewestFirst", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		for i := 0; i < 5; i++ {
			require.NoError(t, s.CreateChange(ctx, change(fmt.Sprintf("c%d", i), i)))
		}

		count, err := s.CountChanges(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, count)

		page, err := s.ListChanges(ctx, 2, 0)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "c4", page[0].ID)
		assert.Equal(t, "c3", page[1].ID)

		page, err = s.ListChanges(ctx, 10, 3)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "c1", page[0].ID)
		assert.Equal(t, "c0", page[1].ID)

		page, err = s.ListChanges(ctx, 10, 10)
		require.NoError(t, err)
		assert.Empty(t, page)
	})
}
