package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/intelliment/puppet-integration/internal/domain"
	"github.com/intelliment/puppet-integration/internal/session"
	"github.com/intelliment/puppet-integration/internal/storage/memory"
)

var _ session.Recorder = (*HistoryService)(nil)

func TestRecordChangeAssignsIDAndTime(t *testing.T) {
	svc := NewHistoryService(memory.New(), zap.NewNop())
	fixed := time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	change := &domain.ChangeRecord{
		ScenarioID:     "7",
		Action:         domain.ChangeApply,
		RequirementIDs: []string{"3"},
		Status:         domain.ChangeStatusSuccess,
	}
	require.NoError(t, svc.RecordChange(context.Background(), change))
	assert.NotEmpty(t, change.ID)
	assert.Equal(t, fixed, change.CreatedAt)

	got, err := svc.GetChange(context.Background(), change.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, got.RequirementIDs)
}

func TestListChangesPaging(t *testing.T) {
	svc := NewHistoryService(memory.New(), nil)
	ctx := context.Background()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		at := start.Add(time.Duration(i) * time.Hour)
		svc.now = func() time.Time { return at }
		require.NoError(t, svc.RecordChange(ctx, &domain.ChangeRecord{ScenarioName: string(rune('a' + i))}))
	}

	page, err := svc.ListChanges(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, page.Limit)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Changes, 3)
	assert.Equal(t, "c", page.Changes[0].ScenarioName)

	page, err = svc.ListChanges(ctx, 10000, 1)
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, page.Limit)
	assert.Len(t, page.Changes, 2)

	_, err = svc.ListChanges(ctx, 10, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetChangeNotFound(t *testing.T) {
	svc := NewHistoryService(memory.New(), nil)
	_, err := svc.GetChange(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
