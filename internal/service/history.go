package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/intelliment/puppet-integration/internal/domain"
	"github.com/intelliment/puppet-integration/internal/storage"
)

// Paging limits for history listings.
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// HistoryService records apply and remove attempts and serves them back.
type HistoryService struct {
	store  storage.Storage
	logger *zap.Logger
	now    func() time.Time
}

// ChangePage is one page of the change history.
type ChangePage struct {
	Changes []*domain.ChangeRecord `json:"changes"`
	Total   int                    `json:"total"`
	Limit   int                    `json:"limit"`
	Offset  int                    `json:"offset"`
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(store storage.Storage, logger *zap.Logger) *HistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// RecordChange stores a change, assigning its id and timestamp.
func (s *HistoryService) RecordChange(ctx context.Context, change *domain.ChangeRecord) error {
	change.ID = uuid.New().String()
	change.CreatedAt = s.now().UTC()

	if err := s.store.CreateChange(ctx, change); err != nil {
		return fmt.Errorf("storing change: %w", err)
	}

	s.logger.Info("change recorded",
		zap.String("id", change.ID),
		zap.String("action", string(change.Action)),
		zap.String("scenario", change.ScenarioID),
		zap.Int("requirements", len(change.RequirementIDs)),
		zap.String("status", change.Status),
		zap.String("operator", change.Operator),
	)
	return nil
}

// GetChange returns a single change.
func (s *HistoryService) GetChange(ctx context.Context, id string) (*domain.ChangeRecord, error) {
	return s.store.GetChange(ctx, id)
}

// ListChanges returns a page of changes, newest first. A non-positive limit
// means DefaultPageSize; limits above MaxPageSize are capped.
func (s *HistoryService) ListChanges(ctx context.Context, limit, offset int) (*ChangePage, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		return nil, fmt.Errorf("offset must not be negative: %w", domain.ErrInvalidInput)
	}

	changes, err := s.store.ListChanges(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing changes: %w", err)
	}
	total, err := s.store.CountChanges(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting changes: %w", err)
	}

	return &ChangePage{
		Changes: changes,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	}, nil
}
