package storage

import (
	"context"

	"github.com/intelliment/puppet-integration/internal/domain"
)

// Storage defines the interface for the storage layer.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Close closes the storage connection.
	Close() error

	// Change history
	CreateChange(ctx context.Context, change *domain.ChangeRecord) error
	GetChange(ctx context.Context, id string) (*domain.ChangeRecord, error)
	// ListChanges returns changes newest first.
	ListChanges(ctx context.Context, limit, offset int) ([]*domain.ChangeRecord, error)
	CountChanges(ctx context.Context) (int, error)
}
