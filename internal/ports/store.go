package ports

import (
	"context"

	"github.com/ghalamif/perftrace/internal/domain"
)

// EventStore persists decoded events.
type EventStore interface {
	Save(ctx context.Context, e domain.PerformanceEvent) error
	ListBySession(ctx context.Context, sessionID string) ([]domain.PerformanceEvent, error)
	Name() string
}
