package ports

import (
	"context"

	"featurelab/domain/core"
	"featurelab/domain/run"
)

// RunRepository persists the history of clustering runs
type RunRepository interface {
	// Create stores a run, assigning its ID and creation time when unset
	Create(ctx context.Context, record *run.Record) error

	// GetByID retrieves a single run
	GetByID(ctx context.Context, id core.ID) (*run.Record, error)

	// List returns the most recent runs first, optionally limited
	List(ctx context.Context, limit int) ([]*run.Record, error)

	// ListBySession returns the runs of one workbench session, most recent first
	ListBySession(ctx context.Context, sessionID core.ID, limit int) ([]*run.Record, error)
}
