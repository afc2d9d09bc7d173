// Package pending implements the local pending store: a durable, client-local
// queue of diary writes made while disconnected from the backend, keyed by
// entry id and drained by the connectivity monitor once back online.
package pending

import (
	"context"

	"github.com/nchiang/moodiary/internal/client/models"
)

// Repository describes the pending-write queue operations.
// Implementations are backed by a local SQLite database.
type Repository interface {
	// Put inserts or overwrites a pending record by id. Storage failures are
	// returned wrapped in common.ErrStorage; callers must surface them to the
	// user rather than silently lose the entry.
	Put(ctx context.Context, w *models.PendingWrite) error

	// GetAll returns all pending records. Insertion order is not guaranteed.
	// An empty store yields an empty slice, never nil.
	GetAll(ctx context.Context) ([]*models.PendingWrite, error)

	// Remove deletes a pending record by id; absent ids are a no-op.
	Remove(ctx context.Context, id string) error
}
