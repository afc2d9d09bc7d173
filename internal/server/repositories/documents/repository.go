// Package documents provides the PostgreSQL-backed path-addressed document
// store behind the diary sync API.
package documents

import (
	"context"

	"github.com/nchiang/moodiary/internal/server/models"
)

type Repository interface {
	// List returns every document of a collection ordered by the stored
	// date field descending.
	List(ctx context.Context, collection string) ([]*models.Document, error)

	// ListByCollectionSuffix returns all documents whose collection path
	// ends with suffix, across users. The reminder job scans profiles with
	// this.
	ListByCollectionSuffix(ctx context.Context, suffix string) ([]*models.Document, error)

	// Get fetches one document; absent rows return common.ErrNotFound.
	Get(ctx context.Context, collection, id string) (*models.Document, error)

	// Upsert inserts or fully replaces a document.
	Upsert(ctx context.Context, doc *models.Document) error

	// InsertIfAbsent inserts only when no row with that key exists, else
	// returns common.ErrConflict and leaves the row untouched.
	InsertIfAbsent(ctx context.Context, doc *models.Document) error

	// MergeFields shallow-merges fields into an existing document's data;
	// absent rows return common.ErrNotFound.
	MergeFields(ctx context.Context, collection, id string, fields map[string]any) error

	// Delete removes a document; absent rows are a no-op.
	Delete(ctx context.Context, collection, id string) error
}
