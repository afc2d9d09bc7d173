package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/nchiang/moodiary/internal/common"
	"github.com/nchiang/moodiary/internal/server/models"
	"github.com/nchiang/moodiary/internal/server/repositories/repomanager"
)

// strayPrefix is the collection tree where historic clients misfiled entries
// under the literal segment "uid" instead of the account id. Any authenticated
// user may read it so their client can recover strays, but nobody writes here.
const strayPrefix = "users/uid/"

// DocumentService enforces per-user access on the path-addressed document
// store. A user owns the users/{their-id}/ tree; everything else is denied
// except read access to the stray tree.
type DocumentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(db *sql.DB, m repomanager.RepositoryManager) *DocumentService {
	return &DocumentService{db: db, repomanager: m}
}

func ownPrefix(userID string) string {
	return "users/" + userID + "/"
}

func canRead(userID, collection string) bool {
	return strings.HasPrefix(collection, ownPrefix(userID)) ||
		strings.HasPrefix(collection, strayPrefix)
}

func canWrite(userID, collection string) bool {
	return strings.HasPrefix(collection, ownPrefix(userID))
}

// List returns every document in a collection, newest date first.
func (s *DocumentService) List(ctx context.Context, userID, collection string) ([]*models.Document, error) {
	if !canRead(userID, collection) {
		return nil, common.ErrUnauthorized
	}
	return s.repomanager.Documents(s.db).List(ctx, collection)
}

// Get returns a single document by id.
func (s *DocumentService) Get(ctx context.Context, userID, collection, id string) (*models.Document, error) {
	if !canRead(userID, collection) {
		return nil, common.ErrUnauthorized
	}
	return s.repomanager.Documents(s.db).Get(ctx, collection, id)
}

// Set creates or fully replaces a document.
func (s *DocumentService) Set(ctx context.Context, userID string, doc *models.Document) error {
	if !canWrite(userID, doc.Collection) {
		return common.ErrUnauthorized
	}
	return s.repomanager.Documents(s.db).Upsert(ctx, doc)
}

// SetIfAbsent creates a document only when the id is free. An existing id
// returns common.ErrConflict and leaves the stored document untouched.
func (s *DocumentService) SetIfAbsent(ctx context.Context, userID string, doc *models.Document) error {
	if !canWrite(userID, doc.Collection) {
		return common.ErrUnauthorized
	}
	return s.repomanager.Documents(s.db).InsertIfAbsent(ctx, doc)
}

// Update merges the given fields into an existing document.
func (s *DocumentService) Update(ctx context.Context, userID, collection, id string, fields map[string]any) error {
	if !canWrite(userID, collection) {
		return common.ErrUnauthorized
	}
	return s.repomanager.Documents(s.db).MergeFields(ctx, collection, id, fields)
}

// Delete removes a document permanently.
func (s *DocumentService) Delete(ctx context.Context, userID, collection, id string) error {
	if !canWrite(userID, collection) {
		return common.ErrUnauthorized
	}
	return s.repomanager.Documents(s.db).Delete(ctx, collection, id)
}
