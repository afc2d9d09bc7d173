// Package remote implements the client side of the backend document store:
// an authenticated HTTP client exposing path-addressed document collections,
// plus account registration, login and token refresh.
package remote

import (
	"context"
	"fmt"

	"github.com/nchiang/moodiary/internal/client/models"
)

// Store is the remote document store as seen by the client. Paths are
// slash-separated collection addresses, e.g. "users/<uid>/diaries".
type Store interface {
	// ReadCollection lists every document in the collection at path, ordered
	// by the stored date field descending. A missing collection yields an
	// empty slice.
	ReadCollection(ctx context.Context, path string) ([]models.RawDocument, error)

	// Get fetches a single document by id. Absent documents return
	// common.ErrNotFound.
	Get(ctx context.Context, path string, id string) (models.RawDocument, error)

	// Set writes the full document at path/id, overwriting any existing one.
	Set(ctx context.Context, path string, id string, doc models.RawDocument) error

	// SetIfAbsent writes the document only when no document with that id
	// exists yet. An existing document returns common.ErrConflict and leaves
	// it untouched.
	SetIfAbsent(ctx context.Context, path string, id string, doc models.RawDocument) error

	// Update merges the given fields into an existing document. Absent
	// documents return common.ErrNotFound.
	Update(ctx context.Context, path string, id string, fields map[string]any) error

	// Delete removes a document. Deleting an absent id is not an error.
	Delete(ctx context.Context, path string, id string) error

	// Ping probes backend reachability without authentication.
	Ping(ctx context.Context) error
}

// CanonicalPath returns the collection all new writes for a user go to.
func CanonicalPath(userID string) string {
	return fmt.Sprintf("users/%s/diaries", userID)
}

// DiaryPaths returns the collection paths a user's entries may live under,
// in read order: the canonical collection first, then the two historical
// locations older app versions wrote to.
func DiaryPaths(userID string) []SourcePath {
	return []SourcePath{
		{Path: CanonicalPath(userID), Role: RoleCanonical},
		{Path: fmt.Sprintf("users/%s/diary", userID), Role: RoleLegacy},
		{Path: "users/uid/diaries", Role: RoleMisfiled},
	}
}

// SourcePath is a declared read location together with its role in
// reconciliation. Only the canonical path is ever written to.
type SourcePath struct {
	Path string
	Role SourceRole
}

// SourceRole tags how a source's documents are treated during reconciliation.
type SourceRole string

const (
	// RoleCanonical is the collection new writes go to.
	RoleCanonical SourceRole = "canonical"
	// RoleLegacy is the singular-named collection older clients wrote to.
	RoleLegacy SourceRole = "legacy"
	// RoleMisfiled is the shared collection entries were written to when the
	// user id placeholder was never substituted.
	RoleMisfiled SourceRole = "misfiled"
)
