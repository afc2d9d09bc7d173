// Package repomanager vends repository implementations bound to a DBTX, so
// services can run the same repository code inside or outside a transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/nchiang/moodiary/internal/dbx"
	"github.com/nchiang/moodiary/internal/server/repositories/documents"
	"github.com/nchiang/moodiary/internal/server/repositories/refreshtokens"
	"github.com/nchiang/moodiary/internal/server/repositories/users"
)

type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Documents(db dbx.DBTX) documents.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
