package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/nchiang/moodiary/internal/common"
	"github.com/nchiang/moodiary/internal/dbx"
	"github.com/nchiang/moodiary/internal/server/models"
	documentsrepo "github.com/nchiang/moodiary/internal/server/repositories/documents"
	refreshtokensrepo "github.com/nchiang/moodiary/internal/server/repositories/refreshtokens"
	usersrepo "github.com/nchiang/moodiary/internal/server/repositories/users"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type fakeUsersRepo struct {
	createOut *models.User
	createErr error

	getOut *models.User
	getErr error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createOut, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

type fakeRefreshRepo struct {
	findOut *models.RefreshToken
	findErr error

	delErr    error
	createErr error

	created []string
	deleted []string
}

func (f *fakeRefreshRepo) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, token)
	return nil
}

func (f *fakeRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeRefreshRepo) Delete(ctx context.Context, token string) error {
	if f.delErr != nil {
		return f.delErr
	}
	f.deleted = append(f.deleted, token)
	return nil
}

// fakeDocumentsRepo keeps documents in memory keyed by collection and id.
type fakeDocumentsRepo struct {
	docs map[string]map[string]*models.Document
}

func newFakeDocumentsRepo() *fakeDocumentsRepo {
	return &fakeDocumentsRepo{docs: map[string]map[string]*models.Document{}}
}

func (f *fakeDocumentsRepo) List(ctx context.Context, collection string) ([]*models.Document, error) {
	out := []*models.Document{}
	for _, d := range f.docs[collection] {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		di, _ := out[i].Data["date"].(string)
		dj, _ := out[j].Data["date"].(string)
		return di > dj
	})
	return out, nil
}

func (f *fakeDocumentsRepo) ListByCollectionSuffix(ctx context.Context, suffix string) ([]*models.Document, error) {
	out := []*models.Document{}
	for col, byID := range f.docs {
		if !strings.HasSuffix(col, suffix) {
			continue
		}
		for _, d := range byID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDocumentsRepo) Get(ctx context.Context, collection, id string) (*models.Document, error) {
	d, ok := f.docs[collection][id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return d, nil
}

func (f *fakeDocumentsRepo) Upsert(ctx context.Context, doc *models.Document) error {
	if f.docs[doc.Collection] == nil {
		f.docs[doc.Collection] = map[string]*models.Document{}
	}
	f.docs[doc.Collection][doc.ID] = doc
	return nil
}

func (f *fakeDocumentsRepo) InsertIfAbsent(ctx context.Context, doc *models.Document) error {
	if _, ok := f.docs[doc.Collection][doc.ID]; ok {
		return common.ErrConflict
	}
	return f.Upsert(ctx, doc)
}

func (f *fakeDocumentsRepo) MergeFields(ctx context.Context, collection, id string, fields map[string]any) error {
	d, ok := f.docs[collection][id]
	if !ok {
		return common.ErrNotFound
	}
	for k, v := range fields {
		d.Data[k] = v
	}
	return nil
}

func (f *fakeDocumentsRepo) Delete(ctx context.Context, collection, id string) error {
	delete(f.docs[collection], id)
	return nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRefreshRepo
	d *fakeDocumentsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error          { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository                { return m.u }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokensrepo.Repository { return m.r }
func (m *fakeRepoManager) Documents(db dbx.DBTX) documentsrepo.Repository        { return m.d }
