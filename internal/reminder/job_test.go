package reminder

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nchiang/moodiary/internal/dbx"
	"github.com/nchiang/moodiary/internal/logging"
	"github.com/nchiang/moodiary/internal/server/models"
	documentsrepo "github.com/nchiang/moodiary/internal/server/repositories/documents"
	refreshtokensrepo "github.com/nchiang/moodiary/internal/server/repositories/refreshtokens"
	usersrepo "github.com/nchiang/moodiary/internal/server/repositories/users"
)

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (nopLogger) With(...any) logging.Logger            { return nopLogger{} }

type fakeDocsRepo struct {
	docs map[string][]*models.Document

	merged map[string]map[string]any
}

func (f *fakeDocsRepo) List(ctx context.Context, collection string) ([]*models.Document, error) {
	return f.docs[collection], nil
}

func (f *fakeDocsRepo) ListByCollectionSuffix(ctx context.Context, suffix string) ([]*models.Document, error) {
	var out []*models.Document
	for col, ds := range f.docs {
		if strings.HasSuffix(col, suffix) {
			out = append(out, ds...)
		}
	}
	return out, nil
}

func (f *fakeDocsRepo) Get(ctx context.Context, collection, id string) (*models.Document, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeDocsRepo) Upsert(ctx context.Context, doc *models.Document) error { return nil }
func (f *fakeDocsRepo) InsertIfAbsent(ctx context.Context, doc *models.Document) error {
	return nil
}

func (f *fakeDocsRepo) MergeFields(ctx context.Context, collection, id string, fields map[string]any) error {
	if f.merged == nil {
		f.merged = map[string]map[string]any{}
	}
	f.merged[collection+"/"+id] = fields
	return nil
}

func (f *fakeDocsRepo) Delete(ctx context.Context, collection, id string) error { return nil }

type fakeRepoManager struct {
	d *fakeDocsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error          { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository                   { return nil }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokensrepo.Repository   { return nil }
func (m *fakeRepoManager) Documents(dbx.DBTX) documentsrepo.Repository           { return m.d }

// fixedNow is 2024-03-05 21:05 UTC, five minutes into the default window.
var fixedNow = time.Date(2024, 3, 5, 21, 5, 0, 0, time.UTC)

func pinTime(t *testing.T) {
	t.Helper()
	origNow, origSleep, origSend := nowFn, sleepFn, sendMail
	nowFn = func() time.Time { return fixedNow }
	sleepFn = func(time.Duration) {}
	t.Cleanup(func() { nowFn, sleepFn, sendMail = origNow, origSleep, origSend })
}

func captureSends(t *testing.T) *[]string {
	t.Helper()
	var sent []string
	sendMail = func(apiKey, fromEmail, toEmail, appURL string) error {
		sent = append(sent, toEmail)
		return nil
	}
	return &sent
}

func profile(uid string, data map[string]any) *models.Document {
	return &models.Document{Collection: "users/" + uid + "/profile", ID: "profile", Data: data}
}

func newTestJob(repo *fakeDocsRepo) *Job {
	cfg := &Config{DefaultTZ: "UTC", AppURL: "http://localhost:5173", FromEmail: "noreply@moodiary.app"}
	return NewJob(cfg, nil, &fakeRepoManager{d: repo}, nopLogger{})
}

func TestRun_SendsInsideWindow(t *testing.T) {
	pinTime(t)
	sent := captureSends(t)

	repo := &fakeDocsRepo{docs: map[string][]*models.Document{
		"users/u1/profile": {profile("u1", map[string]any{
			"email": "u1@example.com", "reminderEnabled": true,
			"reminderTime": "21:00", "timezone": "UTC",
		})},
	}}

	sum, err := newTestJob(repo).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Summary{Sent: 1, Skipped: 0, Total: 1}, sum)
	assert.Equal(t, []string{"u1@example.com"}, *sent)

	fields := repo.merged["users/u1/profile/profile"]
	require.NotNil(t, fields)
	assert.Equal(t, "2024-03-05", fields["lastReminderSentDate"])
	assert.Equal(t, fixedNow.UnixMilli(), fields["lastReminderSentAt"])
}

func TestRun_SkipsOutsideWindow(t *testing.T) {
	pinTime(t)
	sent := captureSends(t)

	repo := &fakeDocsRepo{docs: map[string][]*models.Document{
		"users/u1/profile": {profile("u1", map[string]any{
			"email": "u1@example.com", "reminderEnabled": true,
			"reminderTime": "09:00", "timezone": "UTC",
		})},
	}}

	sum, err := newTestJob(repo).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Summary{Sent: 0, Skipped: 1, Total: 1}, sum)
	assert.Empty(t, *sent)
}

func TestRun_SkipsDisabledOrMissingEmail(t *testing.T) {
	pinTime(t)
	sent := captureSends(t)

	repo := &fakeDocsRepo{docs: map[string][]*models.Document{
		"users/u1/profile": {profile("u1", map[string]any{
			"email": "u1@example.com", "reminderEnabled": false, "reminderTime": "21:00", "timezone": "UTC",
		})},
		"users/u2/profile": {profile("u2", map[string]any{
			"reminderEnabled": true, "reminderTime": "21:00", "timezone": "UTC",
		})},
	}}

	sum, err := newTestJob(repo).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Sent)
	assert.Equal(t, 2, sum.Skipped)
	assert.Empty(t, *sent)
}

func TestRun_LegacyOptInFieldCounts(t *testing.T) {
	pinTime(t)
	sent := captureSends(t)

	repo := &fakeDocsRepo{docs: map[string][]*models.Document{
		"users/u1/profile": {profile("u1", map[string]any{
			"email": "u1@example.com", "reminderOptIn": true,
			"reminderTime": "21:00", "timezone": "UTC",
		})},
	}}

	sum, err := newTestJob(repo).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Sent)
	assert.Equal(t, []string{"u1@example.com"}, *sent)
}

func TestRun_SkipsWhenDiaryWrittenToday(t *testing.T) {
	pinTime(t)
	sent := captureSends(t)

	repo := &fakeDocsRepo{docs: map[string][]*models.Document{
		"users/u1/profile": {profile("u1", map[string]any{
			"email": "u1@example.com", "reminderEnabled": true, "reminderTime": "21:00", "timezone": "UTC",
		})},
		"users/u1/diaries": {
			{Collection: "users/u1/diaries", ID: "d1", Data: map[string]any{"date": "2024-03-05"}},
		},
	}}

	sum, err := newTestJob(repo).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Skipped)
	assert.Empty(t, *sent)
}

func TestRun_TimestampDateCountsAsToday(t *testing.T) {
	pinTime(t)
	sent := captureSends(t)

	repo := &fakeDocsRepo{docs: map[string][]*models.Document{
		"users/u1/profile": {profile("u1", map[string]any{
			"email": "u1@example.com", "reminderEnabled": true, "reminderTime": "21:00", "timezone": "UTC",
		})},
		"users/u1/diaries": {
			// JSON numbers arrive as float64 Unix milliseconds
			{Collection: "users/u1/diaries", ID: "d1", Data: map[string]any{"date": float64(fixedNow.Add(-2 * time.Hour).UnixMilli())}},
		},
	}}

	sum, err := newTestJob(repo).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Skipped)
	assert.Empty(t, *sent)
}

func TestRun_DeletedEntryDoesNotCount(t *testing.T) {
	pinTime(t)
	sent := captureSends(t)

	repo := &fakeDocsRepo{docs: map[string][]*models.Document{
		"users/u1/profile": {profile("u1", map[string]any{
			"email": "u1@example.com", "reminderEnabled": true, "reminderTime": "21:00", "timezone": "UTC",
		})},
		"users/u1/diaries": {
			{Collection: "users/u1/diaries", ID: "d1", Data: map[string]any{"date": "2024-03-05", "isDeleted": true}},
		},
	}}

	sum, err := newTestJob(repo).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Sent)
	assert.Equal(t, []string{"u1@example.com"}, *sent)
}

func TestRun_DeduplicatesPerDay(t *testing.T) {
	pinTime(t)
	sent := captureSends(t)

	repo := &fakeDocsRepo{docs: map[string][]*models.Document{
		"users/u1/profile": {profile("u1", map[string]any{
			"email": "u1@example.com", "reminderEnabled": true, "reminderTime": "21:00", "timezone": "UTC",
			"lastReminderSentDate": "2024-03-05",
		})},
	}}

	sum, err := newTestJob(repo).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Skipped)
	assert.Empty(t, *sent)
}

func TestRun_MalformedReminderTimeFallsBack(t *testing.T) {
	pinTime(t)
	sent := captureSends(t)

	// garbage time falls back to 21:00, and fixedNow is inside that window
	repo := &fakeDocsRepo{docs: map[string][]*models.Document{
		"users/u1/profile": {profile("u1", map[string]any{
			"email": "u1@example.com", "reminderEnabled": true, "reminderTime": "9pm", "timezone": "UTC",
		})},
	}}

	sum, err := newTestJob(repo).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Sent)
	assert.Equal(t, []string{"u1@example.com"}, *sent)
}

func TestRun_SendFailureCountsAsSkip(t *testing.T) {
	pinTime(t)
	sendMail = func(apiKey, fromEmail, toEmail, appURL string) error {
		return errors.New("sendgrid down")
	}

	repo := &fakeDocsRepo{docs: map[string][]*models.Document{
		"users/u1/profile": {profile("u1", map[string]any{
			"email": "u1@example.com", "reminderEnabled": true, "reminderTime": "21:00", "timezone": "UTC",
		})},
	}}

	sum, err := newTestJob(repo).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Summary{Sent: 0, Skipped: 1, Total: 1}, sum)
	assert.Nil(t, repo.merged)
}

func TestUserIDFromProfile(t *testing.T) {
	assert.Equal(t, "u1", userIDFromProfile("users/u1/profile"))
	assert.Equal(t, "", userIDFromProfile("users/u1/diaries"))
	assert.Equal(t, "", userIDFromProfile("profile"))
	assert.Equal(t, "", userIDFromProfile("teams/u1/profile"))
}

func TestShouldSendNow_WindowEdges(t *testing.T) {
	pinTime(t)

	assert.True(t, shouldSendNow(time.UTC, "21:00"))  // 5 min after
	assert.True(t, shouldSendNow(time.UTC, "20:51"))  // 14 min after
	assert.False(t, shouldSendNow(time.UTC, "20:50")) // exactly window, excluded
	assert.False(t, shouldSendNow(time.UTC, "21:06")) // in the future
}
