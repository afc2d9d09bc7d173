package diary

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nchiang/moodiary/internal/client/models"
	"github.com/nchiang/moodiary/internal/client/pending"
	"github.com/nchiang/moodiary/internal/client/remote"
	"github.com/nchiang/moodiary/internal/common"
	"github.com/nchiang/moodiary/internal/cryptox"
	"github.com/nchiang/moodiary/internal/datex"
	"github.com/nchiang/moodiary/internal/logging"
	"github.com/nchiang/moodiary/internal/sentiment"
)

// Service implements the user-facing diary flows: save, edit, soft delete,
// the trash view with restore and purge, and list filtering. Writes go
// straight to the canonical collection when online and into the pending
// store when not.
type Service struct {
	store    remote.Store
	pending  pending.Repository
	analyzer *sentiment.Analyzer
	online   func() bool
	logger   logging.Logger

	// Test seams.
	now   func() time.Time
	newID func() string
}

// NewService builds a Service. online reports current connectivity, usually
// Monitor.Online.
func NewService(store remote.Store, pend pending.Repository,
	analyzer *sentiment.Analyzer, online func() bool, logger logging.Logger) *Service {
	return &Service{
		store:    store,
		pending:  pend,
		analyzer: analyzer,
		online:   online,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Save creates a new entry for today. A staged voice/fusion classification
// may be passed in staged; otherwise the text is classified here. Offline
// saves land in the pending store and come back flagged LocalPending.
func (s *Service) Save(ctx context.Context, userID, content string, staged *sentiment.Sentiment) (*models.Entry, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, common.ErrEmptyContent
	}

	var sent sentiment.Sentiment
	if staged != nil {
		sent = *staged
	} else {
		sent = s.analyzer.Analyze(ctx, content)
	}

	entry := &models.Entry{
		ID:        s.newID(),
		Date:      datex.TodayKey(),
		Content:   content,
		Sentiment: sent,
		UpdatedAt: s.now().UTC().Format(time.RFC3339),
	}

	if !s.online() {
		w := &models.PendingWrite{Entry: *entry}
		if err := s.pending.Put(ctx, w); err != nil {
			return nil, fmt.Errorf("offline save: %w", err)
		}
		entry.LocalPending = true
		return entry, nil
	}

	key := cryptox.DeriveAccountKey(userID)
	doc, err := encodeEntry(entry, key)
	if err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, remote.CanonicalPath(userID), entry.ID, doc); err != nil {
		return nil, fmt.Errorf("save entry: %w", err)
	}
	return entry, nil
}

// Edit replaces an entry's content, re-deriving and re-caching sentiment.
// Offline edits are captured as full pending records keyed by the same id,
// overlaying the remote copy until synced.
func (s *Service) Edit(ctx context.Context, userID string, entry *models.Entry, content string) (*models.Entry, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, common.ErrEmptyContent
	}

	updated := *entry
	updated.Content = content
	updated.Sentiment = s.analyzer.Analyze(ctx, content)
	updated.UpdatedAt = s.now().UTC().Format(time.RFC3339)

	if !s.online() {
		// Marked as an edit so the drain merges it into a canonical
		// document that already exists instead of dropping it.
		w := &models.PendingWrite{Entry: updated, IsEdit: !entry.LocalPending}
		if err := s.pending.Put(ctx, w); err != nil {
			return nil, fmt.Errorf("offline edit: %w", err)
		}
		updated.LocalPending = true
		return &updated, nil
	}

	key := cryptox.DeriveAccountKey(userID)
	enc, err := cryptox.EncryptContent(content, key)
	if err != nil {
		return nil, fmt.Errorf("encrypt content: %w", err)
	}
	err = s.store.Update(ctx, remote.CanonicalPath(userID), updated.ID, map[string]any{
		"contentEnc": enc,
		"sentiment":  updated.Sentiment.Document(),
		"updatedAt":  updated.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("edit entry: %w", err)
	}
	return &updated, nil
}

// SoftDelete flags an entry deleted, moving it to the trash view. Offline it
// updates the local pending copy when one exists.
func (s *Service) SoftDelete(ctx context.Context, userID string, entry *models.Entry) error {
	updatedAt := s.now().UTC().Format(time.RFC3339)

	if !s.online() {
		if !entry.LocalPending {
			return common.ErrUnavailable
		}
		deleted := *entry
		deleted.IsDeleted = true
		deleted.UpdatedAt = updatedAt
		if err := s.pending.Put(ctx, &models.PendingWrite{Entry: deleted}); err != nil {
			return fmt.Errorf("offline delete: %w", err)
		}
		return nil
	}

	err := s.store.Update(ctx, remote.CanonicalPath(userID), entry.ID, map[string]any{
		"isDeleted": true,
		"updatedAt": updatedAt,
	})
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

// Trash lists the user's soft-deleted entries from the canonical collection,
// newest first.
func (s *Service) Trash(ctx context.Context, userID string) ([]*models.Entry, error) {
	docs, err := s.store.ReadCollection(ctx, remote.CanonicalPath(userID))
	if err != nil {
		return nil, fmt.Errorf("trash read: %w", err)
	}

	key := cryptox.DeriveAccountKey(userID)
	out := make([]*models.Entry, 0)
	for _, doc := range docs {
		if !doc.Bool("isDeleted") {
			continue
		}
		content := doc.String("content")
		if enc := doc.String("contentEnc"); enc != "" {
			if plain, err := cryptox.DecryptContent(enc, key); err == nil {
				content = plain
			}
		}
		sent, ok := sentiment.FromDocument(doc["sentiment"])
		if !ok {
			sent = sentiment.Classify(content)
		}
		out = append(out, &models.Entry{
			ID:        doc.ID(),
			Date:      datex.Normalize(doc.Date()),
			Content:   content,
			IsDeleted: true,
			Sentiment: sent,
			UpdatedAt: doc.String("updatedAt"),
		})
	}
	sortByDateDesc(out)
	return out, nil
}

// Restore clears the deleted flag, returning the entry to the primary view.
func (s *Service) Restore(ctx context.Context, userID, id string) error {
	err := s.store.Update(ctx, remote.CanonicalPath(userID), id, map[string]any{
		"isDeleted": false,
		"updatedAt": s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("restore entry: %w", err)
	}
	return nil
}

// Purge permanently destroys a trashed entry with a direct remote delete.
func (s *Service) Purge(ctx context.Context, userID, id string) error {
	if err := s.store.Delete(ctx, remote.CanonicalPath(userID), id); err != nil {
		return fmt.Errorf("purge entry: %w", err)
	}
	return nil
}

// AttachVoiceClip records the object storage key of an uploaded audio clip
// on an existing entry. The key is opaque to the client; the backend presigns
// downloads from it.
func (s *Service) AttachVoiceClip(ctx context.Context, userID, id, key string) error {
	err := s.store.Update(ctx, remote.CanonicalPath(userID), id, map[string]any{
		"voiceKey":  key,
		"updatedAt": s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("attach voice clip: %w", err)
	}
	return nil
}

// Search filters entries by case-insensitive substring match on content.
func Search(entries []*models.Entry, query string) []*models.Entry {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return entries
	}
	out := make([]*models.Entry, 0)
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Content), query) {
			out = append(out, e)
		}
	}
	return out
}

// FilterRange keeps entries whose date falls inside the inclusive
// [from, to] window. Empty bounds are open ends.
func FilterRange(entries []*models.Entry, from, to string) []*models.Entry {
	out := make([]*models.Entry, 0)
	for _, e := range entries {
		if from != "" && e.Date < from {
			continue
		}
		if to != "" && e.Date > to {
			continue
		}
		out = append(out, e)
	}
	return out
}
