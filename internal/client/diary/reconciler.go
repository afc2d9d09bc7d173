// Package diary hosts the client's reconciliation and sync core: the
// reconciler producing the merged entry view, the connectivity monitor
// draining offline writes, and the service the CLI drives saves and edits
// through.
package diary

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/singleflight"

	"github.com/nchiang/moodiary/internal/client/models"
	"github.com/nchiang/moodiary/internal/client/pending"
	"github.com/nchiang/moodiary/internal/client/remote"
	"github.com/nchiang/moodiary/internal/common"
	"github.com/nchiang/moodiary/internal/cryptox"
	"github.com/nchiang/moodiary/internal/datex"
	"github.com/nchiang/moodiary/internal/logging"
	"github.com/nchiang/moodiary/internal/sentiment"
)

// SourceResult is the outcome of reading one declared source. A failed read
// contributes zero records and keeps its error for logging and tests.
type SourceResult struct {
	Source remote.SourcePath
	Docs   []models.RawDocument
	Err    error
}

// Reconciler merges the user's entries from the canonical, legacy and
// misfiled remote collections into one authoritative view, migrating strays
// into the canonical location as it goes.
type Reconciler struct {
	store    remote.Store
	pending  pending.Repository
	analyzer *sentiment.Analyzer
	logger   logging.Logger

	group singleflight.Group
}

// NewReconciler builds a Reconciler from its collaborators.
func NewReconciler(store remote.Store, pend pending.Repository,
	analyzer *sentiment.Analyzer, logger logging.Logger) *Reconciler {
	return &Reconciler{
		store:    store,
		pending:  pend,
		analyzer: analyzer,
		logger:   logger,
	}
}

// Refresh produces the visible entry list for userID. Concurrent calls for
// the same user coalesce into a single execution sharing one result.
//
// Only a canonical-read failure while online is escalated; every other
// failure (legacy/misfiled reads, migration writes, sentiment backfills)
// degrades the result and is logged.
func (r *Reconciler) Refresh(ctx context.Context, userID string, offline bool) ([]*models.Entry, error) {
	// The mode is part of the key: an offline caller must never receive a
	// result computed without the pending overlay, and vice versa.
	flightKey := fmt.Sprintf("%s|offline=%t", userID, offline)
	v, err, _ := r.group.Do(flightKey, func() (any, error) {
		return r.refresh(ctx, userID, offline)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*models.Entry), nil
}

func (r *Reconciler) refresh(ctx context.Context, userID string, offline bool) ([]*models.Entry, error) {
	results := r.readSources(ctx, remote.DiaryPaths(userID))

	canonical := results[0]
	if canonical.Err != nil && !offline {
		return nil, fmt.Errorf("canonical read: %w", canonical.Err)
	}

	key := cryptox.DeriveAccountKey(userID)
	canonicalPath := canonical.Source.Path

	merged := make([]*models.Entry, 0)
	seen := make(map[string]bool)
	var backfill []*models.Entry

	for _, doc := range canonical.Docs {
		entry, needsBackfill := r.normalizeDoc(ctx, doc, key)
		if entry.ID == "" || seen[entry.ID] {
			continue
		}
		seen[entry.ID] = true
		merged = append(merged, entry)
		if needsBackfill {
			backfill = append(backfill, entry)
		}
	}

	// Strays found in the legacy or misfiled collections are copied into
	// canonical at the same id. Sources are never deleted; once the canonical
	// copy exists it shadows them on every later refresh.
	for _, res := range results[1:] {
		for _, doc := range res.Docs {
			entry, _ := r.normalizeDoc(ctx, doc, key)
			if entry.ID == "" || seen[entry.ID] {
				continue
			}
			seen[entry.ID] = true
			if err := r.migrate(ctx, canonicalPath, entry, key); err != nil {
				r.logger.Warn(ctx, "migration write failed, will retry next refresh",
					"id", entry.ID, "source", string(res.Source.Role), "error", err)
			}
			// Visible this session either way.
			merged = append(merged, entry)
		}
	}

	merged = dropDeleted(merged)
	sortByDateDesc(merged)

	r.backfillSentiment(ctx, canonicalPath, backfill)

	if offline && userID != "" {
		merged = r.overlayPending(ctx, merged)
	}

	return merged, nil
}

// readSources walks the declared source list with a uniform fault-tolerant
// read. Each source's failure is individually observable in the result.
func (r *Reconciler) readSources(ctx context.Context, sources []remote.SourcePath) []SourceResult {
	results := make([]SourceResult, 0, len(sources))
	for _, src := range sources {
		docs, err := r.store.ReadCollection(ctx, src.Path)
		if err != nil {
			r.logger.Warn(ctx, "source read failed, continuing without it",
				"path", src.Path, "role", string(src.Role), "error", err)
			docs = nil
		}
		results = append(results, SourceResult{Source: src, Docs: docs, Err: err})
	}
	return results
}

// normalizeDoc turns one raw document into a normalized Entry. The second
// return value reports that the stored sentiment was missing or malformed
// and the recomputed value should be backfilled.
func (r *Reconciler) normalizeDoc(ctx context.Context, doc models.RawDocument, key []byte) (*models.Entry, bool) {
	content := ""
	if enc := doc.String("contentEnc"); enc != "" {
		plain, err := cryptox.DecryptContent(enc, key)
		if err != nil {
			// Tolerated: older records may carry plaintext instead.
			content = doc.String("content")
		} else {
			content = plain
		}
	} else {
		content = doc.String("content")
	}

	s, ok := sentiment.FromDocument(doc["sentiment"])
	if !ok {
		s = r.analyzer.Analyze(ctx, content)
	}

	return &models.Entry{
		ID:        doc.ID(),
		Date:      datex.Normalize(doc.Date()),
		Content:   content,
		IsDeleted: doc.Bool("isDeleted"),
		Sentiment: s,
		UpdatedAt: doc.String("updatedAt"),
	}, !ok
}

// migrate writes a normalized stray into the canonical collection at the
// same id, content encrypted, plaintext omitted. A concurrent writer winning
// the race counts as success.
func (r *Reconciler) migrate(ctx context.Context, canonicalPath string, e *models.Entry, key []byte) error {
	doc, err := encodeEntry(e, key)
	if err != nil {
		return err
	}
	err = r.store.SetIfAbsent(ctx, canonicalPath, e.ID, doc)
	if errors.Is(err, common.ErrConflict) {
		return nil
	}
	return err
}

// backfillSentiment persists recomputed sentiment for canonical records that
// carried none. Best effort; failures are logged and retried on the next
// refresh that still finds the field missing.
func (r *Reconciler) backfillSentiment(ctx context.Context, canonicalPath string, entries []*models.Entry) {
	for _, e := range entries {
		err := r.store.Update(ctx, canonicalPath, e.ID, map[string]any{
			"sentiment": e.Sentiment.Document(),
		})
		if err != nil {
			r.logger.Warn(ctx, "sentiment backfill failed", "id", e.ID, "error", err)
		}
	}
}

// overlayPending puts local pending records at the front of the merged view,
// replacing any remote record with the same id.
func (r *Reconciler) overlayPending(ctx context.Context, merged []*models.Entry) []*models.Entry {
	writes, err := r.pending.GetAll(ctx)
	if err != nil {
		r.logger.Warn(ctx, "pending store read failed", "error", err)
		return merged
	}
	if len(writes) == 0 {
		return merged
	}

	replaced := make(map[string]bool, len(writes))
	front := make([]*models.Entry, 0, len(writes))
	for _, w := range writes {
		replaced[w.ID] = true
		if w.IsDeleted {
			continue
		}
		e := w.Entry
		e.LocalPending = true
		front = append(front, &e)
	}

	rest := merged[:0]
	for _, e := range merged {
		if !replaced[e.ID] {
			rest = append(rest, e)
		}
	}
	return append(front, rest...)
}

func dropDeleted(entries []*models.Entry) []*models.Entry {
	out := entries[:0]
	for _, e := range entries {
		if !e.IsDeleted {
			out = append(out, e)
		}
	}
	return out
}

// sortByDateDesc orders by the normalized YYYY-MM-DD key, newest first.
// Entries sharing a date keep no guaranteed secondary order.
func sortByDateDesc(entries []*models.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date > entries[j].Date
	})
}

// encodeEntry renders an entry as a canonical remote document: content
// encrypted under the account key, no plaintext field.
func encodeEntry(e *models.Entry, key []byte) (models.RawDocument, error) {
	enc, err := cryptox.EncryptContent(e.Content, key)
	if err != nil {
		return nil, fmt.Errorf("encrypt content: %w", err)
	}
	return models.RawDocument{
		"id":         e.ID,
		"date":       e.Date,
		"contentEnc": enc,
		"isDeleted":  e.IsDeleted,
		"sentiment":  e.Sentiment.Document(),
		"updatedAt":  e.UpdatedAt,
	}, nil
}
