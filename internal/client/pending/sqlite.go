package pending

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nchiang/moodiary/internal/client/models"
	"github.com/nchiang/moodiary/internal/common"
	"github.com/nchiang/moodiary/internal/dbx"
	"github.com/nchiang/moodiary/internal/sentiment"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Put upserts a pending write by id. The sentiment object is stored as JSON.
func (r *SQLiteRepository) Put(ctx context.Context, w *models.PendingWrite) error {
	if w.ID == "" {
		return fmt.Errorf("%w: empty id", common.ErrStorage)
	}

	sentimentJSON, err := json.Marshal(w.Sentiment)
	if err != nil {
		return fmt.Errorf("%w: marshal sentiment: %v", common.ErrStorage, err)
	}

	query := `INSERT INTO pending_entries (id, date, content, is_deleted, sentiment, updated_at, is_synced, is_edit)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET date = excluded.date,
				content = excluded.content,
				is_deleted = excluded.is_deleted,
				sentiment = excluded.sentiment,
				updated_at = excluded.updated_at,
				is_synced = excluded.is_synced,
				is_edit = excluded.is_edit
	`
	_, err = r.db.ExecContext(ctx, query,
		w.ID, w.Date, w.Content, w.IsDeleted, string(sentimentJSON), w.UpdatedAt, w.IsSynced, w.IsEdit)
	if err != nil {
		return fmt.Errorf("%w: upsert pending entry: %v", common.ErrStorage, err)
	}
	return nil
}

// GetAll lists every pending write in the store.
func (r *SQLiteRepository) GetAll(ctx context.Context) ([]*models.PendingWrite, error) {
	query := `SELECT id, date, content, is_deleted, sentiment, updated_at, is_synced, is_edit FROM pending_entries`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: select pending entries: %v", common.ErrStorage, err)
	}
	defer rows.Close()

	result := make([]*models.PendingWrite, 0)
	for rows.Next() {
		var item models.PendingWrite
		var sentimentJSON string
		if err := rows.Scan(&item.ID, &item.Date, &item.Content, &item.IsDeleted,
			&sentimentJSON, &item.UpdatedAt, &item.IsSynced, &item.IsEdit); err != nil {
			return nil, fmt.Errorf("%w: scan pending entry: %v", common.ErrStorage, err)
		}
		if sentimentJSON != "" {
			var s sentiment.Sentiment
			if err := json.Unmarshal([]byte(sentimentJSON), &s); err == nil {
				item.Sentiment = s
			}
		}
		item.LocalPending = true
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate pending entries: %v", common.ErrStorage, err)
	}
	return result, nil
}

// Remove deletes a pending write by id. Deleting an absent id is not an error.
func (r *SQLiteRepository) Remove(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM pending_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: delete pending entry: %v", common.ErrStorage, err)
	}
	return nil
}
