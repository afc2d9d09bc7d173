package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nchiang/moodiary/internal/common"
	"github.com/nchiang/moodiary/internal/dbx"
	"github.com/nchiang/moodiary/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx). Document bodies live in a JSONB column so the
// heterogeneous legacy shapes round-trip untouched.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, collection string) ([]*models.Document, error) {
	query := `
		SELECT collection, id, data
		FROM documents
		WHERE collection = $1
		ORDER BY data->>'date' DESC
	`
	return r.queryDocuments(ctx, query, collection)
}

func (r *PostgresRepository) ListByCollectionSuffix(ctx context.Context, suffix string) ([]*models.Document, error) {
	query := `
		SELECT collection, id, data
		FROM documents
		WHERE collection LIKE '%' || $1
	`
	return r.queryDocuments(ctx, query, suffix)
}

func (r *PostgresRepository) queryDocuments(ctx context.Context, query string, arg any) ([]*models.Document, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	docs := make([]*models.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return docs, nil
}

func (r *PostgresRepository) Get(ctx context.Context, collection, id string) (*models.Document, error) {
	query := `
		SELECT collection, id, data
		FROM documents
		WHERE collection = $1 AND id = $2
	`
	row := r.db.QueryRowContext(ctx, query, collection, id)
	doc, err := scanDocument(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, doc *models.Document) error {
	data, err := json.Marshal(doc.Data)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	query := `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data
	`
	if _, err := r.db.ExecContext(ctx, query, doc.Collection, doc.ID, data); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) InsertIfAbsent(ctx context.Context, doc *models.Document) error {
	data, err := json.Marshal(doc.Data)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	query := `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query, doc.Collection, doc.ID, data)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrConflict
	}
	return nil
}

func (r *PostgresRepository) MergeFields(ctx context.Context, collection, id string, fields map[string]any) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}

	query := `
		UPDATE documents
		SET data = data || $3::jsonb
		WHERE collection = $1 AND id = $2
	`
	res, err := r.db.ExecContext(ctx, query, collection, id, data)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, collection, id string) error {
	query := `
		DELETE FROM documents
		WHERE collection = $1 AND id = $2
	`
	if _, err := r.db.ExecContext(ctx, query, collection, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func scanDocument(scan func(dest ...any) error) (*models.Document, error) {
	doc := &models.Document{}
	var raw []byte
	if err := scan(&doc.Collection, &doc.ID, &raw); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &doc.Data); err != nil {
		return nil, fmt.Errorf("unmarshal document %s/%s: %w", doc.Collection, doc.ID, err)
	}
	return doc, nil
}
