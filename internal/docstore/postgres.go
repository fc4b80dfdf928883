package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool used by PostgresStore.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps every collection in one JSONB documents table.
type PostgresStore struct {
	db DB
}

// NewPostgresStore creates a document store on top of a pgx pool.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Get returns a document by collection and id.
func (s *PostgresStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	const q = `SELECT data, created_at, updated_at FROM documents WHERE collection = $1 AND id = $2`
	var raw []byte
	doc := Document{ID: id, Collection: collection}
	err := s.db.QueryRow(ctx, q, collection, id).Scan(&raw, &doc.CreateTime, &doc.UpdateTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, classify("get "+collection+"/"+id, err)
	}
	if err := json.Unmarshal(raw, &doc.Data); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return &doc, nil
}

// Set writes a document. With opts.Merge the new fields are merged into the
// existing top-level object.
func (s *PostgresStore) Set(ctx context.Context, collection, id string, fields map[string]interface{}, opts SetOptions) error {
	q := `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`
	if opts.Merge {
		q = `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id) DO UPDATE SET data = documents.data || EXCLUDED.data, updated_at = NOW()`
	}
	raw, err := json.Marshal(resolveTimestamps(fields, time.Now()))
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	if _, err := s.db.Exec(ctx, q, collection, id, string(raw)); err != nil {
		return classify("set "+collection+"/"+id, err)
	}
	return nil
}

// Add inserts a new document and returns its generated id.
func (s *PostgresStore) Add(ctx context.Context, collection string, fields map[string]interface{}) (string, error) {
	const q = `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)`
	raw, err := json.Marshal(resolveTimestamps(fields, time.Now()))
	if err != nil {
		return "", fmt.Errorf("marshal fields: %w", err)
	}
	id := uuid.NewString()
	if _, err := s.db.Exec(ctx, q, collection, id, string(raw)); err != nil {
		return "", classify("add "+collection, err)
	}
	return id, nil
}

// Query returns documents matching the filter. Both operators are expressed as
// JSONB containment so they use the GIN index on data.
func (s *PostgresStore) Query(ctx context.Context, collection string, filter Filter) ([]Document, error) {
	var probe map[string]interface{}
	switch filter.Op {
	case OpEqual:
		probe = map[string]interface{}{filter.Field: filter.Value}
	case OpArrayContains:
		probe = map[string]interface{}{filter.Field: []interface{}{filter.Value}}
	default:
		return nil, fmt.Errorf("unsupported query operator %q", filter.Op)
	}
	raw, err := json.Marshal(probe)
	if err != nil {
		return nil, fmt.Errorf("marshal filter: %w", err)
	}
	const q = `SELECT id, data, created_at, updated_at FROM documents
		WHERE collection = $1 AND data @> $2::jsonb ORDER BY created_at, id`
	rows, err := s.db.Query(ctx, q, collection, string(raw))
	if err != nil {
		return nil, classify("query "+collection, err)
	}
	return scanDocuments(collection, rows)
}

// List returns every document of the collection.
func (s *PostgresStore) List(ctx context.Context, collection string) ([]Document, error) {
	const q = `SELECT id, data, created_at, updated_at FROM documents WHERE collection = $1 ORDER BY created_at, id`
	rows, err := s.db.Query(ctx, q, collection)
	if err != nil {
		return nil, classify("list "+collection, err)
	}
	return scanDocuments(collection, rows)
}

func scanDocuments(collection string, rows pgx.Rows) ([]Document, error) {
	defer rows.Close()
	var list []Document
	for rows.Next() {
		var raw []byte
		doc := Document{Collection: collection}
		if err := rows.Scan(&doc.ID, &raw, &doc.CreateTime, &doc.UpdateTime); err != nil {
			return nil, classify("scan "+collection, err)
		}
		if err := json.Unmarshal(raw, &doc.Data); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, doc.ID, err)
		}
		list = append(list, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list "+collection, err)
	}
	return list, nil
}
