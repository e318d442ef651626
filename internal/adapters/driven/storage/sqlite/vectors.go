package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/custodia-labs/sercha-voice/internal/adapters/driven/storage/vecindex"
	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
)

// VectorStore is one collection in the chunks table.
type VectorStore struct {
	store      *Store
	collection string
	distance   vecindex.DistanceFunc
}

var _ driven.VectorBackend = (*VectorStore)(nil)

func newVectorStore(s *Store, collection string, metric domain.DistanceMetric) (*VectorStore, error) {
	if collection == "" {
		collection = domain.DefaultCollection
	}
	distance, err := vecindex.Distance(metric)
	if err != nil {
		return nil, err
	}
	return &VectorStore{store: s, collection: collection, distance: distance}, nil
}

// Insert stores records in a single transaction.
// All embeddings in a collection must share one dimension.
func (v *VectorStore) Insert(ctx context.Context, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	dims, err := v.dimensions(ctx)
	if err != nil {
		return err
	}

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, collection, content, embedding, dimensions, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if len(rec.Embedding) == 0 {
			return fmt.Errorf("%w: record %s has no embedding", domain.ErrValidation, rec.ID)
		}
		if dims == 0 {
			dims = len(rec.Embedding)
		}
		if len(rec.Embedding) != dims {
			return fmt.Errorf("%w: record %s has %d dimensions, collection has %d",
				domain.ErrValidation, rec.ID, len(rec.Embedding), dims)
		}

		metadataJSON, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata: %w", err)
		}
		if rec.Metadata == nil {
			metadataJSON = []byte("{}")
		}

		if _, err := stmt.ExecContext(ctx, rec.ID, v.collection, rec.Content,
			encodeVector(rec.Embedding), len(rec.Embedding), string(metadataJSON)); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing chunks: %w", err)
	}
	return nil
}

// dimensions returns the embedding size used by the collection, or 0 if empty.
func (v *VectorStore) dimensions(ctx context.Context) (int, error) {
	var dims int
	err := v.store.db.QueryRowContext(ctx,
		"SELECT dimensions FROM chunks WHERE collection = ? LIMIT 1", v.collection).Scan(&dims)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading collection dimensions: %w", err)
	}
	return dims, nil
}

// Query ranks the rows that pass both filters and returns the closest K.
func (v *VectorStore) Query(ctx context.Context, q domain.VectorQuery) ([]driven.VectorHit, error) {
	where := []string{"collection = ?"}
	args := []any{v.collection}

	if q.ContentFilter != nil && *q.ContentFilter != "" {
		where = append(where, "instr(content, ?) > 0")
		args = append(args, *q.ContentFilter)
	}
	for key, val := range q.MetadataFilter {
		// Strings and numbers compare reliably in SQL; everything is
		// rechecked below.
		switch val.(type) {
		case string, int, int64, float64:
		default:
			continue
		}
		if strings.ContainsAny(key, `"\`) {
			continue
		}
		where = append(where, fmt.Sprintf(`json_extract(metadata, '$."%s"') = ?`, key))
		args = append(args, val)
	}

	rows, err := v.store.db.QueryContext(ctx,
		"SELECT id, content, embedding, metadata FROM chunks WHERE "+strings.Join(where, " AND ")+" ORDER BY rowid",
		args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	sel := vecindex.NewSelector(q.Vector, q.K, v.distance)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		if !vecindex.Matches(q, rec.Content, rec.Metadata) {
			continue
		}
		if err := sel.Offer(*rec); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return sel.Results(), nil
}

// Get returns a record by ID.
func (v *VectorStore) Get(ctx context.Context, id string) (*driven.VectorRecord, error) {
	rows, err := v.store.db.QueryContext(ctx,
		"SELECT id, content, embedding, metadata FROM chunks WHERE collection = ? AND id = ?", v.collection, id)
	if err != nil {
		return nil, fmt.Errorf("querying chunk: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("querying chunk: %w", err)
		}
		return nil, domain.ErrNotFound
	}
	return scanRecord(rows)
}

// Delete removes records by ID.
func (v *VectorStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids)+1)
	args = append(args, v.collection)
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}

	_, err := v.store.db.ExecContext(ctx,
		"DELETE FROM chunks WHERE collection = ? AND id IN ("+strings.Join(placeholders, ",")+")", args...)
	if err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// ScanMetadata calls fn for every record in the collection.
// Rows are read fully before fn runs so fn may write to the store.
func (v *VectorStore) ScanMetadata(ctx context.Context, fn func(id string, metadata map[string]any) error) error {
	rows, err := v.store.db.QueryContext(ctx,
		"SELECT id, metadata FROM chunks WHERE collection = ? ORDER BY rowid", v.collection)
	if err != nil {
		return fmt.Errorf("scanning chunks: %w", err)
	}

	type entry struct {
		id       string
		metadata map[string]any
	}
	var entries []entry
	for rows.Next() {
		var id, metadataJSON string
		if err := rows.Scan(&id, &metadataJSON); err != nil {
			rows.Close()
			return fmt.Errorf("scanning chunk row: %w", err)
		}
		var metadata map[string]any
		if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
			rows.Close()
			return fmt.Errorf("unmarshalling metadata for %s: %w", id, err)
		}
		entries = append(entries, entry{id: id, metadata: metadata})
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return fmt.Errorf("iterating chunks: %w", err)
	}

	for _, e := range entries {
		if err := fn(e.id, e.metadata); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of records in the collection.
func (v *VectorStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := v.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chunks WHERE collection = ?", v.collection).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Close is a no-op; the Store owns the connection.
func (v *VectorStore) Close() error {
	return nil
}

func scanRecord(rows *sql.Rows) (*driven.VectorRecord, error) {
	var rec driven.VectorRecord
	var embedding []byte
	var metadataJSON string

	if err := rows.Scan(&rec.ID, &rec.Content, &embedding, &metadataJSON); err != nil {
		return nil, fmt.Errorf("scanning chunk row: %w", err)
	}
	if err := json.Unmarshal([]byte(metadataJSON), &rec.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshalling metadata for %s: %w", rec.ID, err)
	}
	rec.Embedding = decodeVector(embedding)
	return &rec, nil
}

// encodeVector packs v as little-endian float32s.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(blob []byte) []float32 {
	if len(blob) < 4 {
		return nil
	}
	v := make([]float32, len(blob)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[4*i:]))
	}
	return v
}
