package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
)

// interactionLog implements driven.InteractionLog.
type interactionLog struct {
	store *Store
}

var _ driven.InteractionLog = (*interactionLog)(nil)

// Append stores one record.
func (l *interactionLog) Append(ctx context.Context, rec domain.InteractionRecord) error {
	_, err := l.store.db.ExecContext(ctx, `
		INSERT INTO interactions (query_id, query, branch, status, status_code, message, answer, elapsed_ms, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.QueryID, rec.Query, string(rec.Branch), string(rec.Status), rec.StatusCode,
		rec.Message, rec.Answer, rec.ElapsedMS, rec.RecordedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("inserting interaction: %w", err)
	}
	return nil
}

// ByQuery returns every record for a query ID, oldest first.
func (l *interactionLog) ByQuery(ctx context.Context, queryID string) ([]domain.InteractionRecord, error) {
	rows, err := l.store.db.QueryContext(ctx, `
		SELECT query_id, query, branch, status, status_code, message, answer, elapsed_ms, recorded_at
		FROM interactions WHERE query_id = ? ORDER BY seq
	`, queryID)
	if err != nil {
		return nil, fmt.Errorf("querying interactions: %w", err)
	}
	defer rows.Close()

	return scanInteractions(rows)
}

// Recent returns up to n most recent records, newest first.
func (l *interactionLog) Recent(ctx context.Context, n int) ([]domain.InteractionRecord, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := l.store.db.QueryContext(ctx, `
		SELECT query_id, query, branch, status, status_code, message, answer, elapsed_ms, recorded_at
		FROM interactions ORDER BY seq DESC LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("querying interactions: %w", err)
	}
	defer rows.Close()

	return scanInteractions(rows)
}

// Close is a no-op; the Store owns the connection.
func (l *interactionLog) Close() error {
	return nil
}

func scanInteractions(rows *sql.Rows) ([]domain.InteractionRecord, error) {
	var out []domain.InteractionRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var rec domain.InteractionRecord
		var branch, status, recordedAt string
		if err := rows.Scan(&rec.QueryID, &rec.Query, &branch, &status, &rec.StatusCode,
			&rec.Message, &rec.Answer, &rec.ElapsedMS, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning interaction: %w", err)
		}
		rec.Branch = domain.Branch(branch)
		rec.Status = domain.Status(status)
		if t, err := time.Parse(time.RFC3339Nano, recordedAt); err == nil {
			rec.RecordedAt = t
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating interactions: %w", err)
	}
	return out, nil
}
