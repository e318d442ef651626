// Package redis provides a Redis-backed interaction log.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.InteractionLog = (*Log)(nil)

// Defaults for the interaction log.
const (
	DefaultMaxRecords = 10000
	DefaultQueryTTL   = 7 * 24 * time.Hour
)

// Config configures the Redis interaction log.
type Config struct {
	// Key is the list holding all records, newest last.
	Key string

	// MaxRecords caps the main list.
	MaxRecords int64

	// QueryTTL is how long the per-query index lives.
	QueryTTL time.Duration
}

// Log stores records as JSON in a capped list plus one list per query ID.
type Log struct {
	client *redis.Client
	cfg    Config
}

// New creates a Redis-backed Log on an existing client.
func New(client *redis.Client, cfg Config) *Log {
	if cfg.Key == "" {
		cfg.Key = domain.DefaultInteractionKey
	}
	if cfg.MaxRecords == 0 {
		cfg.MaxRecords = DefaultMaxRecords
	}
	if cfg.QueryTTL == 0 {
		cfg.QueryTTL = DefaultQueryTTL
	}
	return &Log{client: client, cfg: cfg}
}

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr string, cfg Config) (*Log, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return New(client, cfg), nil
}

func (l *Log) queryKey(queryID string) string {
	return l.cfg.Key + ":query:" + queryID
}

// Append stores a record atomically in both lists.
func (l *Log) Append(ctx context.Context, rec domain.InteractionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal interaction: %w", err)
	}

	pipe := l.client.TxPipeline()
	pipe.RPush(ctx, l.cfg.Key, data)
	pipe.LTrim(ctx, l.cfg.Key, -l.cfg.MaxRecords, -1)
	pipe.RPush(ctx, l.queryKey(rec.QueryID), data)
	pipe.Expire(ctx, l.queryKey(rec.QueryID), l.cfg.QueryTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append interaction: %w", err)
	}
	return nil
}

// ByQuery returns every record for a query ID, oldest first.
func (l *Log) ByQuery(ctx context.Context, queryID string) ([]domain.InteractionRecord, error) {
	items, err := l.client.LRange(ctx, l.queryKey(queryID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read interactions: %w", err)
	}
	return decode(items)
}

// Recent returns up to n most recent records, newest first.
func (l *Log) Recent(ctx context.Context, n int) ([]domain.InteractionRecord, error) {
	if n <= 0 {
		return nil, nil
	}
	items, err := l.client.LRange(ctx, l.cfg.Key, int64(-n), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read interactions: %w", err)
	}
	recs, err := decode(items)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
	return recs, nil
}

// Close closes the client.
func (l *Log) Close() error {
	return l.client.Close()
}

func decode(items []string) ([]domain.InteractionRecord, error) {
	recs := make([]domain.InteractionRecord, 0, len(items))
	for _, item := range items {
		var rec domain.InteractionRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal interaction: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
