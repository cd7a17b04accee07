package database

import (
	"context"
	"time"

	"cryptoinfo-bot/internal/cache"

	"github.com/pkg/errors"
)

// CacheStore keeps cache entries in the cache_entries table.
type CacheStore struct {
	db *DB
}

func (db *DB) CacheStore() *CacheStore {
	return &CacheStore{db: db}
}

func (s *CacheStore) Load(ctx context.Context) ([]cache.Record, error) {
	query := `SELECT space, cache_key, payload, fetched_at FROM cache_entries ORDER BY space, cache_key;`

	rows, err := s.db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query cache entries")
	}
	defer rows.Close()

	var records []cache.Record
	for rows.Next() {
		var rec cache.Record
		var payload string
		var fetchedAt int64
		if err := rows.Scan(&rec.Space, &rec.Key, &payload, &fetchedAt); err != nil {
			return nil, errors.Wrap(cache.ErrCorrupt, err.Error())
		}
		rec.Payload = []byte(payload)
		rec.FetchedAt = time.UnixMilli(fetchedAt).UTC()
		records = append(records, rec)
	}
	return records, errors.Wrap(rows.Err(), "failed to read cache entries")
}

func (s *CacheStore) Save(ctx context.Context, rec cache.Record) error {
	query := `
	INSERT OR REPLACE INTO cache_entries (space, cache_key, payload, fetched_at)
	VALUES (?, ?, ?, ?);`
	_, err := s.db.conn.ExecContext(ctx, query, rec.Space, rec.Key, string(rec.Payload), rec.FetchedAt.UnixMilli())
	return errors.Wrapf(err, "failed to save cache entry %s/%s", rec.Space, rec.Key)
}

func (s *CacheStore) Clear(ctx context.Context) error {
	_, err := s.db.conn.ExecContext(ctx, `DELETE FROM cache_entries;`)
	return errors.Wrap(err, "failed to clear cache entries")
}

// Close is a no-op; the owning DB is closed by whoever opened it.
func (s *CacheStore) Close() error {
	return nil
}
