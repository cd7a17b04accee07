package database

import (
	"database/sql"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	_ "modernc.org/sqlite"
)

// DB is the bot's SQLite handle. It keeps persisted metrics and, when configured,
// cache entries.
type DB struct {
	conn *sql.DB
}

func Open(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	// SQLite serialises writers anyway; one connection also keeps :memory: databases intact.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}

	log.Debugf("Database %s initialized successfully.", dbPath)
	return db, nil
}

func (db *DB) migrate() error {
	createMetricsTable := `
	CREATE TABLE IF NOT EXISTS metrics (
		metric_name TEXT NOT NULL,
		label_key TEXT NOT NULL DEFAULT '',
		label_value TEXT NOT NULL DEFAULT '',
		metric_value REAL NOT NULL,
		PRIMARY KEY (metric_name, label_key, label_value)
	);`
	if _, err := db.conn.Exec(createMetricsTable); err != nil {
		return errors.Wrap(err, "failed to create metrics table")
	}

	createCacheTable := `
	CREATE TABLE IF NOT EXISTS cache_entries (
		space TEXT NOT NULL,
		cache_key TEXT NOT NULL,
		payload TEXT NOT NULL,
		fetched_at INTEGER NOT NULL,
		PRIMARY KEY (space, cache_key)
	);`
	if _, err := db.conn.Exec(createCacheTable); err != nil {
		return errors.Wrap(err, "failed to create cache_entries table")
	}
	return nil
}

func (db *DB) Close() error {
	if db == nil || db.conn == nil {
		return nil
	}
	return db.conn.Close()
}
