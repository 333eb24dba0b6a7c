package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ospolov/go-dm-client/internal/config"
	"github.com/ospolov/go-dm-client/internal/logger"
)

// schema is executed at every open. CREATE IF NOT EXISTS keeps it idempotent;
// the cache is disposable, so there is no versioned migration machinery.
const schema = `
CREATE TABLE IF NOT EXISTS threads (
    thread_id        TEXT    PRIMARY KEY,
    title            TEXT    NOT NULL,
    users            TEXT    NOT NULL DEFAULT '[]',
    last_activity_at INTEGER NOT NULL,
    last_message     TEXT    NOT NULL DEFAULT '',
    fetched_at       INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
    item_id        TEXT    PRIMARY KEY,
    thread_id      TEXT    NOT NULL,
    sender_user_id INTEGER NOT NULL,
    item_type      TEXT    NOT NULL,
    text           TEXT    NOT NULL DEFAULT '',
    timestamp_us   INTEGER NOT NULL,
    fetched_at     INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_thread ON messages (thread_id, timestamp_us DESC);
`

// DB wraps the sqlite connection of the local cache.
type DB struct {
	*sql.DB
	logger *logger.Logger
}

// NewConnectSQLite opens (creating if necessary) the cache database at
// cfg.Path and bootstraps the schema.
func NewConnectSQLite(ctx context.Context, cfg config.Cache, log *logger.Logger) (*DB, error) {
	if err := createLocalDBFileIfNotExists(cfg.Path); err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error creating cache database file")
		return nil, fmt.Errorf("create cache database file: %w", err)
	}

	conn, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error opening cache database")
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	if err = conn.PingContext(ctx); err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error connecting cache database (ping)")
		return nil, err
	}

	db := &DB{DB: conn, logger: log}
	if err = db.Bootstrap(ctx); err != nil {
		return nil, err
	}

	log.Debug().Str("func", "NewConnectSQLite").Msg("connected to cache database successfully")
	return db, nil
}

// Bootstrap creates the cache tables if they do not exist yet.
func (db *DB) Bootstrap(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("bootstrap cache schema: %w", err)
	}
	return nil
}

func createLocalDBFileIfNotExists(dbFile string) error {
	if dbFile == "" || dbFile == ":memory:" {
		return nil
	}

	if _, err := os.Stat(dbFile); os.IsNotExist(err) {
		if dir := filepath.Dir(dbFile); dir != "." {
			if err = os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create cache dir: %w", err)
			}
		}
		f, err := os.Create(dbFile)
		if err != nil {
			return fmt.Errorf("create cache file: %w", err)
		}
		f.Close()
	}

	return nil
}
