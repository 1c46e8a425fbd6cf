package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNoFTS5 is returned by Open when sqlite was built without FTS5.
var ErrNoFTS5 = errors.New("sqlite built without FTS5 (build with -tags sqlite_fts5)")

// DB wraps the app-owned wpp.db: chats, the chat log and its FTS index.
type DB struct {
	*sql.DB
}

// Open connects to the database with WAL mode and checks that the driver
// can serve full-text search.
func Open(path string) (*DB, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_synchronous=NORMAL"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := checkFTS5(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db}, nil
}

func checkFTS5(ctx context.Context, db *sql.DB) error {
	var enabled bool
	err := db.QueryRowContext(ctx, `SELECT sqlite_compileoption_used('ENABLE_FTS5')`).Scan(&enabled)
	if err != nil {
		return fmt.Errorf("probe fts5: %w", err)
	}
	if !enabled {
		return ErrNoFTS5
	}
	return nil
}
