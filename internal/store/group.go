package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// GroupMetadataRow is a cached group metadata document.
type GroupMetadataRow struct {
	JID       string
	Payload   []byte
	FetchedAt time.Time
}

// GetGroupMetadata returns the cached metadata for jid, or nil if absent.
func (db *DB) GetGroupMetadata(ctx context.Context, jid string) (*GroupMetadataRow, error) {
	var (
		payload   string
		fetchedAt int64
	)
	err := db.QueryRowContext(ctx, `SELECT payload, fetched_at FROM group_metadata WHERE jid = ?`, jid).
		Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &GroupMetadataRow{JID: jid, Payload: []byte(payload), FetchedAt: time.UnixMilli(fetchedAt)}, nil
}

// PutGroupMetadata replaces the cached metadata for a group.
func (db *DB) PutGroupMetadata(ctx context.Context, row *GroupMetadataRow) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO group_metadata (jid, payload, fetched_at)
		VALUES (?, ?, ?)
		ON CONFLICT(jid) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`,
		row.JID, string(row.Payload), row.FetchedAt.UnixMilli())
	return err
}
