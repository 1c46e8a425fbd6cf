package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const chatColumns = `c.jid,
	COALESCE(NULLIF(c.name,''), NULLIF(ct.push_name,''), NULLIF(ct.name,''), c.jid) AS display_name,
	c.is_group, c.unread_count, c.last_message_at, c.last_message_preview, c.created_via`

func scanChat(row interface{ Scan(...any) error }) (*Chat, error) {
	var c Chat
	if err := row.Scan(&c.JID, &c.Name, &c.IsGroup, &c.UnreadCount, &c.LastMessageAt, &c.LastMessagePreview, &c.CreatedVia); err != nil {
		return nil, err
	}
	return &c, nil
}

// UpsertChat inserts or updates a chat record. created_via is only set on insert.
func (db *DB) UpsertChat(ctx context.Context, c *Chat) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO chats (jid, name, is_group, unread_count, last_message_at, last_message_preview, created_via, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(jid) DO UPDATE SET
			name = CASE WHEN excluded.name != '' THEN excluded.name ELSE chats.name END,
			is_group = excluded.is_group,
			unread_count = excluded.unread_count,
			last_message_at = MAX(chats.last_message_at, excluded.last_message_at),
			last_message_preview = CASE WHEN excluded.last_message_at >= chats.last_message_at
				THEN excluded.last_message_preview ELSE chats.last_message_preview END,
			updated_at = excluded.updated_at`,
		c.JID, c.Name, c.IsGroup, c.UnreadCount, c.LastMessageAt, c.LastMessagePreview, c.CreatedVia, time.Now().UnixMilli())
	return err
}

// FindOrCreateChat returns the chat for jid, inserting an empty chat tagged
// with createdVia when none exists. created reports whether a row was inserted.
func (db *DB) FindOrCreateChat(ctx context.Context, jid string, isGroup bool, createdVia string) (*Chat, bool, error) {
	res, err := db.ExecContext(ctx, `
		INSERT INTO chats (jid, is_group, created_via, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(jid) DO NOTHING`,
		jid, isGroup, createdVia, time.Now().UnixMilli())
	if err != nil {
		return nil, false, fmt.Errorf("insert chat: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("insert chat: %w", err)
	}
	c, err := db.GetChat(ctx, jid)
	if err != nil {
		return nil, false, err
	}
	return c, n == 1, nil
}

// ListChats returns chats sorted by last message timestamp descending.
// Display names fall back chat.name -> contact.push_name -> contact.name -> jid.
// A limit <= 0 returns every chat.
func (db *DB) ListChats(ctx context.Context, limit, offset int) ([]Chat, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.QueryContext(ctx, `
		SELECT `+chatColumns+`
		FROM chats c
		LEFT JOIN contacts ct ON c.jid = ct.jid
		ORDER BY c.last_message_at DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var chats []Chat
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		chats = append(chats, *c)
	}
	return chats, rows.Err()
}

// GetChat returns a single chat by JID, or nil if absent.
func (db *DB) GetChat(ctx context.Context, jid string) (*Chat, error) {
	c, err := scanChat(db.QueryRowContext(ctx, `
		SELECT `+chatColumns+`
		FROM chats c
		LEFT JOIN contacts ct ON c.jid = ct.jid
		WHERE c.jid = ?`, jid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}
