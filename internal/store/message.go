package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const messageColumns = `m.id, m.chat_jid, m.msg_id, m.sender_jid, m.sender_name, m.body, m.message_type, m.from_me, m.status, m.timestamp`

func scanMessage(row interface{ Scan(...any) error }) (Message, error) {
	var m Message
	err := row.Scan(&m.ID, &m.ChatJID, &m.MsgID, &m.SenderJID, &m.SenderName, &m.Body, &m.MessageType, &m.FromMe, &m.Status, &m.Timestamp)
	return m, err
}

func collectMessages(rows *sql.Rows) ([]Message, error) {
	defer func() { _ = rows.Close() }()
	var msgs []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return msgs, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// UpsertMessages writes messages and bumps their chats in one transaction.
// Upserts are idempotent on (chat_jid, msg_id); an existing row keeps its id.
func (db *DB) UpsertMessages(ctx context.Context, msgs []*Message) (chats int, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()
	seen := make(map[string]struct{})
	for _, m := range msgs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chats (jid, is_group, last_message_at, last_message_preview, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(jid) DO UPDATE SET
				last_message_at = MAX(chats.last_message_at, excluded.last_message_at),
				last_message_preview = CASE WHEN excluded.last_message_at >= chats.last_message_at
					THEN excluded.last_message_preview ELSE chats.last_message_preview END,
				updated_at = excluded.updated_at`,
			m.ChatJID, isGroupJID(m.ChatJID), m.Timestamp, preview(m.Body), now); err != nil {
			return 0, fmt.Errorf("upsert chat %q: %w", m.ChatJID, err)
		}
		seen[m.ChatJID] = struct{}{}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO messages (chat_jid, msg_id, sender_jid, sender_name, body, message_type, from_me, status, timestamp, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(chat_jid, msg_id) DO UPDATE SET
				sender_name = CASE WHEN excluded.sender_name != '' THEN excluded.sender_name ELSE messages.sender_name END,
				body = excluded.body,
				status = excluded.status`,
			m.ChatJID, m.MsgID, m.SenderJID, m.SenderName, m.Body, m.MessageType, m.FromMe, m.Status, m.Timestamp, now); err != nil {
			return 0, fmt.Errorf("upsert message %q: %w", m.MsgID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(seen), nil
}

// FindMessage looks a message up by its key. Returns nil when absent.
func (db *DB) FindMessage(ctx context.Context, chatJID, msgID string, fromMe bool) (*Message, error) {
	m, err := scanMessage(db.QueryRowContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages m
		WHERE m.chat_jid = ? AND m.msg_id = ? AND m.from_me = ?`, chatJID, msgID, fromMe))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// MessagesAfterID returns up to limit messages with a local id greater than
// afterID, in id order.
func (db *DB) MessagesAfterID(ctx context.Context, afterID int64, limit int) ([]Message, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages m
		WHERE m.id > ?
		ORDER BY m.id ASC
		LIMIT ?`, afterID, limit)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

func isGroupJID(jid string) bool {
	return strings.HasSuffix(jid, "@g.us")
}

func preview(s string) string {
	const maxLen = 100
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen])
}
