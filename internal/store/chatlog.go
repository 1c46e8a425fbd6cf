package store

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/matheus3301/wpphist/internal/history"
	"github.com/matheus3301/wpphist/internal/wid"
	"go.mau.fi/whatsmeow/types"
)

// ChatLog serves directional paging and full-text search over the messages
// table. Chat order is (timestamp, id) ascending.
type ChatLog struct {
	db *DB
}

// NewChatLog creates a chat log over db.
func NewChatLog(db *DB) *ChatLog {
	return &ChatLog{db: db}
}

// Record converts a row into the history projection.
func Record(m Message) history.Message {
	chat := parseWid(m.ChatJID)
	key := wid.MsgKey{ChatID: chat.ChatID(), FromMe: m.FromMe, ID: m.MsgID}
	if chat.IsGroup() && m.SenderJID != "" {
		key.Participant = parseWid(m.SenderJID)
	}
	return history.Message{
		Key:        key,
		Sender:     m.SenderJID,
		SenderName: m.SenderName,
		Body:       m.Body,
		Type:       m.MessageType,
		Status:     m.Status,
		Timestamp:  m.Timestamp,
	}
}

func parseWid(s string) wid.Wid {
	jid, err := types.ParseJID(s)
	if err != nil {
		return wid.Wid{}
	}
	return wid.FromJID(jid)
}

func records(msgs []Message) []history.Message {
	out := make([]history.Message, len(msgs))
	for i, m := range msgs {
		out[i] = Record(m)
	}
	return out
}

// MsgFindByDirection returns up to count messages strictly before or after
// anchor in its chat, chronologically ordered.
func (l *ChatLog) MsgFindByDirection(ctx context.Context, anchor wid.MsgKey, count int, dir history.Direction) (*history.PageResult, error) {
	chatJID := anchor.ChatID.ChatID().String()
	a, err := l.db.FindMessage(ctx, chatJID, anchor.ID, anchor.FromMe)
	if err != nil {
		return nil, fmt.Errorf("find anchor: %w", err)
	}
	if a == nil {
		return &history.PageResult{Status: history.StatusAnchorNotFound}, nil
	}

	var q string
	switch dir {
	case history.Before:
		q = `SELECT ` + messageColumns + `
			FROM messages m
			WHERE m.chat_jid = ? AND (m.timestamp < ? OR (m.timestamp = ? AND m.id < ?))
			ORDER BY m.timestamp DESC, m.id DESC
			LIMIT ?`
	case history.After:
		q = `SELECT ` + messageColumns + `
			FROM messages m
			WHERE m.chat_jid = ? AND (m.timestamp > ? OR (m.timestamp = ? AND m.id > ?))
			ORDER BY m.timestamp ASC, m.id ASC
			LIMIT ?`
	default:
		return nil, fmt.Errorf("unknown direction %q", dir)
	}

	rows, err := l.db.QueryContext(ctx, q, chatJID, a.Timestamp, a.Timestamp, a.ID, count)
	if err != nil {
		return nil, fmt.Errorf("page %s: %w", dir, err)
	}
	msgs, err := collectMessages(rows)
	if err != nil {
		return nil, fmt.Errorf("page %s: %w", dir, err)
	}
	if dir == history.Before {
		slices.Reverse(msgs)
	}
	return &history.PageResult{Messages: records(msgs), Status: history.StatusOK}, nil
}

// MsgFindSearch runs one page of an FTS5 phrase search, newest match first.
// When ctx ends mid-query the rows read so far are returned with Canceled set.
func (l *ChatLog) MsgFindSearch(ctx context.Context, p history.SearchParams) (*history.SearchResult, error) {
	q := `SELECT ` + messageColumns + `
		FROM messages_fts f
		JOIN messages m ON m.id = f.rowid
		WHERE messages_fts MATCH ?`
	args := []any{ftsPhrase(p.Term)}

	if !p.Remote.IsZero() {
		q += ` AND m.chat_jid = ?`
		args = append(args, p.Remote.ChatID().String())
	}
	if p.Anchor != nil {
		a, err := l.db.FindMessage(ctx, p.Anchor.ChatID.ChatID().String(), p.Anchor.ID, p.Anchor.FromMe)
		if err != nil {
			return nil, fmt.Errorf("find anchor: %w", err)
		}
		if a == nil {
			return nil, fmt.Errorf("search anchor %s: %w", p.Anchor, history.ErrAnchorNotFound)
		}
		q += ` AND (m.timestamp < ? OR (m.timestamp = ? AND m.id < ?))`
		args = append(args, a.Timestamp, a.Timestamp, a.ID)
	}
	q += ` ORDER BY m.timestamp DESC, m.id DESC LIMIT ? OFFSET ?`
	args = append(args, p.Count+1, p.Page*p.Count)

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		if ctx.Err() != nil {
			return &history.SearchResult{Messages: []history.Message{}, Canceled: true}, nil
		}
		return nil, fmt.Errorf("search: %w", err)
	}
	msgs, err := collectMessages(rows)
	if err != nil {
		if ctx.Err() != nil {
			slices.Reverse(msgs)
			return &history.SearchResult{Messages: records(msgs), Canceled: true}, nil
		}
		return nil, fmt.Errorf("search: %w", err)
	}

	eof := len(msgs) <= p.Count
	if !eof {
		msgs = msgs[:p.Count]
	}
	slices.Reverse(msgs)
	return &history.SearchResult{Messages: records(msgs), EOF: eof, Canceled: ctx.Err() != nil}, nil
}

func ftsPhrase(term string) string {
	return `"` + strings.ReplaceAll(strings.TrimSpace(term), `"`, `""`) + `"`
}
