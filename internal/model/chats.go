// Package model holds the live chat entities served to callers and the
// group metadata they are enriched with.
package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/matheus3301/wpphist/internal/history"
	"github.com/matheus3301/wpphist/internal/store"
	"github.com/matheus3301/wpphist/internal/wid"
	"go.mau.fi/whatsmeow/types"
	"go.uber.org/zap"
)

// ChatStore is the in-memory live chat cache backed by the chats table.
// It is the only writer of cached entities.
type ChatStore struct {
	db     *store.DB
	logger *zap.Logger

	mu    sync.RWMutex
	chats map[string]*history.Chat
}

// NewChatStore creates an empty cache. Call Load to hydrate it.
func NewChatStore(db *store.DB, logger *zap.Logger) *ChatStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatStore{
		db:     db,
		logger: logger,
		chats:  make(map[string]*history.Chat),
	}
}

// Load hydrates the cache with every persisted chat.
func (s *ChatStore) Load(ctx context.Context) error {
	rows, err := s.db.ListChats(ctx, 0, 0)
	if err != nil {
		return fmt.Errorf("load chats: %w", err)
	}
	s.mu.Lock()
	for i := range rows {
		s.putLocked(&rows[i])
	}
	n := len(s.chats)
	s.mu.Unlock()
	s.logger.Info("chat cache loaded", zap.Int("chats", n))
	return nil
}

// Len returns the number of cached chats.
func (s *ChatStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chats)
}

// Get returns the live entity for id, or nil.
func (s *ChatStore) Get(id wid.Wid) *history.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chats[id.ChatID().String()]
}

// FindOrCreateLatestChat persists the chat if needed and refreshes its cache
// entry. Calling it again for the same id is a no-op apart from the refresh.
func (s *ChatStore) FindOrCreateLatestChat(ctx context.Context, id wid.Wid, tag string) (*history.ChatRef, bool, error) {
	jid := id.ChatID()
	row, created, err := s.db.FindOrCreateChat(ctx, jid.String(), jid.IsGroup(), tag)
	if err != nil {
		return nil, false, err
	}
	if row == nil {
		return nil, created, nil
	}
	s.mu.Lock()
	chat := s.putLocked(row)
	s.mu.Unlock()
	if chat == nil {
		return nil, created, nil
	}
	if created {
		s.logger.Info("chat created", zap.String("chat", jid.String()), zap.String("via", tag))
	}
	return &history.ChatRef{ID: chat.ID}, created, nil
}

// Touch reloads the given chats after ingestion changed them.
func (s *ChatStore) Touch(ctx context.Context, jids []string) error {
	for _, jid := range jids {
		row, err := s.db.GetChat(ctx, jid)
		if err != nil {
			return fmt.Errorf("reload chat %s: %w", jid, err)
		}
		if row == nil {
			continue
		}
		s.mu.Lock()
		s.putLocked(row)
		s.mu.Unlock()
	}
	return nil
}

// putLocked replaces the cached entity for row, carrying over group metadata.
func (s *ChatStore) putLocked(row *store.Chat) *history.Chat {
	jid, err := types.ParseJID(row.JID)
	if err != nil {
		s.logger.Warn("skipping chat with unparsable jid", zap.String("jid", row.JID), zap.Error(err))
		return nil
	}
	id := wid.FromJID(jid).ChatID()
	next := &history.Chat{
		ID:            id,
		Name:          row.Name,
		CreatedVia:    row.CreatedVia,
		UnreadCount:   row.UnreadCount,
		LastMessageAt: row.LastMessageAt,
	}
	key := id.String()
	if prev := s.chats[key]; prev != nil {
		next.SetGroupMetadata(prev.GroupMetadata())
	}
	s.chats[key] = next
	return next
}
