// Package sync ingests WhatsApp events into the message store and keeps the
// durable row store caught up with it.
package sync

import (
	"context"
	"fmt"

	"github.com/matheus3301/wpphist/internal/bus"
	"github.com/matheus3301/wpphist/internal/store"
	"go.uber.org/zap"
)

// ChatToucher refreshes cached chats after their rows changed.
type ChatToucher interface {
	Touch(ctx context.Context, jids []string) error
}

// ContactSource lists the contacts held by the device store.
type ContactSource interface {
	GetContacts(ctx context.Context) []*store.Contact
}

// IngestStats is the payload of sync.ingested events.
type IngestStats struct {
	Messages int
	Chats    int
}

// Engine handles idempotent ingestion of messages into the store.
// It subscribes to "wa.*" events on the bus and processes them.
type Engine struct {
	db     *store.DB
	bus    *bus.Bus
	chats  ChatToucher
	logger *zap.Logger

	contacts ContactSource
	cancel context.CancelFunc
	done   chan struct{}
}

// NewEngine creates a new sync engine. chats may be nil.
func NewEngine(db *store.DB, b *bus.Bus, chats ChatToucher, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		db:     db,
		bus:    b,
		chats:  chats,
		logger: logger,
	}
}

// SetContactSource makes the engine import the device contact list each
// time the connection comes up. Call before Start.
func (e *Engine) SetContactSource(src ContactSource) {
	e.contacts = src
}

// Start subscribes to inbound WhatsApp events on the bus.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	e.done = make(chan struct{})
	ch, unsub := e.bus.Subscribe("wa.", 256)
	connected, unsubConnected := e.bus.Subscribe(bus.KindSyncConnected, 4)

	go func() {
		defer close(e.done)
		defer unsub()
		defer unsubConnected()
		for {
			select {
			case evt := <-ch:
				e.handleEvent(ctx, evt)
			case <-connected:
				if err := e.SyncContacts(ctx); err != nil {
					e.logger.Warn("failed to import device contacts", zap.Error(err))
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the engine and waits for the event loop to exit.
func (e *Engine) Stop() {
	if e.cancel == nil {
		return
	}
	e.cancel()
	<-e.done
}

func (e *Engine) handleEvent(ctx context.Context, evt bus.Event) {
	switch evt.Kind {
	case bus.KindWAMessage:
		msg, ok := evt.Payload.(*store.Message)
		if !ok {
			return
		}
		if err := e.IngestMessage(ctx, msg); err != nil {
			e.logger.Error("failed to ingest message", zap.Error(err), zap.String("msg_id", msg.MsgID))
		}
	case bus.KindWAHistoryBatch:
		msgs, ok := evt.Payload.([]*store.Message)
		if !ok {
			return
		}
		if err := e.IngestHistoryBatch(ctx, msgs); err != nil {
			e.logger.Error("failed to ingest history batch", zap.Error(err), zap.Int("count", len(msgs)))
		} else {
			e.logger.Info("history batch ingested", zap.Int("messages", len(msgs)))
		}
	case bus.KindWAContact:
		c, ok := evt.Payload.(*store.Contact)
		if !ok {
			return
		}
		if err := e.IngestContacts(ctx, []*store.Contact{c}); err != nil {
			e.logger.Warn("failed to ingest contact", zap.Error(err), zap.String("jid", c.JID))
		}
	case bus.KindWAContactBatch:
		cs, ok := evt.Payload.([]*store.Contact)
		if !ok {
			return
		}
		if err := e.IngestContacts(ctx, cs); err != nil {
			e.logger.Warn("failed to ingest contacts", zap.Error(err), zap.Int("count", len(cs)))
		}
	}
}

// IngestMessage processes a single message into the store (idempotent).
func (e *Engine) IngestMessage(ctx context.Context, msg *store.Message) error {
	return e.IngestHistoryBatch(ctx, []*store.Message{msg})
}

// IngestHistoryBatch processes a batch of messages in one transaction.
func (e *Engine) IngestHistoryBatch(ctx context.Context, msgs []*store.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	chats, err := e.db.UpsertMessages(ctx, msgs)
	if err != nil {
		return fmt.Errorf("upsert messages: %w", err)
	}
	e.touch(ctx, msgs)
	e.bus.Emit(bus.KindSyncIngested, IngestStats{Messages: len(msgs), Chats: chats})
	return nil
}

// SyncContacts imports every contact of the device store. No-op without a
// contact source.
func (e *Engine) SyncContacts(ctx context.Context) error {
	if e.contacts == nil {
		return nil
	}
	contacts := e.contacts.GetContacts(ctx)
	if err := e.IngestContacts(ctx, contacts); err != nil {
		return err
	}
	e.logger.Info("device contacts imported", zap.Int("contacts", len(contacts)))
	return nil
}

// IngestContacts stores contact names. Chats pick them up as display names.
func (e *Engine) IngestContacts(ctx context.Context, contacts []*store.Contact) error {
	rows := make([]store.Contact, 0, len(contacts))
	jids := make([]string, 0, len(contacts))
	for _, c := range contacts {
		if c == nil || c.JID == "" {
			continue
		}
		rows = append(rows, *c)
		jids = append(jids, c.JID)
	}
	if len(rows) == 0 {
		return nil
	}
	if err := e.db.BulkUpsertContacts(ctx, rows); err != nil {
		return fmt.Errorf("upsert contacts: %w", err)
	}
	if e.chats != nil {
		if err := e.chats.Touch(ctx, jids); err != nil {
			e.logger.Warn("chat cache refresh failed", zap.Error(err))
		}
	}
	return nil
}

func (e *Engine) touch(ctx context.Context, msgs []*store.Message) {
	if e.chats == nil {
		return
	}
	seen := make(map[string]struct{}, len(msgs))
	jids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if _, ok := seen[m.ChatJID]; ok {
			continue
		}
		seen[m.ChatJID] = struct{}{}
		jids = append(jids, m.ChatJID)
	}
	if err := e.chats.Touch(ctx, jids); err != nil {
		e.logger.Warn("chat cache refresh failed", zap.Error(err))
	}
}
