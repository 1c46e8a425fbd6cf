package wa

import (
	"context"

	"github.com/matheus3301/wpphist/internal/bus"
	"github.com/matheus3301/wpphist/internal/status"
	"github.com/matheus3301/wpphist/internal/store"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"go.uber.org/zap"
)

// LIDResolver maps hidden-user JIDs to phone number JIDs. *Adapter implements it.
type LIDResolver interface {
	ResolveLID(ctx context.Context, jid types.JID) types.JID
}

// EventHandler processes whatsmeow events, drives the state machine,
// and publishes parsed domain events on the bus. The sync engine
// subscribes to the bus independently.
type EventHandler struct {
	bus      *bus.Bus
	machine  *status.Machine
	resolver LIDResolver
	logger   *zap.Logger
}

// NewEventHandler creates a new event handler. resolver may be nil, in which
// case LID addresses are kept as-is.
func NewEventHandler(b *bus.Bus, machine *status.Machine, resolver LIDResolver, logger *zap.Logger) *EventHandler {
	return &EventHandler{
		bus:      b,
		machine:  machine,
		resolver: resolver,
		logger:   logger,
	}
}

// Handle is the main whatsmeow event handler function.
func (h *EventHandler) Handle(rawEvt any) {
	switch evt := rawEvt.(type) {
	case *events.Message:
		h.handleMessage(evt)
	case *events.Connected:
		h.logger.Info("WhatsApp connected")
		current := h.machine.Current()
		if current == status.AuthRequired || current == status.Reconnecting {
			_ = h.machine.Transition(status.Connecting)
		}
		_ = h.machine.Transition(status.Syncing)
		h.bus.Emit(bus.KindSyncConnected, nil)
	case *events.Disconnected:
		h.logger.Warn("WhatsApp disconnected")
		_ = h.machine.Transition(status.Reconnecting)
		h.bus.Emit(bus.KindSyncDisconnected, nil)
	case *events.HistorySync:
		h.handleHistorySync(evt)
	case *events.PushName:
		h.bus.Emit(bus.KindWAContact, &store.Contact{
			JID:      h.resolveJID(evt.JID.String()),
			PushName: evt.NewPushName,
		})
	case *events.LoggedOut:
		h.logger.Warn("WhatsApp logged out", zap.String("reason", evt.Reason.String()))
		_ = h.machine.Transition(status.AuthRequired)
		h.bus.Emit(bus.KindSessionLoggedOut, evt.Reason.String())
	}
}

// resolveJID normalizes a JID string and maps LIDs to phone numbers when a
// resolver is available.
func (h *EventHandler) resolveJID(raw string) string {
	normalized := NormalizeJID(raw)
	if h.resolver == nil || normalized == "" {
		return normalized
	}
	jid, err := types.ParseJID(normalized)
	if err != nil {
		return normalized
	}
	return h.resolver.ResolveLID(context.Background(), jid).String()
}

func (h *EventHandler) handleMessage(evt *events.Message) {
	if h.machine.Current() == status.Syncing {
		_ = h.machine.Transition(status.Ready)
	}

	parsed := ParseLiveMessage(evt)
	parsed.ChatJID = h.resolveJID(parsed.ChatJID)
	parsed.SenderJID = h.resolveJID(parsed.SenderJID)
	h.bus.Emit(bus.KindWAMessage, parsed.ToStoreMessage())
}

func (h *EventHandler) handleHistorySync(evt *events.HistorySync) {
	data := evt.Data
	if data == nil {
		return
	}

	var msgs []*store.Message
	var contacts []*store.Contact
	for _, conv := range data.GetConversations() {
		chatJID := h.resolveJID(conv.GetID())
		if name := conv.GetName(); name != "" {
			contacts = append(contacts, &store.Contact{JID: chatJID, Name: name})
		}
		for _, hm := range conv.GetMessages() {
			parsed := parseWebMessage(chatJID, hm.GetMessage())
			if parsed == nil {
				continue
			}
			parsed.SenderJID = h.resolveJID(parsed.SenderJID)
			msgs = append(msgs, parsed.ToStoreMessage())
		}
	}

	if len(msgs) > 0 {
		h.logger.Debug("history sync batch", zap.Int("messages", len(msgs)), zap.Int("contacts", len(contacts)))
		h.bus.Emit(bus.KindWAHistoryBatch, msgs)
	}
	if len(contacts) > 0 {
		h.bus.Emit(bus.KindWAContactBatch, contacts)
	}
}
