package wa

import (
	"github.com/matheus3301/wpphist/internal/store"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/proto/waWeb"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

// ParsedMessage is a normalized message ready for ingestion.
type ParsedMessage struct {
	ChatJID     string
	MsgID       string
	SenderJID   string
	SenderName  string
	Body        string
	MessageType string
	FromMe      bool
	Timestamp   int64
}

// NormalizeJID strips the device and agent parts of a JID string. Strings
// that do not parse are returned unchanged.
func NormalizeJID(raw string) string {
	if raw == "" {
		return ""
	}
	jid, err := types.ParseJID(raw)
	if err != nil || jid.Server == "" {
		return raw
	}
	return jid.ToNonAD().String()
}

// ParseLiveMessage normalizes a live whatsmeow message event.
func ParseLiveMessage(evt *events.Message) *ParsedMessage {
	return ParseHistoryMessage(evt.Message, evt.Info)
}

// ParseHistoryMessage normalizes a message with its info envelope.
func ParseHistoryMessage(msg *waE2E.Message, info types.MessageInfo) *ParsedMessage {
	return &ParsedMessage{
		ChatJID:     info.Chat.ToNonAD().String(),
		MsgID:       info.ID,
		SenderJID:   info.Sender.ToNonAD().String(),
		SenderName:  info.PushName,
		Body:        extractTextBody(msg),
		MessageType: detectMessageType(msg),
		FromMe:      info.IsFromMe,
		Timestamp:   info.Timestamp.UnixMilli(),
	}
}

// parseWebMessage normalizes one message of a history sync conversation.
// Returns nil for entries without content.
func parseWebMessage(chatJID string, wmsg *waWeb.WebMessageInfo) *ParsedMessage {
	if wmsg == nil || wmsg.GetMessage() == nil {
		return nil
	}
	key := wmsg.GetKey()
	content := wmsg.GetMessage()
	return &ParsedMessage{
		ChatJID:     chatJID,
		MsgID:       key.GetID(),
		SenderJID:   NormalizeJID(key.GetParticipant()),
		SenderName:  wmsg.GetPushName(),
		Body:        extractTextBody(content),
		MessageType: detectMessageType(content),
		FromMe:      key.GetFromMe(),
		Timestamp:   int64(wmsg.GetMessageTimestamp()) * 1000,
	}
}

// ToStoreMessage converts a ParsedMessage to a store.Message.
func (p *ParsedMessage) ToStoreMessage() *store.Message {
	return &store.Message{
		ChatJID:     p.ChatJID,
		MsgID:       p.MsgID,
		SenderJID:   p.SenderJID,
		SenderName:  p.SenderName,
		Body:        p.Body,
		MessageType: p.MessageType,
		FromMe:      p.FromMe,
		Status:      "received",
		Timestamp:   p.Timestamp,
	}
}

func extractTextBody(msg *waE2E.Message) string {
	if msg == nil {
		return ""
	}
	if c := msg.GetConversation(); c != "" {
		return c
	}
	if ext := msg.GetExtendedTextMessage(); ext != nil {
		return ext.GetText()
	}
	if img := msg.GetImageMessage(); img != nil {
		return img.GetCaption()
	}
	if vid := msg.GetVideoMessage(); vid != nil {
		return vid.GetCaption()
	}
	if doc := msg.GetDocumentMessage(); doc != nil {
		return doc.GetCaption()
	}
	return ""
}

func detectMessageType(msg *waE2E.Message) string {
	if msg == nil {
		return "unknown"
	}
	switch {
	case msg.GetConversation() != "" || msg.GetExtendedTextMessage() != nil:
		return "text"
	case msg.GetImageMessage() != nil:
		return "image"
	case msg.GetVideoMessage() != nil:
		return "video"
	case msg.GetAudioMessage() != nil:
		return "audio"
	case msg.GetDocumentMessage() != nil:
		return "document"
	case msg.GetStickerMessage() != nil:
		return "sticker"
	case msg.GetContactMessage() != nil:
		return "contact"
	case msg.GetLocationMessage() != nil:
		return "location"
	default:
		return "unknown"
	}
}
