package wa

import (
	"testing"
	"time"

	"go.mau.fi/whatsmeow/proto/waCommon"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/proto/waWeb"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

func TestExtractTextBody(t *testing.T) {
	tests := []struct {
		name string
		msg  *waE2E.Message
		want string
	}{
		{"nil message", nil, ""},
		{"conversation", &waE2E.Message{Conversation: proto.String("hello")}, "hello"},
		{"extended text", &waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{Text: proto.String("extended")}}, "extended"},
		{"image caption", &waE2E.Message{ImageMessage: &waE2E.ImageMessage{Caption: proto.String("beach")}}, "beach"},
		{"video caption", &waE2E.Message{VideoMessage: &waE2E.VideoMessage{Caption: proto.String("clip")}}, "clip"},
		{"document caption", &waE2E.Message{DocumentMessage: &waE2E.DocumentMessage{Caption: proto.String("invoice q3")}}, "invoice q3"},
		{"image without caption", &waE2E.Message{ImageMessage: &waE2E.ImageMessage{}}, ""},
		{"audio", &waE2E.Message{AudioMessage: &waE2E.AudioMessage{}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractTextBody(tt.msg); got != tt.want {
				t.Errorf("extractTextBody() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectMessageType(t *testing.T) {
	tests := []struct {
		msg  *waE2E.Message
		want string
	}{
		{nil, "unknown"},
		{&waE2E.Message{Conversation: proto.String("x")}, "text"},
		{&waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{}}, "text"},
		{&waE2E.Message{ImageMessage: &waE2E.ImageMessage{}}, "image"},
		{&waE2E.Message{VideoMessage: &waE2E.VideoMessage{}}, "video"},
		{&waE2E.Message{AudioMessage: &waE2E.AudioMessage{}}, "audio"},
		{&waE2E.Message{DocumentMessage: &waE2E.DocumentMessage{}}, "document"},
		{&waE2E.Message{StickerMessage: &waE2E.StickerMessage{}}, "sticker"},
		{&waE2E.Message{ContactMessage: &waE2E.ContactMessage{}}, "contact"},
		{&waE2E.Message{LocationMessage: &waE2E.LocationMessage{}}, "location"},
		{&waE2E.Message{}, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := detectMessageType(tt.msg); got != tt.want {
				t.Errorf("detectMessageType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseLiveMessageUsesMillis(t *testing.T) {
	ts := time.Date(2025, 1, 15, 12, 0, 0, 250_000_000, time.UTC)
	evt := &events.Message{
		Info: types.MessageInfo{
			ID:        "MSG123",
			PushName:  "Alice",
			Timestamp: ts,
			MessageSource: types.MessageSource{
				Chat:     types.JID{User: "5511999990000", Server: types.DefaultUserServer, Device: 1},
				Sender:   types.JID{User: "5511888880000", Server: types.DefaultUserServer, Device: 3},
				IsFromMe: true,
			},
		},
		Message: &waE2E.Message{Conversation: proto.String("hello world")},
	}

	parsed := ParseLiveMessage(evt)

	if parsed.ChatJID != "5511999990000@s.whatsapp.net" {
		t.Errorf("ChatJID = %q, device suffix must be stripped", parsed.ChatJID)
	}
	if parsed.SenderJID != "5511888880000@s.whatsapp.net" {
		t.Errorf("SenderJID = %q, device suffix must be stripped", parsed.SenderJID)
	}
	if parsed.MsgID != "MSG123" || parsed.SenderName != "Alice" || !parsed.FromMe {
		t.Errorf("envelope fields not carried over: %+v", parsed)
	}
	if parsed.Body != "hello world" || parsed.MessageType != "text" {
		t.Errorf("content = %q/%q", parsed.Body, parsed.MessageType)
	}
	if parsed.Timestamp != ts.UnixMilli() {
		t.Errorf("Timestamp = %d, want %d", parsed.Timestamp, ts.UnixMilli())
	}
}

func TestParseWebMessage(t *testing.T) {
	wmsg := &waWeb.WebMessageInfo{
		Key: &waCommon.MessageKey{
			ID:          proto.String("H1"),
			FromMe:      proto.Bool(false),
			Participant: proto.String("5511888880000:2@s.whatsapp.net"),
		},
		PushName:         proto.String("Bob"),
		MessageTimestamp: proto.Uint64(1_700_000_000),
		Message:          &waE2E.Message{ImageMessage: &waE2E.ImageMessage{Caption: proto.String("receipt")}},
	}

	parsed := parseWebMessage("120363000000000001@g.us", wmsg)
	if parsed == nil {
		t.Fatal("parseWebMessage() = nil")
	}
	if parsed.ChatJID != "120363000000000001@g.us" || parsed.MsgID != "H1" {
		t.Errorf("key = %s/%s", parsed.ChatJID, parsed.MsgID)
	}
	if parsed.SenderJID != "5511888880000@s.whatsapp.net" {
		t.Errorf("SenderJID = %q", parsed.SenderJID)
	}
	if parsed.Body != "receipt" || parsed.MessageType != "image" {
		t.Errorf("content = %q/%q", parsed.Body, parsed.MessageType)
	}
	if parsed.Timestamp != 1_700_000_000_000 {
		t.Errorf("Timestamp = %d, want seconds scaled to millis", parsed.Timestamp)
	}
}

func TestParseWebMessageSkipsEmpty(t *testing.T) {
	if got := parseWebMessage("c@s.whatsapp.net", nil); got != nil {
		t.Errorf("nil info parsed to %+v", got)
	}
	if got := parseWebMessage("c@s.whatsapp.net", &waWeb.WebMessageInfo{Key: &waCommon.MessageKey{ID: proto.String("x")}}); got != nil {
		t.Errorf("info without content parsed to %+v", got)
	}
}

func TestToStoreMessage(t *testing.T) {
	p := &ParsedMessage{
		ChatJID:     "5511999990000@s.whatsapp.net",
		MsgID:       "m1",
		SenderJID:   "5511999990000@s.whatsapp.net",
		Body:        "test",
		MessageType: "text",
		Timestamp:   42000,
	}

	sm := p.ToStoreMessage()
	if sm.ChatJID != p.ChatJID || sm.MsgID != "m1" || sm.Timestamp != 42000 {
		t.Errorf("ToStoreMessage() = %+v", sm)
	}
	if sm.Status != "received" {
		t.Errorf("Status = %q, want received", sm.Status)
	}
}

// Device suffixes produced duplicate chats when history sync and live
// messages disagreed on the JID form.
func TestNormalizeJID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"5511999990000@s.whatsapp.net", "5511999990000@s.whatsapp.net"},
		{"5511999990000:0@s.whatsapp.net", "5511999990000@s.whatsapp.net"},
		{"5511999990000:5@s.whatsapp.net", "5511999990000@s.whatsapp.net"},
		{"120363123456@g.us", "120363123456@g.us"},
		{"3917077286968@lid", "3917077286968@lid"},
		{"", ""},
		{"invalid", "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeJID(tt.input); got != tt.want {
				t.Errorf("NormalizeJID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
