package sync

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matheus3301/wpphist/internal/bus"
	"github.com/matheus3301/wpphist/internal/store"
	"go.uber.org/zap"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// chatMessages returns the stored messages of one chat in insertion order.
func chatMessages(t *testing.T, db *store.DB, chat string) []store.Message {
	t.Helper()
	all, err := db.MessagesAfterID(context.Background(), 0, 1000)
	if err != nil {
		t.Fatal(err)
	}
	var out []store.Message
	for _, m := range all {
		if m.ChatJID == chat {
			out = append(out, m)
		}
	}
	return out
}

type touchRecorder struct {
	calls atomic.Int32
	last  atomic.Value
}

func (r *touchRecorder) Touch(_ context.Context, jids []string) error {
	r.calls.Add(1)
	r.last.Store(jids)
	return nil
}

func TestEngineIngestMessage(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	chats := &touchRecorder{}
	e := NewEngine(db, b, chats, nil)
	ctx := context.Background()

	ch, unsub := b.Subscribe("sync.", 10)
	defer unsub()

	msg := &store.Message{
		ChatJID: "5511999990000@s.whatsapp.net", MsgID: "m1", Body: "hello",
		MessageType: "text", Timestamp: 1000,
	}
	if err := e.IngestMessage(ctx, msg); err != nil {
		t.Fatal(err)
	}

	// Verify chat was auto-created.
	chat, err := db.GetChat(ctx, msg.ChatJID)
	if err != nil {
		t.Fatal(err)
	}
	if chat == nil {
		t.Fatal("chat not created")
	}

	msgs := chatMessages(t, db, msg.ChatJID)
	if len(msgs) != 1 || msgs[0].Body != "hello" {
		t.Errorf("got %d messages, want 1 with body=hello", len(msgs))
	}

	if chats.calls.Load() != 1 {
		t.Errorf("Touch calls = %d, want 1", chats.calls.Load())
	}

	select {
	case evt := <-ch:
		if evt.Kind != bus.KindSyncIngested {
			t.Errorf("event kind = %q, want %s", evt.Kind, bus.KindSyncIngested)
		}
		stats := evt.Payload.(IngestStats)
		if stats.Messages != 1 || stats.Chats != 1 {
			t.Errorf("stats = %+v, want 1 message in 1 chat", stats)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for sync.ingested event")
	}
}

func TestEngineIngestMessageIdempotent(t *testing.T) {
	db := testDB(t)
	e := NewEngine(db, bus.New(), nil, nil)
	ctx := context.Background()

	msg := &store.Message{
		ChatJID: "chat@s.whatsapp.net", MsgID: "m1", Body: "v1",
		MessageType: "text", Timestamp: 1000,
	}
	if err := e.IngestMessage(ctx, msg); err != nil {
		t.Fatal(err)
	}
	msg.Body = "v2"
	if err := e.IngestMessage(ctx, msg); err != nil {
		t.Fatal(err)
	}

	msgs := chatMessages(t, db, "chat@s.whatsapp.net")
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1 (idempotent)", len(msgs))
	}
	if msgs[0].Body != "v2" {
		t.Errorf("body = %q, want v2 (updated)", msgs[0].Body)
	}
}

func TestEngineIngestHistoryBatch(t *testing.T) {
	db := testDB(t)
	e := NewEngine(db, bus.New(), nil, nil)
	ctx := context.Background()

	msgs := []*store.Message{
		{ChatJID: "a@s.whatsapp.net", MsgID: "m1", Body: "one", MessageType: "text", Timestamp: 1000, Status: "received"},
		{ChatJID: "a@s.whatsapp.net", MsgID: "m2", Body: "two", MessageType: "text", Timestamp: 2000, Status: "received"},
		{ChatJID: "b@s.whatsapp.net", MsgID: "m3", Body: "three", MessageType: "text", Timestamp: 3000, Status: "received"},
	}

	// Ingest twice.
	for range 2 {
		if err := e.IngestHistoryBatch(ctx, msgs); err != nil {
			t.Fatal(err)
		}
	}

	chats, err := db.ListChats(ctx, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(chats) != 2 {
		t.Errorf("got %d chats, want 2", len(chats))
	}

	msgsA := chatMessages(t, db, "a@s.whatsapp.net")
	msgsB := chatMessages(t, db, "b@s.whatsapp.net")
	if len(msgsA) != 2 || len(msgsB) != 1 {
		t.Errorf("got %d+%d messages, want 2+1", len(msgsA), len(msgsB))
	}
}

func TestEngineIngestContactsNamesChat(t *testing.T) {
	db := testDB(t)
	e := NewEngine(db, bus.New(), nil, nil)
	ctx := context.Background()

	jid := "5511999990000@s.whatsapp.net"
	if err := e.IngestMessage(ctx, &store.Message{ChatJID: jid, MsgID: "m1", Timestamp: 1}); err != nil {
		t.Fatal(err)
	}
	if err := e.IngestContacts(ctx, []*store.Contact{{JID: jid, PushName: "Eric"}, nil, {Name: "no jid"}}); err != nil {
		t.Fatal(err)
	}

	chat, err := db.GetChat(ctx, jid)
	if err != nil {
		t.Fatal(err)
	}
	if chat.Name != "Eric" {
		t.Errorf("chat name = %q, want Eric", chat.Name)
	}
}

// TestEngineBusSubscription verifies the engine processes events from the bus.
func TestEngineBusSubscription(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	logger, _ := zap.NewDevelopment()
	e := NewEngine(db, b, nil, logger)

	e.Start(context.Background())
	defer e.Stop()

	ingested, unsub := b.Subscribe(bus.KindSyncIngested, 10)
	defer unsub()

	b.Emit(bus.KindWAMessage, &store.Message{
		ChatJID: "bus-test@s.whatsapp.net", MsgID: "bm1", Body: "from bus",
		MessageType: "text", Timestamp: 5000, Status: "received",
	})
	waitFor(t, ingested)

	msgs := chatMessages(t, db, "bus-test@s.whatsapp.net")
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1 (bus subscription)", len(msgs))
	}
	if msgs[0].Body != "from bus" {
		t.Errorf("body = %q, want 'from bus'", msgs[0].Body)
	}

	b.Emit(bus.KindWAHistoryBatch, []*store.Message{
		{ChatJID: "batch@s.whatsapp.net", MsgID: "hm1", Body: "history", MessageType: "text", Timestamp: 6000, Status: "received"},
		{ChatJID: "batch@s.whatsapp.net", MsgID: "hm2", Body: "history2", MessageType: "text", Timestamp: 7000, Status: "received"},
	})
	waitFor(t, ingested)

	if msgs := chatMessages(t, db, "batch@s.whatsapp.net"); len(msgs) != 2 {
		t.Errorf("got %d messages, want 2 (history batch via bus)", len(msgs))
	}
}

type staticContacts []*store.Contact

func (c staticContacts) GetContacts(context.Context) []*store.Contact { return c }

func TestEngineImportsDeviceContactsOnConnect(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	e := NewEngine(db, b, nil, nil)
	ctx := context.Background()

	jid := "5511988887777@s.whatsapp.net"
	if err := e.IngestMessage(ctx, &store.Message{ChatJID: jid, MsgID: "c1", Timestamp: 1}); err != nil {
		t.Fatal(err)
	}
	e.SetContactSource(staticContacts{{JID: jid, Name: "Carla"}})

	e.Start(ctx)
	defer e.Stop()
	b.Emit(bus.KindSyncConnected, nil)

	deadline := time.Now().Add(2 * time.Second)
	for {
		chat, err := db.GetChat(ctx, jid)
		if err != nil {
			t.Fatal(err)
		}
		if chat != nil && chat.Name == "Carla" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("device contact never named the chat")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestEngineSyncContactsWithoutSource(t *testing.T) {
	e := NewEngine(testDB(t), bus.New(), nil, nil)
	if err := e.SyncContacts(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func waitFor(t *testing.T, ch <-chan bus.Event) bus.Event {
	t.Helper()
	select {
	case evt := <-ch:
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
		return bus.Event{}
	}
}
