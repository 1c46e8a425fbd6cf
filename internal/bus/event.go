package bus

import (
	"time"

	"github.com/google/uuid"
)

// Event kinds. Subscribers filter on the namespace prefix before the dot.
const (
	KindWAMessage      = "wa.message"
	KindWAHistoryBatch = "wa.history_batch"
	KindWAContact      = "wa.contact"
	KindWAContactBatch = "wa.contact_batch"

	KindSyncConnected    = "sync.connected"
	KindSyncDisconnected = "sync.disconnected"
	KindSyncIngested     = "sync.ingested"
	KindSyncRowsIndexed  = "sync.rows_indexed"

	KindSessionStatusChanged = "session.status_changed"
	KindSessionLoggedOut     = "session.logged_out"
	KindSessionQR            = "session.qr_generated"
	KindSessionAuthenticated = "session.authenticated"
	KindSessionAuthFailed    = "session.auth_failed"
)

// Event represents a domain event published on the bus.
type Event struct {
	ID        uuid.UUID
	Kind      string
	Timestamp time.Time
	Payload   any
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(kind string, payload any) Event {
	return Event{
		ID:        uuid.New(),
		Kind:      kind,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}
