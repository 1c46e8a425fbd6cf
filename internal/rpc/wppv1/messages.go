package wppv1

// Message is one persisted message. Key is the serialized message key
// <fromMe>_<chat>_<id>[_<participant>].
type Message struct {
	RowID      int64  `json:"row_id,omitempty"`
	Key        string `json:"key"`
	ChatID     string `json:"chat_id"`
	Sender     string `json:"sender,omitempty"`
	SenderName string `json:"sender_name,omitempty"`
	Body       string `json:"body,omitempty"`
	Type       string `json:"type,omitempty"`
	Status     string `json:"status,omitempty"`
	FromMe     bool   `json:"from_me"`
	Timestamp  int64  `json:"timestamp"`
}

type GroupParticipant struct {
	ID           string `json:"id"`
	IsAdmin      bool   `json:"is_admin"`
	IsSuperAdmin bool   `json:"is_super_admin"`
}

type GroupInfo struct {
	Subject      string             `json:"subject"`
	Description  string             `json:"description,omitempty"`
	Owner        string             `json:"owner,omitempty"`
	CreatedAtMs  int64              `json:"created_at_ms,omitempty"`
	Participants []GroupParticipant `json:"participants"`
}

type Chat struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	IsGroup       bool       `json:"is_group"`
	CreatedVia    string     `json:"created_via,omitempty"`
	UnreadCount   int32      `json:"unread_count"`
	LastMessageAt int64      `json:"last_message_at"`
	Group         *GroupInfo `json:"group,omitempty"`
}

type FindOrCreateChatRequest struct {
	Address string `json:"address"`
}

type FindOrCreateChatResponse struct {
	Chat *Chat `json:"chat"`
}

type PageMessagesRequest struct {
	Anchor    string `json:"anchor"`
	Count     int32  `json:"count"`
	Direction string `json:"direction"`
}

// PageMessagesResponse carries status 404 when the anchor is unknown; that is
// a result, not an RPC error.
type PageMessagesResponse struct {
	Status   int32      `json:"status"`
	Messages []*Message `json:"messages"`
}

type SearchMessagesRequest struct {
	Term   string `json:"term"`
	Count  int32  `json:"count"`
	Page   int32  `json:"page"`
	Remote string `json:"remote,omitempty"`
	Anchor string `json:"anchor,omitempty"`
}

type SearchMessagesResponse struct {
	Messages []*Message `json:"messages"`
	EOF      bool       `json:"eof"`
	Canceled bool       `json:"canceled"`
}

// ScanMessagesRequest walks the row store. MinRowID and Limit are strings so
// callers can pass whatever they were given; the daemon parses them. An empty
// Limit selects the configured default, "-1" is unbounded.
type ScanMessagesRequest struct {
	MinRowID string `json:"min_row_id"`
	Limit    string `json:"limit,omitempty"`
}

type ScanMessagesResponse struct {
	Messages []*Message `json:"messages"`
}

type GetSessionStatusRequest struct{}

type GetSessionStatusResponse struct {
	Session       string `json:"session"`
	Status        string `json:"status"`
	Synced        bool   `json:"synced"`
	StatusSinceMs int64  `json:"status_since_ms"`
	UptimeMs      int64  `json:"uptime_ms"`
	PhoneNumber   string `json:"phone_number,omitempty"`
	ChatCount     int64  `json:"chat_count"`
	MessageCount  int64  `json:"message_count"`
	LastRowID     int64  `json:"last_row_id"`
	IndexedID     int64  `json:"indexed_id"`
	DroppedEvents uint64 `json:"dropped_events"`
}

type StartAuthRequest struct{}

type AuthEvent struct {
	EventType string `json:"event_type"`
	QrCode    string `json:"qr_code,omitempty"`
	Message   string `json:"message,omitempty"`
}

type LogoutRequest struct{}

type LogoutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
