package store

// Chat is a row of the chats table.
type Chat struct {
	JID                string
	Name               string
	IsGroup            bool
	UnreadCount        int
	LastMessageAt      int64
	LastMessagePreview string
	CreatedVia         string
}

// Contact is a row of the contacts table. Only used to name chats.
type Contact struct {
	JID      string
	Name     string
	PushName string
}

// Message is a row of the messages table. ID is the local autoincrement id
// and breaks timestamp ties in chat order.
type Message struct {
	ID          int64
	ChatJID     string
	MsgID       string
	SenderJID   string
	SenderName  string
	Body        string
	MessageType string
	FromMe      bool
	Status      string
	Timestamp   int64
}
