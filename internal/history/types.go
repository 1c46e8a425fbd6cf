// Package history serves read access to the locally persisted chat history:
// chat resolution, anchored directional paging, cancellable full-text search
// and row-ordered walks of the durable message store.
package history

import (
	"sync"
	"time"

	"github.com/matheus3301/wpphist/internal/wid"
)

// Status codes carried by PageResult.
const (
	StatusOK             = 200
	StatusAnchorNotFound = 404
)

// Row cursor limits.
const (
	Unbounded        = -1
	DefaultScanLimit = 1000
)

// NewChatFlowTag is the caller tag passed to the get-or-create primitive.
const NewChatFlowTag = "newChatFlow"

// Direction selects which side of an anchor a page is taken from.
type Direction string

const (
	Before Direction = "before"
	After  Direction = "after"
)

func (d Direction) valid() bool {
	return d == Before || d == After
}

// ChatRef is the detached chat projection returned by the get-or-create primitive.
type ChatRef struct {
	ID wid.Wid
}

// Chat is a live chat entity owned by the chat cache.
type Chat struct {
	ID            wid.Wid
	Name          string
	CreatedVia    string
	UnreadCount   int
	LastMessageAt int64

	mu            sync.RWMutex
	groupMetadata *GroupMetadata
}

// IsGroup is derived from the chat id.
func (c *Chat) IsGroup() bool {
	return c.ID.IsGroup()
}

// GroupMetadata returns the enriched group metadata, or nil if not yet fetched.
func (c *Chat) GroupMetadata() *GroupMetadata {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.groupMetadata
}

// SetGroupMetadata attaches metadata to a group chat. Ignored for non-groups.
func (c *Chat) SetGroupMetadata(m *GroupMetadata) {
	if !c.IsGroup() {
		return
	}
	c.mu.Lock()
	c.groupMetadata = m
	c.mu.Unlock()
}

// GroupParticipant is one member of a group.
type GroupParticipant struct {
	ID           wid.Wid `json:"id"`
	IsAdmin      bool    `json:"is_admin"`
	IsSuperAdmin bool    `json:"is_super_admin"`
}

// GroupMetadata describes a group chat.
type GroupMetadata struct {
	ID           wid.Wid            `json:"id"`
	Subject      string             `json:"subject"`
	Description  string             `json:"description,omitempty"`
	Owner        wid.Wid            `json:"owner,omitzero"`
	CreatedAt    time.Time          `json:"created_at,omitzero"`
	Participants []GroupParticipant `json:"participants"`
	FetchedAt    time.Time          `json:"fetched_at"`
}

// Message is a persisted message projection. RowID is set only for records
// read from the durable row store.
type Message struct {
	RowID      int64      `json:"row_id,omitempty"`
	Key        wid.MsgKey `json:"key"`
	Sender     string     `json:"sender,omitempty"`
	SenderName string     `json:"sender_name,omitempty"`
	Body       string     `json:"body,omitempty"`
	Type       string     `json:"type,omitempty"`
	Status     string     `json:"status,omitempty"`
	Timestamp  int64      `json:"timestamp"`
}

// PageResult is the outcome of a directional page request.
type PageResult struct {
	Messages []Message
	Status   int
}

// Outcome normalizes the status code.
func (r *PageResult) Outcome() Outcome {
	if r.Status == StatusAnchorNotFound {
		return OutcomeNotFound
	}
	return OutcomeOK
}

// SearchParams describes one page of a full-text search.
type SearchParams struct {
	Term   string
	Count  int
	Page   int
	Remote wid.Wid
	Anchor *wid.MsgKey
}

func (p SearchParams) scope() string {
	if p.Remote.IsZero() {
		return "*"
	}
	return p.Remote.ChatID().String()
}

// SearchResult is one page of search matches.
type SearchResult struct {
	Messages []Message
	EOF      bool
	Canceled bool
}

// Outcome normalizes the canceled flag.
func (r *SearchResult) Outcome() Outcome {
	if r.Canceled {
		return OutcomeCanceled
	}
	return OutcomeOK
}
