package history

import (
	"context"
	"time"

	"github.com/matheus3301/wpphist/internal/wid"
)

// AddressResolver normalizes a raw address into a canonical Wid.
type AddressResolver interface {
	Resolve(raw string) (wid.Wid, error)
}

// AddressResolverFunc adapts a function to AddressResolver.
type AddressResolverFunc func(raw string) (wid.Wid, error)

func (f AddressResolverFunc) Resolve(raw string) (wid.Wid, error) { return f(raw) }

// ChatCreator is the idempotent get-or-create-latest-chat primitive. The tag
// is used by the substrate for telemetry only.
type ChatCreator interface {
	FindOrCreateLatestChat(ctx context.Context, id wid.Wid, tag string) (ref *ChatRef, created bool, err error)
}

// ChatCache is the live chat entity cache. Get returns nil when absent.
type ChatCache interface {
	Get(id wid.Wid) *Chat
}

// GroupMetadataFinder loads group metadata, fetching it if needed.
type GroupMetadataFinder interface {
	Find(ctx context.Context, id wid.Wid) (*GroupMetadata, error)
}

// MessageLog finds messages strictly before or after an anchor. A missing
// anchor is reported as StatusAnchorNotFound, not as an error.
type MessageLog interface {
	MsgFindByDirection(ctx context.Context, anchor wid.MsgKey, count int, dir Direction) (*PageResult, error)
}

// MessageSearcher runs one page of a full-text search. Implementations set
// Canceled instead of failing when ctx is done mid-search.
type MessageSearcher interface {
	MsgFindSearch(ctx context.Context, params SearchParams) (*SearchResult, error)
}

// RowSource opens read-only transactions over the durable message collection.
type RowSource interface {
	Begin(ctx context.Context) (RowTxn, error)
}

// RowTxn is a read-only transaction scoped to the message collection.
type RowTxn interface {
	// Cursor walks the rowId index in ascending order starting strictly
	// after minRowID.
	Cursor(minRowID int64) (RowIterator, error)
	Close() error
}

// RowIterator steps through index entries.
type RowIterator interface {
	Next() bool
	Record() Message
	Err() error
	Close() error
}

// Observer receives one observation per completed operation.
type Observer interface {
	Observe(op string, outcome Outcome, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) Observe(string, Outcome, time.Duration) {}
