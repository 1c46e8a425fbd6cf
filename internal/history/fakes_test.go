package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/matheus3301/wpphist/internal/wid"
)

type fakeCreator struct {
	mu      sync.Mutex
	chats   map[string]bool
	tags    []string
	err     error
	nilRef  bool
	cache   *fakeCache
	skipAdd bool
	block   chan struct{}
}

func (f *fakeCreator) FindOrCreateLatestChat(_ context.Context, id wid.Wid, tag string) (*ChatRef, bool, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tags = append(f.tags, tag)
	if f.err != nil {
		return nil, false, f.err
	}
	if f.nilRef {
		return nil, false, nil
	}
	if f.chats == nil {
		f.chats = make(map[string]bool)
	}
	key := id.ChatID().String()
	created := !f.chats[key]
	f.chats[key] = true
	if created && f.cache != nil && !f.skipAdd {
		f.cache.add(&Chat{ID: id.ChatID(), CreatedVia: tag})
	}
	return &ChatRef{ID: id.ChatID()}, created, nil
}

type fakeCache struct {
	mu    sync.Mutex
	chats map[string]*Chat
}

func (f *fakeCache) add(c *Chat) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.chats == nil {
		f.chats = make(map[string]*Chat)
	}
	f.chats[c.ID.String()] = c
}

func (f *fakeCache) Get(id wid.Wid) *Chat {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chats[id.String()]
}

type fakeGroups struct {
	calls int
	meta  *GroupMetadata
	err   error
}

func (f *fakeGroups) Find(_ context.Context, id wid.Wid) (*GroupMetadata, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.meta != nil {
		return f.meta, nil
	}
	return &GroupMetadata{ID: id, Subject: "group"}, nil
}

// memLog is a chronological in-memory chat log for one or more chats.
type memLog struct {
	msgs  []Message
	err   error
	calls int
}

func newMemLog(chat wid.Wid, n int) *memLog {
	l := &memLog{}
	for i := 1; i <= n; i++ {
		l.msgs = append(l.msgs, Message{
			Key:       wid.MsgKey{ChatID: chat, ID: msgID(i)},
			Body:      "message " + msgID(i),
			Timestamp: int64(i) * 1000,
		})
	}
	return l
}

func msgID(i int) string {
	return fmt.Sprintf("M%d", i)
}

func (l *memLog) MsgFindByDirection(_ context.Context, anchor wid.MsgKey, count int, dir Direction) (*PageResult, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	var chat []Message
	for _, m := range l.msgs {
		if m.Key.ChatID.Equal(anchor.ChatID) {
			chat = append(chat, m)
		}
	}
	pos := -1
	for i, m := range chat {
		if m.Key.ID == anchor.ID && m.Key.FromMe == anchor.FromMe {
			pos = i
			break
		}
	}
	if pos < 0 {
		return &PageResult{Status: StatusAnchorNotFound}, nil
	}
	var out []Message
	if dir == Before {
		lo := max(pos-count, 0)
		out = append(out, chat[lo:pos]...)
	} else {
		hi := min(pos+1+count, len(chat))
		out = append(out, chat[pos+1:hi]...)
	}
	return &PageResult{Messages: out, Status: StatusOK}, nil
}

// blockingSearcher blocks each search until released or until ctx is done.
type blockingSearcher struct {
	started chan SearchParams
	release chan *SearchResult
}

func newBlockingSearcher() *blockingSearcher {
	return &blockingSearcher{
		started: make(chan SearchParams, 8),
		release: make(chan *SearchResult, 8),
	}
}

func (b *blockingSearcher) MsgFindSearch(ctx context.Context, params SearchParams) (*SearchResult, error) {
	b.started <- params
	select {
	case res := <-b.release:
		return res, nil
	case <-ctx.Done():
		return &SearchResult{Messages: []Message{{Body: "partial"}}, Canceled: true}, nil
	}
}

// pagedSearcher serves fixed matches newest-first, returned chronologically.
type pagedSearcher struct {
	matches []Message
	err     error
}

func (p *pagedSearcher) MsgFindSearch(_ context.Context, params SearchParams) (*SearchResult, error) {
	if p.err != nil {
		return nil, p.err
	}
	desc := append([]Message(nil), p.matches...)
	sort.Slice(desc, func(i, j int) bool { return desc[i].Timestamp > desc[j].Timestamp })
	off := params.Page * params.Count
	if off > len(desc) {
		off = len(desc)
	}
	end := min(off+params.Count, len(desc))
	page := desc[off:end]
	out := make([]Message, 0, len(page))
	for i := len(page) - 1; i >= 0; i-- {
		out = append(out, page[i])
	}
	return &SearchResult{Messages: out, EOF: end >= len(desc)}, nil
}

// memRows is a rowId-ordered store.
type memRows struct {
	rows     []Message
	beginErr error
	curErr   error
	walkErr  error
	failAt   int

	mu      sync.Mutex
	opened  int
	closed  int
	itOpen  int
	itClose int
}

func newMemRows(first, last int64) *memRows {
	r := &memRows{}
	for id := first; id <= last; id++ {
		r.rows = append(r.rows, Message{RowID: id, Timestamp: id})
	}
	return r
}

func (r *memRows) Begin(context.Context) (RowTxn, error) {
	if r.beginErr != nil {
		return nil, r.beginErr
	}
	r.mu.Lock()
	r.opened++
	r.mu.Unlock()
	return &memTxn{r: r}, nil
}

type memTxn struct{ r *memRows }

func (t *memTxn) Cursor(minRowID int64) (RowIterator, error) {
	if t.r.curErr != nil {
		return nil, t.r.curErr
	}
	t.r.mu.Lock()
	t.r.itOpen++
	t.r.mu.Unlock()
	i := sort.Search(len(t.r.rows), func(i int) bool { return t.r.rows[i].RowID > minRowID })
	return &memIter{r: t.r, pos: i - 1}, nil
}

func (t *memTxn) Close() error {
	t.r.mu.Lock()
	t.r.closed++
	t.r.mu.Unlock()
	return nil
}

type memIter struct {
	r     *memRows
	pos   int
	steps int
	err   error
}

func (it *memIter) Next() bool {
	if it.r.walkErr != nil && it.steps == it.r.failAt {
		it.err = it.r.walkErr
		return false
	}
	it.steps++
	it.pos++
	return it.pos < len(it.r.rows)
}

func (it *memIter) Record() Message { return it.r.rows[it.pos] }
func (it *memIter) Err() error      { return it.err }

func (it *memIter) Close() error {
	it.r.mu.Lock()
	it.r.itClose++
	it.r.mu.Unlock()
	return nil
}

type recordingObserver struct {
	mu  sync.Mutex
	ops []string
	out []Outcome
}

func (o *recordingObserver) Observe(op string, outcome Outcome, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ops = append(o.ops, op)
	o.out = append(o.out, outcome)
}

func (o *recordingObserver) last() (string, Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ops[len(o.ops)-1], o.out[len(o.out)-1]
}

var errSubstrate = errors.New("substrate exploded")
