package history

import (
	"context"
	"fmt"
	"time"

	"github.com/matheus3301/wpphist/internal/wid"
)

// Pager returns bounded runs of messages on either side of an anchor.
type Pager struct {
	log     MessageLog
	timeout time.Duration
}

// NewPager creates a pager over the given message log.
func NewPager(log MessageLog, timeout time.Duration) *Pager {
	return &Pager{log: log, timeout: timeout}
}

// Before returns up to count messages older than anchor.
func (p *Pager) Before(ctx context.Context, anchor wid.MsgKey, count int) (*PageResult, error) {
	return p.Page(ctx, anchor, count, Before)
}

// After returns up to count messages newer than anchor.
func (p *Pager) After(ctx context.Context, anchor wid.MsgKey, count int) (*PageResult, error) {
	return p.Page(ctx, anchor, count, After)
}

// Page returns up to count messages strictly on the dir side of anchor, in
// chronological order. An unknown anchor yields StatusAnchorNotFound with no
// messages; reaching either end of the log yields a short page with StatusOK.
func (p *Pager) Page(ctx context.Context, anchor wid.MsgKey, count int, dir Direction) (*PageResult, error) {
	if count <= 0 {
		return nil, invalidArg("count", "must be a positive integer, got %d", count)
	}
	if !dir.valid() {
		return nil, invalidArg("direction", "must be %q or %q, got %q", Before, After, dir)
	}
	if anchor.ChatID.IsZero() || anchor.ID == "" {
		return nil, invalidArg("anchor", "chat id and message id are required")
	}

	res, err := callBounded(ctx, p.timeout, func(ctx context.Context) (*PageResult, error) {
		return p.log.MsgFindByDirection(ctx, anchor, count, dir)
	})
	if err != nil {
		return nil, err
	}

	switch {
	case res == nil:
		return &PageResult{Messages: []Message{}, Status: StatusOK}, nil
	case res.Status == StatusAnchorNotFound:
		return &PageResult{Status: StatusAnchorNotFound}, nil
	case res.Status != StatusOK:
		return nil, fmt.Errorf("message log returned status %d", res.Status)
	}
	if res.Messages == nil {
		res.Messages = []Message{}
	}
	return res, nil
}
