package history

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// RowCursor walks the durable message store in rowId order.
type RowCursor struct {
	source  RowSource
	timeout time.Duration
}

// NewRowCursor creates a cursor over the given row source.
func NewRowCursor(source RowSource, timeout time.Duration) *RowCursor {
	return &RowCursor{source: source, timeout: timeout}
}

// ParseScanArgs parses textual scan arguments. Both must be integers; the
// numeric rules are enforced by Scan.
func ParseScanArgs(minRowID, limit string) (int64, int, error) {
	lo, err := parseInteger("minRowId", minRowID)
	if err != nil {
		return 0, 0, err
	}
	n, err := parseInteger("limit", limit)
	if err != nil {
		return 0, 0, err
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, 0, invalidArg("limit", "out of range: %s", limit)
	}
	return lo, int(n), nil
}

func parseInteger(field, s string) (int64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, invalidArg(field, "must be an integer, got %q", s)
	}
	if f != math.Trunc(f) {
		return 0, invalidArg(field, "must be an integer, got %q", s)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, invalidArg(field, "out of range: %q", s)
	}
	return int64(f), nil
}

func validateScan(minRowID int64, limit int) error {
	if minRowID < 0 {
		return invalidArg("minRowId", "must be a non-negative integer, got %d", minRowID)
	}
	if limit != Unbounded && limit <= 0 {
		return invalidArg("limit", "must be a positive integer or -1, got %d", limit)
	}
	return nil
}

// Scan returns the records whose rowId is strictly greater than minRowID, in
// ascending rowId order, stopping after limit records. A limit of Unbounded
// walks to the end of the index. On failure the collected rows are discarded.
func (c *RowCursor) Scan(ctx context.Context, minRowID int64, limit int) ([]Message, error) {
	out := []Message{}
	err := c.ScanEach(ctx, minRowID, limit, func(m Message) error {
		out = append(out, m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ScanEach is Scan without accumulation. The walk stops at the first error
// returned by fn. The transaction and iterator are released before return.
func (c *RowCursor) ScanEach(ctx context.Context, minRowID int64, limit int, fn func(Message) error) error {
	if err := validateScan(minRowID, limit); err != nil {
		return err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, c.timeout, ErrTimeout)
		defer cancel()
	}

	txn, err := c.source.Begin(ctx)
	if err != nil {
		return err
	}
	defer txn.Close()

	it, err := txn.Cursor(minRowID)
	if err != nil {
		return err
	}
	defer it.Close()

	n := 0
	for limit == Unbounded || n < limit {
		if err := ctx.Err(); err != nil {
			if errors.Is(context.Cause(ctx), ErrTimeout) {
				return ErrTimeout
			}
			return err
		}
		if !it.Next() {
			break
		}
		rec := it.Record()
		if rec.RowID <= minRowID {
			continue
		}
		if err := fn(rec); err != nil {
			return err
		}
		n++
	}
	return it.Err()
}
