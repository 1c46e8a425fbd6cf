package sync

import (
	"context"
	"fmt"
	"strconv"

	"github.com/matheus3301/wpphist/internal/bus"
	"github.com/matheus3301/wpphist/internal/history"
	"github.com/matheus3301/wpphist/internal/store"
	"go.uber.org/zap"
)

// RowCheckpointKey is the sync_state key holding the last messages.id copied
// into the row store.
const RowCheckpointKey = "rowlog.sqlite_id"

const defaultIndexBatch = 500

// RowWriter appends messages to the durable row store.
type RowWriter interface {
	Put(msgs []history.Message) ([]int64, error)
}

// IndexStats is the payload of sync.rows_indexed events.
type IndexStats struct {
	Rows       int
	Checkpoint int64
}

// Indexer copies newly ingested messages into the row store in insertion
// order. Copying is idempotent: a row store key that already exists keeps
// its row id, so replaying past the checkpoint after a crash is harmless.
// Edits to rows already past the checkpoint are not copied again.
type Indexer struct {
	db     *store.DB
	rows   RowWriter
	bus    *bus.Bus
	batch  int
	logger *zap.Logger

	kick   chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// NewIndexer creates an indexer. batch <= 0 selects the default batch size.
func NewIndexer(db *store.DB, rows RowWriter, b *bus.Bus, batch int, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if batch <= 0 {
		batch = defaultIndexBatch
	}
	return &Indexer{
		db:     db,
		rows:   rows,
		bus:    b,
		batch:  batch,
		logger: logger,
		kick:   make(chan struct{}, 1),
	}
}

// Start runs a catch-up pass, then another after every sync.ingested event.
// Bursts of ingest events collapse into one pass.
func (x *Indexer) Start(ctx context.Context) {
	ctx, x.cancel = context.WithCancel(ctx)
	x.done = make(chan struct{})
	ch, unsub := x.bus.Subscribe(bus.KindSyncIngested, 64)
	x.Kick()

	go func() {
		defer unsub()
		for {
			select {
			case <-ch:
				x.Kick()
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		defer close(x.done)
		for {
			select {
			case <-x.kick:
				if _, err := x.CatchUp(ctx); err != nil && ctx.Err() == nil {
					x.logger.Error("row indexing failed", zap.Error(err))
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Kick schedules a catch-up pass.
func (x *Indexer) Kick() {
	select {
	case x.kick <- struct{}{}:
	default:
	}
}

// Stop stops the indexer and waits for a running pass to finish.
func (x *Indexer) Stop() {
	if x.cancel == nil {
		return
	}
	x.cancel()
	<-x.done
}

// Checkpoint returns the last messages.id copied into the row store.
func (x *Indexer) Checkpoint(ctx context.Context) (int64, error) {
	v, ok, err := x.db.GetState(ctx, RowCheckpointKey)
	if err != nil {
		return 0, fmt.Errorf("read row checkpoint: %w", err)
	}
	if !ok {
		return 0, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt row checkpoint %q: %w", v, err)
	}
	return id, nil
}

// CatchUp copies every message past the checkpoint and returns how many rows
// were written.
func (x *Indexer) CatchUp(ctx context.Context) (int, error) {
	last, err := x.Checkpoint(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		msgs, err := x.db.MessagesAfterID(ctx, last, x.batch)
		if err != nil {
			return total, fmt.Errorf("read messages after %d: %w", last, err)
		}
		if len(msgs) == 0 {
			break
		}

		recs := make([]history.Message, 0, len(msgs))
		for _, m := range msgs {
			rec := store.Record(m)
			if rec.Key.ChatID.IsZero() {
				x.logger.Warn("skipping message with unparsable chat", zap.String("chat", m.ChatJID), zap.String("msg_id", m.MsgID))
				continue
			}
			recs = append(recs, rec)
		}
		if len(recs) > 0 {
			if _, err := x.rows.Put(recs); err != nil {
				return total, fmt.Errorf("append rows: %w", err)
			}
		}
		last = msgs[len(msgs)-1].ID
		if err := x.db.SetState(ctx, RowCheckpointKey, strconv.FormatInt(last, 10)); err != nil {
			return total, fmt.Errorf("write row checkpoint: %w", err)
		}
		total += len(recs)
		if len(msgs) < x.batch {
			break
		}
	}
	if total > 0 {
		x.logger.Debug("rows indexed", zap.Int("rows", total), zap.Int64("checkpoint", last))
		x.bus.Emit(bus.KindSyncRowsIndexed, IndexStats{Rows: total, Checkpoint: last})
	}
	return total, nil
}
