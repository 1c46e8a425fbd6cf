package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/matheus3301/wpphist/internal/history"
	"github.com/matheus3301/wpphist/internal/store"
	"github.com/matheus3301/wpphist/internal/wid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrGroupMetadataUnavailable is returned when metadata is neither cached nor fetchable.
var ErrGroupMetadataUnavailable = errors.New("group metadata unavailable")

// GroupFetcher loads group metadata from the network.
type GroupFetcher interface {
	FetchGroupMetadata(ctx context.Context, id wid.Wid) (*history.GroupMetadata, error)
}

// GroupStore serves group metadata from the group_metadata table, refetching
// entries older than ttl. Concurrent fetches of one group are collapsed.
type GroupStore struct {
	db      *store.DB
	fetcher GroupFetcher
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time

	flight singleflight.Group
}

// NewGroupStore creates a group metadata store. A nil fetcher serves the cache only.
func NewGroupStore(db *store.DB, fetcher GroupFetcher, ttl time.Duration, logger *zap.Logger) *GroupStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupStore{
		db:      db,
		fetcher: fetcher,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

// Find returns metadata for a group. A stale entry is served when the
// refetch fails.
func (g *GroupStore) Find(ctx context.Context, id wid.Wid) (*history.GroupMetadata, error) {
	jid := id.ChatID().String()
	cached, err := g.cached(ctx, jid)
	if err != nil {
		return nil, err
	}
	if cached != nil && g.now().Sub(cached.FetchedAt) < g.ttl {
		return cached, nil
	}
	if g.fetcher == nil {
		if cached != nil {
			return cached, nil
		}
		return nil, fmt.Errorf("%s: %w", jid, ErrGroupMetadataUnavailable)
	}

	v, err, shared := g.flight.Do(jid, func() (any, error) {
		return g.fetch(ctx, id.ChatID())
	})
	if err != nil {
		if cached != nil {
			g.logger.Warn("serving stale group metadata", zap.String("group", jid), zap.Error(err))
			return cached, nil
		}
		return nil, err
	}
	if shared {
		g.logger.Debug("group metadata fetch shared", zap.String("group", jid))
	}
	return v.(*history.GroupMetadata), nil
}

func (g *GroupStore) cached(ctx context.Context, jid string) (*history.GroupMetadata, error) {
	row, err := g.db.GetGroupMetadata(ctx, jid)
	if err != nil {
		return nil, fmt.Errorf("read group metadata: %w", err)
	}
	if row == nil {
		return nil, nil
	}
	var meta history.GroupMetadata
	if err := json.Unmarshal(row.Payload, &meta); err != nil {
		g.logger.Warn("dropping undecodable group metadata", zap.String("group", jid), zap.Error(err))
		return nil, nil
	}
	meta.FetchedAt = row.FetchedAt
	return &meta, nil
}

func (g *GroupStore) fetch(ctx context.Context, id wid.Wid) (*history.GroupMetadata, error) {
	meta, err := g.fetcher.FetchGroupMetadata(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch group metadata: %w", err)
	}
	meta.ID = id
	meta.FetchedAt = g.now()

	payload, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode group metadata: %w", err)
	}
	if err := g.db.PutGroupMetadata(ctx, &store.GroupMetadataRow{
		JID:       id.String(),
		Payload:   payload,
		FetchedAt: meta.FetchedAt,
	}); err != nil {
		return nil, fmt.Errorf("store group metadata: %w", err)
	}
	return meta, nil
}
