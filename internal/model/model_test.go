package model

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matheus3301/wpphist/internal/history"
	"github.com/matheus3301/wpphist/internal/store"
	"github.com/matheus3301/wpphist/internal/wid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "wpp.db"))
	require.NoError(t, err)
	_, err = db.Migrate()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type fetcherFunc func(ctx context.Context, id wid.Wid) (*history.GroupMetadata, error)

func (f fetcherFunc) FetchGroupMetadata(ctx context.Context, id wid.Wid) (*history.GroupMetadata, error) {
	return f(ctx, id)
}

func TestChatStoreLoadAndFindOrCreate(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	require.NoError(t, db.UpsertChat(ctx, &store.Chat{JID: "5511111111111@s.whatsapp.net", Name: "Bob"}))

	chats := NewChatStore(db, nil)
	require.NoError(t, chats.Load(ctx))
	assert.Equal(t, 1, chats.Len())
	assert.Equal(t, "Bob", chats.Get(wid.MustResolve("5511111111111")).Name)

	id := wid.MustResolve("5522222222222:4@s.whatsapp.net")
	ref, created, err := chats.FindOrCreateLatestChat(ctx, id, history.NewChatFlowTag)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "5522222222222@s.whatsapp.net", ref.ID.String())

	_, created, err = chats.FindOrCreateLatestChat(ctx, id, history.NewChatFlowTag)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 2, chats.Len())

	live := chats.Get(ref.ID)
	require.NotNil(t, live)
	assert.Equal(t, history.NewChatFlowTag, live.CreatedVia)
}

func TestChatStoreWithResolver(t *testing.T) {
	db := testDB(t)
	chats := NewChatStore(db, nil)
	groups := NewGroupStore(db, fetcherFunc(func(_ context.Context, id wid.Wid) (*history.GroupMetadata, error) {
		return &history.GroupMetadata{Subject: "team"}, nil
	}), time.Hour, nil)
	r := history.NewChatResolver(nil, chats, chats, groups, 0, nil)

	chat, err := r.Resolve(context.Background(), "120363000000000001@g.us")
	require.NoError(t, err)
	require.NotNil(t, chat.GroupMetadata())
	assert.Equal(t, "team", chat.GroupMetadata().Subject)

	// Metadata survives a cache refresh of the same chat.
	require.NoError(t, chats.Touch(context.Background(), []string{"120363000000000001@g.us"}))
	assert.NotNil(t, chats.Get(chat.ID).GroupMetadata())
}

func TestGroupStoreCachesWithinTTL(t *testing.T) {
	db := testDB(t)
	var calls atomic.Int32
	g := NewGroupStore(db, fetcherFunc(func(context.Context, wid.Wid) (*history.GroupMetadata, error) {
		calls.Add(1)
		return &history.GroupMetadata{Subject: "v1"}, nil
	}), time.Hour, nil)
	id := wid.MustResolve("120363000000000002@g.us")
	ctx := context.Background()

	first, err := g.Find(ctx, id)
	require.NoError(t, err)
	second, err := g.Find(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "v1", second.Subject)
	assert.True(t, id.Equal(first.ID))
}

func TestGroupStoreRefetchesAfterTTL(t *testing.T) {
	db := testDB(t)
	var calls atomic.Int32
	g := NewGroupStore(db, fetcherFunc(func(context.Context, wid.Wid) (*history.GroupMetadata, error) {
		n := calls.Add(1)
		if n > 1 {
			return nil, errors.New("offline")
		}
		return &history.GroupMetadata{Subject: "v1"}, nil
	}), time.Minute, nil)
	now := time.Now()
	g.now = func() time.Time { return now }
	id := wid.MustResolve("120363000000000003@g.us")
	ctx := context.Background()

	_, err := g.Find(ctx, id)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	stale, err := g.Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "v1", stale.Subject)
}

func TestGroupStoreCollapsesConcurrentFetches(t *testing.T) {
	db := testDB(t)
	var calls atomic.Int32
	release := make(chan struct{})
	g := NewGroupStore(db, fetcherFunc(func(context.Context, wid.Wid) (*history.GroupMetadata, error) {
		calls.Add(1)
		<-release
		return &history.GroupMetadata{Subject: "x"}, nil
	}), time.Hour, nil)
	id := wid.MustResolve("120363000000000004@g.us")

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.Find(context.Background(), id)
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestGroupStoreWithoutFetcher(t *testing.T) {
	g := NewGroupStore(testDB(t), nil, time.Hour, nil)

	_, err := g.Find(context.Background(), wid.MustResolve("120363000000000005@g.us"))
	assert.ErrorIs(t, err, ErrGroupMetadataUnavailable)
}
