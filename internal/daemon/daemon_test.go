package daemon

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/matheus3301/wpphist/internal/api"
	"github.com/matheus3301/wpphist/internal/bus"
	"github.com/matheus3301/wpphist/internal/client"
	"github.com/matheus3301/wpphist/internal/rpc/wppv1"
	"github.com/matheus3301/wpphist/internal/session"
	"github.com/matheus3301/wpphist/internal/status"
	"github.com/matheus3301/wpphist/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

// shortTempDir keeps socket paths under the 104-char Unix socket limit on macOS.
func shortTempDir(t *testing.T, pattern string) string {
	t.Helper()
	dir, err := os.MkdirTemp("/tmp", pattern)
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return dir
}

func TestDaemonServesHistoryEndToEnd(t *testing.T) {
	home := shortTempDir(t, "wpp-home-*")
	t.Setenv(session.HomeEnv, home)
	socketPath := filepath.Join(home, "d.sock")

	var b *bus.Bus
	app := fxtest.New(t,
		fx.NopLogger,
		Module(Params{
			SessionName: "e2e",
			SocketPath:  socketPath,
			ConfigPath:  filepath.Join(home, "missing.toml"),
		}),
		fx.Populate(&b),
	)
	app.RequireStart()
	defer app.RequireStop()

	c, err := client.New(socketPath)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	st, err := c.Session.GetSessionStatus(ctx, &wppv1.GetSessionStatusRequest{})
	require.NoError(t, err)
	assert.Equal(t, "e2e", st.Session)
	assert.Equal(t, string(status.AuthRequired), st.Status, "unauthenticated daemon must not stay in BOOTING")

	const chat = "5511999990000@s.whatsapp.net"
	batch := make([]*store.Message, 0, 3)
	for i := 1; i <= 3; i++ {
		batch = append(batch, &store.Message{
			ChatJID:     chat,
			MsgID:       "M" + strconv.Itoa(i),
			Body:        "hello " + strconv.Itoa(i),
			MessageType: "text",
			Timestamp:   int64(1000 + i),
		})
	}
	b.Emit(bus.KindWAHistoryBatch, batch)

	var scanned *wppv1.ScanMessagesResponse
	require.Eventually(t, func() bool {
		scanned, err = c.History.ScanMessagesFromRow(ctx, &wppv1.ScanMessagesRequest{MinRowID: "0", Limit: "-1"})
		return err == nil && len(scanned.Messages) == 3
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, int64(1), scanned.Messages[0].RowID)
	assert.Equal(t, "false_"+chat+"_M1", scanned.Messages[0].Key)

	chatResp, err := c.History.FindOrCreateChat(ctx, &wppv1.FindOrCreateChatRequest{Address: "5511999990000"})
	require.NoError(t, err)
	assert.Equal(t, chat, chatResp.Chat.ID)

	page, err := c.History.PageMessages(ctx, &wppv1.PageMessagesRequest{
		Anchor:    "false_" + chat + "_M3",
		Count:     10,
		Direction: "before",
	})
	require.NoError(t, err)
	require.Len(t, page.Messages, 2)
	assert.Equal(t, "false_"+chat+"_M1", page.Messages[0].Key)

	st, err = c.Session.GetSessionStatus(ctx, &wppv1.GetSessionStatusRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.MessageCount)
	assert.Equal(t, int64(3), st.LastRowID)
}

func TestNewServerTakesParams(t *testing.T) {
	socketPath := filepath.Join(shortTempDir(t, "wpp-srv-*"), "d.sock")

	srv, err := NewServer(
		Params{SessionName: "srvtest", SocketPath: socketPath},
		zap.NewNop(),
		api.NewSessionService("srvtest", api.SessionDeps{Machine: status.NewMachine(nil)}, nil),
		api.NewHistoryService(nil, api.HistoryDefaults{}),
	)
	require.NoError(t, err)
	assert.Equal(t, socketPath, srv.SocketPath())

	info, err := os.Stat(socketPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	srv.Stop(context.Background())
	_, err = os.Stat(socketPath)
	assert.True(t, os.IsNotExist(err))
}

func TestServerStopRemovesStaleSocketOnRestart(t *testing.T) {
	socketPath := filepath.Join(shortTempDir(t, "wpp-stale-*"), "d.sock")
	require.NoError(t, os.WriteFile(socketPath, nil, 0600))

	srv, err := NewServer(
		Params{SessionName: "stale", SocketPath: socketPath},
		zap.NewNop(),
		api.NewSessionService("stale", api.SessionDeps{Machine: status.NewMachine(nil)}, nil),
		api.NewHistoryService(nil, api.HistoryDefaults{}),
	)
	require.NoError(t, err)
	srv.Stop(context.Background())
}
