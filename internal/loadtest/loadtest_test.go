package loadtest_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	repository "github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/adapters/tcp"
	app "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/loadtest"
	"github.com/okian/podium/internal/tlsutil"
	"github.com/okian/podium/pkg/client"
	"github.com/okian/podium/pkg/logger"
)

func init() {
	_ = logger.Init()
}

func startServer(t *testing.T) (string, *repository.MapStore) {
	t.Helper()

	dir := t.TempDir()
	certFile := filepath.Join(dir, "server.crt")
	keyFile := filepath.Join(dir, "server.key")
	require.NoError(t, tlsutil.EnsureKeyPair(certFile, keyFile))

	tlsConfig, err := tlsutil.ServerConfig(certFile, keyFile, "1.2")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := repository.NewMapStore(ctx)
	svc := app.New(ctx, app.WithStore(store))

	srv := tcp.NewServer("127.0.0.1:0", tlsConfig, svc)
	require.NoError(t, srv.Listen(ctx))
	go func() { _ = srv.Serve(ctx) }()

	return srv.Addr().String(), store
}

func TestBenchRun(t *testing.T) {
	addr, store := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := &loadtest.Config{
		Addr:    addr,
		Mode:    loadtest.ModeBench,
		Clients: 4,
		Updates: 5,
		TopN:    5,
		Timeout: 5 * time.Second,
	}
	require.NoError(t, loadtest.Run(ctx, cfg))

	// Every bench client plays a distinct bot, so all submissions land.
	assert.Equal(t, 4, store.Count(ctx))
}

func TestDemoRun(t *testing.T) {
	addr, store := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cfg := &loadtest.Config{
		Addr:    addr,
		Mode:    loadtest.ModeDemo,
		Rounds:  2,
		TopN:    10,
		Timeout: 5 * time.Second,
	}
	require.NoError(t, loadtest.Run(ctx, cfg))

	// The demo cast is ten fixed players.
	assert.Equal(t, 10, store.Count(ctx))

	c, err := client.Dial(ctx, addr)
	require.NoError(t, err)
	defer c.Close()

	top, err := c.GetTop(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 10)
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].Score, top[i].Score)
	}
}

func TestUnknownMode(t *testing.T) {
	err := loadtest.Run(context.Background(), &loadtest.Config{Addr: "127.0.0.1:1", Mode: "chaos"})
	assert.Error(t, err)
}
