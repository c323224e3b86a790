package ops_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/podium/internal/adapters/http/ops"
	"github.com/okian/podium/internal/domain/types"
	"github.com/okian/podium/pkg/logger"
)

func init() {
	_ = logger.Init()
}

// fakeDeps serves canned snapshots and counts reads.
type fakeDeps struct {
	mu      sync.Mutex
	entries []types.Entry
	stats   types.Stats
	reads   atomic.Int64
}

func (f *fakeDeps) TopN(_ context.Context, n int) []types.Entry {
	f.reads.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if n < len(f.entries) {
		return f.entries[:n]
	}
	return f.entries
}

func (f *fakeDeps) setEntries(entries []types.Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = entries
}

func (f *fakeDeps) Stats(context.Context) types.Stats {
	return f.stats
}

func newTestServer(t *testing.T, deps *fakeDeps, hub *ops.Hub) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	ops.NewServer(deps, hub).Register(context.Background(), mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthEndpoint(t *testing.T) {
	Convey("Given the ops server", t, func() {
		srv := newTestServer(t, &fakeDeps{}, nil)

		Convey("GET /healthz answers ok", func() {
			resp, err := http.Get(srv.URL + "/healthz")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			body, err := io.ReadAll(resp.Body)
			So(err, ShouldBeNil)
			So(string(body), ShouldContainSubstring, `"status"`)
		})

		Convey("GET /metrics exposes the registry in text format", func() {
			resp, err := http.Get(srv.URL + "/metrics")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			body, err := io.ReadAll(resp.Body)
			So(err, ShouldBeNil)
			So(string(body), ShouldContainSubstring, "podium_leaderboard")
		})
	})
}

func TestStatsEndpoint(t *testing.T) {
	Convey("Given a service with traffic", t, func() {
		deps := &fakeDeps{stats: types.Stats{
			TotalRequests: 12,
			Accepted:      7,
			Rejected:      2,
			AvgLatencyMS:  0.42,
			TotalPlayers:  3,
		}}
		srv := newTestServer(t, deps, nil)

		Convey("GET /stats returns the counter snapshot", func() {
			resp, err := http.Get(srv.URL + "/stats")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			var got types.Stats
			So(json.NewDecoder(resp.Body).Decode(&got), ShouldBeNil)
			So(got.TotalRequests, ShouldEqual, 12)
			So(got.Accepted, ShouldEqual, 7)
			So(got.Rejected, ShouldEqual, 2)
			So(got.TotalPlayers, ShouldEqual, 3)
		})
	})
}

func TestLiveFeed(t *testing.T) {
	Convey("Given a hub with one subscriber", t, func() {
		deps := &fakeDeps{entries: []types.Entry{
			{Rank: 1, PlayerID: "alice", Name: "Alice", Score: 150},
			{Rank: 2, PlayerID: "bob", Name: "Bob", Score: 90},
		}}

		hub := ops.NewHub(deps, ops.WithLiveTopN(2), ops.WithMinInterval(10*time.Millisecond))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go hub.Run(ctx)

		srv := newTestServer(t, deps, hub)

		wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/live"
		conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
		So(err, ShouldBeNil)
		if resp != nil {
			resp.Body.Close()
		}
		defer conn.Close()

		readFrame := func() ops.Snapshot {
			So(conn.SetReadDeadline(time.Now().Add(2*time.Second)), ShouldBeNil)
			var snap ops.Snapshot
			So(conn.ReadJSON(&snap), ShouldBeNil)
			return snap
		}

		Convey("The subscriber is seeded with a snapshot on connect", func() {
			snap := readFrame()
			So(snap.Top, ShouldHaveLength, 2)
			So(snap.Top[0].PlayerID, ShouldEqual, "alice")
		})

		Convey("Notify pushes a fresh frame", func() {
			readFrame() // seed frame

			deps.setEntries([]types.Entry{
				{Rank: 1, PlayerID: "carol", Name: "Carol", Score: 500},
			})
			hub.Notify()

			snap := readFrame()
			So(snap.Top, ShouldHaveLength, 1)
			So(snap.Top[0].PlayerID, ShouldEqual, "carol")
		})

		Convey("Bursts of notifications coalesce", func() {
			readFrame() // seed frame

			before := deps.reads.Load()
			for i := 0; i < 50; i++ {
				hub.Notify()
			}
			readFrame()
			time.Sleep(50 * time.Millisecond)

			// Far fewer snapshot pulls than notifications.
			So(deps.reads.Load()-before, ShouldBeLessThan, 10)
		})
	})
}

func TestLiveFeedWithoutHub(t *testing.T) {
	Convey("Without a hub the live route is absent", t, func() {
		srv := newTestServer(t, &fakeDeps{}, nil)

		resp, err := http.Get(srv.URL + "/live")
		So(err, ShouldBeNil)
		defer resp.Body.Close()
		So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
	})
}
