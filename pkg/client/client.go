// Package client implements a line-protocol client for the podium
// leaderboard server. One Client wraps one TLS connection; calls are
// serialized so each request reads exactly its own response line.
package client

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/types"
	"github.com/okian/podium/internal/protocol"
)

// ErrServerError is returned when the server answers with an error
// envelope; the wrapped message carries the server's description.
var ErrServerError = errors.New("server error")

// UpdateResult is the outcome of one score submission.
type UpdateResult struct {
	Accepted     bool
	CurrentScore int64
	LatencyMS    float64
}

// Client is a synchronous leaderboard client over one TLS connection.
type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader

	tlsConfig *tls.Config
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithTLSConfig overrides the client TLS configuration.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *Client) {
		if cfg != nil {
			c.tlsConfig = cfg
		}
	}
}

// Dial connects to a podium server. The default TLS configuration skips
// chain verification so dev clients can reach a self-signed server.
func Dial(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	c := &Client{
		tlsConfig: &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // self-signed dev certs; supply WithTLSConfig in production
			MinVersion:         tls.VersionTLS12,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	dialer := &tls.Dialer{Config: c.tlsConfig}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}

	c.conn = conn
	c.reader = bufio.NewReader(conn)
	return c, nil
}

// Close terminates the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// envelope mirrors the response with the payload left raw so each call
// can decode its own shape.
type envelope struct {
	Status    string          `json:"status"`
	LatencyMS float64         `json:"latency_ms"`
	Data      json.RawMessage `json:"data"`
}

// roundTrip writes one request line and reads one response line.
func (c *Client) roundTrip(ctx context.Context, req *protocol.Request) (*envelope, error) {
	b, err := protocol.EncodeRequest(req)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetDeadline(deadline)
		defer func() { _ = c.conn.SetDeadline(time.Time{}) }()
	}

	if _, err := c.conn.Write(b); err != nil {
		return nil, fmt.Errorf("sending %s: %w", req.Cmd, err)
	}

	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", req.Cmd, err)
	}

	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", req.Cmd, err)
	}

	if env.Status != protocol.StatusOK {
		var ed protocol.ErrorData
		_ = json.Unmarshal(env.Data, &ed)
		if ed.Error == "" {
			ed.Error = "unspecified"
		}
		return nil, fmt.Errorf("%w: %s", ErrServerError, ed.Error)
	}

	return &env, nil
}

// Update submits a score with an explicit timestamp.
func (c *Client) Update(ctx context.Context, playerID, name string, score int64, ts float64) (UpdateResult, error) {
	env, err := c.roundTrip(ctx, &protocol.Request{
		Cmd:      protocol.CmdUpdate,
		PlayerID: playerID,
		Name:     name,
		Score:    score,
		TS:       ts,
	})
	if err != nil {
		return UpdateResult{}, err
	}

	var data protocol.UpdateData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return UpdateResult{}, fmt.Errorf("decoding update payload: %w", err)
	}
	return UpdateResult{
		Accepted:     data.Status == protocol.UpdateAccepted,
		CurrentScore: data.CurrentScore,
		LatencyMS:    env.LatencyMS,
	}, nil
}

// UpdateNow submits a score stamped with the current wall clock.
func (c *Client) UpdateNow(ctx context.Context, playerID, name string, score int64) (UpdateResult, error) {
	ts := float64(time.Now().UnixNano()) / 1e9
	return c.Update(ctx, playerID, name, score, ts)
}

// GetTop fetches the ranked head of the leaderboard. n <= 0 requests
// the server default.
func (c *Client) GetTop(ctx context.Context, n int) ([]types.Entry, error) {
	env, err := c.roundTrip(ctx, &protocol.Request{Cmd: protocol.CmdGetTop, N: n})
	if err != nil {
		return nil, err
	}

	var data protocol.TopData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("decoding top payload: %w", err)
	}
	return data.Top, nil
}

// GetPlayer fetches a single player record. The boolean reports whether
// the player exists.
func (c *Client) GetPlayer(ctx context.Context, playerID string) (model.PlayerRecord, bool, error) {
	env, err := c.roundTrip(ctx, &protocol.Request{Cmd: protocol.CmdGetPlayer, PlayerID: playerID})
	if err != nil {
		return model.PlayerRecord{}, false, err
	}

	var probe protocol.ErrorData
	if err := json.Unmarshal(env.Data, &probe); err == nil && probe.Error != "" {
		return model.PlayerRecord{}, false, nil
	}

	var rec model.PlayerRecord
	if err := json.Unmarshal(env.Data, &rec); err != nil {
		return model.PlayerRecord{}, false, fmt.Errorf("decoding player payload: %w", err)
	}
	return rec, true, nil
}

// Stats fetches the server's counters.
func (c *Client) Stats(ctx context.Context) (types.Stats, error) {
	env, err := c.roundTrip(ctx, &protocol.Request{Cmd: protocol.CmdStats})
	if err != nil {
		return types.Stats{}, err
	}

	var data types.Stats
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return types.Stats{}, fmt.Errorf("decoding stats payload: %w", err)
	}
	return data, nil
}

// Ping measures one request round trip and returns the server-side
// dispatch latency in milliseconds.
func (c *Client) Ping(ctx context.Context) (float64, error) {
	env, err := c.roundTrip(ctx, &protocol.Request{Cmd: protocol.CmdPing})
	if err != nil {
		return 0, err
	}
	return env.LatencyMS, nil
}
