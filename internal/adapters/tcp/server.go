// Package tcp implements the encrypted TCP listener and the
// per-connection session loop.
package tcp

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"time"

	"github.com/okian/podium/internal/protocol"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// Dispatcher executes decoded requests. Implemented by app.Service.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *protocol.Request) protocol.Response
	ObserveMalformed(d time.Duration)
}

// Default server configuration constants.
const (
	defaultReadBufferSize = 4096
	defaultMaxRecordSize  = 1 << 20 // cap on bytes buffered without a terminator
)

// Server accepts TLS connections and runs one session per connection,
// all sharing a single dispatcher. The server performs no leaderboard
// logic itself.
type Server struct {
	addr       string
	tlsConfig  *tls.Config
	dispatcher Dispatcher

	readBufferSize int
	maxRecordSize  int

	listener net.Listener
	logger   logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithReadBufferSize sets the per-session read chunk size.
func WithReadBufferSize(size int) Option {
	return func(s *Server) {
		if size > 0 {
			s.readBufferSize = size
		}
	}
}

// WithMaxRecordSize bounds how many bytes a session will buffer while
// waiting for a record terminator before giving up on the connection.
func WithMaxRecordSize(size int) Option {
	return func(s *Server) {
		if size > 0 {
			s.maxRecordSize = size
		}
	}
}

// WithLogger sets a custom logger for the server.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a Server. tlsConfig must carry the certificate and
// the minimum protocol version; see tlsutil.ServerConfig.
func NewServer(addr string, tlsConfig *tls.Config, dispatcher Dispatcher, opts ...Option) *Server {
	s := &Server{
		addr:           addr,
		tlsConfig:      tlsConfig,
		dispatcher:     dispatcher,
		readBufferSize: defaultReadBufferSize,
		maxRecordSize:  defaultMaxRecordSize,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("tcp")
	}

	return s
}

// Addr returns the bound listen address once ListenAndServe has started.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Listen binds the TLS listener without accepting yet, so callers can
// learn the bound address (port 0 in tests) before serving.
func (s *Server) Listen(ctx context.Context) error {
	ln, err := tls.Listen("tcp", s.addr, s.tlsConfig)
	if err != nil {
		return err
	}
	s.listener = ln
	s.logger.Info(ctx, "listening", logger.String("addr", ln.Addr().String()))
	return nil
}

// Serve runs the accept loop until ctx is canceled or the listener
// fails. Each accepted connection gets a detached session goroutine;
// the loop itself never blocks on client I/O.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(ctx); err != nil {
			return err
		}
	}

	// Unblock Accept when the context ends.
	go func() {
		<-ctx.Done()
		_ = s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			// Transient accept failure; the listener survives.
			s.logger.Warn(ctx, "accept failed", logger.Error(err))
			continue
		}

		sess := newSession(conn, s.dispatcher, s.readBufferSize, s.maxRecordSize, s.logger)
		go sess.run(ctx)
	}
}

// ListenAndServe binds and serves in one call.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(ctx); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// handshake completes the TLS handshake for an accepted connection.
// Failures are counted and terminate only the offending connection.
func handshake(ctx context.Context, conn net.Conn) error {
	tlsConn, ok := conn.(*tls.Conn)
	if !ok {
		return nil
	}
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		metrics.RecordHandshakeFailure()
		return err
	}
	return nil
}
