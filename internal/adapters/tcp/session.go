package tcp

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/okian/podium/internal/protocol"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// session owns one accepted connection: a private read buffer, the
// read-decode-dispatch-respond loop, and nothing shared beyond the
// dispatcher. Responses go out in decode order, one line per request
// line, malformed requests included.
type session struct {
	id         string
	conn       net.Conn
	dispatcher Dispatcher

	buf           []byte
	readSize      int
	maxRecordSize int

	logger logger.Logger
}

func newSession(conn net.Conn, dispatcher Dispatcher, readSize, maxRecordSize int, log logger.Logger) *session {
	return &session{
		id:            uuid.NewString(),
		conn:          conn,
		dispatcher:    dispatcher,
		readSize:      readSize,
		maxRecordSize: maxRecordSize,
		logger:        log.Named("session"),
	}
}

// run drives the session until the peer disconnects or an unrecoverable
// transport error occurs. Errors end this session only; the listener
// and other sessions are unaffected.
func (s *session) run(ctx context.Context) {
	defer func() {
		_ = s.conn.Close()
		metrics.RecordConnectionClosed()
		s.logger.Info(ctx, "client disconnected",
			logger.String("session", s.id),
			logger.String("remote", s.conn.RemoteAddr().String()),
		)
	}()

	if err := handshake(ctx, s.conn); err != nil {
		s.logger.Warn(ctx, "tls handshake failed",
			logger.String("remote", s.conn.RemoteAddr().String()),
			logger.Error(err),
		)
		return
	}

	metrics.RecordConnectionOpened()
	s.logger.Info(ctx, "client connected",
		logger.String("session", s.id),
		logger.String("remote", s.conn.RemoteAddr().String()),
	)

	chunk := make([]byte, s.readSize)
	for {
		n, err := s.conn.Read(chunk)
		if n > 0 {
			s.buf = append(s.buf, chunk[:n]...)
			if !s.drain(ctx) {
				return
			}
			if len(s.buf) > s.maxRecordSize {
				s.logger.Warn(ctx, "record exceeds size limit, dropping connection",
					logger.String("session", s.id),
					logger.Int("buffered", len(s.buf)),
				)
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.logger.Debug(ctx, "read error",
					logger.String("session", s.id),
					logger.Error(err),
				)
			}
			return
		}
	}
}

// drain decodes and answers every complete record currently buffered.
// Returns false when a write failure terminates the session.
func (s *session) drain(ctx context.Context) bool {
	for {
		req, rest, err := protocol.Decode(s.buf)
		s.buf = rest

		switch {
		case err == nil:
			resp := s.dispatcher.Dispatch(ctx, req)
			if !s.send(ctx, resp) {
				return false
			}

		case errors.Is(err, protocol.ErrIncomplete):
			return true

		default:
			// Malformed record: answer with an error and keep reading.
			start := time.Now()
			merr, _ := protocol.AsMalformed(err)
			reason := "malformed request"
			if merr != nil {
				reason = merr.Reason
			}
			elapsed := time.Since(start)
			s.dispatcher.ObserveMalformed(elapsed)
			resp := protocol.Fail(float64(elapsed.Microseconds())/1000.0, reason)
			if !s.send(ctx, resp) {
				return false
			}
		}
	}
}

func (s *session) send(ctx context.Context, resp protocol.Response) bool {
	b, err := protocol.Encode(resp)
	if err != nil {
		// Responses are built from plain structs; failure here is a
		// broken invariant, not bad input.
		s.logger.Error(ctx, "response encoding failed",
			logger.String("session", s.id),
			logger.Error(err),
		)
		return false
	}
	if _, err := s.conn.Write(b); err != nil {
		s.logger.Debug(ctx, "write error",
			logger.String("session", s.id),
			logger.Error(err),
		)
		return false
	}
	return true
}
