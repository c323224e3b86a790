// Package app provides the core service that dispatches protocol
// requests to the leaderboard store.
package app

import (
	"context"
	"fmt"
	"time"

	repository "github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/types"
	"github.com/okian/podium/internal/protocol"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// Service owns the leaderboard store and implements the command table.
// One instance is shared by every connection session for the process
// lifetime.
type Service struct {
	store       repository.Store
	topNDefault int
	now         func() time.Time
	notify      func() // invoked after each accepted update, may be nil
	logger      logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore injects a pre-built store, mainly for tests.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDefaultTopN sets the limit used when GET_TOP omits n.
func WithDefaultTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topNDefault = n
		}
	}
}

// WithClock overrides the latency clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithUpdateNotifier registers a callback fired after every accepted
// update, e.g. to kick the live leaderboard feed.
func WithUpdateNotifier(notify func()) Option {
	return func(s *Service) {
		s.notify = notify
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// defaultTopN is the limit applied when GET_TOP omits n.
const defaultTopN = 10

// New constructs a Service with default configuration.
func New(ctx context.Context, opts ...Option) *Service {
	s := &Service{
		topNDefault: defaultTopN,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("app")
	}
	if s.store == nil {
		s.store = repository.NewMapStore(ctx, repository.WithDefaultTopN(s.topNDefault))
	}

	return s
}

// Store exposes the shared leaderboard store.
func (s *Service) Store() repository.Store {
	return s.store
}

// TopN reads the ranked head of the leaderboard, for the ops surface
// and the live feed.
func (s *Service) TopN(ctx context.Context, n int) []types.Entry {
	return s.store.TopN(ctx, n)
}

// Stats reads the counter snapshot, for the ops surface.
func (s *Service) Stats(ctx context.Context) types.Stats {
	return s.store.Stats(ctx)
}

// Dispatch executes one decoded request and builds its response
// envelope. The reported latency covers dispatch only, not network
// transit, and is folded into the stats counters.
func (s *Service) Dispatch(ctx context.Context, req *protocol.Request) protocol.Response {
	start := s.now()

	var resp protocol.Response
	switch req.Cmd {
	case protocol.CmdUpdate:
		resp = s.handleUpdate(ctx, start, req)
	case protocol.CmdGetTop:
		resp = s.handleGetTop(ctx, start, req)
	case protocol.CmdGetPlayer:
		resp = s.handleGetPlayer(ctx, start, req)
	case protocol.CmdStats:
		resp = protocol.OK(s.elapsedMS(start), s.store.Stats(ctx))
	case protocol.CmdPing:
		resp = protocol.OK(s.elapsedMS(start), nil)
	default:
		resp = protocol.Fail(s.elapsedMS(start), fmt.Sprintf("unknown command: %s", req.Cmd))
	}

	elapsed := s.now().Sub(start)
	s.store.ObserveRequest(elapsed)
	metrics.RecordRequest(req.Cmd)
	metrics.RecordRequestLatency(float64(elapsed.Microseconds()) / 1000.0)

	return resp
}

// ObserveMalformed folds one malformed record into the request counters
// so that a client still sees exactly one (error) response per line.
func (s *Service) ObserveMalformed(d time.Duration) {
	s.store.ObserveRequest(d)
	metrics.RecordMalformedRequest()
}

func (s *Service) handleUpdate(ctx context.Context, start time.Time, req *protocol.Request) protocol.Response {
	accepted, current := s.store.SubmitUpdate(ctx, model.Update{
		PlayerID: req.PlayerID,
		Name:     req.Name,
		Score:    req.Score,
		TS:       req.TS,
	})

	status := protocol.UpdateRejected
	if accepted {
		status = protocol.UpdateAccepted
		if s.notify != nil {
			s.notify()
		}
	}

	return protocol.OK(s.elapsedMS(start), protocol.UpdateData{
		Status:       status,
		CurrentScore: current,
	})
}

func (s *Service) handleGetTop(ctx context.Context, start time.Time, req *protocol.Request) protocol.Response {
	n := req.N
	if n <= 0 {
		n = s.topNDefault
	}
	return protocol.OK(s.elapsedMS(start), protocol.TopData{Top: s.store.TopN(ctx, n)})
}

func (s *Service) handleGetPlayer(ctx context.Context, start time.Time, req *protocol.Request) protocol.Response {
	rec, err := s.store.GetPlayer(ctx, req.PlayerID)
	if err != nil {
		// Not-found travels inside an ok envelope; it is an answer,
		// not a protocol failure.
		return protocol.OK(s.elapsedMS(start), protocol.ErrorData{Error: "player not found"})
	}
	return protocol.OK(s.elapsedMS(start), rec)
}

func (s *Service) elapsedMS(start time.Time) float64 {
	return float64(s.now().Sub(start).Microseconds()) / 1000.0
}
