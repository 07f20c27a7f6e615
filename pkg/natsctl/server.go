// Package natsctl exposes a controller over NATS request/reply.
//
// Requests arrive on <prefix>.set, <prefix>.get, <prefix>.suspend and
// <prefix>.resume; every reply is a protocol.Response published to the
// request's reply subject. Transitions are published on <prefix>.events.
package natsctl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/teslashibe/go-callpath/internal/log"
	"github.com/teslashibe/go-callpath/pkg/audiopath"
	"github.com/teslashibe/go-callpath/pkg/protocol"
)

// DefaultLockTimeout bounds how long a request waits for the path permit
const DefaultLockTimeout = 2 * time.Second

// Option configures a Server
type Option func(*Server)

// WithLockTimeout sets the permit wait of set, suspend and resume
func WithLockTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// Server answers control requests for one controller
type Server struct {
	conn        Connection
	svc         audiopath.Service
	prefix      string
	lockTimeout time.Duration
	logger      *slog.Logger

	mu   sync.Mutex
	subs []*nats.Subscription
}

// New creates a server for svc under prefix
func New(conn Connection, svc audiopath.Service, prefix string, opts ...Option) *Server {
	if prefix == "" {
		prefix = protocol.DefaultSubjectPrefix
	}
	s := &Server{
		conn:        conn,
		svc:         svc,
		prefix:      prefix,
		lockTimeout: DefaultLockTimeout,
		logger:      log.With("component", "natsctl", "prefix", prefix),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start subscribes to the request subjects
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	subjects := []string{
		protocol.SetSubject(s.prefix),
		protocol.GetSubject(s.prefix),
		protocol.SuspendSubject(s.prefix),
		protocol.ResumeSubject(s.prefix),
	}
	for _, subject := range subjects {
		sub, err := s.conn.Subscribe(subject, s.handleMsg)
		if err != nil {
			s.unsubscribe()
			return fmt.Errorf("natsctl: subscribe %s: %w", subject, err)
		}
		s.subs = append(s.subs, sub)
	}

	s.logger.Info("nats control api subscribed", "subjects", subjects)
	return nil
}

// Stop drops the subscriptions; the connection stays open
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsubscribe()
}

func (s *Server) unsubscribe() {
	for _, sub := range s.subs {
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrBadSubscription) && !errors.Is(err, nats.ErrConnectionClosed) {
			s.logger.Warn("unsubscribe failed", "subject", sub.Subject, "error", err)
		}
	}
	s.subs = nil
}

// Observe publishes a finished transition on the events subject
func (s *Server) Observe(t audiopath.Transition) {
	msg, err := protocol.NewTransitionMessage(t)
	if err != nil {
		s.logger.Error("encode transition", "transition", t.ID, "error", err)
		return
	}
	data, err := msg.Bytes()
	if err != nil {
		s.logger.Error("encode transition", "transition", t.ID, "error", err)
		return
	}
	if err := s.conn.Publish(protocol.EventsSubject(s.prefix), data); err != nil {
		s.logger.Warn("publish transition", "transition", t.ID, "error", err)
	}
}

func (s *Server) handleMsg(msg *nats.Msg) {
	resp := s.handle(msg.Subject, msg.Data)
	if msg.Reply == "" {
		return
	}

	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("encode reply", "subject", msg.Subject, "error", err)
		return
	}
	if err := s.conn.Publish(msg.Reply, data); err != nil {
		s.logger.Warn("publish reply", "subject", msg.Subject, "error", err)
	}
}

// handle runs one request and builds its reply
func (s *Server) handle(subject string, data []byte) protocol.Response {
	ctx, cancel := context.WithTimeout(context.Background(), s.lockTimeout)
	defer cancel()

	switch subject {
	case protocol.SetSubject(s.prefix):
		return s.handleSet(ctx, data)

	case protocol.GetSubject(s.prefix):
		return s.withState(protocol.NewResponse(nil))

	case protocol.SuspendSubject(s.prefix):
		err := s.svc.Suspend(ctx)
		s.logResult("suspend", err)
		return s.withState(protocol.NewResponse(err))

	case protocol.ResumeSubject(s.prefix):
		err := s.svc.Resume(ctx)
		s.logResult("resume", err)
		return s.withState(protocol.NewResponse(err))

	default:
		err := fmt.Errorf("%w: unknown subject %q", audiopath.ErrInvalidRequest, subject)
		return protocol.NewResponse(err)
	}
}

func (s *Server) handleSet(ctx context.Context, data []byte) protocol.Response {
	var req protocol.SetPathRequest
	if err := json.Unmarshal(data, &req); err != nil {
		err = fmt.Errorf("%w: %v", audiopath.ErrInvalidRequest, err)
		return protocol.NewResponse(err)
	}

	p, err := req.Path()
	if err != nil {
		resp := protocol.NewResponse(err)
		resp.Mode = req.Mode
		return resp
	}

	t, err := s.svc.Apply(ctx, p)
	s.logResult("set", err)

	resp := s.withState(protocol.NewResponse(err))
	resp.Mode = p.String()
	resp.TransitionID = t.ID
	return resp
}

func (s *Server) withState(resp protocol.Response) protocol.Response {
	state := s.svc.State()
	resp.State = &state
	return resp
}

func (s *Server) logResult(op string, err error) {
	if err != nil {
		s.logger.Warn("request failed", "op", op, "status", protocol.StatusFromError(err), "error", err)
	}
}

var _ audiopath.Observer = (*Server)(nil)
