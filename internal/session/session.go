// Package session coordinates an annotator's review session: the current
// task, a read-only window onto recent history, the pending preview, and the
// edit/approve/discard actions that move work forward.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tsunayoshi21/Labeling-app/internal/model"
)

// TaskAPI is the part of the Remote Task API a session depends on.
// *taskapi.Client satisfies it.
type TaskAPI interface {
	NextTask(ctx context.Context) (*model.Task, error)
	History(ctx context.Context, limit int) ([]model.Task, error)
	PendingPreview(ctx context.Context, limit int) ([]model.Task, error)
	LoadTask(ctx context.Context, annotationID int64) (*model.Task, error)
	SubmitAction(ctx context.Context, annotationID int64, action model.Action) (*model.Task, error)
	Stats(ctx context.Context) (*model.Stats, error)
}

// Options tunes a Session
type Options struct {
	HistoryLimit   int
	PendingLimit   int
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

const (
	defaultLimit   = 10
	defaultTimeout = 30 * time.Second
)

// Session is the single owner of an annotator's State. Operations are
// mutually exclusive: while one is in flight every other operation is
// rejected with ErrBusy.
type Session struct {
	api    TaskAPI
	hooks  Hooks
	opts   Options
	logger *slog.Logger

	mu     sync.Mutex
	state  State
	busy   bool
	gen    uint64 // bumped by every operation and by Close; stale responses are dropped
	closed bool
}

// New creates a session. A nil hooks value discards all events.
func New(api TaskAPI, hooks Hooks, opts Options) *Session {
	if hooks == nil {
		hooks = NopHooks{}
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = defaultLimit
	}
	if opts.PendingLimit <= 0 {
		opts.PendingLimit = defaultLimit
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		api:    api,
		hooks:  hooks,
		opts:   opts,
		logger: logger,
		state:  newState(),
	}
}

// Snapshot returns a copy of the current state
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// NavState reports prev/next availability
func (s *Session) NavState() model.NavState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.navState()
}

// Busy reports whether an operation is in flight
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Close disposes the session. In-flight operations finish without
// publishing and later calls fail with ErrClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.busy = false
	s.gen++
}

// begin claims the session for one operation
func (s *Session) begin() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	if s.busy {
		return 0, ErrBusy
	}
	s.busy = true
	s.gen++
	return s.gen, nil
}

// end releases the claim taken by begin
func (s *Session) end(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.gen {
		s.busy = false
	}
}

// apply runs fn against the state if gen is still the live operation
func (s *Session) apply(gen uint64, fn func(st *State)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen {
		return false
	}
	fn(&s.state)
	return true
}

func (s *Session) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opts.RequestTimeout)
}

// reject reports a failure through the Error hook and returns it
func (s *Session) reject(op string, err error) error {
	f := classify(op, err)
	if f.Kind == KindGuard {
		s.logger.Debug("operation rejected", "op", op, "error", err)
	} else {
		s.logger.Error("operation failed", "op", op, "kind", f.Kind.String(), "error", err)
	}
	s.hooks.Error(f)
	return f
}

func (s *Session) setBusy(busy bool) {
	if o, ok := s.hooks.(BusyObserver); ok {
		o.BusyChanged(busy)
	}
}

func (s *Session) publishNav(nav model.NavState) {
	if o, ok := s.hooks.(NavObserver); ok {
		o.NavChanged(nav)
	}
}

func (s *Session) notice(msg string) {
	if o, ok := s.hooks.(NoticeObserver); ok {
		o.Notice(msg)
	}
}

func (s *Session) completed() {
	if o, ok := s.hooks.(CompletionObserver); ok {
		o.Completed()
	}
}
