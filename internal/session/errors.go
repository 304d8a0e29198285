package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/tsunayoshi21/Labeling-app/internal/model"
	"github.com/tsunayoshi21/Labeling-app/internal/taskapi"
)

var (
	// ErrHistoryReadOnly rejects actions while a history entry is displayed
	ErrHistoryReadOnly = errors.New("tasks from history are read-only")
	// ErrNoCurrentTask rejects actions when nothing is assigned
	ErrNoCurrentTask = errors.New("no current task")
	// ErrEmptyText rejects a correction without text
	ErrEmptyText = model.ErrEmptyText
	// ErrBusy rejects an operation while another one is in flight
	ErrBusy = errors.New("another request is still in progress")
	// ErrClosed rejects operations on a disposed session
	ErrClosed = errors.New("session closed")
)

// Kind classifies a failure for the presentation layer
type Kind int

const (
	// KindGuard is a local rejection; no request was made
	KindGuard Kind = iota
	// KindTransient is a timeout or connectivity failure
	KindTransient
	// KindServer is a 4xx/5xx answer from the Task API
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindGuard:
		return "guard"
	case KindTransient:
		return "transient"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Failure is the error delivered to Hooks.Error
type Failure struct {
	Kind Kind
	Op   string
	Err  error
	msg  string
}

func (f *Failure) Error() string {
	return f.msg
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// classify turns an operation error into a user-facing Failure
func classify(op string, err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}

	switch {
	case errors.Is(err, ErrHistoryReadOnly),
		errors.Is(err, ErrNoCurrentTask),
		errors.Is(err, ErrEmptyText),
		errors.Is(err, ErrBusy),
		errors.Is(err, ErrClosed):
		return &Failure{Kind: KindGuard, Op: op, Err: err, msg: fmt.Sprintf("cannot %s: %v", op, err)}
	}

	var apiErr *taskapi.APIError
	if errors.As(err, &apiErr) {
		return &Failure{Kind: KindServer, Op: op, Err: err, msg: fmt.Sprintf("%s failed: %s", op, apiErr.Message)}
	}

	msg := fmt.Sprintf("%s failed: network error", op)
	if errors.Is(err, context.DeadlineExceeded) {
		msg = fmt.Sprintf("%s failed: request timed out", op)
	}
	return &Failure{Kind: KindTransient, Op: op, Err: err, msg: msg}
}
