package session

import "github.com/tsunayoshi21/Labeling-app/internal/model"

// Hooks is the presentation layer's view of a session. Every method is
// required; embed NopHooks to implement only a subset.
//
// Hooks are called without the session lock held, from whichever goroutine
// ran the operation. Task and list arguments are copies.
type Hooks interface {
	// TaskChanged reports the task to display. task is nil once the
	// annotator has no work left.
	TaskChanged(task *model.Task, isHistory bool)
	StatsChanged(stats model.Stats)
	HistoryChanged(history []model.Task)
	PendingChanged(pending []model.Task, currentID int64)
	EditModeEntered(seed string)
	EditModeExited()
	Error(err error)
}

// NavObserver is an optional capability for hooks that render prev/next controls
type NavObserver interface {
	NavChanged(nav model.NavState)
}

// BusyObserver is an optional capability for hooks that disable controls
// while a request is in flight
type BusyObserver interface {
	BusyChanged(busy bool)
}

// CompletionObserver is an optional capability notified when no task remains
type CompletionObserver interface {
	Completed()
}

// NoticeObserver is an optional capability for short success messages
type NoticeObserver interface {
	Notice(msg string)
}

// NopHooks ignores every event
type NopHooks struct{}

func (NopHooks) TaskChanged(*model.Task, bool) {}
func (NopHooks) StatsChanged(model.Stats) {}
func (NopHooks) HistoryChanged([]model.Task) {}
func (NopHooks) PendingChanged([]model.Task, int64) {}
func (NopHooks) EditModeEntered(string) {}
func (NopHooks) EditModeExited() {}
func (NopHooks) Error(error) {}

var _ Hooks = NopHooks{}
