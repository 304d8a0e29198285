package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tsunayoshi21/Labeling-app/internal/model"
	"github.com/tsunayoshi21/Labeling-app/internal/session"
)

// Session events, delivered to Update through the event channel
type taskChangedMsg struct {
	task      *model.Task
	isHistory bool
}

type statsChangedMsg struct {
	stats model.Stats
}

type historyChangedMsg struct {
	history []model.Task
}

type pendingChangedMsg struct {
	pending   []model.Task
	currentID int64
}

type editEnteredMsg struct {
	seed string
}

type editExitedMsg struct{}

type sessionErrorMsg struct {
	err error
}

type navChangedMsg struct {
	nav model.NavState
}

type busyChangedMsg struct {
	busy bool
}

type noticeMsg struct {
	text string
}

type completedMsg struct{}

// eventBatchMsg carries every event that was waiting when the poll woke up
type eventBatchMsg struct {
	source *Events
	events []tea.Msg
}

// eventsClosedMsg is sent once the event channel has been shut down
type eventsClosedMsg struct{}

// Events turns session hook calls into tea messages. Hooks run on the
// goroutine of whichever command drives the session, so they only enqueue.
type Events struct {
	ch        chan tea.Msg
	done      chan struct{}
	closeOnce sync.Once
}

// NewEvents creates an adapter with room for size pending events
func NewEvents(size int) *Events {
	if size <= 0 {
		size = 64
	}
	return &Events{
		ch:   make(chan tea.Msg, size),
		done: make(chan struct{}),
	}
}

// Close stops delivery. Later hook calls are dropped.
func (e *Events) Close() {
	e.closeOnce.Do(func() { close(e.done) })
}

func (e *Events) send(msg tea.Msg) {
	select {
	case <-e.done:
	case e.ch <- msg:
	}
}

func (e *Events) TaskChanged(task *model.Task, isHistory bool) {
	e.send(taskChangedMsg{task: task, isHistory: isHistory})
}

func (e *Events) StatsChanged(stats model.Stats) {
	e.send(statsChangedMsg{stats: stats})
}

func (e *Events) HistoryChanged(history []model.Task) {
	e.send(historyChangedMsg{history: history})
}

func (e *Events) PendingChanged(pending []model.Task, currentID int64) {
	e.send(pendingChangedMsg{pending: pending, currentID: currentID})
}

func (e *Events) EditModeEntered(seed string) {
	e.send(editEnteredMsg{seed: seed})
}

func (e *Events) EditModeExited() {
	e.send(editExitedMsg{})
}

func (e *Events) Error(err error) {
	e.send(sessionErrorMsg{err: err})
}

func (e *Events) NavChanged(nav model.NavState) {
	e.send(navChangedMsg{nav: nav})
}

func (e *Events) BusyChanged(busy bool) {
	e.send(busyChangedMsg{busy: busy})
}

func (e *Events) Notice(msg string) {
	e.send(noticeMsg{text: msg})
}

func (e *Events) Completed() {
	e.send(completedMsg{})
}

var (
	_ session.Hooks              = (*Events)(nil)
	_ session.NavObserver        = (*Events)(nil)
	_ session.BusyObserver       = (*Events)(nil)
	_ session.NoticeObserver     = (*Events)(nil)
	_ session.CompletionObserver = (*Events)(nil)
)

// waitForEvent returns a command that blocks until an event is available
// and then drains everything already queued, preserving order.
func waitForEvent(e *Events) tea.Cmd {
	return func() tea.Msg {
		if e == nil {
			return nil
		}

		var first tea.Msg
		select {
		case first = <-e.ch:
		case <-e.done:
			return eventsClosedMsg{}
		}

		events := []tea.Msg{first}
		for {
			select {
			case msg := <-e.ch:
				events = append(events, msg)
			default:
				return eventBatchMsg{source: e, events: events}
			}
		}
	}
}
