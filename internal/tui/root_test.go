package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tsunayoshi21/Labeling-app/internal/model"
	"github.com/tsunayoshi21/Labeling-app/internal/session"
	"github.com/tsunayoshi21/Labeling-app/internal/taskapi"
)

// fakeBackend serves a fixed queue of pending tasks
type fakeBackend struct {
	mu        sync.Mutex
	user      *model.User
	loginErr  error
	pending   []model.Task
	history   []model.Task
	loaded    []int64
	submitted map[int64]model.Action
	loggedOut int

	// submitStarted and submitRelease, when set, hold SubmitAction open
	submitStarted chan struct{}
	submitRelease chan struct{}
}

func newFakeBackend(ids ...int64) *fakeBackend {
	fb := &fakeBackend{
		user:      &model.User{ID: 1, Username: "alice", Role: "annotator"},
		submitted: make(map[int64]model.Action),
	}
	for _, id := range ids {
		fb.pending = append(fb.pending, model.Task{
			AnnotationID:   id,
			ImageID:        id * 10,
			ImagePath:      fmt.Sprintf("img/%d.png", id),
			InitialOCRText: "ocr text",
			Status:         model.StatusPending,
		})
	}
	return fb
}

func (f *fakeBackend) Login(ctx context.Context, username, password string) (*model.User, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.user, nil
}

func (f *fakeBackend) Logout(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loggedOut++
	return nil
}

func (f *fakeBackend) NextTask(ctx context.Context) (*model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pending) == 0 {
		return nil, nil
	}
	return f.pending[0].Clone(), nil
}

func (f *fakeBackend) History(ctx context.Context, limit int) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return model.CloneTasks(f.history), nil
}

func (f *fakeBackend) PendingPreview(ctx context.Context, limit int) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return model.CloneTasks(f.pending), nil
}

func (f *fakeBackend) LoadTask(ctx context.Context, annotationID int64) (*model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded = append(f.loaded, annotationID)
	for _, t := range f.pending {
		if t.AnnotationID == annotationID {
			return t.Clone(), nil
		}
	}
	return nil, &taskapi.APIError{Status: 404, Message: "Task not found"}
}

func (f *fakeBackend) SubmitAction(ctx context.Context, annotationID int64, action model.Action) (*model.Task, error) {
	if f.submitRelease != nil {
		close(f.submitStarted)
		<-f.submitRelease
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted[annotationID] = action
	for i, t := range f.pending {
		if t.AnnotationID != annotationID {
			continue
		}
		done := action.Apply(&t)
		f.pending = append(f.pending[:i], f.pending[i+1:]...)
		f.history = append([]model.Task{*done}, f.history...)
		return done.Clone(), nil
	}
	return nil, &taskapi.APIError{Status: 404, Message: "Annotation not found or not authorized"}
}

func (f *fakeBackend) Stats(ctx context.Context) (*model.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &model.Stats{Pending: len(f.pending), Total: len(f.pending) + len(f.history)}
	for _, t := range f.history {
		switch t.Status {
		case model.StatusApproved:
			s.Approved++
		case model.StatusCorrected:
			s.Corrected++
		case model.StatusDiscarded:
			s.Discarded++
		}
	}
	return s, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// createTestModel builds a sized model without a session
func createTestModel() Model {
	m := NewRootModel(Options{Backend: newFakeBackend(), Logger: quietLogger()})
	m.width = 120
	m.height = 40
	m.ready = true
	return m
}

// createSessionModel builds a logged-in model and runs the initial load
func createSessionModel(t *testing.T, fb *fakeBackend) Model {
	t.Helper()
	m := NewRootModel(Options{Backend: fb, User: fb.user, Logger: quietLogger()})
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	t.Cleanup(m.shutdown)

	if err := m.sess.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	return drain(t, m)
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	newModel, _ := m.Update(msg)
	return newModel.(Model)
}

// drain applies every queued session event
func drain(t *testing.T, m Model) Model {
	t.Helper()
	msg := waitForEvent(m.events)()
	if _, ok := msg.(eventBatchMsg); !ok {
		t.Fatalf("expected eventBatchMsg, got %T", msg)
	}
	return update(t, m, msg)
}

// runCmd executes cmd, flattening batches
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var msgs []tea.Msg
	for _, c := range batch {
		msgs = append(msgs, runCmd(c)...)
	}
	return msgs
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestWaitForEventNil(t *testing.T) {
	if msg := waitForEvent(nil)(); msg != nil {
		t.Errorf("expected nil message for nil events, got %T", msg)
	}
}

func TestWaitForEventDrainsInOrder(t *testing.T) {
	e := NewEvents(10)
	e.BusyChanged(true)
	e.Notice("one")
	e.BusyChanged(false)

	msg := waitForEvent(e)()
	batch, ok := msg.(eventBatchMsg)
	if !ok {
		t.Fatalf("expected eventBatchMsg, got %T", msg)
	}
	if len(batch.events) != 3 {
		t.Fatalf("expected 3 events in batch, got %d", len(batch.events))
	}
	if b, ok := batch.events[0].(busyChangedMsg); !ok || !b.busy {
		t.Errorf("first event = %#v, want busy=true", batch.events[0])
	}
	if n, ok := batch.events[1].(noticeMsg); !ok || n.text != "one" {
		t.Errorf("second event = %#v, want notice", batch.events[1])
	}
}

func TestWaitForEventReturnsClosed(t *testing.T) {
	e := NewEvents(1)
	e.Close()

	if msg := waitForEvent(e)(); msg != (eventsClosedMsg{}) {
		t.Errorf("expected eventsClosedMsg, got %T", msg)
	}
}

func TestEventsSendAfterCloseDoesNotBlock(t *testing.T) {
	e := NewEvents(1)
	e.Close()
	e.Close()

	for i := 0; i < 5; i++ {
		e.Notice("dropped")
	}
}

func TestApplySessionEvents(t *testing.T) {
	m := createTestModel()
	task := &model.Task{AnnotationID: 42, InitialOCRText: "hello", Status: model.StatusPending}

	m = update(t, m, eventBatchMsg{events: []tea.Msg{
		taskChangedMsg{task: task, isHistory: false},
		statsChangedMsg{stats: model.Stats{Total: 4, Pending: 2, Approved: 2}},
		historyChangedMsg{history: []model.Task{{AnnotationID: 5}}},
		pendingChangedMsg{pending: []model.Task{{AnnotationID: 42}, {AnnotationID: 43}}, currentID: 42},
		navChangedMsg{nav: model.NavState{HistoryIndex: -1, HistoryLength: 1, CanGoPrev: true}},
		busyChangedMsg{busy: true},
	}})

	if m.task == nil || m.task.AnnotationID != 42 {
		t.Errorf("task = %#v, want annotation 42", m.task)
	}
	if m.stats == nil || m.stats.ProgressPercent() != 50 {
		t.Errorf("stats = %#v, want 50%% progress", m.stats)
	}
	if len(m.history) != 1 || len(m.pending) != 2 || m.currentID != 42 {
		t.Errorf("history=%d pending=%d currentID=%d", len(m.history), len(m.pending), m.currentID)
	}
	if !m.nav.CanGoPrev || !m.busy {
		t.Errorf("nav=%#v busy=%v", m.nav, m.busy)
	}

	m = update(t, m, eventBatchMsg{events: []tea.Msg{completedMsg{}}})
	if !m.completed || m.task != nil {
		t.Errorf("completed=%v task=%v, want completed with no task", m.completed, m.task)
	}

	m = update(t, m, eventBatchMsg{events: []tea.Msg{taskChangedMsg{task: task}}})
	if m.completed {
		t.Error("a new task should clear the completed state")
	}
}

func TestPendingCursorClampedWhenListShrinks(t *testing.T) {
	m := createTestModel()
	m.pendingIdx = 4

	m = update(t, m, eventBatchMsg{events: []tea.Msg{
		pendingChangedMsg{pending: []model.Task{{AnnotationID: 1}, {AnnotationID: 2}}},
	}})
	if m.pendingIdx != 1 {
		t.Errorf("pendingIdx = %d, want 1", m.pendingIdx)
	}

	m = update(t, m, eventBatchMsg{events: []tea.Msg{pendingChangedMsg{}}})
	if m.pendingIdx != 0 {
		t.Errorf("pendingIdx = %d, want 0 for empty list", m.pendingIdx)
	}
}

func TestEditModeSeedsEditor(t *testing.T) {
	m := createTestModel()

	m = update(t, m, eventBatchMsg{events: []tea.Msg{editEnteredMsg{seed: "seeded text"}}})
	if !m.editing {
		t.Fatal("expected edit mode")
	}
	if got := m.editor.Value(); got != "seeded text" {
		t.Errorf("editor value = %q, want %q", got, "seeded text")
	}

	m = update(t, m, eventBatchMsg{events: []tea.Msg{editExitedMsg{}}})
	if m.editing {
		t.Error("expected edit mode to end")
	}
	if got := m.editor.Value(); got != "" {
		t.Errorf("editor value = %q after exit, want empty", got)
	}
}

func TestNoticeClearsOnlyForLatestSequence(t *testing.T) {
	m := createTestModel()
	m.errMsg = "old failure"

	m = update(t, m, eventBatchMsg{events: []tea.Msg{noticeMsg{text: "first"}}})
	stale := m.noticeSeq
	m = update(t, m, eventBatchMsg{events: []tea.Msg{noticeMsg{text: "second"}}})

	if m.errMsg != "" {
		t.Errorf("errMsg = %q, a notice should replace it", m.errMsg)
	}

	m = update(t, m, clearNoticeMsg{seq: stale})
	if m.notice != "second" {
		t.Errorf("notice = %q, stale clear should be ignored", m.notice)
	}
	m = update(t, m, clearNoticeMsg{seq: m.noticeSeq})
	if m.notice != "" {
		t.Errorf("notice = %q, want cleared", m.notice)
	}
}

func TestSessionErrorShown(t *testing.T) {
	m := createTestModel()
	m.notice = "✓ Image approved"

	m = update(t, m, eventBatchMsg{events: []tea.Msg{sessionErrorMsg{err: &taskapi.APIError{Status: 500, Message: "boom"}}}})
	if !strings.Contains(m.errMsg, "boom") {
		t.Errorf("errMsg = %q, want server message", m.errMsg)
	}
	if m.notice != "" {
		t.Errorf("notice = %q, an error should replace it", m.notice)
	}
}

func TestLoginFlow(t *testing.T) {
	fb := newFakeBackend(1, 2)
	m := NewRootModel(Options{Backend: fb, Logger: quietLogger()})
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	if m.viewMode != ViewModeLogin {
		t.Fatalf("viewMode = %v, want login", m.viewMode)
	}

	m = update(t, m, keyRunes("alice"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = update(t, m, keyRunes("secret"))

	if m.username.Value() != "alice" || m.password.Value() != "secret" {
		t.Fatalf("username=%q password=%q", m.username.Value(), m.password.Value())
	}

	newModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = newModel.(Model)
	if !m.loggingIn || cmd == nil {
		t.Fatal("expected a login command")
	}

	m = update(t, m, cmd())
	t.Cleanup(m.shutdown)

	if m.viewMode != ViewModeReview {
		t.Errorf("viewMode = %v, want review", m.viewMode)
	}
	if m.sess == nil || m.events == nil {
		t.Fatal("expected a session after login")
	}
	if m.password.Value() != "" {
		t.Error("password should be cleared after login")
	}
	if m.user == nil || m.user.Username != "alice" {
		t.Errorf("user = %#v", m.user)
	}
}

func TestLoginFailureShowsServerMessage(t *testing.T) {
	fb := newFakeBackend()
	fb.loginErr = &taskapi.APIError{Status: 401, Message: "Invalid credentials"}
	m := NewRootModel(Options{Backend: fb, Logger: quietLogger()})

	m.username.SetValue("alice")
	m.password.SetValue("wrong")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a login command")
	}
	m = update(t, m, cmd())

	if m.loginErr != "Invalid credentials" {
		t.Errorf("loginErr = %q", m.loginErr)
	}
	if m.viewMode != ViewModeLogin || m.sess != nil {
		t.Error("a failed login must stay on the login form")
	}
}

func TestLoginRequiresBothFields(t *testing.T) {
	m := NewRootModel(Options{Backend: newFakeBackend(), Logger: quietLogger()})
	m.username.SetValue("alice")

	newModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = newModel.(Model)
	if cmd != nil {
		t.Error("expected no command without a password")
	}
	if m.loginErr == "" {
		t.Error("expected a validation message")
	}
}

func TestBootstrapPopulatesModel(t *testing.T) {
	m := createSessionModel(t, newFakeBackend(1, 2, 3))

	if m.task == nil || m.task.AnnotationID != 1 {
		t.Fatalf("task = %#v, want annotation 1", m.task)
	}
	if len(m.pending) != 3 || m.currentID != 1 {
		t.Errorf("pending=%d currentID=%d", len(m.pending), m.currentID)
	}
	if m.stats == nil || m.stats.Total != 3 {
		t.Errorf("stats = %#v", m.stats)
	}
	if m.busy {
		t.Error("busy should be released after bootstrap")
	}
}

func TestApproveKeySubmitsAndAdvances(t *testing.T) {
	fb := newFakeBackend(1, 2)
	m := createSessionModel(t, fb)

	_, cmd := m.Update(keyRunes("a"))
	if cmd == nil {
		t.Fatal("expected an approve command")
	}
	if done, ok := cmd().(opDoneMsg); !ok || done.err != nil {
		t.Fatalf("approve result = %#v", done)
	}
	m = drain(t, m)

	if got := fb.submitted[1].Status; got != model.StatusApproved {
		t.Errorf("submitted status = %q, want approved", got)
	}
	if m.task == nil || m.task.AnnotationID != 2 {
		t.Errorf("task = %#v, want annotation 2", m.task)
	}
	if len(m.history) != 1 || m.notice != "✓ Image approved" {
		t.Errorf("history=%d notice=%q", len(m.history), m.notice)
	}
}

func TestKeysIgnoredWhileBusy(t *testing.T) {
	m := createSessionModel(t, newFakeBackend(1))
	m.busy = true

	for _, k := range []string{"a", "d", "e", "r"} {
		if _, cmd := m.Update(keyRunes(k)); cmd != nil {
			t.Errorf("key %q should be ignored while busy", k)
		}
	}
}

func TestEditAndSaveThroughKeys(t *testing.T) {
	fb := newFakeBackend(1, 2)
	m := createSessionModel(t, fb)

	_, cmd := m.Update(keyRunes("e"))
	cmd()
	m = drain(t, m)
	if !m.editing || m.editor.Value() != "ocr text" {
		t.Fatalf("editing=%v value=%q", m.editing, m.editor.Value())
	}

	m.editor.SetValue("fixed text")
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd == nil {
		t.Fatal("expected a save command")
	}
	cmd()
	m = drain(t, m)

	action := fb.submitted[1]
	if action.Status != model.StatusCorrected || action.CorrectedText == nil || *action.CorrectedText != "fixed text" {
		t.Errorf("submitted = %#v", action)
	}
	if m.editing {
		t.Error("edit mode should end after a successful save")
	}
}

func TestJumpOpensSelectedPending(t *testing.T) {
	fb := newFakeBackend(1, 2, 3)
	m := createSessionModel(t, fb)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.pendingIdx != 2 {
		t.Fatalf("pendingIdx = %d, want 2", m.pendingIdx)
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.pendingIdx != 2 {
		t.Errorf("pendingIdx = %d, cursor should stop at the end", m.pendingIdx)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	cmd()
	m = drain(t, m)

	if len(fb.loaded) != 1 || fb.loaded[0] != 3 {
		t.Errorf("loaded = %v, want [3]", fb.loaded)
	}
	if m.task == nil || m.task.AnnotationID != 3 || m.currentID != 3 {
		t.Errorf("task = %#v currentID = %d", m.task, m.currentID)
	}
}

func TestHistoryNavigationKeys(t *testing.T) {
	fb := newFakeBackend(1, 2)
	m := createSessionModel(t, fb)

	_, cmd := m.Update(keyRunes("a"))
	cmd()
	m = drain(t, m)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	cmd()
	m = drain(t, m)
	if !m.isHistory || m.task.AnnotationID != 1 || m.nav.HistoryIndex != 0 {
		t.Fatalf("isHistory=%v task=%d index=%d", m.isHistory, m.task.AnnotationID, m.nav.HistoryIndex)
	}
	if !strings.Contains(m.View(), "read-only") {
		t.Error("history view should be marked read-only")
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	cmd()
	m = drain(t, m)
	if m.isHistory || m.task.AnnotationID != 2 {
		t.Errorf("isHistory=%v task=%d, want live task 2", m.isHistory, m.task.AnnotationID)
	}
}

func TestQuitClosesSession(t *testing.T) {
	m := createSessionModel(t, newFakeBackend(1))

	_, cmd := m.Update(keyRunes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if msg := waitForEvent(m.events)(); msg != (eventsClosedMsg{}) {
		t.Errorf("events should be closed after quit, got %T", msg)
	}
}

func TestHelpToggle(t *testing.T) {
	m := createTestModel()
	m.viewMode = ViewModeReview

	m = update(t, m, keyRunes("?"))
	if !m.showHelp || !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Fatal("expected help overlay")
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.showHelp {
		t.Error("esc should close help")
	}
}

func TestViewContent(t *testing.T) {
	corrected := "hello world"
	m := createTestModel()

	if !strings.Contains(m.View(), "OCR Review") {
		t.Error("login view should show the title")
	}

	m.viewMode = ViewModeReview
	m.task = &model.Task{
		AnnotationID:   42,
		ImageID:        7,
		ImagePath:      "img/42.png",
		InitialOCRText: "helo wrld",
		CorrectedText:  &corrected,
		Status:         model.StatusCorrected,
	}
	m.stats = &model.Stats{Total: 4, Pending: 2, Corrected: 2}

	view := m.View()
	for _, want := range []string{"Annotation #42", "img/42.png", "helo wrld", "hello world", "edit distance 2", "50%"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m.task = nil
	m.completed = true
	if !strings.Contains(m.View(), "All tasks completed") {
		t.Error("expected the completed view")
	}
}

func TestViewNotReady(t *testing.T) {
	m := NewRootModel(Options{Backend: newFakeBackend(), Logger: quietLogger()})
	if got := m.View(); got != "Loading..." {
		t.Errorf("View() = %q before sizing", got)
	}
}

func TestRenderProgress(t *testing.T) {
	tests := []struct {
		name    string
		percent int
		width   int
		suffix  string
	}{
		{"empty", 0, 10, " 0%"},
		{"half", 50, 10, " 50%"},
		{"full", 100, 10, " 100%"},
		{"clamped high", 150, 10, " 100%"},
		{"clamped low", -5, 10, " 0%"},
		{"narrow", 40, 1, " 40%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderProgress(tt.percent, tt.width)
			if !strings.HasSuffix(got, tt.suffix) {
				t.Errorf("renderProgress(%d, %d) = %q, want suffix %q", tt.percent, tt.width, got, tt.suffix)
			}
		})
	}
}

func TestLogoutReturnsToLoginForm(t *testing.T) {
	fb := newFakeBackend(1, 2)
	m := createSessionModel(t, fb)
	sess, events := m.sess, m.events

	newModel, cmd := m.Update(keyRunes("L"))
	m = newModel.(Model)
	if cmd == nil {
		t.Fatal("expected a logout command")
	}

	if m.viewMode != ViewModeLogin {
		t.Errorf("viewMode = %v, want login", m.viewMode)
	}
	if m.sess != nil || m.events != nil || m.user != nil {
		t.Error("session state should be dropped on logout")
	}
	if m.task != nil || m.stats != nil || len(m.pending) != 0 || len(m.history) != 0 {
		t.Error("published task data should be cleared on logout")
	}
	if !strings.Contains(m.View(), "OCR Review") {
		t.Error("expected the login form after logout")
	}

	if err := sess.Approve(context.Background()); !errors.Is(err, session.ErrClosed) {
		t.Errorf("Approve after logout = %v, want ErrClosed", err)
	}
	if msg := waitForEvent(events)(); msg != (eventsClosedMsg{}) {
		t.Errorf("events should be closed after logout, got %T", msg)
	}

	for _, msg := range runCmd(cmd) {
		m = update(t, m, msg)
	}
	if fb.loggedOut != 1 {
		t.Errorf("backend Logout called %d times, want 1", fb.loggedOut)
	}
	if len(fb.submitted) != 0 {
		t.Errorf("no action should reach the server, got %v", fb.submitted)
	}
}

func TestEventsFromLoggedOutSessionIgnored(t *testing.T) {
	m := createSessionModel(t, newFakeBackend(1))
	stale := m.events

	newModel, _ := m.Update(keyRunes("L"))
	m = newModel.(Model)

	task := &model.Task{AnnotationID: 9}
	m = update(t, m, eventBatchMsg{source: stale, events: []tea.Msg{taskChangedMsg{task: task}}})
	if m.task != nil {
		t.Errorf("task = %#v, stale events must not be applied", m.task)
	}
}

func TestBusyRejectionNotShown(t *testing.T) {
	fb := newFakeBackend(1, 2)
	m := createSessionModel(t, fb)
	fb.submitStarted = make(chan struct{})
	fb.submitRelease = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- m.sess.Approve(context.Background()) }()
	<-fb.submitStarted

	if err := m.sess.StartEdit(); !errors.Is(err, session.ErrBusy) {
		t.Fatalf("StartEdit while approving = %v, want ErrBusy", err)
	}
	close(fb.submitRelease)
	if err := <-done; err != nil {
		t.Fatalf("Approve() error = %v", err)
	}

	m = drain(t, m)
	if m.errMsg != "" {
		t.Errorf("errMsg = %q, a dropped key should not show an error", m.errMsg)
	}
	if m.editing {
		t.Error("the rejected edit must not enter edit mode")
	}
	if m.notice != "✓ Image approved" {
		t.Errorf("notice = %q", m.notice)
	}
}
