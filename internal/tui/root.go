package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tsunayoshi21/Labeling-app/internal/model"
	"github.com/tsunayoshi21/Labeling-app/internal/session"
	"github.com/tsunayoshi21/Labeling-app/internal/taskapi"
)

// ViewMode represents the current view
type ViewMode int

const (
	ViewModeLogin  ViewMode = iota // Credentials form
	ViewModeReview                 // Annotator dashboard
)

// Backend is the part of the Task API client the terminal UI uses.
// *taskapi.Client satisfies it.
type Backend interface {
	session.TaskAPI
	Login(ctx context.Context, username, password string) (*model.User, error)
	Logout(ctx context.Context) error
}

// Options configures the root model
type Options struct {
	Backend Backend
	// User is the already authenticated user; nil starts at the login form
	User           *model.User
	HistoryLimit   int
	PendingLimit   int
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// Messages
type loginResultMsg struct {
	user *model.User
	err  error
}

type opDoneMsg struct {
	op  string
	err error
}

type clearNoticeMsg struct {
	seq int
}

type logoutDoneMsg struct {
	err error
}

const (
	sidebarWidth   = 34
	noticeDuration = 3 * time.Second
)

// Model is the root Bubble Tea model
type Model struct {
	// Terminal dimensions
	width  int
	height int
	ready  bool

	viewMode ViewMode
	showHelp bool

	backend Backend
	opts    Options
	logger  *slog.Logger

	// Live review session, nil until logged in
	sess   *session.Session
	events *Events
	user   *model.User

	// Login form
	username   textinput.Model
	password   textinput.Model
	loginFocus int
	loginErr   string
	loggingIn  bool

	// Session state as published through the hooks
	task      *model.Task
	isHistory bool
	stats     *model.Stats
	history   []model.Task
	pending   []model.Task
	currentID int64
	nav       model.NavState
	busy      bool
	editing   bool
	completed bool

	pendingIdx int // cursor in the pending list

	editor  textarea.Model
	spinner spinner.Model
	help    help.Model

	errMsg    string
	notice    string
	noticeSeq int

	keys KeyMap
}

// NewRootModel creates a new root model
func NewRootModel(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	username := textinput.New()
	username.Placeholder = "username"
	username.Prompt = "User: "
	username.PromptStyle = InputPromptStyle
	username.CharLimit = 80
	username.Width = 30
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "Pass: "
	password.PromptStyle = InputPromptStyle
	password.EchoMode = textinput.EchoPassword
	password.CharLimit = 120
	password.Width = 30

	editor := textarea.New()
	editor.Placeholder = "Corrected text…"
	editor.CharLimit = 2000
	editor.ShowLineNumbers = false
	editor.SetWidth(60)
	editor.SetHeight(6)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = StatusBusyStyle

	m := Model{
		viewMode: ViewModeLogin,
		backend:  opts.Backend,
		opts:     opts,
		logger:   logger,
		username: username,
		password: password,
		editor:   editor,
		spinner:  sp,
		help:     help.New(),
		keys:     DefaultKeyMap(),
		nav:      model.NavState{HistoryIndex: -1},
	}

	if opts.User != nil {
		m.user = opts.User
		m.viewMode = ViewModeReview
		m.startSession()
	}
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	if m.viewMode == ViewModeLogin {
		return textinput.Blink
	}
	return tea.Batch(waitForEvent(m.events), m.bootstrapCmd(), m.spinner.Tick)
}

// startSession wires a fresh session to a fresh event channel
func (m *Model) startSession() {
	m.events = NewEvents(128)
	m.sess = session.New(m.backend, m.events, session.Options{
		HistoryLimit:   m.opts.HistoryLimit,
		PendingLimit:   m.opts.PendingLimit,
		RequestTimeout: m.opts.RequestTimeout,
		Logger:         m.logger,
	})
}

// shutdown disposes the session so in-flight work stops publishing
func (m *Model) shutdown() {
	if m.sess != nil {
		m.sess.Close()
	}
	if m.events != nil {
		m.events.Close()
	}
}

func (m Model) bootstrapCmd() tea.Cmd {
	return m.run("bootstrap", m.sess.Bootstrap)
}

// run executes a session operation off the update loop. Failures reach the
// model through the Error hook, the result here is only logged.
func (m Model) run(op string, fn func(ctx context.Context) error) tea.Cmd {
	logger := m.logger
	return func() tea.Msg {
		err := fn(context.Background())
		if err != nil {
			logger.Debug("operation finished with error", "op", op, "error", err)
		}
		return opDoneMsg{op: op, err: err}
	}
}

// runSync wraps an operation that never touches the network
func (m Model) runSync(op string, fn func() error) tea.Cmd {
	return m.run(op, func(context.Context) error { return fn() })
}

func loginCmd(backend Backend, username, password string) tea.Cmd {
	return func() tea.Msg {
		user, err := backend.Login(context.Background(), username, password)
		return loginResultMsg{user: user, err: err}
	}
}

func logoutCmd(backend Backend) tea.Cmd {
	return func() tea.Msg {
		return logoutDoneMsg{err: backend.Logout(context.Background())}
	}
}

// logout drops the session and everything it published, then shows the
// login form. The server call runs afterwards.
func (m Model) logout() (Model, tea.Cmd) {
	m.shutdown()
	m.logger.Info("logging out", "user", m.userName())

	m.sess = nil
	m.events = nil
	m.user = nil
	m.task = nil
	m.isHistory = false
	m.stats = nil
	m.history = nil
	m.pending = nil
	m.currentID = 0
	m.nav = model.NavState{HistoryIndex: -1}
	m.busy = false
	m.editing = false
	m.completed = false
	m.pendingIdx = 0
	m.editor.Blur()
	m.editor.Reset()
	m.errMsg = ""
	m.notice = ""

	m.viewMode = ViewModeLogin
	m.loginErr = ""
	m.loginFocus = 0
	m.password.Blur()
	m.password.SetValue("")
	m.username.SetValue("")
	m.username.Focus()
	return m, tea.Batch(textinput.Blink, logoutCmd(m.backend))
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width

		editorWidth := m.width - sidebarWidth - 12
		if editorWidth < 20 {
			editorWidth = 20
		}
		m.editor.SetWidth(editorWidth)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loginResultMsg:
		m.loggingIn = false
		if msg.err != nil {
			m.loginErr = userMessage(msg.err)
			m.password.SetValue("")
			return m, nil
		}
		m.loginErr = ""
		m.user = msg.user
		m.viewMode = ViewModeReview
		m.password.SetValue("")
		m.startSession()
		m.logger.Info("logged in", "user", m.userName())
		return m, tea.Batch(waitForEvent(m.events), m.bootstrapCmd(), m.spinner.Tick)

	case eventBatchMsg:
		// Events from a session that was logged out
		if msg.source != m.events {
			return m, nil
		}
		var cmds []tea.Cmd
		for _, ev := range msg.events {
			if cmd := m.applyEvent(ev); cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
		cmds = append(cmds, waitForEvent(m.events))
		return m, tea.Batch(cmds...)

	case eventsClosedMsg:
		return m, nil

	case opDoneMsg:
		return m, nil

	case logoutDoneMsg:
		if msg.err != nil {
			m.logger.Warn("logout call failed", "error", msg.err)
		}
		return m, nil

	case clearNoticeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Keep the editor's cursor blinking
	if m.editing {
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd
	}
	return m, nil
}

// applyEvent folds one session event into the model
func (m *Model) applyEvent(ev tea.Msg) tea.Cmd {
	switch ev := ev.(type) {
	case taskChangedMsg:
		m.task = ev.task
		m.isHistory = ev.isHistory
		if ev.task != nil {
			m.completed = false
		}

	case statsChangedMsg:
		stats := ev.stats
		m.stats = &stats

	case historyChangedMsg:
		m.history = ev.history

	case pendingChangedMsg:
		m.pending = ev.pending
		m.currentID = ev.currentID
		if m.pendingIdx >= len(m.pending) {
			m.pendingIdx = len(m.pending) - 1
		}
		if m.pendingIdx < 0 {
			m.pendingIdx = 0
		}

	case editEnteredMsg:
		m.editing = true
		m.editor.SetValue(ev.seed)
		return m.editor.Focus()

	case editExitedMsg:
		m.editing = false
		m.editor.Blur()
		m.editor.Reset()

	case sessionErrorMsg:
		// A key pressed while another operation runs is dropped
		if errors.Is(ev.err, session.ErrBusy) {
			m.logger.Debug("key ignored while busy", "error", ev.err)
			return nil
		}
		m.errMsg = ev.err.Error()
		m.notice = ""

	case navChangedMsg:
		m.nav = ev.nav

	case busyChangedMsg:
		m.busy = ev.busy
		if ev.busy {
			return m.spinner.Tick
		}

	case noticeMsg:
		m.notice = ev.text
		m.errMsg = ""
		m.noticeSeq++
		seq := m.noticeSeq
		return tea.Tick(noticeDuration, func(time.Time) tea.Msg { return clearNoticeMsg{seq: seq} })

	case completedMsg:
		m.completed = true
		m.task = nil
	}
	return nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Interrupt) {
		m.shutdown()
		return m, tea.Quit
	}

	if m.showHelp {
		if key.Matches(msg, m.keys.Help, m.keys.Cancel, m.keys.Quit) {
			m.showHelp = false
		}
		return m, nil
	}

	switch {
	case m.viewMode == ViewModeLogin:
		return m.handleLoginKey(msg)
	case m.editing:
		return m.handleEditKey(msg)
	default:
		return m.handleReviewKey(msg)
	}
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Tab):
		m.loginFocus = 1 - m.loginFocus
		if m.loginFocus == 0 {
			m.password.Blur()
			return m, m.username.Focus()
		}
		m.username.Blur()
		return m, m.password.Focus()

	case key.Matches(msg, m.keys.Submit):
		if m.loggingIn {
			return m, nil
		}
		username := strings.TrimSpace(m.username.Value())
		password := m.password.Value()
		if username == "" || password == "" {
			m.loginErr = "Username and password are required"
			return m, nil
		}
		m.loggingIn = true
		m.loginErr = ""
		return m, loginCmd(m.backend, username, password)
	}

	var cmd tea.Cmd
	if m.loginFocus == 0 {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Save):
		text := m.editor.Value()
		return m, m.run("save", func(ctx context.Context) error { return m.sess.SaveEdit(ctx, text) })
	case key.Matches(msg, m.keys.Cancel):
		return m, m.runSync("cancel edit", m.sess.CancelEdit)
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m Model) handleReviewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.shutdown()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.Logout):
		return m.logout()
	case key.Matches(msg, m.keys.Up):
		if m.pendingIdx > 0 {
			m.pendingIdx--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.pendingIdx < len(m.pending)-1 {
			m.pendingIdx++
		}
		return m, nil
	}

	// Controls stay disabled while a request is in flight
	if m.busy || m.sess == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Approve):
		return m, m.run("approve", m.sess.Approve)
	case key.Matches(msg, m.keys.Discard):
		return m, m.run("discard", m.sess.Discard)
	case key.Matches(msg, m.keys.Edit):
		return m, m.runSync("edit", m.sess.StartEdit)
	case key.Matches(msg, m.keys.Prev):
		return m, m.runSync("go back", m.sess.GoPrev)
	case key.Matches(msg, m.keys.Next):
		return m, m.run("go forward", m.sess.GoNext)
	case key.Matches(msg, m.keys.Refresh):
		return m, m.run("refresh", m.sess.Refresh)
	case key.Matches(msg, m.keys.Jump):
		if m.pendingIdx < 0 || m.pendingIdx >= len(m.pending) {
			return m, nil
		}
		id := m.pending[m.pendingIdx].AnnotationID
		return m, m.run("open pending", func(ctx context.Context) error { return m.sess.JumpToPending(ctx, id) })
	}
	return m, nil
}

// userMessage extracts the server's message from an error when there is one
func userMessage(err error) string {
	var apiErr *taskapi.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

func (m Model) userName() string {
	if m.user == nil {
		return ""
	}
	return m.user.Username
}

// View renders the model
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.helpView()
	}
	if m.viewMode == ViewModeLogin {
		return m.loginView()
	}
	return m.reviewView()
}

func (m Model) loginView() string {
	title := HeaderStyle.Render("OCR Review") + DimStyle.Render("  sign in to continue")

	form := lipgloss.JoinVertical(lipgloss.Left,
		InputStyle.Render(m.username.View()),
		InputStyle.Render(m.password.View()),
	)

	var status string
	switch {
	case m.loggingIn:
		status = WarningStyle.Render("Signing in…")
	case m.loginErr != "":
		status = ErrorStyle.Render("✗ " + m.loginErr)
	default:
		status = DimStyle.Render("tab switch field · enter log in · ctrl+c quit")
	}

	box := HelpStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "", form, "", status))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) reviewView() string {
	header := m.renderHeader()
	bodyHeight := m.height - 4

	mainWidth := m.width - sidebarWidth - 2
	var main string
	if m.completed && !m.isHistory {
		main = m.renderCompleted(mainWidth, bodyHeight)
	} else {
		main = m.renderTask(mainWidth, bodyHeight)
	}
	sidebar := m.renderSidebar(sidebarWidth, bodyHeight)

	body := lipgloss.JoinHorizontal(lipgloss.Top, main, sidebar)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.renderStatusBar())
}

func (m Model) renderHeader() string {
	title := HeaderStyle.Render("OCR Review")
	user := ""
	if m.user != nil {
		user = DimStyle.Render(fmt.Sprintf("  %s (%s)", m.user.Username, m.user.Role))
	}
	return title + user
}

func (m Model) renderTask(width, height int) string {
	style := TaskPanelStyle
	if m.isHistory {
		style = HistoryPanelStyle
	}
	style = style.Width(width - 2).Height(height - 2)

	if m.task == nil {
		return style.Render(DimStyle.Render("Waiting for a task…"))
	}
	t := m.task

	var b strings.Builder

	heading := LabelStyle.Render(fmt.Sprintf("Annotation #%d", t.AnnotationID)) +
		DimStyle.Render(fmt.Sprintf("  image %d  ", t.ImageID)) +
		statusStyle(t.Status).Render(t.Status.Icon()+" "+string(t.Status))
	b.WriteString(heading + "\n")

	if m.nav.InHistory() {
		pos := fmt.Sprintf("History %d/%d · read-only", m.nav.HistoryIndex+1, m.nav.HistoryLength)
		b.WriteString(WarningStyle.Render(pos) + "\n")
	}
	b.WriteString(DimStyle.Render(t.ImagePath) + "\n\n")

	b.WriteString(LabelStyle.Render("OCR text") + "\n")
	b.WriteString(OCRTextStyle.Render(t.InitialOCRText) + "\n\n")

	if t.CorrectedText != nil && *t.CorrectedText != t.InitialOCRText {
		b.WriteString(LabelStyle.Render("Corrected") + DimStyle.Render(fmt.Sprintf("  edit distance %d", t.EditDistance())) + "\n")
		b.WriteString(CorrectedTextStyle.Render(*t.CorrectedText) + "\n\n")
	}

	if m.editing {
		b.WriteString(LabelStyle.Render("Editing") + "\n")
		b.WriteString(EditorStyle.Render(m.editor.View()) + "\n")
		b.WriteString(m.help.ShortHelpView(m.keys.EditHelp()))
	}

	return style.Render(b.String())
}

func (m Model) renderCompleted(width, height int) string {
	msg := SuccessStyle.Bold(true).Render("✓ All tasks completed") + "\n\n" +
		DimStyle.Render("No pending annotations are assigned to you.") + "\n" +
		DimStyle.Render("Press r to check again, ← to browse history.")
	return TaskPanelStyle.Width(width - 2).Height(height - 2).Render(msg)
}

func (m Model) renderSidebar(width, height int) string {
	var b strings.Builder

	b.WriteString(SidebarTitleStyle.Render("Progress") + "\n")
	if m.stats != nil {
		b.WriteString(renderProgress(m.stats.ProgressPercent(), width-10) + "\n")
		b.WriteString(DimStyle.Render(fmt.Sprintf("%d/%d done · %d pending", m.stats.Completed(), m.stats.Total, m.stats.Pending)) + "\n")
		b.WriteString(DimStyle.Render(fmt.Sprintf("✓%d ✎%d ⊘%d", m.stats.Approved, m.stats.Corrected, m.stats.Discarded)) + "\n")
	} else {
		b.WriteString(DimStyle.Render("—") + "\n")
	}

	b.WriteString("\n" + SidebarTitleStyle.Render(fmt.Sprintf("Pending (%d)", len(m.pending))) + "\n")
	if len(m.pending) == 0 {
		b.WriteString(DimStyle.Render("none") + "\n")
	}
	for i, t := range m.pending {
		line := fmt.Sprintf("%s #%d", t.Status.Icon(), t.AnnotationID)
		if t.AnnotationID == m.currentID {
			line += " ▶"
		}
		if i == m.pendingIdx {
			line = SelectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n" + SidebarTitleStyle.Render("History") + "\n")
	if len(m.history) == 0 {
		b.WriteString(DimStyle.Render("none") + "\n")
	}
	for i, t := range m.history {
		line := statusStyle(t.Status).Render(t.Status.Icon()) + fmt.Sprintf(" #%d", t.AnnotationID)
		if m.isHistory && i == m.nav.HistoryIndex {
			line = SelectedStyle.Render(t.Status.Icon() + fmt.Sprintf(" #%d", t.AnnotationID))
		}
		b.WriteString(line + "\n")
	}

	return SidebarStyle.Width(width - 2).Height(height - 2).Render(b.String())
}

// renderProgress draws a fixed width bar followed by the percentage
func renderProgress(percent, width int) string {
	if width < 5 {
		width = 5
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := width * percent / 100
	return ProgressFilledStyle.Render(strings.Repeat("█", filled)) +
		ProgressEmptyStyle.Render(strings.Repeat("░", width-filled)) +
		fmt.Sprintf(" %d%%", percent)
}

func (m Model) renderStatusBar() string {
	var status string
	if m.busy {
		status = m.spinner.View() + StatusBusyStyle.Render(" Working")
	} else {
		status = StatusIdleStyle.Render("○ Ready")
	}

	var message string
	switch {
	case m.errMsg != "":
		message = ErrorStyle.Render(" │ ✗ " + m.errMsg)
	case m.notice != "":
		message = SuccessStyle.Render(" │ " + m.notice)
	}

	hints := DimStyle.Render(" │ ") + m.help.ShortHelpView(m.keys.ShortHelp())
	if m.editing {
		hints = DimStyle.Render(" │ ") + m.help.ShortHelpView(m.keys.EditHelp())
	}
	return StatusBarStyle.Render(status + message + hints)
}

// helpView renders the help overlay
func (m Model) helpView() string {
	title := HelpTitleStyle.Render("Keyboard Shortcuts")
	content := title + "\n\n" + m.help.FullHelpView(m.keys.FullHelp()) + "\n\n" +
		DimStyle.Render("History entries are read-only. Press ? or Esc to close")
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, HelpStyle.Render(content))
}
