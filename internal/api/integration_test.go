package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/tsunayoshi21/Labeling-app/internal/auth"
	"github.com/tsunayoshi21/Labeling-app/internal/model"
	"github.com/tsunayoshi21/Labeling-app/internal/session"
	"github.com/tsunayoshi21/Labeling-app/internal/taskapi"
)

// captureHooks keeps the last value of every hook
type captureHooks struct {
	session.NopHooks
	task      *model.Task
	isHistory bool
	stats     model.Stats
	history   []model.Task
	pending   []model.Task
	errs      []error
	completed bool
}

func (h *captureHooks) TaskChanged(task *model.Task, isHistory bool) {
	h.task, h.isHistory = task, isHistory
}
func (h *captureHooks) StatsChanged(stats model.Stats) { h.stats = stats }
func (h *captureHooks) HistoryChanged(history []model.Task) { h.history = history }
func (h *captureHooks) PendingChanged(pending []model.Task, _ int64) { h.pending = pending }
func (h *captureHooks) Error(err error) { h.errs = append(h.errs, err) }
func (h *captureHooks) Completed() { h.completed = true }

func TestSessionAgainstServer(t *testing.T) {
	ts := setupServer(t)
	ctx := context.Background()

	tokens := auth.NewMemoryStore()
	client := taskapi.NewClient(ts.URL, tokens)
	if _, err := client.Login(ctx, "alice", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	hooks := &captureHooks{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := session.New(client, hooks, session.Options{Logger: logger})
	defer s.Close()

	if err := s.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if hooks.task == nil || hooks.task.ImagePath != "img/001.png" {
		t.Fatalf("first task = %+v", hooks.task)
	}
	if hooks.stats.Total != 3 || hooks.stats.Pending != 3 || len(hooks.pending) != 3 || len(hooks.history) != 0 {
		t.Fatalf("bootstrap view: stats=%+v pending=%d history=%d", hooks.stats, len(hooks.pending), len(hooks.history))
	}
	first := hooks.task.AnnotationID

	if err := s.Approve(ctx); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if hooks.task.AnnotationID == first || hooks.task.ImagePath != "img/002.png" {
		t.Errorf("after approve task = %+v", hooks.task)
	}
	if len(hooks.history) != 1 || hooks.stats.Approved != 1 {
		t.Errorf("after approve history=%d stats=%+v", len(hooks.history), hooks.stats)
	}

	// history is read-only
	if err := s.GoPrev(); err != nil {
		t.Fatalf("GoPrev: %v", err)
	}
	if !hooks.isHistory || hooks.task.AnnotationID != first {
		t.Errorf("history view = %+v", hooks.task)
	}
	if err := s.Discard(ctx); !errors.Is(err, session.ErrHistoryReadOnly) {
		t.Errorf("Discard in history = %v", err)
	}
	if err := s.GoNext(ctx); err != nil {
		t.Fatalf("GoNext: %v", err)
	}

	// an expired access token is refreshed transparently
	if err := tokens.SetTokens("expired", ""); err != nil {
		t.Fatalf("SetTokens: %v", err)
	}

	if err := s.StartEdit(); err != nil {
		t.Fatalf("StartEdit: %v", err)
	}
	if err := s.SaveEdit(ctx, "FOO BAR"); err != nil {
		t.Fatalf("SaveEdit: %v", err)
	}
	if tokens.AccessToken() == "expired" {
		t.Error("access token was not refreshed")
	}
	if hooks.history[0].CorrectedText == nil || *hooks.history[0].CorrectedText != "FOO BAR" {
		t.Errorf("latest history = %+v", hooks.history[0])
	}

	// jump ahead through the pending list then finish the queue
	if err := s.JumpToPending(ctx, hooks.pending[0].AnnotationID); err != nil {
		t.Fatalf("JumpToPending: %v", err)
	}
	if err := s.Discard(ctx); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if !hooks.completed || hooks.task != nil {
		t.Errorf("expected completed state, task = %+v", hooks.task)
	}
	if err := s.Approve(ctx); !errors.Is(err, session.ErrNoCurrentTask) {
		t.Errorf("Approve when done = %v", err)
	}
	if hooks.stats != (model.Stats{Total: 3, Approved: 1, Corrected: 1, Discarded: 1}) {
		t.Errorf("final stats = %+v", hooks.stats)
	}
	// two guard errors: history discard and the final approve
	if len(hooks.errs) != 2 {
		t.Errorf("errors = %v", hooks.errs)
	}
}
