package session

import (
	"context"
	"errors"

	"github.com/tsunayoshi21/Labeling-app/internal/model"
)

// Bootstrap loads the initial view: current task, stats, history, pending
func (s *Session) Bootstrap(ctx context.Context) error {
	return s.Refresh(ctx)
}

// Refresh re-synchronises the whole view with the server
func (s *Session) Refresh(ctx context.Context) error {
	gen, err := s.begin()
	if err != nil {
		return s.reject("refresh", err)
	}
	defer s.end(gen)

	s.setBusy(true)
	defer s.setBusy(false)

	return s.refreshAll(ctx, gen)
}

// refreshAll runs the four fetches strictly in order. Every step runs even
// when an earlier one failed; each failure except stats is reported once.
func (s *Session) refreshAll(ctx context.Context, gen uint64) error {
	var errs []error

	if err := s.loadCurrent(ctx, gen); err != nil {
		errs = append(errs, s.reject("load task", err))
	}

	s.loadStats(ctx, gen)

	if err := s.loadHistory(ctx, gen); err != nil {
		errs = append(errs, s.reject("load history", err))
	}

	if err := s.loadPending(ctx, gen); err != nil {
		errs = append(errs, s.reject("load pending tasks", err))
	}

	return errors.Join(errs...)
}

// loadCurrent fetches the live current task and makes it current.
// A nil task from the server means the annotator is done.
func (s *Session) loadCurrent(ctx context.Context, gen uint64) error {
	cctx, cancel := s.withTimeout(ctx)
	task, err := s.api.NextTask(cctx)
	cancel()
	if err != nil {
		return err
	}

	var editDropped bool
	var nav model.NavState
	if !s.apply(gen, func(st *State) {
		editDropped = st.setCurrent(task)
		nav = st.navState()
	}) {
		return nil
	}

	if editDropped {
		s.hooks.EditModeExited()
	}
	s.hooks.TaskChanged(task.Clone(), false)
	s.publishNav(nav)
	if task == nil {
		s.logger.Info("no pending tasks left")
		s.completed()
	}
	return nil
}

// loadStats is best-effort: failures are logged and never reach the user
func (s *Session) loadStats(ctx context.Context, gen uint64) {
	cctx, cancel := s.withTimeout(ctx)
	stats, err := s.api.Stats(cctx)
	cancel()
	if err != nil {
		s.logger.Warn("stats refresh failed", "error", err)
		return
	}
	if stats == nil {
		return
	}

	if s.apply(gen, func(st *State) {
		c := *stats
		st.Stats = &c
	}) {
		s.hooks.StatsChanged(*stats)
	}
}

func (s *Session) loadHistory(ctx context.Context, gen uint64) error {
	cctx, cancel := s.withTimeout(ctx)
	history, err := s.api.History(cctx, s.opts.HistoryLimit)
	cancel()
	if err != nil {
		return err
	}

	var list []model.Task
	var nav model.NavState
	if s.apply(gen, func(st *State) {
		st.setHistory(history, s.opts.HistoryLimit)
		list = model.CloneTasks(st.History)
		nav = st.navState()
	}) {
		s.hooks.HistoryChanged(list)
		s.publishNav(nav)
	}
	return nil
}

func (s *Session) loadPending(ctx context.Context, gen uint64) error {
	cctx, cancel := s.withTimeout(ctx)
	pending, err := s.api.PendingPreview(cctx, s.opts.PendingLimit)
	cancel()
	if err != nil {
		return err
	}

	var list []model.Task
	var currentID int64
	if s.apply(gen, func(st *State) {
		st.setPending(pending, s.opts.PendingLimit)
		list = model.CloneTasks(st.Pending)
		currentID = st.currentID()
	}) {
		s.hooks.PendingChanged(list, currentID)
	}
	return nil
}
