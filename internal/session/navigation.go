package session

import (
	"context"

	"github.com/tsunayoshi21/Labeling-app/internal/model"
)

// GoPrev moves one step further into history. It is a no-op when no older
// entry exists. Showing a history entry cancels an active edit.
func (s *Session) GoPrev() error {
	gen, err := s.begin()
	if err != nil {
		return s.reject("go back", err)
	}
	defer s.end(gen)

	var (
		moved       bool
		editDropped bool
		task        *model.Task
		nav         model.NavState
	)
	s.apply(gen, func(st *State) {
		if !st.navState().CanGoPrev {
			return
		}
		st.HistoryIndex++
		if st.EditMode {
			st.EditMode = false
			editDropped = true
		}
		task, _ = st.displayed()
		nav = st.navState()
		moved = true
	})
	if !moved {
		return nil
	}

	if editDropped {
		s.hooks.EditModeExited()
	}
	s.hooks.TaskChanged(task, true)
	s.publishNav(nav)
	return nil
}

// GoNext moves one step back towards the present. Leaving the most recent
// history entry re-fetches the live current task, which is never cached.
// At the current task it does nothing.
func (s *Session) GoNext(ctx context.Context) error {
	gen, err := s.begin()
	if err != nil {
		return s.reject("go forward", err)
	}
	defer s.end(gen)

	var (
		index int
		task  *model.Task
		nav   model.NavState
	)
	s.apply(gen, func(st *State) {
		index = st.HistoryIndex
		if index < 0 {
			return
		}
		st.HistoryIndex--
		task, _ = st.displayed()
		nav = st.navState()
	})

	switch {
	case index < 0:
		return nil
	case index > 0:
		s.hooks.TaskChanged(task, true)
		s.publishNav(nav)
		return nil
	}

	s.publishNav(nav)
	s.setBusy(true)
	defer s.setBusy(false)

	if err := s.loadCurrent(ctx, gen); err != nil {
		// keep the last known current task on screen
		var last *model.Task
		if s.apply(gen, func(st *State) { last = st.Current.Clone() }) {
			s.hooks.TaskChanged(last, false)
		}
		return s.reject("load task", err)
	}
	if err := s.loadPending(ctx, gen); err != nil {
		return s.reject("load pending tasks", err)
	}
	return nil
}

// JumpToPending loads a task from the pending preview and makes it current.
// The preview is refreshed afterwards because opening a task can change the
// queue on the server.
func (s *Session) JumpToPending(ctx context.Context, annotationID int64) error {
	gen, err := s.begin()
	if err != nil {
		return s.reject("load task", err)
	}
	defer s.end(gen)

	s.setBusy(true)
	defer s.setBusy(false)

	cctx, cancel := s.withTimeout(ctx)
	task, err := s.api.LoadTask(cctx, annotationID)
	cancel()
	if err != nil {
		return s.reject("load task", err)
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

	if err := s.loadPending(ctx, gen); err != nil {
		return s.reject("load pending tasks", err)
	}
	return nil
}
