package session

import (
	"context"

	"github.com/tsunayoshi21/Labeling-app/internal/model"
)

// Approve accepts the OCR text of the current task
func (s *Session) Approve(ctx context.Context) error {
	return s.submit(ctx, "approve", model.Approve(), "✓ Image approved")
}

// Discard marks the current task as unusable
func (s *Session) Discard(ctx context.Context) error {
	return s.submit(ctx, "discard", model.Discard(), "Image discarded")
}

// SaveEdit submits text as the correction for the current task and leaves
// edit mode once the server accepts it.
func (s *Session) SaveEdit(ctx context.Context, text string) error {
	return s.submit(ctx, "save correction", model.Correct(text), "✓ Correction saved")
}

// StartEdit enters edit mode for the current task. The editor is seeded with
// the corrected text when there is one, the OCR text otherwise.
func (s *Session) StartEdit() error {
	gen, err := s.begin()
	if err != nil {
		return s.reject("edit", err)
	}
	defer s.end(gen)

	var (
		guard   error
		entered bool
		seed    string
	)
	s.apply(gen, func(st *State) {
		switch {
		case st.HistoryIndex != -1:
			guard = ErrHistoryReadOnly
		case st.Current == nil:
			guard = ErrNoCurrentTask
		case st.EditMode:
		default:
			st.EditMode = true
			seed = st.Current.EditableText()
			entered = true
		}
	})
	if guard != nil {
		return s.reject("edit", guard)
	}
	if entered {
		s.hooks.EditModeEntered(seed)
	}
	return nil
}

// CancelEdit leaves edit mode and throws the draft away
func (s *Session) CancelEdit() error {
	gen, err := s.begin()
	if err != nil {
		return s.reject("cancel edit", err)
	}
	defer s.end(gen)

	var exited bool
	s.apply(gen, func(st *State) {
		if st.EditMode {
			st.EditMode = false
			exited = true
		}
	})
	if exited {
		s.hooks.EditModeExited()
	}
	return nil
}

// submit runs one terminal action against the current task. The change is
// shown optimistically, rolled back if the server refuses it, and followed by
// a full refresh when it succeeds.
func (s *Session) submit(ctx context.Context, op string, action model.Action, done string) error {
	gen, err := s.begin()
	if err != nil {
		return s.reject(op, err)
	}
	defer s.end(gen)

	var (
		guard  error
		before *model.Task
		after  *model.Task
	)
	s.apply(gen, func(st *State) {
		switch {
		case st.HistoryIndex != -1:
			guard = ErrHistoryReadOnly
			return
		case st.Current == nil:
			guard = ErrNoCurrentTask
			return
		}
		if err := action.Validate(); err != nil {
			guard = err
			return
		}
		before = st.Current.Clone()
		st.Current = action.Apply(st.Current)
		after = st.Current.Clone()
	})
	if guard != nil {
		return s.reject(op, guard)
	}

	s.setBusy(true)
	defer s.setBusy(false)
	s.hooks.TaskChanged(after, false)

	s.logger.Debug("submitting action", "op", op, "annotation_id", before.AnnotationID, "status", action.Status)
	cctx, cancel := s.withTimeout(ctx)
	_, err = s.api.SubmitAction(cctx, before.AnnotationID, action)
	cancel()
	if err != nil {
		reverted := s.apply(gen, func(st *State) {
			if st.Current != nil && st.Current.AnnotationID == before.AnnotationID {
				st.Current = before.Clone()
			}
		})
		if reverted {
			s.hooks.TaskChanged(before, false)
		}
		return s.reject(op, err)
	}

	var exited bool
	s.apply(gen, func(st *State) {
		if action.Status == model.StatusCorrected && st.EditMode {
			st.EditMode = false
			exited = true
		}
	})
	if exited {
		s.hooks.EditModeExited()
	}
	s.notice(done)
	s.logger.Info("action submitted", "op", op, "annotation_id", before.AnnotationID)

	return s.refreshAll(ctx, gen)
}
