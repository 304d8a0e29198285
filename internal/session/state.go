package session

import "github.com/tsunayoshi21/Labeling-app/internal/model"

// State is what the annotator currently sees and where the cursor sits in
// history. It is owned by a Session and only mutated through it.
type State struct {
	Current      *model.Task
	History      []model.Task // most recent first
	Pending      []model.Task // server order
	HistoryIndex int          // -1 is the current task, 0 the most recent history entry
	EditMode     bool
	Completed    bool
	Stats        *model.Stats
}

func newState() State {
	return State{HistoryIndex: -1}
}

// setCurrent replaces the current task and returns to it. It reports whether
// an active edit was dropped because the task changed.
func (s *State) setCurrent(task *model.Task) (editDropped bool) {
	if s.EditMode && (task == nil || s.Current == nil || task.AnnotationID != s.Current.AnnotationID) {
		s.EditMode = false
		editDropped = true
	}
	s.Current = task.Clone()
	s.Completed = task == nil
	s.HistoryIndex = -1
	return editDropped
}

// setHistory replaces the history list, keeping at most limit entries
func (s *State) setHistory(tasks []model.Task, limit int) {
	s.History = bounded(tasks, limit)
	if s.HistoryIndex >= len(s.History) {
		s.HistoryIndex = len(s.History) - 1
	}
}

// setPending replaces the pending preview, keeping at most limit entries
func (s *State) setPending(tasks []model.Task, limit int) {
	s.Pending = bounded(tasks, limit)
}

// navState computes prev/next availability
func (s *State) navState() model.NavState {
	n := len(s.History)
	return model.NavState{
		HistoryIndex:  s.HistoryIndex,
		HistoryLength: n,
		CanGoPrev:     (s.HistoryIndex == -1 && n > 0) || (s.HistoryIndex >= 0 && s.HistoryIndex < n-1),
		CanGoNext:     s.HistoryIndex >= 0,
	}
}

// displayed returns the task on screen and whether it comes from history
func (s *State) displayed() (*model.Task, bool) {
	if s.HistoryIndex >= 0 && s.HistoryIndex < len(s.History) {
		return s.History[s.HistoryIndex].Clone(), true
	}
	return s.Current.Clone(), false
}

func (s *State) currentID() int64 {
	if s.Current == nil {
		return 0
	}
	return s.Current.AnnotationID
}

// clone returns a copy that shares nothing with s
func (s *State) clone() State {
	c := *s
	c.Current = s.Current.Clone()
	c.History = model.CloneTasks(s.History)
	c.Pending = model.CloneTasks(s.Pending)
	if s.Stats != nil {
		stats := *s.Stats
		c.Stats = &stats
	}
	return c
}

func bounded(tasks []model.Task, limit int) []model.Task {
	if limit > 0 && len(tasks) > limit {
		tasks = tasks[:limit]
	}
	return model.CloneTasks(tasks)
}
