package model

import (
	"time"

	"github.com/agnivade/levenshtein"
)

// Status represents the review status of an annotation
type Status string

const (
	StatusPending   Status = "pending"
	StatusCorrected Status = "corrected"
	StatusApproved  Status = "approved"
	StatusDiscarded Status = "discarded"
)

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCorrected, StatusApproved, StatusDiscarded:
		return true
	}
	return false
}

// Terminal reports whether s is the result of an annotator decision
func (s Status) Terminal() bool {
	return s == StatusCorrected || s == StatusApproved || s == StatusDiscarded
}

// Icon returns the glyph for the status
func (s Status) Icon() string {
	switch s {
	case StatusPending:
		return "○"
	case StatusCorrected:
		return "✎"
	case StatusApproved:
		return "✓"
	case StatusDiscarded:
		return "⊘"
	default:
		return "○"
	}
}

// Task is one image + OCR text unit under review
type Task struct {
	AnnotationID   int64      `json:"annotation_id"`
	ImageID        int64      `json:"image_id"`
	ImagePath      string     `json:"image_path,omitempty"`
	InitialOCRText string     `json:"initial_ocr_text,omitempty"`
	CorrectedText  *string    `json:"corrected_text,omitempty"`
	Status         Status     `json:"status"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// EditableText returns the text an edit session starts from:
// the corrected text when present, otherwise the OCR text.
func (t Task) EditableText() string {
	if t.CorrectedText != nil && *t.CorrectedText != "" {
		return *t.CorrectedText
	}
	return t.InitialOCRText
}

// EditDistance returns the Levenshtein distance between the OCR text and the
// corrected text. Zero when the task carries no correction.
func (t Task) EditDistance() int {
	if t.CorrectedText == nil {
		return 0
	}
	return levenshtein.ComputeDistance(t.InitialOCRText, *t.CorrectedText)
}

// Clone returns a deep copy so callers can mutate it freely
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	if t.CorrectedText != nil {
		text := *t.CorrectedText
		c.CorrectedText = &text
	}
	if t.UpdatedAt != nil {
		ts := *t.UpdatedAt
		c.UpdatedAt = &ts
	}
	return &c
}

// CloneTasks deep-copies a task list
func CloneTasks(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	for i := range tasks {
		out[i] = *tasks[i].Clone()
	}
	return out
}

// StringPtr is a small helper for optional text fields
func StringPtr(s string) *string {
	return &s
}
