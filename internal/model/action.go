package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyText is returned when a correction carries no text
var ErrEmptyText = errors.New("empty text")

// Action is an annotator decision submitted for one task
type Action struct {
	Status        Status  `json:"status"`
	CorrectedText *string `json:"corrected_text,omitempty"`
}

// Approve accepts the OCR text as is
func Approve() Action {
	return Action{Status: StatusApproved}
}

// Discard marks the image as unusable
func Discard() Action {
	return Action{Status: StatusDiscarded}
}

// Correct replaces the OCR text with text
func Correct(text string) Action {
	return Action{Status: StatusCorrected, CorrectedText: &text}
}

// Validate checks the action can be submitted
func (a Action) Validate() error {
	if !a.Status.Terminal() {
		return fmt.Errorf("invalid action status %q", a.Status)
	}
	if a.Status == StatusCorrected {
		if a.CorrectedText == nil || strings.TrimSpace(*a.CorrectedText) == "" {
			return ErrEmptyText
		}
	}
	return nil
}

// Apply returns a copy of t as it looks once the action is accepted
func (a Action) Apply(t *Task) *Task {
	out := t.Clone()
	if out == nil {
		return nil
	}
	out.Status = a.Status
	if a.CorrectedText != nil {
		out.CorrectedText = StringPtr(*a.CorrectedText)
	}
	return out
}
