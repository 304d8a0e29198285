package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/tsunayoshi21/Labeling-app/internal/model"
	"github.com/tsunayoshi21/Labeling-app/internal/store"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
	maxTextLength    = 2000
)

type TaskHandler struct {
	annotations *store.AnnotationStore
	logger      *slog.Logger
}

func NewTaskHandler(annotations *store.AnnotationStore, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{annotations: annotations, logger: logger}
}

// Next handles GET /task/next. 204 means the queue is empty.
func (h *TaskHandler) Next(w http.ResponseWriter, r *http.Request) {
	task, err := h.annotations.NextPending(currentUser(r).ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if task == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// History handles GET /task/history
func (h *TaskHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := limitParam(r, defaultListLimit, maxListLimit)
	tasks, err := h.annotations.History(currentUser(r).ID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": tasks})
}

// PendingPreview handles GET /task/pending-preview
func (h *TaskHandler) PendingPreview(w http.ResponseWriter, r *http.Request) {
	limit := limitParam(r, defaultListLimit, maxListLimit)
	tasks, err := h.annotations.PendingPreview(currentUser(r).ID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pending": tasks})
}

// Load handles GET /task/load/{id} and GET /annotations/{id}
func (h *TaskHandler) Load(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.annotations.Get(id, currentUser(r).ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if task == nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

type updateRequest struct {
	Status        model.Status `json:"status"`
	CorrectedText *string      `json:"corrected_text"`
}

func (req updateRequest) validate() error {
	if req.Status == "" {
		return fmt.Errorf("status is required")
	}
	if !req.Status.Valid() {
		return fmt.Errorf("Invalid status. Must be one of: pending, corrected, approved, discarded")
	}
	if req.CorrectedText != nil && utf8.RuneCountInString(*req.CorrectedText) > maxTextLength {
		return fmt.Errorf("corrected_text exceeds %d characters", maxTextLength)
	}
	if req.Status == model.StatusCorrected && (req.CorrectedText == nil || strings.TrimSpace(*req.CorrectedText) == "") {
		return fmt.Errorf("corrected_text is required for corrections")
	}
	return nil
}

// Update handles PUT /annotations/{id} and answers with the updated task
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req updateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user := currentUser(r)
	ok, err := h.annotations.Update(id, user.ID, req.Status, req.CorrectedText)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update annotation")
		h.logger.Error("update annotation", "annotation_id", id, "error", err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Annotation not found or not authorized")
		return
	}
	h.logger.Info("annotation updated", "annotation_id", id, "user", user.Username, "status", req.Status)

	task, err := h.annotations.Get(id, user.ID)
	if err != nil || task == nil {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Annotation " + string(req.Status)})
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Stats handles GET /stats
func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.annotations.Stats(currentUser(r).ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
