package api

import (
	"net/http"

	"github.com/tsunayoshi21/Labeling-app/internal/store"
)

type HealthHandler struct {
	db *store.DB
}

func NewHealthHandler(db *store.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

type healthResponse struct {
	Status      string `json:"status"`
	Annotations int    `json:"annotations"`
	Message     string `json:"message,omitempty"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	count, err := h.db.AnnotationCount()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Annotations: count})
}
