package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/markdave123-py/ExamPrep/internal/services"
)

type GuideHandler struct {
	guides *services.GuideService
}

func NewGuideHandler(guides *services.GuideService) *GuideHandler {
	return &GuideHandler{guides: guides}
}

type buildGuideRequest struct {
	Topic   string   `json:"topic"`
	ExamIDs []string `json:"exam_ids,omitempty"`
}

// BuildGuide synthesizes (or refreshes) the study guide for a topic.
func (h *GuideHandler) BuildGuide(w http.ResponseWriter, r *http.Request) {
	var req buildGuideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Topic == "" {
		http.Error(w, "topic is required", http.StatusBadRequest)
		return
	}

	guide, err := h.guides.BuildGuide(r.Context(), req.Topic, req.ExamIDs)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoAnalyses), errors.Is(err, services.ErrTopicNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(guide)
}

// GetGuide returns the stored guide for a topic.
func (h *GuideHandler) GetGuide(w http.ResponseWriter, r *http.Request) {
	topic, err := url.PathUnescape(chi.URLParam(r, "topic"))
	if err != nil || topic == "" {
		http.Error(w, "invalid topic", http.StatusBadRequest)
		return
	}

	guide, err := h.guides.GetGuide(r.Context(), topic)
	if err != nil {
		if errors.Is(err, services.ErrTopicNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(guide)
}
