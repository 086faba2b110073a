package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/markdave123-py/ExamPrep/internal/services"
)

type PracticeHandler struct {
	practice *services.PracticeService
}

func NewPracticeHandler(practice *services.PracticeService) *PracticeHandler {
	return &PracticeHandler{practice: practice}
}

type startPracticeRequest struct {
	Topic   string   `json:"topic"`
	ExamIDs []string `json:"exam_ids,omitempty"`
}

type practiceAnswerRequest struct {
	Answer string `json:"answer"`
}

// StartSession opens an oral-exam simulation for a topic.
func (h *PracticeHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("user_id").(string)
	if !ok {
		http.Error(w, "user_id not found in context", http.StatusUnauthorized)
		return
	}

	var req startPracticeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Topic == "" {
		http.Error(w, "topic is required", http.StatusBadRequest)
		return
	}

	session, err := h.practice.StartSession(r.Context(), userID, req.Topic, req.ExamIDs)
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
	json.NewEncoder(w).Encode(session)
}

// Answer submits the student's reply and returns the updated dialogue.
func (h *PracticeHandler) Answer(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("user_id").(string)
	if !ok {
		http.Error(w, "user_id not found in context", http.StatusUnauthorized)
		return
	}

	var req practiceAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Answer == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	session, err := h.practice.Respond(r.Context(), chi.URLParam(r, "id"), userID, req.Answer)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session)
}

// GetSession returns the dialogue so far.
func (h *PracticeHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("user_id").(string)
	if !ok {
		http.Error(w, "user_id not found in context", http.StatusUnauthorized)
		return
	}

	session, err := h.practice.GetSession(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session)
}
