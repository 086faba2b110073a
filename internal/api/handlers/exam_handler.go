package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/markdave123-py/ExamPrep/internal/config"
	"github.com/markdave123-py/ExamPrep/internal/core"
	"github.com/markdave123-py/ExamPrep/internal/core/analysis_engine"
	"github.com/markdave123-py/ExamPrep/internal/models"
)

type ExamHandler struct {
	dbclient     core.DbClient
	objectclient core.ObjectClient
	analyzer     analysis_engine.Analyzer
	cfg          *config.Config
}

func NewExamHandler(dbclient core.DbClient, objectclient core.ObjectClient, analyzer analysis_engine.Analyzer, cfg *config.Config) *ExamHandler {
	return &ExamHandler{dbclient: dbclient, objectclient: objectclient, analyzer: analyzer, cfg: cfg}
}

// UploadExam handles file upload, DB insert, and background analysis. The
// request returns as soon as the exam is durably recorded as accepted; the
// pipeline runs in the background.
func (h *ExamHandler) UploadExam(w http.ResponseWriter, r *http.Request) {

	r.ParseMultipartForm(52 << 20) // 52 MB

	userID, ok := r.Context().Value("user_id").(string)
	if !ok {
		http.Error(w, "user_id not found in context", http.StatusUnauthorized)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "invalid file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "could not read file", http.StatusBadRequest)
		return
	}

	// Sanitize filename to prevent path traversal or invalid characters
	cleanFilename := filepath.Base(header.Filename)
	examID := uuid.NewString()

	// The pipeline reads the local temp copy; it is deleted once the exam
	// reaches a terminal status.
	if err := os.MkdirAll(h.cfg.UploadDir, 0o755); err != nil {
		http.Error(w, fmt.Sprintf("upload dir: %v", err), http.StatusInternalServerError)
		return
	}
	tempPath := filepath.Join(h.cfg.UploadDir, fmt.Sprintf("%s_%s", examID, cleanFilename))
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		http.Error(w, fmt.Sprintf("save file: %v", err), http.StatusInternalServerError)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	uploadctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	s3Key := fmt.Sprintf("%s/%s/%s", userID, examID, cleanFilename)
	url, err := h.objectclient.UploadFile(uploadctx, h.cfg.BucketName, s3Key, data, contentType)
	if err != nil {
		_ = os.Remove(tempPath)
		http.Error(w, fmt.Sprintf("upload failed: %v", err), http.StatusInternalServerError)
		return
	}

	exam := &models.Exam{
		ID:          examID,
		UserID:      userID,
		FileName:    header.Filename,
		StoragePath: tempPath,
		StorageURL:  url,
		Status:      models.StatusUploading,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := h.dbclient.CreateExam(uploadctx, exam); err != nil {
		log.Printf("DB insert failed for exam %s: %v", examID, err)
		_ = os.Remove(tempPath)
		http.Error(w, fmt.Sprintf("failed to store exam metadata: %v", err), http.StatusInternalServerError)
		return
	}

	h.analyzer.Enqueue(exam.ID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(exam)
}

func (h *ExamHandler) GetExams(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("user_id").(string)
	if !ok {
		http.Error(w, "user_id not found in context", http.StatusUnauthorized)
		return
	}

	exams, err := h.dbclient.ListExamsByUser(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(exams)
}

// GetExam reports status (and the stored error message for failed jobs).
func (h *ExamHandler) GetExam(w http.ResponseWriter, r *http.Request) {
	exam, ok := h.ownedExam(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(exam)
}

// GetPlan returns the analysis payload and study plan for a completed exam.
func (h *ExamHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	exam, ok := h.ownedExam(w, r)
	if !ok {
		return
	}

	analysis, err := h.dbclient.GetAnalysisByExam(r.Context(), exam.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if analysis == nil {
		http.Error(w, "plan not ready", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(analysis)
}

// ownedExam loads the path exam and enforces ownership. Writes the error
// response itself when the exam is unavailable.
func (h *ExamHandler) ownedExam(w http.ResponseWriter, r *http.Request) (*models.Exam, bool) {
	userID, ok := r.Context().Value("user_id").(string)
	if !ok {
		http.Error(w, "user_id not found in context", http.StatusUnauthorized)
		return nil, false
	}

	exam, err := h.dbclient.GetExamByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	if exam == nil || exam.UserID != userID {
		http.Error(w, "exam not found", http.StatusNotFound)
		return nil, false
	}
	return exam, true
}
