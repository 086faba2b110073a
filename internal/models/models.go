package models

import (
	"time"
)

// Exam processing statuses. Status only ever moves forward:
// uploading -> processing -> completed | failed.
const (
	StatusUploading  = "uploading"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Chat roles used in practice session history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// User represents an authenticated user of the system.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Exam represents one uploaded exam paper.
type Exam struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	FileName     string    `db:"file_name" json:"file_name"`
	StoragePath  string    `db:"storage_path" json:"storage_path"` // local temp copy read by the pipeline
	StorageURL   string    `db:"storage_url" json:"storage_url"`   // S3 archive of the original upload
	Status       string    `db:"status" json:"status"`             // uploading | processing | completed | failed
	ErrorMessage string    `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// AnalysisResult holds the AI analysis for one exam. The payload is stored
// verbatim as returned by the model, so fields we do not know about survive.
// At most one row exists per exam id.
type AnalysisResult struct {
	ID        string         `db:"id" json:"id"`
	ExamID    string         `db:"exam_id" json:"exam_id"`
	Payload   map[string]any `db:"payload" json:"payload"`
	StudyPlan string         `db:"study_plan" json:"study_plan"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// QuestionRecord is the typed, read-side view of one question inside an
// analysis payload. Every field defaults to its zero value when the model
// omitted or mistyped it.
type QuestionRecord struct {
	Number      string `json:"number"`
	Text        string `json:"text"`
	Type        string `json:"type"`
	Topic       string `json:"topic"`
	Difficulty  int    `json:"difficulty"`
	Solution    string `json:"solution"`
	Explanation string `json:"explanation"`
}

// TopicGuide is a synthesized study guide for one topic, built from the
// question records of previously analyzed exams. At most one row per topic.
type TopicGuide struct {
	ID             string    `db:"id" json:"id"`
	Topic          string    `db:"topic" json:"topic"`
	Subject        string    `db:"subject" json:"subject"`
	Summary        string    `db:"summary" json:"summary"`
	KeyConcepts    []string  `db:"key_concepts" json:"key_concepts"`
	WorkedExamples []string  `db:"worked_examples" json:"worked_examples"`
	SourceExamIDs  []string  `db:"source_exam_ids" json:"source_exam_ids"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ChatTurn is one message in a practice session dialogue.
type ChatTurn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// PracticeSession is an oral-exam simulation over previously analyzed
// questions for a topic.
type PracticeSession struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	Topic     string     `db:"topic" json:"topic"`
	History   []ChatTurn `db:"history" json:"history"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// QuestionsFromPayload extracts the "questions" list from an analysis payload.
// The payload comes from a best-effort model reply, so every field is read
// defensively; anything that is not the expected shape is skipped or zeroed.
func QuestionsFromPayload(payload map[string]any) []QuestionRecord {
	raw, ok := payload["questions"].([]any)
	if !ok {
		return nil
	}
	out := make([]QuestionRecord, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, QuestionRecord{
			Number:      stringField(m, "number"),
			Text:        stringField(m, "text"),
			Type:        stringField(m, "type"),
			Topic:       stringField(m, "topic"),
			Difficulty:  intField(m, "difficulty"),
			Solution:    stringField(m, "solution"),
			Explanation: stringField(m, "explanation"),
		})
	}
	return out
}

func stringField(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func intField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}
