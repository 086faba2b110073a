package core

import (
	"context"

	"github.com/markdave123-py/ExamPrep/internal/models"
)

// DbClient defines all persistence operations the services need.
// It abstracts Postgres so higher layers never depend on a specific DB.
type DbClient interface {
	CreateUser(ctx context.Context, user *models.User) (err error)
	GetUserByEmail(ctx context.Context, email string) (user *models.User, err error)

	CreateExam(ctx context.Context, exam *models.Exam) error
	GetExamByID(ctx context.Context, id string) (*models.Exam, error)
	ListExamsByUser(ctx context.Context, userID string) ([]models.Exam, error)
	UpdateExamStatus(ctx context.Context, id string, status string) error
	MarkExamFailed(ctx context.Context, id string, message string) error

	UpsertAnalysisResult(ctx context.Context, res *models.AnalysisResult) error
	GetAnalysisByExam(ctx context.Context, examID string) (*models.AnalysisResult, error)
	ListAnalyses(ctx context.Context, examIDs []string) ([]models.AnalysisResult, error)

	UpsertTopicGuide(ctx context.Context, guide *models.TopicGuide) error
	GetTopicGuide(ctx context.Context, topic string) (*models.TopicGuide, error)

	CreatePracticeSession(ctx context.Context, session *models.PracticeSession) error
	GetPracticeSession(ctx context.Context, id string) (*models.PracticeSession, error)
	UpdatePracticeHistory(ctx context.Context, id string, history []models.ChatTurn) error

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
// It’s abstract so you can replace AWS with MinIO, GCP, etc. easily.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)
}

// TextExtractor converts a stored exam file into plain text. Extraction
// failures are swallowed: any internal error yields an empty string.
type TextExtractor interface {
	ExtractFile(path string) string
}

// LLMProvider is the text-generation capability. jsonOutput asks the model to
// bias its reply toward machine-parseable JSON; it is a hint, not a guarantee.
type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, jsonOutput bool) (string, error)
	Chat(ctx context.Context, systemPrompt string, history []models.ChatTurn, message string) (string, error)
}
