package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/markdave123-py/ExamPrep/internal/config"
	"github.com/markdave123-py/ExamPrep/internal/core"
	"github.com/markdave123-py/ExamPrep/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (core.DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Implementing the db interface for users

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`
	_, err := c.db.ExecContext(ctx, q, user.ID, user.Email, user.PasswordHash, user.CreatedAt)
	return err
}

func (c *DatabaseClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `
		SELECT id, email, password_hash, created_at
		FROM users WHERE email = $1
	`
	var u models.User
	err := c.db.QueryRowContext(ctx, q, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Implementing the db interface for exams

func (c *DatabaseClient) CreateExam(ctx context.Context, exam *models.Exam) error {
	if exam == nil {
		return errors.New("nil exam")
	}
	const q = `
		INSERT INTO exams
			(id, user_id, file_name, storage_path, storage_url, status, error_message, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, COALESCE($8, now()), COALESCE($9, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		exam.ID, exam.UserID, exam.FileName, exam.StoragePath, exam.StorageURL,
		exam.Status, exam.ErrorMessage, exam.CreatedAt, exam.UpdatedAt)
	return err
}

func (c *DatabaseClient) GetExamByID(ctx context.Context, id string) (*models.Exam, error) {
	const q = `
		SELECT id, user_id, file_name, storage_path, storage_url, status, error_message, created_at, updated_at
		FROM exams
		WHERE id = $1
	`
	var e models.Exam
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&e.ID, &e.UserID, &e.FileName, &e.StoragePath, &e.StorageURL,
		&e.Status, &e.ErrorMessage, &e.CreatedAt, &e.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *DatabaseClient) ListExamsByUser(ctx context.Context, userID string) ([]models.Exam, error) {
	const q = `
		SELECT id, user_id, file_name, storage_path, storage_url, status, error_message, created_at, updated_at
		FROM exams
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Exam
	for rows.Next() {
		var e models.Exam
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.FileName, &e.StoragePath, &e.StorageURL,
			&e.Status, &e.ErrorMessage, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpdateExamStatus moves an exam forward. Terminal statuses are never
// overwritten: once completed or failed, the row stays as-is.
func (c *DatabaseClient) UpdateExamStatus(ctx context.Context, id string, status string) error {
	const q = `
		UPDATE exams
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status NOT IN ('completed', 'failed')
	`
	res, err := c.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("exam not found or already terminal: %s", id)
	}
	return nil
}

func (c *DatabaseClient) MarkExamFailed(ctx context.Context, id string, message string) error {
	const q = `
		UPDATE exams
		SET status = 'failed', error_message = $2, updated_at = now()
		WHERE id = $1 AND status NOT IN ('completed', 'failed')
	`
	res, err := c.db.ExecContext(ctx, q, id, message)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("exam not found or already terminal: %s", id)
	}
	return nil
}

// Implementing the db interface for analysis results

// UpsertAnalysisResult writes the analysis for an exam, keyed by exam_id.
// The ON CONFLICT clause makes concurrent writers converge on a single row.
func (c *DatabaseClient) UpsertAnalysisResult(ctx context.Context, res *models.AnalysisResult) error {
	if res == nil {
		return errors.New("nil analysis result")
	}
	payload, err := json.Marshal(res.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	const q = `
		INSERT INTO analysis_results (id, exam_id, payload, study_plan, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (exam_id) DO UPDATE
		SET payload = EXCLUDED.payload, study_plan = EXCLUDED.study_plan, updated_at = now()
	`
	_, err = c.db.ExecContext(ctx, q, res.ID, res.ExamID, payload, res.StudyPlan)
	return err
}

func (c *DatabaseClient) GetAnalysisByExam(ctx context.Context, examID string) (*models.AnalysisResult, error) {
	const q = `
		SELECT id, exam_id, payload, study_plan, created_at, updated_at
		FROM analysis_results
		WHERE exam_id = $1
	`
	var (
		res     models.AnalysisResult
		payload []byte
	)
	err := c.db.QueryRowContext(ctx, q, examID).Scan(
		&res.ID, &res.ExamID, &payload, &res.StudyPlan, &res.CreatedAt, &res.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &res.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload for exam %s: %w", examID, err)
	}
	return &res, nil
}

func (c *DatabaseClient) ListAnalyses(ctx context.Context, examIDs []string) ([]models.AnalysisResult, error) {
	q := `
		SELECT id, exam_id, payload, study_plan, created_at, updated_at
		FROM analysis_results
	`
	var args []any
	if len(examIDs) > 0 {
		placeholders := make([]string, len(examIDs))
		for i, id := range examIDs {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args = append(args, id)
		}
		q += " WHERE exam_id IN (" + strings.Join(placeholders, ", ") + ")"
	}
	q += " ORDER BY created_at ASC"

	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AnalysisResult
	for rows.Next() {
		var (
			res     models.AnalysisResult
			payload []byte
		)
		if err := rows.Scan(&res.ID, &res.ExamID, &payload, &res.StudyPlan, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &res.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload for exam %s: %w", res.ExamID, err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// Implementing the db interface for topic guides

func (c *DatabaseClient) UpsertTopicGuide(ctx context.Context, guide *models.TopicGuide) error {
	if guide == nil {
		return errors.New("nil topic guide")
	}
	concepts, err := json.Marshal(guide.KeyConcepts)
	if err != nil {
		return fmt.Errorf("marshal key concepts: %w", err)
	}
	examples, err := json.Marshal(guide.WorkedExamples)
	if err != nil {
		return fmt.Errorf("marshal worked examples: %w", err)
	}
	sources, err := json.Marshal(guide.SourceExamIDs)
	if err != nil {
		return fmt.Errorf("marshal source exam ids: %w", err)
	}
	const q = `
		INSERT INTO topic_guides
			(id, topic, subject, summary, key_concepts, worked_examples, source_exam_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (topic) DO UPDATE
		SET subject = EXCLUDED.subject,
		    summary = EXCLUDED.summary,
		    key_concepts = EXCLUDED.key_concepts,
		    worked_examples = EXCLUDED.worked_examples,
		    source_exam_ids = EXCLUDED.source_exam_ids,
		    updated_at = now()
	`
	_, err = c.db.ExecContext(ctx, q,
		guide.ID, guide.Topic, guide.Subject, guide.Summary, concepts, examples, sources)
	return err
}

func (c *DatabaseClient) GetTopicGuide(ctx context.Context, topic string) (*models.TopicGuide, error) {
	const q = `
		SELECT id, topic, subject, summary, key_concepts, worked_examples, source_exam_ids, created_at, updated_at
		FROM topic_guides
		WHERE topic = $1
	`
	var (
		g         models.TopicGuide
		concepts  []byte
		examples  []byte
		sources   []byte
	)
	err := c.db.QueryRowContext(ctx, q, topic).Scan(
		&g.ID, &g.Topic, &g.Subject, &g.Summary, &concepts, &examples, &sources, &g.CreatedAt, &g.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(concepts, &g.KeyConcepts); err != nil {
		return nil, fmt.Errorf("unmarshal key concepts: %w", err)
	}
	if err := json.Unmarshal(examples, &g.WorkedExamples); err != nil {
		return nil, fmt.Errorf("unmarshal worked examples: %w", err)
	}
	if err := json.Unmarshal(sources, &g.SourceExamIDs); err != nil {
		return nil, fmt.Errorf("unmarshal source exam ids: %w", err)
	}
	return &g, nil
}

// Implementing the db interface for practice sessions

func (c *DatabaseClient) CreatePracticeSession(ctx context.Context, session *models.PracticeSession) error {
	if session == nil {
		return errors.New("nil practice session")
	}
	history, err := json.Marshal(session.History)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	const q = `
		INSERT INTO practice_sessions (id, user_id, topic, history, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
	`
	_, err = c.db.ExecContext(ctx, q, session.ID, session.UserID, session.Topic, history)
	return err
}

func (c *DatabaseClient) GetPracticeSession(ctx context.Context, id string) (*models.PracticeSession, error) {
	const q = `
		SELECT id, user_id, topic, history, created_at, updated_at
		FROM practice_sessions
		WHERE id = $1
	`
	var (
		s       models.PracticeSession
		history []byte
	)
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.UserID, &s.Topic, &history, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(history, &s.History); err != nil {
		return nil, fmt.Errorf("unmarshal history for session %s: %w", id, err)
	}
	return &s, nil
}

func (c *DatabaseClient) UpdatePracticeHistory(ctx context.Context, id string, turns []models.ChatTurn) error {
	history, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	const q = `
		UPDATE practice_sessions
		SET history = $2, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, history)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("practice session not found: %s", id)
	}
	return nil
}
