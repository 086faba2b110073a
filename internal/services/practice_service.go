package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/markdave123-py/ExamPrep/internal/core"
	"github.com/markdave123-py/ExamPrep/internal/models"
)

// ErrSessionNotFound covers both a missing session id and a session owned by
// another user.
var ErrSessionNotFound = errors.New("practice session not found")

const practiceSystemPrompt = `You are a strict but fair oral examiner running a mock exam.
Ask one question at a time, drawn from the supplied exam material.
After each student answer: briefly judge it, give the correct answer if the student was wrong, then ask the next question.
Keep replies short and conversational; this is a spoken exam, not an essay.`

// PracticeService runs oral-exam simulation sessions over previously
// analyzed questions.
type PracticeService struct {
	db  core.DbClient
	llm core.LLMProvider
}

func NewPracticeService(db core.DbClient, provider core.LLMProvider) *PracticeService {
	return &PracticeService{db: db, llm: provider}
}

// StartSession opens a new oral session for a topic. The examiner's opening
// question is synthesized from the same matched evidence set a study guide
// would use, with the same cap.
func (s *PracticeService) StartSession(ctx context.Context, userID, topic string, examIDs []string) (*models.PracticeSession, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("topic is empty")
	}

	analyses, err := s.db.ListAnalyses(ctx, examIDs)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	if len(analyses) == 0 {
		return nil, ErrNoAnalyses
	}

	matched, _ := matchTopicRecords(analyses, topic)
	if len(matched) == 0 {
		return nil, ErrTopicNotFound
	}
	if len(matched) > maxGuideEvidence {
		matched = matched[:maxGuideEvidence]
	}

	opener, err := s.llm.Generate(ctx, practiceSystemPrompt, buildOpenerPrompt(topic, matched), false)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(opener) == "" {
		opener = fmt.Sprintf("Let's begin the oral exam on %s. Tell me what you know about it.", topic)
	}

	session := &models.PracticeSession{
		ID:     uuid.NewString(),
		UserID: userID,
		Topic:  topic,
		History: []models.ChatTurn{
			{Role: models.RoleAssistant, Content: opener},
		},
	}
	if err := s.db.CreatePracticeSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create practice session: %w", err)
	}
	return session, nil
}

// Respond records the student's answer, gets the examiner's reply and
// persists the extended history.
func (s *PracticeService) Respond(ctx context.Context, sessionID, userID, answer string) (*models.PracticeSession, error) {
	session, err := s.db.GetPracticeSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.UserID != userID {
		return nil, ErrSessionNotFound
	}

	reply, err := s.llm.Chat(ctx, practiceSystemPrompt, session.History, answer)
	if err != nil {
		return nil, err
	}

	session.History = append(session.History,
		models.ChatTurn{Role: models.RoleUser, Content: answer},
		models.ChatTurn{Role: models.RoleAssistant, Content: reply},
	)
	if err := s.db.UpdatePracticeHistory(ctx, session.ID, session.History); err != nil {
		return nil, fmt.Errorf("update history: %w", err)
	}
	return session, nil
}

// GetSession returns one of the caller's sessions.
func (s *PracticeService) GetSession(ctx context.Context, sessionID, userID string) (*models.PracticeSession, error) {
	session, err := s.db.GetPracticeSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func buildOpenerPrompt(topic string, evidence []models.QuestionRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The oral exam covers: %s\n\nExam material to draw questions from:\n\n", topic)
	for i, q := range evidence {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q.Text)
		if q.Solution != "" {
			fmt.Fprintf(&b, "   (expected answer: %s)\n", q.Solution)
		}
	}
	b.WriteString("\nGreet the student in one sentence and ask your first question.")
	return b.String()
}
