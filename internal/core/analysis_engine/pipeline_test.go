package analysis_engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/markdave123-py/ExamPrep/internal/core"
	"github.com/markdave123-py/ExamPrep/internal/core/llm"
	"github.com/markdave123-py/ExamPrep/internal/models"
)

type fakeStore struct {
	core.DbClient

	exam      *models.Exam
	statuses  []string
	failedMsg string
	analysis  *models.AnalysisResult
}

func (f *fakeStore) GetExamByID(ctx context.Context, id string) (*models.Exam, error) {
	if f.exam != nil && f.exam.ID == id {
		return f.exam, nil
	}
	return nil, nil
}

func (f *fakeStore) UpdateExamStatus(ctx context.Context, id string, status string) error {
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeStore) MarkExamFailed(ctx context.Context, id string, message string) error {
	f.statuses = append(f.statuses, models.StatusFailed)
	f.failedMsg = message
	return nil
}

func (f *fakeStore) UpsertAnalysisResult(ctx context.Context, res *models.AnalysisResult) error {
	f.analysis = res
	return nil
}

type fakeExtractor struct{ text string }

func (f *fakeExtractor) ExtractFile(path string) string { return f.text }

type fakeLLM struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeLLM) Generate(ctx context.Context, systemPrompt, userPrompt string, jsonOutput bool) (string, error) {
	f.prompt = userPrompt
	return f.reply, f.err
}

func (f *fakeLLM) Chat(ctx context.Context, systemPrompt string, history []models.ChatTurn, message string) (string, error) {
	return "", nil
}

// newTestExam creates an exam row plus a real temp file so cleanup is observable.
func newTestExam(t *testing.T) *models.Exam {
	t.Helper()
	path := filepath.Join(t.TempDir(), "exam.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
	return &models.Exam{ID: "exam-1", StoragePath: path, Status: models.StatusUploading}
}

func newTestAnalyzer(store *fakeStore, ext core.TextExtractor, provider core.LLMProvider) *ExamAnalyzer {
	return NewExamAnalyzer(store, ext, provider, &AnalyzeConfig{MaxPromptChars: 100000})
}

func TestProcessOne_Success(t *testing.T) {
	exam := newTestExam(t)
	store := &fakeStore{exam: exam}
	model := &fakeLLM{reply: `{
		"exam_title": "Midterm",
		"questions": [
			{"number": "1", "text": "q1", "topic": "Subnetting", "difficulty": 3},
			{"number": "2", "text": "q2", "topic": "Routing", "difficulty": 5},
			{"number": "3", "text": "q3", "topic": "Switching", "difficulty": 7}
		],
		"study_plan": "## Week 1"
	}`}
	a := newTestAnalyzer(store, &fakeExtractor{text: "1. What is a subnet mask used for?"}, model)

	if err := a.ProcessOne(context.Background(), exam.ID); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}

	wantStatuses := []string{models.StatusProcessing, models.StatusCompleted}
	if len(store.statuses) != 2 || store.statuses[0] != wantStatuses[0] || store.statuses[1] != wantStatuses[1] {
		t.Errorf("statuses=%v, want %v", store.statuses, wantStatuses)
	}
	if store.analysis == nil {
		t.Fatal("analysis not persisted")
	}
	if got := len(models.QuestionsFromPayload(store.analysis.Payload)); got != 3 {
		t.Errorf("question count=%d, want 3 (must follow the model reply)", got)
	}
	if store.analysis.StudyPlan != "## Week 1" {
		t.Errorf("study plan=%q", store.analysis.StudyPlan)
	}
	if _, err := os.Stat(exam.StoragePath); !os.IsNotExist(err) {
		t.Error("temp file not removed on success")
	}
}

func TestProcessOne_EmptyExtraction(t *testing.T) {
	exam := newTestExam(t)
	store := &fakeStore{exam: exam}
	a := newTestAnalyzer(store, &fakeExtractor{text: "   \n "}, &fakeLLM{})

	err := a.ProcessOne(context.Background(), exam.ID)
	if !errors.Is(err, ErrNoText) {
		t.Fatalf("err=%v, want ErrNoText", err)
	}
	if len(store.statuses) != 2 || store.statuses[1] != models.StatusFailed {
		t.Errorf("statuses=%v, want processing then failed", store.statuses)
	}
	if store.failedMsg == "" {
		t.Error("failed exam must carry a non-empty error message")
	}
	if store.analysis != nil {
		t.Error("no analysis should be written for a failed job")
	}
	if _, err := os.Stat(exam.StoragePath); !os.IsNotExist(err) {
		t.Error("temp file not removed on failure")
	}
}

func TestProcessOne_OracleFailure(t *testing.T) {
	exam := newTestExam(t)
	store := &fakeStore{exam: exam}
	upstream := &llm.OracleError{Kind: llm.KindRateLimited, Err: errors.New("googleapi: Error 429: quota exceeded")}
	a := newTestAnalyzer(store, &fakeExtractor{text: "1. Explain what routing protocols do."}, &fakeLLM{err: upstream})

	if err := a.ProcessOne(context.Background(), exam.ID); err == nil {
		t.Fatal("expected error")
	}
	if len(store.statuses) != 2 || store.statuses[1] != models.StatusFailed {
		t.Errorf("statuses=%v, want processing then failed", store.statuses)
	}
	if !strings.Contains(store.failedMsg, "too many requests") {
		t.Errorf("rate-limit failure should get the rate-limit message, got %q", store.failedMsg)
	}
	if strings.Contains(store.failedMsg, "429") {
		t.Errorf("raw upstream detail leaked into the stored message: %q", store.failedMsg)
	}
	if _, err := os.Stat(exam.StoragePath); !os.IsNotExist(err) {
		t.Error("temp file not removed after oracle failure")
	}
}

func TestProcessOne_UnrecoverableReplyStillCompletes(t *testing.T) {
	exam := newTestExam(t)
	store := &fakeStore{exam: exam}
	a := newTestAnalyzer(store, &fakeExtractor{text: "1. Define the term collision domain."}, &fakeLLM{reply: "I am sorry, I cannot help with that."})

	if err := a.ProcessOne(context.Background(), exam.ID); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}
	if store.statuses[len(store.statuses)-1] != models.StatusCompleted {
		t.Errorf("statuses=%v, unrecoverable reply must still complete", store.statuses)
	}
	if store.analysis == nil {
		t.Fatal("analysis not persisted")
	}
	if len(store.analysis.Payload) != 0 {
		t.Errorf("payload=%v, want empty", store.analysis.Payload)
	}
	if store.analysis.StudyPlan != "Plan generation failed." {
		t.Errorf("study plan=%q, want the default", store.analysis.StudyPlan)
	}
}

func TestBuildAnalysisPrompt_Truncation(t *testing.T) {
	text := strings.Repeat("x", 500)
	prompt := BuildAnalysisPrompt(nil, text, 100)
	if strings.Count(prompt, "x") != 100 {
		t.Errorf("expected exactly 100 chars of exam text, got %d", strings.Count(prompt, "x"))
	}

	full := BuildAnalysisPrompt(nil, text, 1000)
	if strings.Count(full, "x") != 500 {
		t.Errorf("text under the cap must not be cut, got %d chars", strings.Count(full, "x"))
	}
}

func TestBuildAnalysisPrompt_CandidateList(t *testing.T) {
	candidates := SegmentQuestions("1. What is a VLAN used for in practice?\n")
	prompt := BuildAnalysisPrompt(candidates, "exam text", 1000)
	if !strings.Contains(prompt, "1 candidate questions") {
		t.Errorf("prompt missing candidate summary: %q", prompt)
	}
	if !strings.Contains(prompt, "short_answer") {
		t.Errorf("prompt missing candidate type: %q", prompt)
	}
}
