package analysis_engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/ExamPrep/internal/core"
	"github.com/markdave123-py/ExamPrep/internal/core/llm"
	"github.com/markdave123-py/ExamPrep/internal/models"
)

// ErrNoText means the conversion step produced no usable text. Fatal to the
// job: there is nothing to analyze.
var ErrNoText = errors.New("no text could be extracted from the uploaded file")

// maxErrorMessageLen bounds the human-readable message stored on failed exams.
const maxErrorMessageLen = 1000

// Analyzer runs the background exam-analysis pipeline.
type Analyzer interface {
	Start(ctx context.Context, numWorkers int)
	Enqueue(examID string)
	ProcessOne(ctx context.Context, examID string) error
}

// AnalyzeConfig tunes the pipeline.
//
// MaxPromptChars: hard cap on extracted text embedded in one prompt.
type AnalyzeConfig struct {
	MaxPromptChars int
}

// ExamAnalyzer sequences extraction, segmentation, the model call, recovery
// and persistence for one exam at a time. Jobs for different exams may run
// concurrently across workers; the store is the only shared state. The
// analyzer performs no per-exam locking, so callers must not start two jobs
// for the same exam id at once.
type ExamAnalyzer struct {
	db        core.DbClient
	extractor core.TextExtractor
	llm       core.LLMProvider
	cfg       *AnalyzeConfig
	jobs      chan string
}

// NewExamAnalyzer constructs the analyzer with a bounded job queue (64).
func NewExamAnalyzer(db core.DbClient, ext core.TextExtractor, provider core.LLMProvider, cfg *AnalyzeConfig) *ExamAnalyzer {
	return &ExamAnalyzer{
		db: db, extractor: ext, llm: provider, cfg: cfg,
		jobs: make(chan string, 64),
	}
}

// Start launches numWorkers goroutines reading from the jobs channel. Worker
// errors stay inside the worker; nothing escapes to crash the pool.
func (a *ExamAnalyzer) Start(ctx context.Context, numWorkers int) {
	g, gctx := errgroup.WithContext(ctx)
	for w := 1; w <= numWorkers; w++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					log.Println("ExamAnalyzer: worker shutting down.")
					return nil
				case examID := <-a.jobs:
					if err := a.ProcessOne(gctx, examID); err != nil {
						log.Printf("ExamAnalyzer: exam %s: %v", examID, err)
					}
				}
			}
		})
	}
	go func() { _ = g.Wait() }()
}

// Enqueue schedules an exam ID for analysis.
// If the queue is full, this call will block until space frees up.
func (a *ExamAnalyzer) Enqueue(examID string) {
	a.jobs <- examID
}

// ProcessOne runs the full pipeline for a single exam id. The exam moves to
// processing before any expensive work, and ends in exactly one terminal
// status. The local temp file is removed on both success and failure.
func (a *ExamAnalyzer) ProcessOne(ctx context.Context, examID string) error {
	// Fresh context with a longer timeout: a job already accepted keeps
	// running even if the trigger goes away.
	procCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	exam, err := a.db.GetExamByID(procCtx, examID)
	if err != nil {
		return fmt.Errorf("load exam %s: %w", examID, err)
	}
	if exam == nil {
		return fmt.Errorf("exam not found: %s", examID)
	}

	if exam.StoragePath != "" {
		defer func() {
			if err := os.Remove(exam.StoragePath); err != nil && !os.IsNotExist(err) {
				log.Printf("ExamAnalyzer: cleanup %s: %v", exam.StoragePath, err)
			}
		}()
	}

	if err := a.db.UpdateExamStatus(procCtx, examID, models.StatusProcessing); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	if err := a.analyze(procCtx, exam); err != nil {
		if ferr := a.db.MarkExamFailed(procCtx, examID, truncateMessage(failureMessage(err))); ferr != nil {
			log.Printf("ExamAnalyzer: mark failed for exam %s: %v", examID, ferr)
		}
		return err
	}

	return a.db.UpdateExamStatus(procCtx, examID, models.StatusCompleted)
}

// analyze runs the pipeline stages for one exam. Any returned error aborts
// the job into failed; an unrecoverable model reply does NOT — a garbage
// payload downstream beats a hard failure.
func (a *ExamAnalyzer) analyze(ctx context.Context, exam *models.Exam) error {
	raw := a.extractor.ExtractFile(exam.StoragePath)
	if strings.TrimSpace(raw) == "" {
		return ErrNoText
	}

	candidates := SegmentQuestions(raw)
	if len(candidates) < 2 {
		// A signal, not an error: the model still reads the whole text.
		log.Printf("ExamAnalyzer: only %d heuristic candidates for exam %s", len(candidates), exam.ID)
	}

	prompt := BuildAnalysisPrompt(candidates, raw, a.cfg.MaxPromptChars)

	reply, err := a.llm.Generate(ctx, AnalysisSystemPrompt, prompt, true)
	if err != nil {
		return err
	}

	payload := RecoverJSON(reply)
	if len(payload) == 0 {
		log.Printf("ExamAnalyzer: unrecoverable model reply for exam %s, storing empty analysis", exam.ID)
	}

	plan, _ := payload["study_plan"].(string)
	if plan == "" {
		plan = "Plan generation failed."
	}

	return a.db.UpsertAnalysisResult(ctx, &models.AnalysisResult{
		ID:        uuid.NewString(),
		ExamID:    exam.ID,
		Payload:   payload,
		StudyPlan: plan,
	})
}

// failureMessage maps a pipeline error to the user-facing message stored on
// the exam. Oracle faults are rewritten per kind; raw upstream detail stays
// in the logs only.
func failureMessage(err error) string {
	var oerr *llm.OracleError
	switch {
	case errors.Is(err, ErrNoText):
		return "Could not extract any text from the uploaded file. Is it a scanned image without OCR?"
	case errors.As(err, &oerr):
		return llm.UserMessage(err)
	default:
		return err.Error()
	}
}

func truncateMessage(msg string) string {
	if len(msg) > maxErrorMessageLen {
		return msg[:maxErrorMessageLen]
	}
	return msg
}

var _ Analyzer = (*ExamAnalyzer)(nil)
