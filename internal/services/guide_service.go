package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/markdave123-py/ExamPrep/internal/core"
	"github.com/markdave123-py/ExamPrep/internal/core/analysis_engine"
	"github.com/markdave123-py/ExamPrep/internal/models"
)

var (
	// ErrNoAnalyses means no analyzed exams exist to build a guide from.
	ErrNoAnalyses = errors.New("no analyzed exams available")
	// ErrTopicNotFound means no question record matched the requested topic.
	ErrTopicNotFound = errors.New("no questions match the requested topic")
)

// maxGuideEvidence caps how many matched records feed the synthesis prompt.
const maxGuideEvidence = 10

const guideSystemPrompt = `You are an expert academic tutor building a focused study guide for one topic.
You receive a set of real exam questions on that topic, each with its solution and explanation.
Synthesize them into a study guide.

### Output Format (Strict JSON)
Please output ONLY the JSON object, no introductory text.
{
  "subject": "String",
  "summary": "Markdown String - a narrative overview of the topic and how exams test it",
  "key_concepts": ["String"],
  "worked_examples": ["Markdown String - one fully worked example per entry"]
}`

// GuideService aggregates question records across previously analyzed exams
// into topic-scoped study guides.
type GuideService struct {
	db  core.DbClient
	llm core.LLMProvider
}

func NewGuideService(db core.DbClient, provider core.LLMProvider) *GuideService {
	return &GuideService{db: db, llm: provider}
}

// BuildGuide assembles a study guide for topic from existing analyses,
// optionally restricted to examIDs, and upserts it by topic name. Matching is
// loose on purpose: topic labels drift across independently generated
// analyses, so a record matches when either label contains the other,
// case-insensitively.
func (s *GuideService) BuildGuide(ctx context.Context, topic string, examIDs []string) (*models.TopicGuide, error) {
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

	matched, sources := matchTopicRecords(analyses, topic)
	if len(matched) == 0 {
		return nil, ErrTopicNotFound
	}

	evidence := matched
	if len(evidence) > maxGuideEvidence {
		evidence = evidence[:maxGuideEvidence]
	}

	reply, err := s.llm.Generate(ctx, guideSystemPrompt, buildGuidePrompt(topic, evidence), true)
	if err != nil {
		return nil, err
	}

	payload := analysis_engine.RecoverJSON(reply)
	summary, _ := payload["summary"].(string)
	if summary == "" {
		summary = "Guide generation failed."
	}
	subject, _ := payload["subject"].(string)

	guide := &models.TopicGuide{
		ID:             uuid.NewString(),
		Topic:          topic,
		Subject:        subject,
		Summary:        summary,
		KeyConcepts:    stringList(payload["key_concepts"]),
		WorkedExamples: stringList(payload["worked_examples"]),
		SourceExamIDs:  sources,
	}

	if err := s.db.UpsertTopicGuide(ctx, guide); err != nil {
		return nil, fmt.Errorf("upsert topic guide: %w", err)
	}
	return guide, nil
}

// GetGuide returns the current guide for a topic, or ErrTopicNotFound.
func (s *GuideService) GetGuide(ctx context.Context, topic string) (*models.TopicGuide, error) {
	guide, err := s.db.GetTopicGuide(ctx, strings.TrimSpace(topic))
	if err != nil {
		return nil, err
	}
	if guide == nil {
		return nil, ErrTopicNotFound
	}
	return guide, nil
}

// matchTopicRecords flattens the question records of all analyses and keeps
// those whose topic matches bidirectionally. Returns the matched records in
// analysis order plus the ids of the exams that contributed them.
func matchTopicRecords(analyses []models.AnalysisResult, topic string) ([]models.QuestionRecord, []string) {
	var (
		matched []models.QuestionRecord
		sources []string
	)
	for _, a := range analyses {
		contributed := false
		for _, q := range models.QuestionsFromPayload(a.Payload) {
			if topicMatches(q.Topic, topic) {
				matched = append(matched, q)
				contributed = true
			}
		}
		if contributed {
			sources = append(sources, a.ExamID)
		}
	}
	return matched, sources
}

// topicMatches implements the bidirectional substring rule. Records with an
// empty topic label never match; "" is contained in everything and would drag
// unlabeled questions into every guide.
func topicMatches(recordTopic, want string) bool {
	recordTopic = strings.ToLower(strings.TrimSpace(recordTopic))
	want = strings.ToLower(want)
	if recordTopic == "" {
		return false
	}
	return strings.Contains(recordTopic, want) || strings.Contains(want, recordTopic)
}

func buildGuidePrompt(topic string, evidence []models.QuestionRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n\nExam questions on this topic:\n\n", topic)
	for i, q := range evidence {
		fmt.Fprintf(&b, "### Question %d (topic label: %q, difficulty %d)\n%s\n", i+1, q.Topic, q.Difficulty, q.Text)
		if q.Solution != "" {
			fmt.Fprintf(&b, "Solution: %s\n", q.Solution)
		}
		if q.Explanation != "" {
			fmt.Fprintf(&b, "Explanation: %s\n", q.Explanation)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// stringList coerces a payload field into []string, dropping anything that is
// not a string.
func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
