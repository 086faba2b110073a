package analysis_engine

import (
	"fmt"
	"strings"
)

// AnalysisSystemPrompt instructs the model to extract, solve and classify
// every question, then build a weekly study plan, as one strict-JSON object.
const AnalysisSystemPrompt = `You are an expert academic tutor with 20 years of experience in grading and exam prep.
Your goal is to analyze the provided exam paper text and generate a personalized study plan.

### Phase 1: Extraction & Solving
1. Identify every question in the exam. A heuristic pre-scan of the text is included; use it as a prior but trust your own reading of the full text.
2. For each question:
    - Determine the Topic/Category and the question type (multiple_choice, true_false, essay, short_answer).
    - Solve it (generate the correct answer and a brief explanation).
    - Rate the difficulty (1-10).

### Phase 2: Analysis
1. Identify the "Critical Topics" (topics that appear most frequently or carry the most marks).
2. Identify "Trap Questions" (questions that commonly trick students).

### Phase 3: The Study Plan
Generate a structured weekly study plan.
- **Week 1:** Focus on the highest-weighted topics found in this exam.
- **Week 2:** Practice "Trap Questions" and medium-difficulty topics.
- **Week 3:** Mock exams and time management.

### Output Format (Strict JSON)
Please output ONLY the JSON object, no introductory text.
{
  "exam_title": "String",
  "subject": "String",
  "total_marks": "Integer",
  "questions": [
    {
      "number": "String",
      "text": "String",
      "type": "String",
      "topic": "String",
      "difficulty": 1-10,
      "solution": "String",
      "explanation": "String"
    }
  ],
  "critical_topics": ["String"],
  "study_plan": "Markdown String"
}`

// candidatePreviewLen bounds how much of each candidate's text goes into the
// prompt; the full text follows anyway.
const candidatePreviewLen = 120

// BuildAnalysisPrompt assembles the single prompt for one exam: the candidate
// list from the heuristic pre-scan followed by the extracted text, hard-cut at
// maxChars to bound request size. The cutoff is not content-aware.
func BuildAnalysisPrompt(candidates []CandidateQuestion, text string, maxChars int) string {
	var b strings.Builder

	if len(candidates) > 0 {
		fmt.Fprintf(&b, "Heuristic pre-scan found %d candidate questions:\n", len(candidates))
		for _, c := range candidates {
			preview := c.Text
			if len(preview) > candidatePreviewLen {
				preview = preview[:candidatePreviewLen]
			}
			fmt.Fprintf(&b, "- Q%s [%s]: %s\n", c.Number, c.Type, preview)
		}
		b.WriteString("\n")
	}

	if maxChars > 0 && len(text) > maxChars {
		text = text[:maxChars]
	}

	b.WriteString("Here is the exam text:\n\n")
	b.WriteString(text)
	return b.String()
}
