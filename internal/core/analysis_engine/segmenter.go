package analysis_engine

import (
	"regexp"
)

// Provisional question types assigned by the heuristic pre-scan.
const (
	TypeMultipleChoice = "multiple_choice"
	TypeTrueFalse      = "true_false"
	TypeEssay          = "essay"
	TypeShortAnswer    = "short_answer"
	TypeUnknown        = "unknown"
)

// CandidateQuestion is a heuristically segmented, provisionally typed span of
// exam text. It only exists to give the model a strong prior; it is never
// persisted.
type CandidateQuestion struct {
	Number string
	Text   string
	Type   string
	Source string
}

// minCandidateLen filters out spans too short to be real questions. A noise
// filter, not a correctness guarantee.
const minCandidateLen = 10

var (
	// Numbered item at the start of a line: "3.", "12)", "Q4.", "Question 7)".
	anchorRe = regexp.MustCompile(`(?mi)^[ \t]*(?:q(?:uestion)?[ \t]*)?(\d+)[.)][ \t]`)

	// Lettered option at the start of a line: "a) ...", "(B) ...", "c. ...".
	optionRe = regexp.MustCompile(`(?m)^[ \t]*\(?[a-eA-E][).][ \t]`)

	trueFalseRe = regexp.MustCompile(`(?i)\btrue\s*(?:/|or)\s*false\b|\bT\s*/\s*F\b`)

	essayVerbRe = regexp.MustCompile(`(?i)\b(discuss|explain|describe|analyze|analyse|evaluate|compare|contrast|justify|elaborate)\b`)

	shortAnswerRe = regexp.MustCompile(`(?i)\b(define|list|name|state|identify)\b|\bwhat\s+is\b|\bgive\s+an\s+example\b`)
)

// SegmentQuestions slices raw exam text into candidate questions. It is a
// pure function and never fails; text with no recognizable anchors yields an
// empty slice. Each candidate's span runs from just after its anchor to just
// before the next anchor (or end of text).
func SegmentQuestions(text string) []CandidateQuestion {
	matches := anchorRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	out := make([]CandidateQuestion, 0, len(matches))
	for i, m := range matches {
		spanStart := m[1] // end of the anchor match
		spanEnd := len(text)
		if i+1 < len(matches) {
			spanEnd = matches[i+1][0]
		}
		span := text[spanStart:spanEnd]

		normalized := NormalizeText(span)
		if len(normalized) < minCandidateLen {
			continue
		}

		out = append(out, CandidateQuestion{
			Number: text[m[2]:m[3]],
			Text:   normalized,
			Type:   classifySpan(span),
			Source: "heuristic",
		})
	}
	return out
}

// classifySpan guesses the response type for one raw (pre-normalization) span.
// First match wins; the option check runs before the verb checks so an essay
// verb inside an option list still classifies as multiple choice. Ambiguous
// spans default to short answer rather than unknown so every candidate enters
// the model stage with a usable prior.
func classifySpan(span string) string {
	switch {
	case optionRe.MatchString(span):
		return TypeMultipleChoice
	case trueFalseRe.MatchString(span):
		return TypeTrueFalse
	case essayVerbRe.MatchString(span):
		return TypeEssay
	case shortAnswerRe.MatchString(span):
		return TypeShortAnswer
	default:
		return TypeShortAnswer
	}
}
