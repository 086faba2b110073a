package models

import (
	"encoding/json"
	"testing"
)

func TestQuestionsFromPayload(t *testing.T) {
	raw := `{
		"exam_title": "Midterm",
		"questions": [
			{"number": "1", "text": "q1", "topic": "Subnetting", "difficulty": 7, "solution": "s", "explanation": "e"},
			{"number": 2, "text": "q2", "difficulty": "hard"},
			"not an object"
		]
	}`
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatal(err)
	}

	questions := QuestionsFromPayload(payload)
	if len(questions) != 2 {
		t.Fatalf("got %d questions, want 2 (non-object entries skipped)", len(questions))
	}

	if questions[0].Topic != "Subnetting" || questions[0].Difficulty != 7 {
		t.Errorf("first question=%+v", questions[0])
	}

	// Mistyped fields decay to zero values instead of failing.
	if questions[1].Number != "" || questions[1].Difficulty != 0 {
		t.Errorf("second question=%+v, want defaulted fields", questions[1])
	}
	if questions[1].Text != "q2" {
		t.Errorf("second question text=%q", questions[1].Text)
	}
}

func TestQuestionsFromPayload_MissingOrWrongShape(t *testing.T) {
	if got := QuestionsFromPayload(map[string]any{}); got != nil {
		t.Errorf("missing questions key: got %v, want nil", got)
	}
	if got := QuestionsFromPayload(map[string]any{"questions": "oops"}); got != nil {
		t.Errorf("wrong questions shape: got %v, want nil", got)
	}
}
