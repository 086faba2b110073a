package analysis_engine

import (
	"strings"
	"testing"
)

const sampleExam = `Networking Midterm

1. What is the default subnet mask for a class C network?
a) 255.0.0.0
b) 255.255.0.0
c) 255.255.255.0
d) 255.255.255.255

2. True or False: TCP guarantees in-order delivery.

Q3) Discuss the differences between distance-vector and link-state routing protocols.

4. Define the term "collision domain".

5. ok
`

func TestSegmentQuestions(t *testing.T) {
	candidates := SegmentQuestions(sampleExam)
	if len(candidates) != 4 {
		t.Fatalf("expected 4 candidates, got %d: %+v", len(candidates), candidates)
	}

	want := []struct {
		number string
		typ    string
	}{
		{"1", TypeMultipleChoice},
		{"2", TypeTrueFalse},
		{"3", TypeEssay},
		{"4", TypeShortAnswer},
	}
	for i, w := range want {
		if candidates[i].Number != w.number {
			t.Errorf("candidate %d: number=%q, want %q", i, candidates[i].Number, w.number)
		}
		if candidates[i].Type != w.typ {
			t.Errorf("candidate %d: type=%q, want %q", i, candidates[i].Type, w.typ)
		}
	}
}

func TestSegmentQuestions_MinLength(t *testing.T) {
	// "5. ok" in sampleExam is shorter than the noise threshold and must be dropped.
	for _, c := range SegmentQuestions(sampleExam) {
		if len(c.Text) < 10 {
			t.Errorf("candidate %q has text shorter than 10 chars: %q", c.Number, c.Text)
		}
		if c.Text == "" {
			t.Errorf("candidate %q has empty text", c.Number)
		}
	}
}

func TestSegmentQuestions_OptionsBeatEssayVerb(t *testing.T) {
	// Classification priority: the lettered-option check runs before the
	// essay-verb check.
	text := "1. Explain which of the following applies to OSPF:\na) link-state\nb) distance-vector\n"
	candidates := SegmentQuestions(text)
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Type != TypeMultipleChoice {
		t.Errorf("type=%q, want %q", candidates[0].Type, TypeMultipleChoice)
	}
}

func TestSegmentQuestions_DefaultShortAnswer(t *testing.T) {
	text := "1. The capital of France and its population over the last century.\n"
	candidates := SegmentQuestions(text)
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Type != TypeShortAnswer {
		t.Errorf("ambiguous span should default to short answer, got %q", candidates[0].Type)
	}
}

func TestSegmentQuestions_NoAnchors(t *testing.T) {
	candidates := SegmentQuestions("no numbered items anywhere in this text")
	if len(candidates) != 0 {
		t.Errorf("expected no candidates, got %d", len(candidates))
	}
}

func TestSegmentQuestions_NormalizedText(t *testing.T) {
	candidates := SegmentQuestions("1. What   is\n\n  a VLAN used for?\n")
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if strings.Contains(candidates[0].Text, "\n") || strings.Contains(candidates[0].Text, "  ") {
		t.Errorf("candidate text not normalized: %q", candidates[0].Text)
	}
}

func TestNormalizeText(t *testing.T) {
	if got := NormalizeText("  a \t b \n\n c  "); got != "a b c" {
		t.Errorf("NormalizeText=%q, want %q", got, "a b c")
	}
	if got := NormalizeText("   "); got != "" {
		t.Errorf("NormalizeText on whitespace=%q, want empty", got)
	}
}
