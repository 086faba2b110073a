package services

import (
	"context"
	"errors"
	"testing"

	"github.com/markdave123-py/ExamPrep/internal/models"
)

func TestStartSession(t *testing.T) {
	store := newFakeGuideStore([]models.AnalysisResult{
		analysisWithTopics("exam-a", "IP Subnetting"),
	})
	model := &fakeGuideLLM{reply: "Welcome. First question: what does CIDR stand for?"}
	svc := NewPracticeService(store, model)

	session, err := svc.StartSession(context.Background(), "user-1", "Subnetting", nil)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if session.ID == "" || session.Topic != "Subnetting" {
		t.Errorf("session=%+v", session)
	}
	if len(session.History) != 1 || session.History[0].Role != models.RoleAssistant {
		t.Fatalf("history=%+v, want single assistant opener", session.History)
	}
	if _, ok := store.sessions[session.ID]; !ok {
		t.Error("session not persisted")
	}
}

func TestStartSession_TopicNotFound(t *testing.T) {
	store := newFakeGuideStore([]models.AnalysisResult{
		analysisWithTopics("exam-a", "Routing"),
	})
	svc := NewPracticeService(store, &fakeGuideLLM{})
	if _, err := svc.StartSession(context.Background(), "user-1", "Thermodynamics", nil); !errors.Is(err, ErrTopicNotFound) {
		t.Errorf("err=%v, want ErrTopicNotFound", err)
	}
}

func TestRespond(t *testing.T) {
	store := newFakeGuideStore([]models.AnalysisResult{
		analysisWithTopics("exam-a", "IP Subnetting"),
	})
	model := &fakeGuideLLM{reply: "opener", chatReply: "Correct. Next question: what is a broadcast address?"}
	svc := NewPracticeService(store, model)

	session, err := svc.StartSession(context.Background(), "user-1", "Subnetting", nil)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	updated, err := svc.Respond(context.Background(), session.ID, "user-1", "Classless Inter-Domain Routing")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if len(updated.History) != 3 {
		t.Fatalf("history length=%d, want 3", len(updated.History))
	}
	if updated.History[1].Role != models.RoleUser || updated.History[1].Content != "Classless Inter-Domain Routing" {
		t.Errorf("student turn=%+v", updated.History[1])
	}
	if updated.History[2].Role != models.RoleAssistant {
		t.Errorf("examiner turn=%+v", updated.History[2])
	}
	if got := store.sessions[session.ID]; len(got.History) != 3 {
		t.Errorf("persisted history length=%d, want 3", len(got.History))
	}
}

func TestRespond_WrongUser(t *testing.T) {
	store := newFakeGuideStore([]models.AnalysisResult{
		analysisWithTopics("exam-a", "IP Subnetting"),
	})
	svc := NewPracticeService(store, &fakeGuideLLM{reply: "opener", chatReply: "next"})

	session, err := svc.StartSession(context.Background(), "user-1", "Subnetting", nil)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if _, err := svc.Respond(context.Background(), session.ID, "someone-else", "answer"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err=%v, want ErrSessionNotFound for foreign session", err)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	svc := NewPracticeService(newFakeGuideStore(nil), &fakeGuideLLM{})
	if _, err := svc.GetSession(context.Background(), "missing", "user-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err=%v, want ErrSessionNotFound", err)
	}
}
