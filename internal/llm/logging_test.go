package llm

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kalike-app/kalike/internal/store"
)

func TestLoggingProvider_RecordsEvents(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	mock := NewMockProvider(
		MockText("ನಮಸ್ಕಾರ ಸಾರ್ [Namaskara saar]"),
		MockResponse{Err: &ErrRateLimit{Err: errors.New("429")}},
	)
	p := WithLogging(mock, "mock", s.EventRepo(), nil)

	ctx := WithPurpose(context.Background(), PurposeSimulationReply)
	req := Request{
		System:   "You are an auto driver in Bangalore.",
		Messages: []Message{{Role: RoleAssistant, Content: "ಎಲ್ಲಿಗೆ?"}, {Role: RoleUser, Content: "Majestic"}},
	}
	if _, err := p.Generate(ctx, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Generate(ctx, req); err == nil {
		t.Fatal("expected rate limit error")
	}

	events, err := s.EventRepo().QueryLLMEvents(ctx, store.QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	failed, ok := events[0], events[1]
	if failed.Success || !strings.Contains(failed.ErrorMessage, "rate limited") {
		t.Fatalf("expected failed event first, got %+v", failed)
	}
	if !ok.Success || ok.Purpose != PurposeSimulationReply || ok.Model != "mock" {
		t.Fatalf("unexpected success event %+v", ok)
	}
	if !strings.Contains(ok.RequestBody, "[assistant]\nಎಲ್ಲಿಗೆ?") || ok.ResponseBody != "ನಮಸ್ಕಾರ ಸಾರ್ [Namaskara saar]" {
		t.Fatalf("bodies not recorded: %q / %q", ok.RequestBody, ok.ResponseBody)
	}
}

func TestLoggingProvider_NilRepo(t *testing.T) {
	p := WithLogging(NewMockProvider(MockText("ಸರಿ")), "mock", nil, nil)
	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("expected mock model, got %q", p.ModelID())
	}
}
