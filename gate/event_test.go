package gate

import (
	"context"
	"testing"

	"go.uber.org/zap"

	denied "github.com/denied-dev/denied-go"
	"github.com/denied-dev/denied-go/audit"
)

// captureWriter records events synchronously for assertions.
type captureWriter struct {
	events []*audit.DecisionEvent
}

func (w *captureWriter) Write(e *audit.DecisionEvent) { w.events = append(w.events, e) }
func (w *captureWriter) Close()                       {}

func TestAuthorize_WritesDecisionEvent(t *testing.T) {
	writer := &captureWriter{}
	checker := &scriptedChecker{resp: &denied.CheckResponse{
		Decision: false,
		Context:  &denied.CheckResponseContext{Reason: "not permitted"},
	}}
	g, err := New(checker, testConfig(), zap.NewNop(), WithEventWriter(writer))
	if err != nil {
		t.Fatal(err)
	}

	req, err := denied.NewCheckRequest(
		denied.NewSubject("user", "alice", map[string]any{"session_id": "s-1"}),
		"read",
		denied.NewResource("tool", "github_get_issues", map[string]any{"tool_name": "github_get_issues"}),
		nil,
	)
	if err != nil {
		t.Fatal(err)
	}

	g.Authorize(context.Background(), req)

	if len(writer.events) != 1 {
		t.Fatalf("got %d events, want 1", len(writer.events))
	}
	e := writer.events[0]
	if e.RequestID == "" {
		t.Error("event should carry a request id")
	}
	if e.SubjectID != "alice" || e.ResourceID != "github_get_issues" || e.Action != "read" {
		t.Errorf("unexpected event identity: %+v", e)
	}
	if e.Allowed {
		t.Error("event should record the denial")
	}
	if e.Reason != "not permitted" {
		t.Errorf("event reason = %q", e.Reason)
	}
	if e.ToolName != "github_get_issues" || e.SessionID != "s-1" {
		t.Errorf("event context fields: %+v", e)
	}
	if e.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", e.Attempts)
	}
}

func TestAuthorize_NoWriterNoEvent(t *testing.T) {
	checker := &scriptedChecker{resp: &denied.CheckResponse{Decision: true}}
	g, err := New(checker, testConfig(), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	// Must not panic without a writer.
	g.Authorize(context.Background(), testRequest(t))
}
