package agentrunner

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	denied "github.com/denied-dev/denied-go"
	"github.com/denied-dev/denied-go/gate"
)

func TestNewPlugin_ConfigValidation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.URL = ""
	if _, err := NewPlugin(cfg); !errors.Is(err, ErrMissingURL) {
		t.Errorf("missing URL: got %v", err)
	}

	cfg = DefaultConfig()
	cfg.FailMode = "sometimes"
	if _, err := NewPlugin(cfg); !errors.Is(err, gate.ErrInvalidFailMode) {
		t.Errorf("invalid fail mode: got %v", err)
	}
}

func TestPlugin_BeforeTool_Allowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(denied.CheckResponse{Decision: true})
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.URL = srv.URL
	plugin, err := NewPlugin(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer plugin.Close()

	denial := plugin.BeforeTool(context.Background(),
		&fakeTool{name: "read_file"}, map[string]any{"path": "a.txt"}, testToolContext())
	if denial != nil {
		t.Errorf("expected allow, got denial: %+v", denial)
	}
}

func TestPlugin_BeforeTool_Denied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(denied.CheckResponse{
			Decision: false,
			Context:  &denied.CheckResponseContext{Reason: "not permitted"},
		})
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.URL = srv.URL
	plugin, err := NewPlugin(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer plugin.Close()

	denial := plugin.BeforeTool(context.Background(),
		&fakeTool{name: "delete_file"}, map[string]any{"path": "a.txt"}, testToolContext())
	if denial == nil {
		t.Fatal("expected denial")
	}
	if denial.Reason != "not permitted" {
		t.Errorf("reason = %q", denial.Reason)
	}
}

func TestPlugin_BeforeTool_ServiceDownFailClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.URL = srv.URL
	cfg.RetryAttempts = 0
	plugin, err := NewPlugin(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer plugin.Close()

	denial := plugin.BeforeTool(context.Background(),
		&fakeTool{name: "read_file"}, nil, testToolContext())
	if denial == nil {
		t.Fatal("fail-closed must deny when the service errors")
	}
}

func TestPlugin_SendsAPIKeyAndRequestShape(t *testing.T) {
	var gotKey string
	var gotReq denied.CheckRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(denied.CheckResponse{Decision: true})
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.URL = srv.URL
	cfg.APIKey = "dk_plugin"
	cfg.ResourceStateKeys = []string{"scope"}
	plugin, err := NewPlugin(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer plugin.Close()

	plugin.BeforeTool(context.Background(),
		&fakeTool{name: "github_get_issues"}, map[string]any{"repo": "r"}, testToolContext())

	if gotKey != "dk_plugin" {
		t.Errorf("X-API-Key = %q", gotKey)
	}
	if gotReq.Subject.Type != "user" || gotReq.Subject.ID != "alice" {
		t.Errorf("subject = %+v", gotReq.Subject)
	}
	if gotReq.Resource.ID != "github_get_issues" {
		t.Errorf("resource = %+v", gotReq.Resource)
	}
	if gotReq.Action.Name != "read" {
		t.Errorf("action = %q, want read (inferred from get stem)", gotReq.Action.Name)
	}
	if gotReq.Resource.Properties["scope"] != "user" {
		t.Errorf("resource scope missing: %v", gotReq.Resource.Properties)
	}
}
