package codingagent

import "testing"

func TestContextMapper_Subject(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UserID = "user-123"
	cfg.SessionID = "sess-9"
	mapper := NewContextMapper(cfg, map[string]any{"role": "admin"}, nil)

	sub := mapper.Subject()
	if sub.Type != "user" || sub.ID != "user-123" {
		t.Errorf("subject identity = {%s %s}", sub.Type, sub.ID)
	}
	if sub.Properties["user_id"] != "user-123" || sub.Properties["session_id"] != "sess-9" {
		t.Errorf("subject properties: %v", sub.Properties)
	}
	if sub.Properties["role"] != "admin" {
		t.Errorf("custom property missing: %v", sub.Properties)
	}
}

func TestContextMapper_SubjectAnonymous(t *testing.T) {
	mapper := NewContextMapper(DefaultConfig(), nil, nil)

	sub := mapper.Subject()
	if sub.ID != "coding-agent" {
		t.Errorf("anonymous subject id = %q, want coding-agent", sub.ID)
	}
	if _, ok := sub.Properties["user_id"]; ok {
		t.Error("user_id property must be absent when no user was captured")
	}
}

func TestContextMapper_Resource(t *testing.T) {
	mapper := NewContextMapper(DefaultConfig(), nil, map[string]any{"scope": "user"})

	res := mapper.Resource("Write", map[string]any{"file_path": "a.txt", "content": "hi"})
	if res.Type != "tool" || res.ID != "Write" {
		t.Errorf("resource identity = {%s %s}", res.Type, res.ID)
	}
	if res.Properties["tool_name"] != "Write" || res.Properties["scope"] != "user" {
		t.Errorf("resource properties: %v", res.Properties)
	}

	toolInput, ok := res.Properties["tool_input"].(map[string]any)
	if !ok {
		t.Fatalf("tool_input missing: %v", res.Properties)
	}
	values := toolInput["values"].(map[string]any)
	if values["file_path"] != "a.txt" {
		t.Errorf("tool_input.values = %v", values)
	}
	if _, ok := toolInput["schema"]; ok {
		t.Error("this host has no schema source; tool_input.schema must be absent")
	}
}

func TestContextMapper_ResourceExtractionDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExtractToolArgs = false
	mapper := NewContextMapper(cfg, nil, nil)

	res := mapper.Resource("Write", map[string]any{"file_path": "a.txt"})
	if _, ok := res.Properties["tool_input"]; ok {
		t.Error("tool_input must be omitted when extraction is disabled")
	}
}

func TestContextMapper_DoesNotMutateInput(t *testing.T) {
	mapper := NewContextMapper(DefaultConfig(), nil, nil)

	input := map[string]any{"command": "ls"}
	res := mapper.Resource("Bash", input)
	values := res.Properties["tool_input"].(map[string]any)["values"].(map[string]any)
	values["command"] = "mutated"
	if input["command"] != "ls" {
		t.Error("mapper must copy tool input, not alias it")
	}
}

func TestContextMapper_CheckRequest(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UserID = "alice"
	mapper := NewContextMapper(cfg, nil, nil)

	req := mapper.CheckRequest("Bash", map[string]any{"command": "rm -rf build"})
	if err := req.Validate(); err != nil {
		t.Fatalf("mapped request invalid: %v", err)
	}
	if req.Action.Name != "delete" {
		t.Errorf("action = %q, want delete (from command analysis)", req.Action.Name)
	}
}
