package codingagent

import (
	denied "github.com/denied-dev/denied-go"
	"github.com/denied-dev/denied-go/infer"
)

// anonymousSubjectID identifies the subject when no user id was captured
// at callback creation.
const anonymousSubjectID = "coding-agent"

// ContextMapper builds canonical check requests from the coding agent's
// tool permission callback parameters. Principal context comes from the
// config since the host callback carries none.
type ContextMapper struct {
	cfg                AuthorizationConfig
	subjectProperties  map[string]any
	resourceProperties map[string]any
}

// NewContextMapper builds a mapper with optional custom subject and
// resource properties (e.g. {"role": "admin"} / {"scope": "user"}).
func NewContextMapper(cfg AuthorizationConfig, subjectProperties, resourceProperties map[string]any) *ContextMapper {
	return &ContextMapper{
		cfg:                cfg,
		subjectProperties:  subjectProperties,
		resourceProperties: resourceProperties,
	}
}

// Subject extracts the acting principal captured at callback creation.
func (m *ContextMapper) Subject() denied.Subject {
	properties := map[string]any{}
	for k, v := range m.subjectProperties {
		properties[k] = v
	}
	if m.cfg.UserID != "" {
		properties["user_id"] = m.cfg.UserID
	}
	if m.cfg.SessionID != "" {
		properties["session_id"] = m.cfg.SessionID
	}

	id := m.cfg.UserID
	if id == "" {
		id = anonymousSubjectID
	}
	return denied.NewSubject("user", id, properties)
}

// Resource extracts the tool being invoked and, when configured, its
// input values under tool_input.
func (m *ContextMapper) Resource(toolName string, toolInput map[string]any) denied.Resource {
	properties := map[string]any{}
	for k, v := range m.resourceProperties {
		properties[k] = v
	}
	properties["tool_name"] = toolName

	if m.cfg.ExtractToolArgs && len(toolInput) > 0 {
		values := make(map[string]any, len(toolInput))
		for k, v := range toolInput {
			values[k] = v
		}
		properties["tool_input"] = map[string]any{"values": values}
	}

	return denied.NewResource("tool", toolName, properties)
}

// CheckRequest builds the full canonical request for a tool invocation.
// The tool input participates in action inference so shell commands are
// classified by their content.
func (m *ContextMapper) CheckRequest(toolName string, toolInput map[string]any) *denied.CheckRequest {
	return &denied.CheckRequest{
		Subject:  m.Subject(),
		Resource: m.Resource(toolName, toolInput),
		Action:   denied.NewAction(infer.Action(toolName, toolInput)),
	}
}
