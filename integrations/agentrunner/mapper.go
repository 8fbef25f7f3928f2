package agentrunner

import (
	denied "github.com/denied-dev/denied-go"
	"github.com/denied-dev/denied-go/infer"
)

// ContextMapper transforms the host runner's tool invocation context
// into a canonical check request. It never mutates its inputs.
type ContextMapper struct {
	cfg    AuthorizationConfig
	schema SchemaProvider
}

// NewContextMapper builds a mapper. schema may be nil, in which case
// declared tool schemas are passed through.
func NewContextMapper(cfg AuthorizationConfig, schema SchemaProvider) *ContextMapper {
	if schema == nil {
		schema = DeclaredSchemaProvider{}
	}
	return &ContextMapper{cfg: cfg, schema: schema}
}

// Subject extracts the acting principal from the tool context.
func (m *ContextMapper) Subject(toolCtx ToolContext) denied.Subject {
	properties := map[string]any{
		"user_id": toolCtx.UserID(),
	}
	if m.cfg.IncludeAgentName && toolCtx.AgentName() != "" {
		properties["agent_name"] = toolCtx.AgentName()
	}
	if m.cfg.IncludeSessionID && toolCtx.SessionID() != "" {
		properties["session_id"] = toolCtx.SessionID()
	}
	if m.cfg.IncludeInvocationID && toolCtx.InvocationID() != "" {
		properties["invocation_id"] = toolCtx.InvocationID()
	}
	copyStateKeys(properties, toolCtx.State(), m.cfg.SubjectStateKeys)

	return denied.NewSubject("user", toolCtx.UserID(), properties)
}

// Resource extracts the target of the invocation: the tool itself, with
// its name, description, metadata, and (when enabled) the full argument
// mapping plus schema under tool_input.
func (m *ContextMapper) Resource(tool Tool, args map[string]any, toolCtx ToolContext) denied.Resource {
	properties := map[string]any{
		"tool_name": tool.Name(),
	}
	if desc := tool.Description(); desc != "" {
		properties["tool_description"] = desc
	}

	if m.cfg.ExtractToolArgs {
		toolInput := map[string]any{}
		if schema := m.schema.ToolSchema(tool); schema != nil {
			toolInput["schema"] = schema
		}
		if len(args) > 0 {
			toolInput["values"] = copyMap(args)
		}
		if len(toolInput) > 0 {
			properties["tool_input"] = toolInput
		}
	}

	for k, v := range tool.CustomMetadata() {
		properties[k] = v
	}
	copyStateKeys(properties, toolCtx.State(), m.cfg.ResourceStateKeys)

	return denied.NewResource("tool", tool.Name(), properties)
}

// CheckRequest builds the full canonical request for a tool invocation.
func (m *ContextMapper) CheckRequest(tool Tool, args map[string]any, toolCtx ToolContext) *denied.CheckRequest {
	return &denied.CheckRequest{
		Subject:  m.Subject(toolCtx),
		Resource: m.Resource(tool, args, toolCtx),
		Action:   denied.NewAction(infer.Action(tool.Name(), args)),
	}
}

// copyStateKeys copies the allow-listed keys out of session state.
func copyStateKeys(dst map[string]any, state map[string]any, keys []string) {
	if state == nil {
		return
	}
	for _, key := range keys {
		if v, ok := state[key]; ok {
			dst[key] = v
		}
	}
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
