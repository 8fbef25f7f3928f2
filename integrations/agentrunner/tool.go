package agentrunner

// Tool describes a tool definition exposed by the host agent runner.
type Tool interface {
	// Name is the tool/operation identifier.
	Name() string
	// Description is the human-readable tool description, or "".
	Description() string
	// InputSchema is the tool's declared machine-readable input schema
	// (JSON-Schema shaped), or nil when the tool declares none.
	InputSchema() map[string]any
	// CustomMetadata carries host-supplied metadata copied into resource
	// properties, or nil.
	CustomMetadata() map[string]string
}

// ToolContext exposes the caller context of a tool invocation.
type ToolContext interface {
	// UserID identifies the acting user. Required.
	UserID() string
	// AgentName identifies the agent executing the tool, or "".
	AgentName() string
	// SessionID identifies the session, or "".
	SessionID() string
	// InvocationID identifies this invocation, or "".
	InvocationID() string
	// State is the session-state key-value mapping. May be nil.
	State() map[string]any
}
