package agentrunner

import (
	"errors"
	"os"
	"time"

	"github.com/denied-dev/denied-go/gate"
)

// ErrMissingURL is returned when no service URL is configured.
var ErrMissingURL = errors.New("agentrunner: denied service URL must be provided or DENIED_URL must be set")

const defaultLocalURL = "http://localhost:8421"

// AuthorizationConfig controls the authorization plugin: where the
// Denied service lives, how failures are handled, and which fields of
// the tool context get extracted into the check request. It is read-only
// after construction.
type AuthorizationConfig struct {
	// URL of the Denied authorization service.
	URL string
	// APIKey for the Denied service.
	APIKey string

	// FailMode decides behavior when the service is unavailable.
	FailMode gate.FailMode
	// RetryAttempts is the number of additional attempts after a failed
	// check.
	RetryAttempts int
	// Timeout bounds each authorization request. Tool interception is
	// latency sensitive, so the default is short.
	Timeout time.Duration

	// IncludeAgentName adds the agent name to subject properties.
	IncludeAgentName bool
	// IncludeSessionID adds the session id to subject properties.
	IncludeSessionID bool
	// IncludeInvocationID adds the invocation id to subject properties.
	IncludeInvocationID bool
	// ExtractToolArgs wraps the tool arguments (and inferred schema)
	// into the resource's tool_input property.
	ExtractToolArgs bool

	// SubjectStateKeys lists session-state keys copied into subject
	// properties when present (e.g. "role", "department").
	SubjectStateKeys []string
	// ResourceStateKeys lists session-state keys copied into resource
	// properties when present (e.g. "scope").
	ResourceStateKeys []string
}

// ConfigFromEnv resolves the config from DENIED_URL and DENIED_API_KEY
// with secure defaults. Environment resolution happens only here, at the
// integration boundary.
func ConfigFromEnv() AuthorizationConfig {
	cfg := DefaultConfig()
	if v := os.Getenv("DENIED_URL"); v != "" {
		cfg.URL = v
	}
	cfg.APIKey = os.Getenv("DENIED_API_KEY")
	return cfg
}

// DefaultConfig returns a fail-closed config pointed at a local service.
func DefaultConfig() AuthorizationConfig {
	return AuthorizationConfig{
		URL:                 defaultLocalURL,
		FailMode:            gate.FailClosed,
		RetryAttempts:       2,
		Timeout:             5 * time.Second,
		IncludeAgentName:    true,
		IncludeSessionID:    true,
		IncludeInvocationID: true,
		ExtractToolArgs:     true,
	}
}

// Validate fails fast on configuration errors.
func (c AuthorizationConfig) Validate() error {
	if c.URL == "" {
		return ErrMissingURL
	}
	return c.gateConfig().Validate()
}

func (c AuthorizationConfig) gateConfig() gate.Config {
	return gate.Config{
		FailMode:      c.FailMode,
		RetryAttempts: c.RetryAttempts,
		Timeout:       c.Timeout,
	}
}
