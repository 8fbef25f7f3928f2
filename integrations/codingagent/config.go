package codingagent

import (
	"errors"
	"os"
	"time"

	"github.com/denied-dev/denied-go/gate"
)

// ErrMissingURL is returned when no service URL is configured.
var ErrMissingURL = errors.New("codingagent: denied service URL must be provided or DENIED_URL must be set")

const defaultLocalURL = "http://localhost:8421"

// AuthorizationConfig controls the permission callback. The coding-agent
// host gives the callback no user context, so the principal is captured
// here, at callback creation time. Read-only after construction.
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
	// Timeout bounds each authorization request.
	Timeout time.Duration

	// ExtractToolArgs wraps the tool input values into the resource's
	// tool_input property.
	ExtractToolArgs bool

	// UserID identifies the acting user for the subject.
	UserID string
	// SessionID is included in subject properties when set.
	SessionID string
}

// ConfigFromEnv resolves the config from DENIED_URL and DENIED_API_KEY
// with secure defaults.
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
		URL:             defaultLocalURL,
		FailMode:        gate.FailClosed,
		RetryAttempts:   2,
		Timeout:         5 * time.Second,
		ExtractToolArgs: true,
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
