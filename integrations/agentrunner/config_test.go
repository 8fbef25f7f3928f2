package agentrunner

import (
	"testing"

	"github.com/denied-dev/denied-go/gate"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("DENIED_URL", "https://auth.example.com")
	t.Setenv("DENIED_API_KEY", "dk_env")

	cfg := ConfigFromEnv()
	if cfg.URL != "https://auth.example.com" {
		t.Errorf("URL = %q", cfg.URL)
	}
	if cfg.APIKey != "dk_env" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
	if cfg.FailMode != gate.FailClosed {
		t.Errorf("default fail mode = %q, want closed", cfg.FailMode)
	}
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("DENIED_URL", "")
	t.Setenv("DENIED_API_KEY", "")

	cfg := ConfigFromEnv()
	if cfg.URL != defaultLocalURL {
		t.Errorf("URL = %q, want %q", cfg.URL, defaultLocalURL)
	}
	if !cfg.ExtractToolArgs || !cfg.IncludeAgentName || !cfg.IncludeSessionID {
		t.Errorf("extraction flags should default on: %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}

	cfg.URL = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty URL must fail validation")
	}

	cfg = DefaultConfig()
	cfg.Timeout = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero timeout must fail validation")
	}
}
