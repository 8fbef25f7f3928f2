package gate

import (
	"errors"
	"fmt"
	"time"
)

// FailMode decides the outcome when the authorization service cannot be
// reached after all retries.
type FailMode string

const (
	// FailClosed denies access when the service is unavailable (secure).
	FailClosed FailMode = "closed"
	// FailOpen allows access when the service is unavailable (available).
	FailOpen FailMode = "open"
)

var (
	ErrNilChecker      = errors.New("gate: checker is required")
	ErrInvalidFailMode = errors.New("gate: fail mode must be \"closed\" or \"open\"")
)

// Config is the read-only policy for a Gate. It is a value object: build
// it once per host integration and share it freely across concurrent
// checks.
type Config struct {
	// FailMode selects the outcome after retry exhaustion.
	FailMode FailMode
	// RetryAttempts is the number of ADDITIONAL attempts after the first
	// failed check.
	RetryAttempts int
	// Timeout bounds each individual network attempt.
	Timeout time.Duration
}

// DefaultConfig returns the fail-closed default: two retries and a
// single-digit-seconds timeout suited for tool interception.
func DefaultConfig() Config {
	return Config{
		FailMode:      FailClosed,
		RetryAttempts: 2,
		Timeout:       5 * time.Second,
	}
}

// Validate fails fast on configuration errors, before any check runs.
func (c Config) Validate() error {
	switch c.FailMode {
	case FailClosed, FailOpen:
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidFailMode, c.FailMode)
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("gate: retry attempts must be non-negative, got %d", c.RetryAttempts)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("gate: timeout must be positive, got %s", c.Timeout)
	}
	return nil
}
