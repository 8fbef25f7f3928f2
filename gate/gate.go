// Package gate turns raw authorization checks into binary allow/deny
// outcomes a host framework can act on: it owns the retry/backoff loop
// around the decision client and applies fail-open/fail-closed policy
// when the service cannot be reached.
package gate

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	denied "github.com/denied-dev/denied-go"
	"github.com/denied-dev/denied-go/audit"
)

const backoffBase = 100 * time.Millisecond

// Checker performs a single authorization round trip. *denied.Client
// satisfies it; tests substitute scripted fakes.
type Checker interface {
	CheckRequest(ctx context.Context, req *denied.CheckRequest) (*denied.CheckResponse, error)
}

// Decision is the terminal outcome of one authorization check. A denial
// is a normal result, never an error: the Gate reports service failures
// through the fail-mode policy instead of raising them to the host.
type Decision struct {
	Allowed bool
	// Reason is a concise human-readable explanation for a denial, safe
	// to surface to the host framework's error reporting.
	Reason string
	// ServiceUnavailable is true when the decision came from fail-mode
	// policy rather than an actual policy evaluation.
	ServiceUnavailable bool
}

// outcome is the internal result of the retry loop, with one variant per
// condition. Keeping unavailable distinct from denied means fail-mode
// policy is applied as a pure function over it, not inferred from error
// handling.
type outcome struct {
	allowed     bool
	reason      string
	invalid     bool
	unavailable bool
	err         error // input error when invalid, last transport error when unavailable
	attempts    int
}

// Option configures a Gate.
type Option func(*Gate)

// WithEventWriter attaches a decision-event sink. Writes are
// fire-and-forget; the default Gate only logs.
func WithEventWriter(w audit.EventWriter) Option {
	return func(g *Gate) { g.writer = w }
}

// Gate orchestrates request checking, retry, and fail-mode policy for a
// host framework. It is safe for concurrent use.
type Gate struct {
	checker Checker
	cfg     Config
	logger  *zap.Logger
	writer  audit.EventWriter
}

// New builds a Gate. Construction fails fast on a nil checker or an
// invalid config, the only unrecoverable conditions a Gate ever reports.
func New(checker Checker, cfg Config, logger *zap.Logger, opts ...Option) (*Gate, error) {
	if checker == nil {
		return nil, ErrNilChecker
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Gate{checker: checker, cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Authorize runs one authorization check to a terminal decision. The
// request must already be canonical (see denied.NewCheckRequest).
func (g *Gate) Authorize(ctx context.Context, req *denied.CheckRequest) Decision {
	start := time.Now()

	g.logger.Debug("authorization check initiated",
		zap.String("subject", req.Subject.Type+":"+req.Subject.ID),
		zap.String("resource", req.Resource.Type+":"+req.Resource.ID),
		zap.String("action", req.Action.Name),
	)

	// Input errors are construction-time failures. They never reach the
	// network and never resolve through fail mode.
	var out outcome
	if err := req.Validate(); err != nil {
		out = outcome{invalid: true, err: err}
	} else {
		out = g.checkWithRetry(ctx, req)
	}
	decision := g.resolve(req, out)

	g.writeEvent(req, decision, out, time.Since(start))
	return decision
}

// checkWithRetry attempts the check up to RetryAttempts+1 times with
// exponential backoff (100ms, 200ms, 400ms, ...). The backoff sleeps on
// a timer select so concurrent checks by other callers are never
// blocked.
func (g *Gate) checkWithRetry(ctx context.Context, req *denied.CheckRequest) outcome {
	var lastErr error

	for attempt := 0; attempt <= g.cfg.RetryAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
		resp, err := g.checker.CheckRequest(attemptCtx, req)
		cancel()

		if err == nil {
			return outcome{
				allowed:  resp.Decision,
				reason:   resp.Reason(),
				attempts: attempt + 1,
			}
		}
		if isInputError(err) {
			return outcome{invalid: true, err: err, attempts: attempt + 1}
		}
		lastErr = err

		if attempt == g.cfg.RetryAttempts {
			break
		}
		backoff := backoffBase << attempt
		g.logger.Warn("authorization check failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return outcome{unavailable: true, err: ctx.Err(), attempts: attempt + 1}
		}
	}

	g.logger.Error("authorization check failed after all attempts",
		zap.Int("attempts", g.cfg.RetryAttempts+1),
		zap.Error(lastErr),
	)
	return outcome{unavailable: true, err: lastErr, attempts: g.cfg.RetryAttempts + 1}
}

// resolve applies fail-mode policy and maps the outcome to a terminal
// decision, logging the transition.
func (g *Gate) resolve(req *denied.CheckRequest, out outcome) Decision {
	if out.invalid {
		g.logger.Error("authorization request invalid, denying",
			zap.String("action", req.Action.Name),
			zap.Error(out.err),
		)
		return Decision{Reason: "Invalid authorization request: " + out.err.Error()}
	}

	if out.unavailable {
		if g.cfg.FailMode == FailOpen {
			g.logger.Warn("authorization service unavailable, allowing in fail-open mode",
				zap.String("resource", req.Resource.ID),
				zap.String("action", req.Action.Name),
				zap.Error(out.err),
			)
			return Decision{Allowed: true, ServiceUnavailable: true}
		}
		g.logger.Warn("authorization service unavailable, denying in fail-closed mode",
			zap.String("resource", req.Resource.ID),
			zap.String("action", req.Action.Name),
			zap.Error(out.err),
		)
		return Decision{
			Reason:             "Authorization service unavailable (fail-closed mode)",
			ServiceUnavailable: true,
		}
	}

	if !out.allowed {
		reason := out.reason
		if reason == "" {
			reason = "Authorization denied"
		}
		g.logger.Info("authorization denied",
			zap.String("subject", req.Subject.Type+":"+req.Subject.ID),
			zap.String("resource", req.Resource.Type+":"+req.Resource.ID),
			zap.String("action", req.Action.Name),
			zap.String("reason", reason),
		)
		return Decision{Reason: reason}
	}

	g.logger.Debug("authorization allowed",
		zap.String("subject", req.Subject.Type+":"+req.Subject.ID),
		zap.String("resource", req.Resource.Type+":"+req.Resource.ID),
		zap.String("action", req.Action.Name),
	)
	return Decision{Allowed: true}
}

// isInputError reports whether err is a request construction failure
// rather than a transport failure. Retrying one can never succeed.
func isInputError(err error) bool {
	return errors.Is(err, denied.ErrMissingSubject) ||
		errors.Is(err, denied.ErrMissingResource) ||
		errors.Is(err, denied.ErrMissingAction) ||
		errors.Is(err, denied.ErrInvalidEntityFormat)
}

// writeEvent fires a decision event to the configured sink, if any.
func (g *Gate) writeEvent(req *denied.CheckRequest, d Decision, out outcome, latency time.Duration) {
	if g.writer == nil {
		return
	}
	toolName, _ := req.Resource.Properties["tool_name"].(string)
	sessionID, _ := req.Subject.Properties["session_id"].(string)
	g.writer.Write(&audit.DecisionEvent{
		RequestID:          uuid.New().String(),
		Timestamp:          time.Now(),
		SubjectType:        req.Subject.Type,
		SubjectID:          req.Subject.ID,
		ResourceType:       req.Resource.Type,
		ResourceID:         req.Resource.ID,
		Action:             req.Action.Name,
		Allowed:            d.Allowed,
		Reason:             d.Reason,
		FailMode:           string(g.cfg.FailMode),
		Attempts:           uint8(out.attempts),
		ServiceUnavailable: d.ServiceUnavailable,
		ToolName:           toolName,
		UserID:             req.Subject.ID,
		SessionID:          sessionID,
		LatencyMs:          float32(latency) / float32(time.Millisecond),
	})
}
