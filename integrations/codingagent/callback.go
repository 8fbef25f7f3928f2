// Package codingagent plugs Denied authorization into a coding-agent
// SDK's per-tool permission callback. The factory captures the principal
// at creation time and returns a callback the host invokes immediately
// before executing a tool.
package codingagent

import (
	"context"

	"go.uber.org/zap"

	denied "github.com/denied-dev/denied-go"
	"github.com/denied-dev/denied-go/audit"
	"github.com/denied-dev/denied-go/gate"
)

// PermissionResult is the outcome delivered to the host SDK.
type PermissionResult struct {
	// Allowed permits the tool execution.
	Allowed bool
	// Message carries the denial reason for the host's error reporting.
	// Empty on allow.
	Message string
}

// PermissionCallback is invoked by the host immediately before a tool
// executes.
type PermissionCallback func(ctx context.Context, toolName string, toolInput map[string]any) PermissionResult

// CallbackOption configures the permission callback factory.
type CallbackOption func(*callbackOptions)

type callbackOptions struct {
	client             *denied.Client
	writer             audit.EventWriter
	logger             *zap.Logger
	subjectProperties  map[string]any
	resourceProperties map[string]any
}

// WithClient supplies a pre-configured client; the caller keeps
// ownership of its lifecycle.
func WithClient(c *denied.Client) CallbackOption {
	return func(o *callbackOptions) { o.client = c }
}

// WithSubjectProperties adds custom subject properties (e.g. role).
func WithSubjectProperties(p map[string]any) CallbackOption {
	return func(o *callbackOptions) { o.subjectProperties = p }
}

// WithResourceProperties adds custom resource properties (e.g. scope).
func WithResourceProperties(p map[string]any) CallbackOption {
	return func(o *callbackOptions) { o.resourceProperties = p }
}

// WithEventWriter attaches a decision-event sink.
func WithEventWriter(w audit.EventWriter) CallbackOption {
	return func(o *callbackOptions) { o.writer = w }
}

// WithLogger sets the callback logger (default: no-op).
func WithLogger(l *zap.Logger) CallbackOption {
	return func(o *callbackOptions) { o.logger = l }
}

// NewPermissionCallback builds the permission callback. Configuration
// errors fail fast here; the returned callback itself never errors, since a
// service failure resolves through the configured fail mode.
func NewPermissionCallback(cfg AuthorizationConfig, opts ...CallbackOption) (PermissionCallback, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o callbackOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	client := o.client
	if client == nil {
		client = denied.NewClient(
			denied.WithURL(cfg.URL),
			denied.WithAPIKey(cfg.APIKey),
			denied.WithTimeout(cfg.Timeout),
		)
	}

	var gateOpts []gate.Option
	if o.writer != nil {
		gateOpts = append(gateOpts, gate.WithEventWriter(o.writer))
	}
	g, err := gate.New(client, cfg.gateConfig(), o.logger, gateOpts...)
	if err != nil {
		return nil, err
	}

	mapper := NewContextMapper(cfg, o.subjectProperties, o.resourceProperties)

	o.logger.Info("created denied permission callback",
		zap.String("url", cfg.URL),
		zap.String("fail_mode", string(cfg.FailMode)),
		zap.String("user_id", cfg.UserID),
	)

	return func(ctx context.Context, toolName string, toolInput map[string]any) PermissionResult {
		o.logger.Debug("checking tool authorization",
			zap.String("tool_name", toolName),
			zap.String("user_id", cfg.UserID),
		)

		req := mapper.CheckRequest(toolName, toolInput)
		decision := g.Authorize(ctx, req)
		if decision.Allowed {
			return PermissionResult{Allowed: true}
		}
		return PermissionResult{Message: decision.Reason}
	}, nil
}
