// Package agentrunner plugs Denied authorization into a generic agent
// runner's before-tool hook. The plugin builds a canonical check request
// from the runner's tool context and blocks execution when the check is
// denied.
package agentrunner

import (
	"context"

	"go.uber.org/zap"

	denied "github.com/denied-dev/denied-go"
	"github.com/denied-dev/denied-go/audit"
	"github.com/denied-dev/denied-go/gate"
)

// ToolDenial blocks a tool execution. A nil *ToolDenial from BeforeTool
// means the call is allowed.
type ToolDenial struct {
	// Reason is the human-readable denial message for the host's own
	// error reporting. Transport details stay in the logs.
	Reason string
}

// PluginOption configures a Plugin.
type PluginOption func(*pluginOptions)

type pluginOptions struct {
	client *denied.Client
	schema SchemaProvider
	writer audit.EventWriter
	logger *zap.Logger
}

// WithClient supplies a pre-configured client. The caller keeps
// ownership: Plugin.Close will not release it.
func WithClient(c *denied.Client) PluginOption {
	return func(o *pluginOptions) { o.client = c }
}

// WithSchemaProvider replaces the declared-schema pass-through.
func WithSchemaProvider(p SchemaProvider) PluginOption {
	return func(o *pluginOptions) { o.schema = p }
}

// WithEventWriter attaches a decision-event sink.
func WithEventWriter(w audit.EventWriter) PluginOption {
	return func(o *pluginOptions) { o.writer = w }
}

// WithLogger sets the plugin logger (default: no-op).
func WithLogger(l *zap.Logger) PluginOption {
	return func(o *pluginOptions) { o.logger = l }
}

// Plugin enforces authorization on tool calls for an agent runner.
// Construct once per runner and share across concurrent invocations.
type Plugin struct {
	cfg        AuthorizationConfig
	mapper     *ContextMapper
	gate       *gate.Gate
	client     *denied.Client
	ownsClient bool
	logger     *zap.Logger
}

// NewPlugin builds the plugin. Configuration errors (missing URL,
// invalid fail mode) fail fast here, before any check runs.
func NewPlugin(cfg AuthorizationConfig, opts ...PluginOption) (*Plugin, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o pluginOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	client := o.client
	ownsClient := false
	if client == nil {
		client = denied.NewClient(
			denied.WithURL(cfg.URL),
			denied.WithAPIKey(cfg.APIKey),
			denied.WithTimeout(cfg.Timeout),
		)
		ownsClient = true
	}

	var gateOpts []gate.Option
	if o.writer != nil {
		gateOpts = append(gateOpts, gate.WithEventWriter(o.writer))
	}
	g, err := gate.New(client, cfg.gateConfig(), o.logger, gateOpts...)
	if err != nil {
		if ownsClient {
			client.Close()
		}
		return nil, err
	}

	o.logger.Info("initialized denied authorization plugin",
		zap.String("url", cfg.URL),
		zap.String("fail_mode", string(cfg.FailMode)),
	)

	return &Plugin{
		cfg:        cfg,
		mapper:     NewContextMapper(cfg, o.schema),
		gate:       g,
		client:     client,
		ownsClient: ownsClient,
		logger:     o.logger,
	}, nil
}

// BeforeTool intercepts a tool invocation. It returns nil to allow
// execution, or a ToolDenial carrying the reason to block it. It never
// returns an error for an authorization failure.
func (p *Plugin) BeforeTool(ctx context.Context, tool Tool, args map[string]any, toolCtx ToolContext) *ToolDenial {
	p.logger.Debug("checking tool authorization",
		zap.String("tool_name", tool.Name()),
		zap.String("user_id", toolCtx.UserID()),
		zap.String("session_id", toolCtx.SessionID()),
	)

	req := p.mapper.CheckRequest(tool, args, toolCtx)
	decision := p.gate.Authorize(ctx, req)
	if decision.Allowed {
		return nil
	}
	return &ToolDenial{Reason: decision.Reason}
}

// Close releases the plugin's client when the plugin constructed it.
func (p *Plugin) Close() {
	if p.ownsClient {
		p.client.Close()
	}
}
