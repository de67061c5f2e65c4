// Package service runs generation requests for the transports: it converts
// transport arguments into tool calls, assembles the script and records one
// log event and one set of metrics per request.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dslh/cadscript-mcp/internal/metrics"
	"github.com/dslh/cadscript-mcp/internal/registry"
	"github.com/dslh/cadscript-mcp/internal/script"
	"github.com/dslh/cadscript-mcp/internal/types"
	"github.com/dslh/cadscript-mcp/internal/validation"
)

type requestIDKey struct{}

// WithRequestID returns a context carrying id
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id carried by ctx, if any
func RequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// Generator is safe for concurrent use
type Generator struct {
	assembler *script.Assembler
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// Option configures a Generator
type Option func(*Generator)

// WithMetrics records requests in m
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Generator) {
		g.metrics = m
	}
}

// WithLogger logs request events to l
func WithLogger(l zerolog.Logger) Option {
	return func(g *Generator) {
		g.log = l
	}
}

// New creates a generator around an assembler
func New(a *script.Assembler, opts ...Option) *Generator {
	g := &Generator{assembler: a, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Registry returns the tool catalog
func (g *Generator) Registry() *registry.Registry {
	return g.assembler.Registry()
}

// Generate assembles one script from calls. transport labels the log event
// and metrics.
func (g *Generator) Generate(ctx context.Context, transport string, calls []types.ToolCallArgs) (string, error) {
	start := time.Now()
	requestID, ok := RequestID(ctx)
	if !ok {
		requestID = uuid.NewString()
	}

	toolCalls := ToolCalls(calls)
	tools := make([]string, len(toolCalls))
	for i, c := range toolCalls {
		tools[i] = c.Tool
	}

	out, err := g.assembler.Generate(toolCalls)
	elapsed := time.Since(start)

	event := g.log.Info()
	kind := ""
	if err != nil {
		kind = errorKind(err)
		event = g.log.Warn().Str("kind", kind).Err(err)
		var ve *validation.ValidationError
		if errors.As(err, &ve) && ve.CallIndex != nil {
			event = event.Int("call_index", *ve.CallIndex)
		}
	}
	event.
		Str("request_id", requestID).
		Str("transport", transport).
		Int("tool_calls", len(toolCalls)).
		Dur("duration", elapsed).
		Msg("generate script")

	g.metrics.ObserveRequest(transport, tools, kind, elapsed)
	return out, err
}

// ToolCalls converts transport arguments into assembler input
func ToolCalls(args []types.ToolCallArgs) []script.ToolCall {
	calls := make([]script.ToolCall, len(args))
	for i, a := range args {
		calls[i] = script.ToolCall{Tool: a.ToolName, Parameters: a.Parameters}
	}
	return calls
}

func errorKind(err error) string {
	if kind, ok := validation.KindOf(err); ok {
		return string(kind)
	}
	return "Internal"
}
