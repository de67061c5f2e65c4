// Package server is the HTTP JSON transport for script generation.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dslh/cadscript-mcp/internal/metrics"
	"github.com/dslh/cadscript-mcp/internal/registry"
	"github.com/dslh/cadscript-mcp/internal/schema"
	"github.com/dslh/cadscript-mcp/internal/service"
	"github.com/dslh/cadscript-mcp/internal/types"
	"github.com/dslh/cadscript-mcp/internal/validation"
)

const (
	transport = "http"

	maxBodyBytes = 1 << 20
)

// Server serves the HTTP endpoints
type Server struct {
	generator *service.Generator
	metrics   *metrics.Metrics
	log       zerolog.Logger
	mux       *http.ServeMux
}

// Option configures a Server
type Option func(*Server)

// WithMetrics exposes m on GET /metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger sets the logger for transport-level events
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// New creates an HTTP server around a generator
func New(generator *service.Generator, opts ...Option) *Server {
	s := &Server{generator: generator, log: zerolog.Nop(), mux: http.NewServeMux()}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /tools", s.handleListTools)
	s.mux.HandleFunc("POST /call_tool", s.handleCallTool)
	s.mux.HandleFunc("POST /call_tools", s.handleCallTools)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return s
}

// Handler returns the root handler. Every response carries an X-Request-Id,
// taken from the request when present.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		s.mux.ServeHTTP(w, r.WithContext(service.WithRequestID(r.Context(), id)))
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info().Msg("HTTP server shutting down")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down HTTP server: %w", err)
		}
		return nil
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error *validation.ValidationError `json:"error,omitempty"`
}

// ToolInfo describes one registry tool on GET /tools
type ToolInfo struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Docs        string             `json:"docs,omitempty"`
	Parameters  []ParameterInfo    `json:"parameters"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
}

// ParameterInfo describes one tool parameter on GET /tools
type ParameterInfo struct {
	Name        string        `json:"name"`
	Type        registry.Kind `json:"type"`
	Description string        `json:"description,omitempty"`
	Unit        registry.Unit `json:"unit,omitempty"`
	Values      []string      `json:"values,omitempty"`
	Required    bool          `json:"required"`
	Default     interface{}   `json:"default"`
}

type toolListResponse struct {
	Tools []ToolInfo `json:"tools"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "Fusion 360 script server is running"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	defs := s.generator.Registry().List()
	response := toolListResponse{Tools: make([]ToolInfo, 0, len(defs))}
	for _, def := range defs {
		info := ToolInfo{
			Name:        def.Name,
			Description: def.Description,
			Docs:        def.Docs,
			Parameters:  make([]ParameterInfo, 0, len(def.Parameters)),
			InputSchema: schema.ForTool(def),
		}
		for _, p := range def.Parameters {
			info.Parameters = append(info.Parameters, ParameterInfo{
				Name:        p.Name,
				Type:        p.Type,
				Description: p.Description,
				Unit:        p.Unit,
				Values:      p.Values,
				Required:    p.Required(),
				Default:     p.Default,
			})
		}
		response.Tools = append(response.Tools, info)
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	var call types.ToolCallArgs
	if !s.decode(w, r, &call) {
		return
	}
	s.generate(w, r, []types.ToolCallArgs{call})
}

func (s *Server) handleCallTools(w http.ResponseWriter, r *http.Request) {
	var args types.GenerateScriptArgs
	if !s.decode(w, r, &args) {
		return
	}
	s.generate(w, r, args.ToolCalls)
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request, calls []types.ToolCallArgs) {
	out, err := s.generator.Generate(r.Context(), transport, calls)
	if err != nil {
		var ve *validation.ValidationError
		if errors.As(err, &ve) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve})
			return
		}
		s.log.Error().Err(err).Msg("script generation failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: &validation.ValidationError{
			Kind:    "Internal",
			Message: "script generation failed",
		}})
		return
	}
	writeJSON(w, http.StatusOK, types.ScriptResponse{Script: out, Message: "Success"})
}

// decode reads a JSON body into v, preserving numbers as json.Number so
// integers are never rounded through float64.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: &validation.ValidationError{
			Kind:    "MalformedRequest",
			Message: fmt.Sprintf("invalid JSON body: %v", err),
		}})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
