// Package mcp serves agent tools over the Model Context Protocol on a
// line-delimited JSON-RPC stream (stdio).
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/soyeahso/chemkit/internal/agent"
	"github.com/soyeahso/chemkit/internal/hooks"
	"github.com/soyeahso/chemkit/internal/logging"
)

const maxLineSize = 1024 * 1024

// Server answers MCP requests using the tools in a registry.
type Server struct {
	name    string
	version string
	tools   *agent.ToolRegistry
	hooks   *hooks.Manager
	log     *logging.Logger

	mu  sync.Mutex
	out io.Writer
}

// Option customizes a Server.
type Option func(*Server)

// WithHooks makes the server emit a tool_call event for each tools/call.
func WithHooks(m *hooks.Manager) Option {
	return func(s *Server) { s.hooks = m }
}

// NewServer creates a server named name exposing the registry's tools.
func NewServer(name, version string, tools *agent.ToolRegistry, log *logging.Logger, opts ...Option) *Server {
	s := &Server{
		name:    name,
		version: version,
		tools:   tools,
		log:     log.Sub("mcp"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Serve reads one request per line from r and writes responses to w until
// r is exhausted or ctx is cancelled.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	s.out = w

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	s.log.Info().Str("server", s.name).Int("tools", s.tools.Len()).Msg("listening for requests on stdin")

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		s.log.Debug().Str("request", line).Msg("received request")
		if resp := s.Handle(ctx, []byte(line)); resp != nil {
			if err := s.write(resp); err != nil {
				return err
			}
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		s.log.Error().Err(err).Msg("error reading stdin")
		return fmt.Errorf("reading requests: %w", err)
	}
	s.log.Info().Msg("server shutting down")
	return nil
}

func (s *Server) write(resp *Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error().Err(err).Msg("error marshaling response")
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = fmt.Fprintln(s.out, string(data))
	return err
}

// Handle processes a single JSON-RPC message. It returns nil for
// notifications, which get no response.
func (s *Server) Handle(ctx context.Context, line []byte) *Response {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		s.log.Warn().Err(err).Msg("parse error")
		return errorResponse(nil, CodeParseError, "Parse error", err.Error())
	}

	if req.Method == "" {
		return errorResponse(req.ID, CodeInvalidRequest, "Invalid request", "method is required")
	}
	if strings.HasPrefix(req.Method, "notifications/") || len(req.ID) == 0 {
		s.log.Debug().Str("method", req.Method).Msg("received notification")
		return nil
	}

	s.log.Debug().Str("method", req.Method).Msg("handling method")

	switch req.Method {
	case "initialize":
		return result(req.ID, InitializeResult{
			ProtocolVersion: ProtocolVersion,
			Capabilities:    Capabilities{Tools: map[string]any{}},
			ServerInfo:      ServerInfo{Name: s.name, Version: s.version},
		})
	case "ping":
		return result(req.ID, map[string]any{})
	case "tools/list":
		return result(req.ID, s.listTools())
	case "tools/call":
		return s.callTool(ctx, req)
	default:
		s.log.Warn().Str("method", req.Method).Msg("unknown method")
		return errorResponse(req.ID, CodeMethodNotFound, "Method not found", fmt.Sprintf("Unknown method: %s", req.Method))
	}
}

func (s *Server) listTools() ListToolsResult {
	defs := s.tools.Definitions()
	out := ListToolsResult{Tools: make([]ToolInfo, 0, len(defs))}
	for _, d := range defs {
		schema := json.RawMessage(d.InputSchema)
		if !json.Valid(schema) {
			schema = json.RawMessage(`{"type":"object"}`)
		}
		out.Tools = append(out.Tools, ToolInfo{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: schema,
		})
	}
	return out
}

func (s *Server) callTool(ctx context.Context, req Request) *Response {
	var params CallToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, CodeInvalidParams, "Invalid params", err.Error())
	}

	tool, ok := s.tools.Get(params.Name)
	if !ok {
		return errorResponse(req.ID, CodeInvalidParams, "Unknown tool", fmt.Sprintf("Tool not found: %s", params.Name))
	}

	input := string(params.Arguments)
	if input == "" || input == "null" {
		input = "{}"
	}

	start := time.Now()
	output, err := tool.Execute(ctx, input)
	call := hooks.ToolCall{Tool: params.Name, Input: input, Output: output, Duration: time.Since(start)}
	if err != nil {
		call.Error = err.Error()
	}
	s.hooks.Emit(ctx, hooks.EventToolCall, call.Data())

	s.log.Info().Str("tool", params.Name).Dur("duration", call.Duration).Bool("error", err != nil).Msg("tool called")
	if err != nil {
		return result(req.ID, textResult(err.Error(), true))
	}
	return result(req.ID, textResult(output, false))
}

func result(id json.RawMessage, v any) *Response {
	return &Response{JSONRPC: "2.0", ID: id, Result: v}
}

func errorResponse(id json.RawMessage, code int, message string, data any) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &RPCError{Code: code, Message: message, Data: data},
	}
}
