// Package hooks dispatches agent lifecycle events to in-process handlers.
package hooks

import (
	"context"
	"sync"
	"time"

	"github.com/soyeahso/chemkit/internal/logging"
)

// Event names for the hook system.
const (
	EventSessionStart   = "session_start"
	EventBeforeAgentRun = "before_agent_run"
	EventToolCall       = "tool_call"
	EventAfterAgentRun  = "after_agent_run"
	EventSessionEnd     = "session_end"
)

// Payload carries event data to hook handlers.
type Payload struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data,omitempty"`
}

// Handler is a function that handles a hook event.
// Returning an error logs the failure but does not stop processing.
type Handler func(ctx context.Context, p Payload) error

// ToolCall is the data carried by an EventToolCall payload.
type ToolCall struct {
	SessionID string
	Tool      string
	Input     string
	Output    string
	Error     string
	Duration  time.Duration
}

// Data converts the call to payload data.
func (c ToolCall) Data() map[string]any {
	return map[string]any{
		"sessionId": c.SessionID,
		"tool":      c.Tool,
		"input":     c.Input,
		"output":    c.Output,
		"error":     c.Error,
		"duration":  c.Duration,
	}
}

// ToolCallFromPayload reads a ToolCall back out of an EventToolCall payload.
func ToolCallFromPayload(p Payload) (ToolCall, bool) {
	if p.Event != EventToolCall || p.Data == nil {
		return ToolCall{}, false
	}
	tool, ok := p.Data["tool"].(string)
	if !ok || tool == "" {
		return ToolCall{}, false
	}
	c := ToolCall{Tool: tool}
	c.SessionID, _ = p.Data["sessionId"].(string)
	c.Input, _ = p.Data["input"].(string)
	c.Output, _ = p.Data["output"].(string)
	c.Error, _ = p.Data["error"].(string)
	c.Duration, _ = p.Data["duration"].(time.Duration)
	return c, true
}

// Manager manages hook registrations and dispatches events. A nil
// *Manager is valid and drops every event.
type Manager struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler
	log      *logging.Logger
}

type namedHandler struct {
	name    string
	handler Handler
}

// NewManager creates a hook manager.
func NewManager(log *logging.Logger) *Manager {
	return &Manager{
		handlers: make(map[string][]namedHandler),
		log:      log.Sub("hooks"),
	}
}

// On registers a handler for the given event.
// The name identifies the handler for logging and debugging.
func (m *Manager) On(event, name string, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = append(m.handlers[event], namedHandler{name: name, handler: handler})
	m.log.Debug().Str("event", event).Str("handler", name).Msg("hook registered")
}

func (m *Manager) snapshot(event string) []namedHandler {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	handlers := make([]namedHandler, len(m.handlers[event]))
	copy(handlers, m.handlers[event])
	return handlers
}

// Emit dispatches an event to all registered handlers synchronously.
// Handlers are called in registration order. Errors are logged but do not
// prevent subsequent handlers from running.
func (m *Manager) Emit(ctx context.Context, event string, data map[string]any) {
	handlers := m.snapshot(event)
	if len(handlers) == 0 {
		return
	}

	payload := Payload{Event: event, Data: data}
	for _, h := range handlers {
		if err := h.handler(ctx, payload); err != nil {
			m.log.Warn().
				Err(err).
				Str("event", event).
				Str("handler", h.name).
				Msg("hook handler error")
		}
	}
}
