package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/soyeahso/chemkit/internal/domain"
	"github.com/soyeahso/chemkit/internal/hooks"
	"github.com/soyeahso/chemkit/internal/llm"
	"github.com/soyeahso/chemkit/internal/logging"
)

// maxToolIterations is the default number of tool call rounds per message.
const maxToolIterations = 5

// ErrNoResponse is returned when the LLM produced nothing to answer with.
var ErrNoResponse = errors.New("no response from LLM")

// RunnerConfig configures the agent runner.
type RunnerConfig struct {
	AgentID      string
	AgentName    string
	Model        string
	MaxTokens    int
	Temperature  *float64
	MaxTurns     int
	Instructions string
}

func (c RunnerConfig) maxTurns() int {
	if c.MaxTurns > 0 {
		return c.MaxTurns
	}
	return maxToolIterations
}

// RunResult is the outcome of processing a message.
type RunResult struct {
	Response  string            `json:"response"`
	SessionID string            `json:"sessionId"`
	Model     string            `json:"model,omitempty"`
	ToolCalls []domain.ToolCall `json:"toolCalls,omitempty"`
	Usage     llm.Usage         `json:"usage"`
	CostUSD   float64           `json:"costUsd,omitempty"`
	Duration  time.Duration     `json:"duration"`
}

// StreamCallback is called for each streaming event during RunStream execution.
// Event types:
//   - "delta": Incremental text output (Content field contains the text)
//   - "tool_start": Tool execution is beginning (Content describes the tool)
//   - "tool_result": Tool completed successfully (Content describes completion)
//   - "tool_error": Tool execution failed (Content describes the error)
type StreamCallback func(event llm.StreamEvent)

// Runner is the agent orchestration loop.
// It takes inbound messages, builds context, calls the LLM, runs the tools
// the LLM asks for and returns the final answer.
type Runner struct {
	cfg      RunnerConfig
	client   llm.Client
	sessions SessionStore
	tools    *ToolRegistry
	hooks    *hooks.Manager
	log      *logging.Logger
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithHooks makes the runner emit lifecycle events on m.
func WithHooks(m *hooks.Manager) RunnerOption {
	return func(r *Runner) { r.hooks = m }
}

// NewRunner creates an agent runner.
func NewRunner(
	cfg RunnerConfig,
	client llm.Client,
	sessions SessionStore,
	tools *ToolRegistry,
	log *logging.Logger,
	opts ...RunnerOption,
) *Runner {
	if tools == nil {
		tools = NewToolRegistry()
	}
	if sessions == nil {
		sessions = NewMemorySessionStore()
	}
	r := &Runner{
		cfg:      cfg,
		client:   client,
		sessions: sessions,
		tools:    tools,
		log:      log.Sub("agent." + cfg.AgentID),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Tools returns the runner's tool registry.
func (r *Runner) Tools() *ToolRegistry { return r.tools }

// Sessions returns the runner's session store.
func (r *Runner) Sessions() SessionStore { return r.sessions }

// EndSession announces that the conversation with sessionID is over.
// Unknown sessions are ignored.
func (r *Runner) EndSession(ctx context.Context, sessionID string) {
	session := r.sessions.Get(sessionID)
	if session == nil {
		return
	}
	r.hooks.Emit(ctx, hooks.EventSessionEnd, map[string]any{
		"sessionId": session.ID,
		"agentId":   r.cfg.AgentID,
		"messages":  len(session.Messages),
	})
}

// turn is the per-message state shared by Run and RunStream.
type turn struct {
	start   time.Time
	session *domain.Session
	system  string
	calls   []domain.ToolCall
}

func (r *Runner) begin(ctx context.Context, msg domain.InboundMessage, streaming bool) *turn {
	session := r.sessions.GetOrCreate(msg.Key(), r.cfg.AgentID)
	if len(session.Messages) == 0 {
		r.hooks.Emit(ctx, hooks.EventSessionStart, map[string]any{
			"sessionId": session.ID,
			"agentId":   r.cfg.AgentID,
			"source":    msg.Source,
		})
	}

	r.log.Info().
		Str("sessionId", session.ID).
		Str("from", msg.From).
		Str("source", msg.Source).
		Int("historyLen", len(session.Messages)).
		Bool("stream", streaming).
		Msg("processing message")

	r.hooks.Emit(ctx, hooks.EventBeforeAgentRun, map[string]any{
		"sessionId": session.ID,
		"agentId":   r.cfg.AgentID,
		"body":      msg.Body,
	})

	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	r.sessions.Append(session.ID, domain.Message{
		Role:      llm.RoleUser,
		Content:   msg.Body,
		Timestamp: ts,
	})

	return &turn{
		start:   time.Now(),
		session: session,
		system: BuildSystemPrompt(PromptConfig{
			AgentName:    r.cfg.AgentName,
			AgentID:      r.cfg.AgentID,
			Model:        r.cfg.Model,
			Tools:        r.tools.Definitions(),
			UserName:     msg.FromName,
			Instructions: r.cfg.Instructions,
		}),
	}
}

func (r *Runner) request(t *turn, stream bool) llm.CompletionRequest {
	return llm.CompletionRequest{
		Model:       r.cfg.Model,
		System:      t.system,
		Messages:    r.sessions.History(t.session.ID),
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: r.cfg.Temperature,
		Stream:      stream,
	}
}

// handleToolCalls runs the calls found in content and records the exchange
// in the session. It reports whether any tool was called.
func (r *Runner) handleToolCalls(ctx context.Context, t *turn, content string, cb StreamCallback) bool {
	calls := parseToolCalls(content)
	if len(calls) == 0 {
		return false
	}

	r.log.Info().Int("toolCalls", len(calls)).Msg("executing tool calls")
	if cb != nil {
		cb(llm.StreamEvent{
			Type:    "tool_start",
			Content: fmt.Sprintf("Executing %d tool(s)...", len(calls)),
		})
	}

	results := r.executeToolCalls(ctx, t.session.ID, calls)

	records := make([]domain.ToolCall, len(results))
	for i, tr := range results {
		records[i] = tr.record()
		if cb == nil {
			continue
		}
		if tr.Err != nil {
			cb(llm.StreamEvent{Type: "tool_error", Content: fmt.Sprintf("Tool %s failed: %v", tr.Tool, tr.Err)})
		} else {
			cb(llm.StreamEvent{Type: "tool_result", Content: fmt.Sprintf("Tool %s completed", tr.Tool)})
		}
	}
	t.calls = append(t.calls, records...)

	r.sessions.Append(t.session.ID, domain.Message{
		Role:      llm.RoleAssistant,
		Content:   content,
		Timestamp: time.Now(),
		ToolCalls: records,
	})
	r.sessions.Append(t.session.ID, domain.Message{
		Role:      llm.RoleUser,
		Content:   formatToolResults(results),
		Timestamp: time.Now(),
	})
	return true
}

func (r *Runner) finish(ctx context.Context, t *turn, resp *llm.CompletionResponse) *RunResult {
	cleanResponse := stripToolCalls(resp.Content, r.log)

	r.sessions.Append(t.session.ID, domain.Message{
		Role:      llm.RoleAssistant,
		Content:   cleanResponse,
		Timestamp: time.Now(),
	})

	result := &RunResult{
		Response:  cleanResponse,
		SessionID: t.session.ID,
		Model:     resp.Model,
		ToolCalls: t.calls,
		Usage:     resp.Usage,
		CostUSD:   resp.CostUSD,
		Duration:  time.Since(t.start),
	}

	r.log.Info().
		Str("sessionId", t.session.ID).
		Str("model", resp.Model).
		Int("toolCalls", len(t.calls)).
		Int("inputTokens", resp.Usage.InputTokens).
		Int("outputTokens", resp.Usage.OutputTokens).
		Dur("duration", result.Duration).
		Msg("response generated")

	r.hooks.Emit(ctx, hooks.EventAfterAgentRun, map[string]any{
		"sessionId": t.session.ID,
		"agentId":   r.cfg.AgentID,
		"response":  cleanResponse,
		"toolCalls": len(t.calls),
		"duration":  result.Duration,
	})
	return result
}

// Run processes an inbound message and returns the agent's response.
func (r *Runner) Run(ctx context.Context, msg domain.InboundMessage) (*RunResult, error) {
	t := r.begin(ctx, msg, false)

	var finalResp *llm.CompletionResponse
	for i := 0; i < r.cfg.maxTurns(); i++ {
		resp, err := r.client.Complete(ctx, r.request(t, false))
		if err != nil {
			return nil, fmt.Errorf("LLM completion: %w", err)
		}
		finalResp = resp

		if !r.handleToolCalls(ctx, t, resp.Content, nil) {
			break
		}
	}

	if finalResp == nil {
		return nil, ErrNoResponse
	}
	return r.finish(ctx, t, finalResp), nil
}

// RunStream processes a message with streaming output. Text deltas are
// forwarded to cb as they arrive; tool rounds are reported as tool events.
func (r *Runner) RunStream(ctx context.Context, msg domain.InboundMessage, cb StreamCallback) (*RunResult, error) {
	t := r.begin(ctx, msg, true)

	var finalResp *llm.CompletionResponse
	for i := 0; i < r.cfg.maxTurns(); i++ {
		ch, err := r.client.Stream(ctx, r.request(t, true))
		if err != nil {
			return nil, fmt.Errorf("LLM stream: %w", err)
		}

		// Accumulate content from stream while forwarding deltas in real-time.
		var fullContent strings.Builder
		var streamResp *llm.CompletionResponse
		for evt := range ch {
			switch evt.Type {
			case "delta":
				fullContent.WriteString(evt.Content)
				if cb != nil {
					cb(evt)
				}
			case "done":
				if evt.Response != nil {
					streamResp = evt.Response
				}
			case "error":
				return nil, fmt.Errorf("stream error: %s", evt.Error)
			}
		}

		if streamResp != nil {
			if streamResp.Content == "" {
				streamResp.Content = fullContent.String()
			}
			finalResp = streamResp
		} else {
			finalResp = &llm.CompletionResponse{
				Content: fullContent.String(),
				Model:   r.cfg.Model,
			}
		}

		if !r.handleToolCalls(ctx, t, finalResp.Content, cb) {
			break
		}
	}

	if finalResp == nil {
		return nil, ErrNoResponse
	}
	return r.finish(ctx, t, finalResp), nil
}

// toolCall is a parsed tool invocation from the LLM response.
type toolCall struct {
	Tool  string          `json:"tool"`
	Input json.RawMessage `json:"input"`
}

// toolResult holds the output from executing a tool.
type toolResult struct {
	Tool     string
	Input    string
	Output   string
	Err      error
	Duration time.Duration
}

func (tr toolResult) record() domain.ToolCall {
	c := domain.ToolCall{
		ID:       uuid.New().String(),
		Name:     tr.Tool,
		Input:    tr.Input,
		Output:   tr.Output,
		Duration: tr.Duration,
	}
	if tr.Err != nil {
		c.Error = tr.Err.Error()
	}
	return c
}

// toolCallRe matches ```tool_call\n{...}\n``` blocks in LLM output.
var toolCallRe = regexp.MustCompile("(?s)```tool_call\\s*\n(\\{.*?\\})\n\\s*```")

// xmlFuncCallRe matches <function_calls>...</function_calls> XML blocks in LLM output.
var xmlFuncCallRe = regexp.MustCompile(`(?s)<function_calls>.*?</function_calls>`)

// xmlBlockLevelRe matches self-contained XML blocks that LLMs emit for tool use
// (block-level, replaced with paragraph break).
var xmlBlockLevelRe = regexp.MustCompile(`(?s)(?:` +
	`<invoke\b[^>]*>.*?</invoke>` +
	`|<tool_call\b[^>]*>.*?</tool_call>` +
	`|<tool_use\b[^>]*>.*?</tool_use>` +
	`)`)

// xmlInlineTagRe matches parameter tags that can appear inline within text.
var xmlInlineTagRe = regexp.MustCompile(`(?s)<parameter\b[^>]*>.*?</parameter>`)

// codeFenceRe matches fenced code block opening/closing markers on their own line.
// Only the markers are stripped; content between fences is preserved.
var codeFenceRe = regexp.MustCompile(`(?m)^\s*` + "```" + `\w*\s*$`)

// whitespaceLineRe matches lines containing only horizontal whitespace.
var whitespaceLineRe = regexp.MustCompile(`(?m)^[ \t]+$`)

// blankLineCollapseRe collapses 3+ consecutive newlines to a single blank line.
var blankLineCollapseRe = regexp.MustCompile(`\n{3,}`)

// parseToolCalls extracts tool_call blocks from LLM response text.
func parseToolCalls(text string) []toolCall {
	matches := toolCallRe.FindAllStringSubmatch(text, -1)
	var calls []toolCall
	for _, match := range matches {
		if len(match) < 2 {
			continue
		}
		var tc toolCall
		if err := json.Unmarshal([]byte(match[1]), &tc); err != nil {
			continue
		}
		if tc.Tool != "" {
			calls = append(calls, tc)
		}
	}
	return calls
}

// executeToolCalls runs each tool in order and emits a tool_call event per call.
func (r *Runner) executeToolCalls(ctx context.Context, sessionID string, calls []toolCall) []toolResult {
	results := make([]toolResult, 0, len(calls))
	for _, tc := range calls {
		input := toolInput(tc.Input)
		res := toolResult{Tool: tc.Tool, Input: input}

		tool, ok := r.tools.Get(tc.Tool)
		if !ok {
			res.Err = fmt.Errorf("unknown tool: %s", tc.Tool)
		} else {
			r.log.Debug().Str("tool", tc.Tool).Msg("executing tool")
			start := time.Now()
			res.Output, res.Err = tool.Execute(ctx, input)
			res.Duration = time.Since(start)
		}

		rec := res.record()
		r.hooks.Emit(ctx, hooks.EventToolCall, hooks.ToolCall{
			SessionID: sessionID,
			Tool:      rec.Name,
			Input:     rec.Input,
			Output:    rec.Output,
			Error:     rec.Error,
			Duration:  rec.Duration,
		}.Data())

		results = append(results, res)
	}
	return results
}

// toolInput turns the raw "input" member of a tool call into the string
// handed to Tool.Execute. A bare JSON string is unquoted.
func toolInput(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// formatToolResults renders tool execution results for the LLM.
func formatToolResults(results []toolResult) string {
	var b strings.Builder
	b.WriteString("Tool execution results:\n\n")
	for _, r := range results {
		fmt.Fprintf(&b, "### %s\n", r.Tool)
		if r.Err != nil {
			fmt.Fprintf(&b, "Error: %s\n", r.Err)
		} else {
			b.WriteString(r.Output)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// stripToolCalls removes tool_call code blocks and XML function_calls blocks
// from the response, leaving surrounding text. Stripped XML blocks are logged
// to the console so they remain visible for debugging.
func stripToolCalls(text string, log *logging.Logger) string {
	// Block-level elements are replaced with a paragraph break so
	// surrounding text stays visually separated (e.g. a list item
	// followed by a closing sentence). Inline tags use a space.

	// Strip ```tool_call``` code blocks (block-level)
	cleaned := toolCallRe.ReplaceAllString(text, "\n\n")

	// Strip <function_calls>...</function_calls> XML blocks (block-level)
	xmlMatches := xmlFuncCallRe.FindAllString(cleaned, -1)
	if len(xmlMatches) > 0 && log != nil {
		for _, m := range xmlMatches {
			log.Info().Str("xml", m).Msg("stripped XML function_calls from LLM response")
		}
	}
	cleaned = xmlFuncCallRe.ReplaceAllString(cleaned, "\n\n")

	// Strip known block-level XML tags
	cleaned = xmlBlockLevelRe.ReplaceAllString(cleaned, "\n\n")

	// Strip inline parameter tags
	cleaned = xmlInlineTagRe.ReplaceAllString(cleaned, " ")

	// Strip code fence markers (``` and ```language) but keep content between them.
	cleaned = codeFenceRe.ReplaceAllString(cleaned, "")

	// Clean up whitespace artifacts left by replacements:
	// Lines that are now only spaces/tabs become empty lines.
	cleaned = whitespaceLineRe.ReplaceAllString(cleaned, "")
	// Collapse 3+ consecutive newlines into one blank line.
	cleaned = blankLineCollapseRe.ReplaceAllString(cleaned, "\n\n")

	return strings.TrimSpace(cleaned)
}
