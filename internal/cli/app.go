package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"

	"github.com/soyeahso/chemkit/internal/agent"
	"github.com/soyeahso/chemkit/internal/config"
	"github.com/soyeahso/chemkit/internal/hooks"
	"github.com/soyeahso/chemkit/internal/llm"
	"github.com/soyeahso/chemkit/internal/store"
	"github.com/soyeahso/chemkit/internal/toolkit"
)

// defaultToolkit is used when no agent definition is found.
var defaultToolkit = config.ToolkitConfig{Name: "chemcrow", Mode: "builtin"}

// agentName resolves the agent definition name: flag, then config.
func agentName(flag string) string {
	if flag != "" {
		return flag
	}
	return cfg.Agent
}

// toolkitConfig picks the toolkit of an agent definition. With several
// toolkits the first by key wins.
func toolkitConfig(ac *config.AgentConfig) config.ToolkitConfig {
	if ac == nil || len(ac.Toolkits) == 0 {
		return defaultToolkit
	}
	keys := make([]string, 0, len(ac.Toolkits))
	for k := range ac.Toolkits {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return ac.Toolkits[keys[0]]
}

// loadToolkit builds the toolkit named by the agent definition. A missing
// definition falls back to the default toolkit so direct tool calls work
// without any configuration.
func loadToolkit(name string) (*toolkit.Toolkit, error) {
	ac, err := config.LoadAgentConfig(cfg.ConfigDir, agentName(name))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		log.Debug().Str("agent", agentName(name)).Msg("agent config not found, using default toolkit")
		ac = nil
	}
	return toolkit.New(toolkitConfig(ac), nil, toolkit.WithLogger(log))
}

// agentClient builds the chat client for an agent definition. Settings not
// given in the model section come from the toolkit's resolved credentials.
func agentClient(ac *config.AgentConfig, kit *toolkit.Toolkit) (llm.Client, error) {
	m := ac.Model
	if m.Model == "" && m.APIKey == "" && m.BaseURL == "" {
		return kit.LLMClient(), nil
	}
	creds := kit.Credentials()
	oc := llm.OpenAIConfig{
		APIKey:    firstSet(m.APIKey, creds.OpenAIAPIKey),
		BaseURL:   firstSet(m.BaseURL, creds.OpenAIAPIBase),
		Model:     firstSet(m.Model, kit.Options().LLMModel),
		MaxTokens: m.MaxTokens,
	}
	if m.Temperature != nil {
		oc.Temperature = *m.Temperature
	} else {
		oc.Temperature = kit.Options().Temperature
	}
	return llm.NewOpenAIClient(oc)
}

func firstSet(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// history bundles the session store and the invocation log.
type history struct {
	sessions agent.SessionStore
	log      *store.InvocationLog
	db       *store.DB
}

func (h *history) Close() error {
	return h.db.Close()
}

func sessionStarted(_ context.Context, p hooks.Payload) error {
	id, _ := p.Data["sessionId"].(string)
	log.Info().Str("session", id).Msg("session started")
	return nil
}

// sessionEnded logs a summary of the finished session.
func (h *history) sessionEnded(_ context.Context, p hooks.Payload) error {
	id, _ := p.Data["sessionId"].(string)
	messages, _ := p.Data["messages"].(int)
	invs, err := h.log.ForSession(id)
	if err != nil {
		return err
	}
	failed := 0
	for _, inv := range invs {
		if inv.Error != "" {
			failed++
		}
	}
	log.Info().
		Str("session", id).
		Int("messages", messages).
		Int("toolCalls", len(invs)).
		Int("toolErrors", failed).
		Msg("session ended")
	return nil
}

// openHistory opens the configured session store. Tool invocations are
// always logged to SQLite; the memory store keeps them for the process
// lifetime only.
func openHistory() (*history, error) {
	path := ":memory:"
	if cfg.Session.Store == "sqlite" {
		if err := paths.EnsureDirs(); err != nil {
			return nil, err
		}
		path = paths.Database()
	}
	db, err := store.Open(path, log)
	if err != nil {
		return nil, err
	}

	h := &history{db: db, log: store.NewInvocationLog(db)}
	if cfg.Session.Store == "sqlite" {
		h.sessions = store.NewSQLiteSessionStore(db, store.WithHistoryLimit(cfg.Session.HistoryLimit))
	} else {
		h.sessions = agent.NewMemorySessionStore()
	}
	return h, nil
}

// assistant is a ready-to-chat agent.
type assistant struct {
	name      string
	runner    *agent.Runner
	sessionID string // set by the first answered query
	io.Closer
}

// end closes the conversation, if one was started.
func (a *assistant) end(ctx context.Context) {
	if a.sessionID != "" {
		a.runner.EndSession(ctx, a.sessionID)
	}
}

// newAssistant loads an agent definition and wires toolkit, LLM client,
// session store and invocation logging into a runner.
func newAssistant(name string) (*assistant, error) {
	name = agentName(name)
	ac, err := config.LoadAgentConfig(cfg.ConfigDir, name)
	if err != nil {
		return nil, err
	}
	if issues := config.ValidateAgent(ac); len(issues) > 0 {
		return nil, fmt.Errorf("invalid agent config %s: %s", name, issues[0])
	}

	kit, err := toolkit.New(toolkitConfig(ac), nil, toolkit.WithLogger(log))
	if err != nil {
		return nil, err
	}
	client, err := agentClient(ac, kit)
	if err != nil {
		return nil, err
	}

	h, err := openHistory()
	if err != nil {
		return nil, err
	}

	hm := hooks.NewManager(log)
	hm.On(hooks.EventToolCall, "invocation-log", h.log.HookHandler())
	hm.On(hooks.EventSessionStart, "session-log", sessionStarted)
	hm.On(hooks.EventSessionEnd, "session-log", h.sessionEnded)

	reg := agent.NewToolRegistry()
	kit.Register(reg)

	model := ac.Model.Model
	if model == "" {
		model = kit.Options().LLMModel
	}
	runner := agent.NewRunner(
		agent.RunnerConfig{
			AgentID:      name,
			AgentName:    ac.Agent.Name,
			Model:        model,
			MaxTokens:    ac.Model.MaxTokens,
			Temperature:  ac.Model.Temperature,
			MaxTurns:     ac.Agent.MaxTurns,
			Instructions: ac.Agent.Instructions,
		},
		client,
		h.sessions,
		reg,
		log,
		agent.WithHooks(hm),
	)

	return &assistant{name: ac.Agent.Name, runner: runner, Closer: h}, nil
}
