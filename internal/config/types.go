package config

// Config is the root configuration for chemkit, read from
// ~/.chemkit/config.yaml.
type Config struct {
	Logging   LoggingConfig `yaml:"logging,omitempty"`
	Session   SessionConfig `yaml:"session,omitempty"`
	ConfigDir string        `yaml:"configDir,omitempty"` // root of agents/<name>.yaml
	Agent     string        `yaml:"agent,omitempty"`     // default agent config name
}

// SessionConfig selects where chat sessions and tool invocations are kept.
type SessionConfig struct {
	Store        string `yaml:"store,omitempty"`        // "sqlite" | "memory"
	HistoryLimit int    `yaml:"historyLimit,omitempty"` // messages sent to the model per turn; 0 = all
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File         string `yaml:"file,omitempty"`
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
}

// AgentConfig is one agent definition under <configDir>/agents.
type AgentConfig struct {
	Agent    AgentSection             `yaml:"agent"`
	Model    ModelSection             `yaml:"model"`
	Toolkits map[string]ToolkitConfig `yaml:"toolkits,omitempty"`
}

// AgentSection names the agent and carries its instructions.
type AgentSection struct {
	Name         string `yaml:"name"`
	Instructions string `yaml:"instructions,omitempty"`
	MaxTurns     int    `yaml:"maxTurns,omitempty"`
}

// ModelSection configures the chat model used by the agent.
type ModelSection struct {
	Model       string   `yaml:"model,omitempty"`
	APIKey      string   `yaml:"apiKey,omitempty"`
	BaseURL     string   `yaml:"baseUrl,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
	MaxTokens   int      `yaml:"maxTokens,omitempty"`
}

// ToolkitConfig names a toolkit and carries its free-form settings.
type ToolkitConfig struct {
	Name   string         `yaml:"name"`
	Mode   string         `yaml:"mode,omitempty"`
	Config map[string]any `yaml:"config,omitempty"`
}
