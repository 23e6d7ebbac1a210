package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandEnvVarsOrEmpty is expandEnvVars with unset variables becoming "".
func expandEnvVarsOrEmpty(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// SaveRaw writes a generic map back to a YAML config file.
func SaveRaw(path string, raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	d := Defaults()
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = d.Logging.Level
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = d.Logging.ConsoleStyle
	}
	if cfg.Session.Store == "" {
		cfg.Session.Store = d.Session.Store
	}
	if cfg.ConfigDir == "" {
		cfg.ConfigDir = d.ConfigDir
	}
	if cfg.Agent == "" {
		cfg.Agent = d.Agent
	}
}

// applyEnvOverrides reads CHEMKIT_* environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CHEMKIT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("CHEMKIT_CONFIG_DIR"); v != "" {
		cfg.ConfigDir = v
	}
	if v := os.Getenv("CHEMKIT_SESSION_STORE"); v != "" {
		cfg.Session.Store = strings.ToLower(v)
	}
}

// AgentConfigPath returns <root>/agents/<name>.yaml.
func AgentConfigPath(root, name string) string {
	return filepath.Join(root, "agents", filepath.FromSlash(name)+".yaml")
}

// LoadAgentConfig reads an agent definition such as "simple/chemcrow".
// A missing file yields an error matching fs.ErrNotExist.
func LoadAgentConfig(root, name string) (*AgentConfig, error) {
	path := AgentConfigPath(root, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("agent config %s: %w", path, err)
		}
		return nil, err
	}

	var ac AgentConfig
	if err := yaml.Unmarshal(data, &ac); err != nil {
		return nil, &ConfigError{Message: fmt.Sprintf("failed to parse agent config %s: %s", path, err)}
	}
	if ac.Agent.Name == "" {
		ac.Agent.Name = filepath.Base(name)
	}

	ac.Model.APIKey = expandEnvVars(ac.Model.APIKey)
	ac.Model.BaseURL = expandEnvVars(ac.Model.BaseURL)
	for key, tk := range ac.Toolkits {
		if tk.Name == "" {
			tk.Name = key
		}
		for k, v := range tk.Config {
			if s, ok := v.(string); ok {
				tk.Config[k] = expandEnvVarsOrEmpty(s)
			}
		}
		ac.Toolkits[key] = tk
	}
	return &ac, nil
}
