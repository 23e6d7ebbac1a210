package config

import (
	"fmt"
	"slices"

	"github.com/soyeahso/chemkit/internal/logging"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Logging.Level != "" && !slices.Contains(logging.ValidLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", logging.ValidLevels, cfg.Logging.Level),
		})
	}

	validConsoleStyles := []string{"pretty", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.consoleStyle",
			Message: fmt.Sprintf("must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle),
		})
	}

	validStores := []string{"sqlite", "memory"}
	if cfg.Session.Store != "" && !slices.Contains(validStores, cfg.Session.Store) {
		issues = append(issues, ValidationIssue{
			Path:    "session.store",
			Message: fmt.Sprintf("must be one of %v, got %q", validStores, cfg.Session.Store),
		})
	}

	if cfg.Session.HistoryLimit < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "session.historyLimit",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Session.HistoryLimit),
		})
	}

	return issues
}

// ValidateAgent checks an agent definition for issues.
func ValidateAgent(ac *AgentConfig) []ValidationIssue {
	var issues []ValidationIssue
	if ac.Agent.MaxTurns < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "agent.maxTurns",
			Message: fmt.Sprintf("must not be negative, got %d", ac.Agent.MaxTurns),
		})
	}
	if t := ac.Model.Temperature; t != nil && (*t < 0 || *t > 2) {
		issues = append(issues, ValidationIssue{
			Path:    "model.temperature",
			Message: fmt.Sprintf("must be between 0 and 2, got %g", *t),
		})
	}
	for key, tk := range ac.Toolkits {
		if tk.Name == "" {
			issues = append(issues, ValidationIssue{
				Path:    "toolkits." + key + ".name",
				Message: "name is required",
			})
		}
	}
	return issues
}
