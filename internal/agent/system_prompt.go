package agent

import (
	"fmt"
	"strings"
	"time"
)

// DefaultInstructions is used when the agent config has no instructions.
const DefaultInstructions = `You are an expert chemist. Answer the question using the chemistry tools available to you.
Resolve names to SMILES or CAS numbers before analysing a molecule.
Check whether a molecule is controlled or explosive before discussing how to make or handle it.
If a tool reports that it is not available, say so and answer as well as you can without it.`

// PromptConfig controls system prompt generation.
type PromptConfig struct {
	AgentName    string
	AgentID      string
	Model        string
	Tools        []ToolDef
	UserName     string
	Instructions string
	Now          time.Time
}

// BuildSystemPrompt constructs the system prompt for the LLM.
func BuildSystemPrompt(cfg PromptConfig) string {
	var b strings.Builder

	instructions := strings.TrimSpace(cfg.Instructions)
	if instructions == "" {
		instructions = DefaultInstructions
	}
	b.WriteString(instructions)
	b.WriteString("\n\n")

	now := cfg.Now
	if now.IsZero() {
		now = time.Now()
	}
	fmt.Fprintf(&b, "Current date: %s\n", now.Format("2006-01-02"))
	if cfg.AgentName != "" {
		fmt.Fprintf(&b, "Assistant: %s\n", cfg.AgentName)
	}
	if cfg.UserName != "" {
		fmt.Fprintf(&b, "User: %s\n", cfg.UserName)
	}

	b.WriteString("\nGuidelines:\n")
	b.WriteString("- When using tools, explain what you're doing.\n")
	b.WriteString("- Report tool output faithfully, including SMILES strings and CAS numbers.\n")

	if len(cfg.Tools) > 0 {
		b.WriteString("\n## Available Tools\n\n")
		b.WriteString("You can call tools by outputting a fenced code block with the language tag `tool_call`:\n\n")
		b.WriteString("```tool_call\n{\"tool\": \"tool_name\", \"input\": {\"input\": \"value\"}}\n```\n\n")
		b.WriteString("After a tool is executed, the result will be provided. You may call multiple tools before giving your final response.\n\n")
		for _, t := range cfg.Tools {
			fmt.Fprintf(&b, "### %s\n%s\n", t.Name, t.Description)
			if t.InputSchema != "" {
				fmt.Fprintf(&b, "Input schema: %s\n", t.InputSchema)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
