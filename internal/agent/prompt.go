// Package agent implements the question-answering orchestrator: a router that
// delegates each question to a specialized sub-agent, and a bounded tool loop
// that lets the sub-agent call backend tools through the bridge.
package agent

import (
	"fmt"
	"strings"

	"github.com/matiasleandrokruk/mfgops/internal/mcp/bridge"
)

// basePrompt frames every sub-agent conversation. The tool protocol is a
// fenced JSON action; anything else is treated as the final answer.
const basePrompt = `You are %s, an assistant for manufacturing operations.
%s

You can call tools. To call one, reply with ONLY a fenced JSON block:

` + "```json" + `
{"tool": "<tool name>", "args": {"<param>": <value>}}
` + "```" + `

After each call you receive the tool output. When you have enough
information, reply with your final answer in plain text instead of a
tool call.

Available tools:
%s`

// noToolsPrompt replaces the tool protocol for sub-agents without tools.
const noToolsPrompt = `You are %s, an assistant for manufacturing operations.
%s

Answer directly in plain text. You have no tools.`

// systemPrompt renders the system message for a sub-agent.
func systemPrompt(sa SubAgent) string {
	if len(sa.Tools) == 0 {
		return fmt.Sprintf(noToolsPrompt, sa.Name, sa.Instructions)
	}
	return fmt.Sprintf(basePrompt, sa.Name, sa.Instructions, renderTools(sa.Tools))
}

// renderTools lists each tool with its parameters, one block per tool.
func renderTools(tools []*bridge.Tool) string {
	var b strings.Builder
	for _, t := range tools {
		fmt.Fprintf(&b, "- %s: %s\n", t.Name, t.Description)
		for _, p := range t.Params {
			req := "optional"
			if p.Required {
				req = "required"
			}
			fmt.Fprintf(&b, "    %s (%s, %s)", p.Name, p.Type, req)
			if p.Description != "" {
				fmt.Fprintf(&b, " — %s", p.Description)
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// routingPrompt asks the LLM to pick a sub-agent by name.
func routingPrompt(agents []SubAgent) string {
	var b strings.Builder
	b.WriteString("Pick the best assistant for the user's question. Reply with ONLY the assistant name.\n\nAssistants:\n")
	for _, sa := range agents {
		fmt.Fprintf(&b, "- %s: %s\n", sa.Name, sa.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}
