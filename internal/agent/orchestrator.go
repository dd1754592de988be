package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/matiasleandrokruk/mfgops/internal/infra/llm"
	"github.com/matiasleandrokruk/mfgops/internal/mcp/bridge"
	"github.com/matiasleandrokruk/mfgops/pkg/uuid"
)

// maxToolIterations bounds the tool loop of a single question.
const maxToolIterations = 8

// Answer is the outcome of one orchestrated question.
type Answer struct {
	RunID     string `json:"run_id"`
	Agent     string `json:"agent"`
	Answer    string `json:"answer"`
	ToolCalls int    `json:"tool_calls"`
}

// Orchestrator routes questions to sub-agents and drives their tool loops.
type Orchestrator struct {
	router *llm.Router
	agents []SubAgent
	byName map[string]SubAgent
	runs   *RunStore
	logger *slog.Logger
}

// NewOrchestrator wires the router, sub-agents, and optional run store
// (nil disables run history).
func NewOrchestrator(router *llm.Router, agents []SubAgent, runs *RunStore, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	byName := make(map[string]SubAgent, len(agents))
	for _, sa := range agents {
		byName[sa.Name] = sa
	}
	return &Orchestrator{router: router, agents: agents, byName: byName, runs: runs, logger: logger}
}

// Agents returns the configured sub-agents.
func (o *Orchestrator) Agents() []SubAgent {
	out := make([]SubAgent, len(o.agents))
	copy(out, o.agents)
	return out
}

// Ask answers one question: route to a sub-agent, run its tool loop, persist
// the run. Run-store failures are logged, not returned.
func (o *Orchestrator) Ask(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question must not be empty")
	}

	provider, err := o.router.Route(ctx)
	if err != nil {
		return nil, fmt.Errorf("agent: select provider: %w", err)
	}

	started := time.Now().UTC()
	sa := o.route(ctx, provider, question)
	o.logger.Debug("question routed", "agent", sa.Name)

	answer, toolCalls, err := o.runLoop(ctx, provider, sa, question)
	if err != nil {
		return nil, err
	}

	out := &Answer{
		RunID:     uuid.NewV7().String(),
		Agent:     sa.Name,
		Answer:    answer,
		ToolCalls: toolCalls,
	}
	if o.runs != nil {
		run := Run{
			ID:         out.RunID,
			Question:   question,
			Agent:      sa.Name,
			Answer:     answer,
			ToolCalls:  toolCalls,
			StartedAt:  started,
			FinishedAt: time.Now().UTC(),
		}
		if err := o.runs.Save(ctx, run); err != nil {
			o.logger.Warn("run history write failed", "run_id", run.ID, "error", err)
		}
	}
	return out, nil
}

// route picks a sub-agent via the LLM, falling back to keyword routing when
// the model is unavailable or names an unknown agent.
func (o *Orchestrator) route(ctx context.Context, provider llm.LLMProvider, question string) SubAgent {
	resp, err := provider.ChatCompletion(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: routingPrompt(o.agents)},
			{Role: "user", Content: question},
		},
	})
	if err == nil {
		name := strings.ToLower(strings.TrimSpace(resp.Content))
		if sa, ok := o.byName[name]; ok {
			return sa
		}
		o.logger.Debug("router named unknown agent", "name", name)
	} else {
		o.logger.Warn("LLM routing failed, keyword fallback", "error", err)
	}
	return o.byName[routeByKeyword(question)]
}

// routeByKeyword is the deterministic fallback router.
func routeByKeyword(question string) string {
	q := strings.ToLower(question)
	for _, kw := range []string{"report", "summary", "summarize", "shift handover"} {
		if strings.Contains(q, kw) {
			return AgentReporting
		}
	}
	for _, kw := range []string{"why", "analy", "trend", "cause", "quality", "recommend"} {
		if strings.Contains(q, kw) {
			return AgentAnalysis
		}
	}
	return AgentDataRetrieval
}

// runLoop drives the sub-agent conversation: each model turn either requests
// a tool call (executed and fed back) or produces the final answer. The loop
// is bounded by maxToolIterations.
func (o *Orchestrator) runLoop(ctx context.Context, provider llm.LLMProvider, sa SubAgent, question string) (string, int, error) {
	messages := []llm.Message{
		{Role: "system", Content: systemPrompt(sa)},
		{Role: "user", Content: question},
	}

	toolCalls := 0
	for i := 0; i < maxToolIterations; i++ {
		resp, err := provider.ChatCompletion(ctx, llm.ChatRequest{Messages: messages})
		if err != nil {
			return "", toolCalls, fmt.Errorf("agent %s: completion: %w", sa.Name, err)
		}

		action, ok := parseAction(resp.Content)
		if !ok {
			return strings.TrimSpace(resp.Content), toolCalls, nil
		}

		observation := o.execute(ctx, sa, action)
		toolCalls++
		o.logger.Debug("tool call", "agent", sa.Name, "tool", action.Tool, "iteration", i+1)

		messages = append(messages,
			llm.Message{Role: "assistant", Content: resp.Content},
			llm.Message{Role: "user", Content: fmt.Sprintf("Tool result for %s:\n%s", action.Tool, observation)},
		)
	}

	// Budget exhausted: force a final answer from what was gathered.
	messages = append(messages, llm.Message{
		Role:    "user",
		Content: "You have used all available tool calls. Give your final answer now in plain text.",
	})
	resp, err := provider.ChatCompletion(ctx, llm.ChatRequest{Messages: messages})
	if err != nil {
		return "", toolCalls, fmt.Errorf("agent %s: final completion: %w", sa.Name, err)
	}
	return strings.TrimSpace(resp.Content), toolCalls, nil
}

// execute runs one tool action; unknown tool names become error observations
// so the model can correct itself.
func (o *Orchestrator) execute(ctx context.Context, sa SubAgent, action toolAction) string {
	var tool *bridge.Tool
	for _, t := range sa.Tools {
		if t.Name == action.Tool {
			tool = t
			break
		}
	}
	if tool == nil {
		names := make([]string, len(sa.Tools))
		for i, t := range sa.Tools {
			names[i] = t.Name
		}
		return fmt.Sprintf("Error: unknown tool %q (available: %s)", action.Tool, strings.Join(names, ", "))
	}
	return tool.Call(ctx, action.Args)
}

// toolAction is the parsed tool request from a model turn.
type toolAction struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

// parseAction extracts a tool action from a model reply: either a fenced JSON
// block or a reply that is itself a JSON object with a "tool" key.
func parseAction(content string) (toolAction, bool) {
	candidate := fencedJSON(content)
	if candidate == "" {
		trimmed := strings.TrimSpace(content)
		if !strings.HasPrefix(trimmed, "{") {
			return toolAction{}, false
		}
		candidate = trimmed
	}

	var action toolAction
	if err := json.Unmarshal([]byte(candidate), &action); err != nil || action.Tool == "" {
		return toolAction{}, false
	}
	return action, true
}

// fencedJSON returns the body of the first ``` fence, or empty string.
func fencedJSON(content string) string {
	start := strings.Index(content, "```")
	if start < 0 {
		return ""
	}
	rest := content[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 && strings.TrimSpace(rest[:nl]) == "json" {
		rest = rest[nl+1:]
	} else {
		rest = strings.TrimPrefix(rest, "json")
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}
