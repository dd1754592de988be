package agent

import (
	"github.com/matiasleandrokruk/mfgops/internal/mcp"
	"github.com/matiasleandrokruk/mfgops/internal/mcp/bridge"
)

// Sub-agent names used by the router.
const (
	AgentDataRetrieval = "data-retrieval"
	AgentAnalysis      = "analysis"
	AgentReporting     = "reporting"
)

// SubAgent is one specialized assistant: a prompt plus the bridged tools it
// may call.
type SubAgent struct {
	Name         string
	Description  string
	Instructions string
	Tools        []*bridge.Tool
}

// retrievalToolNames are the documentation-search tools granted to the
// analysis sub-agent.
var retrievalToolNames = []string{
	"search_manufacturing_docs",
	"search_maintenance_history",
}

// BuildSubAgents assembles the three sub-agents over the aggregated client:
// data-retrieval gets every tool of every backend, analysis gets only the
// documentation-search tools, reporting gets none.
func BuildSubAgents(client *mcp.Client) []SubAgent {
	var allTools []*bridge.Tool
	for _, name := range client.ServerNames() {
		backend, ok := client.Backend(name)
		if !ok {
			continue
		}
		allTools = append(allTools, bridge.FromBackend(backend)...)
	}

	var analysisTools []*bridge.Tool
	for _, t := range allTools {
		for _, want := range retrievalToolNames {
			if t.Name == want {
				analysisTools = append(analysisTools, t)
			}
		}
	}

	return []SubAgent{
		{
			Name:        AgentDataRetrieval,
			Description: "Fetches live equipment telemetry, production metrics, work orders, and inventory",
			Instructions: "Retrieve the operational data the question asks for using the " +
				"available tools, then summarize what you found with concrete numbers.",
			Tools: allTools,
		},
		{
			Name:        AgentAnalysis,
			Description: "Explains causes and trends using plant documentation and maintenance history",
			Instructions: "Investigate the question using documentation and maintenance " +
				"history, then explain likely causes and recommended actions.",
			Tools: analysisTools,
		},
		{
			Name:        AgentReporting,
			Description: "Writes summaries and shift reports from information in the conversation",
			Instructions: "Write a clear, structured report answering the question. " +
				"Use only information provided in the conversation.",
			Tools: nil,
		},
	}
}
