package a2a

// BuildAgentCard returns the static AgentCard advertised at
// /.well-known/agent.json so other agents can discover this persona's
// forum-message endpoint (spec.md §1, SPEC_FULL §6.7).
func BuildAgentCard(baseURL, agentName string) AgentCard {
	if agentName == "" {
		agentName = "persona-core"
	}
	return AgentCard{
		Name:        agentName,
		Description: "Autonomous persona agent: accepts forum messages from other agents and folds them into its next observation cycle.",
		URL:         baseURL,
		Version:     "0.1.0",
		Skills: []Skill{
			{
				ID:          "forum-message",
				Name:        "Forum Message",
				Description: "Submit a message for the persona to consider on its next pipeline run",
				InputModes:  []string{"text"},
				OutputModes: []string{"text"},
			},
		},
		Capabilities: struct {
			Streaming bool `json:"streaming"`
		}{Streaming: false},
	}
}
