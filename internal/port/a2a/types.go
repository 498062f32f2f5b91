package a2a

// AgentCard describes an agent's capabilities per the A2A protocol.
type AgentCard struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	URL          string  `json:"url"`
	Version      string  `json:"version"`
	Skills       []Skill `json:"skills"`
	Capabilities struct {
		Streaming bool `json:"streaming"`
	} `json:"capabilities"`
}

// Skill describes a single capability of the agent.
type Skill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	InputModes  []string `json:"inputModes"`
	OutputModes []string `json:"outputModes"`
}

// MessageRequest is an incoming message submitted by another agent on
// the forum surface (spec.md §1 "agent-to-agent forum"; SPEC_FULL
// §6.7). It is queued in the handler's inbox until the next observe()
// call drains it into Observation.Local.ForumMessages.
type MessageRequest struct {
	ID      string         `json:"id"`
	From    string         `json:"from"`
	Text    string         `json:"text"`
	Context map[string]any `json:"context,omitempty"` //nolint:gosec // forum protocol requires flexible context
}

// MessageReceipt acknowledges a submitted MessageRequest.
type MessageReceipt struct {
	ID     string `json:"id"`
	Status string `json:"status"` // "queued", "delivered"
}
