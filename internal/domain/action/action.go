// Package action defines candidate actions proposed against an
// observation and their scored form, per spec.md §3.3 and §4.6.
package action

// Kind is the closed set of action kinds a candidate may take.
type Kind string

const (
	Reply  Kind = "REPLY"
	Post   Kind = "POST"
	Quote  Kind = "QUOTE"
	Like   Kind = "LIKE"
	Follow Kind = "FOLLOW"
	Mute   Kind = "MUTE"
	Block  Kind = "BLOCK"
	Ignore Kind = "IGNORE"
	Queue  Kind = "QUEUE"
)

// Metadata carries the optional, action-kind-specific context a
// candidate needs downstream (notification linkage, thread linkage).
type Metadata struct {
	NotificationID string `json:"notification_id,omitempty"`
	CID            string `json:"cid,omitempty"`
	Actor          string `json:"actor,omitempty"`
	ReplyTo        string `json:"reply_to,omitempty"`
	RootURI        string `json:"root_uri,omitempty"`
	QuoteURI       string `json:"quote_uri,omitempty"`
	ArtifactOK     bool   `json:"artifact_ok,omitempty"`
}

// UtilityComponents are the raw inputs to the J scoring function
// (spec.md §4.2's score_actions contract).
type UtilityComponents struct {
	DeltaU      float64
	VOI         float64
	Optionality float64
	Cost        float64
	Risk        float64
	Fatigue     float64
}

// Candidate is one proposed action awaiting scoring.
type Candidate struct {
	Kind        Kind
	TargetURI   string
	Text        string
	Intent      string
	Constraints []string
	RiskFlags   []string
	AbortIf     []string
	Confidence  float64 // [0,1]
	Salience    float64 // [0,1]
	Utility     UtilityComponents
	Metadata    Metadata
}

// Scored pairs a Candidate with its computed J value.
type Scored struct {
	Candidate Candidate
	J         float64
}

// IsBot reports whether the metadata actor looks like an automated
// account, used by the consent rule in spec.md §6.3. The core has no
// platform-specific bot registry; it defers to an explicit flag set by
// the proposer via a constraint marker.
func (c Candidate) IsBot() bool {
	for _, cst := range c.Constraints {
		if cst == "actor_is_bot" {
			return true
		}
	}
	return false
}
