// Package observation defines the shape the pipeline runner's observe
// step returns: the platform-agnostic slice of the world a candidate
// proposer scores against (spec.md §4.2's observe contract).
package observation

// Notification is one pending, actor-originated event the persona may
// react to.
type Notification struct {
	ID        string `json:"id"`
	Actor     string `json:"actor"`
	ActorIsBot bool  `json:"actor_is_bot"`
	RootURI   string `json:"root_uri,omitempty"`
	TargetURI string `json:"target_uri,omitempty"`
	ReplyTo   string `json:"reply_to,omitempty"`
	CID       string `json:"cid,omitempty"`
	Text      string `json:"text,omitempty"`
}

// Thread is a conversation root the persona is tracking, independent
// of any single pending notification.
type Thread struct {
	RootURI      string `json:"root_uri"`
	ReplyCount   int    `json:"reply_count"`
	HasOpenAsk   bool   `json:"has_open_ask"`
}

// Profile is a lightweight view of an actor the proposer may weigh
// when scoring candidates (e.g. consent status, interaction history).
type Profile struct {
	Actor      string `json:"actor"`
	IsBot      bool   `json:"is_bot"`
	Consented  bool   `json:"consented"`
}

// ForumMessage is a message submitted by another agent on the
// agent-to-agent forum surface (spec.md §1; SPEC_FULL §6.7), drained
// into the observation for this cycle.
type ForumMessage struct {
	ID   string `json:"id"`
	From string `json:"from"`
	Text string `json:"text"`
}

// LocalContext carries state the proposer needs that isn't itself an
// observed event: open reply references, any consent changes surfaced
// this cycle, and forum messages drained since the last observe().
type LocalContext struct {
	ReplyRefs      []string        `json:"reply_refs,omitempty"`
	ConsentUpdates map[string]bool `json:"consent_updates,omitempty"`
	ForumMessages  []ForumMessage  `json:"forum_messages,omitempty"`
}

// Observation is the full result of one observe() call.
type Observation struct {
	Notifications     []Notification `json:"notifications,omitempty"`
	Threads            []Thread        `json:"threads,omitempty"`
	Profiles            []Profile       `json:"profiles,omitempty"`
	Local               LocalContext    `json:"local_context"`
	NeedMoreContext     bool            `json:"need_more_context"`
	SkipPollSuggested   bool            `json:"skip_poll_suggested"`
	PollHash            string          `json:"poll_hash,omitempty"`
}
