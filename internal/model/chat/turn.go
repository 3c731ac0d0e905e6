package chat

import (
	"encoding/json"
	"regexp"
)

// StatusSuccess marks a completed turn in TurnReply.
const StatusSuccess = "success"

// MaxVisibleMessages caps how many messages chat clients render at once.
const MaxVisibleMessages = 100

var problemURLPattern = regexp.MustCompile(`^https://(leetcode\.com|leetcode\.cn)/problems/[a-zA-Z0-9-]+/?`)

// ValidProblemURL reports whether url points at a LeetCode problem page.
func ValidProblemURL(url string) bool {
	return problemURLPattern.MatchString(url)
}

// TurnRequest is the inbound payload for one chat turn.
type TurnRequest struct {
	Messages  []Message `json:"messages"`
	Context   string    `json:"context,omitempty"`
	PersonaID string    `json:"personaId,omitempty"`
}

// UnmarshalJSON accepts the legacy leetCodeUrl field as an alias for context.
func (r *TurnRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Messages    []Message `json:"messages"`
		Context     string    `json:"context"`
		LeetCodeURL string    `json:"leetCodeUrl"`
		PersonaID   string    `json:"personaId"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Messages = raw.Messages
	r.Context = raw.Context
	if r.Context == "" {
		r.Context = raw.LeetCodeURL
	}
	r.PersonaID = raw.PersonaID
	return nil
}

// TurnReply is the normalized response for a successful turn.
type TurnReply struct {
	Content string `json:"content"`
	Role    Role   `json:"role"`
	Status  string `json:"status"`
}

// ErrorBody is the JSON shape of every failed turn.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
