package ai

import (
	"errors"

	"github.com/cloudwego/eino/schema"

	"github.com/algomentor/dsa-tutor/backend/internal/model/chat"
)

var errEmptyConversation = errors.New("conversation has no turn to answer")

// Transcript is the provider-side view of a conversation. It is built per request and never stored.
type Transcript struct {
	Preamble []*schema.Message
	Turns    []*schema.Message
}

// BuildTranscript appends the relabelled history to the preamble.
//
// A leading assistant message is the synthetic greeting and is dropped. The
// remaining entries alternate user/assistant by position, ignoring their stored role.
func BuildTranscript(preamble []*schema.Message, messages []chat.Message) (Transcript, error) {
	turns := make([]*schema.Message, 0, len(messages))
	isUser := true
	for i, msg := range messages {
		if i == 0 && msg.Role == chat.RoleAssistant {
			continue
		}

		if isUser {
			turns = append(turns, schema.UserMessage(msg.Content))
		} else {
			turns = append(turns, schema.AssistantMessage(msg.Content, nil))
		}
		isUser = !isUser
	}

	if len(turns) == 0 {
		return Transcript{}, errEmptyConversation
	}

	return Transcript{Preamble: preamble, Turns: turns}, nil
}

// History is the prior context: the preamble plus every turn except the last.
func (t Transcript) History() []*schema.Message {
	history := make([]*schema.Message, 0, len(t.Preamble)+len(t.Turns)-1)
	history = append(history, t.Preamble...)
	history = append(history, t.Turns[:len(t.Turns)-1]...)
	return history
}

// Prompt is the held-out final turn the provider is asked to continue from.
func (t Transcript) Prompt() string {
	return t.Turns[len(t.Turns)-1].Content
}

func (t Transcript) chainInput() map[string]any {
	return map[string]any{
		"history": t.History(),
		"query":   t.Prompt(),
	}
}
