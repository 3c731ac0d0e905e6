package ai

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/algomentor/dsa-tutor/backend/internal/model/persona"
)

// PersonaPromptManager renders the persona preamble sent ahead of every conversation.
type PersonaPromptManager struct{}

// NewPersonaPromptManager creates a prompt manager.
func NewPersonaPromptManager() *PersonaPromptManager {
	return &PersonaPromptManager{}
}

// BuildInstructions creates the instruction block, adding problem guidance when a link is given.
func (pm *PersonaPromptManager) BuildInstructions(p persona.Persona, problemURL string) string {
	var builder strings.Builder
	builder.WriteString(p.Instructions)

	if len(p.Rules) > 0 {
		builder.WriteString("\n\nImportant rules:\n- ")
		builder.WriteString(strings.Join(p.Rules, "\n- "))
	}

	if problemURL != "" {
		builder.WriteString(fmt.Sprintf("\n\nThe user is working on this LeetCode problem: %s", problemURL))
		if len(p.ProblemSteps) > 0 {
			builder.WriteString("\nBefore addressing their question:")
			for i, step := range p.ProblemSteps {
				builder.WriteString(fmt.Sprintf("\n%d. %s", i+1, step))
			}
		}
	}

	return builder.String()
}

// BuildPreamble returns the instruction turn and the canned acknowledgment.
func (pm *PersonaPromptManager) BuildPreamble(p persona.Persona, problemURL string) []*schema.Message {
	return []*schema.Message{
		schema.UserMessage(pm.BuildInstructions(p, problemURL)),
		schema.AssistantMessage(p.Acknowledgment, nil),
	}
}
