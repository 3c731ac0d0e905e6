package ai

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algomentor/dsa-tutor/backend/internal/model/chat"
	"github.com/algomentor/dsa-tutor/backend/internal/model/persona"
)

func tutorPreamble(problemURL string) []*schema.Message {
	p, _ := persona.NewMemoryStore(persona.Seed()).FindByID("")
	return NewPersonaPromptManager().BuildPreamble(p, problemURL)
}

func TestBuildTranscriptDropsGreeting(t *testing.T) {
	messages := []chat.Message{
		{Role: chat.RoleAssistant, Content: "Hi"},
		{Role: chat.RoleUser, Content: "Q1"},
	}

	transcript, err := BuildTranscript(tutorPreamble(""), messages)
	require.NoError(t, err)

	require.Len(t, transcript.Turns, 1)
	assert.Equal(t, schema.User, transcript.Turns[0].Role)
	assert.Equal(t, "Q1", transcript.Turns[0].Content)
	assert.Equal(t, "Q1", transcript.Prompt())
	assert.Len(t, transcript.History(), 2)
}

func TestBuildTranscriptRelabelsByPosition(t *testing.T) {
	// Two user turns in a row (retry after an error) are still labelled by position.
	messages := []chat.Message{
		{Role: chat.RoleAssistant, Content: "Hi"},
		{Role: chat.RoleUser, Content: "Q1"},
		{Role: chat.RoleUser, Content: "Q1 again"},
		{Role: chat.RoleAssistant, Content: "A1"},
		{Role: chat.RoleUser, Content: "Q2"},
	}

	transcript, err := BuildTranscript(tutorPreamble(""), messages)
	require.NoError(t, err)

	roles := make([]schema.RoleType, 0, len(transcript.Turns))
	for _, turn := range transcript.Turns {
		roles = append(roles, turn.Role)
	}
	assert.Equal(t, []schema.RoleType{schema.User, schema.Assistant, schema.User, schema.Assistant}, roles)
	assert.Equal(t, "Q2", transcript.Prompt())

	history := transcript.History()
	require.Len(t, history, 5)
	assert.Equal(t, "A1", history[4].Content)
}

func TestBuildTranscriptKeepsLeadingUserMessage(t *testing.T) {
	messages := []chat.Message{
		{Role: chat.RoleUser, Content: "Q1"},
		{Role: chat.RoleAssistant, Content: "A1"},
		{Role: chat.RoleUser, Content: "Q2"},
	}

	transcript, err := BuildTranscript(tutorPreamble(""), messages)
	require.NoError(t, err)
	assert.Len(t, transcript.Turns, 3)
	assert.Equal(t, "Q1", transcript.Turns[0].Content)
}

func TestBuildTranscriptOnlyAssistantAfterFirst(t *testing.T) {
	messages := []chat.Message{
		{Role: chat.RoleAssistant, Content: "Hi"},
		{Role: chat.RoleAssistant, Content: "Still here"},
	}

	transcript, err := BuildTranscript(tutorPreamble(""), messages)
	require.NoError(t, err)
	assert.Equal(t, schema.User, transcript.Turns[0].Role)
}

func TestBuildTranscriptEmpty(t *testing.T) {
	_, err := BuildTranscript(tutorPreamble(""), nil)
	assert.ErrorIs(t, err, errEmptyConversation)

	_, err = BuildTranscript(tutorPreamble(""), []chat.Message{{Role: chat.RoleAssistant, Content: "Hi"}})
	assert.ErrorIs(t, err, errEmptyConversation)
}

func TestBuildPreamble(t *testing.T) {
	preamble := tutorPreamble("https://leetcode.com/problems/two-sum/")
	require.Len(t, preamble, 2)

	assert.Equal(t, schema.User, preamble[0].Role)
	assert.Contains(t, preamble[0].Content, "NEVER provide complete solutions")
	assert.Contains(t, preamble[0].Content, "The user is working on this LeetCode problem: https://leetcode.com/problems/two-sum/")
	assert.Contains(t, preamble[0].Content, "1. Briefly analyze")

	assert.Equal(t, schema.Assistant, preamble[1].Role)
	assert.Contains(t, preamble[1].Content, "I understand my role")

	plain := tutorPreamble("")
	assert.NotContains(t, plain[0].Content, "LeetCode problem:")
}
