package chat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyNotice(t *testing.T) {
	cases := []struct {
		err  error
		want NoticeCategory
	}{
		{errors.New("Rate limit exceeded. Please try again in a moment."), NoticeRateLimited},
		{errors.New("quota exhausted"), NoticeRateLimited},
		{errors.New("LLM API key is missing. Please set LLM_API_KEY in your environment or .env file."), NoticeConfiguration},
		{errors.New("Failed to generate response. Please try rephrasing your question."), NoticeGeneric},
		{errors.New("An unexpected error occurred. Please try again."), NoticeGeneric},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyNotice(tc.err).Category, tc.err.Error())
	}
}

func TestClassifyNoticeGenericKeepsDescription(t *testing.T) {
	notice := ClassifyNotice(errors.New("connection refused"))
	assert.Equal(t, "Error", notice.Title)
	assert.Equal(t, "connection refused", notice.Description)
}
