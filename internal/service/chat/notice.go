package chat

import (
	"errors"
	"net/http"
	"strings"
)

// NoticeCategory groups turn failures for presentation.
type NoticeCategory string

const (
	NoticeRateLimited   NoticeCategory = "rate-limited"
	NoticeConfiguration NoticeCategory = "configuration"
	NoticeGeneric       NoticeCategory = "generic"
)

// Notice is what a client shows the user after a failed turn.
type Notice struct {
	Category    NoticeCategory
	Title       string
	Description string
}

type statusCoder interface {
	HTTPStatus() int
}

// ClassifyNotice picks the notice for err from its status and description.
func ClassifyNotice(err error) Notice {
	if err == nil {
		return Notice{}
	}

	description := err.Error()
	if description == "" {
		description = "Something went wrong"
	}
	lower := strings.ToLower(description)

	var coded statusCoder
	rateLimited := errors.As(err, &coded) && coded.HTTPStatus() == http.StatusTooManyRequests

	switch {
	case rateLimited || strings.Contains(lower, "rate limit") || strings.Contains(lower, "quota"):
		return Notice{
			Category:    NoticeRateLimited,
			Title:       "Rate Limit Exceeded",
			Description: "Please wait a moment before sending another message.",
		}
	case strings.Contains(lower, "api key"):
		return Notice{
			Category:    NoticeConfiguration,
			Title:       "API Key Error",
			Description: "There's an issue with the API configuration. Please try again later.",
		}
	default:
		return Notice{
			Category:    NoticeGeneric,
			Title:       "Error",
			Description: description,
		}
	}
}
