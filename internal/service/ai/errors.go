package ai

import (
	"errors"
	"net/http"
	"strings"

	"github.com/algomentor/dsa-tutor/backend/internal/service/llm"
)

// Kind classifies a failed turn.
type Kind string

const (
	KindInvalidInput  Kind = "invalid_input"
	KindConfiguration Kind = "configuration"
	KindRateLimited   Kind = "rate_limited"
	KindProvider      Kind = "provider"
	KindUnknown       Kind = "unknown"
)

var (
	// ErrMissingCredential means no provider client was configured.
	ErrMissingCredential = errors.New("model provider credential not configured")
	// ErrInvalidInput marks request validation failures.
	ErrInvalidInput = errors.New("invalid turn request")
)

// User-facing messages. Clients match on "rate limit" and "API key".
const (
	msgMissingCredential = "LLM API key is missing. Please set LLM_API_KEY in your environment or .env file."
	msgBadCredential     = "The model provider rejected the configured API key."
	msgRateLimited       = "Rate limit exceeded. Please try again in a moment."
	msgProviderRejected  = "Failed to generate response. Please try rephrasing your question."
	msgProviderFailed    = "The model provider is unavailable. Please try again."
	msgUnknown           = "An unexpected error occurred. Please try again."
)

// TurnError is the normalized failure of a turn. Error returns only the user-facing message.
type TurnError struct {
	Kind    Kind
	Status  int
	Message string
	Details string
	Err     error
}

func (e *TurnError) Error() string {
	return e.Message
}

func (e *TurnError) Unwrap() error {
	return e.Err
}

// HTTPStatus is the response status the boundary uses for this error.
func (e *TurnError) HTTPStatus() int {
	return e.Status
}

func invalidInput(message string, cause error) *TurnError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &TurnError{
		Kind:    KindInvalidInput,
		Status:  http.StatusBadRequest,
		Message: message,
		Details: details,
		Err:     errors.Join(ErrInvalidInput, cause),
	}
}

// Classify maps any error into a TurnError.
func Classify(err error) *TurnError {
	if err == nil {
		return nil
	}

	var turnErr *TurnError
	if errors.As(err, &turnErr) {
		return turnErr
	}

	if errors.Is(err, ErrMissingCredential) {
		return &TurnError{Kind: KindConfiguration, Status: http.StatusInternalServerError, Message: msgMissingCredential, Err: err}
	}
	if errors.Is(err, ErrInvalidInput) {
		return invalidInput("Invalid request.", err)
	}

	status, providerMsg, hasStatus := llm.ProviderStatus(err)
	text := strings.ToLower(err.Error())

	if (hasStatus && status == http.StatusTooManyRequests) || strings.Contains(text, "rate") || strings.Contains(text, "quota") {
		return &TurnError{Kind: KindRateLimited, Status: http.StatusTooManyRequests, Message: msgRateLimited, Err: err}
	}

	if (hasStatus && (status == http.StatusUnauthorized || status == http.StatusForbidden)) ||
		strings.Contains(text, "api key") {
		return &TurnError{Kind: KindConfiguration, Status: http.StatusInternalServerError, Message: msgBadCredential, Err: err}
	}

	if hasStatus {
		if status >= http.StatusInternalServerError {
			return &TurnError{Kind: KindProvider, Status: http.StatusInternalServerError, Message: msgProviderFailed, Details: providerMsg, Err: err}
		}
		return &TurnError{Kind: KindInvalidInput, Status: http.StatusBadRequest, Message: msgProviderRejected, Details: providerMsg, Err: err}
	}

	return &TurnError{Kind: KindUnknown, Status: http.StatusInternalServerError, Message: msgUnknown, Err: err}
}

// redact removes secret from the error details.
func redact(e *TurnError, secret string) *TurnError {
	if e == nil || secret == "" || !strings.Contains(e.Details, secret) {
		return e
	}
	cp := *e
	cp.Details = strings.ReplaceAll(cp.Details, secret, "[redacted]")
	return &cp
}
