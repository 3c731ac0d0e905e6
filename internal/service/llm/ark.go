package llm

import (
	"errors"

	arkmodel "github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"
)

// ProviderStatus extracts the HTTP status and provider message from err.
// It understands APIError and the errors returned by the Ark runtime client.
func ProviderStatus(err error) (status int, message string, ok bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, apiErr.Message, true
	}

	var arkErr *arkmodel.APIError
	if errors.As(err, &arkErr) && arkErr.HTTPStatusCode > 0 {
		message = arkErr.Message
		if message == "" {
			message = arkErr.Code
		}
		return arkErr.HTTPStatusCode, message, true
	}

	var reqErr *arkmodel.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		if reqErr.Err != nil {
			message = reqErr.Err.Error()
		}
		return reqErr.HTTPStatusCode, message, true
	}

	return 0, "", false
}
