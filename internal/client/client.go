// Package client calls the tutor HTTP API. *Client satisfies chat.Turner so a
// session Store can run against a remote server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/algomentor/dsa-tutor/backend/internal/model/chat"
	"github.com/algomentor/dsa-tutor/backend/internal/model/persona"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// HTTPStatus returns the response status code.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

// Client talks to one tutor server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the server at baseURL. httpClient may be nil.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Reply posts one turn to /api/chat.
func (c *Client) Reply(ctx context.Context, req chat.TurnRequest) (chat.TurnReply, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return chat.TurnReply{}, fmt.Errorf("encode turn: %w", err)
	}

	var reply chat.TurnReply
	if err := c.do(ctx, http.MethodPost, "/api/chat", bytes.NewReader(body), &reply); err != nil {
		return chat.TurnReply{}, err
	}
	return reply, nil
}

// Personas lists the personas the server offers.
func (c *Client) Personas(ctx context.Context) ([]persona.Persona, error) {
	var personas []persona.Persona
	if err := c.do(ctx, http.MethodGet, "/api/personas", nil, &personas); err != nil {
		return nil, err
	}
	return personas, nil
}

// Greeting returns the opening assistant message for personaID.
func (c *Client) Greeting(ctx context.Context, personaID string) (chat.Message, error) {
	if personaID == "" {
		personaID = persona.DefaultID
	}
	var p persona.Persona
	if err := c.do(ctx, http.MethodGet, "/api/personas/"+personaID, nil, &p); err != nil {
		return chat.Message{}, err
	}
	return chat.Greeting(p.Greeting), nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errBody chat.ErrorBody
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil {
			apiErr.Message = errBody.Error
			apiErr.Details = errBody.Details
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
