// Package llm adapts hosted model SDKs to eino's ChatModel interface.
package llm

import (
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Options holds the settings shared by every SDK-backed chat model.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	TopP        float64
	TopK        int
	MaxTokens   int
}

// APIError is returned when the provider answered with an error status.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// callOptions merges per-call eino options over the configured defaults.
func callOptions(base Options, opts []model.Option) Options {
	temperature := float32(base.Temperature)
	topP := float32(base.TopP)
	maxTokens := base.MaxTokens
	modelName := base.Model

	common := model.GetCommonOptions(&model.Options{
		Temperature: &temperature,
		TopP:        &topP,
		MaxTokens:   &maxTokens,
		Model:       &modelName,
	}, opts...)

	merged := base
	if common.Temperature != nil {
		merged.Temperature = float64(*common.Temperature)
	}
	if common.TopP != nil {
		merged.TopP = float64(*common.TopP)
	}
	if common.MaxTokens != nil {
		merged.MaxTokens = *common.MaxTokens
	}
	if common.Model != nil && *common.Model != "" {
		merged.Model = *common.Model
	}
	return merged
}

// pipeStream runs produce in a goroutine and exposes its chunks as an eino stream.
func pipeStream(produce func(emit func(string) bool) error) *schema.StreamReader[*schema.Message] {
	reader, writer := schema.Pipe[*schema.Message](8)
	go func() {
		defer writer.Close()
		err := produce(func(delta string) bool {
			closed := writer.Send(&schema.Message{Role: schema.Assistant, Content: delta}, nil)
			return !closed
		})
		if err != nil {
			writer.Send(nil, err)
		}
	}()
	return reader
}

var errToolsUnsupported = fmt.Errorf("tool calling is not supported by the tutor chat models")
