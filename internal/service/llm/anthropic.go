package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const providerAnthropic = "anthropic"

// AnthropicChatModel implements model.ChatModel on top of the Anthropic messages API.
type AnthropicChatModel struct {
	client anthropic.Client
	opts   Options
}

// NewAnthropicChatModel creates a chat model using the Anthropic API.
func NewAnthropicChatModel(opts Options) (*AnthropicChatModel, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	if opts.Model == "" {
		opts.Model = "claude-sonnet-4-5"
	}

	return &AnthropicChatModel{
		client: anthropic.NewClient(reqOpts...),
		opts:   opts,
	}, nil
}

// Generate sends the conversation and returns the complete reply.
func (m *AnthropicChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	params := m.params(input, callOptions(m.opts, opts))

	start := time.Now()
	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return nil, wrapAnthropicError(err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	log.Printf("[llm] anthropic message model=%s duration_ms=%d input_tokens=%d output_tokens=%d stop_reason=%s",
		params.Model, time.Since(start).Milliseconds(), resp.Usage.InputTokens, resp.Usage.OutputTokens, resp.StopReason)

	return schema.AssistantMessage(content.String(), nil), nil
}

// Stream sends the conversation and yields text deltas as they arrive.
func (m *AnthropicChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	params := m.params(input, callOptions(m.opts, opts))
	stream := m.client.Messages.NewStreaming(ctx, params)

	return pipeStream(func(emit func(string) bool) error {
		defer stream.Close()
		for stream.Next() {
			event := stream.Current()
			delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
			if !ok {
				continue
			}
			text, ok := delta.Delta.AsAny().(anthropic.TextDelta)
			if !ok || text.Text == "" {
				continue
			}
			if !emit(text.Text) {
				return nil
			}
		}
		if err := stream.Err(); err != nil {
			return wrapAnthropicError(err)
		}
		return nil
	}), nil
}

// BindTools is not supported.
func (m *AnthropicChatModel) BindTools(_ []*schema.ToolInfo) error {
	return errToolsUnsupported
}

// params maps the transcript onto Anthropic messages; system turns are passed separately.
func (m *AnthropicChatModel) params(input []*schema.Message, opts Options) anthropic.MessageNewParams {
	var system []anthropic.TextBlockParam
	messages := make([]anthropic.MessageParam, 0, len(input))
	for _, msg := range input {
		switch msg.Role {
		case schema.System:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case schema.Assistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	// Recent Claude models reject temperature together with top_p, so only temperature is sent.
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(opts.Model),
		MaxTokens:   int64(opts.MaxTokens),
		Messages:    messages,
		Temperature: anthropic.Float(opts.Temperature),
	}
	if opts.TopK > 0 {
		params.TopK = anthropic.Int(int64(opts.TopK))
	}
	if len(system) > 0 {
		params.System = system
	}
	return params
}

func wrapAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &APIError{
			Provider:   providerAnthropic,
			StatusCode: apiErr.StatusCode,
			Message:    apiErr.Error(),
			Err:        err,
		}
	}
	return fmt.Errorf("anthropic messages: %w", err)
}
