package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const providerOpenAI = "openai"

// OpenAIChatModel implements model.ChatModel on top of the OpenAI chat completions API.
type OpenAIChatModel struct {
	client openai.Client
	opts   Options
}

// NewOpenAIChatModel creates a chat model using the OpenAI API.
func NewOpenAIChatModel(opts Options) (*OpenAIChatModel, error) {
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
		opts.Model = "gpt-4o"
	}

	return &OpenAIChatModel{
		client: openai.NewClient(reqOpts...),
		opts:   opts,
	}, nil
}

// Generate sends the conversation and returns the complete reply.
func (m *OpenAIChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	params := m.params(input, callOptions(m.opts, opts))

	start := time.Now()
	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, wrapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: no choices in response")
	}

	log.Printf("[llm] openai completion model=%s duration_ms=%d prompt_tokens=%d completion_tokens=%d",
		params.Model, time.Since(start).Milliseconds(), resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	return schema.AssistantMessage(resp.Choices[0].Message.Content, nil), nil
}

// Stream sends the conversation and yields the reply incrementally.
func (m *OpenAIChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	params := m.params(input, callOptions(m.opts, opts))
	stream := m.client.Chat.Completions.NewStreaming(ctx, params)

	return pipeStream(func(emit func(string) bool) error {
		defer stream.Close()
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}
			if !emit(chunk.Choices[0].Delta.Content) {
				return nil
			}
		}
		if err := stream.Err(); err != nil {
			return wrapOpenAIError(err)
		}
		return nil
	}), nil
}

// BindTools is not supported.
func (m *OpenAIChatModel) BindTools(_ []*schema.ToolInfo) error {
	return errToolsUnsupported
}

func (m *OpenAIChatModel) params(input []*schema.Message, opts Options) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(input))
	for _, msg := range input {
		switch msg.Role {
		case schema.System:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case schema.Assistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	return openai.ChatCompletionNewParams{
		Model:               opts.Model,
		Messages:            messages,
		Temperature:         openai.Float(opts.Temperature),
		TopP:                openai.Float(opts.TopP),
		MaxCompletionTokens: openai.Int(int64(opts.MaxTokens)),
	}
}

func wrapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &APIError{
			Provider:   providerOpenAI,
			StatusCode: apiErr.StatusCode,
			Message:    apiErr.Error(),
			Err:        err,
		}
	}
	return fmt.Errorf("openai chat completion: %w", err)
}
