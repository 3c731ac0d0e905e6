package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/algomentor/dsa-tutor/backend/internal/config"
	"github.com/algomentor/dsa-tutor/backend/internal/model/chat"
	"github.com/algomentor/dsa-tutor/backend/internal/model/persona"
)

const tracerName = "github.com/algomentor/dsa-tutor/backend/internal/service/ai"

// Service is the turn adapter between chat clients and the model provider.
// It holds no per-conversation state and is safe for concurrent use.
type Service struct {
	chatModel model.ChatModel
	personas  persona.Store
	prompts   *PersonaPromptManager
	cfg       config.AIConfig
	chain     compose.Runnable[map[string]any, *schema.Message]
	tracer    trace.Tracer
}

// NewService creates the turn adapter. A nil chatModel means the provider
// credential is missing; every turn then fails with a configuration error.
func NewService(ctx context.Context, chatModel model.ChatModel, personas persona.Store, cfg config.AIConfig) (*Service, error) {
	svc := &Service{
		chatModel: chatModel,
		personas:  personas,
		prompts:   NewPersonaPromptManager(),
		cfg:       cfg,
		tracer:    otel.Tracer(tracerName),
	}
	if chatModel == nil {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("history", false),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile tutor chain: %w", err)
	}
	svc.chain = runnable

	return svc, nil
}

// Configured reports whether a provider client is available.
func (s *Service) Configured() bool {
	return s.chatModel != nil
}

// StreamingEnabled reports whether replies may be streamed.
func (s *Service) StreamingEnabled() bool {
	return s.cfg.StreamResponse
}

// Reply answers one turn. Failures are always *TurnError.
func (s *Service) Reply(ctx context.Context, req chat.TurnRequest) (chat.TurnReply, error) {
	ctx, span := s.startSpan(ctx, "tutor.reply", req)
	defer span.End()

	transcript, turnErr := s.prepare(req)
	if turnErr != nil {
		return chat.TurnReply{}, s.fail(span, turnErr)
	}

	response, err := s.chain.Invoke(ctx, transcript.chainInput())
	if err != nil {
		return chat.TurnReply{}, s.fail(span, s.Classify(fmt.Errorf("failed to run tutor chain: %w", err)))
	}

	log.Printf("[ai] reply generated persona=%s turns=%d length=%d", personaLabel(req.PersonaID), len(transcript.Turns), len(response.Content))
	span.SetAttributes(attribute.Int("tutor.reply_length", len(response.Content)))

	return chat.TurnReply{
		Content: response.Content,
		Role:    chat.RoleAssistant,
		Status:  chat.StatusSuccess,
	}, nil
}

// StreamReply answers one turn incrementally. Errors returned before the
// stream opens are *TurnError; errors read from the stream go through Classify.
// The turn's span stays open until the stream is drained or closed.
func (s *Service) StreamReply(ctx context.Context, req chat.TurnRequest) (*schema.StreamReader[*schema.Message], error) {
	ctx, span := s.startSpan(ctx, "tutor.stream", req)

	if !s.StreamingEnabled() {
		defer span.End()
		return nil, s.fail(span, &TurnError{Kind: KindConfiguration, Status: http.StatusInternalServerError, Message: "Streaming is disabled.", Err: errors.New("streaming disabled in configuration")})
	}

	transcript, turnErr := s.prepare(req)
	if turnErr != nil {
		defer span.End()
		return nil, s.fail(span, turnErr)
	}

	stream, err := s.chain.Stream(ctx, transcript.chainInput())
	if err != nil {
		defer span.End()
		return nil, s.fail(span, s.Classify(fmt.Errorf("failed to stream tutor chain: %w", err)))
	}

	return s.traceStream(span, stream), nil
}

// traceStream forwards chunks from in and ends span once in is exhausted,
// fails, or the caller closes the returned reader.
func (s *Service) traceStream(span trace.Span, in *schema.StreamReader[*schema.Message]) *schema.StreamReader[*schema.Message] {
	out, writer := schema.Pipe[*schema.Message](0)

	go func() {
		defer writer.Close()
		defer in.Close()

		length := 0
		for {
			chunk, err := in.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				s.fail(span, s.Classify(err))
				span.End()
				writer.Send(nil, err)
				return
			}
			if chunk != nil {
				length += len(chunk.Content)
			}
			if closed := writer.Send(chunk, nil); closed {
				break
			}
		}

		span.SetAttributes(attribute.Int("tutor.reply_length", length))
		span.End()
	}()

	return out
}

// Classify normalizes err and strips the provider credential from its details.
func (s *Service) Classify(err error) *TurnError {
	return redact(Classify(err), s.cfg.APIKey)
}

// prepare runs every check that must pass before the provider is contacted.
func (s *Service) prepare(req chat.TurnRequest) (Transcript, *TurnError) {
	if !s.Configured() {
		return Transcript{}, Classify(ErrMissingCredential)
	}

	if err := chat.ValidateMessages(req.Messages); err != nil {
		return Transcript{}, invalidInput("Invalid messages format. Expected an array of messages.", err)
	}

	if req.Context != "" && !chat.ValidProblemURL(req.Context) {
		return Transcript{}, invalidInput("Invalid LeetCode URL. Please provide a valid LeetCode problem URL.", nil)
	}

	p, ok := s.personas.FindByID(req.PersonaID)
	if !ok {
		return Transcript{}, invalidInput(fmt.Sprintf("Unknown persona %q.", req.PersonaID), nil)
	}

	transcript, err := BuildTranscript(s.prompts.BuildPreamble(p, req.Context), req.Messages)
	if err != nil {
		return Transcript{}, invalidInput("The conversation has no question to answer.", err)
	}

	return transcript, nil
}

func (s *Service) startSpan(ctx context.Context, name string, req chat.TurnRequest) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("tutor.persona", personaLabel(req.PersonaID)),
		attribute.Int("tutor.messages", len(req.Messages)),
		attribute.Bool("tutor.has_problem", req.Context != ""),
		attribute.String("llm.provider", s.cfg.Provider),
	))
}

func (s *Service) fail(span trace.Span, turnErr *TurnError) *TurnError {
	turnErr = redact(turnErr, s.cfg.APIKey)

	span.SetAttributes(attribute.String("tutor.error_kind", string(turnErr.Kind)))
	span.SetStatus(codes.Error, turnErr.Message)
	if turnErr.Err != nil {
		span.RecordError(turnErr.Err)
	}

	if turnErr.Kind == KindInvalidInput && turnErr.Details == "" {
		log.Printf("[ai] turn rejected: %s", turnErr.Message)
	} else {
		log.Printf("[ai] turn failed kind=%s status=%d: %v", turnErr.Kind, turnErr.Status, s.logCause(turnErr))
	}
	return turnErr
}

func (s *Service) logCause(turnErr *TurnError) string {
	cause := turnErr.Message
	if turnErr.Err != nil {
		cause = turnErr.Err.Error()
	}
	if s.cfg.APIKey != "" {
		cause = strings.ReplaceAll(cause, s.cfg.APIKey, "[redacted]")
	}
	return cause
}

func personaLabel(id string) string {
	if id == "" {
		return persona.DefaultID
	}
	return id
}
