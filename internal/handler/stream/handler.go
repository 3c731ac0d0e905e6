package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"

	chathandler "github.com/algomentor/dsa-tutor/backend/internal/handler/chat"
	"github.com/algomentor/dsa-tutor/backend/internal/model/chat"
	"github.com/algomentor/dsa-tutor/backend/internal/service/ai"
	"github.com/algomentor/dsa-tutor/backend/pkg/utils"
)

// TurnStreamer is the part of the turn adapter used for streaming.
type TurnStreamer interface {
	Configured() bool
	StreamingEnabled() bool
	Reply(ctx context.Context, req chat.TurnRequest) (chat.TurnReply, error)
	StreamReply(ctx context.Context, req chat.TurnRequest) (*schema.StreamReader[*schema.Message], error)
	Classify(err error) *ai.TurnError
}

// Handler streams tutor replies via Server-Sent Events.
type Handler struct {
	svc TurnStreamer
}

// New creates a stream handler.
func New(svc TurnStreamer) *Handler {
	return &Handler{svc: svc}
}

// StreamResponse is one event on the wire.
type StreamResponse struct {
	Event    string    `json:"event"`
	Content  string    `json:"content,omitempty"`
	Role     chat.Role `json:"role,omitempty"`
	Finished bool      `json:"finished,omitempty"`
	Status   int       `json:"status,omitempty"`
	Error    string    `json:"error,omitempty"`
	Details  string    `json:"details,omitempty"`
}

// RegisterRoutes registers the streaming route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/stream", h.handleStream)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	if !h.svc.Configured() {
		turnErr := h.svc.Classify(ai.ErrMissingCredential)
		utils.RespondErrorDetails(w, turnErr.HTTPStatus(), turnErr.Message, turnErr.Details)
		return
	}

	req, ok := chathandler.DecodeTurnRequest(w, r)
	if !ok {
		return
	}

	if err := h.HandleStreamRequest(r.Context(), w, flusher, req); err != nil {
		log.Printf("[stream] turn failed: %v", err)
	}
}

// HandleStreamRequest emits start, delta*, message and end events for one turn.
// Failures before the first event are written as a JSON error response instead.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, req chat.TurnRequest) error {
	if !h.svc.StreamingEnabled() {
		reply, err := h.svc.Reply(ctx, req)
		if err != nil {
			h.respondError(w, err)
			return err
		}

		utils.SetupSSEHeaders(w)
		h.sendSSE(w, flusher, StreamResponse{Event: "start"})
		h.sendSSE(w, flusher, StreamResponse{Event: "message", Content: reply.Content, Role: reply.Role})
		h.sendSSE(w, flusher, StreamResponse{Event: "end", Finished: true})
		return nil
	}

	stream, err := h.svc.StreamReply(ctx, req)
	if err != nil {
		h.respondError(w, err)
		return err
	}
	defer stream.Close()

	utils.SetupSSEHeaders(w)
	h.sendSSE(w, flusher, StreamResponse{Event: "start"})

	chunks := make([]*schema.Message, 0, 8)
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			h.sendSSEError(w, flusher, h.svc.Classify(recvErr))
			return fmt.Errorf("receive stream chunk: %w", recvErr)
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			h.sendSSE(w, flusher, StreamResponse{Event: "delta", Content: chunk.Content})
		}
	}

	content := ""
	if len(chunks) > 0 {
		response, err := schema.ConcatMessages(chunks)
		if err != nil {
			h.sendSSEError(w, flusher, h.svc.Classify(err))
			return err
		}
		content = response.Content
	}

	h.sendSSE(w, flusher, StreamResponse{Event: "message", Content: content, Role: chat.RoleAssistant})
	h.sendSSE(w, flusher, StreamResponse{Event: "end", Finished: true})

	log.Printf("[stream] completed reply length=%d", len(content))
	return nil
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	turnErr := h.svc.Classify(err)
	utils.RespondErrorDetails(w, turnErr.HTTPStatus(), turnErr.Message, turnErr.Details)
}

func (h *Handler) sendSSE(w http.ResponseWriter, flusher http.Flusher, response StreamResponse) {
	utils.SendSSEEvent(w, flusher, response.Event, response)
}

func (h *Handler) sendSSEError(w http.ResponseWriter, flusher http.Flusher, turnErr *ai.TurnError) {
	h.sendSSE(w, flusher, StreamResponse{
		Event:   "error",
		Status:  turnErr.HTTPStatus(),
		Error:   turnErr.Message,
		Details: turnErr.Details,
	})
}
