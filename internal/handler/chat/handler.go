package chat

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/algomentor/dsa-tutor/backend/internal/model/chat"
	"github.com/algomentor/dsa-tutor/backend/internal/service/ai"
	"github.com/algomentor/dsa-tutor/backend/pkg/utils"
)

// maxBodyBytes bounds the size of a turn request.
const maxBodyBytes = 1 << 20

// Replier is the turn adapter the handler forwards to.
type Replier interface {
	Configured() bool
	Reply(ctx context.Context, req chat.TurnRequest) (chat.TurnReply, error)
}

// Handler serves the chat turn endpoint.
type Handler struct {
	svc Replier
}

// New creates a chat handler.
func New(svc Replier) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleTurn)
}

// handleTurn answers one chat turn.
func (h *Handler) handleTurn(w http.ResponseWriter, r *http.Request) {
	if !h.svc.Configured() {
		respondTurnError(w, ai.ErrMissingCredential)
		return
	}

	req, ok := DecodeTurnRequest(w, r)
	if !ok {
		return
	}

	reply, err := h.svc.Reply(r.Context(), req)
	if err != nil {
		respondTurnError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, reply)
}

// DecodeTurnRequest reads a TurnRequest body, writing a 400 response on failure.
func DecodeTurnRequest(w http.ResponseWriter, r *http.Request) (chat.TurnRequest, bool) {
	var req chat.TurnRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		utils.RespondErrorDetails(w, http.StatusBadRequest, "Invalid messages format. Expected an array of messages.", err.Error())
		return chat.TurnRequest{}, false
	}
	return req, true
}

func respondTurnError(w http.ResponseWriter, err error) {
	turnErr := ai.Classify(err)
	utils.RespondErrorDetails(w, turnErr.HTTPStatus(), turnErr.Message, turnErr.Details)
}
