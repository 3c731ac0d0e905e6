package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chathandler "github.com/algomentor/dsa-tutor/backend/internal/handler/chat"
	"github.com/algomentor/dsa-tutor/backend/internal/model/chat"
	"github.com/algomentor/dsa-tutor/backend/internal/service/ai"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 25 * time.Second
	writeTimeout = 10 * time.Second
)

// Frame types sent to the client.
const (
	TypeReply = "reply"
	TypeError = "error"
)

// OutgoingMessage is one frame sent to the client.
type OutgoingMessage struct {
	Type      string      `json:"type"`
	Status    int         `json:"status"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// Handler answers chat turns over a WebSocket. Turns on one connection are
// handled sequentially, so a connection has at most one turn in flight.
type Handler struct {
	svc         chathandler.Replier
	upgrader    websocket.Upgrader
	readTimeout time.Duration
}

// New creates a WebSocket handler. checkOrigin may be nil to allow any origin.
func New(svc chathandler.Replier, checkOrigin func(r *http.Request) bool) *Handler {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Handler{
		svc:         svc,
		readTimeout: readTimeout,
		upgrader: websocket.Upgrader{
			CheckOrigin:     checkOrigin,
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// RegisterRoutes registers the WebSocket route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chat/ws", h.handleWebSocket)
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[ws] connection opened remote=%s", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(h.readTimeout))
		return nil
	})

	go h.pingLoop(ctx, conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read error: %v", err)
			}
			return
		}
		// A turn may outlast readTimeout; renew the deadline after each reply.
		if err := conn.WriteJSON(h.handleFrame(ctx, data)); err != nil {
			log.Printf("[ws] write error: %v", err)
			return
		}
		conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	}
}

// handleFrame answers one inbound TurnRequest frame.
func (h *Handler) handleFrame(ctx context.Context, data []byte) OutgoingMessage {
	if !h.svc.Configured() {
		return errorFrame(ai.Classify(ai.ErrMissingCredential))
	}

	var req chat.TurnRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return OutgoingMessage{
			Type:      TypeError,
			Status:    http.StatusBadRequest,
			Data:      chat.ErrorBody{Error: "Invalid messages format. Expected an array of messages.", Details: err.Error()},
			Timestamp: time.Now().UnixMilli(),
		}
	}

	reply, err := h.svc.Reply(ctx, req)
	if err != nil {
		return errorFrame(ai.Classify(err))
	}

	return OutgoingMessage{
		Type:      TypeReply,
		Status:    http.StatusOK,
		Data:      reply,
		Timestamp: time.Now().UnixMilli(),
	}
}

func errorFrame(turnErr *ai.TurnError) OutgoingMessage {
	return OutgoingMessage{
		Type:      TypeError,
		Status:    turnErr.HTTPStatus(),
		Data:      chat.ErrorBody{Error: turnErr.Message, Details: turnErr.Details},
		Timestamp: time.Now().UnixMilli(),
	}
}

func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				log.Printf("[ws] ping failed: %v", err)
				return
			}
		}
	}
}
