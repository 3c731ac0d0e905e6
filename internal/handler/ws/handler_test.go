package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algomentor/dsa-tutor/backend/internal/model/chat"
)

type stubReplier struct {
	configured bool
	err        error
	delay      time.Duration
}

func (s *stubReplier) Configured() bool { return s.configured }

func (s *stubReplier) Reply(_ context.Context, req chat.TurnRequest) (chat.TurnReply, error) {
	time.Sleep(s.delay)
	if s.err != nil {
		return chat.TurnReply{}, s.err
	}
	last := req.Messages[len(req.Messages)-1]
	return chat.TurnReply{Content: "echo: " + last.Content, Role: chat.RoleAssistant, Status: chat.StatusSuccess}, nil
}

type frame struct {
	Type   string          `json:"type"`
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func dial(t *testing.T, svc *stubReplier) *websocket.Conn {
	t.Helper()
	return dialHandler(t, New(svc, nil))
}

func dialHandler(t *testing.T, h *Handler) *websocket.Conn {
	t.Helper()
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, payload string) frame {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(payload)))

	var got frame
	require.NoError(t, conn.ReadJSON(&got))
	return got
}

func TestWebSocketReply(t *testing.T) {
	conn := dial(t, &stubReplier{configured: true})

	got := roundTrip(t, conn, `{"messages":[{"role":"assistant","content":"Hi"},{"role":"user","content":"Q1"}]}`)
	assert.Equal(t, TypeReply, got.Type)
	assert.Equal(t, http.StatusOK, got.Status)

	var reply chat.TurnReply
	require.NoError(t, json.Unmarshal(got.Data, &reply))
	assert.Equal(t, "echo: Q1", reply.Content)
	assert.Equal(t, chat.RoleAssistant, reply.Role)

	second := roundTrip(t, conn, `{"messages":[{"role":"user","content":"Q2"}]}`)
	assert.Equal(t, TypeReply, second.Type)
}

func TestWebSocketErrors(t *testing.T) {
	conn := dial(t, &stubReplier{configured: true, err: errors.New("rate limit")})

	got := roundTrip(t, conn, `{"messages":[{"role":"user","content":"Q1"}]}`)
	assert.Equal(t, TypeError, got.Type)
	assert.Equal(t, http.StatusTooManyRequests, got.Status)

	got = roundTrip(t, conn, `not json`)
	assert.Equal(t, TypeError, got.Type)
	assert.Equal(t, http.StatusBadRequest, got.Status)
}

func TestWebSocketUnconfigured(t *testing.T) {
	conn := dial(t, &stubReplier{})

	got := roundTrip(t, conn, `{"messages":[{"role":"user","content":"Q1"}]}`)
	assert.Equal(t, http.StatusInternalServerError, got.Status)

	var body chat.ErrorBody
	require.NoError(t, json.Unmarshal(got.Data, &body))
	assert.Contains(t, body.Error, "API key")
}

func TestWebSocketSlowReplyKeepsConnection(t *testing.T) {
	h := New(&stubReplier{configured: true, delay: 300 * time.Millisecond}, nil)
	h.readTimeout = 100 * time.Millisecond
	conn := dialHandler(t, h)

	first := roundTrip(t, conn, `{"messages":[{"role":"user","content":"Q1"}]}`)
	assert.Equal(t, TypeReply, first.Type)

	second := roundTrip(t, conn, `{"messages":[{"role":"user","content":"Q2"}]}`)
	assert.Equal(t, TypeReply, second.Type)
}
