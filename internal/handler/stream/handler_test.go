package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"

	"github.com/algomentor/dsa-tutor/backend/internal/model/chat"
	"github.com/algomentor/dsa-tutor/backend/internal/service/ai"
)

type stubStreamer struct {
	configured bool
	streaming  bool
	chunks     []string
	err        error
	midErr     error
}

func (s *stubStreamer) Configured() bool       { return s.configured }
func (s *stubStreamer) StreamingEnabled() bool { return s.streaming }
func (s *stubStreamer) Classify(err error) *ai.TurnError {
	return ai.Classify(err)
}

func (s *stubStreamer) Reply(_ context.Context, _ chat.TurnRequest) (chat.TurnReply, error) {
	if s.err != nil {
		return chat.TurnReply{}, s.err
	}
	return chat.TurnReply{Content: strings.Join(s.chunks, ""), Role: chat.RoleAssistant, Status: chat.StatusSuccess}, nil
}

func (s *stubStreamer) StreamReply(_ context.Context, _ chat.TurnRequest) (*schema.StreamReader[*schema.Message], error) {
	if s.err != nil {
		return nil, s.err
	}
	reader, writer := schema.Pipe[*schema.Message](len(s.chunks) + 1)
	for _, c := range s.chunks {
		writer.Send(schema.AssistantMessage(c, nil), nil)
	}
	if s.midErr != nil {
		writer.Send(nil, s.midErr)
	}
	writer.Close()
	return reader, nil
}

func doStream(t *testing.T, svc *stubStreamer) (*httptest.ResponseRecorder, []StreamResponse) {
	t.Helper()
	r := chi.NewRouter()
	New(svc).RegisterRoutes(r)

	payload := []byte(`{"messages":[{"role":"assistant","content":"Hi"},{"role":"user","content":"Q1"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/chat/stream", bytes.NewReader(payload))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	var events []StreamResponse
	name := ""
	scanner := bufio.NewScanner(strings.NewReader(resp.Body.String()))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: ") {
			name = strings.TrimPrefix(line, "event: ")
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev StreamResponse
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		if name != ev.Event {
			t.Fatalf("sse event name %q does not match payload event %q", name, ev.Event)
		}
		name = ""
		events = append(events, ev)
	}
	return resp, events
}

func eventNames(events []StreamResponse) []string {
	names := make([]string, 0, len(events))
	for _, ev := range events {
		names = append(names, ev.Event)
	}
	return names
}

func TestStreamEmitsDeltasAndMessage(t *testing.T) {
	_, events := doStream(t, &stubStreamer{configured: true, streaming: true, chunks: []string{"Think ", "first."}})

	got := strings.Join(eventNames(events), ",")
	if got != "start,delta,delta,message,end" {
		t.Fatalf("unexpected events %s", got)
	}
	if events[3].Content != "Think first." || events[3].Role != chat.RoleAssistant {
		t.Fatalf("unexpected final message %+v", events[3])
	}
}

func TestStreamFallsBackWhenDisabled(t *testing.T) {
	_, events := doStream(t, &stubStreamer{configured: true, streaming: false, chunks: []string{"whole reply"}})

	got := strings.Join(eventNames(events), ",")
	if got != "start,message,end" {
		t.Fatalf("unexpected events %s", got)
	}
}

func TestStreamErrorBeforeStartIsJSON(t *testing.T) {
	resp, events := doStream(t, &stubStreamer{configured: true, streaming: true, err: errors.New("quota exceeded")})

	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

func TestStreamErrorMidway(t *testing.T) {
	_, events := doStream(t, &stubStreamer{configured: true, streaming: true, chunks: []string{"partial"}, midErr: errors.New("connection reset")})

	last := events[len(events)-1]
	if last.Event != "error" || last.Status != http.StatusInternalServerError {
		t.Fatalf("expected trailing error event, got %+v", last)
	}
}

func TestStreamUnconfigured(t *testing.T) {
	resp, _ := doStream(t, &stubStreamer{})

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}
