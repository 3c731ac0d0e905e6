package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/algomentor/dsa-tutor/backend/internal/model/chat"
)

// Status is the request lifecycle of a Store.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusAwaiting Status = "awaiting-response"
	StatusError    Status = "error"
)

var (
	// ErrEmptyInput is returned when Submit is called with blank pending input.
	ErrEmptyInput = errors.New("pending input is empty")
	// ErrInFlight is returned when Submit is called while a reply is outstanding.
	ErrInFlight = errors.New("a reply is already pending")
)

// Turner answers one chat turn. ai.Service and client.Client both satisfy it.
type Turner interface {
	Reply(ctx context.Context, req chat.TurnRequest) (chat.TurnReply, error)
}

// State is a point-in-time copy of the store.
type State struct {
	History      []chat.Message
	PendingInput string
	Context      string
	Status       Status
	LastError    error
}

// Option configures a Store.
type Option func(*Store)

// WithPersona sends personaID with every turn.
func WithPersona(personaID string) Option {
	return func(s *Store) {
		s.personaID = personaID
	}
}

// WithOnError registers a hook called with the classified notice of each failed turn.
func WithOnError(fn func(Notice)) Option {
	return func(s *Store) {
		s.onError = fn
	}
}

// WithOnReply registers a hook called with each appended assistant message.
func WithOnReply(fn func(chat.Message)) Option {
	return func(s *Store) {
		s.onReply = fn
	}
}

// Store owns the conversation state of one chat session.
// At most one turn is in flight; Submit calls made meanwhile are dropped.
type Store struct {
	mu        sync.Mutex
	turner    Turner
	initial   []chat.Message
	personaID string
	onError   func(Notice)
	onReply   func(chat.Message)

	history   []chat.Message
	pending   string
	context   string
	status    Status
	lastError error
	// epoch changes on Reset so that replies to an abandoned conversation are discarded.
	epoch uint64
}

// NewStore creates a store whose history starts with greeting.
func NewStore(turner Turner, greeting chat.Message, opts ...Option) *Store {
	s := &Store{
		turner:  turner,
		initial: []chat.Message{greeting},
		status:  StatusIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.history = append([]chat.Message(nil), s.initial...)
	return s
}

// SetInput replaces the pending input text.
func (s *Store) SetInput(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = text
}

// SetContext sets the problem link sent alongside each turn. Empty clears it.
func (s *Store) SetContext(problemURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.context = problemURL
}

// Submit sends the pending input as a user turn and waits for the reply.
//
// The user message is appended before the request is issued and is kept if
// the turn fails. ErrEmptyInput and ErrInFlight leave the state untouched.
func (s *Store) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.status == StatusAwaiting {
		s.mu.Unlock()
		return ErrInFlight
	}
	if strings.TrimSpace(s.pending) == "" {
		s.mu.Unlock()
		return ErrEmptyInput
	}

	s.history = append(s.history, chat.NewMessage(chat.RoleUser, s.pending))
	s.pending = ""
	s.status = StatusAwaiting
	s.lastError = nil
	epoch := s.epoch
	req := chat.TurnRequest{
		Messages:  append([]chat.Message(nil), s.history...),
		Context:   s.context,
		PersonaID: s.personaID,
	}
	s.mu.Unlock()

	reply, err := s.turner.Reply(ctx, req)

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return err
	}

	if err != nil {
		s.status = StatusError
		s.lastError = err
		onError := s.onError
		s.mu.Unlock()

		if onError != nil {
			onError(ClassifyNotice(err))
		}
		return err
	}

	assistant := chat.NewMessage(chat.RoleAssistant, reply.Content)
	s.history = append(s.history, assistant)
	s.status = StatusIdle
	onReply := s.onReply
	s.mu.Unlock()

	if onReply != nil {
		onReply(assistant)
	}
	return nil
}

// Reset restores the initial greeting-only conversation.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append([]chat.Message(nil), s.initial...)
	s.pending = ""
	s.lastError = nil
	s.status = StatusIdle
	s.epoch++
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return State{
		History:      append([]chat.Message(nil), s.history...),
		PendingInput: s.pending,
		Context:      s.context,
		Status:       s.status,
		LastError:    s.lastError,
	}
}

// Visible returns the most recent limit messages for display.
func (s *Store) Visible(limit int) []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]chat.Message(nil), chat.Window(s.history, limit)...)
}
