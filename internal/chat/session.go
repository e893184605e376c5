package chat

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ashureev/softsell/internal/domain"
)

// ErrEmptyMessage is returned when a blank message is sent. Nothing is
// appended to the transcript in that case.
var ErrEmptyMessage = errors.New("message is empty")

// subscriberBuffer bounds how many events a slow subscriber may lag behind.
const subscriberBuffer = 32

// EventType categorizes session events pushed to transports.
type EventType string

const (
	EventComposing   EventType = "composing"
	EventMessage     EventType = "message"
	EventSuggestions EventType = "suggestions"
)

// Event is a change to a session, published to every subscriber in the
// order it was applied.
type Event struct {
	Type        EventType           `json:"type"`
	Exchange    uint64              `json:"exchange"`
	Message     *domain.ChatMessage `json:"message,omitempty"`
	Topic       Topic               `json:"topic,omitempty"`
	Suggestions []string            `json:"suggestions,omitempty"`
	Composing   bool                `json:"composing"`
}

// State is a point-in-time copy of a session.
type State struct {
	SessionID   string               `json:"session_id"`
	Messages    []domain.ChatMessage `json:"messages"`
	Suggestions []string             `json:"suggestions"`
	Composing   bool                 `json:"composing"`
}

// Session is one chat conversation. The transcript only grows; the
// suggestion menu is replaced wholesale when the dispatcher falls back.
type Session struct {
	id         string
	dispatcher *Dispatcher
	scheduler  Scheduler

	mu          sync.Mutex
	transcript  []domain.ChatMessage
	suggestions []string
	composing   int
	exchange    uint64
	lastActive  time.Time
	subs        map[int]chan Event
	nextSubID   int
	observer    func(Event)
}

// SessionOption customizes a new Session.
type SessionOption func(*Session)

// WithScheduler overrides the scheduler used for delayed replies.
func WithScheduler(s Scheduler) SessionOption {
	return func(sess *Session) {
		sess.scheduler = s
	}
}

// WithObserver registers fn to see every event as it is published. fn runs
// with the session locked and must not block or call back into the session.
func WithObserver(fn func(Event)) SessionOption {
	return func(sess *Session) {
		sess.observer = fn
	}
}

// WithGreeting replaces the seeded assistant greeting.
func WithGreeting(greeting string) SessionOption {
	return func(sess *Session) {
		if greeting != "" {
			sess.transcript[0].Content = greeting
		}
	}
}

// NewSession creates a session seeded with the assistant greeting and the
// initial suggestion menu.
func NewSession(id string, dispatcher *Dispatcher, opts ...SessionOption) *Session {
	s := &Session{
		id:          id,
		dispatcher:  dispatcher,
		scheduler:   TimerScheduler{},
		transcript:  []domain.ChatMessage{{Role: domain.RoleAssistant, Content: Greeting}},
		suggestions: InitialSuggestions(),
		lastActive:  time.Now(),
		subs:        make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Send appends a free text user message and schedules the assistant reply.
func (s *Session) Send(input string) (uint64, error) {
	if strings.TrimSpace(input) == "" {
		return 0, ErrEmptyMessage
	}
	return s.submit(input, func() (Reply, []string) {
		return s.dispatcher.ClassifyAndRespond(input)
	}), nil
}

// SelectSuggestion appends a clicked suggestion as a user message and
// schedules the reply for it.
func (s *Session) SelectSuggestion(question string) (uint64, error) {
	if strings.TrimSpace(question) == "" {
		return 0, ErrEmptyMessage
	}
	return s.submit(question, func() (Reply, []string) {
		return s.dispatcher.RespondToSuggestion(question)
	}), nil
}

func (s *Session) submit(content string, respond func() (Reply, []string)) uint64 {
	s.mu.Lock()
	s.exchange++
	exchange := s.exchange
	msg := domain.ChatMessage{Role: domain.RoleUser, Content: content}
	s.transcript = append(s.transcript, msg)
	s.composing++
	s.lastActive = time.Now()
	s.publishLocked(Event{Type: EventMessage, Exchange: exchange, Message: &msg, Composing: true})
	s.publishLocked(Event{Type: EventComposing, Exchange: exchange, Composing: true})
	s.mu.Unlock()

	s.scheduler.Schedule(ComposeDelay, func() {
		reply, suggestions := respond()
		s.deliver(exchange, reply, suggestions)
	})
	return exchange
}

func (s *Session) deliver(exchange uint64, reply Reply, suggestions []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.composing > 0 {
		s.composing--
	}
	composing := s.composing > 0
	if suggestions != nil {
		s.suggestions = append([]string(nil), suggestions...)
		s.publishLocked(Event{Type: EventSuggestions, Exchange: exchange, Suggestions: s.copySuggestionsLocked(), Composing: composing})
	}
	msg := domain.ChatMessage{Role: domain.RoleAssistant, Content: reply.Text}
	s.transcript = append(s.transcript, msg)
	s.lastActive = time.Now()
	s.publishLocked(Event{Type: EventMessage, Exchange: exchange, Message: &msg, Topic: reply.Topic, Composing: composing})
}

// Snapshot returns a copy of the current session state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		SessionID:   s.id,
		Messages:    append([]domain.ChatMessage(nil), s.transcript...),
		Suggestions: s.copySuggestionsLocked(),
		Composing:   s.composing > 0,
	}
}

// Transcript returns a copy of the messages exchanged so far.
func (s *Session) Transcript() []domain.ChatMessage {
	return s.Snapshot().Messages
}

// Suggestions returns the current suggestion menu.
func (s *Session) Suggestions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copySuggestionsLocked()
}

// Composing reports whether a reply is pending.
func (s *Session) Composing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.composing > 0
}

// LastActive returns when the session last changed.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Subscribe registers for session events. The returned cancel function
// must be called to release the subscription.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Session) publishLocked(ev Event) {
	if s.observer != nil {
		s.observer(ev)
	}
	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			slog.Warn("Chat subscriber lagging, event dropped", "session_id", s.id, "subscriber", id, "type", ev.Type)
		}
	}
}

func (s *Session) copySuggestionsLocked() []string {
	return append([]string(nil), s.suggestions...)
}
