package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/softsell/internal/api"
	"github.com/ashureev/softsell/internal/domain"
	"github.com/ashureev/softsell/internal/identity"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// ChatRequest is the body of the message and suggestion endpoints.
type ChatRequest struct {
	Message string `json:"message"`
}

// Handler serves the chat widget over HTTP. Each exchange is streamed back
// as server-sent events on the response to the POST that started it.
type Handler struct {
	registry     *Registry
	replyTimeout time.Duration
}

// replyWait bounds how long an exchange stream waits for the assistant
// reply. A subscriber that lagged past its buffer never sees the reply
// event, so the stream ends with a state snapshot instead.
const replyWait = 4 * ComposeDelay

// NewHandler creates a chat handler backed by registry.
func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry, replyTimeout: replyWait}
}

// RegisterRoutes registers chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/chat", func(r chi.Router) {
		r.Get("/", h.HandleState)
		r.Delete("/", h.HandleReset)
		r.Post("/messages", h.HandleMessage)
		r.Post("/suggestions", h.HandleSuggestion)
	})
}

// HandleState handles GET /api/chat.
func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	visitorID := identity.VisitorIDFromContext(r.Context())
	tabID := identity.SessionIDFromContext(r.Context())
	api.JSON(w, http.StatusOK, h.registry.GetOrCreate(visitorID, tabID).Snapshot())
}

// HandleReset handles DELETE /api/chat. The tab gets a fresh session
// seeded with the greeting.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	visitorID := identity.VisitorIDFromContext(r.Context())
	tabID := identity.SessionIDFromContext(r.Context())
	api.JSON(w, http.StatusOK, h.registry.Reset(visitorID, tabID).Snapshot())
}

// HandleMessage handles POST /api/chat/messages.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	h.handleExchange(w, r, (*Session).Send)
}

// HandleSuggestion handles POST /api/chat/suggestions.
func (h *Handler) HandleSuggestion(w http.ResponseWriter, r *http.Request) {
	h.handleExchange(w, r, (*Session).SelectSuggestion)
}

func (h *Handler) handleExchange(w http.ResponseWriter, r *http.Request, submit func(*Session, string) (uint64, error)) {
	visitorID := identity.VisitorIDFromContext(r.Context())
	tabID := identity.SessionIDFromContext(r.Context())

	var req ChatRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		api.Error(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	sess := h.registry.GetOrCreate(visitorID, tabID)
	events, cancel := sess.Subscribe()
	defer cancel()

	exchange, err := submit(sess, req.Message)
	if errors.Is(err, ErrEmptyMessage) {
		api.Error(w, http.StatusBadRequest, "message is required")
		return
	}
	if err != nil {
		api.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	slog.Debug("Chat exchange started",
		"visitor_id", visitorID,
		"session_id", sess.ID(),
		"exchange", exchange,
		"request_id", chiMiddleware.GetReqID(r.Context()),
	)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	timeout := time.NewTimer(h.replyTimeout)
	defer timeout.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Exchange != exchange {
				continue
			}
			data, err := json.Marshal(ev)
			if err != nil {
				slog.Warn("Failed to marshal chat event", "error", err)
				return
			}
			if err := writeSSEWithID(w, exchange, string(ev.Type), string(data)); err != nil {
				slog.Debug("Chat client went away", "session_id", sess.ID(), "error", err)
				return
			}
			flusher.Flush()

			if isReply(ev) {
				writeDone(w, flusher, exchange)
				return
			}
		case <-timeout.C:
			slog.Warn("Chat reply not observed, sending snapshot", "session_id", sess.ID(), "exchange", exchange)
			data, err := json.Marshal(sess.Snapshot())
			if err != nil {
				slog.Warn("Failed to marshal chat state", "error", err)
				return
			}
			if err := writeSSEWithID(w, exchange, "state", string(data)); err != nil {
				slog.Debug("Chat client went away", "session_id", sess.ID(), "error", err)
				return
			}
			writeDone(w, flusher, exchange)
			return
		case <-r.Context().Done():
			slog.Debug("Chat exchange abandoned before reply", "session_id", sess.ID(), "exchange", exchange)
			return
		}
	}
}

func writeDone(w io.Writer, flusher http.Flusher, exchange uint64) {
	if err := writeSSEWithID(w, exchange, "done", fmt.Sprintf(`{"exchange":%d}`, exchange)); err != nil {
		slog.Debug("Failed to write done event", "error", err)
	}
	flusher.Flush()
}

func isReply(ev Event) bool {
	return ev.Type == EventMessage && ev.Message != nil && ev.Message.Role == domain.RoleAssistant
}

func writeSSEWithID(w io.Writer, id uint64, event, data string) error {
	_, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", id, event, data)
	return err
}

// TranscriptObserver returns a registry observer that records every chat
// message to log.
func TranscriptObserver(log ConversationLogger) Observer {
	return func(visitorID, sessionID string, ev Event) {
		if ev.Type != EventMessage || ev.Message == nil {
			return
		}
		direction, eventType := "inbound", "chat_user_message"
		if ev.Message.Role == domain.RoleAssistant {
			direction, eventType = "outbound", "chat_assistant_message"
		}
		meta := map[string]any{"exchange": ev.Exchange}
		if ev.Topic != "" {
			meta["topic"] = string(ev.Topic)
		}
		log.Log(ConversationLogEvent{
			Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
			VisitorID:  visitorID,
			SessionID:  sessionID,
			Channel:    "chat",
			Direction:  direction,
			EventType:  eventType,
			ContentRaw: ev.Message.Content,
			Content:    cleanForReadability(ev.Message.Content),
			Meta:       meta,
		})
	}
}
