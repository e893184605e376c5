package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/ashureev/softsell/internal/identity"
	"github.com/coder/websocket"
)

// wsClientMessage is a frame sent by the chat widget.
type wsClientMessage struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// wsServerMessage is a frame sent to the chat widget. Session events are
// forwarded with their own type.
type wsServerMessage struct {
	Type  string `json:"type"`
	State *State `json:"state,omitempty"`
	Error string `json:"error,omitempty"`
}

// WebSocketHandler serves a chat session over a single websocket. It is
// the push alternative to the SSE endpoints and shares their sessions.
type WebSocketHandler struct {
	registry      *Registry
	allowedOrigin string
	isDev         bool
}

// NewWebSocketHandler creates a websocket chat handler.
func NewWebSocketHandler(registry *Registry, allowedOrigin string, isDev bool) *WebSocketHandler {
	return &WebSocketHandler{
		registry:      registry,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// ServeHTTP implements http.Handler for the websocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	visitorID := identity.VisitorIDFromContext(r.Context())
	tabID := identity.SessionIDFromContext(r.Context())

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "visitor_id", visitorID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "chat closed"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "visitor_id", visitorID)
		}
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sess := h.registry.GetOrCreate(visitorID, tabID)
	events, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	state := sess.Snapshot()
	if err := writeJSON(ctx, ws, wsServerMessage{Type: "state", State: &state}); err != nil {
		slog.Debug("Failed to send initial chat state", "error", err)
		return
	}
	slog.Info("Chat websocket connected", "visitor_id", visitorID, "session_id", sess.ID())

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		defer cancel()
		h.inputLoop(ctx, ws, sess)
	}()

	go func() {
		defer wg.Done()
		defer cancel()
		h.outputLoop(ctx, ws, events)
	}()

	wg.Wait()
	slog.Info("Chat websocket closed", "visitor_id", visitorID, "session_id", sess.ID())
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" || origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

func (h *WebSocketHandler) inputLoop(ctx context.Context, ws *websocket.Conn, sess *Session) {
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 || errors.Is(err, context.Canceled) {
				slog.Debug("Chat websocket closed by client", "session_id", sess.ID())
			} else {
				slog.Warn("Chat websocket read error", "error", err, "session_id", sess.ID())
			}
			return
		}

		var msg wsClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.sendError(ctx, ws, "invalid_message")
			continue
		}

		switch msg.Type {
		case "send":
			if _, err := sess.Send(msg.Content); err != nil {
				h.sendError(ctx, ws, "empty_message")
			}
		case "suggestion":
			if _, err := sess.SelectSuggestion(msg.Content); err != nil {
				h.sendError(ctx, ws, "empty_message")
			}
		case "ping":
			if err := writeJSON(ctx, ws, wsServerMessage{Type: "pong"}); err != nil {
				slog.Debug("Failed to send pong", "error", err)
			}
		default:
			h.sendError(ctx, ws, "unknown_type")
		}
	}
}

func (h *WebSocketHandler) outputLoop(ctx context.Context, ws *websocket.Conn, events <-chan Event) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeJSON(ctx, ws, ev); err != nil {
				slog.Debug("Chat websocket write error", "error", err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (h *WebSocketHandler) sendError(ctx context.Context, ws *websocket.Conn, code string) {
	if err := writeJSON(ctx, ws, wsServerMessage{Type: "error", Error: code}); err != nil {
		slog.Debug("Failed to send chat error frame", "error", err)
	}
}

func writeJSON(ctx context.Context, ws *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageText, data)
}
