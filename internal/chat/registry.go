package chat

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

const sweepInterval = time.Minute

// Observer receives the events of every session in a registry.
type Observer func(visitorID, sessionID string, ev Event)

// Registry owns the chat sessions of every visitor, keyed by visitor ID and
// browser tab session ID.
type Registry struct {
	dispatcher *Dispatcher
	opts       []SessionOption
	observer   Observer

	mu     sync.RWMutex
	active map[string]map[string]*Session
}

// NewRegistry creates a registry whose sessions share dispatcher and opts.
func NewRegistry(dispatcher *Dispatcher, opts ...SessionOption) *Registry {
	return &Registry{
		dispatcher: dispatcher,
		opts:       opts,
		active:     make(map[string]map[string]*Session),
	}
}

// SetObserver installs fn for sessions created from now on. Call it before
// the registry is shared.
func (r *Registry) SetObserver(fn Observer) {
	r.observer = fn
}

// Get returns the session for a visitor tab, or nil.
func (r *Registry) Get(visitorID, tabID string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if sessions, ok := r.active[visitorID]; ok {
		return sessions[tabID]
	}
	return nil
}

// GetOrCreate returns the session for a visitor tab, starting a new one on
// first use.
func (r *Registry) GetOrCreate(visitorID, tabID string) *Session {
	if s := r.Get(visitorID, tabID); s != nil {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.active[visitorID]; !exists {
		r.active[visitorID] = make(map[string]*Session)
	}
	if s, exists := r.active[visitorID][tabID]; exists {
		return s
	}

	id := uuid.NewString()
	opts := r.opts
	if r.observer != nil {
		observe := r.observer
		opts = append(slices.Clip(opts), WithObserver(func(ev Event) {
			observe(visitorID, id, ev)
		}))
	}
	s := NewSession(id, r.dispatcher, opts...)
	r.active[visitorID][tabID] = s
	slog.Info("Chat session started", "visitor_id", visitorID, "tab_id", tabID, "session_id", s.ID())
	return s
}

// Reset ends the current session of a visitor tab and starts a fresh one.
func (r *Registry) Reset(visitorID, tabID string) *Session {
	r.End(visitorID, tabID)
	return r.GetOrCreate(visitorID, tabID)
}

// End removes the session of a visitor tab.
func (r *Registry) End(visitorID, tabID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions, ok := r.active[visitorID]
	if !ok {
		return
	}
	if s, exists := sessions[tabID]; exists {
		delete(sessions, tabID)
		slog.Info("Chat session ended", "visitor_id", visitorID, "tab_id", tabID, "session_id", s.ID())
	}
	if len(sessions) == 0 {
		delete(r.active, visitorID)
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, sessions := range r.active {
		n += len(sessions)
	}
	return n
}

// Sweep ends every session idle since before now-ttl that has no pending
// reply. It returns the number of sessions removed.
func (r *Registry) Sweep(now time.Time, ttl time.Duration) int {
	cutoff := now.Add(-ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for visitorID, sessions := range r.active {
		for tabID, s := range sessions {
			if s.Composing() || !s.LastActive().Before(cutoff) {
				continue
			}
			delete(sessions, tabID)
			removed++
		}
		if len(sessions) == 0 {
			delete(r.active, visitorID)
		}
	}
	return removed
}

// StartSweeper runs a background goroutine that periodically ends idle
// sessions until ctx is done.
func (r *Registry) StartSweeper(ctx context.Context, ttl time.Duration) {
	r.startSweeper(ctx, ttl, sweepInterval)
}

func (r *Registry) startSweeper(ctx context.Context, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Chat session sweeper started", "interval", interval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				if removed := r.Sweep(time.Now(), ttl); removed > 0 {
					slog.Info("Chat session sweeper removed idle sessions", "count", removed)
				}
			case <-ctx.Done():
				slog.Info("Chat session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}
