package live

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Registry owns the bot-id to live-session mapping. It is the only cross-bot
// shared mutable structure in the live layer; all map mutations happen under
// its mutex. Always injected, never a package-level singleton.
type Registry struct {
	client        Client
	timeoutMargin time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(client Client, timeoutMargin time.Duration) *Registry {
	return &Registry{
		client:        client,
		timeoutMargin: timeoutMargin,
		sessions:      make(map[string]*Session),
	}
}

// CreateSession connects a new live session for botID. Any existing session
// for the same id is fully torn down first; two live sessions never coexist
// for one bot.
func (r *Registry) CreateSession(ctx context.Context, botID, systemInstruction string, handler Handler) (*Session, error) {
	r.mu.Lock()
	old := r.sessions[botID]
	delete(r.sessions, botID)
	r.mu.Unlock()
	if old != nil {
		old.Disconnect()
	}

	session := NewSession(botID, systemInstruction, r.client, handler, r.timeoutMargin)
	if err := session.Connect(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.sessions[botID] = session
	total := len(r.sessions)
	r.mu.Unlock()
	slog.Info("live session created", "bot_id", botID, "total", total)
	return session, nil
}

// GetSession returns the active session for botID, or nil.
func (r *Registry) GetSession(botID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[botID]
}

// HasSession reports whether a live session exists for botID.
func (r *Registry) HasSession(botID string) bool {
	return r.GetSession(botID) != nil
}

// RemoveSession disconnects and discards the session for botID, if any.
func (r *Registry) RemoveSession(botID string) {
	r.mu.Lock()
	session := r.sessions[botID]
	delete(r.sessions, botID)
	total := len(r.sessions)
	r.mu.Unlock()
	if session == nil {
		return
	}
	session.Disconnect()
	slog.Info("live session removed", "bot_id", botID, "total", total)
}

// Shutdown disconnects all sessions. Teardown of each bot is independent; a
// failure on one never prevents attempting the rest.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	botIDs := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		botIDs = append(botIDs, id)
	}
	r.mu.Unlock()
	for _, id := range botIDs {
		r.RemoveSession(id)
	}
	slog.Info("all live sessions shut down")
}
