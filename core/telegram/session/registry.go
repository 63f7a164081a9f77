// Package session tracks in-progress multi-step dialogs. Each (username,
// chat) pair holds at most one pending action: the identifier of the handler
// that must consume the next inbound message from that user in that chat.
// Entries live in memory only; a restart simply ends every open dialog.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"deckbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// Key identifies one continuation slot.
type Key struct {
	Username string
	ChatID   int64
}

// KeyFromContext derives the continuation key for the acting sender. All
// callers must build keys through this so that Begin and TakeAndClear agree:
// Telegram usernames are case-insensitive, so they are stored lowercased,
// without any leading @.
func KeyFromContext(c tele.Context) Key {
	var key Key
	if sender := c.Sender(); sender != nil {
		key.Username = strings.ToLower(strings.TrimPrefix(sender.Username, "@"))
	}
	if chat := c.Chat(); chat != nil {
		key.ChatID = chat.ID
	}
	return key
}

// Action names the continuation handler that should run next. The full set
// of valid actions is fixed at startup by the registration table; the
// registry itself treats the value as opaque.
type Action string

// Registry is a concurrency-safe map of pending actions. Entries are
// independent per key and require no cross-key ordering.
type Registry struct {
	mu      sync.Mutex
	pending map[Key]Action
}

// NewRegistry constructs an empty session registry.
func NewRegistry() *Registry {
	return &Registry{pending: make(map[Key]Action)}
}

// Begin records a pending action for the key, unconditionally replacing any
// stale one: a fresh dialog start always supersedes an abandoned dialog.
func (r *Registry) Begin(ctx context.Context, key Key, action Action) {
	r.mu.Lock()
	prev, had := r.pending[key]
	r.pending[key] = action
	r.mu.Unlock()

	attrs := []slog.Attr{
		slog.String("username", logger.SanitizeLimit(key.Username, 64)),
		slog.Int64("chat_id", key.ChatID),
		slog.String("action", string(action)),
	}
	if had {
		attrs = append(attrs, slog.String("superseded", string(prev)))
	}
	logger.Debug(ctx, "session", "session.begin", attrs...)
}

// TakeAndClear atomically reads and removes the pending action for the key.
// Each pending action dispatches exactly one continuation; a second read
// finds nothing.
func (r *Registry) TakeAndClear(key Key) (Action, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	action, ok := r.pending[key]
	if ok {
		delete(r.pending, key)
	}
	return action, ok
}

// Len reports the number of open dialogs, for diagnostics.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
