package telegram

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"deckbot/core/logger"
	"deckbot/core/telegram/commands"
	"deckbot/core/telegram/session"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Handler binds a handler function with its access requirement. Callbacks and
// continuations use it; commands carry the flag on commands.Command.
type Handler struct {
	Func      tele.HandlerFunc
	AdminOnly bool
}

// Registry is the closed dispatch table of the bot: command names, callback
// button keys, and continuation action identifiers each resolve to exactly
// one registered handler. The table is built once at startup; nothing is
// looked up dynamically beyond it.
type Registry struct {
	commands      map[string]commands.Command
	callbacks     map[string]Handler
	continuations map[session.Action]Handler
	mu            sync.RWMutex

	callbackNotFound tele.HandlerFunc
	textFallback     tele.HandlerFunc
}

// NewRegistry creates an empty Registry with default fallbacks.
func NewRegistry() *Registry {
	return &Registry{
		commands:      make(map[string]commands.Command),
		callbacks:     make(map[string]Handler),
		continuations: make(map[session.Action]Handler),
		callbackNotFound: func(c tele.Context) error {
			// Unknown buttons are answered and otherwise ignored.
			_ = c.Respond()
			return nil
		},
	}
}

// RegisterCommand adds a new command.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) {
	if r == nil || name == "" || cmd.Handler == nil || cmd.Description == "" {
		logger.Warn(context.Background(), "tg.wire", "register.command.skip",
			slog.String("name", name),
			slog.String("cause", "invalid"),
		)
		return
	}
	if name[0] != '/' {
		logger.Warn(context.Background(), "tg.wire", "register.command.skip",
			slog.String("name", name),
			slog.String("cause", "no_slash_prefix"),
		)
		return
	}
	if _, exists := r.commands[name]; exists {
		logger.Warn(context.Background(), "tg.wire", "register.command.duplicate",
			slog.String("name", name),
		)
		return
	}
	r.commands[name] = cmd
}

// ListCommands returns a slice of tele.Command, optionally filtering out hidden and admin-only commands.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	var list []tele.Command
	for cmd, meta := range r.commands {
		if visibleOnly && (meta.Hidden || meta.AdminOnly) {
			continue
		}
		list = append(list, tele.Command{Text: cmd, Description: meta.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// LookupCommand searches for a command by name or its aliases and returns the canonical key with metadata if found.
func (r *Registry) LookupCommand(name string) (string, commands.Command, bool) {
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	if cmd, ok := r.commands[name]; ok {
		return name, cmd, true
	}
	for key, cmd := range r.commands {
		for _, alias := range cmd.Aliases {
			if alias == name || "/"+alias == name {
				return key, cmd, true
			}
		}
	}
	return "", commands.Command{}, false
}

// Commands returns all registered commands.
func (r *Registry) Commands() map[string]commands.Command {
	return r.commands
}

// RegisterCallback adds a callback handler mapped to its button key.
func (r *Registry) RegisterCallback(key string, h Handler) error {
	if r == nil || key == "" || h.Func == nil {
		logger.Warn(context.Background(), "tg.wire", "register.callback.skip",
			slog.String("cb_key", key),
		)
		return errors.New("invalid callback registration")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.callbacks[key]; exists {
		logger.Warn(context.Background(), "tg.wire", "register.callback.duplicate",
			slog.String("cb_key", key),
		)
		return fmt.Errorf("callback already registered: %s", key)
	}
	r.callbacks[key] = h
	return nil
}

// GetCallback safely returns the handler for a button key.
func (r *Registry) GetCallback(key string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// ListCallbacks returns sorted keys (for diagnostics).
func (r *Registry) ListCallbacks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// RegisterContinuation maps a pending-action identifier to the handler that
// consumes the next message of that dialog.
func (r *Registry) RegisterContinuation(action session.Action, h Handler) error {
	if r == nil || action == "" || h.Func == nil {
		logger.Warn(context.Background(), "tg.wire", "register.continuation.skip",
			slog.String("action", string(action)),
		)
		return errors.New("invalid continuation registration")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.continuations[action]; exists {
		logger.Warn(context.Background(), "tg.wire", "register.continuation.duplicate",
			slog.String("action", string(action)),
		)
		return fmt.Errorf("continuation already registered: %s", action)
	}
	r.continuations[action] = h
	return nil
}

// GetContinuation safely returns the handler for a pending action.
func (r *Registry) GetContinuation(action session.Action) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.continuations[action]
	return h, ok
}

// SetCallbackNotFound replaces the fallback handler for unknown callbacks.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h != nil {
		r.callbackNotFound = h
	}
}

// CallbackNotFound returns the current fallback callback handler.
func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	return r.callbackNotFound
}

// SetTextFallback sets a global fallback handler for unknown text messages.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.textFallback = h
}

// TextFallback returns the current text fallback handler.
func (r *Registry) TextFallback() tele.HandlerFunc {
	return r.textFallback
}

// InitBotCommands sets the Telegram bot commands shown in the command menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	if err := bot.SetCommands(reg.ListCommands(true)); err != nil {
		logger.Error(context.Background(), "tg.wire", "register.commands.set_failed",
			slog.String("err", err.Error()),
		)
	}
}
