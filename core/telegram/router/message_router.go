package router

import (
	"strings"
	"time"

	tg "deckbot/core/telegram"
	"deckbot/core/telegram/middleware"
	"deckbot/core/telegram/session"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// TextRoutes builds handlers for text, photo, and document updates. A pending
// action for the sender consumes the update as a continuation; anything else
// either hits the unknown-command fallback (slash-prefixed text) or is
// silently skipped.
func TextRoutes(sessions *session.Registry, reg *tg.Registry, opts Options) []tg.Route {
	continueOr := func(c tele.Context, fallthru func(c tele.Context, start time.Time) error) error {
		start := time.Now()

		key := session.KeyFromContext(c)
		if action, ok := sessions.TakeAndClear(key); ok {
			name := "continue." + normalizeHandlerName(string(action))
			extras := []slog.Attr{slog.String("action", string(action))}

			cont, found := reg.GetContinuation(action)
			if !found || cont.Func == nil {
				// A pending action with no registered handler is a wiring
				// bug; drop it rather than leave the user stuck.
				logHandlerSummary(c, name, start, "skip", "not_found", nil, extras...)
				return nil
			}

			h := middleware.ErrorReplyMiddleware(opts.Errors)(cont.Func)
			if cont.AdminOnly {
				h = middleware.AdminOnlyMiddleware(opts.Access)(h)
			}
			return handleWithSummary(c, name, start, "", "", func() error {
				return h(c)
			}, extras...)
		}

		return fallthru(c, start)
	}

	textHandler := func(c tele.Context) error {
		return continueOr(c, func(c tele.Context, start time.Time) error {
			text := strings.TrimSpace(c.Text())
			if strings.HasPrefix(text, "/") {
				if fb := reg.TextFallback(); fb != nil {
					return handleWithSummary(c, "unknown_command", start, "", "", func() error {
						return fb(c)
					})
				}
			}
			logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
			return nil
		})
	}

	mediaHandler := func(c tele.Context) error {
		return continueOr(c, func(c tele.Context, start time.Time) error {
			logHandlerSummary(c, "unexpected_media", start, "skip", "ok", nil)
			return nil
		})
	}

	wrap := func(h tele.HandlerFunc) tele.HandlerFunc {
		return middleware.RecoverMiddleware(opts.Errors)(middleware.LoggerMiddleware(h))
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap(textHandler)},
		{Endpoint: tele.OnPhoto, Handler: wrap(mediaHandler)},
		{Endpoint: tele.OnDocument, Handler: wrap(mediaHandler)},
	}
}
