package router

import (
	"time"

	tg "deckbot/core/telegram"
	"deckbot/core/telegram/callbacks"
	"deckbot/core/telegram/middleware"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// CallbackRoute returns a handler that routes callbacks through the registry.
// Unknown button keys fall through to the registry's not-found handler so a
// stale keyboard never reaches domain code.
func CallbackRoute(reg *tg.Registry, opts Options) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}

		key, _ := callbacks.ParseCallbackData(c.Callback())
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		// Stop the client spinner before doing any work.
		_ = c.Respond()

		cbHandler, ok := reg.GetCallback(key)
		if !ok || cbHandler.Func == nil {
			fallback := reg.CallbackNotFound()
			extras = append(extras, slog.String("reason", "not_found"))
			return handleWithSummary(c, name, start, "", "", func() error {
				if fallback != nil {
					return fallback(c)
				}
				return nil
			}, extras...)
		}

		h := middleware.ErrorReplyMiddleware(opts.Errors)(cbHandler.Func)
		if cbHandler.AdminOnly {
			h = middleware.AdminOnlyMiddleware(opts.Access)(h)
		}
		return handleWithSummary(c, name, start, "", "", func() error {
			return h(c)
		}, extras...)
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(opts.Errors)(middleware.LoggerMiddleware(handler)),
	}
}
