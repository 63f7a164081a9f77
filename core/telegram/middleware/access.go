package middleware

import (
	"deckbot/core/logger"
	tghelpers "deckbot/core/telegram/helpers"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// AdminChecker answers whether a username currently has admin rights.
type AdminChecker interface {
	IsAdmin(username string) bool
}

// AccessOptions defines how admin-only checks behave.
type AccessOptions struct {
	Checker AdminChecker
	// OnReject runs for non-admins. It should be indistinguishable from the
	// unknown-command reply so the gate does not reveal which handlers exist.
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware ensures that only current admins reach downstream handlers.
func AdminOnlyMiddleware(opts AccessOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			username := ""
			if sender != nil {
				username = sender.Username
			}
			if opts.Checker != nil && username != "" && opts.Checker.IsAdmin(username) {
				return next(c)
			}

			ctx := tghelpers.BuildContext(c)
			logger.Debug(ctx, "tg", "access.denied",
				slog.String("username", logger.SanitizeLimit(username, 64)),
			)
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
	}
}
