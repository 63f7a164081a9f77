package middleware

import (
	"fmt"
	"runtime/debug"

	"deckbot/core/logger"
	tghelpers "deckbot/core/telegram/helpers"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// RecoverMiddleware catches panics in handlers and prevents the bot from
// crashing. A caught panic is logged with its stack and answered with the
// generic failure reply, so a broken handler still produces exactly one
// response to the originating chat.
func RecoverMiddleware(opts ErrorReplyOptions) tele.MiddlewareFunc {
	generic := opts.Generic
	if generic == "" {
		generic = defaultGenericReply
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			defer func() {
				if r := recover(); r != nil {
					ctx := tghelpers.BuildContext(c)
					logger.Error(ctx, "tg", "tg.panic",
						slog.Any("err", r),
						slog.String("stack", string(debug.Stack())),
					)
					text := generic
					if opts.Verbose {
						text += fmt.Sprintf("\n\npanic: %v", r)
					}
					_ = c.Send(text)
				}
			}()
			return next(c)
		}
	}
}
