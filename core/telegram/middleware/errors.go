package middleware

import (
	"errors"

	tele "gopkg.in/telebot.v4"
)

// userFacing is implemented by domain errors that carry a message safe to
// show to the user verbatim.
type userFacing interface {
	UserMessage() string
}

// defaultGenericReply is sent for failures that carry no user-facing message.
const defaultGenericReply = "Something went wrong. Please try again."

// ErrorReplyOptions configures how handler failures are rendered to the chat.
type ErrorReplyOptions struct {
	// Generic is the reply for failures without a user-facing message.
	Generic string
	// Verbose appends the raw error text to the generic reply. Operator
	// debugging only; it may leak internals.
	Verbose bool
}

// ErrorReplyMiddleware guarantees that a failing handler produces exactly one
// reply to the originating chat: the domain message when the error carries
// one, a generic message otherwise. The error is passed through so routing
// summaries still record the failure.
func ErrorReplyMiddleware(opts ErrorReplyOptions) tele.MiddlewareFunc {
	generic := opts.Generic
	if generic == "" {
		generic = defaultGenericReply
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			var uf userFacing
			if errors.As(err, &uf) {
				_ = c.Send(uf.UserMessage())
				return err
			}

			text := generic
			if opts.Verbose {
				text += "\n\n" + err.Error()
			}
			_ = c.Send(text)
			return err
		}
	}
}
