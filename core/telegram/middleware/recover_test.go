package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

// stubContext implements the small slice of tele.Context the middleware
// touches and records every outbound Send.
type stubContext struct {
	tele.Context

	store map[string]any
	sent  []string
}

func newStubContext() *stubContext {
	return &stubContext{store: map[string]any{}}
}

func (c *stubContext) Update() tele.Update { return tele.Update{ID: 1} }
func (c *stubContext) Sender() *tele.User  { return &tele.User{ID: 7, Username: "alice"} }
func (c *stubContext) Chat() *tele.Chat    { return &tele.Chat{ID: 42} }

func (c *stubContext) Get(key string) any      { return c.store[key] }
func (c *stubContext) Set(key string, val any) { c.store[key] = val }

func (c *stubContext) Send(what any, _ ...any) error {
	if s, ok := what.(string); ok {
		c.sent = append(c.sent, s)
	}
	return nil
}

func TestRecoverMiddlewareRepliesOnPanic(t *testing.T) {
	c := newStubContext()
	h := RecoverMiddleware(ErrorReplyOptions{})(func(tele.Context) error {
		panic("boom")
	})

	require.NoError(t, h(c))
	require.Len(t, c.sent, 1)
	assert.Equal(t, defaultGenericReply, c.sent[0])
}

func TestRecoverMiddlewareVerboseIncludesPanicValue(t *testing.T) {
	c := newStubContext()
	h := RecoverMiddleware(ErrorReplyOptions{Verbose: true})(func(tele.Context) error {
		panic("boom")
	})

	require.NoError(t, h(c))
	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0], defaultGenericReply)
	assert.Contains(t, c.sent[0], "boom")
}

func TestRecoverMiddlewareLeavesHealthyHandlersAlone(t *testing.T) {
	c := newStubContext()
	calls := 0
	h := RecoverMiddleware(ErrorReplyOptions{})(func(tele.Context) error {
		calls++
		return nil
	})

	require.NoError(t, h(c))
	assert.Equal(t, 1, calls)
	assert.Empty(t, c.sent)
}

// A failing handler must produce exactly one reply whether it returns an
// error or panics, with the full chain applied.
func TestFailureIsolationSingleReply(t *testing.T) {
	opts := ErrorReplyOptions{}

	c := newStubContext()
	h := RecoverMiddleware(opts)(ErrorReplyMiddleware(opts)(func(tele.Context) error {
		return assert.AnError
	}))
	require.Error(t, h(c))
	assert.Len(t, c.sent, 1)

	c = newStubContext()
	h = RecoverMiddleware(opts)(ErrorReplyMiddleware(opts)(func(tele.Context) error {
		panic("boom")
	}))
	require.NoError(t, h(c))
	assert.Len(t, c.sent, 1)
}
