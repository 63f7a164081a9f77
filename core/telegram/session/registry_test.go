package session

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

type keyContext struct {
	tele.Context

	sender *tele.User
	chat   *tele.Chat
}

func (c *keyContext) Sender() *tele.User { return c.sender }
func (c *keyContext) Chat() *tele.Chat   { return c.chat }

func TestKeyFromContextNormalizesUsername(t *testing.T) {
	c := &keyContext{
		sender: &tele.User{Username: "Alice"},
		chat:   &tele.Chat{ID: 10},
	}
	assert.Equal(t, Key{Username: "alice", ChatID: 10}, KeyFromContext(c))

	// Begin and TakeAndClear must land on the same entry regardless of the
	// casing the transport reported.
	r := NewRegistry()
	r.Begin(context.Background(), KeyFromContext(c), "deck.new_card")
	c.sender.Username = "ALICE"
	action, ok := r.TakeAndClear(KeyFromContext(c))
	assert.True(t, ok)
	assert.Equal(t, Action("deck.new_card"), action)
}

func TestKeyFromContextMissingSenderOrChat(t *testing.T) {
	assert.Equal(t, Key{}, KeyFromContext(&keyContext{}))
	assert.Equal(t, Key{ChatID: 3}, KeyFromContext(&keyContext{chat: &tele.Chat{ID: 3}}))
}

func TestBeginSupersedesPendingAction(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()
	key := Key{Username: "alice", ChatID: 10}

	r.Begin(ctx, key, "deck.new_card")
	r.Begin(ctx, key, "deck.remove_card")

	action, ok := r.TakeAndClear(key)
	assert.True(t, ok)
	assert.Equal(t, Action("deck.remove_card"), action)
}

func TestTakeAndClearIsReadOnce(t *testing.T) {
	r := NewRegistry()
	key := Key{Username: "alice", ChatID: 10}
	r.Begin(context.Background(), key, "data.import")

	_, ok := r.TakeAndClear(key)
	assert.True(t, ok)

	_, ok = r.TakeAndClear(key)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestKeysAreIndependentPerChat(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	r.Begin(ctx, Key{Username: "alice", ChatID: 1}, "deck.new_card")
	r.Begin(ctx, Key{Username: "alice", ChatID: 2}, "admins.new")
	r.Begin(ctx, Key{Username: "bob", ChatID: 1}, "data.import")
	assert.Equal(t, 3, r.Len())

	action, ok := r.TakeAndClear(Key{Username: "alice", ChatID: 2})
	assert.True(t, ok)
	assert.Equal(t, Action("admins.new"), action)

	action, ok = r.TakeAndClear(Key{Username: "alice", ChatID: 1})
	assert.True(t, ok)
	assert.Equal(t, Action("deck.new_card"), action)
}

func TestTakeAndClearSingleWinnerUnderConcurrency(t *testing.T) {
	r := NewRegistry()
	key := Key{Username: "alice", ChatID: 1}
	r.Begin(context.Background(), key, "deck.new_card")

	const readers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	wg.Add(readers)
	for i := 0; i < readers; i++ {
		go func() {
			defer wg.Done()
			if _, ok := r.TakeAndClear(key); ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}
