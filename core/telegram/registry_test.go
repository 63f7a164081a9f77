package telegram

import (
	"testing"

	"deckbot/core/telegram/commands"
	"deckbot/core/telegram/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

func noopHandler(tele.Context) error { return nil }

func TestRegisterCommandValidation(t *testing.T) {
	reg := NewRegistry()

	reg.RegisterCommand("/start", commands.Command{Handler: noopHandler, Description: "start"})
	reg.RegisterCommand("start", commands.Command{Handler: noopHandler, Description: "missing slash"})
	reg.RegisterCommand("/nodesc", commands.Command{Handler: noopHandler})
	reg.RegisterCommand("/start", commands.Command{Handler: noopHandler, Description: "duplicate"})

	cmds := reg.Commands()
	require.Len(t, cmds, 1)
	assert.Equal(t, "start", cmds["/start"].Description)
}

func TestLookupCommandAliases(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/admin", commands.Command{
		Handler:     noopHandler,
		Description: "admin menu",
		Aliases:     []string{"menu"},
	})

	key, _, ok := reg.LookupCommand("/menu")
	require.True(t, ok)
	assert.Equal(t, "/admin", key)

	key, _, ok = reg.LookupCommand("admin")
	require.True(t, ok)
	assert.Equal(t, "/admin", key)

	_, _, ok = reg.LookupCommand("/missing")
	assert.False(t, ok)
}

func TestListCommandsHidesAdminEntries(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Handler: noopHandler, Description: "start"})
	reg.RegisterCommand("/admin", commands.Command{Handler: noopHandler, Description: "admin", AdminOnly: true})

	visible := reg.ListCommands(true)
	require.Len(t, visible, 1)
	assert.Equal(t, "/start", visible[0].Text)

	assert.Len(t, reg.ListCommands(false), 2)
}

func TestRegisterCallbackRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.RegisterCallback("deck_draw", Handler{Func: noopHandler}))
	err := reg.RegisterCallback("deck_draw", Handler{Func: noopHandler})
	require.Error(t, err)

	h, ok := reg.GetCallback("deck_draw")
	require.True(t, ok)
	assert.NotNil(t, h.Func)

	_, ok = reg.GetCallback("unknown_key")
	assert.False(t, ok)
}

func TestRegisterContinuationRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	action := session.Action("deck.new_card")

	require.NoError(t, reg.RegisterContinuation(action, Handler{Func: noopHandler, AdminOnly: true}))
	require.Error(t, reg.RegisterContinuation(action, Handler{Func: noopHandler}))

	h, ok := reg.GetContinuation(action)
	require.True(t, ok)
	assert.True(t, h.AdminOnly)
}
