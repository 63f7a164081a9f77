package bot

import (
	"deckbot/core/telegram/keyboard"
	"deckbot/core/telegram/session"

	tele "gopkg.in/telebot.v4"
)

// Callback button keys. The key is the stable identifier baked into sent
// keyboards; old messages keep working as long as these do not change.
const (
	cbDeckDraw = "deck_draw"

	cbDeckList   = "deck_list"
	cbDeckAdd    = "deck_add"
	cbDeckRemove = "deck_remove"

	cbAdminsList   = "admins_list"
	cbAdminsAdd    = "admins_add"
	cbAdminsRemove = "admins_remove"

	cbDataExport = "data_export"
	cbDataImport = "data_import"
)

// Dialog continuation actions stored in the session registry.
const (
	actionNewCard     session.Action = "deck.new_card"
	actionRemoveCard  session.Action = "deck.remove_card"
	actionNewAdmin    session.Action = "admins.new"
	actionRemoveAdmin session.Action = "admins.remove"
	actionImport      session.Action = "data.import"
)

func userMenu() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "Draw a card", Unique: cbDeckDraw},
	})
}

func adminMenu() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "List cards", Unique: cbDeckList},
			{Text: "Add card", Unique: cbDeckAdd},
			{Text: "Remove card", Unique: cbDeckRemove},
		},
		[]keyboard.InlineBtn{
			{Text: "List admins", Unique: cbAdminsList},
			{Text: "Add admin", Unique: cbAdminsAdd},
			{Text: "Remove admin", Unique: cbAdminsRemove},
		},
		[]keyboard.InlineBtn{
			{Text: "Export data", Unique: cbDataExport},
			{Text: "Import data", Unique: cbDataImport},
		},
	)
}
