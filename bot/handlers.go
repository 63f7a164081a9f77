package bot

import (
	"fmt"
	"os"
	"strings"
	"time"

	"deckbot/core/logger"
	"deckbot/core/telegram/format"
	tghelpers "deckbot/core/telegram/helpers"
	"deckbot/core/telegram/session"
	"deckbot/deck"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

func actingUsername(c tele.Context) string {
	if sender := c.Sender(); sender != nil {
		return deck.NormalizeUsername(sender.Username)
	}
	return ""
}

func (a *App) start(c tele.Context) error {
	return tghelpers.SendText(c,
		"Hi! I deal captioned image cards. Draw one below.",
		&tele.SendOptions{ReplyMarkup: userMenu()},
	)
}

func (a *App) adminMenu(c tele.Context) error {
	return tghelpers.SendText(c,
		fmt.Sprintf("Hello, @%s.", actingUsername(c)),
		&tele.SendOptions{ReplyMarkup: adminMenu()},
	)
}

// unknown answers unrecognized commands. The admin gate reuses it so a
// non-admin cannot tell a gated command from a nonexistent one.
func (a *App) unknown(c tele.Context) error {
	return tghelpers.SendText(c, "Unknown command.")
}

func (a *App) draw(c tele.Context) error {
	pos, card, err := a.store.PickRandomCard()
	if err != nil {
		return err
	}

	ctx := tghelpers.BuildContext(c)
	logger.Debug(ctx, "bot", "deck.draw", slog.Int("position", pos))

	photo := &tele.Photo{
		File:    tele.FromDisk(a.store.BlobPath(card.Image)),
		Caption: card.Caption,
	}
	return tghelpers.SendPhoto(c, photo)
}

func (a *App) listCards(c tele.Context) error {
	var b strings.Builder
	for pos, card := range a.store.Cards() {
		caption := card.Caption
		if caption == "" {
			caption = "(no caption)"
		}
		fmt.Fprintf(&b, "%d. %s\n", pos, format.EscapeMarkdown(caption))
	}
	if b.Len() == 0 {
		return tghelpers.SendText(c, "The deck is empty.")
	}
	return tghelpers.SendMD(c, b.String())
}

func (a *App) beginAddCard(c tele.Context) error {
	a.sessions.Begin(tghelpers.BuildContext(c), session.KeyFromContext(c), actionNewCard)
	return tghelpers.SendText(c, "Send a photo with a caption for the new card.")
}

func (a *App) onNewCard(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Photo == nil {
		return deck.ErrInvalidAttachment
	}

	blob, hint, err := tghelpers.PhotoBytes(c)
	if err != nil {
		return fmt.Errorf("download photo: %w", err)
	}

	pos, err := a.store.AddCard(tghelpers.BuildContext(c), blob, hint, msg.Caption)
	if err != nil {
		return err
	}
	return tghelpers.SendText(c, fmt.Sprintf("Card #%d added.", pos))
}

func (a *App) beginRemoveCard(c tele.Context) error {
	if a.store.CardCount() == 0 {
		return deck.ErrDeckEmpty
	}
	if err := a.listCards(c); err != nil {
		return err
	}
	a.sessions.Begin(tghelpers.BuildContext(c), session.KeyFromContext(c), actionRemoveCard)
	return tghelpers.SendText(c, "Send the number of the card to remove.")
}

func (a *App) onRemoveCard(c tele.Context) error {
	pos, err := deck.ParsePosition(strings.TrimSpace(c.Text()))
	if err != nil {
		return err
	}

	card, err := a.store.RemoveCardAt(tghelpers.BuildContext(c), pos)
	if err != nil {
		return err
	}

	caption := card.Caption
	if caption == "" {
		caption = "(no caption)"
	}
	return tghelpers.SendText(c, fmt.Sprintf("Removed card #%d: %s", pos, caption))
}

func (a *App) listAdmins(c tele.Context) error {
	var b strings.Builder
	for pos, username := range a.store.Admins() {
		fmt.Fprintf(&b, "%d. @%s\n", pos, username)
	}
	return tghelpers.SendText(c, b.String())
}

func (a *App) beginAddAdmin(c tele.Context) error {
	a.sessions.Begin(tghelpers.BuildContext(c), session.KeyFromContext(c), actionNewAdmin)
	return tghelpers.SendText(c, "Send the username of the new admin.")
}

func (a *App) onNewAdmin(c tele.Context) error {
	username := deck.NormalizeUsername(strings.TrimSpace(c.Text()))
	if username == "" {
		return tghelpers.SendText(c, "Username must not be empty.")
	}

	added, err := a.store.AddAdmin(tghelpers.BuildContext(c), username)
	if err != nil {
		return err
	}
	if !added {
		return tghelpers.SendText(c, fmt.Sprintf("@%s is already an admin.", username))
	}
	return tghelpers.SendText(c, fmt.Sprintf("Admin @%s added.", username))
}

func (a *App) beginRemoveAdmin(c tele.Context) error {
	if err := a.listAdmins(c); err != nil {
		return err
	}
	a.sessions.Begin(tghelpers.BuildContext(c), session.KeyFromContext(c), actionRemoveAdmin)
	return tghelpers.SendText(c, "Send the number of the admin to remove.")
}

func (a *App) onRemoveAdmin(c tele.Context) error {
	pos, err := deck.ParsePosition(strings.TrimSpace(c.Text()))
	if err != nil {
		return err
	}

	removed, healed, err := a.store.RemoveAdminAt(tghelpers.BuildContext(c), pos, actingUsername(c))
	if err != nil {
		return err
	}

	if healed {
		return tghelpers.SendText(c, fmt.Sprintf(
			"Admin @%s removed. The admin list cannot become empty, so you remain an admin.", removed))
	}
	return tghelpers.SendText(c, fmt.Sprintf("Admin @%s removed.", removed))
}

func (a *App) exportData(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)

	f, err := os.CreateTemp("", "deck-export-*.zip")
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil {
			logger.Warn(ctx, "bot", "export.cleanup",
				slog.String("err", rmErr.Error()),
			)
		}
	}()

	if err := a.store.Export(ctx, f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("flush export file: %w", err)
	}

	doc := &tele.Document{
		File:     tele.FromDisk(f.Name()),
		FileName: fmt.Sprintf("deck-%s.zip", time.Now().Format("20060102-150405")),
	}
	// Sent synchronously: the temp file is removed when this handler returns.
	return c.Send(doc)
}

func (a *App) beginImport(c tele.Context) error {
	a.sessions.Begin(tghelpers.BuildContext(c), session.KeyFromContext(c), actionImport)
	return tghelpers.SendText(c, "Send the exported zip bundle as a document. It replaces the whole dataset.")
}

func (a *App) onImport(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Document == nil {
		return deck.ErrInvalidAttachment
	}

	bundle, _, err := tghelpers.DocumentBytes(c)
	if err != nil {
		return fmt.Errorf("download bundle: %w", err)
	}

	if err := a.store.Import(tghelpers.BuildContext(c), bundle, actingUsername(c)); err != nil {
		return err
	}
	return tghelpers.SendText(c, fmt.Sprintf(
		"Import complete: %d cards, %d admins.", a.store.CardCount(), a.store.AdminCount()))
}
