// Package deck owns the durable dataset of the bot: an ordered deck of
// captioned image cards, the admin allow-list, and the blob files the cards
// reference. The in-memory copy is authoritative for reads; every successful
// mutation is persisted before it is reported as done.
package deck

import (
	"strconv"
	"strings"
)

// Card is one deck entry. Identity is positional: cards are numbered 1..N in
// insertion order and the numbering is what users see in listings.
type Card struct {
	// Image is the blob file name under the images directory.
	Image string `json:"image"`
	// Caption is the text shown together with the image.
	Caption string `json:"caption"`
}

// record is the structured part of the dataset as stored in data.json.
type record struct {
	Admins []string `json:"admins"`
	Cards  []Card   `json:"cards"`
}

func (r record) clone() record {
	return record{
		Admins: append([]string(nil), r.Admins...),
		Cards:  append([]Card(nil), r.Cards...),
	}
}

// ParsePosition parses a user-supplied token as a 1-based list position.
// A token that is not an integer yields ErrInvalidNumber; range checking is
// left to the operation that consumes the position.
func ParsePosition(token string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(token))
	if err != nil {
		return 0, ErrInvalidNumber
	}
	return n, nil
}

// NormalizeUsername strips a leading @, surrounding whitespace, and case so
// that "@Name" and "name" address the same admin entry. Telegram usernames
// are case-insensitive.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(username), "@"))
}
