package callbacks

import (
	"testing"

	"github.com/stretchr/testify/assert"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	tests := []struct {
		name    string
		cb      *tele.Callback
		unique  string
		payload string
	}{
		{name: "nil callback", cb: nil},
		{name: "unique set by telebot", cb: &tele.Callback{Unique: "deck_draw", Data: "42"}, unique: "deck_draw", payload: "42"},
		{name: "raw prefixed data", cb: &tele.Callback{Data: "\fdeck_remove|3"}, unique: "deck_remove", payload: "3"},
		{name: "no payload", cb: &tele.Callback{Data: "\fadmins_list"}, unique: "admins_list"},
		{name: "plain data", cb: &tele.Callback{Data: "legacy"}, unique: "legacy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unique, payload := ParseCallbackData(tt.cb)
			assert.Equal(t, tt.unique, unique)
			assert.Equal(t, tt.payload, payload)
		})
	}
}
