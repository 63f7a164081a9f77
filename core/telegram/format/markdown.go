package format

import "regexp"

var mdV1Specials = regexp.MustCompile("([_*\\\\\\[`])")

// EscapeMarkdown escapes characters that Telegram Markdown (v1) treats as
// formatting so user-supplied captions render verbatim.
func EscapeMarkdown(text string) string {
	return mdV1Specials.ReplaceAllString(text, `\$1`)
}
