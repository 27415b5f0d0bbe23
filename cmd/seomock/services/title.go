package services

import "strings"

const (
	maxTitleLength = 30
	defaultTitle   = "New session"
)

// GenerateTitle derives a session title from the first message: whitespace collapsed, cut to
// 30 characters with a trailing ellipsis.
func GenerateTitle(message string) string {
	text := strings.Join(strings.Fields(message), " ")
	if text == "" {
		return defaultTitle
	}
	r := []rune(text)
	if len(r) > maxTitleLength {
		return string(r[:maxTitleLength-1]) + "…"
	}
	return text
}
