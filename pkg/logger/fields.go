package logger

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

const previewRunes = 32

// TextPreview logs at most the first few characters of caller-supplied text,
// along with its full length in runes.
func TextPreview(key, text string) zap.Field {
	n := utf8.RuneCountInString(text)
	if n <= previewRunes {
		return zap.String(key, text)
	}
	runes := []rune(text)
	return zap.String(key, string(runes[:previewRunes])+"…("+strconv.Itoa(n)+" runes)")
}

// MaskEmail keeps the first character of the local part and the domain.
// Example: admin@fairgo.in -> a••••@fairgo.in
func MaskEmail(key, email string) zap.Field {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return zap.String(key, strings.Repeat("•", utf8.RuneCountInString(email)))
	}
	local := []rune(email[:at])
	return zap.String(key, string(local[0])+strings.Repeat("•", len(local)-1)+email[at:])
}
