// Package i18n provides the bot's user-facing texts in several languages.
//
// Texts are Telegram HTML. Keys are grouped by prefix: bot.* for command
// replies, status.* for progress lines, error.* and success.* for the final
// outcome and format.* for small helpers.
package i18n

import (
	"fmt"
)

const (
	// DefaultLanguage is the fallback language when no translation is available
	DefaultLanguage = "en"
	// BerneseGermanMessages is a Swiss Dialect spoken in the Canton of Bern
	BerneseGermanMessages = "ch_be"
)

// catalogs maps a language code to its messages. The default language must be complete.
var catalogs = map[string]map[string]string{
	DefaultLanguage:       englishMessages,
	BerneseGermanMessages: berneseGermanMessages,
}

// Localizer looks up texts for one language, falling back to English per key.
type Localizer struct {
	messages map[string]string
	fallback map[string]string
}

// NewLocalizer creates a localizer for language. Unknown languages get English.
func NewLocalizer(language string) *Localizer {
	return &Localizer{
		messages: getMessages(language),
		fallback: englishMessages,
	}
}

// T returns the text for key formatted with args, or the key itself when no
// language defines it.
func (l *Localizer) T(key string, args ...any) string {
	message, exists := l.messages[key]
	if !exists {
		message, exists = l.fallback[key]
	}
	if !exists {
		return key
	}

	if len(args) == 0 {
		return message
	}
	return fmt.Sprintf(message, args...)
}

// GetSupportedLanguages returns the language codes, default first.
func GetSupportedLanguages() []string {
	return []string{DefaultLanguage, BerneseGermanMessages}
}

// IsSupported reports whether language has its own message set.
func IsSupported(language string) bool {
	_, ok := catalogs[language]
	return ok
}

func getMessages(language string) map[string]string {
	if messages, ok := catalogs[language]; ok {
		return messages
	}
	return englishMessages
}
