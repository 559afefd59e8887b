package domain

import "strings"

type Locale string

const (
	LocaleArabic  Locale = "ar"
	LocaleEnglish Locale = "en"

	DefaultLocale = LocaleArabic
)

// ParseLocale accepts a bare language or a language tag such as "en-US".
// Anything else yields DefaultLocale.
func ParseLocale(s string) Locale {
	lang, _, _ := strings.Cut(strings.TrimSpace(s), "-")
	lang, _, _ = strings.Cut(lang, "_")
	switch Locale(strings.ToLower(lang)) {
	case LocaleEnglish:
		return LocaleEnglish
	case LocaleArabic:
		return LocaleArabic
	}
	return DefaultLocale
}
