package model

import "strings"

type Locale string

const (
	LocaleEN Locale = "en"
	LocaleDE Locale = "de"

	DefaultLocale = LocaleEN
)

// SupportedLocales is the closed set of site locales, primary first.
var SupportedLocales = []Locale{LocaleEN, LocaleDE}

func (l Locale) String() string { return string(l) }

// ParseLocale normalizes input; empty => default.
// Returns (value, true) if supported; otherwise (default, false).
func ParseLocale(s string) (Locale, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "en":
		return LocaleEN, true
	case "de":
		return LocaleDE, true
	default:
		return DefaultLocale, false
	}
}

func (l Locale) Valid() bool {
	return l == LocaleEN || l == LocaleDE
}

// IsGerman is the only switch the email templates use: anything that is not
// exactly "de" gets the English wording.
func (l Locale) IsGerman() bool { return l == LocaleDE }
