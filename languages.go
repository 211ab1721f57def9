package treelai

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// rtlScripts lists the scripts written right-to-left.
var rtlScripts = map[string]bool{
	"Arab": true,
	"Hebr": true,
	"Syrc": true,
	"Thaa": true,
	"Nkoo": true,
	"Adlm": true,
	"Rohg": true,
}

var englishNames = display.English.Tags()

// ParseLanguage parses a language code such as "es", "pt-BR" or "zh_TW".
func ParseLanguage(langCode string) (language.Tag, error) {
	return language.Parse(NormalizeLocale(langCode))
}

// GetLanguageName returns the English name of a language code for prompts.
// Falls back to the code itself if it cannot be parsed or named.
func GetLanguageName(langCode string) string {
	tag, err := ParseLanguage(langCode)
	if err != nil {
		return langCode
	}
	name := englishNames.Name(tag)
	if name == "" {
		return langCode
	}
	return name
}

// BaseLanguage returns the lowercase ISO 639 base of a language code
// ("pt" for "pt_BR"). Falls back to the code's first segment.
func BaseLanguage(langCode string) string {
	tag, err := ParseLanguage(langCode)
	if err == nil {
		if base, conf := tag.Base(); conf != language.No {
			return base.String()
		}
	}
	return strings.ToLower(strings.Split(NormalizeLocale(langCode), "-")[0])
}

// GetDirection returns "rtl" for right-to-left languages, "ltr" otherwise.
func GetDirection(langCode string) string {
	tag, err := ParseLanguage(langCode)
	if err != nil {
		return "ltr"
	}
	script, conf := tag.Script()
	if conf != language.No && rtlScripts[script.String()] {
		return "rtl"
	}
	return "ltr"
}

// IsRTL returns true if the language uses right-to-left text direction.
func IsRTL(langCode string) bool {
	return GetDirection(langCode) == "rtl"
}

// NormalizeLocale converts a language code to BCP 47 form (e.g., "es_ES" → "es-ES").
func NormalizeLocale(langCode string) string {
	return strings.ReplaceAll(strings.TrimSpace(langCode), "_", "-")
}
