package inktranslator

import (
	"fmt"
	"strings"
)

// Language is the closed set of languages the pipeline can read and write.
type Language string

const (
	LanguageJapanese    Language = "japanese"
	LanguageSimChinese  Language = "sim_chinese"
	LanguageTradChinese Language = "trad_chinese"
	LanguageKorean      Language = "korean"
	LanguageEnglish     Language = "english"
	LanguageVietnamese  Language = "vietnamese"
)

// TextDirection describes how glyphs flow when text is laid out.
type TextDirection string

const (
	// DirectionLTR is horizontal text, lines stacked top to bottom.
	DirectionLTR TextDirection = "ltr"
	// DirectionTTB is vertical text, columns running right to left.
	DirectionTTB TextDirection = "ttb"
)

// Legacy three-letter codes still accepted on the request surface.
var legacyLanguageCodes = map[string]Language{
	"JPN": LanguageJapanese,
	"ENG": LanguageEnglish,
	"KOR": LanguageKorean,
	"VIN": LanguageVietnamese,
	"CHI": LanguageSimChinese,
	"CHT": LanguageTradChinese,
}

var displayNames = map[Language]string{
	LanguageJapanese:    "Japanese",
	LanguageSimChinese:  "Chinese (Simplified)",
	LanguageTradChinese: "Chinese (Traditional)",
	LanguageKorean:      "Korean",
	LanguageEnglish:     "English",
	LanguageVietnamese:  "Vietnamese",
}

// Languages returns every supported language in a stable order.
func Languages() []Language {
	return []Language{
		LanguageJapanese,
		LanguageSimChinese,
		LanguageTradChinese,
		LanguageKorean,
		LanguageEnglish,
		LanguageVietnamese,
	}
}

// ParseLanguage normalizes a raw code (canonical or legacy) to a Language.
func ParseLanguage(code string) (Language, error) {
	if lang, ok := legacyLanguageCodes[strings.ToUpper(code)]; ok {
		return lang, nil
	}
	lang := Language(strings.ToLower(code))
	if !lang.Valid() {
		return "", fmt.Errorf("unsupported language %q", code)
	}
	return lang, nil
}

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	_, ok := displayNames[l]
	return ok
}

// DisplayName returns the human-readable name, e.g. "Chinese (Simplified)".
func (l Language) DisplayName() string {
	if name, ok := displayNames[l]; ok {
		return name
	}
	return string(l)
}

// Direction returns the rendering direction for the language. Japanese and
// both Chinese variants render as vertical right-to-left columns; Korean is
// conventionally set horizontally in modern typesetting.
func (l Language) Direction() TextDirection {
	switch l {
	case LanguageJapanese, LanguageSimChinese, LanguageTradChinese:
		return DirectionTTB
	default:
		return DirectionLTR
	}
}

// IsCJK reports whether the language uses CJK glyphs, which wrap character
// by character and need a larger minimum point size to stay legible.
func (l Language) IsCJK() bool {
	switch l {
	case LanguageJapanese, LanguageSimChinese, LanguageTradChinese, LanguageKorean:
		return true
	default:
		return false
	}
}

// ReadsRightToLeft reports whether boxes on the same row are read right to
// left, which drives the secondary reading-order sort key.
func (l Language) ReadsRightToLeft() bool {
	switch l {
	case LanguageJapanese, LanguageSimChinese, LanguageTradChinese:
		return true
	default:
		return false
	}
}
