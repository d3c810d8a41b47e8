package layout

import (
	"fmt"
	"os"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	inktranslator "github.com/miya-dang/InkTranslator"
)

// ConfigurationError reports a broken language/font mapping. This is fatal
// at startup; it must never surface at request time.
type ConfigurationError struct {
	Language inktranslator.Language
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("font configuration for %q: %s", e.Language, e.Reason)
}

type faceKey struct {
	language inktranslator.Language
	size     int
}

// FontProvider owns one parsed font per language and a face cache keyed by
// (language, size). The cache is append-only for the process lifetime; a new
// key is built once and reused by every later layout and render call.
type FontProvider struct {
	fonts map[inktranslator.Language]*truetype.Font

	mu    sync.RWMutex
	faces map[faceKey]font.Face
}

// NewFontProvider parses one font file per language. Every supported
// language must have a path; a missing or unparsable entry is a
// ConfigurationError.
func NewFontProvider(paths map[inktranslator.Language]string) (*FontProvider, error) {
	fonts := map[inktranslator.Language]*truetype.Font{}
	for _, lang := range inktranslator.Languages() {
		path, ok := paths[lang]
		if !ok {
			return nil, &ConfigurationError{Language: lang, Reason: "no font path configured"}
		}
		fontBytes, err := os.ReadFile(path)
		if err != nil {
			return nil, &ConfigurationError{Language: lang, Reason: fmt.Sprintf("read %s: %v", path, err)}
		}
		parsed, err := truetype.Parse(fontBytes)
		if err != nil {
			return nil, &ConfigurationError{Language: lang, Reason: fmt.Sprintf("parse %s: %v", path, err)}
		}
		fonts[lang] = parsed
	}
	return &FontProvider{fonts: fonts, faces: map[faceKey]font.Face{}}, nil
}

// NewFontProviderFromFonts builds a provider from already-parsed fonts,
// still requiring an entry for every supported language.
func NewFontProviderFromFonts(fonts map[inktranslator.Language]*truetype.Font) (*FontProvider, error) {
	for _, lang := range inktranslator.Languages() {
		if fonts[lang] == nil {
			return nil, &ConfigurationError{Language: lang, Reason: "no font configured"}
		}
	}
	copied := map[inktranslator.Language]*truetype.Font{}
	for lang, f := range fonts {
		copied[lang] = f
	}
	return &FontProvider{fonts: copied, faces: map[faceKey]font.Face{}}, nil
}

// Face returns the cached face for (language, size), building it on first
// use. Concurrent readers of existing entries are never invalidated.
func (fp *FontProvider) Face(language inktranslator.Language, size int) (font.Face, error) {
	key := faceKey{language: language, size: size}

	fp.mu.RLock()
	face, ok := fp.faces[key]
	fp.mu.RUnlock()
	if ok {
		return face, nil
	}

	parsed, ok := fp.fonts[language]
	if !ok {
		return nil, &ConfigurationError{Language: language, Reason: "no font configured"}
	}

	fp.mu.Lock()
	defer fp.mu.Unlock()
	if face, ok := fp.faces[key]; ok {
		return face, nil
	}
	face = truetype.NewFace(parsed, &truetype.Options{Size: float64(size)})
	fp.faces[key] = face
	return face, nil
}

// ClearCache drops every cached face. Fonts stay loaded.
func (fp *FontProvider) ClearCache() {
	fp.mu.Lock()
	fp.faces = map[faceKey]font.Face{}
	fp.mu.Unlock()
}
