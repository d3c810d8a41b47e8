// Package ocr extracts positioned text regions from images using Google
// Cloud OCR backends.
package ocr

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode"

	inktranslator "github.com/miya-dang/InkTranslator"
	"github.com/miya-dang/InkTranslator/pkg/utils"
)

// mergeThreshold is the center distance under which detected regions are
// fused into one box before translation.
const mergeThreshold = 20

// Service is one OCR backend.
type Service interface {
	Name() string
	SupportedLanguages() []inktranslator.Language
	// ExtractText returns one box per detected text region, untranslated.
	ExtractText(ctx context.Context, imageBytes []byte, language inktranslator.Language) ([]inktranslator.TextBox, error)
}

// Manager routes OCR requests to the backend best suited to the source
// script and post-processes the result. Document AI reads dense Japanese
// pages noticeably better than Vision, so it handles Japanese whenever it
// is configured.
type Manager struct {
	vision     Service
	documentAI Service
}

func NewManager(vision, documentAI Service) *Manager {
	return &Manager{vision: vision, documentAI: documentAI}
}

// Detect runs OCR on the image and returns cleaned, merged boxes tagged
// with the source language.
func (m *Manager) Detect(ctx context.Context, imageBytes []byte, language inktranslator.Language) ([]inktranslator.TextBox, error) {
	service := m.serviceFor(language)
	if service == nil {
		return nil, fmt.Errorf("no OCR service configured")
	}

	boxes, err := service.ExtractText(ctx, imageBytes, language)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", service.Name(), err)
	}

	kept := boxes[:0]
	for _, box := range boxes {
		if box.BBox.Validate() != nil {
			continue
		}
		if !containsLetter(box.Text) {
			continue
		}
		box.Language = language
		kept = append(kept, box)
	}
	if len(kept) < len(boxes) {
		log.Printf("Dropped %d empty or degenerate boxes from %s", len(boxes)-len(kept), service.Name())
	}

	return inktranslator.MergeNearby(kept, mergeThreshold), nil
}

func (m *Manager) serviceFor(language inktranslator.Language) Service {
	if language == inktranslator.LanguageJapanese && supports(m.documentAI, language) {
		return m.documentAI
	}
	if supports(m.vision, language) {
		return m.vision
	}
	if supports(m.documentAI, language) {
		return m.documentAI
	}
	return nil
}

// SupportedLanguages returns the languages at least one configured backend
// can read, in canonical order.
func (m *Manager) SupportedLanguages() []inktranslator.Language {
	return utils.Filter(inktranslator.Languages(), func(l inktranslator.Language) bool {
		return supports(m.vision, l) || supports(m.documentAI, l)
	})
}

func supports(s Service, language inktranslator.Language) bool {
	if s == nil {
		return false
	}
	return utils.Some(s.SupportedLanguages(), func(l inktranslator.Language) bool {
		return l == language
	})
}

// containsLetter reports whether the text has at least one letter or digit,
// filtering out boxes that OCR filled with pure punctuation or noise.
func containsLetter(text string) bool {
	return utils.Some([]rune(strings.TrimSpace(text)), func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	})
}
