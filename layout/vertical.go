package layout

import (
	inktranslator "github.com/miya-dang/InkTranslator"
)

// Column is one vertical run of characters drawn top to bottom.
type Column struct {
	Text string
	X    int
	Y    int
}

// VerticalResult is a vertical layout: columns ordered right to left, plus
// the metrics they were computed with.
type VerticalResult struct {
	FontSize    int
	CharWidth   int
	CharHeight  int
	CharSpacing int
	ColumnGap   int
	Columns     []Column
	// Truncated reports that columns ran past the left edge of the box
	// and were dropped.
	Truncated bool
}

// columnGap returns the horizontal distance between column left edges on
// top of the character width.
func columnGap(language inktranslator.Language) int {
	switch language {
	case inktranslator.LanguageJapanese:
		return 20
	case inktranslator.LanguageSimChinese, inktranslator.LanguageTradChinese:
		return 14
	default:
		return 10
	}
}

// charSpacing adjusts the vertical step between stacked characters.
// Japanese glyphs breathe a little; Chinese glyphs pack tighter.
func charSpacing(language inktranslator.Language) int {
	switch language {
	case inktranslator.LanguageJapanese:
		return 2
	case inktranslator.LanguageSimChinese, inktranslator.LanguageTradChinese:
		return -1
	default:
		return 0
	}
}

// LayoutVertical sizes and arranges text as top-to-bottom columns filling
// bbox from its right edge leftward.
func (e *Engine) LayoutVertical(text string, bbox inktranslator.BoundingBox, language inktranslator.Language) (*VerticalResult, error) {
	runes := []rune(text)
	if len(runes) == 0 {
		return &VerticalResult{FontSize: e.minSizeFor(language)}, nil
	}

	gap := columnGap(language)
	spacing := charSpacing(language)
	fontSize, err := e.optimalVerticalFontSize(runes, bbox, language, gap, spacing)
	if err != nil {
		return nil, err
	}

	face, err := e.fonts.Face(language, fontSize)
	if err != nil {
		return nil, err
	}
	m := newMeasurer(face)
	charW, charH := m.size(referenceChar(true))

	result := &VerticalResult{
		FontSize:    fontSize,
		CharWidth:   int(charW),
		CharHeight:  int(charH),
		CharSpacing: spacing,
		ColumnGap:   gap,
	}

	perColumn := charsPerColumn(bbox, int(charH), spacing)
	startX := bbox.X2 - 4 - int(charW)

	x := startX
	for offset := 0; offset < len(runes); offset += perColumn {
		end := offset + perColumn
		if end > len(runes) {
			end = len(runes)
		}
		if x < bbox.X1 {
			result.Truncated = true
			break
		}
		result.Columns = append(result.Columns, Column{
			Text: string(runes[offset:end]),
			X:    x,
			Y:    bbox.Y1 + 4,
		})
		x -= int(charW) + gap
	}
	return result, nil
}

// charsPerColumn is how many glyphs of the given step stack inside the
// box, always at least one.
func charsPerColumn(bbox inktranslator.BoundingBox, charHeight, spacing int) int {
	step := charHeight + spacing
	if step <= 0 {
		return 1
	}
	n := (bbox.Height() - 8) / step
	if n < 1 {
		n = 1
	}
	return n
}

// optimalVerticalFontSize binary-searches for the largest size whose column
// count still fits the box width.
func (e *Engine) optimalVerticalFontSize(runes []rune, bbox inktranslator.BoundingBox, language inktranslator.Language, gap, spacing int) (int, error) {
	minSize := e.minSizeFor(language)
	bestSize := minSize

	left, right := minSize, e.MaxFontSize
	for left <= right {
		mid := (left + right) / 2
		face, err := e.fonts.Face(language, mid)
		if err != nil {
			return 0, err
		}
		m := newMeasurer(face)
		charW, charH := m.size(referenceChar(true))

		perColumn := charsPerColumn(bbox, int(charH), spacing)
		columns := (len(runes) + perColumn - 1) / perColumn
		usedWidth := columns*int(charW) + (columns-1)*gap + 8

		if usedWidth <= bbox.Width() {
			bestSize = mid
			left = mid + 1
		} else {
			right = mid - 1
		}
	}
	return bestSize, nil
}
